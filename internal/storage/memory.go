package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RobCalvi/BNC-BE/internal/changelog"
	"github.com/RobCalvi/BNC-BE/internal/company"
	"github.com/RobCalvi/BNC-BE/internal/reminder"
)

// MemoryStorage is a mutex-guarded in-memory implementation of the
// Storage interface. It backs unit tests and the "memory" backend.
type MemoryStorage struct {
	companies map[string]*company.Company
	reminders map[string]*reminder.Reminder
	entries   []*changelog.Entry
	mu        sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		companies: make(map[string]*company.Company),
		reminders: make(map[string]*reminder.Reminder),
	}
}

// copyCompany returns a detached copy so callers never alias the
// stored document, matching how a real store round-trips data.
func copyCompany(c *company.Company) *company.Company {
	cp := *c
	cp.Contacts = append([]company.Contact(nil), c.Contacts...)
	cp.Actions = append([]company.Action(nil), c.Actions...)
	cp.Financials = make([]company.Snapshot, len(c.Financials))
	for i, s := range c.Financials {
		snap := make(company.Snapshot, len(s))
		for k, v := range s {
			snap[k] = v
		}
		cp.Financials[i] = snap
	}
	return &cp
}

func copyReminder(r *reminder.Reminder) *reminder.Reminder {
	cp := *r
	return &cp
}

// Company operations

func (m *MemoryStorage) CreateCompany(_ context.Context, c *company.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[c.ID] = copyCompany(c)
	return nil
}

func (m *MemoryStorage) GetCompany(_ context.Context, id string) (*company.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", id, ErrNotFound)
	}
	return copyCompany(c), nil
}

func (m *MemoryStorage) ListCompanies(_ context.Context, skip, limit int) ([]*company.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.companies))
	for id := range m.companies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var list []*company.Company
	for i, id := range ids {
		if i < skip {
			continue
		}
		if limit > 0 && len(list) >= limit {
			break
		}
		list = append(list, copyCompany(m.companies[id]))
	}
	return list, nil
}

// ListCompaniesProjected returns full copies; the field projection is
// a transport optimization the in-memory store does not need.
func (m *MemoryStorage) ListCompaniesProjected(_ context.Context, ids []string, _ []string) (map[string]*company.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]*company.Company)
	for _, id := range ids {
		if c, ok := m.companies[id]; ok {
			result[id] = copyCompany(c)
		}
	}
	return result, nil
}

func (m *MemoryStorage) UpdateCompanyFields(_ context.Context, id string, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return false, nil
	}
	for k, v := range fields {
		switch k {
		case "legal_name":
			c.LegalName, _ = v.(string)
		case "is_active":
			c.IsActive, _ = v.(bool)
		case "is_existing_client":
			c.IsExistingClient, _ = v.(bool)
		case "phone_number":
			c.PhoneNumber, _ = v.(string)
		case "email":
			c.Email, _ = v.(string)
		case "website":
			c.Website, _ = v.(string)
		case "description":
			c.Description, _ = v.(string)
		case "street_address":
			c.StreetAddress, _ = v.(string)
		case "city":
			c.City, _ = v.(string)
		case "state_or_province":
			c.StateOrProvince, _ = v.(string)
		case "postal_code":
			c.PostalCode, _ = v.(string)
		case "country":
			c.Country, _ = v.(string)
		}
	}
	return true, nil
}

func (m *MemoryStorage) DeleteCompany(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[id]; !ok {
		return false, nil
	}
	delete(m.companies, id)
	return true, nil
}

// Financial history

func (m *MemoryStorage) LastFinancialSnapshot(_ context.Context, companyID string) (company.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", companyID, ErrNotFound)
	}
	if len(c.Financials) == 0 {
		return nil, nil
	}
	last := c.Financials[len(c.Financials)-1]
	snap := make(company.Snapshot, len(last))
	for k, v := range last {
		snap[k] = v
	}
	return snap, nil
}

func (m *MemoryStorage) PushFinancialSnapshot(_ context.Context, companyID string, snap company.Snapshot) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return false, nil
	}
	stored := make(company.Snapshot, len(snap))
	for k, v := range snap {
		stored[k] = v
	}
	c.Financials = append(c.Financials, stored)
	return true, nil
}

// Embedded array operations

func (m *MemoryStorage) PushAction(_ context.Context, companyID string, a company.Action) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return false, nil
	}
	c.Actions = append(c.Actions, a)
	return true, nil
}

func (m *MemoryStorage) PullAction(_ context.Context, companyID, actionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return false, nil
	}
	for i, a := range c.Actions {
		if a.ID == actionID {
			c.Actions = append(c.Actions[:i], c.Actions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStorage) PushContact(_ context.Context, companyID string, ct company.Contact) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return false, nil
	}
	c.Contacts = append(c.Contacts, ct)
	return true, nil
}

func (m *MemoryStorage) ReplaceContact(_ context.Context, companyID string, ct company.Contact) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return false, nil
	}
	for i, existing := range c.Contacts {
		if existing.ID == ct.ID {
			c.Contacts[i] = ct
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStorage) PullContact(_ context.Context, companyID, contactID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return false, nil
	}
	for i, ct := range c.Contacts {
		if ct.ID == contactID {
			c.Contacts = append(c.Contacts[:i], c.Contacts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Reminder operations

func (m *MemoryStorage) UpsertReminder(_ context.Context, r *reminder.Reminder) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reminders {
		if existing.CompanyID == r.CompanyID && existing.ActionID == r.ActionID {
			// Replace keeps the stored identity, matching the mongo
			// $setOnInsert behavior.
			existing.DueDate = r.DueDate
			existing.Completed = r.Completed
			return true, nil
		}
	}
	m.reminders[r.ID] = copyReminder(r)
	return true, nil
}

func (m *MemoryStorage) GetReminder(_ context.Context, id string) (*reminder.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return nil, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	return copyReminder(r), nil
}

func (m *MemoryStorage) GetReminderByPair(_ context.Context, companyID, actionID string) (*reminder.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reminders {
		if r.CompanyID == companyID && r.ActionID == actionID {
			return copyReminder(r), nil
		}
	}
	return nil, fmt.Errorf("reminder for company %s action %s: %w", companyID, actionID, ErrNotFound)
}

func (m *MemoryStorage) ListReminders(_ context.Context, limit int, openOnly bool) ([]*reminder.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*reminder.Reminder
	for _, r := range m.reminders {
		if openOnly && r.Completed {
			continue
		}
		list = append(list, copyReminder(r))
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MemoryStorage) UpdateReminderFields(_ context.Context, id string, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return false, nil
	}
	for k, v := range fields {
		switch k {
		case "due_date":
			if t, ok := v.(time.Time); ok {
				r.DueDate = t
			}
		case "completed":
			if b, ok := v.(bool); ok {
				r.Completed = b
			}
		case "company_id":
			if s, ok := v.(string); ok {
				r.CompanyID = s
			}
		case "action_id":
			if s, ok := v.(string); ok {
				r.ActionID = s
			}
		}
	}
	return true, nil
}

func (m *MemoryStorage) DeleteReminderByPair(_ context.Context, companyID, actionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.reminders {
		if r.CompanyID == companyID && r.ActionID == actionID {
			delete(m.reminders, id)
			return true, nil
		}
	}
	return false, nil
}

// Changelog operations

func (m *MemoryStorage) InsertChangelog(_ context.Context, e *changelog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MemoryStorage) ListChangelog(_ context.Context, limit int) ([]*changelog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*changelog.Entry, len(m.entries))
	for i, e := range m.entries {
		cp := *e
		list[i] = &cp
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
