package storage

import (
	"context"
	"errors"

	"github.com/RobCalvi/BNC-BE/internal/changelog"
	"github.com/RobCalvi/BNC-BE/internal/company"
	"github.com/RobCalvi/BNC-BE/internal/reminder"
)

// ErrNotFound is returned when a filter resolves to no document.
var ErrNotFound = errors.New("not found")

// Storage defines the document-store primitives the services build
// on: find-one-by-filter, find-many-with-limit, atomic
// upsert-by-filter, push/pull on embedded arrays, and projected
// reads. Implemented by MemoryStorage and MongoStorage.
type Storage interface {
	// Company operations
	CreateCompany(ctx context.Context, c *company.Company) error
	GetCompany(ctx context.Context, id string) (*company.Company, error)
	ListCompanies(ctx context.Context, skip, limit int) ([]*company.Company, error)
	// ListCompaniesProjected returns the companies matching ids, keyed
	// by id, with only the projected fields populated. Ids that do not
	// resolve are simply absent from the map.
	ListCompaniesProjected(ctx context.Context, ids []string, fields []string) (map[string]*company.Company, error)
	UpdateCompanyFields(ctx context.Context, id string, fields map[string]any) (bool, error)
	DeleteCompany(ctx context.Context, id string) (bool, error)

	// Financial history. LastFinancialSnapshot returns nil when the
	// company exists but has no history yet, ErrNotFound when the
	// company itself is missing. PushFinancialSnapshot appends; it
	// never rewrites earlier entries.
	LastFinancialSnapshot(ctx context.Context, companyID string) (company.Snapshot, error)
	PushFinancialSnapshot(ctx context.Context, companyID string, snap company.Snapshot) (bool, error)

	// Embedded array operations
	PushAction(ctx context.Context, companyID string, a company.Action) (bool, error)
	PullAction(ctx context.Context, companyID, actionID string) (bool, error)
	PushContact(ctx context.Context, companyID string, c company.Contact) (bool, error)
	ReplaceContact(ctx context.Context, companyID string, c company.Contact) (bool, error)
	PullContact(ctx context.Context, companyID, contactID string) (bool, error)

	// Reminder operations. UpsertReminder is a single atomic
	// find-and-update-or-insert keyed on (company_id, action_id); the
	// stored id and created_at survive a replace. It reports whether
	// the pair is persisted afterwards.
	UpsertReminder(ctx context.Context, r *reminder.Reminder) (bool, error)
	GetReminder(ctx context.Context, id string) (*reminder.Reminder, error)
	GetReminderByPair(ctx context.Context, companyID, actionID string) (*reminder.Reminder, error)
	ListReminders(ctx context.Context, limit int, openOnly bool) ([]*reminder.Reminder, error)
	// UpdateReminderFields applies a $set of stored field names and
	// reports whether a reminder matched (regardless of whether any
	// value actually changed).
	UpdateReminderFields(ctx context.Context, id string, fields map[string]any) (bool, error)
	DeleteReminderByPair(ctx context.Context, companyID, actionID string) (bool, error)

	// Changelog operations
	InsertChangelog(ctx context.Context, e *changelog.Entry) error
	ListChangelog(ctx context.Context, limit int) ([]*changelog.Entry, error)
}
