package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RobCalvi/BNC-BE/internal/changelog"
	"github.com/RobCalvi/BNC-BE/internal/company"
	"github.com/RobCalvi/BNC-BE/internal/storage"
)

// CompanyService handles company CRUD, contact management, and the
// append-only financial snapshot merge.
type CompanyService struct {
	store     storage.Storage
	changelog *ChangelogService
	log       zerolog.Logger
	now       func() time.Time
}

func NewCompanyService(store storage.Storage, cl *ChangelogService, log zerolog.Logger) *CompanyService {
	return &CompanyService{
		store:     store,
		changelog: cl,
		log:       log.With().Str("service", "company").Logger(),
		now:       time.Now,
	}
}

// UpdateCompanyInput carries a partial company update. Nil fields are
// left untouched. A non-nil Financials mapping is routed through the
// snapshot merge rather than being set in place.
type UpdateCompanyInput struct {
	LegalName        *string          `json:"legalName"`
	IsActive         *bool            `json:"isActive"`
	IsExistingClient *bool            `json:"isExistingClient"`
	PhoneNumber      *string          `json:"companyPhoneNumber"`
	Email            *string          `json:"companyEmail"`
	Website          *string          `json:"companyWebsite"`
	Description      *string          `json:"description"`
	StreetAddress    *string          `json:"streetAddress"`
	City             *string          `json:"city"`
	StateOrProvince  *string          `json:"stateOrProvince"`
	PostalCode       *string          `json:"postalCode"`
	Country          *string          `json:"country"`
	Financials       company.Snapshot `json:"financials"`
}

func (in UpdateCompanyInput) fields() map[string]any {
	fields := map[string]any{}
	set := func(name string, v any, ok bool) {
		if ok {
			fields[name] = v
		}
	}
	set("legal_name", deref(in.LegalName), in.LegalName != nil)
	set("is_active", deref(in.IsActive), in.IsActive != nil)
	set("is_existing_client", deref(in.IsExistingClient), in.IsExistingClient != nil)
	set("phone_number", deref(in.PhoneNumber), in.PhoneNumber != nil)
	set("email", deref(in.Email), in.Email != nil)
	set("website", deref(in.Website), in.Website != nil)
	set("description", deref(in.Description), in.Description != nil)
	set("street_address", deref(in.StreetAddress), in.StreetAddress != nil)
	set("city", deref(in.City), in.City != nil)
	set("state_or_province", deref(in.StateOrProvince), in.StateOrProvince != nil)
	set("postal_code", deref(in.PostalCode), in.PostalCode != nil)
	set("country", deref(in.Country), in.Country != nil)
	return fields
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func (s *CompanyService) Create(ctx context.Context, c *company.Company) (*company.Company, error) {
	if c.LegalName == "" {
		return nil, fmt.Errorf("%w: legal name is required", ErrValidation)
	}
	c.ID = uuid.NewString()
	if c.AddedDate == nil {
		now := s.now()
		c.AddedDate = &now
	}
	if err := s.store.CreateCompany(ctx, c); err != nil {
		return nil, err
	}
	return s.store.GetCompany(ctx, c.ID)
}

func (s *CompanyService) Get(ctx context.Context, id string) (*company.Company, error) {
	return s.store.GetCompany(ctx, id)
}

func (s *CompanyService) List(ctx context.Context, skip, limit int) ([]*company.Company, error) {
	return s.store.ListCompanies(ctx, skip, limit)
}

// ListProjected is the join collaborator used by the reminder
// listing: companies matching ids, keyed by id, restricted to fields.
func (s *CompanyService) ListProjected(ctx context.Context, ids, fields []string) (map[string]*company.Company, error) {
	return s.store.ListCompaniesProjected(ctx, ids, fields)
}

// Update applies a partial update. Top-level fields go through one
// $set; a financials payload becomes a new snapshot appended to the
// history. Writes an UPDATE_DETAIL changelog entry and returns the
// refreshed company.
func (s *CompanyService) Update(ctx context.Context, id string, in UpdateCompanyInput, actor string) (*company.Company, error) {
	fields := in.fields()
	if len(fields) > 0 {
		matched, err := s.store.UpdateCompanyFields(ctx, id, fields)
		if err != nil {
			return nil, err
		}
		if !matched {
			return nil, fmt.Errorf("company %s: %w", id, storage.ErrNotFound)
		}
	}
	if in.Financials != nil {
		if _, err := s.AppendSnapshot(ctx, id, in.Financials); err != nil {
			return nil, err
		}
	}
	s.changelog.Record(ctx, changelog.OpUpdateDetail, map[string]any{
		"company_id": id,
		"updates":    fields,
	}, s.now(), actor)
	return s.store.GetCompany(ctx, id)
}

// AppendSnapshot merges a partial financial update onto the latest
// snapshot and appends the result as a new last element. History is
// never rewritten; absent or null fields keep their prior values.
//
// The read and the push are two separate store calls with no version
// check, so two concurrent partial updates can both read the same
// tail and append divergent entries. Known race, accepted.
func (s *CompanyService) AppendSnapshot(ctx context.Context, companyID string, partial company.Snapshot) (bool, error) {
	last, err := s.store.LastFinancialSnapshot(ctx, companyID)
	if err != nil {
		return false, err
	}
	next := company.MergeSnapshot(last, partial, s.now())
	return s.store.PushFinancialSnapshot(ctx, companyID, next)
}

func (s *CompanyService) Delete(ctx context.Context, id string) (bool, error) {
	return s.store.DeleteCompany(ctx, id)
}

// Contact management

func (s *CompanyService) AddContact(ctx context.Context, companyID string, ct company.Contact, actor string) (*company.Company, error) {
	ct.ID = uuid.NewString()
	ok, err := s.store.PushContact(ctx, companyID, ct)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("company %s: %w", companyID, storage.ErrNotFound)
	}
	s.changelog.Record(ctx, changelog.OpCreateContact, map[string]any{
		"company_id": companyID,
		"contact_id": ct.ID,
	}, s.now(), actor)
	return s.store.GetCompany(ctx, companyID)
}

func (s *CompanyService) UpdateContact(ctx context.Context, companyID string, ct company.Contact, actor string) (*company.Company, error) {
	ok, err := s.store.ReplaceContact(ctx, companyID, ct)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("contact %s on company %s: %w", ct.ID, companyID, storage.ErrNotFound)
	}
	s.changelog.Record(ctx, changelog.OpUpdateContact, map[string]any{
		"company_id": companyID,
		"contact_id": ct.ID,
	}, s.now(), actor)
	return s.store.GetCompany(ctx, companyID)
}

func (s *CompanyService) RemoveContact(ctx context.Context, companyID, contactID string, actor string) (*company.Company, error) {
	ok, err := s.store.PullContact(ctx, companyID, contactID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("contact %s on company %s: %w", contactID, companyID, storage.ErrNotFound)
	}
	s.changelog.Record(ctx, changelog.OpDeleteContact, map[string]any{
		"company_id": companyID,
		"contact_id": contactID,
	}, s.now(), actor)
	return s.store.GetCompany(ctx, companyID)
}
