package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RobCalvi/BNC-BE/internal/reminder"
	"github.com/RobCalvi/BNC-BE/internal/storage"
)

// ReminderService owns the reminder lifecycle: upsert-keyed creation,
// cascade deletion, irreversible completion, partial update, and the
// joins against company data used for display.
type ReminderService struct {
	store storage.Storage
	log   zerolog.Logger
	now   func() time.Time
}

func NewReminderService(store storage.Storage, log zerolog.Logger) *ReminderService {
	return &ReminderService{
		store: store,
		log:   log.With().Str("service", "reminder").Logger(),
		now:   time.Now,
	}
}

// Create persists a reminder for the (companyID, actionID) pair. The
// due date must be strictly in the future. Creation is an atomic
// upsert keyed on the pair: a second create replaces the due date
// instead of duplicating, so an action never accumulates more than
// one outstanding reminder (re-imports included).
func (s *ReminderService) Create(ctx context.Context, companyID, actionID string, due time.Time) (*reminder.Reminder, error) {
	now := s.now()
	if !due.After(now) {
		return nil, fmt.Errorf("%w: due date cannot be in the past", ErrValidation)
	}
	r := &reminder.Reminder{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		ActionID:  actionID,
		DueDate:   due,
		CreatedAt: now,
	}
	ok, err := s.store.UpsertReminder(ctx, r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("reminder for company %s action %s was not persisted", companyID, actionID)
	}
	return s.store.GetReminderByPair(ctx, companyID, actionID)
}

// Delete removes the reminder for the pair, if any. Idempotent; the
// return value reports whether a row was actually removed. The
// action-deletion cascade calls this.
func (s *ReminderService) Delete(ctx context.Context, companyID, actionID string) (bool, error) {
	return s.store.DeleteReminderByPair(ctx, companyID, actionID)
}

// List returns up to limit reminders without joining company data.
func (s *ReminderService) List(ctx context.Context, limit int) ([]*reminder.Reminder, error) {
	return s.store.ListReminders(ctx, limit, false)
}

// Complete marks a reminder completed. There is no inverse operation.
// Completing an already-completed reminder succeeds again; only an
// unknown id reports false.
func (s *ReminderService) Complete(ctx context.Context, reminderID string) (bool, error) {
	return s.store.UpdateReminderFields(ctx, reminderID, map[string]any{"completed": true})
}

// UpdatePartial applies a partial update expressed in external field
// names (dueDate, isCompleted, companyId, actionId). Unrecognized
// fields are silently dropped. Returns storage.ErrNotFound when the
// id does not resolve or when no recognized field was supplied.
func (s *ReminderService) UpdatePartial(ctx context.Context, reminderID string, updates map[string]any) (*reminder.Reminder, error) {
	fields := make(map[string]any, len(updates))
	for key, value := range updates {
		name, ok := reminder.UpdateFields[key]
		if !ok {
			continue
		}
		if name == "due_date" {
			if str, ok := value.(string); ok {
				parsed, err := time.Parse(time.RFC3339, str)
				if err != nil {
					return nil, fmt.Errorf("%w: invalid dueDate %q", ErrValidation, str)
				}
				value = parsed
			}
		}
		fields[name] = value
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no recognized fields for reminder %s: %w", reminderID, storage.ErrNotFound)
	}
	matched, err := s.store.UpdateReminderFields(ctx, reminderID, fields)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, fmt.Errorf("reminder %s: %w", reminderID, storage.ErrNotFound)
	}
	return s.store.GetReminder(ctx, reminderID)
}

// ListWithCompany returns up to limit non-completed reminders joined
// with the owning company's legal name and the referenced action. A
// reminder whose company or action no longer resolves is dropped from
// the result rather than failing the whole listing.
func (s *ReminderService) ListWithCompany(ctx context.Context, limit int) ([]reminder.Display, error) {
	now := s.now()
	reminders, err := s.store.ListReminders(ctx, limit, true)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reminders))
	for _, r := range reminders {
		ids = append(ids, r.CompanyID)
	}
	companies, err := s.store.ListCompaniesProjected(ctx, ids, []string{"legal_name", "actions"})
	if err != nil {
		return nil, err
	}

	displays := make([]reminder.Display, 0, len(reminders))
	for _, r := range reminders {
		c, ok := companies[r.CompanyID]
		if !ok {
			s.log.Debug().Str("reminder_id", r.ID).Str("company_id", r.CompanyID).Msg("dropping reminder with unresolved company")
			continue
		}
		action, ok := c.ActionByID(r.ActionID)
		if !ok {
			s.log.Debug().Str("reminder_id", r.ID).Str("action_id", r.ActionID).Msg("dropping reminder with unresolved action")
			continue
		}
		displays = append(displays, reminder.Display{
			ID:          r.ID,
			CompanyName: c.LegalName,
			IsCompleted: r.Completed,
			State:       r.StateAt(now),
			CreatedAt:   r.CreatedAt,
			DueDate:     r.DueDate,
			Action:      action,
		})
	}
	return displays, nil
}

// DisplayFor builds the display projection for a single reminder.
// Unlike the bulk listing it fails loudly: a missing company or
// action returns storage.ErrNotFound.
func (s *ReminderService) DisplayFor(ctx context.Context, r *reminder.Reminder) (*reminder.Display, error) {
	c, err := s.store.GetCompany(ctx, r.CompanyID)
	if err != nil {
		return nil, err
	}
	action, ok := c.ActionByID(r.ActionID)
	if !ok {
		return nil, fmt.Errorf("action %s on company %s: %w", r.ActionID, r.CompanyID, storage.ErrNotFound)
	}
	return &reminder.Display{
		ID:          r.ID,
		CompanyName: c.LegalName,
		IsCompleted: r.Completed,
		State:       r.StateAt(s.now()),
		CreatedAt:   r.CreatedAt,
		DueDate:     r.DueDate,
		Action:      action,
	}, nil
}
