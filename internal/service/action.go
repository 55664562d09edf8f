package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RobCalvi/BNC-BE/internal/changelog"
	"github.com/RobCalvi/BNC-BE/internal/company"
	"github.com/RobCalvi/BNC-BE/internal/storage"
)

// ActionService manages the action list embedded in a company and
// owns the cascade contract with reminders: creating an action with a
// reminder date creates the reminder, deleting an action deletes it.
type ActionService struct {
	store     storage.Storage
	reminders *ReminderService
	changelog *ChangelogService
	log       zerolog.Logger
	now       func() time.Time
}

func NewActionService(store storage.Storage, reminders *ReminderService, cl *ChangelogService, log zerolog.Logger) *ActionService {
	return &ActionService{
		store:     store,
		reminders: reminders,
		changelog: cl,
		log:       log.With().Str("service", "action").Logger(),
		now:       time.Now,
	}
}

// CreateActionInput is the payload for a new action. Reminder, when
// set, is the due date of the follow-up reminder to create alongside.
type CreateActionInput struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Operation   company.OperationType `json:"operation"`
	Reminder    *time.Time            `json:"reminder,omitempty"`
}

func newActionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateAction appends an action to the company's list and returns
// the refreshed list. A reminder date in the payload creates the
// reminder for the new (company, action) pair; a failure there is
// logged and swallowed so the action itself still lands.
func (s *ActionService) CreateAction(ctx context.Context, companyID string, in CreateActionInput, actor string) ([]company.Action, error) {
	now := s.now()
	action := company.Action{
		ID:          newActionID(),
		Title:       in.Title,
		Description: in.Description,
		Operation:   in.Operation,
		Date:        now,
		User:        actor,
	}
	ok, err := s.store.PushAction(ctx, companyID, action)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("company %s: %w", companyID, storage.ErrNotFound)
	}
	if in.Reminder != nil {
		if _, err := s.reminders.Create(ctx, companyID, action.ID, *in.Reminder); err != nil {
			s.log.Warn().Err(err).Str("company_id", companyID).Str("action_id", action.ID).Msg("could not create reminder for action")
		}
	}
	s.changelog.Record(ctx, changelog.OpCreateAction, map[string]any{
		"company_id": companyID,
		"action_id":  action.ID,
		"title":      in.Title,
		"operation":  string(in.Operation),
	}, now, actor)
	return s.ListActions(ctx, companyID)
}

// DeleteAction removes an action and cascades the deletion to its
// reminder, then returns the refreshed list.
func (s *ActionService) DeleteAction(ctx context.Context, companyID, actionID string, actor string) ([]company.Action, error) {
	ok, err := s.store.PullAction(ctx, companyID, actionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("action %s on company %s: %w", actionID, companyID, storage.ErrNotFound)
	}
	if _, err := s.reminders.Delete(ctx, companyID, actionID); err != nil {
		s.log.Warn().Err(err).Str("company_id", companyID).Str("action_id", actionID).Msg("could not cascade reminder deletion")
	}
	s.changelog.Record(ctx, changelog.OpDeleteAction, map[string]any{
		"company_id": companyID,
		"action_id":  actionID,
	}, s.now(), actor)
	return s.ListActions(ctx, companyID)
}

func (s *ActionService) ListActions(ctx context.Context, companyID string) ([]company.Action, error) {
	c, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return c.Actions, nil
}
