package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/RobCalvi/BNC-BE/internal/changelog"
	"github.com/RobCalvi/BNC-BE/internal/storage"
)

// ChangelogService appends audit entries. Recording is
// fire-and-forget: a failed insert is logged and swallowed so it can
// never fail the business write that triggered it.
type ChangelogService struct {
	store storage.Storage
	log   zerolog.Logger
}

func NewChangelogService(store storage.Storage, log zerolog.Logger) *ChangelogService {
	return &ChangelogService{
		store: store,
		log:   log.With().Str("service", "changelog").Logger(),
	}
}

// Record writes one entry. The actor is whoever performed the
// operation, threaded in from the request boundary.
func (s *ChangelogService) Record(ctx context.Context, op changelog.Operation, updates any, at time.Time, actor string) {
	entry := &changelog.Entry{Operation: op, Updates: updates, Date: at, User: actor}
	if err := s.store.InsertChangelog(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("operation", string(op)).Str("user", actor).Msg("changelog write failed")
	}
}

func (s *ChangelogService) List(ctx context.Context, limit int) ([]*changelog.Entry, error) {
	return s.store.ListChangelog(ctx, limit)
}
