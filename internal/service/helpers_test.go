package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/RobCalvi/BNC-BE/internal/company"
	"github.com/RobCalvi/BNC-BE/internal/storage"
)

type testEnv struct {
	store     *storage.MemoryStorage
	changelog *ChangelogService
	companies *CompanyService
	reminders *ReminderService
	actions   *ActionService
}

func newTestEnv() *testEnv {
	store := storage.NewMemoryStorage()
	log := zerolog.Nop()
	cl := NewChangelogService(store, log)
	rem := NewReminderService(store, log)
	return &testEnv{
		store:     store,
		changelog: cl,
		companies: NewCompanyService(store, cl, log),
		reminders: rem,
		actions:   NewActionService(store, rem, cl, log),
	}
}

// setClock pins every service's notion of now.
func (e *testEnv) setClock(now time.Time) {
	clock := func() time.Time { return now }
	e.companies.now = clock
	e.reminders.now = clock
	e.actions.now = clock
}

func (e *testEnv) seedCompany(id, legalName string, actions ...company.Action) {
	e.store.CreateCompany(context.Background(), &company.Company{
		ID:        id,
		LegalName: legalName,
		IsActive:  true,
		Actions:   actions,
	})
}
