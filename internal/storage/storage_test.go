package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RobCalvi/BNC-BE/internal/changelog"
	"github.com/RobCalvi/BNC-BE/internal/company"
	"github.com/RobCalvi/BNC-BE/internal/reminder"
)

func testCompany(id string) *company.Company {
	return &company.Company{
		ID:        id,
		LegalName: "Test Co " + id,
		IsActive:  true,
		Actions: []company.Action{
			{ID: "act1", Title: "Intro call", Operation: company.OperationCall, Date: time.Now().UTC().Truncate(time.Millisecond)},
		},
	}
}

func testReminder(id, companyID, actionID string) *reminder.Reminder {
	return &reminder.Reminder{
		ID:        id,
		CompanyID: companyID,
		ActionID:  actionID,
		DueDate:   time.Now().Add(24 * time.Hour).UTC().Truncate(time.Millisecond),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// runStorageTests exercises the full Storage contract. Both backends
// run the same suite.
func runStorageTests(t *testing.T, store Storage) {
	ctx := context.Background()

	// Company CRUD
	c := testCompany("c1")
	if err := store.CreateCompany(ctx, c); err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}
	got, err := store.GetCompany(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCompany failed: %v", err)
	}
	if got.LegalName != c.LegalName || len(got.Actions) != 1 {
		t.Errorf("GetCompany: got %+v, want %+v", got, c)
	}
	if _, err := store.GetCompany(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCompany(ghost): expected ErrNotFound, got %v", err)
	}

	if err := store.CreateCompany(ctx, testCompany("c2")); err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}
	list, err := store.ListCompanies(ctx, 0, 10)
	if err != nil || len(list) != 2 {
		t.Errorf("ListCompanies: got %d (err %v), want 2", len(list), err)
	}
	list, err = store.ListCompanies(ctx, 1, 10)
	if err != nil || len(list) != 1 {
		t.Errorf("ListCompanies with skip: got %d (err %v), want 1", len(list), err)
	}

	// Projected listing keyed by id; unknown ids absent.
	projected, err := store.ListCompaniesProjected(ctx, []string{"c1", "ghost"}, []string{"legal_name", "actions"})
	if err != nil {
		t.Fatalf("ListCompaniesProjected failed: %v", err)
	}
	if len(projected) != 1 {
		t.Fatalf("ListCompaniesProjected: got %d entries, want 1", len(projected))
	}
	if projected["c1"].LegalName != c.LegalName || len(projected["c1"].Actions) != 1 {
		t.Errorf("ListCompaniesProjected: missing projected fields: %+v", projected["c1"])
	}

	// Field update
	matched, err := store.UpdateCompanyFields(ctx, "c1", map[string]any{"legal_name": "Renamed Co", "is_active": false})
	if err != nil || !matched {
		t.Fatalf("UpdateCompanyFields: matched=%v err=%v", matched, err)
	}
	got, _ = store.GetCompany(ctx, "c1")
	if got.LegalName != "Renamed Co" || got.IsActive {
		t.Errorf("UpdateCompanyFields not applied: %+v", got)
	}
	matched, err = store.UpdateCompanyFields(ctx, "ghost", map[string]any{"legal_name": "x"})
	if err != nil || matched {
		t.Errorf("UpdateCompanyFields(ghost): matched=%v err=%v, want false", matched, err)
	}

	// Financial history
	snap, err := store.LastFinancialSnapshot(ctx, "c1")
	if err != nil || snap != nil {
		t.Errorf("LastFinancialSnapshot on empty history: got %v (err %v), want nil", snap, err)
	}
	if _, err := store.LastFinancialSnapshot(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LastFinancialSnapshot(ghost): expected ErrNotFound, got %v", err)
	}
	pushed, err := store.PushFinancialSnapshot(ctx, "c1", company.Snapshot{"total_revenue": 100.0, "timestamp": time.Now().UTC().Truncate(time.Millisecond)})
	if err != nil || !pushed {
		t.Fatalf("PushFinancialSnapshot: pushed=%v err=%v", pushed, err)
	}
	pushed, err = store.PushFinancialSnapshot(ctx, "c1", company.Snapshot{"total_revenue": 150.0, "timestamp": time.Now().UTC().Truncate(time.Millisecond)})
	if err != nil || !pushed {
		t.Fatalf("PushFinancialSnapshot: pushed=%v err=%v", pushed, err)
	}
	snap, err = store.LastFinancialSnapshot(ctx, "c1")
	if err != nil {
		t.Fatalf("LastFinancialSnapshot failed: %v", err)
	}
	if rev, ok := snap["total_revenue"].(float64); !ok || rev != 150.0 {
		t.Errorf("LastFinancialSnapshot: got %v, want total_revenue 150", snap)
	}
	got, _ = store.GetCompany(ctx, "c1")
	if len(got.Financials) != 2 {
		t.Errorf("financial history length: got %d, want 2", len(got.Financials))
	}

	// Action array
	ok, err := store.PushAction(ctx, "c1", company.Action{ID: "act2", Title: "Mail"})
	if err != nil || !ok {
		t.Fatalf("PushAction: ok=%v err=%v", ok, err)
	}
	ok, err = store.PullAction(ctx, "c1", "act2")
	if err != nil || !ok {
		t.Fatalf("PullAction: ok=%v err=%v", ok, err)
	}
	ok, err = store.PullAction(ctx, "c1", "act2")
	if err != nil || ok {
		t.Errorf("PullAction twice: ok=%v err=%v, want false", ok, err)
	}

	// Contact array
	ok, err = store.PushContact(ctx, "c1", company.Contact{ID: "ct1", FirstName: "Jo"})
	if err != nil || !ok {
		t.Fatalf("PushContact: ok=%v err=%v", ok, err)
	}
	ok, err = store.ReplaceContact(ctx, "c1", company.Contact{ID: "ct1", FirstName: "Joan"})
	if err != nil || !ok {
		t.Fatalf("ReplaceContact: ok=%v err=%v", ok, err)
	}
	got, _ = store.GetCompany(ctx, "c1")
	if ct, found := got.ContactByID("ct1"); !found || ct.FirstName != "Joan" {
		t.Errorf("ReplaceContact not applied: %+v", got.Contacts)
	}
	ok, err = store.ReplaceContact(ctx, "c1", company.Contact{ID: "ghost"})
	if err != nil || ok {
		t.Errorf("ReplaceContact(ghost): ok=%v err=%v, want false", ok, err)
	}
	ok, err = store.PullContact(ctx, "c1", "ct1")
	if err != nil || !ok {
		t.Fatalf("PullContact: ok=%v err=%v", ok, err)
	}

	// Reminder upsert keyed on the pair
	r := testReminder("r1", "c1", "act1")
	ok, err = store.UpsertReminder(ctx, r)
	if err != nil || !ok {
		t.Fatalf("UpsertReminder: ok=%v err=%v", ok, err)
	}
	replacement := testReminder("r1-replacement", "c1", "act1")
	replacement.DueDate = r.DueDate.Add(48 * time.Hour)
	ok, err = store.UpsertReminder(ctx, replacement)
	if err != nil || !ok {
		t.Fatalf("UpsertReminder replace: ok=%v err=%v", ok, err)
	}
	byPair, err := store.GetReminderByPair(ctx, "c1", "act1")
	if err != nil {
		t.Fatalf("GetReminderByPair failed: %v", err)
	}
	if byPair.ID != "r1" {
		t.Errorf("upsert replaced identity: got id %s, want r1", byPair.ID)
	}
	if !byPair.DueDate.Equal(replacement.DueDate) {
		t.Errorf("upsert due date: got %v, want %v", byPair.DueDate, replacement.DueDate)
	}
	rems, err := store.ListReminders(ctx, 10, false)
	if err != nil || len(rems) != 1 {
		t.Errorf("ListReminders after double upsert: got %d (err %v), want 1", len(rems), err)
	}

	// Field update + open-only filter
	matched, err = store.UpdateReminderFields(ctx, "r1", map[string]any{"completed": true})
	if err != nil || !matched {
		t.Fatalf("UpdateReminderFields: matched=%v err=%v", matched, err)
	}
	matched, err = store.UpdateReminderFields(ctx, "r1", map[string]any{"completed": true})
	if err != nil || !matched {
		t.Errorf("UpdateReminderFields repeat: matched=%v err=%v, want true", matched, err)
	}
	matched, err = store.UpdateReminderFields(ctx, "ghost", map[string]any{"completed": true})
	if err != nil || matched {
		t.Errorf("UpdateReminderFields(ghost): matched=%v err=%v, want false", matched, err)
	}
	open, err := store.ListReminders(ctx, 10, true)
	if err != nil || len(open) != 0 {
		t.Errorf("ListReminders openOnly: got %d (err %v), want 0", len(open), err)
	}

	// Pair deletion is idempotent
	removed, err := store.DeleteReminderByPair(ctx, "c1", "act1")
	if err != nil || !removed {
		t.Fatalf("DeleteReminderByPair: removed=%v err=%v", removed, err)
	}
	removed, err = store.DeleteReminderByPair(ctx, "c1", "act1")
	if err != nil || removed {
		t.Errorf("DeleteReminderByPair twice: removed=%v err=%v, want false", removed, err)
	}
	if _, err := store.GetReminder(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReminder after delete: expected ErrNotFound, got %v", err)
	}

	// Changelog
	if err := store.InsertChangelog(ctx, &changelog.Entry{
		Operation: changelog.OpUpdateDetail,
		Updates:   map[string]any{"company_id": "c1"},
		Date:      time.Now().UTC().Truncate(time.Millisecond),
		User:      "tester",
	}); err != nil {
		t.Fatalf("InsertChangelog failed: %v", err)
	}
	entries, err := store.ListChangelog(ctx, 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ListChangelog: got %d (err %v), want 1", len(entries), err)
	}
	if entries[0].User != "tester" || entries[0].Operation != changelog.OpUpdateDetail {
		t.Errorf("ListChangelog entry: %+v", entries[0])
	}

	// Company deletion
	removed, err = store.DeleteCompany(ctx, "c1")
	if err != nil || !removed {
		t.Fatalf("DeleteCompany: removed=%v err=%v", removed, err)
	}
	removed, err = store.DeleteCompany(ctx, "c1")
	if err != nil || removed {
		t.Errorf("DeleteCompany twice: removed=%v err=%v, want false", removed, err)
	}
}

func TestMemoryStorage(t *testing.T) {
	runStorageTests(t, NewMemoryStorage())
}

func TestMemoryStorageReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	if err := store.CreateCompany(ctx, testCompany("c1")); err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}

	got, err := store.GetCompany(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCompany failed: %v", err)
	}
	got.LegalName = "mutated"
	got.Actions[0].Title = "mutated"

	fresh, _ := store.GetCompany(ctx, "c1")
	if fresh.LegalName == "mutated" || fresh.Actions[0].Title == "mutated" {
		t.Errorf("stored document aliased by caller mutation: %+v", fresh)
	}
}
