package habit

import (
	"errors"
	"testing"

	"github.com/rlindsey/tally/internal/apperr"
	"github.com/rlindsey/tally/internal/database"
	"github.com/rlindsey/tally/internal/model"
	"github.com/rlindsey/tally/internal/store"
)

func setupLedgerTest(t *testing.T) (*Ledger, *Registry, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	hs := store.NewHabitStore(db)
	return NewLedger(hs, store.NewCompletionStore(db)), NewRegistry(hs), store.NewUserStore(db)
}

func newLedgerUser(t *testing.T, us *store.UserStore, email string) *model.User {
	t.Helper()
	u, err := us.Create(email, "hash", "Test User")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func newLedgerHabit(t *testing.T, r *Registry, userID int64, title string) *model.Habit {
	t.Helper()
	h, err := r.Create(userID, title, "", "")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	return h
}

func TestMarkCompleteIdempotent(t *testing.T) {
	ledger, reg, us := setupLedgerTest(t)
	user := newLedgerUser(t, us, "alice@example.com")
	h := newLedgerHabit(t, reg, user.ID, "Run")

	created, err := ledger.MarkComplete(user.ID, h.ID, "2024-03-01")
	if err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if !created {
		t.Error("first mark should report created")
	}

	// Marking the same day twice succeeds without creating a second record
	created, err = ledger.MarkComplete(user.ID, h.ID, "2024-03-01")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if created {
		t.Error("second mark should report not created")
	}

	got, err := ledger.ListCompletions(user.ID, h.ID, "2024-03-01", "2024-03-01")
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 completion, got %d", len(got))
	}
}

func TestMarkCompleteNormalizesTimestamp(t *testing.T) {
	ledger, reg, us := setupLedgerTest(t)
	user := newLedgerUser(t, us, "alice@example.com")
	h := newLedgerHabit(t, reg, user.ID, "Run")

	if _, err := ledger.MarkComplete(user.ID, h.ID, "2024-03-01T18:30:00Z"); err != nil {
		t.Fatalf("mark complete: %v", err)
	}

	got, err := ledger.ListCompletions(user.ID, h.ID, "2024-03-01", "2024-03-01")
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(got) != 1 || got[0].Date != "2024-03-01" {
		t.Fatalf("got %+v, want one completion dated 2024-03-01", got)
	}
}

func TestMarkCompleteInvalidDate(t *testing.T) {
	ledger, reg, us := setupLedgerTest(t)
	user := newLedgerUser(t, us, "alice@example.com")
	h := newLedgerHabit(t, reg, user.ID, "Run")

	if _, err := ledger.MarkComplete(user.ID, h.ID, "03/01/2024"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestMarkCompleteInactiveHabit(t *testing.T) {
	ledger, reg, us := setupLedgerTest(t)
	user := newLedgerUser(t, us, "alice@example.com")
	h := newLedgerHabit(t, reg, user.ID, "Run")

	if err := reg.Deactivate(user.ID, h.ID); err != nil {
		t.Fatalf("deactivate habit: %v", err)
	}
	if _, err := ledger.MarkComplete(user.ID, h.ID, "2024-03-01"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for inactive habit", err)
	}
}

func TestMarkCompleteOtherUsersHabit(t *testing.T) {
	ledger, reg, us := setupLedgerTest(t)
	alice := newLedgerUser(t, us, "alice@example.com")
	bob := newLedgerUser(t, us, "bob@example.com")
	h := newLedgerHabit(t, reg, alice.ID, "Run")

	// Indistinguishable from a habit that does not exist
	if _, err := ledger.MarkComplete(bob.ID, h.ID, "2024-03-01"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for other user's habit", err)
	}
}

func TestUnmarkComplete(t *testing.T) {
	ledger, reg, us := setupLedgerTest(t)
	user := newLedgerUser(t, us, "alice@example.com")
	h := newLedgerHabit(t, reg, user.ID, "Run")

	if _, err := ledger.MarkComplete(user.ID, h.ID, "2024-03-01"); err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if err := ledger.UnmarkComplete(user.ID, h.ID, "2024-03-01"); err != nil {
		t.Fatalf("unmark complete: %v", err)
	}

	// Nothing left to remove
	if err := ledger.UnmarkComplete(user.ID, h.ID, "2024-03-01"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound when no record exists", err)
	}
}

func TestUnmarkCompleteOnInactiveHabit(t *testing.T) {
	ledger, reg, us := setupLedgerTest(t)
	user := newLedgerUser(t, us, "alice@example.com")
	h := newLedgerHabit(t, reg, user.ID, "Run")

	if _, err := ledger.MarkComplete(user.ID, h.ID, "2024-03-01"); err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if err := reg.Deactivate(user.ID, h.ID); err != nil {
		t.Fatalf("deactivate habit: %v", err)
	}

	// History that pre-dates deactivation is still removable
	if err := ledger.UnmarkComplete(user.ID, h.ID, "2024-03-01"); err != nil {
		t.Fatalf("unmark on inactive habit: %v", err)
	}
}

func TestListCompletionsInvertedRange(t *testing.T) {
	ledger, reg, us := setupLedgerTest(t)
	user := newLedgerUser(t, us, "alice@example.com")
	h := newLedgerHabit(t, reg, user.ID, "Run")

	if _, err := ledger.ListCompletions(user.ID, h.ID, "2024-03-05", "2024-03-01"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput when start is after end", err)
	}
}

func TestListCompletionsUnknownHabit(t *testing.T) {
	ledger, _, us := setupLedgerTest(t)
	user := newLedgerUser(t, us, "alice@example.com")

	if _, err := ledger.ListCompletions(user.ID, 9999, "2024-03-01", "2024-03-05"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
