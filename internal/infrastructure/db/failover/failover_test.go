package failover

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/peoplehub/identity-system/internal/core/domain"
)

// flakyRepo lets each test script primary behavior per call.
type flakyRepo struct {
	err      error
	accounts map[string]*domain.UserAccount
	puts     int
}

func newFlakyRepo(err error) *flakyRepo {
	return &flakyRepo{err: err, accounts: map[string]*domain.UserAccount{}}
}

func (r *flakyRepo) GetAccount(_ context.Context, email string) (*domain.UserAccount, error) {
	if r.err != nil {
		return nil, r.err
	}
	a, ok := r.accounts[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return a, nil
}

func (r *flakyRepo) ListAccounts(context.Context) ([]*domain.UserAccount, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := []*domain.UserAccount{}
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *flakyRepo) PutAccount(_ context.Context, account *domain.UserAccount) error {
	if r.err != nil {
		return r.err
	}
	r.puts++
	r.accounts[account.ID] = account
	return nil
}

func (r *flakyRepo) DeleteAccount(_ context.Context, email string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.accounts[email]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.accounts, email)
	return nil
}

func (r *flakyRepo) GetInvitation(context.Context, string) (*domain.Invitation, error) {
	if r.err != nil {
		return nil, r.err
	}
	return nil, domain.ErrInviteNotFound
}

func (r *flakyRepo) FindInvitationByToken(context.Context, string) (*domain.Invitation, error) {
	if r.err != nil {
		return nil, r.err
	}
	return nil, domain.ErrInviteNotFound
}

func (r *flakyRepo) ListInvitationsByEmail(context.Context, string) ([]*domain.Invitation, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []*domain.Invitation{}, nil
}

func (r *flakyRepo) PutInvitation(context.Context, *domain.Invitation) error { return r.err }

func (r *flakyRepo) DeleteInvitationsByEmail(context.Context, string) (int, error) {
	return 0, r.err
}

var errDown = errors.New("primary: connection refused")

func TestInfrastructureErrorFallsBack(t *testing.T) {
	primary := newFlakyRepo(errDown)
	fallback := newFlakyRepo(nil)
	store := New(primary, fallback, zerolog.Nop())

	account := &domain.UserAccount{ID: "a@b.com", Email: "a@b.com", Role: "HR", Status: domain.StatusPending, SessionVersion: 1}
	if err := store.PutAccount(context.Background(), account); err != nil {
		t.Fatalf("PutAccount should have fallen back: %v", err)
	}
	if fallback.puts != 1 {
		t.Fatalf("fallback did not receive the write")
	}

	got, err := store.GetAccount(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("GetAccount should have fallen back: %v", err)
	}
	if got.Email != "a@b.com" {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestBusinessErrorDoesNotFallBack(t *testing.T) {
	primary := newFlakyRepo(nil)
	fallback := newFlakyRepo(nil)
	// A hit on the fallback would mask the business condition.
	fallback.accounts["ghost@b.com"] = &domain.UserAccount{ID: "ghost@b.com"}
	store := New(primary, fallback, zerolog.Nop())

	if _, err := store.GetAccount(context.Background(), "ghost@b.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("business error must surface from the primary, got %v", err)
	}
}

func TestBothBackendsDownPropagatesFallbackError(t *testing.T) {
	errFallback := errors.New("fallback: disk full")
	store := New(newFlakyRepo(errDown), newFlakyRepo(errFallback), zerolog.Nop())

	if _, err := store.ListAccounts(context.Background()); !errors.Is(err, errFallback) {
		t.Fatalf("expected fallback error to propagate, got %v", err)
	}
}

func TestNilPrimaryGoesStraightToFallback(t *testing.T) {
	fallback := newFlakyRepo(nil)
	store := New(nil, fallback, zerolog.Nop())

	account := &domain.UserAccount{ID: "a@b.com", Email: "a@b.com", Role: "HR", Status: domain.StatusPending, SessionVersion: 1}
	if err := store.PutAccount(context.Background(), account); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	if fallback.puts != 1 {
		t.Fatalf("write did not reach fallback")
	}
	if n := len(store.Backends()); n != 1 {
		t.Fatalf("expected a single backend, got %d", n)
	}
}

func TestPrimarySuccessSkipsFallback(t *testing.T) {
	primary := newFlakyRepo(nil)
	fallback := newFlakyRepo(nil)
	store := New(primary, fallback, zerolog.Nop())

	account := &domain.UserAccount{ID: "a@b.com", Email: "a@b.com", Role: "HR", Status: domain.StatusPending, SessionVersion: 1}
	if err := store.PutAccount(context.Background(), account); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	if primary.puts != 1 || fallback.puts != 0 {
		t.Fatalf("write routed incorrectly: primary=%d fallback=%d", primary.puts, fallback.puts)
	}
}
