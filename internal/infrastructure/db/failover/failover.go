// Package failover decorates two DirectoryRepository backends into one:
// every operation runs against the primary durable store first and is
// retried on the local fallback only when the primary fails with an
// infrastructure-class error. Tagged business errors (not-found, invalid
// state) surface directly; they describe the data, not the backend.
package failover

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/peoplehub/identity-system/internal/api/metrics"
	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
)

type Store struct {
	primary  ports.DirectoryRepository
	fallback ports.DirectoryRepository
	log      zerolog.Logger
}

// New wires the decorator. primary may be nil (the durable store was down
// at boot); every call then goes straight to the fallback.
func New(primary, fallback ports.DirectoryRepository, log zerolog.Logger) *Store {
	return &Store{primary: primary, fallback: fallback, log: log}
}

// Backends exposes the concrete adapters, in priority order, for the
// startup preparation pass that must sweep each one individually.
func (s *Store) Backends() []ports.DirectoryRepository {
	if s.primary == nil {
		return []ports.DirectoryRepository{s.fallback}
	}
	return []ports.DirectoryRepository{s.primary, s.fallback}
}

// shouldFailover routes only infrastructure errors to the fallback.
func shouldFailover(err error) bool {
	return err != nil && !domain.IsBusiness(err)
}

func (s *Store) failed(op string, err error) {
	metrics.StoreFailoversTotal.WithLabelValues(op).Inc()
	s.log.Warn().Err(err).Str("op", op).Msg("primary store unavailable, using fallback")
}

// run executes op against the primary, falling back when warranted.
// Generics keep the nine repository methods down to one failover rule.
func run[T any](s *Store, op string, primary, fallback func() (T, error)) (T, error) {
	if s.primary == nil {
		return fallback()
	}
	out, err := primary()
	if shouldFailover(err) {
		s.failed(op, err)
		return fallback()
	}
	return out, err
}

func (s *Store) GetAccount(ctx context.Context, email string) (*domain.UserAccount, error) {
	return run(s, "get_account",
		func() (*domain.UserAccount, error) { return s.primary.GetAccount(ctx, email) },
		func() (*domain.UserAccount, error) { return s.fallback.GetAccount(ctx, email) },
	)
}

func (s *Store) ListAccounts(ctx context.Context) ([]*domain.UserAccount, error) {
	return run(s, "list_accounts",
		func() ([]*domain.UserAccount, error) { return s.primary.ListAccounts(ctx) },
		func() ([]*domain.UserAccount, error) { return s.fallback.ListAccounts(ctx) },
	)
}

func (s *Store) PutAccount(ctx context.Context, account *domain.UserAccount) error {
	_, err := run(s, "put_account",
		func() (struct{}, error) { return struct{}{}, s.primary.PutAccount(ctx, account) },
		func() (struct{}, error) { return struct{}{}, s.fallback.PutAccount(ctx, account) },
	)
	return err
}

func (s *Store) DeleteAccount(ctx context.Context, email string) error {
	_, err := run(s, "delete_account",
		func() (struct{}, error) { return struct{}{}, s.primary.DeleteAccount(ctx, email) },
		func() (struct{}, error) { return struct{}{}, s.fallback.DeleteAccount(ctx, email) },
	)
	return err
}

func (s *Store) GetInvitation(ctx context.Context, id string) (*domain.Invitation, error) {
	return run(s, "get_invitation",
		func() (*domain.Invitation, error) { return s.primary.GetInvitation(ctx, id) },
		func() (*domain.Invitation, error) { return s.fallback.GetInvitation(ctx, id) },
	)
}

func (s *Store) FindInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	return run(s, "find_invitation_by_token",
		func() (*domain.Invitation, error) { return s.primary.FindInvitationByToken(ctx, token) },
		func() (*domain.Invitation, error) { return s.fallback.FindInvitationByToken(ctx, token) },
	)
}

func (s *Store) ListInvitationsByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	return run(s, "list_invitations_by_email",
		func() ([]*domain.Invitation, error) { return s.primary.ListInvitationsByEmail(ctx, email) },
		func() ([]*domain.Invitation, error) { return s.fallback.ListInvitationsByEmail(ctx, email) },
	)
}

func (s *Store) PutInvitation(ctx context.Context, invite *domain.Invitation) error {
	_, err := run(s, "put_invitation",
		func() (struct{}, error) { return struct{}{}, s.primary.PutInvitation(ctx, invite) },
		func() (struct{}, error) { return struct{}{}, s.fallback.PutInvitation(ctx, invite) },
	)
	return err
}

func (s *Store) DeleteInvitationsByEmail(ctx context.Context, email string) (int, error) {
	return run(s, "delete_invitations_by_email",
		func() (int, error) { return s.primary.DeleteInvitationsByEmail(ctx, email) },
		func() (int, error) { return s.fallback.DeleteInvitationsByEmail(ctx, email) },
	)
}
