package ports

import (
	"context"

	"github.com/peoplehub/identity-system/internal/core/domain"
)

// DirectoryRepository is the persistence contract for accounts and
// invitations. Implementations exist for the primary durable store (Mongo),
// the local JSON fallback, and the failover decorator that combines them.
//
// Reads return domain.ErrUserNotFound / domain.ErrInviteNotFound as business
// errors; any other error is infrastructure-class and eligible for failover.
// Writes are whole-record upserts: callers read, modify, and put back
// (last-writer-wins on concurrent updates, accepted by design).
type DirectoryRepository interface {
	GetAccount(ctx context.Context, email string) (*domain.UserAccount, error)
	ListAccounts(ctx context.Context) ([]*domain.UserAccount, error)
	PutAccount(ctx context.Context, account *domain.UserAccount) error
	DeleteAccount(ctx context.Context, email string) error

	GetInvitation(ctx context.Context, id string) (*domain.Invitation, error)
	FindInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error)
	ListInvitationsByEmail(ctx context.Context, email string) ([]*domain.Invitation, error)
	PutInvitation(ctx context.Context, invite *domain.Invitation) error
	DeleteInvitationsByEmail(ctx context.Context, email string) (int, error)
}
