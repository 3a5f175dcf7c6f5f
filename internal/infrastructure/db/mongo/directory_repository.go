package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/peoplehub/identity-system/internal/core/domain"
)

const (
	accountsCollection    = "directory_accounts"
	invitationsCollection = "directory_invitations"
)

// DirectoryRepository is the primary durable adapter. Account documents are
// keyed by normalized email, invitations by their generated ID; writes are
// whole-document upserts matching the core's read-modify-write contract.
type DirectoryRepository struct {
	accounts *mongo.Collection
	invites  *mongo.Collection
}

func NewDirectoryRepository(db *mongo.Database) *DirectoryRepository {
	return &DirectoryRepository{
		accounts: db.Collection(accountsCollection),
		invites:  db.Collection(invitationsCollection),
	}
}

// EnsureIndexes creates the token lookup index for invitations. Safe to call
// on every startup.
func (r *DirectoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.invites.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure invitation indexes: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) GetAccount(ctx context.Context, email string) (*domain.UserAccount, error) {
	var account domain.UserAccount
	if err := r.accounts.FindOne(ctx, bson.M{"_id": email}).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

func (r *DirectoryRepository) ListAccounts(ctx context.Context) ([]*domain.UserAccount, error) {
	cursor, err := r.accounts.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []*domain.UserAccount
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

func (r *DirectoryRepository) PutAccount(ctx context.Context, account *domain.UserAccount) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.accounts.ReplaceOne(ctx, bson.M{"_id": account.ID}, account, opts); err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) DeleteAccount(ctx context.Context, email string) error {
	res, err := r.accounts.DeleteOne(ctx, bson.M{"_id": email})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *DirectoryRepository) GetInvitation(ctx context.Context, id string) (*domain.Invitation, error) {
	return r.findInvitation(ctx, bson.M{"_id": id})
}

func (r *DirectoryRepository) FindInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	return r.findInvitation(ctx, bson.M{"token": token})
}

func (r *DirectoryRepository) findInvitation(ctx context.Context, filter bson.M) (*domain.Invitation, error) {
	var invite domain.Invitation
	if err := r.invites.FindOne(ctx, filter).Decode(&invite); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	return &invite, nil
}

func (r *DirectoryRepository) ListInvitationsByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	cursor, err := r.invites.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer cursor.Close(ctx)

	invites := []*domain.Invitation{}
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, fmt.Errorf("decode invitations: %w", err)
	}
	return invites, nil
}

func (r *DirectoryRepository) PutInvitation(ctx context.Context, invite *domain.Invitation) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.invites.ReplaceOne(ctx, bson.M{"_id": invite.ID}, invite, opts); err != nil {
		return fmt.Errorf("put invitation: %w", err)
	}
	return nil
}

func (r *DirectoryRepository) DeleteInvitationsByEmail(ctx context.Context, email string) (int, error) {
	res, err := r.invites.DeleteMany(ctx, bson.M{"email": email})
	if err != nil {
		return 0, fmt.Errorf("delete invitations: %w", err)
	}
	return int(res.DeletedCount), nil
}
