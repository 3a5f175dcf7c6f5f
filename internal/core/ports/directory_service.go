package ports

import (
	"context"
	"time"

	"github.com/peoplehub/identity-system/internal/core/domain"
)

// AccountView is the public projection of a UserAccount: everything a
// collaborator may see, with hashes and MFA internals stripped.
type AccountView struct {
	ID                 string               `json:"id"`
	Email              string               `json:"email"`
	FirstName          string               `json:"first_name,omitempty"`
	LastName           string               `json:"last_name,omitempty"`
	PhotoURL           string               `json:"photo_url,omitempty"`
	Role               string               `json:"role"`
	Status             domain.AccountStatus `json:"status"`
	SessionVersion     int                  `json:"session_version"`
	EmailVerifiedAt    *time.Time           `json:"email_verified_at,omitempty"`
	PhoneVerifiedAt    *time.Time           `json:"phone_verified_at,omitempty"`
	PhoneLast4         string               `json:"phone_last4,omitempty"`
	VerificationMethod string               `json:"verification_method,omitempty"`
	IsArchived         bool                 `json:"is_archived"`
	ArchivedAt         *time.Time           `json:"archived_at,omitempty"`
	ArchiveReason      string               `json:"archive_reason,omitempty"`
	RetentionDeleteAt  *time.Time           `json:"retention_delete_at,omitempty"`
	InvitedBy          string               `json:"invited_by,omitempty"`
	InvitedAt          *time.Time           `json:"invited_at,omitempty"`
	ActivatedAt        *time.Time           `json:"activated_at,omitempty"`
	LastLoginAt        *time.Time           `json:"last_login_at,omitempty"`
	Source             string               `json:"source"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// InvitationView is the public projection of an Invitation. The bearer token
// is absent: it is surfaced exactly once, inside InviteCreated.
type InvitationView struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	EmailMasked string              `json:"email_masked"`
	Role        string              `json:"role"`
	InvitedBy   string              `json:"invited_by"`
	InvitedAt   time.Time           `json:"invited_at"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Status      domain.InviteStatus `json:"status"`
	PhoneMasked string              `json:"phone_masked,omitempty"`
	PhoneLast4  string              `json:"phone_last4,omitempty"`
	VerifiedAt  *time.Time          `json:"verified_at,omitempty"`
}

// InviteCreated is the result of issuing an invitation. Token is the bearer
// credential handed to the invitee; it is never returned again.
type InviteCreated struct {
	Account    *AccountView    `json:"account"`
	Invitation *InvitationView `json:"invitation"`
	Token      string          `json:"token"`
}

// SMSStart is the result of starting a phone verification: the plaintext
// code and masked destination for out-of-band delivery by the caller. The
// core itself never transmits the code.
type SMSStart struct {
	OTP               string    `json:"otp"`
	PhoneMasked       string    `json:"phone_masked"`
	ExpiresAt         time.Time `json:"expires_at"`
	ResendAvailableAt time.Time `json:"resend_available_at"`
}

// ChallengeIssued carries a freshly minted login MFA challenge token.
type ChallengeIssued struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileUpdate holds the editable profile fields; nil means "leave as is".
type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	PhotoURL  *string `json:"photo_url"`
}

// PurgeResult reports what a retention sweep deleted.
type PurgeResult struct {
	AccountsPurged    int      `json:"accounts_purged"`
	InvitationsPurged int      `json:"invitations_purged"`
	Emails            []string `json:"emails"`
}

// DirectoryService is the public surface of the identity lifecycle core.
// Every operation is synchronous and returns either a public view or a
// tagged business error (domain.IsBusiness).
type DirectoryService interface {
	PrepareDirectory(ctx context.Context) error

	ListAccounts(ctx context.Context) ([]*AccountView, error)
	GetAccountForLogin(ctx context.Context, email string) (*AccountView, error)
	MarkLogin(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*AccountView, error)

	Invite(ctx context.Context, email, role, invitedBy string) (*InviteCreated, error)
	RevokeInvite(ctx context.Context, inviteID string) (*InvitationView, error)
	GetInviteForOpening(ctx context.Context, token string) (*InvitationView, error)
	VerifyInviteEmail(ctx context.Context, token string) (*AccountView, error)
	StartInviteSmsVerification(ctx context.Context, token, phone string) (*SMSStart, error)
	CompleteInviteSmsVerification(ctx context.Context, token, otp string) (*AccountView, error)

	CreateLoginMfaChallenge(ctx context.Context, email string) (*ChallengeIssued, error)
	StartLoginSmsVerification(ctx context.Context, email, challengeToken, phone string) (*SMSStart, error)
	CompleteLoginSmsVerification(ctx context.Context, email, challengeToken, otp string) (*AccountView, error)

	RevokeSessions(ctx context.Context, userID string) (*AccountView, error)
	SetStatus(ctx context.Context, userID string, status domain.AccountStatus) (*AccountView, error)
	SetRole(ctx context.Context, userID, role string) (*AccountView, error)
	Archive(ctx context.Context, userID, archivedBy, reason string, retentionDeleteAt *time.Time) (*AccountView, error)
	PurgeDue(ctx context.Context, now time.Time) (*PurgeResult, error)
}
