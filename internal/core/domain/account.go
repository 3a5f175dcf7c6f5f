package domain

import "time"

// AccountStatus is the lifecycle state of a directory account.
type AccountStatus string

const (
	StatusPending  AccountStatus = "pending"
	StatusActive   AccountStatus = "active"
	StatusDisabled AccountStatus = "disabled"
)

// ValidStatus reports whether s is one of the known account statuses.
func ValidStatus(s AccountStatus) bool {
	switch s {
	case StatusPending, StatusActive, StatusDisabled:
		return true
	}
	return false
}

// Account provenance.
const (
	SourceBootstrap = "bootstrap"
	SourceInvite    = "invite"
)

// Verification methods.
const (
	VerifySMS   = "sms"
	VerifyEmail = "email"
)

// UserAccount is one directory identity, keyed by its normalized email.
// Phone numbers and OTP codes are stored only as keyed hashes; the raw
// values never reach the store.
type UserAccount struct {
	ID    string `json:"id" bson:"_id"`
	Email string `json:"email" bson:"email"`

	FirstName string `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" bson:"last_name,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty" bson:"photo_url,omitempty"`

	Role   string        `json:"role" bson:"role"`
	Status AccountStatus `json:"status" bson:"status"`

	// SessionVersion starts at 1 and increments on every change that must
	// invalidate outstanding sessions. The edge embeds it in issued
	// credentials and rejects stale values.
	SessionVersion int `json:"session_version" bson:"session_version"`

	EmailVerifiedAt    *time.Time `json:"email_verified_at,omitempty" bson:"email_verified_at,omitempty"`
	PhoneVerifiedAt    *time.Time `json:"phone_verified_at,omitempty" bson:"phone_verified_at,omitempty"`
	PhoneLast4         string     `json:"phone_last4,omitempty" bson:"phone_last4,omitempty"`
	PhoneHash          string     `json:"-" bson:"phone_hash,omitempty"`
	VerificationMethod string     `json:"verification_method,omitempty" bson:"verification_method,omitempty"`

	LoginMFA *LoginMFAState `json:"-" bson:"login_mfa,omitempty"`

	IsArchived        bool       `json:"is_archived" bson:"is_archived"`
	ArchivedAt        *time.Time `json:"archived_at,omitempty" bson:"archived_at,omitempty"`
	ArchivedBy        string     `json:"archived_by,omitempty" bson:"archived_by,omitempty"`
	ArchiveReason     string     `json:"archive_reason,omitempty" bson:"archive_reason,omitempty"`
	RetentionDeleteAt *time.Time `json:"retention_delete_at,omitempty" bson:"retention_delete_at,omitempty"`

	InvitedBy   string     `json:"invited_by,omitempty" bson:"invited_by,omitempty"`
	InvitedAt   *time.Time `json:"invited_at,omitempty" bson:"invited_at,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty" bson:"activated_at,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
	Source      string     `json:"source" bson:"source"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// LoginMFAState is the step-up verification state attached to an active
// account that has not yet bound a phone number. The challenge token is a
// bearer value held by the session layer; only its hash is stored here.
type LoginMFAState struct {
	ChallengeTokenHash string    `json:"challenge_token_hash" bson:"challenge_token_hash"`
	ChallengeExpiresAt time.Time `json:"challenge_expires_at" bson:"challenge_expires_at"`

	Verification VerificationState `json:"verification" bson:"verification"`

	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
