package domain

import "time"

// InviteStatus is the invitation lifecycle state. Transitions are monotonic
// toward a terminal state; a terminal invitation is never reactivated.
type InviteStatus string

const (
	InviteSent     InviteStatus = "sent"
	InviteOTPSent  InviteStatus = "otp_sent"
	InviteVerified InviteStatus = "verified"
	InviteRevoked  InviteStatus = "revoked"
	InviteExpired  InviteStatus = "expired"
)

// Invitation is a pending offer to join the directory. The token is the
// bearer credential embedded in the invite link and doubles as the lookup
// key; it is returned to the inviter exactly once, at creation.
type Invitation struct {
	ID        string       `json:"id" bson:"_id"`
	Email     string       `json:"email" bson:"email"`
	Role      string       `json:"role" bson:"role"`
	InvitedBy string       `json:"invited_by" bson:"invited_by"`
	InvitedAt time.Time    `json:"invited_at" bson:"invited_at"`
	ExpiresAt time.Time    `json:"expires_at" bson:"expires_at"`
	Token     string       `json:"-" bson:"token"`
	Status    InviteStatus `json:"status" bson:"status"`

	Verification VerificationState `json:"verification" bson:"verification"`
}

// Terminal reports whether the invitation has reached a final state.
func (i *Invitation) Terminal() bool {
	switch i.Status {
	case InviteVerified, InviteRevoked, InviteExpired:
		return true
	}
	return false
}

// VerificationState tracks one phone/OTP verification flow. It is shared by
// invitation verification and the login MFA challenge; the OTP hash is keyed
// to the flow's own token so a code can never be replayed across flows.
type VerificationState struct {
	PhoneMasked     string     `json:"phone_masked,omitempty" bson:"phone_masked,omitempty"`
	PhoneLast4      string     `json:"phone_last4,omitempty" bson:"phone_last4,omitempty"`
	PhoneHash       string     `json:"-" bson:"phone_hash,omitempty"`
	OTPHash         string     `json:"-" bson:"otp_hash,omitempty"`
	OTPExpiresAt    *time.Time `json:"otp_expires_at,omitempty" bson:"otp_expires_at,omitempty"`
	OTPRequestedAt  *time.Time `json:"otp_requested_at,omitempty" bson:"otp_requested_at,omitempty"`
	OTPAttemptCount int        `json:"otp_attempt_count" bson:"otp_attempt_count"`
	OTPMaxAttempts  int        `json:"otp_max_attempts" bson:"otp_max_attempts"`
	ResendAvailAt   *time.Time `json:"resend_available_at,omitempty" bson:"resend_available_at,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
}

// ClearOTP drops the pending code while keeping the bound phone, so a failed
// or expired code cannot be retried without a fresh start call.
func (v *VerificationState) ClearOTP() {
	v.OTPHash = ""
	v.OTPExpiresAt = nil
}
