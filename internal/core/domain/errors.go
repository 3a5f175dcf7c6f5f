package domain

import "errors"

// Kind identifies a business-rule failure. The set is closed: the store
// failover layer routes on it, so new conditions must be added here rather
// than raised as ad-hoc errors.
type Kind string

const (
	KindInvalidEmail          Kind = "invalid_email"
	KindInvalidRole           Kind = "invalid_role"
	KindInvalidUser           Kind = "invalid_user"
	KindInvalidStatus         Kind = "invalid_status"
	KindInvalidInviteToken    Kind = "invalid_invite_token"
	KindInvalidPhoneNumber    Kind = "invalid_phone_number"
	KindInvalidOTP            Kind = "invalid_otp"
	KindInvalidMFAChallenge   Kind = "invalid_mfa_challenge"
	KindInviteNotFound        Kind = "invite_not_found"
	KindInviteExpired         Kind = "invite_expired"
	KindInviteRevoked         Kind = "invite_revoked"
	KindInviteAlreadyVerified Kind = "invite_already_verified"
	KindInviteUserNotFound    Kind = "invite_user_not_found"
	KindAccountDisabled       Kind = "account_disabled"
	KindAlreadyVerified       Kind = "already_verified"
	KindOTPNotRequested       Kind = "otp_not_requested"
	KindOTPExpired            Kind = "otp_expired"
	KindOTPAttemptsExceeded   Kind = "otp_attempts_exceeded"
	KindOTPCooldown           Kind = "otp_cooldown"
	KindUserNotFound          Kind = "user_not_found"
)

// Error is a tagged business-rule error. Infrastructure failures (store
// unreachable, I/O) are plain wrapped errors and never carry a Kind.
type Error struct {
	Kind Kind
}

func (e *Error) Error() string { return string(e.Kind) }

var (
	ErrInvalidEmail          = &Error{KindInvalidEmail}
	ErrInvalidRole           = &Error{KindInvalidRole}
	ErrInvalidUser           = &Error{KindInvalidUser}
	ErrInvalidStatus         = &Error{KindInvalidStatus}
	ErrInvalidInviteToken    = &Error{KindInvalidInviteToken}
	ErrInvalidPhoneNumber    = &Error{KindInvalidPhoneNumber}
	ErrInvalidOTP            = &Error{KindInvalidOTP}
	ErrInvalidMFAChallenge   = &Error{KindInvalidMFAChallenge}
	ErrInviteNotFound        = &Error{KindInviteNotFound}
	ErrInviteExpired         = &Error{KindInviteExpired}
	ErrInviteRevoked         = &Error{KindInviteRevoked}
	ErrInviteAlreadyVerified = &Error{KindInviteAlreadyVerified}
	ErrInviteUserNotFound    = &Error{KindInviteUserNotFound}
	ErrAccountDisabled       = &Error{KindAccountDisabled}
	ErrAlreadyVerified       = &Error{KindAlreadyVerified}
	ErrOTPNotRequested       = &Error{KindOTPNotRequested}
	ErrOTPExpired            = &Error{KindOTPExpired}
	ErrOTPAttemptsExceeded   = &Error{KindOTPAttemptsExceeded}
	ErrOTPCooldown           = &Error{KindOTPCooldown}
	ErrUserNotFound          = &Error{KindUserNotFound}
)

// IsBusiness reports whether err is a tagged business-rule error. The store
// failover decorator only retries on the fallback backend when this returns
// false: business errors describe caller or record state, not infrastructure.
func IsBusiness(err error) bool {
	var de *Error
	return errors.As(err, &de)
}
