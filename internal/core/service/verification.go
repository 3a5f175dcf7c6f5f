package service

import (
	"context"

	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
	"github.com/peoplehub/identity-system/internal/pkg/secrets"
)

// The OTP engine below is shared by the two verification call sites: invite
// activation and login step-up MFA. Both operate on a VerificationState and
// key the OTP hash to the flow's own bearer token, so a code can only
// complete the exact flow that issued it.

// startVerification binds a phone number to the flow and mints a fresh OTP.
// The plaintext code goes back to the caller for out-of-band delivery.
func (s *Directory) startVerification(state *domain.VerificationState, flowToken, phone string) (*ports.SMSStart, error) {
	now := s.now()

	if state.ResendAvailAt != nil && now.Before(*state.ResendAvailAt) {
		return nil, domain.ErrOTPCooldown
	}

	normalized := secrets.NormalizePhone(phone, s.cfg.DefaultCountryCode)
	if normalized == "" {
		return nil, domain.ErrInvalidPhoneNumber
	}

	otp, err := secrets.NewOTP()
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.cfg.OTPTTL)
	resendAt := now.Add(s.cfg.OTPResendCooldown)

	state.PhoneMasked = secrets.MaskPhone(normalized)
	state.PhoneLast4 = secrets.PhoneLast4(normalized)
	state.PhoneHash = s.hasher.Hash(secrets.NamespacePhone, normalized)
	state.OTPHash = s.hasher.HashOTP(flowToken, otp)
	state.OTPExpiresAt = &expiresAt
	state.OTPRequestedAt = &now
	state.OTPAttemptCount = 0
	if state.OTPMaxAttempts <= 0 {
		state.OTPMaxAttempts = s.cfg.OTPMaxAttempts
	}
	state.ResendAvailAt = &resendAt

	return &ports.SMSStart{
		OTP:               otp,
		PhoneMasked:       state.PhoneMasked,
		ExpiresAt:         expiresAt,
		ResendAvailableAt: resendAt,
	}, nil
}

// completeVerification checks a submitted code against the stored hash.
// It mutates state (attempt counter, cleared secrets) and reports via
// changed whether the caller must persist even when an error comes back.
// lockout runs when the failed attempt exhausts the allowance.
func (s *Directory) completeVerification(state *domain.VerificationState, flowToken, otp string, lockout func()) (changed bool, err error) {
	if !validOTPSyntax(otp) {
		return false, domain.ErrInvalidOTP
	}
	if state.OTPHash == "" {
		return false, domain.ErrOTPNotRequested
	}

	now := s.now()
	if state.OTPExpiresAt != nil && now.After(*state.OTPExpiresAt) {
		state.ClearOTP()
		return true, domain.ErrOTPExpired
	}
	if state.OTPAttemptCount >= state.OTPMaxAttempts {
		return false, domain.ErrOTPAttemptsExceeded
	}

	expected := s.hasher.HashOTP(flowToken, otp)
	if !secrets.Equal(expected, state.OTPHash) {
		state.OTPAttemptCount++
		if state.OTPAttemptCount >= state.OTPMaxAttempts {
			if lockout != nil {
				lockout()
			}
			return true, domain.ErrOTPAttemptsExceeded
		}
		return true, domain.ErrInvalidOTP
	}

	// Single use: the hash is gone the moment it matches.
	state.ClearOTP()
	state.VerifiedAt = &now
	return true, nil
}

func validOTPSyntax(otp string) bool {
	if len(otp) != 6 {
		return false
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// rateLimit consults the advisory OTP request limiter. Limiter errors are
// infrastructure noise and do not block the flow; a denial maps to the
// cooldown error.
func (s *Directory) rateLimit(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("otp rate limiter unavailable, allowing request")
		return nil
	}
	if !allowed {
		return domain.ErrOTPCooldown
	}
	return nil
}

// StartInviteSmsVerification issues an OTP for a pending invitation.
func (s *Directory) StartInviteSmsVerification(ctx context.Context, token, phone string) (*ports.SMSStart, error) {
	invite, err := s.resolveInviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := inviteUsable(invite); err != nil {
		return nil, err
	}

	account, err := s.inviteAccount(ctx, invite)
	if err != nil {
		return nil, err
	}
	if account.PhoneVerifiedAt != nil {
		return nil, domain.ErrAlreadyVerified
	}

	if err := s.rateLimit(ctx, invite.Email); err != nil {
		return nil, err
	}

	result, err := s.startVerification(&invite.Verification, invite.Token, phone)
	if err != nil {
		return nil, err
	}

	invite.Status = domain.InviteOTPSent
	if err := s.repo.PutInvitation(ctx, invite); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("email", invite.Email).
		Str("phone", result.PhoneMasked).
		Msg("invite sms verification started")
	return result, nil
}

// CompleteInviteSmsVerification validates the submitted code and, on
// success, activates the pending account with the verified phone bound to
// it. Exhausting the attempt allowance revokes the invitation outright.
func (s *Directory) CompleteInviteSmsVerification(ctx context.Context, token, otp string) (*ports.AccountView, error) {
	invite, err := s.resolveInviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := inviteUsable(invite); err != nil {
		return nil, err
	}
	if invite.Status == domain.InviteSent {
		return nil, domain.ErrOTPNotRequested
	}

	account, err := s.inviteAccount(ctx, invite)
	if err != nil {
		return nil, err
	}

	changed, verifyErr := s.completeVerification(&invite.Verification, invite.Token, otp, func() {
		invite.Status = domain.InviteRevoked
	})
	if changed {
		if err := s.repo.PutInvitation(ctx, invite); err != nil {
			return nil, err
		}
	}
	if verifyErr != nil {
		return nil, verifyErr
	}

	now := s.now()
	invite.Status = domain.InviteVerified

	account.PhoneVerifiedAt = &now
	account.PhoneLast4 = invite.Verification.PhoneLast4
	account.PhoneHash = invite.Verification.PhoneHash
	account.VerificationMethod = domain.VerifySMS
	s.activate(ctx, account, now)

	if err := s.repo.PutAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := s.repo.PutInvitation(ctx, invite); err != nil {
		return nil, err
	}

	s.log.Info().Str("email", account.Email).Msg("invite verified by sms")
	return accountView(account), nil
}
