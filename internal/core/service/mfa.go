package service

import (
	"context"

	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
	"github.com/peoplehub/identity-system/internal/pkg/secrets"
)

// CreateLoginMfaChallenge opens a step-up verification window for an active
// account that has not yet bound a phone number. Only the hash of the
// challenge token is stored; the plaintext goes back to the session layer,
// which must present it on every subsequent OTP call of the flow.
func (s *Directory) CreateLoginMfaChallenge(ctx context.Context, email string) (*ports.ChallengeIssued, error) {
	account, err := s.repo.GetAccount(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	switch account.Status {
	case domain.StatusActive:
	case domain.StatusDisabled:
		return nil, domain.ErrAccountDisabled
	default:
		return nil, domain.ErrInvalidUser
	}
	if account.PhoneVerifiedAt != nil {
		return nil, domain.ErrAlreadyVerified
	}

	token, err := secrets.NewToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.MFAChallengeTTL)
	account.LoginMFA = &domain.LoginMFAState{
		ChallengeTokenHash: s.hasher.Hash(secrets.NamespaceMFAChallenge, token),
		ChallengeExpiresAt: expiresAt,
		Verification: domain.VerificationState{
			OTPMaxAttempts: s.cfg.OTPMaxAttempts,
		},
		UpdatedAt: now,
	}
	account.UpdatedAt = now

	if err := s.repo.PutAccount(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().Str("email", account.Email).Msg("login mfa challenge created")
	return &ports.ChallengeIssued{Token: token, ExpiresAt: expiresAt}, nil
}

// mfaAccount resolves the account for a login MFA call and gates it on the
// presented challenge token: hash re-derived, compared in constant time,
// rejected when expired or mismatched.
func (s *Directory) mfaAccount(ctx context.Context, email, challengeToken string) (*domain.UserAccount, error) {
	account, err := s.repo.GetAccount(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if account.Status == domain.StatusDisabled {
		return nil, domain.ErrAccountDisabled
	}
	if account.LoginMFA == nil || challengeToken == "" {
		return nil, domain.ErrInvalidMFAChallenge
	}
	if s.now().After(account.LoginMFA.ChallengeExpiresAt) {
		return nil, domain.ErrInvalidMFAChallenge
	}
	presented := s.hasher.Hash(secrets.NamespaceMFAChallenge, challengeToken)
	if !secrets.Equal(presented, account.LoginMFA.ChallengeTokenHash) {
		return nil, domain.ErrInvalidMFAChallenge
	}
	return account, nil
}

// StartLoginSmsVerification issues an OTP inside an open MFA challenge.
func (s *Directory) StartLoginSmsVerification(ctx context.Context, email, challengeToken, phone string) (*ports.SMSStart, error) {
	account, err := s.mfaAccount(ctx, email, challengeToken)
	if err != nil {
		return nil, err
	}
	if account.PhoneVerifiedAt != nil {
		return nil, domain.ErrAlreadyVerified
	}

	if err := s.rateLimit(ctx, account.Email); err != nil {
		return nil, err
	}

	result, err := s.startVerification(&account.LoginMFA.Verification, challengeToken, phone)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account.LoginMFA.UpdatedAt = now
	account.UpdatedAt = now
	if err := s.repo.PutAccount(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("email", account.Email).
		Str("phone", result.PhoneMasked).
		Msg("login sms verification started")
	return result, nil
}

// CompleteLoginSmsVerification checks the submitted code and, on success,
// marks the account's phone verified and discards the challenge state: the
// challenge is single use. A lockout leaves the challenge in place but
// spent; recovery requires a brand-new challenge.
func (s *Directory) CompleteLoginSmsVerification(ctx context.Context, email, challengeToken, otp string) (*ports.AccountView, error) {
	account, err := s.mfaAccount(ctx, email, challengeToken)
	if err != nil {
		return nil, err
	}

	changed, verifyErr := s.completeVerification(&account.LoginMFA.Verification, challengeToken, otp, nil)
	if changed {
		account.LoginMFA.UpdatedAt = s.now()
		if err := s.repo.PutAccount(ctx, account); err != nil {
			return nil, err
		}
	}
	if verifyErr != nil {
		return nil, verifyErr
	}

	now := s.now()
	account.PhoneVerifiedAt = &now
	account.PhoneLast4 = account.LoginMFA.Verification.PhoneLast4
	account.PhoneHash = account.LoginMFA.Verification.PhoneHash
	account.VerificationMethod = domain.VerifySMS
	account.LoginMFA = nil
	account.UpdatedAt = now

	if err := s.repo.PutAccount(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().Str("email", account.Email).Msg("login mfa verification completed")
	return accountView(account), nil
}
