package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peoplehub/identity-system/internal/core/domain"
)

// emailActivated returns an active account that has verified by email only,
// the precondition for the login step-up flow.
func emailActivated(t *testing.T, svc *Directory, email string) {
	t.Helper()
	created, err := svc.Invite(context.Background(), email, "HR", "admin@example.com")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := svc.VerifyInviteEmail(context.Background(), created.Token); err != nil {
		t.Fatalf("verify email: %v", err)
	}
}

func TestCreateLoginMfaChallenge(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)
	emailActivated(t, svc, "alice@example.com")

	issued, err := svc.CreateLoginMfaChallenge(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("CreateLoginMfaChallenge: %v", err)
	}
	if issued.Token == "" {
		t.Fatalf("expected plaintext challenge token")
	}

	account, _ := repo.GetAccount(context.Background(), "alice@example.com")
	if account.LoginMFA == nil {
		t.Fatalf("challenge state not stored")
	}
	if account.LoginMFA.ChallengeTokenHash == issued.Token {
		t.Fatalf("challenge token must be stored hashed")
	}
}

func TestCreateLoginMfaChallenge_Preconditions(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)

	if _, err := svc.CreateLoginMfaChallenge(context.Background(), "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user_not_found, got %v", err)
	}

	// Pending accounts cannot step up.
	mustInvite(t, svc, "bob@example.com", "HR")
	if _, err := svc.CreateLoginMfaChallenge(context.Background(), "bob@example.com"); !errors.Is(err, domain.ErrInvalidUser) {
		t.Fatalf("expected invalid_user for pending account, got %v", err)
	}

	// Disabled accounts are rejected outright.
	emailActivated(t, svc, "carol@example.com")
	if _, err := svc.SetStatus(context.Background(), "carol@example.com", domain.StatusDisabled); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := svc.CreateLoginMfaChallenge(context.Background(), "carol@example.com"); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected account_disabled, got %v", err)
	}

	// A phone-verified account has nothing to step up.
	token := mustInvite(t, svc, "dave@example.com", "HR")
	activateBySms(t, svc, token)
	if _, err := svc.CreateLoginMfaChallenge(context.Background(), "dave@example.com"); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected already_verified, got %v", err)
	}
}

func TestLoginSmsFlow_Success(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)
	emailActivated(t, svc, "alice@example.com")

	issued, _ := svc.CreateLoginMfaChallenge(context.Background(), "alice@example.com")

	start, err := svc.StartLoginSmsVerification(context.Background(), "alice@example.com", issued.Token, "+5215512345678")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	view, err := svc.CompleteLoginSmsVerification(context.Background(), "alice@example.com", issued.Token, start.OTP)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if view.PhoneVerifiedAt == nil || view.PhoneLast4 != "5678" {
		t.Fatalf("phone not bound: %+v", view)
	}

	// Challenge is single use: the state is gone.
	account, _ := repo.GetAccount(context.Background(), "alice@example.com")
	if account.LoginMFA != nil {
		t.Fatalf("challenge state must be cleared after success")
	}
	if _, err := svc.StartLoginSmsVerification(context.Background(), "alice@example.com", issued.Token, "+5215512345678"); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected already_verified after binding, got %v", err)
	}
}

func TestLoginSms_WrongChallengeToken(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)
	emailActivated(t, svc, "alice@example.com")

	if _, err := svc.CreateLoginMfaChallenge(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("challenge: %v", err)
	}

	if _, err := svc.StartLoginSmsVerification(context.Background(), "alice@example.com", "forged-token", "+5215512345678"); !errors.Is(err, domain.ErrInvalidMFAChallenge) {
		t.Fatalf("expected invalid_mfa_challenge, got %v", err)
	}
	if _, err := svc.StartLoginSmsVerification(context.Background(), "alice@example.com", "", "+5215512345678"); !errors.Is(err, domain.ErrInvalidMFAChallenge) {
		t.Fatalf("expected invalid_mfa_challenge for empty token, got %v", err)
	}
}

func TestLoginSms_ChallengeExpiry(t *testing.T) {
	repo := newMemRepo()
	svc, clock := newTestDirectory(repo)
	emailActivated(t, svc, "alice@example.com")

	issued, _ := svc.CreateLoginMfaChallenge(context.Background(), "alice@example.com")
	clock.advance(601 * time.Second) // default challenge TTL is 600s

	if _, err := svc.StartLoginSmsVerification(context.Background(), "alice@example.com", issued.Token, "+5215512345678"); !errors.Is(err, domain.ErrInvalidMFAChallenge) {
		t.Fatalf("expected invalid_mfa_challenge after expiry, got %v", err)
	}
}

func TestLoginSms_AttemptLockoutNeedsNewChallenge(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)
	emailActivated(t, svc, "alice@example.com")

	issued, _ := svc.CreateLoginMfaChallenge(context.Background(), "alice@example.com")
	start, _ := svc.StartLoginSmsVerification(context.Background(), "alice@example.com", issued.Token, "+5215512345678")

	wrong := "000000"
	if wrong == start.OTP {
		wrong = "000001"
	}
	for i := 0; i < 4; i++ {
		if _, err := svc.CompleteLoginSmsVerification(context.Background(), "alice@example.com", issued.Token, wrong); !errors.Is(err, domain.ErrInvalidOTP) {
			t.Fatalf("attempt %d: expected invalid_otp, got %v", i+1, err)
		}
	}
	if _, err := svc.CompleteLoginSmsVerification(context.Background(), "alice@example.com", issued.Token, wrong); !errors.Is(err, domain.ErrOTPAttemptsExceeded) {
		t.Fatalf("expected otp_attempts_exceeded, got %v", err)
	}

	// No unlock: even the correct code stays dead on this challenge.
	if _, err := svc.CompleteLoginSmsVerification(context.Background(), "alice@example.com", issued.Token, start.OTP); !errors.Is(err, domain.ErrOTPAttemptsExceeded) {
		t.Fatalf("expected otp_attempts_exceeded after lockout, got %v", err)
	}

	// A fresh challenge starts over.
	fresh, err := svc.CreateLoginMfaChallenge(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("fresh challenge: %v", err)
	}
	start2, err := svc.StartLoginSmsVerification(context.Background(), "alice@example.com", fresh.Token, "+5215512345678")
	if err != nil {
		t.Fatalf("fresh start: %v", err)
	}
	if _, err := svc.CompleteLoginSmsVerification(context.Background(), "alice@example.com", fresh.Token, start2.OTP); err != nil {
		t.Fatalf("fresh complete: %v", err)
	}
}

func TestLoginSms_OTPBoundToChallenge(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)
	emailActivated(t, svc, "alice@example.com")

	first, _ := svc.CreateLoginMfaChallenge(context.Background(), "alice@example.com")
	start, _ := svc.StartLoginSmsVerification(context.Background(), "alice@example.com", first.Token, "+5215512345678")

	// Re-issuing the challenge replaces the flow; the old code must not
	// complete the new one even though the hash is still stored.
	second, _ := svc.CreateLoginMfaChallenge(context.Background(), "alice@example.com")
	if _, err := svc.CompleteLoginSmsVerification(context.Background(), "alice@example.com", second.Token, start.OTP); !errors.Is(err, domain.ErrOTPNotRequested) {
		t.Fatalf("expected otp_not_requested on the new challenge, got %v", err)
	}
}
