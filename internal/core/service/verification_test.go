package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peoplehub/identity-system/internal/core/domain"
)

func TestInviteSmsFlow_Success(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")

	start, err := svc.StartInviteSmsVerification(context.Background(), created.Token, "55 1234 5678")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(start.OTP) != 6 {
		t.Fatalf("expected 6-digit code, got %q", start.OTP)
	}
	if start.PhoneMasked != "*******5678" {
		t.Fatalf("unexpected mask: %q", start.PhoneMasked)
	}

	invite, _ := repo.GetInvitation(context.Background(), created.Invitation.ID)
	if invite.Status != domain.InviteOTPSent {
		t.Fatalf("expected otp_sent, got %s", invite.Status)
	}
	if invite.Verification.OTPHash == start.OTP || invite.Verification.OTPHash == "" {
		t.Fatalf("raw code must never be persisted")
	}
	if invite.Verification.PhoneHash == "" || invite.Verification.PhoneLast4 != "5678" {
		t.Fatalf("phone not hashed/bound: %+v", invite.Verification)
	}

	view, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, start.OTP)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if view.Status != domain.StatusActive {
		t.Fatalf("expected active account, got %s", view.Status)
	}
	if view.PhoneVerifiedAt == nil || view.VerificationMethod != domain.VerifySMS {
		t.Fatalf("phone verification not recorded: %+v", view)
	}

	invite, _ = repo.GetInvitation(context.Background(), created.Invitation.ID)
	if invite.Status != domain.InviteVerified {
		t.Fatalf("expected verified invitation, got %s", invite.Status)
	}
	if invite.Verification.OTPHash != "" {
		t.Fatalf("otp hash must be cleared on success")
	}
}

func TestInviteSms_OTPSingleUse(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	start, _ := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678")
	if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, start.OTP); err != nil {
		t.Fatalf("first complete: %v", err)
	}

	if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, start.OTP); !errors.Is(err, domain.ErrInviteAlreadyVerified) {
		t.Fatalf("verified code must not be acceptable twice, got %v", err)
	}
}

func TestInviteSms_InvalidPhone(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	if _, err := svc.StartInviteSmsVerification(context.Background(), created.Token, "123"); !errors.Is(err, domain.ErrInvalidPhoneNumber) {
		t.Fatalf("expected invalid_phone_number, got %v", err)
	}
}

func TestInviteSms_ResendCooldown(t *testing.T) {
	repo := newMemRepo()
	svc, clock := newTestDirectory(repo)

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	if _, err := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678"); !errors.Is(err, domain.ErrOTPCooldown) {
		t.Fatalf("expected otp_cooldown, got %v", err)
	}

	clock.advance(61 * time.Second)
	if _, err := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678"); err != nil {
		t.Fatalf("resend after cooldown: %v", err)
	}
}

func TestInviteSms_OTPExpiry(t *testing.T) {
	repo := newMemRepo()
	svc, clock := newTestDirectory(repo)

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	start, _ := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678")

	clock.advance(301 * time.Second)
	if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, start.OTP); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected otp_expired even with the correct code, got %v", err)
	}

	// Expiry clears the hash: a retry now reports no code outstanding.
	if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, start.OTP); !errors.Is(err, domain.ErrOTPNotRequested) {
		t.Fatalf("expected otp_not_requested after cleared hash, got %v", err)
	}
}

func TestInviteSms_AttemptLockoutRevokesInvite(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	start, _ := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678")

	wrong := "000000"
	if wrong == start.OTP {
		wrong = "000001"
	}

	for i := 0; i < 4; i++ {
		if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, wrong); !errors.Is(err, domain.ErrInvalidOTP) {
			t.Fatalf("attempt %d: expected invalid_otp, got %v", i+1, err)
		}
	}

	// Fifth wrong attempt exhausts the allowance and revokes the invite.
	if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, wrong); !errors.Is(err, domain.ErrOTPAttemptsExceeded) {
		t.Fatalf("expected otp_attempts_exceeded, got %v", err)
	}

	invite, _ := repo.GetInvitation(context.Background(), created.Invitation.ID)
	if invite.Status != domain.InviteRevoked {
		t.Fatalf("lockout must revoke the invitation, got %s", invite.Status)
	}

	// Even the correct code is dead now.
	if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, start.OTP); !errors.Is(err, domain.ErrInviteRevoked) {
		t.Fatalf("expected invite_revoked after lockout, got %v", err)
	}
}

func TestInviteSms_CompleteWithoutStart(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, "123456"); !errors.Is(err, domain.ErrOTPNotRequested) {
		t.Fatalf("expected otp_not_requested, got %v", err)
	}
}

func TestInviteSms_MalformedCode(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	if _, err := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678"); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, code := range []string{"", "12345", "1234567", "12345a"} {
		if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, code); !errors.Is(err, domain.ErrInvalidOTP) {
			t.Fatalf("code %q: expected invalid_otp, got %v", code, err)
		}
	}

	// Malformed submissions never consume attempts.
	invite, _ := repo.GetInvitation(context.Background(), created.Invitation.ID)
	if invite.Verification.OTPAttemptCount != 0 {
		t.Fatalf("malformed codes consumed attempts: %d", invite.Verification.OTPAttemptCount)
	}
}

func TestInviteSms_WrongCodeConsumesAttempt(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	start, _ := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678")

	wrong := "000000"
	if wrong == start.OTP {
		wrong = "000001"
	}
	if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, wrong); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("expected invalid_otp, got %v", err)
	}

	invite, _ := repo.GetInvitation(context.Background(), created.Invitation.ID)
	if invite.Verification.OTPAttemptCount != 1 {
		t.Fatalf("attempt not persisted: %d", invite.Verification.OTPAttemptCount)
	}

	// The correct code still works within the allowance.
	if _, err := svc.CompleteInviteSmsVerification(context.Background(), created.Token, start.OTP); err != nil {
		t.Fatalf("correct code after one miss: %v", err)
	}
}

// deniedLimiter always refuses, standing in for an exhausted request window.
type deniedLimiter struct{}

func (deniedLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

// brokenLimiter errors, standing in for Redis being down.
type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestInviteSms_RateLimiterDenial(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)
	svc.limiter = deniedLimiter{}

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	if _, err := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678"); !errors.Is(err, domain.ErrOTPCooldown) {
		t.Fatalf("expected otp_cooldown on limiter denial, got %v", err)
	}
}

func TestInviteSms_RateLimiterOutageIsAdvisory(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestDirectory(repo)
	svc.limiter = brokenLimiter{}

	created, _ := svc.Invite(context.Background(), "alice@example.com", "HR", "admin@example.com")
	if _, err := svc.StartInviteSmsVerification(context.Background(), created.Token, "+5215512345678"); err != nil {
		t.Fatalf("limiter outage must not block the flow: %v", err)
	}
}
