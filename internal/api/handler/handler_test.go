package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
)

// stubDirectory implements ports.DirectoryService with per-method function
// fields; unset methods fail the test if called.
type stubDirectory struct {
	t *testing.T

	invite       func(ctx context.Context, email, role, invitedBy string) (*ports.InviteCreated, error)
	revokeInvite func(ctx context.Context, id string) (*ports.InvitationView, error)
	getInvite    func(ctx context.Context, token string) (*ports.InvitationView, error)
	verifyEmail  func(ctx context.Context, token string) (*ports.AccountView, error)
	smsStart     func(ctx context.Context, token, phone string) (*ports.SMSStart, error)
	smsComplete  func(ctx context.Context, token, otp string) (*ports.AccountView, error)
	challenge    func(ctx context.Context, email string) (*ports.ChallengeIssued, error)
	list         func(ctx context.Context) ([]*ports.AccountView, error)
	setStatus    func(ctx context.Context, id string, status domain.AccountStatus) (*ports.AccountView, error)
	archive      func(ctx context.Context, id, by, reason string, at *time.Time) (*ports.AccountView, error)
	purge        func(ctx context.Context, now time.Time) (*ports.PurgeResult, error)
}

func (s *stubDirectory) unexpected(name string) {
	s.t.Helper()
	s.t.Fatalf("unexpected call to %s", name)
}

func (s *stubDirectory) PrepareDirectory(context.Context) error {
	s.unexpected("PrepareDirectory")
	return nil
}

func (s *stubDirectory) ListAccounts(ctx context.Context) ([]*ports.AccountView, error) {
	if s.list == nil {
		s.unexpected("ListAccounts")
	}
	return s.list(ctx)
}

func (s *stubDirectory) GetAccountForLogin(context.Context, string) (*ports.AccountView, error) {
	s.unexpected("GetAccountForLogin")
	return nil, nil
}

func (s *stubDirectory) MarkLogin(context.Context, string) error {
	s.unexpected("MarkLogin")
	return nil
}

func (s *stubDirectory) UpdateProfile(context.Context, string, ports.ProfileUpdate) (*ports.AccountView, error) {
	s.unexpected("UpdateProfile")
	return nil, nil
}

func (s *stubDirectory) Invite(ctx context.Context, email, role, invitedBy string) (*ports.InviteCreated, error) {
	if s.invite == nil {
		s.unexpected("Invite")
	}
	return s.invite(ctx, email, role, invitedBy)
}

func (s *stubDirectory) RevokeInvite(ctx context.Context, id string) (*ports.InvitationView, error) {
	if s.revokeInvite == nil {
		s.unexpected("RevokeInvite")
	}
	return s.revokeInvite(ctx, id)
}

func (s *stubDirectory) GetInviteForOpening(ctx context.Context, token string) (*ports.InvitationView, error) {
	if s.getInvite == nil {
		s.unexpected("GetInviteForOpening")
	}
	return s.getInvite(ctx, token)
}

func (s *stubDirectory) VerifyInviteEmail(ctx context.Context, token string) (*ports.AccountView, error) {
	if s.verifyEmail == nil {
		s.unexpected("VerifyInviteEmail")
	}
	return s.verifyEmail(ctx, token)
}

func (s *stubDirectory) StartInviteSmsVerification(ctx context.Context, token, phone string) (*ports.SMSStart, error) {
	if s.smsStart == nil {
		s.unexpected("StartInviteSmsVerification")
	}
	return s.smsStart(ctx, token, phone)
}

func (s *stubDirectory) CompleteInviteSmsVerification(ctx context.Context, token, otp string) (*ports.AccountView, error) {
	if s.smsComplete == nil {
		s.unexpected("CompleteInviteSmsVerification")
	}
	return s.smsComplete(ctx, token, otp)
}

func (s *stubDirectory) CreateLoginMfaChallenge(ctx context.Context, email string) (*ports.ChallengeIssued, error) {
	if s.challenge == nil {
		s.unexpected("CreateLoginMfaChallenge")
	}
	return s.challenge(ctx, email)
}

func (s *stubDirectory) StartLoginSmsVerification(context.Context, string, string, string) (*ports.SMSStart, error) {
	s.unexpected("StartLoginSmsVerification")
	return nil, nil
}

func (s *stubDirectory) CompleteLoginSmsVerification(context.Context, string, string, string) (*ports.AccountView, error) {
	s.unexpected("CompleteLoginSmsVerification")
	return nil, nil
}

func (s *stubDirectory) RevokeSessions(context.Context, string) (*ports.AccountView, error) {
	s.unexpected("RevokeSessions")
	return nil, nil
}

func (s *stubDirectory) SetStatus(ctx context.Context, id string, status domain.AccountStatus) (*ports.AccountView, error) {
	if s.setStatus == nil {
		s.unexpected("SetStatus")
	}
	return s.setStatus(ctx, id, status)
}

func (s *stubDirectory) SetRole(context.Context, string, string) (*ports.AccountView, error) {
	s.unexpected("SetRole")
	return nil, nil
}

func (s *stubDirectory) Archive(ctx context.Context, id, by, reason string, at *time.Time) (*ports.AccountView, error) {
	if s.archive == nil {
		s.unexpected("Archive")
	}
	return s.archive(ctx, id, by, reason, at)
}

func (s *stubDirectory) PurgeDue(ctx context.Context, now time.Time) (*ports.PurgeResult, error) {
	if s.purge == nil {
		s.unexpected("PurgeDue")
	}
	return s.purge(ctx, now)
}

func newContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asAdmin(c echo.Context) {
	c.Set("email", "boss@example.com")
	c.Set("role", "Admin")
}
