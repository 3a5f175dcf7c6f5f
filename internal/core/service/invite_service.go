package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
	"github.com/peoplehub/identity-system/internal/pkg/secrets"
)

// Invite issues a fresh invitation for email with the given role. Any prior
// invitation for that email still in a non-terminal state is revoked, and
// the account (created pending, or reset to pending when it already exists)
// gets its session version bumped: an invite always invalidates whatever
// session the email might already hold.
//
// The returned payload is the only place the invite token ever appears.
func (s *Directory) Invite(ctx context.Context, email, role, invitedBy string) (*ports.InviteCreated, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, domain.ErrInvalidEmail
	}
	if !s.validRole(role) {
		return nil, domain.ErrInvalidRole
	}

	now := s.now()

	// Supersede earlier invitations. Expired ones count: they are revoked
	// too so exactly one invitation per email is ever resolvable.
	prior, err := s.repo.ListInvitationsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, p := range prior {
		switch p.Status {
		case domain.InviteSent, domain.InviteOTPSent, domain.InviteExpired:
			p.Status = domain.InviteRevoked
			if err := s.repo.PutInvitation(ctx, p); err != nil {
				return nil, err
			}
		}
	}

	account, err := s.repo.GetAccount(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		account = &domain.UserAccount{
			ID:             email,
			Email:          email,
			SessionVersion: 1,
			Source:         domain.SourceInvite,
		}
	case err != nil:
		return nil, err
	default:
		s.bumpSession(ctx, account)
	}

	account.Role = role
	account.Status = domain.StatusPending
	account.EmailVerifiedAt = nil
	account.PhoneVerifiedAt = nil
	account.PhoneLast4 = ""
	account.PhoneHash = ""
	account.VerificationMethod = ""
	account.LoginMFA = nil
	account.ActivatedAt = nil
	account.IsArchived = false
	account.ArchivedAt = nil
	account.ArchivedBy = ""
	account.ArchiveReason = ""
	account.RetentionDeleteAt = nil
	account.InvitedBy = invitedBy
	account.InvitedAt = &now
	account.UpdatedAt = now

	token, err := secrets.NewToken()
	if err != nil {
		return nil, err
	}
	invite := &domain.Invitation{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      role,
		InvitedBy: invitedBy,
		InvitedAt: now,
		ExpiresAt: now.Add(s.cfg.InviteTTL),
		Token:     token,
		Status:    domain.InviteSent,
		Verification: domain.VerificationState{
			OTPMaxAttempts: s.cfg.OTPMaxAttempts,
		},
	}

	if err := s.repo.PutAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := s.repo.PutInvitation(ctx, invite); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("email", email).
		Str("role", role).
		Str("invited_by", invitedBy).
		Msg("invitation issued")

	return &ports.InviteCreated{
		Account:    accountView(account),
		Invitation: invitationView(invite),
		Token:      token,
	}, nil
}

// RevokeInvite marks the invitation revoked. Revoking an invitation that is
// already verified or revoked is a no-op that returns its terminal state.
func (s *Directory) RevokeInvite(ctx context.Context, inviteID string) (*ports.InvitationView, error) {
	invite, err := s.repo.GetInvitation(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	switch invite.Status {
	case domain.InviteVerified, domain.InviteRevoked:
		return invitationView(invite), nil
	}

	invite.Status = domain.InviteRevoked
	if err := s.repo.PutInvitation(ctx, invite); err != nil {
		return nil, err
	}
	return invitationView(invite), nil
}

// GetInviteForOpening resolves an invitation by its bearer token for the
// invite landing page. Lazy expiry applies: a past-due invitation is
// persisted as expired before it is returned.
func (s *Directory) GetInviteForOpening(ctx context.Context, token string) (*ports.InvitationView, error) {
	invite, err := s.resolveInviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return invitationView(invite), nil
}

// VerifyInviteEmail completes an invitation through the email link flow and
// activates the pending account.
func (s *Directory) VerifyInviteEmail(ctx context.Context, token string) (*ports.AccountView, error) {
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

	now := s.now()
	invite.Status = domain.InviteVerified
	invite.Verification.VerifiedAt = &now

	account.EmailVerifiedAt = &now
	account.VerificationMethod = domain.VerifyEmail
	s.activate(ctx, account, now)

	if err := s.repo.PutAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := s.repo.PutInvitation(ctx, invite); err != nil {
		return nil, err
	}

	s.log.Info().Str("email", account.Email).Msg("invite verified by email")
	return accountView(account), nil
}

// resolveInviteByToken looks an invitation up by token, persisting expiry
// when observed. The invitation comes back whatever its status; callers that
// need a usable one go through inviteUsable.
func (s *Directory) resolveInviteByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	if token == "" {
		return nil, domain.ErrInvalidInviteToken
	}
	invite, err := s.repo.FindInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !invite.Terminal() && s.now().After(invite.ExpiresAt) {
		invite.Status = domain.InviteExpired
		if err := s.repo.PutInvitation(ctx, invite); err != nil {
			return nil, err
		}
	}
	return invite, nil
}

// inviteUsable rejects invitations that can no longer carry a verification.
func inviteUsable(invite *domain.Invitation) error {
	switch invite.Status {
	case domain.InviteExpired:
		return domain.ErrInviteExpired
	case domain.InviteRevoked:
		return domain.ErrInviteRevoked
	case domain.InviteVerified:
		return domain.ErrInviteAlreadyVerified
	}
	return nil
}

// inviteAccount fetches the account an invitation targets.
func (s *Directory) inviteAccount(ctx context.Context, invite *domain.Invitation) (*domain.UserAccount, error) {
	account, err := s.repo.GetAccount(ctx, invite.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInviteUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if account.Status == domain.StatusDisabled {
		return nil, domain.ErrAccountDisabled
	}
	return account, nil
}

// activate flips a pending account to active. The status change invalidates
// any session issued against the pending state.
func (s *Directory) activate(ctx context.Context, account *domain.UserAccount, now time.Time) {
	if account.Status == domain.StatusActive {
		account.UpdatedAt = now
		return
	}
	account.Status = domain.StatusActive
	account.ActivatedAt = &now
	account.UpdatedAt = now
	s.bumpSession(ctx, account)
}
