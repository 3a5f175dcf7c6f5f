package service

import (
	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
	"github.com/peoplehub/identity-system/internal/pkg/secrets"
)

// accountView projects an account into its public shape. Hashes, the MFA
// challenge state, and every other stored secret stay behind.
func accountView(a *domain.UserAccount) *ports.AccountView {
	return &ports.AccountView{
		ID:                 a.ID,
		Email:              a.Email,
		FirstName:          a.FirstName,
		LastName:           a.LastName,
		PhotoURL:           a.PhotoURL,
		Role:               a.Role,
		Status:             a.Status,
		SessionVersion:     a.SessionVersion,
		EmailVerifiedAt:    a.EmailVerifiedAt,
		PhoneVerifiedAt:    a.PhoneVerifiedAt,
		PhoneLast4:         a.PhoneLast4,
		VerificationMethod: a.VerificationMethod,
		IsArchived:         a.IsArchived,
		ArchivedAt:         a.ArchivedAt,
		ArchiveReason:      a.ArchiveReason,
		RetentionDeleteAt:  a.RetentionDeleteAt,
		InvitedBy:          a.InvitedBy,
		InvitedAt:          a.InvitedAt,
		ActivatedAt:        a.ActivatedAt,
		LastLoginAt:        a.LastLoginAt,
		Source:             a.Source,
		UpdatedAt:          a.UpdatedAt,
	}
}

// invitationView projects an invitation without its bearer token or hashes.
func invitationView(i *domain.Invitation) *ports.InvitationView {
	return &ports.InvitationView{
		ID:          i.ID,
		Email:       i.Email,
		EmailMasked: secrets.MaskEmail(i.Email),
		Role:        i.Role,
		InvitedBy:   i.InvitedBy,
		InvitedAt:   i.InvitedAt,
		ExpiresAt:   i.ExpiresAt,
		Status:      i.Status,
		PhoneMasked: i.Verification.PhoneMasked,
		PhoneLast4:  i.Verification.PhoneLast4,
		VerifiedAt:  i.Verification.VerifiedAt,
	}
}
