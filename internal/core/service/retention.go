package service

import (
	"context"
	"time"

	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
)

const defaultArchiveReason = "Resigned"

// Archive disables the account and stamps it with a retention deadline.
// The deadline is the later of the caller-provided value and
// archivedAt + retentionYears, so an operator can extend the window but
// never shorten it below policy.
func (s *Directory) Archive(ctx context.Context, userID, archivedBy, reason string, retentionDeleteAt *time.Time) (*ports.AccountView, error) {
	account, err := s.repo.GetAccount(ctx, normalizeEmail(userID))
	if err != nil {
		return nil, err
	}

	now := s.now()
	if reason == "" {
		reason = defaultArchiveReason
	}

	deleteAt := now.AddDate(s.cfg.RetentionYears, 0, 0)
	if retentionDeleteAt != nil && retentionDeleteAt.After(deleteAt) {
		deleteAt = *retentionDeleteAt
	}

	statusChanged := account.Status != domain.StatusDisabled
	account.Status = domain.StatusDisabled
	account.IsArchived = true
	account.ArchivedAt = &now
	account.ArchivedBy = archivedBy
	account.ArchiveReason = reason
	account.RetentionDeleteAt = &deleteAt
	account.UpdatedAt = now
	if statusChanged {
		s.bumpSession(ctx, account)
	}

	if err := s.repo.PutAccount(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("email", account.Email).
		Str("archived_by", archivedBy).
		Time("retention_delete_at", deleteAt).
		Msg("account archived")
	return accountView(account), nil
}

// PurgeDue hard-deletes every account whose retention window has elapsed,
// together with all invitations for its email. Archival is a precondition:
// an account with no archivedAt is never purged, whatever its retention
// timestamp says. This is the only hard delete in the subsystem.
func (s *Directory) PurgeDue(ctx context.Context, now time.Time) (*ports.PurgeResult, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	result := &ports.PurgeResult{Emails: []string{}}
	for _, account := range accounts {
		if account.ArchivedAt == nil || account.RetentionDeleteAt == nil {
			continue
		}
		if account.RetentionDeleteAt.After(now) {
			continue
		}

		if err := s.repo.DeleteAccount(ctx, account.Email); err != nil {
			return result, err
		}
		deleted, err := s.repo.DeleteInvitationsByEmail(ctx, account.Email)
		if err != nil {
			return result, err
		}

		result.AccountsPurged++
		result.InvitationsPurged += deleted
		result.Emails = append(result.Emails, account.Email)

		s.log.Info().
			Str("email", account.Email).
			Time("retention_delete_at", *account.RetentionDeleteAt).
			Msg("account purged")
	}

	return result, nil
}
