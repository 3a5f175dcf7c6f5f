package service

import (
	"context"
	"errors"

	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
)

// PrepareDirectory runs the startup pass over every configured backend:
// legacy seed accounts are pruned, then bootstrap accounts are created where
// absent. Bootstrap creation never overwrites an existing record. Failures
// on one backend do not stop the sweep of the others.
func (s *Directory) PrepareDirectory(ctx context.Context) error {
	backends := s.prep
	if len(backends) == 0 {
		backends = []ports.DirectoryRepository{s.repo}
	}

	var errs []error
	for _, backend := range backends {
		if err := s.prepareBackend(ctx, backend); err != nil {
			s.log.Warn().Err(err).Msg("directory preparation pass failed on backend")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Directory) prepareBackend(ctx context.Context, repo ports.DirectoryRepository) error {
	var errs []error

	for _, seed := range s.cfg.LegacySeeds {
		email := normalizeEmail(seed)
		if email == "" {
			continue
		}
		if err := repo.DeleteAccount(ctx, email); err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			errs = append(errs, err)
			continue
		}
		if _, err := repo.DeleteInvitationsByEmail(ctx, email); err != nil {
			errs = append(errs, err)
		}
	}

	now := s.now()
	for _, boot := range s.cfg.Bootstrap {
		email := normalizeEmail(boot.Email)
		if !emailPattern.MatchString(email) || !s.validRole(boot.Role) {
			s.log.Warn().Str("email", email).Str("role", boot.Role).Msg("skipping malformed bootstrap account")
			continue
		}

		_, err := repo.GetAccount(ctx, email)
		if err == nil {
			continue // existing record wins
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			errs = append(errs, err)
			continue
		}

		verifiedAt := now
		account := &domain.UserAccount{
			ID:              email,
			Email:           email,
			Role:            boot.Role,
			Status:          domain.StatusActive,
			SessionVersion:  1,
			EmailVerifiedAt: &verifiedAt,
			ActivatedAt:     &verifiedAt,
			Source:          domain.SourceBootstrap,
			UpdatedAt:       now,
		}
		if err := repo.PutAccount(ctx, account); err != nil {
			errs = append(errs, err)
			continue
		}
		s.log.Info().Str("email", email).Str("role", boot.Role).Msg("bootstrap account created")
	}

	return errors.Join(errs...)
}
