package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/peoplehub/identity-system/internal/core/domain"
	"github.com/peoplehub/identity-system/internal/core/ports"
	"github.com/peoplehub/identity-system/internal/pkg/secrets"
)

// OTPRateLimiter bounds how often a given email may request a fresh OTP.
// The limiter is advisory infrastructure (Redis): an error from Allow is
// logged and ignored, a denial maps to the cooldown business error.
type OTPRateLimiter interface {
	Allow(ctx context.Context, email string) (bool, error)
}

// SessionSync pushes the current session version to the edge's revocation
// cache. Failures are logged and ignored: the stored sessionVersion remains
// the source of truth and the edge re-checks it.
type SessionSync interface {
	SyncSessionVersion(ctx context.Context, email string, version int) error
}

// BootstrapAccount is an account materialized from configuration rather than
// from an invitation.
type BootstrapAccount struct {
	Email string
	Role  string
}

// Settings are the immutable tunables of the directory core. Zero values are
// replaced with the documented defaults at construction time.
type Settings struct {
	DefaultCountryCode string
	Roles              []string
	Bootstrap          []BootstrapAccount
	LegacySeeds        []string

	InviteTTL         time.Duration
	OTPTTL            time.Duration
	OTPResendCooldown time.Duration
	OTPMaxAttempts    int
	MFAChallengeTTL   time.Duration
	RetentionYears    int
}

func (s *Settings) applyDefaults() {
	if s.InviteTTL <= 0 {
		s.InviteTTL = 7 * 24 * time.Hour
	}
	if s.OTPTTL <= 0 {
		s.OTPTTL = 300 * time.Second
	}
	if s.OTPResendCooldown <= 0 {
		s.OTPResendCooldown = 60 * time.Second
	}
	if s.OTPMaxAttempts <= 0 {
		s.OTPMaxAttempts = 5
	}
	if s.MFAChallengeTTL <= 0 {
		s.MFAChallengeTTL = 600 * time.Second
	}
	if s.RetentionYears <= 0 {
		s.RetentionYears = 5
	}
	if len(s.Roles) == 0 {
		s.Roles = []string{"Admin", "HR", "Manager", "Employee"}
	}
}

// Directory implements ports.DirectoryService on top of a
// DirectoryRepository.
type Directory struct {
	repo     ports.DirectoryRepository
	prep     []ports.DirectoryRepository
	hasher   *secrets.Hasher
	limiter  OTPRateLimiter
	sessions SessionSync
	cfg      Settings
	log      zerolog.Logger
	now      func() time.Time
}

// NewDirectory returns a DirectoryService implementation. limiter and
// sessions may be nil; the corresponding concerns are then skipped.
func NewDirectory(
	repo ports.DirectoryRepository,
	hasher *secrets.Hasher,
	limiter OTPRateLimiter,
	sessions SessionSync,
	cfg Settings,
	log zerolog.Logger,
) *Directory {
	cfg.applyDefaults()
	return &Directory{
		repo:     repo,
		hasher:   hasher,
		limiter:  limiter,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// WithPreparationBackends makes PrepareDirectory sweep the given backends
// individually instead of the failover view, so legacy seeds are pruned and
// bootstrap accounts ensured on the primary and the fallback alike.
func (s *Directory) WithPreparationBackends(backends ...ports.DirectoryRepository) *Directory {
	s.prep = backends
	return s
}

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// normalizeEmail lowercases and trims; the result is the account ID.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Directory) validRole(role string) bool {
	for _, r := range s.cfg.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// bumpSession increments the session version and best-effort propagates it
// to the edge revocation cache. Call only after the semantic value actually
// changed.
func (s *Directory) bumpSession(ctx context.Context, account *domain.UserAccount) {
	account.SessionVersion++
	if s.sessions == nil {
		return
	}
	if err := s.sessions.SyncSessionVersion(ctx, account.Email, account.SessionVersion); err != nil {
		s.log.Warn().Err(err).Str("email", account.Email).Msg("session version sync failed, continuing")
	}
}

// ListAccounts returns the public view of every account, sorted by email.
func (s *Directory) ListAccounts(ctx context.Context) ([]*ports.AccountView, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Email < accounts[j].Email })

	views := make([]*ports.AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountView(a))
	}
	return views, nil
}

// GetAccountForLogin resolves an account for the edge session layer. Status
// and session version come back in the view; the edge decides admission.
func (s *Directory) GetAccountForLogin(ctx context.Context, email string) (*ports.AccountView, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, domain.ErrInvalidEmail
	}
	account, err := s.repo.GetAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	return accountView(account), nil
}

// MarkLogin records a successful login without touching the session version.
func (s *Directory) MarkLogin(ctx context.Context, email string) error {
	account, err := s.repo.GetAccount(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	now := s.now()
	account.LastLoginAt = &now
	account.UpdatedAt = now
	return s.repo.PutAccount(ctx, account)
}

// UpdateProfile edits the display fields. Profile changes never invalidate
// sessions.
func (s *Directory) UpdateProfile(ctx context.Context, userID string, update ports.ProfileUpdate) (*ports.AccountView, error) {
	account, err := s.repo.GetAccount(ctx, normalizeEmail(userID))
	if err != nil {
		return nil, err
	}
	if update.FirstName != nil {
		account.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		account.LastName = *update.LastName
	}
	if update.PhotoURL != nil {
		account.PhotoURL = *update.PhotoURL
	}
	account.UpdatedAt = s.now()
	if err := s.repo.PutAccount(ctx, account); err != nil {
		return nil, err
	}
	return accountView(account), nil
}

// SetStatus transitions the account status, bumping the session version only
// when the status actually changed. Archived accounts stay disabled, and an
// account can only go active once a verification timestamp exists.
func (s *Directory) SetStatus(ctx context.Context, userID string, status domain.AccountStatus) (*ports.AccountView, error) {
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	account, err := s.repo.GetAccount(ctx, normalizeEmail(userID))
	if err != nil {
		return nil, err
	}
	if account.IsArchived && status != domain.StatusDisabled {
		return nil, domain.ErrInvalidStatus
	}
	if status == domain.StatusActive && account.EmailVerifiedAt == nil && account.PhoneVerifiedAt == nil {
		return nil, domain.ErrInvalidStatus
	}

	if account.Status != status {
		account.Status = status
		s.bumpSession(ctx, account)
		account.UpdatedAt = s.now()
		if err := s.repo.PutAccount(ctx, account); err != nil {
			return nil, err
		}
	}
	return accountView(account), nil
}

// SetRole assigns a role from the configured catalog, bumping the session
// version only on an actual change.
func (s *Directory) SetRole(ctx context.Context, userID, role string) (*ports.AccountView, error) {
	if !s.validRole(role) {
		return nil, domain.ErrInvalidRole
	}
	account, err := s.repo.GetAccount(ctx, normalizeEmail(userID))
	if err != nil {
		return nil, err
	}

	if account.Role != role {
		account.Role = role
		s.bumpSession(ctx, account)
		account.UpdatedAt = s.now()
		if err := s.repo.PutAccount(ctx, account); err != nil {
			return nil, err
		}
	}
	return accountView(account), nil
}

// RevokeSessions unconditionally invalidates every outstanding session for
// the account.
func (s *Directory) RevokeSessions(ctx context.Context, userID string) (*ports.AccountView, error) {
	account, err := s.repo.GetAccount(ctx, normalizeEmail(userID))
	if err != nil {
		return nil, err
	}
	s.bumpSession(ctx, account)
	account.UpdatedAt = s.now()
	if err := s.repo.PutAccount(ctx, account); err != nil {
		return nil, err
	}
	return accountView(account), nil
}
