// Package localstore is the fallback directory backend: one JSON document on
// local disk, used only while the primary durable store is unreachable.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/peoplehub/identity-system/internal/core/domain"
)

// document is the entire store: accounts keyed by email, invitations keyed
// by ID. Every write rewrites the whole document.
type document struct {
	Accounts    map[string]*domain.UserAccount `json:"accounts"`
	Invitations map[string]*domain.Invitation  `json:"invitations"`
}

// Store implements ports.DirectoryRepository over a single JSON file.
// Open performs the one-time bootstrap synchronously, so a returned handle
// is always ready; the mutex serializes the read-modify-write cycles of
// concurrent callers within this process.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open creates the backing file (and its directory) when missing and
// validates that an existing file parses. There is no lazy initialization:
// a non-nil Store has already bootstrapped.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("localstore: create directory: %w", err)
	}

	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(emptyDocument()); err != nil {
			return nil, err
		}
		return s, nil
	}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func emptyDocument() *document {
	return &document{
		Accounts:    map[string]*domain.UserAccount{},
		Invitations: map[string]*domain.Invitation{},
	}
}

func (s *Store) read() (*document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("localstore: read %s: %w", s.path, err)
	}
	doc := emptyDocument()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("localstore: parse %s: %w", s.path, err)
		}
	}
	if doc.Accounts == nil {
		doc.Accounts = map[string]*domain.UserAccount{}
	}
	if doc.Invitations == nil {
		doc.Invitations = map[string]*domain.Invitation{}
	}
	return doc, nil
}

// write replaces the document atomically via a rename.
func (s *Store) write(doc *document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: encode: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("localstore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("localstore: replace %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) GetAccount(_ context.Context, email string) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	account, ok := doc.Accounts[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return account, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]*domain.UserAccount, 0, len(doc.Accounts))
	for _, a := range doc.Accounts {
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) PutAccount(_ context.Context, account *domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Accounts[account.ID] = account
	return s.write(doc)
}

func (s *Store) DeleteAccount(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Accounts[email]; !ok {
		return domain.ErrUserNotFound
	}
	delete(doc.Accounts, email)
	return s.write(doc)
}

func (s *Store) GetInvitation(_ context.Context, id string) (*domain.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	invite, ok := doc.Invitations[id]
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	return invite, nil
}

func (s *Store) FindInvitationByToken(_ context.Context, token string) (*domain.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, invite := range doc.Invitations {
		if invite.Token == token {
			return invite, nil
		}
	}
	return nil, domain.ErrInviteNotFound
}

func (s *Store) ListInvitationsByEmail(_ context.Context, email string) ([]*domain.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	out := []*domain.Invitation{}
	for _, invite := range doc.Invitations {
		if invite.Email == email {
			out = append(out, invite)
		}
	}
	return out, nil
}

func (s *Store) PutInvitation(_ context.Context, invite *domain.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Invitations[invite.ID] = invite
	return s.write(doc)
}

func (s *Store) DeleteInvitationsByEmail(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return 0, err
	}
	n := 0
	for id, invite := range doc.Invitations {
		if invite.Email == email {
			delete(doc.Invitations, id)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.write(doc)
}
