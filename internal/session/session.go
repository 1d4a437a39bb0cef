package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotLoggedIn is returned when an operation needs credentials but the session is empty.
var ErrNotLoggedIn = errors.New("not logged in")

// User is the account snapshot returned by the login endpoint.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Session holds the credentials shared by the api client and the commands.
// It is populated on login and cleared on logout or when the refresh token is rejected.
type Session struct {
	mu      sync.RWMutex
	path    string
	access  string
	refresh string
	user    *User
}

type persisted struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user,omitempty"`
}

// New returns an empty session backed by path. An empty path keeps the session in memory only.
func New(path string) *Session {
	return &Session{path: strings.TrimSpace(path)}
}

// Load reads a session from path. A missing or empty file yields an empty session.
func Load(path string) (*Session, error) {
	s := New(path)
	if s.path == "" {
		return s, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading session file %q: %w", s.path, err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing session file %q: %w", s.path, err)
	}

	s.access = p.Access
	s.refresh = p.Refresh
	s.user = p.User

	return s, nil
}

// Populate stores the credentials obtained on login.
func (s *Session) Populate(access, refresh string, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = strings.TrimSpace(access)
	s.refresh = strings.TrimSpace(refresh)
	s.user = user
}

// SetAccess replaces the access token after a refresh.
func (s *Session) SetAccess(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = strings.TrimSpace(access)
}

func (s *Session) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Session) Refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Path() string {
	return s.path
}

func (s *Session) LoggedIn() bool {
	return s.Access() != ""
}

// Clear drops the credentials and removes the backing file.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.user = nil
	path := s.path
	s.mu.Unlock()

	if path == "" {
		return nil
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file %q: %w", path, err)
	}

	return nil
}

// Save writes the session to its file with owner-only permissions.
func (s *Session) Save() error {
	s.mu.RLock()
	p := persisted{Access: s.access, Refresh: s.refresh, User: s.user}
	path := s.path
	s.mu.RUnlock()

	if path == "" {
		return nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating session directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file %q: %w", path, err)
	}

	return nil
}

// ExpiresAt reads the exp claim of the access token.
// The signature is not verified: the client never holds the signing key.
func (s *Session) ExpiresAt() (time.Time, bool) {
	token := s.Access()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// Expired reports whether the access token is past its exp claim at now.
// Tokens without a readable exp claim are treated as not expired.
func (s *Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Before(exp)
}
