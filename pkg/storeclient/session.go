package storeclient

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// UserSnapshot is the authenticated identity as last reported by the
// server. It is replaced wholesale on every auth response, never patched.
type UserSnapshot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

func (u UserSnapshot) IsAdmin() bool { return u.Role == "admin" }

// Credentials is the only session state that survives a restart: the
// access token and the serialized user snapshot.
type Credentials struct {
	Token string        `json:"token"`
	User  *UserSnapshot `json:"user,omitempty"`
}

// CredentialStore persists credentials across process restarts.
type CredentialStore interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// FileCredentialStore keeps credentials in a JSON file, the CLI analogue
// of browser local storage.
type FileCredentialStore struct {
	path string
}

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Load() (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	return creds, nil
}

func (s *FileCredentialStore) Save(creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *FileCredentialStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// MemCredentialStore holds credentials in memory; handy for tests and for
// callers that do not want persistence.
type MemCredentialStore struct {
	mu    sync.Mutex
	creds Credentials
}

func (s *MemCredentialStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *MemCredentialStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

func (s *MemCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}

// SessionState tracks resolution of the persisted session at startup.
type SessionState int

const (
	SessionUnresolved SessionState = iota
	SessionValidating
	SessionAuthenticated
	SessionUnauthenticated
)

// Session owns the current user snapshot and access token. All access goes
// through the mutex so the gateway's refresh path and callers on other
// goroutines observe a consistent pair.
type Session struct {
	mu       sync.Mutex
	user     *UserSnapshot
	token    string
	state    SessionState
	gen      uint64
	checking bool
	store    CredentialStore
}

func newSession(store CredentialStore) *Session {
	return &Session{store: store, state: SessionUnresolved}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns a copy of the current snapshot, nil when unauthenticated.
func (s *Session) User() *UserSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.token != ""
}

// generation identifies the current ownership of the session's state;
// set and clear both advance it.
func (s *Session) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// set replaces user and token atomically and persists them.
func (s *Session) set(user *UserSnapshot, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.user = user
	s.token = token
	s.state = SessionAuthenticated
	_ = s.store.Save(Credentials{Token: token, User: user})
}

// setToken installs a refreshed access token, but only when the session
// still has the generation observed when the refresh began. A logout or a
// new login that landed mid-refresh wins: the stale token is discarded and
// never re-persisted.
func (s *Session) setToken(token string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.token = token
	_ = s.store.Save(Credentials{Token: token, User: s.user})
	return true
}

// clear is idempotent; it drops memory and persisted state.
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.user = nil
	s.token = ""
	s.state = SessionUnauthenticated
	_ = s.store.Clear()
}

// beginChecking flips the validating guard; a false return means another
// resolution is already in flight and this call must be ignored.
func (s *Session) beginChecking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checking {
		return false
	}
	s.checking = true
	return true
}

func (s *Session) endChecking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checking = false
}
