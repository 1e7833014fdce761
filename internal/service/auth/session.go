package auth

import (
	"log/slog"
	"sync"

	"github.com/phrazzld/tracktoid/internal/domain"
)

// Authenticator receives the credentials used for Trakt requests. It is
// called every time the stored credentials change.
type Authenticator interface {
	SetAuthentication(username, passwordHash string)
}

// Session holds the API key and current credentials for the remote client.
type Session struct {
	mu     sync.RWMutex
	apiKey string
	creds  domain.Credentials
	logger *slog.Logger
}

// NewSession creates a Session bound to apiKey.
func NewSession(apiKey string, logger *slog.Logger) *Session {
	return &Session{
		apiKey: apiKey,
		logger: logger.With("component", "trakt_session"),
	}
}

// SetAuthentication implements Authenticator.
func (s *Session) SetAuthentication(username, passwordHash string) {
	s.mu.Lock()
	s.creds = domain.Credentials{Username: username, PasswordHash: passwordHash}
	s.mu.Unlock()

	s.logger.Info("authentication updated", "username", username)
}

// APIKey returns the key the session was created with.
func (s *Session) APIKey() string {
	return s.apiKey
}

// Credentials returns the last pushed credentials.
func (s *Session) Credentials() domain.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Authenticated reports whether usable credentials have been pushed.
func (s *Session) Authenticated() bool {
	return s.Credentials().Validate() == nil
}

var _ Authenticator = (*Session)(nil)
