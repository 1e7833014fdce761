package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/phrazzld/tracktoid/internal/domain"
	"github.com/phrazzld/tracktoid/internal/store"
)

// Preference keys read by CredentialBinding.
const (
	KeyUsername         = "username"
	KeyPassword         = "password"
	KeyPasswordIsHashed = "passwordIsHashed"
)

// DefaultCredentialValue is used for a username or password that is absent
// from the store.
const DefaultCredentialValue = "test1"

// Option configures a CredentialBinding.
type Option func(*CredentialBinding)

// WithLocker makes the binding serialize its read-modify-write cycles on l
// instead of a private mutex.
func WithLocker(l sync.Locker) Option {
	return func(b *CredentialBinding) {
		if l != nil {
			b.mu = l
		}
	}
}

// CredentialBinding keeps the authenticator in step with the credentials in
// a preference store.
//
// The first load migrates a plaintext password to its hash and records the
// migration in KeyPasswordIsHashed. After that every change notification for
// the username or password re-reads that field and pushes the full pair.
type CredentialBinding struct {
	mu     sync.Locker
	store  store.PreferenceStore
	authn  Authenticator
	hasher PasswordHasher
	logger *slog.Logger

	ctx         context.Context
	creds       domain.Credentials
	loaded      bool
	unsubscribe func()

	// migrating is set while the binding writes the migrated password, so the
	// synchronous echo of that write is not handled under the held lock.
	migrating atomic.Bool
}

// NewCredentialBinding creates a binding. Nothing is read until LoadInitial.
func NewCredentialBinding(
	st store.PreferenceStore,
	authn Authenticator,
	hasher PasswordHasher,
	logger *slog.Logger,
	opts ...Option,
) (*CredentialBinding, error) {
	if st == nil {
		return nil, ErrNilStore
	}
	if authn == nil {
		return nil, ErrNilAuthenticator
	}
	if hasher == nil {
		return nil, ErrNilHasher
	}

	b := &CredentialBinding{
		mu:     &sync.Mutex{},
		store:  st,
		authn:  authn,
		hasher: hasher,
		logger: logger.With("component", "credential_binding"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// LoadInitial reads the credentials, migrates an unhashed password, pushes
// the pair to the authenticator and subscribes to store changes. Calling it
// again re-reads the store but never subscribes twice. ctx is kept for
// reads triggered by later change notifications.
func (b *CredentialBinding) LoadInitial(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	username, err := b.readString(ctx, KeyUsername)
	if err != nil {
		return err
	}
	password, err := b.readString(ctx, KeyPassword)
	if err != nil {
		return err
	}

	hashed, _, err := b.store.GetBool(ctx, KeyPasswordIsHashed)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", KeyPasswordIsHashed, err)
	}
	if !hashed {
		password, err = b.migrate(ctx, password)
		if err != nil {
			return err
		}
		// Changes made while migrating were not handled.
		username, err = b.readString(ctx, KeyUsername)
		if err != nil {
			return err
		}
	}

	b.ctx = ctx
	b.creds = domain.Credentials{Username: username, PasswordHash: password}
	b.loaded = true
	b.push()

	if b.unsubscribe == nil {
		b.unsubscribe = b.store.Subscribe(b.handleChange)
	}

	return nil
}

// migrate must be called with mu held.
func (b *CredentialBinding) migrate(ctx context.Context, plaintext string) (string, error) {
	hash, err := b.hasher.Hash(plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to hash stored password: %w", err)
	}

	b.migrating.Store(true)
	defer b.migrating.Store(false)

	if err := b.store.SetString(ctx, KeyPassword, hash); err != nil {
		return "", fmt.Errorf("failed to store hashed password: %w", err)
	}
	if err := b.store.SetBool(ctx, KeyPasswordIsHashed, true); err != nil {
		// Without the flag the next load would hash the hash.
		if restoreErr := b.store.SetString(ctx, KeyPassword, plaintext); restoreErr != nil {
			b.logger.Error("failed to restore plaintext password after failed migration",
				"error", restoreErr)
			return "", fmt.Errorf("failed to record password migration: %w",
				errors.Join(err, restoreErr))
		}
		return "", fmt.Errorf("failed to record password migration: %w", err)
	}

	b.logger.Info("migrated stored password to hashed form")
	return hash, nil
}

func (b *CredentialBinding) handleChange(key string) {
	if b.migrating.Load() {
		return
	}

	b.mu.Lock()
	ctx := b.ctx
	b.mu.Unlock()

	b.OnConfigChanged(ctx, key)
}

// OnConfigChanged re-reads the field named by key and pushes the updated
// pair. Keys other than the username and password are ignored. Stores may
// fold keys to lower case, so the comparison ignores case.
func (b *CredentialBinding) OnConfigChanged(ctx context.Context, key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.loaded {
		b.logger.Debug("ignoring change before initial load", "key", key)
		return
	}

	switch {
	case strings.EqualFold(key, KeyUsername):
		username, err := b.readString(ctx, KeyUsername)
		if err != nil {
			b.logger.Error("failed to re-read username", "error", err)
			return
		}
		b.creds.Username = username
	case strings.EqualFold(key, KeyPassword):
		password, err := b.readString(ctx, KeyPassword)
		if err != nil {
			b.logger.Error("failed to re-read password", "error", err)
			return
		}
		b.creds.PasswordHash = password
	default:
		return
	}

	b.push()
}

// push must be called with mu held so pushes reach the authenticator in
// the order the changes were read.
func (b *CredentialBinding) push() {
	b.authn.SetAuthentication(b.creds.Username, b.creds.PasswordHash)
	b.logger.Debug("pushed credentials", "username", b.creds.Username)
}

func (b *CredentialBinding) readString(ctx context.Context, key string) (string, error) {
	value, ok, err := b.store.GetString(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return DefaultCredentialValue, nil
	}
	return strings.TrimSpace(value), nil
}

// Credentials returns the current pair.
func (b *CredentialBinding) Credentials() domain.Credentials {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.creds
}

// Username returns the current username.
func (b *CredentialBinding) Username() string {
	return b.Credentials().Username
}

// Close drops the store subscription. The binding keeps its last pair.
func (b *CredentialBinding) Close() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
