package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/tracktoid/internal/platform/preferences"
	"github.com/phrazzld/tracktoid/internal/redact"
	"github.com/phrazzld/tracktoid/internal/store"
)

// NotificationChannel is the channel the preferences trigger publishes on.
// Payloads have the form "<origin>:<key>".
const NotificationChannel = "preferences_changed"

// PreferenceStore implements store.PreferenceStore on the preferences table.
type PreferenceStore struct {
	db     store.DBTX
	origin string
	logger *slog.Logger

	subscribers preferences.Subscribers
}

// NewPreferenceStore creates a PreferenceStore. Each store tags its writes
// with a random origin so Listen can skip the echo of its own changes.
func NewPreferenceStore(db store.DBTX, logger *slog.Logger) *PreferenceStore {
	return &PreferenceStore{
		db:     db,
		origin: uuid.NewString(),
		logger: logger.With("component", "postgres_preference_store"),
	}
}

// GetString implements store.PreferenceStore.
func (s *PreferenceStore) GetString(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Error("failed to read preference", "key", key, "error", err)
		return "", false, store.NewStoreError("preference", "get",
			fmt.Sprintf("cannot read key %q", key), MapError(err))
	}
	return value, true, nil
}

// GetBool implements store.PreferenceStore.
func (s *PreferenceStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	raw, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return false, ok, err
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, true, store.NewStoreError("preference", "get",
			fmt.Sprintf("key %q does not hold a boolean", key), store.ErrInvalidValue)
	}
	return value, true, nil
}

// SetString implements store.PreferenceStore.
func (s *PreferenceStore) SetString(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = NOW()
	`, key, value, s.origin)
	if err != nil {
		s.logger.Error("failed to write preference", "key", key, "error", err)
		return store.NewStoreError("preference", "set",
			fmt.Sprintf("cannot write key %q", key), MapError(err))
	}

	s.subscribers.Notify(key)
	return nil
}

// SetBool implements store.PreferenceStore.
func (s *PreferenceStore) SetBool(ctx context.Context, key string, value bool) error {
	return s.SetString(ctx, key, strconv.FormatBool(value))
}

// Subscribe implements store.PreferenceStore.
func (s *PreferenceStore) Subscribe(fn func(key string)) func() {
	return s.subscribers.Add(fn)
}

// Listen holds a dedicated connection on NotificationChannel and forwards
// changes made by other writers to subscribers. It blocks until ctx is
// cancelled, which is not reported as an error.
func (s *PreferenceStore) Listen(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open listen connection: %s", redact.Error(err))
	}
	defer func() {
		if closeErr := conn.Close(context.Background()); closeErr != nil {
			s.logger.Warn("failed to close listen connection", "error", closeErr)
		}
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+NotificationChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", NotificationChannel, err)
	}
	s.logger.Info("listening for preference changes", "channel", NotificationChannel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed waiting for notification: %w", err)
		}

		origin, key, ok := parsePayload(n.Payload)
		if !ok {
			s.logger.Warn("ignoring malformed preference notification", "payload", n.Payload)
			continue
		}
		if origin == s.origin {
			continue
		}
		s.logger.Debug("preference changed by another writer", "key", key)
		s.subscribers.Notify(key)
	}
}

// parsePayload splits "<origin>:<key>". Origins never contain a colon, keys
// may.
func parsePayload(payload string) (origin, key string, ok bool) {
	origin, key, ok = strings.Cut(payload, ":")
	if !ok || key == "" {
		return "", "", false
	}
	return origin, key, true
}

var _ store.PreferenceStore = (*PreferenceStore)(nil)
