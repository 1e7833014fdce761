package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/tracktoid/internal/domain"
	"github.com/phrazzld/tracktoid/internal/platform/preferences"
	"github.com/phrazzld/tracktoid/internal/service/auth"
	"github.com/phrazzld/tracktoid/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) SetAuthentication(username, passwordHash string) {
	m.Called(username, passwordHash)
}

// failingStore fails every read of failKey.
type failingStore struct {
	store.PreferenceStore
	failKey string
}

var errStoreDown = errors.New("store down")

func (s *failingStore) GetString(ctx context.Context, key string) (string, bool, error) {
	if key == s.failKey {
		return "", false, errStoreDown
	}
	return s.PreferenceStore.GetString(ctx, key)
}

// flakyWriteStore fails the numbered SetString calls in failSetString and
// the first failSetBool SetBool calls.
type flakyWriteStore struct {
	store.PreferenceStore

	mu             sync.Mutex
	setStringCalls int
	failSetString  map[int]bool
	failSetBool    int
}

var errWriteFailed = errors.New("write failed")

func (s *flakyWriteStore) SetString(ctx context.Context, key, value string) error {
	s.mu.Lock()
	s.setStringCalls++
	fail := s.failSetString[s.setStringCalls]
	s.mu.Unlock()

	if fail {
		return errWriteFailed
	}
	return s.PreferenceStore.SetString(ctx, key, value)
}

func (s *flakyWriteStore) SetBool(ctx context.Context, key string, value bool) error {
	s.mu.Lock()
	fail := s.failSetBool > 0
	if fail {
		s.failSetBool--
	}
	s.mu.Unlock()

	if fail {
		return errWriteFailed
	}
	return s.PreferenceStore.SetBool(ctx, key, value)
}

func sha1Of(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.NewSHA1Hasher().Hash(password)
	require.NoError(t, err)
	return hash
}

func newBinding(t *testing.T, st store.PreferenceStore, authn auth.Authenticator, opts ...auth.Option) *auth.CredentialBinding {
	t.Helper()
	b, err := auth.NewCredentialBinding(st, authn, auth.NewSHA1Hasher(),
		slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestNewCredentialBinding_RequiresCollaborators(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := preferences.NewMemoryStore(nil)
	authn := &mockAuthenticator{}
	hasher := auth.NewSHA1Hasher()

	_, err := auth.NewCredentialBinding(nil, authn, hasher, logger)
	assert.ErrorIs(t, err, auth.ErrNilStore)

	_, err = auth.NewCredentialBinding(st, nil, hasher, logger)
	assert.ErrorIs(t, err, auth.ErrNilAuthenticator)

	_, err = auth.NewCredentialBinding(st, authn, nil, logger)
	assert.ErrorIs(t, err, auth.ErrNilHasher)
}

func TestLoadInitial_MigratesPlaintextPassword(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername: "alice",
		auth.KeyPassword: "secret",
	})
	hash := sha1Of(t, "secret")

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "alice", hash).Once()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))

	stored, _, err := st.GetString(ctx, auth.KeyPassword)
	require.NoError(t, err)
	assert.Equal(t, hash, stored)

	flag, ok, err := st.GetBool(ctx, auth.KeyPasswordIsHashed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, flag)

	assert.Equal(t, domain.Credentials{Username: "alice", PasswordHash: hash}, b.Credentials())
	authn.AssertExpectations(t)
}

func TestLoadInitial_MigrationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername: "alice",
		auth.KeyPassword: "secret",
	})
	hash := sha1Of(t, "secret")

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "alice", hash).Twice()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))
	require.NoError(t, b.LoadInitial(ctx))

	stored, _, err := st.GetString(ctx, auth.KeyPassword)
	require.NoError(t, err)
	assert.Equal(t, hash, stored, "a hashed password is never hashed again")
	authn.AssertExpectations(t)
}

func TestLoadInitial_MigrationWriteFailures(t *testing.T) {
	t.Run("flag write failure restores plaintext and a retry hashes once", func(t *testing.T) {
		ctx := context.Background()
		mem := preferences.NewMemoryStore(map[string]string{
			auth.KeyUsername: "alice",
			auth.KeyPassword: "abc",
		})
		st := &flakyWriteStore{PreferenceStore: mem, failSetBool: 1}
		hash := sha1Of(t, "abc")

		authn := &mockAuthenticator{}
		authn.On("SetAuthentication", "alice", hash).Once()

		b := newBinding(t, st, authn)
		err := b.LoadInitial(ctx)
		require.ErrorIs(t, err, errWriteFailed)

		stored, _, err := mem.GetString(ctx, auth.KeyPassword)
		require.NoError(t, err)
		assert.Equal(t, "abc", stored, "plaintext is put back when the flag cannot be recorded")

		require.NoError(t, b.LoadInitial(ctx))

		stored, _, err = mem.GetString(ctx, auth.KeyPassword)
		require.NoError(t, err)
		assert.Equal(t, hash, stored)
		assert.NotEqual(t, sha1Of(t, hash), stored)

		flag, _, err := mem.GetBool(ctx, auth.KeyPasswordIsHashed)
		require.NoError(t, err)
		assert.True(t, flag)
		authn.AssertExpectations(t)
	})

	t.Run("password write failure leaves the store untouched", func(t *testing.T) {
		ctx := context.Background()
		mem := preferences.NewMemoryStore(map[string]string{
			auth.KeyUsername: "alice",
			auth.KeyPassword: "abc",
		})
		st := &flakyWriteStore{PreferenceStore: mem, failSetString: map[int]bool{1: true}}
		hash := sha1Of(t, "abc")

		authn := &mockAuthenticator{}
		authn.On("SetAuthentication", "alice", hash).Once()

		b := newBinding(t, st, authn)
		require.ErrorIs(t, b.LoadInitial(ctx), errWriteFailed)

		stored, _, err := mem.GetString(ctx, auth.KeyPassword)
		require.NoError(t, err)
		assert.Equal(t, "abc", stored)
		_, ok, err := mem.GetBool(ctx, auth.KeyPasswordIsHashed)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, b.LoadInitial(ctx))
		stored, _, err = mem.GetString(ctx, auth.KeyPassword)
		require.NoError(t, err)
		assert.Equal(t, hash, stored)
		authn.AssertExpectations(t)
	})

	t.Run("failed restore reports both errors", func(t *testing.T) {
		ctx := context.Background()
		mem := preferences.NewMemoryStore(map[string]string{
			auth.KeyUsername: "alice",
			auth.KeyPassword: "abc",
		})
		st := &flakyWriteStore{
			PreferenceStore: mem,
			failSetString:   map[int]bool{2: true},
			failSetBool:     1,
		}

		authn := &mockAuthenticator{}

		b := newBinding(t, st, authn)
		err := b.LoadInitial(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, errWriteFailed)
		assert.Equal(t, domain.Credentials{}, b.Credentials())
		authn.AssertNotCalled(t, "SetAuthentication", mock.Anything, mock.Anything)
	})
}

func TestLoadInitial_PicksUpUsernameWrittenDuringMigration(t *testing.T) {
	ctx := context.Background()
	mem := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername: "alice",
		auth.KeyPassword: "abc",
	})
	// Another writer renames the user while the flag is being recorded; the
	// binding ignores the echo but must still push the new name.
	st := &renamingStore{PreferenceStore: mem, newName: "bob"}
	hash := sha1Of(t, "abc")

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "bob", hash).Once()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))

	assert.Equal(t, "bob", b.Username())
	authn.AssertExpectations(t)
}

type renamingStore struct {
	store.PreferenceStore
	newName string
}

func (s *renamingStore) SetBool(ctx context.Context, key string, value bool) error {
	if err := s.PreferenceStore.SetString(ctx, auth.KeyUsername, s.newName); err != nil {
		return err
	}
	return s.PreferenceStore.SetBool(ctx, key, value)
}

func TestLoadInitial_AlreadyHashed(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername:         "alice",
		auth.KeyPassword:         "0123abcd",
		auth.KeyPasswordIsHashed: "true",
	})

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "alice", "0123abcd").Once()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))
	authn.AssertExpectations(t)
}

func TestLoadInitial_DefaultsForAbsentFields(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(nil)
	hash := sha1Of(t, auth.DefaultCredentialValue)

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", auth.DefaultCredentialValue, hash).Once()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))

	assert.Equal(t, "test1", b.Username())
	authn.AssertExpectations(t)
}

func TestLoadInitial_TrimsValues(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername:         "  alice ",
		auth.KeyPassword:         " hash\n",
		auth.KeyPasswordIsHashed: "true",
	})

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "alice", "hash").Once()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))
	authn.AssertExpectations(t)
}

func TestLoadInitial_StoreError(t *testing.T) {
	st := &failingStore{PreferenceStore: preferences.NewMemoryStore(nil), failKey: auth.KeyPassword}
	authn := &mockAuthenticator{}

	b := newBinding(t, st, authn)
	err := b.LoadInitial(context.Background())

	assert.ErrorIs(t, err, errStoreDown)
	authn.AssertNotCalled(t, "SetAuthentication", mock.Anything, mock.Anything)
}

func TestOnConfigChanged_RepushesTrimmedUsername(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername:         "bob",
		auth.KeyPassword:         "hash",
		auth.KeyPasswordIsHashed: "true",
	})

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "bob", "hash").Once()
	authn.On("SetAuthentication", "alice", "hash").Once()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))

	require.NoError(t, st.SetString(ctx, auth.KeyUsername, "alice "))

	assert.Equal(t, "alice", b.Username())
	authn.AssertExpectations(t)
}

func TestOnConfigChanged_PasswordChange(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername:         "bob",
		auth.KeyPassword:         "old",
		auth.KeyPasswordIsHashed: "true",
	})

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "bob", "old").Once()
	authn.On("SetAuthentication", "bob", "new").Once()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))

	require.NoError(t, st.SetString(ctx, auth.KeyPassword, "new"))
	authn.AssertExpectations(t)
}

func TestOnConfigChanged_IgnoresUnknownKeys(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername:         "bob",
		auth.KeyPassword:         "hash",
		auth.KeyPasswordIsHashed: "true",
	})

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "bob", "hash").Once()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))

	require.NoError(t, st.SetString(ctx, "theme", "dark"))
	require.NoError(t, st.SetBool(ctx, auth.KeyPasswordIsHashed, true))

	authn.AssertNumberOfCalls(t, "SetAuthentication", 1)
}

func TestOnConfigChanged_KeyCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername:         "bob",
		auth.KeyPassword:         "hash",
		auth.KeyPasswordIsHashed: "true",
	})

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "bob", "hash").Twice()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))

	b.OnConfigChanged(ctx, "USERNAME")
	authn.AssertExpectations(t)
}

func TestOnConfigChanged_BeforeLoadIgnored(t *testing.T) {
	authn := &mockAuthenticator{}
	b := newBinding(t, preferences.NewMemoryStore(nil), authn)

	b.OnConfigChanged(context.Background(), auth.KeyUsername)

	authn.AssertNotCalled(t, "SetAuthentication", mock.Anything, mock.Anything)
	assert.True(t, b.Credentials().IsZero())
}

func TestClose_StopsReacting(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyUsername:         "bob",
		auth.KeyPassword:         "hash",
		auth.KeyPasswordIsHashed: "true",
	})

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", "bob", "hash").Once()

	b := newBinding(t, st, authn)
	require.NoError(t, b.LoadInitial(ctx))
	b.Close()
	b.Close()

	require.NoError(t, st.SetString(ctx, auth.KeyUsername, "carol"))

	assert.Equal(t, "bob", b.Username())
	authn.AssertExpectations(t)
}

func TestWithLocker_SharesLock(t *testing.T) {
	ctx := context.Background()
	st := preferences.NewMemoryStore(map[string]string{
		auth.KeyPasswordIsHashed: "true",
	})

	authn := &mockAuthenticator{}
	authn.On("SetAuthentication", mock.Anything, mock.Anything)

	var mu sync.Mutex
	b := newBinding(t, st, authn, auth.WithLocker(&mu))
	require.NoError(t, b.LoadInitial(ctx))

	mu.Lock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Credentials()
	}()

	time.Sleep(50 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Credentials returned while the shared lock was held")
	default:
	}
	mu.Unlock()
	<-done
}
