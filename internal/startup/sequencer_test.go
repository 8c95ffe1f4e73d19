package startup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/auth"
	"github.com/developia-II/feedback-analyzer-backend/internal/database"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

type fakeStore struct {
	mu             sync.Mutex
	schemaFailures int
	schemaCalls    int
	admins         []models.AdminUser
	products       []string
	settings       map[string]string
	productErr     error
	panicOnAdmin   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{settings: make(map[string]string)}
}

func (f *fakeStore) CreateSchema(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemaCalls++
	if f.schemaFailures < 0 || f.schemaCalls <= f.schemaFailures {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeStore) GetAdmin(context.Context) (*models.AdminUser, error) {
	if f.panicOnAdmin {
		panic("admin table corrupted")
	}
	if len(f.admins) == 0 {
		return nil, database.ErrNotFound
	}
	a := f.admins[0]
	return &a, nil
}

func (f *fakeStore) CreateAdmin(_ context.Context, username, hash string) (*models.AdminUser, error) {
	a := models.AdminUser{ID: int64(len(f.admins) + 1), Username: username, PasswordHash: hash}
	f.admins = append(f.admins, a)
	return &a, nil
}

func (f *fakeStore) UpdateAdminPassword(_ context.Context, username, hash string) error {
	for i := range f.admins {
		if f.admins[i].Username == username {
			f.admins[i].PasswordHash = hash
			return nil
		}
	}
	return database.ErrNotFound
}

func (f *fakeStore) CountProducts(context.Context) (int64, error) {
	if f.productErr != nil {
		return 0, f.productErr
	}
	return int64(len(f.products)), nil
}

func (f *fakeStore) CreateProduct(_ context.Context, name string) (*models.Product, error) {
	f.products = append(f.products, name)
	return &models.Product{ID: int64(len(f.products)), Name: name}, nil
}

func (f *fakeStore) GetSetting(_ context.Context, key string) (string, error) {
	v, ok := f.settings[key]
	if !ok {
		return "", database.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) SetSetting(_ context.Context, key, value string) error {
	f.settings[key] = value
	return nil
}

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newSequencer(store Store, opts Options) (*Sequencer, *recordedSleeps) {
	s := New(store, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := &recordedSleeps{}
	s.Sleep = rec.sleep
	return s, rec
}

var defaultOpts = Options{
	AdminUsername: "admin",
	AdminPassword: "changeme",
	DefaultModel:  "gemini-2.0-flash",
}

func TestEnsureReadySucceedsOnSecondAttempt(t *testing.T) {
	store := newFakeStore()
	store.schemaFailures = 1
	s, rec := newSequencer(store, defaultOpts)

	report, err := s.EnsureReady(context.Background(), 5, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempts)
	assert.Equal(t, []time.Duration{time.Second}, rec.delays)

	for _, step := range []string{StepAdmin, StepProduct, StepModel} {
		assert.NoError(t, report.Seeded[step], step)
	}
	require.Len(t, store.admins, 1)
	assert.True(t, auth.CheckPassword(store.admins[0].PasswordHash, "changeme"))
	assert.Equal(t, []string{DefaultProduct}, store.products)
	assert.Equal(t, "gemini-2.0-flash", store.settings[models.SettingCurrentModel])
}

func TestEnsureReadyGivesUpAfterMaxAttempts(t *testing.T) {
	store := newFakeStore()
	store.schemaFailures = -1
	s, rec := newSequencer(store, defaultOpts)

	var attempts int
	s.OnAttempt = func() { attempts++ }

	report, err := s.EnsureReady(context.Background(), 2, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStartup)
	assert.Equal(t, 2, store.schemaCalls)
	assert.Equal(t, 2, report.Attempts)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []time.Duration{time.Second}, rec.delays, "no wait after the final attempt")
	assert.Empty(t, store.admins, "nothing seeded")
}

func TestEnsureReadyLinearBackoff(t *testing.T) {
	store := newFakeStore()
	store.schemaFailures = 3
	s, rec := newSequencer(store, defaultOpts)

	_, err := s.EnsureReady(context.Background(), 10, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}, rec.delays)
}

func TestEnsureReadyAbortsOnCancel(t *testing.T) {
	store := newFakeStore()
	store.schemaFailures = -1
	s := New(store, defaultOpts, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.EnsureReady(ctx, 5, time.Hour)
	assert.ErrorIs(t, err, apperr.ErrStartup)
	assert.Equal(t, 1, store.schemaCalls)
}

func TestSeedStepsAreIsolated(t *testing.T) {
	store := newFakeStore()
	store.panicOnAdmin = true
	store.productErr = errors.New("products unavailable")
	s, _ := newSequencer(store, defaultOpts)

	report, err := s.EnsureReady(context.Background(), 1, time.Second)
	require.NoError(t, err)
	assert.Error(t, report.Seeded[StepAdmin])
	assert.Error(t, report.Seeded[StepProduct])
	assert.NoError(t, report.Seeded[StepModel])
	assert.Equal(t, "gemini-2.0-flash", store.settings[models.SettingCurrentModel])
}

func TestSeedAdminWithoutPassword(t *testing.T) {
	store := newFakeStore()
	opts := defaultOpts
	opts.AdminPassword = ""
	s, _ := newSequencer(store, opts)

	report, err := s.EnsureReady(context.Background(), 1, time.Second)
	require.NoError(t, err)
	assert.Error(t, report.Seeded[StepAdmin])
	assert.Empty(t, store.admins)
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.products = []string{"Existing"}
	store.settings[models.SettingCurrentModel] = "custom-model"
	s, _ := newSequencer(store, defaultOpts)

	_, err := s.EnsureReady(context.Background(), 1, time.Second)
	require.NoError(t, err)
	_, err = s.EnsureReady(context.Background(), 1, time.Second)
	require.NoError(t, err)

	assert.Len(t, store.admins, 1, "never a second admin")
	assert.Equal(t, []string{"Existing"}, store.products)
	assert.Equal(t, "custom-model", store.settings[models.SettingCurrentModel])
}

func TestForceResetOverwritesPassword(t *testing.T) {
	store := newFakeStore()
	s, _ := newSequencer(store, defaultOpts)
	_, err := s.EnsureReady(context.Background(), 1, time.Second)
	require.NoError(t, err)

	opts := defaultOpts
	opts.AdminPassword = "rotated"
	opts.AdminForceReset = true
	s, _ = newSequencer(store, opts)
	report, err := s.EnsureReady(context.Background(), 1, time.Second)
	require.NoError(t, err)
	require.NoError(t, report.Seeded[StepAdmin])

	require.Len(t, store.admins, 1)
	assert.True(t, auth.CheckPassword(store.admins[0].PasswordHash, "rotated"))
	assert.False(t, auth.CheckPassword(store.admins[0].PasswordHash, "changeme"))
}
