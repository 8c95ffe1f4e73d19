// Package startup brings the store to a usable state before the server
// accepts traffic: it retries schema creation with linear backoff and then
// seeds the admin account, a default product and the current model setting.
package startup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/auth"
	"github.com/developia-II/feedback-analyzer-backend/internal/database"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

// Store is the subset of database.Store the sequencer needs.
type Store interface {
	CreateSchema(ctx context.Context) error
	GetAdmin(ctx context.Context) (*models.AdminUser, error)
	CreateAdmin(ctx context.Context, username, passwordHash string) (*models.AdminUser, error)
	UpdateAdminPassword(ctx context.Context, username, passwordHash string) error
	CountProducts(ctx context.Context) (int64, error)
	CreateProduct(ctx context.Context, name string) (*models.Product, error)
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Seed step names, as reported in Report.Seeded.
const (
	StepAdmin   = "admin"
	StepProduct = "default_product"
	StepModel   = "current_model"
)

const DefaultProduct = "General"

type Options struct {
	AdminUsername   string
	AdminPassword   string
	AdminForceReset bool
	DefaultProduct  string
	DefaultModel    string
}

// Report describes what EnsureReady did. Seeded maps each seed step to its
// error, nil on success.
type Report struct {
	Attempts int
	Seeded   map[string]error
}

type Sequencer struct {
	store  Store
	opts   Options
	logger *slog.Logger

	// Sleep waits between schema attempts. It returns early with ctx.Err()
	// when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnAttempt, when set, is called before every schema attempt.
	OnAttempt func()
}

func New(store Store, opts Options, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AdminUsername == "" {
		opts.AdminUsername = models.RoleAdmin
	}
	if opts.DefaultProduct == "" {
		opts.DefaultProduct = DefaultProduct
	}
	return &Sequencer{
		store:  store,
		opts:   opts,
		logger: logger,
		Sleep:  sleepCtx,
	}
}

// EnsureReady creates the schema, retrying up to maxAttempts times and
// waiting baseDelay*attempt after the attempt-th failure. Once the schema
// exists the seed steps run; their failures are logged and reported but never
// fail startup. Exhausting the attempts returns an apperr.ErrStartup error.
func (s *Sequencer) EnsureReady(ctx context.Context, maxAttempts int, baseDelay time.Duration) (*Report, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	report := &Report{Seeded: make(map[string]error)}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		report.Attempts = attempt
		if s.OnAttempt != nil {
			s.OnAttempt()
		}
		lastErr = s.store.CreateSchema(ctx)
		if lastErr == nil {
			break
		}
		s.logger.Warn("database not ready", "attempt", attempt, "max_attempts", maxAttempts, "error", lastErr)
		if attempt == maxAttempts {
			break
		}
		delay := baseDelay * time.Duration(attempt)
		if err := s.Sleep(ctx, delay); err != nil {
			return report, apperr.Wrap(apperr.KindStartup, err, "startup aborted while waiting for the database")
		}
	}
	if lastErr != nil {
		return report, apperr.Wrap(apperr.KindStartup, lastErr,
			fmt.Sprintf("database not ready after %d attempts", maxAttempts))
	}
	s.logger.Info("database ready", "attempts", report.Attempts)

	report.Seeded[StepAdmin] = s.runStep(ctx, StepAdmin, s.seedAdmin)
	report.Seeded[StepProduct] = s.runStep(ctx, StepProduct, s.seedProduct)
	report.Seeded[StepModel] = s.runStep(ctx, StepModel, s.seedModel)
	return report, nil
}

// runStep isolates a seed step so that neither an error nor a panic in it
// affects the others.
func (s *Sequencer) runStep(ctx context.Context, name string, step func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in seed step %s: %v", name, r)
		}
		if err != nil {
			s.logger.Error("seed step failed", "step", name, "error", err)
		}
	}()
	return step(ctx)
}

func (s *Sequencer) seedAdmin(ctx context.Context) error {
	existing, err := s.store.GetAdmin(ctx)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("load admin: %w", err)
	}

	if existing != nil {
		if !s.opts.AdminForceReset {
			return nil
		}
		if s.opts.AdminPassword == "" {
			return errors.New("ADMIN_FORCE_RESET is set but ADMIN_PASSWORD is empty")
		}
		hash, err := auth.HashPassword(s.opts.AdminPassword)
		if err != nil {
			return err
		}
		if err := s.store.UpdateAdminPassword(ctx, existing.Username, hash); err != nil {
			return fmt.Errorf("reset admin password: %w", err)
		}
		s.logger.Info("admin password reset", "username", existing.Username)
		return nil
	}

	if s.opts.AdminPassword == "" {
		return errors.New("no admin account exists and ADMIN_PASSWORD is empty")
	}
	hash, err := auth.HashPassword(s.opts.AdminPassword)
	if err != nil {
		return err
	}
	if _, err := s.store.CreateAdmin(ctx, s.opts.AdminUsername, hash); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin account created", "username", s.opts.AdminUsername)
	return nil
}

func (s *Sequencer) seedProduct(ctx context.Context) error {
	n, err := s.store.CountProducts(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.store.CreateProduct(ctx, s.opts.DefaultProduct); err != nil && !errors.Is(err, database.ErrDuplicate) {
		return fmt.Errorf("create default product: %w", err)
	}
	s.logger.Info("default product created", "name", s.opts.DefaultProduct)
	return nil
}

func (s *Sequencer) seedModel(ctx context.Context) error {
	if s.opts.DefaultModel == "" {
		return nil
	}
	_, err := s.store.GetSetting(ctx, models.SettingCurrentModel)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("load current model: %w", err)
	}
	if err := s.store.SetSetting(ctx, models.SettingCurrentModel, s.opts.DefaultModel); err != nil {
		return fmt.Errorf("store current model: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
