// Package database persists feedback, the product catalog, the admin account
// and key/value settings. Two backends implement Store: MongoDB for
// deployments and SQLite for single-binary setups and tests.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type FeedbackStore interface {
	InsertFeedback(ctx context.Context, f *models.Feedback) error
	ListFeedback(ctx context.Context, filter models.FeedbackFilter, skip, limit int) ([]models.Feedback, int64, error)
	CountBySentiment(ctx context.Context, filter models.FeedbackFilter) (map[string]int64, error)
	DeleteFeedback(ctx context.Context, id int64) error
	DeleteFeedbackByIDs(ctx context.Context, ids []int64) ([]int64, error)
	DeleteFeedbackByFilter(ctx context.Context, filter models.FeedbackFilter) (int64, error)
}

type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
	CreateProduct(ctx context.Context, name string) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	CountProducts(ctx context.Context) (int64, error)
}

type AdminStore interface {
	GetAdmin(ctx context.Context) (*models.AdminUser, error)
	GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	CreateAdmin(ctx context.Context, username, passwordHash string) (*models.AdminUser, error)
	UpdateAdminPassword(ctx context.Context, username, passwordHash string) error
}

type SettingStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Store is the full persistence surface.
type Store interface {
	FeedbackStore
	ProductStore
	AdminStore
	SettingStore

	// CreateSchema makes the store ready for use. It is idempotent and fails
	// while the backend is unreachable.
	CreateSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open returns the store for url. mongodb:// and mongodb+srv:// select MongoDB;
// sqlite://<path> and sqlite::memory: select SQLite. No I/O happens until
// CreateSchema or Ping.
func Open(ctx context.Context, url, dbName string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return NewMongoStore(ctx, url, dbName)
	case strings.HasPrefix(url, "sqlite:"):
		path := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite:"), "//")
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", url)
	}
}
