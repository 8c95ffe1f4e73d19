package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/developia-II/feedback-analyzer-backend/internal/models"
	_ "modernc.org/sqlite"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		original_text TEXT NOT NULL,
		translated_text TEXT,
		sentiment TEXT NOT NULL,
		product TEXT,
		language TEXT,
		language_confidence REAL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_sentiment ON feedback(sentiment)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_product ON feedback(product)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_language ON feedback(language)`,
	`CREATE TABLE IF NOT EXISTS product (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS admin_user (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS setting (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

const feedbackColumns = `id, original_text, translated_text, sentiment, product, language, language_confidence, created_at`

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens the database at path (":memory:" for a private
// in-memory database). A single connection is kept so in-memory databases
// are shared by every query and writes are serialised.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// --- feedback ---

func (s *SQLiteStore) InsertFeedback(ctx context.Context, f *models.Feedback) error {
	created := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (original_text, translated_text, sentiment, product, language, language_confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.OriginalText, nullString(f.TranslatedText), f.Sentiment, nullString(f.Product),
		nullString(f.Language), nullFloat(f.LanguageConfidence), created.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	f.ID = id
	f.CreatedAt = created
	return nil
}

func (s *SQLiteStore) ListFeedback(ctx context.Context, filter models.FeedbackFilter, skip, limit int) ([]models.Feedback, int64, error) {
	where, args := sqliteWhere(filter)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	query := `SELECT ` + feedbackColumns + ` FROM feedback` + where + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	items := make([]models.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	return items, total, nil
}

func (s *SQLiteStore) CountBySentiment(ctx context.Context, filter models.FeedbackFilter) (map[string]int64, error) {
	where, args := sqliteWhere(filter)
	rows, err := s.db.QueryContext(ctx, `SELECT sentiment, COUNT(*) FROM feedback`+where+` GROUP BY sentiment`, args...)
	if err != nil {
		return nil, fmt.Errorf("count by sentiment: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var sentiment string
		var n int64
		if err := rows.Scan(&sentiment, &n); err != nil {
			return nil, fmt.Errorf("count by sentiment: %w", err)
		}
		counts[sentiment] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) DeleteFeedback(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteFeedbackByIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk delete: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM feedback WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("bulk delete lookup: %w", err)
	}
	found := make([]int64, 0, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("bulk delete lookup: %w", err)
		}
		found = append(found, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bulk delete lookup: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM feedback WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return nil, fmt.Errorf("bulk delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk delete: %w", err)
	}
	return found, nil
}

func (s *SQLiteStore) DeleteFeedbackByFilter(ctx context.Context, filter models.FeedbackFilter) (int64, error) {
	where, args := sqliteWhere(filter)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin filtered delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM feedback`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("filtered delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("filtered delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit filtered delete: %w", err)
	}
	return n, nil
}

// --- products ---

func (s *SQLiteStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM product ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *SQLiteStore) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	var p models.Product
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM product WHERE name = ?`, name).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, name string) (*models.Product, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO product (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &models.Product{ID: id, Name: name}, nil
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM product WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM product`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// --- admin ---

func (s *SQLiteStore) GetAdmin(ctx context.Context) (*models.AdminUser, error) {
	return s.getAdmin(ctx, `SELECT id, username, password_hash, created_at, updated_at FROM admin_user ORDER BY id LIMIT 1`)
}

func (s *SQLiteStore) GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	return s.getAdmin(ctx, `SELECT id, username, password_hash, created_at, updated_at FROM admin_user WHERE username = ?`, username)
}

func (s *SQLiteStore) getAdmin(ctx context.Context, query string, args ...any) (*models.AdminUser, error) {
	var (
		a                models.AdminUser
		created, updated string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.Username, &a.PasswordHash, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &a, nil
}

func (s *SQLiteStore) CreateAdmin(ctx context.Context, username, passwordHash string) (*models.AdminUser, error) {
	ts := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_user (username, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		username, passwordHash, ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	created, _ := time.Parse(time.RFC3339Nano, ts)
	return &models.AdminUser{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    created,
		UpdatedAt:    created,
	}, nil
}

func (s *SQLiteStore) UpdateAdminPassword(ctx context.Context, username, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE admin_user SET password_hash = ?, updated_at = ? WHERE username = ?`,
		passwordHash, s.timestamp(), username)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- settings ---

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM setting WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO setting (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// --- helpers ---

func sqliteWhere(filter models.FeedbackFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	switch filter.Product {
	case "":
	case models.UnspecifiedProduct:
		clauses = append(clauses, `(product IS NULL OR product = '')`)
	default:
		clauses = append(clauses, `product = ?`)
		args = append(args, filter.Product)
	}
	if filter.Language != "" {
		clauses = append(clauses, `language = ?`)
		args = append(args, filter.Language)
	}
	if filter.Sentiment != "" {
		clauses = append(clauses, `sentiment = ?`)
		args = append(args, filter.Sentiment)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedback(row rowScanner) (models.Feedback, error) {
	var (
		f                         models.Feedback
		translated, product, lang sql.NullString
		confidence                sql.NullFloat64
		created                   string
	)
	if err := row.Scan(&f.ID, &f.OriginalText, &translated, &f.Sentiment, &product, &lang, &confidence, &created); err != nil {
		return f, fmt.Errorf("scan feedback: %w", err)
	}
	f.TranslatedText = translated.String
	f.Product = product.String
	f.Language = lang.String
	if confidence.Valid {
		c := confidence.Float64
		f.LanguageConfidence = &c
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return f, fmt.Errorf("scan feedback created_at: %w", err)
	}
	f.CreatedAt = t
	return f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
