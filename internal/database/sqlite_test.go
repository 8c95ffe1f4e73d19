package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.CreateSchema(context.Background()))
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func insert(t *testing.T, s Store, f models.Feedback) models.Feedback {
	t.Helper()
	require.NoError(t, s.InsertFeedback(context.Background(), &f))
	return f
}

func TestSQLiteCreateSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.CreateSchema(context.Background()))
}

func TestSQLiteInsertAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	conf := 0.93

	f := insert(t, s, models.Feedback{
		OriginalText:       "Ce produit est excellent!",
		TranslatedText:     "This is excellent!",
		Sentiment:          models.SentimentPositive,
		Product:            "Test Product",
		Language:           "fr",
		LanguageConfidence: &conf,
	})
	assert.NotZero(t, f.ID)
	assert.Equal(t, fixed, f.CreatedAt)

	items, total, err := s.ListFeedback(context.Background(), models.FeedbackFilter{}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, f, items[0])
}

func TestSQLiteListFiltersAndPagination(t *testing.T) {
	s := newTestStore(t)
	insert(t, s, models.Feedback{OriginalText: "a", Sentiment: "positive", Product: "A", Language: "en"})
	insert(t, s, models.Feedback{OriginalText: "b", Sentiment: "negative", Product: "A", Language: "fr"})
	insert(t, s, models.Feedback{OriginalText: "c", Sentiment: "neutral", Product: "B", Language: "fr"})
	insert(t, s, models.Feedback{OriginalText: "d", Sentiment: "neutral"})
	ctx := context.Background()

	tests := []struct {
		name   string
		filter models.FeedbackFilter
		want   int64
	}{
		{"no filter", models.FeedbackFilter{}, 4},
		{"product", models.FeedbackFilter{Product: "A"}, 2},
		{"language", models.FeedbackFilter{Language: "fr"}, 2},
		{"sentiment", models.FeedbackFilter{Sentiment: "neutral"}, 2},
		{"combined", models.FeedbackFilter{Product: "A", Language: "fr"}, 1},
		{"unspecified product", models.FeedbackFilter{Product: models.UnspecifiedProduct}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := s.ListFeedback(ctx, tt.filter, 0, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
		})
	}

	page, total, err := s.ListFeedback(ctx, models.FeedbackFilter{}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].OriginalText, "newest first")
	assert.Equal(t, "b", page[1].OriginalText)
}

func TestSQLiteCountBySentiment(t *testing.T) {
	s := newTestStore(t)
	for _, sentiment := range []string{"positive", "positive", "negative", "neutral"} {
		insert(t, s, models.Feedback{OriginalText: "x", Sentiment: sentiment, Product: "P"})
	}
	counts, err := s.CountBySentiment(context.Background(), models.FeedbackFilter{Product: "P"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"positive": 2, "negative": 1, "neutral": 1}, counts)

	counts, err = s.CountBySentiment(context.Background(), models.FeedbackFilter{Product: "nope"})
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestSQLiteDeletes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f1 := insert(t, s, models.Feedback{OriginalText: "1", Sentiment: "positive", Product: "Keep"})
	insert(t, s, models.Feedback{OriginalText: "2", Sentiment: "positive", Product: "Drop"})
	insert(t, s, models.Feedback{OriginalText: "3", Sentiment: "positive", Product: "Drop"})
	f4 := insert(t, s, models.Feedback{OriginalText: "4", Sentiment: "positive", Product: "Keep"})

	require.NoError(t, s.DeleteFeedback(ctx, f1.ID))
	assert.ErrorIs(t, s.DeleteFeedback(ctx, f1.ID), ErrNotFound)

	deleted, err := s.DeleteFeedbackByIDs(ctx, []int64{f4.ID, 99999})
	require.NoError(t, err)
	assert.Equal(t, []int64{f4.ID}, deleted)

	n, err := s.DeleteFeedbackByFilter(ctx, models.FeedbackFilter{Product: "Drop"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, total, err := s.ListFeedback(ctx, models.FeedbackFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSQLiteProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, "Widget")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)

	_, err = s.CreateProduct(ctx, "Widget")
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := s.GetProductByName(ctx, "Widget")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = s.GetProductByName(ctx, "Gadget")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.CountProducts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), ErrNotFound)
}

func TestSQLiteAdminAndSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetAdmin(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := s.CreateAdmin(ctx, "admin", "hash1")
	require.NoError(t, err)
	assert.Equal(t, "admin", a.Username)

	_, err = s.CreateAdmin(ctx, "admin", "hash2")
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, s.UpdateAdminPassword(ctx, "admin", "hash3"))
	got, err := s.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hash3", got.PasswordHash)
	assert.ErrorIs(t, s.UpdateAdminPassword(ctx, "ghost", "x"), ErrNotFound)

	_, err = s.GetSetting(ctx, models.SettingCurrentModel)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.SetSetting(ctx, models.SettingCurrentModel, "m1"))
	require.NoError(t, s.SetSetting(ctx, models.SettingCurrentModel, "m2"))
	v, err := s.GetSetting(ctx, models.SettingCurrentModel)
	require.NoError(t, err)
	assert.Equal(t, "m2", v)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "sqlite::memory:", "")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	s.Close(ctx)

	_, err = Open(ctx, "postgres://localhost/x", "")
	assert.Error(t, err)
}
