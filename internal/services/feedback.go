package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/database"
	"github.com/developia-II/feedback-analyzer-backend/internal/metrics"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

// Pagination bounds for feedback listings.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Analyzer produces an analysis of text with the named model.
type Analyzer interface {
	Analyze(ctx context.Context, text, model string) (models.AnalysisResult, error)
}

// FeedbackRepository is the persistence FeedbackService needs.
type FeedbackRepository interface {
	database.FeedbackStore
	database.SettingStore
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
}

type FeedbackService struct {
	store        FeedbackRepository
	analyzer     Analyzer
	defaultModel string
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewFeedbackService(store FeedbackRepository, analyzer Analyzer, defaultModel string, m *metrics.Metrics, logger *slog.Logger) *FeedbackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackService{
		store:        store,
		analyzer:     analyzer,
		defaultModel: defaultModel,
		metrics:      m,
		logger:       logger,
	}
}

// CurrentModel returns the model used for analysis: the stored setting, or
// the configured default when none is stored.
func (s *FeedbackService) CurrentModel(ctx context.Context) (string, error) {
	v, err := s.store.GetSetting(ctx, models.SettingCurrentModel)
	switch {
	case err == nil && v != "":
		return v, nil
	case err == nil, errors.Is(err, database.ErrNotFound):
		return s.defaultModel, nil
	default:
		return "", storeFailure(err, "load current model")
	}
}

func (s *FeedbackService) SetCurrentModel(ctx context.Context, name string) (string, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "models/")
	if name == "" {
		return "", apperr.New(apperr.KindBadRequest, "model_name is required")
	}
	if err := s.store.SetSetting(ctx, models.SettingCurrentModel, name); err != nil {
		return "", storeFailure(err, "save current model")
	}
	s.logger.Info("current model changed", "model", name)
	return name, nil
}

// Analyze translates and classifies text without storing anything.
func (s *FeedbackService) Analyze(ctx context.Context, text string) (models.AnalysisResult, error) {
	if err := checkClient(ctx); err != nil {
		return models.AnalysisResult{}, err
	}
	model, err := s.CurrentModel(ctx)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return s.analyzer.Analyze(ctx, strings.TrimSpace(text), model)
}

// Create analyzes and stores a feedback entry. The product must already be
// in the catalog. A request that already carries both a translation and a
// sentiment is stored as given, without calling the model.
//
// ctx is checked before the model call and before the write, failing with
// KindClientDisconnected once it is done. Under fiber the request's user
// context is never cancelled when the client hangs up, so in the HTTP server
// these checks only fire for callers that pass a cancellable context.
func (s *FeedbackService) Create(ctx context.Context, req models.FeedbackRequest) (*models.Feedback, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperr.New(apperr.KindBadRequest, "text must not be empty")
	}
	product := strings.TrimSpace(req.Product)

	if _, err := s.store.GetProductByName(ctx, product); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.New(apperr.KindUnknownProduct, fmt.Sprintf("Unknown product: %s", product))
		}
		return nil, storeFailure(err, "look up product")
	}

	source := metrics.SourcePreAnalyzed
	analysis, ok := req.PreAnalyzed()
	if ok {
		analysis.Sentiment = strings.ToLower(strings.TrimSpace(analysis.Sentiment))
		if !models.IsSentiment(analysis.Sentiment) {
			return nil, apperr.New(apperr.KindBadRequest, "sentiment must be one of positive, negative or neutral")
		}
	} else {
		source = metrics.SourceAnalyzed
		var err error
		if analysis, err = s.Analyze(ctx, text); err != nil {
			return nil, err
		}
	}

	if err := checkClient(ctx); err != nil {
		return nil, err
	}

	f := &models.Feedback{
		OriginalText:       text,
		TranslatedText:     analysis.TranslatedText,
		Sentiment:          analysis.Sentiment,
		Product:            product,
		Language:           analysis.Language,
		LanguageConfidence: analysis.LanguageConfidence,
	}
	if err := s.store.InsertFeedback(ctx, f); err != nil {
		return nil, storeFailure(err, "save feedback")
	}
	s.metrics.FeedbackCreated(source)
	s.logger.Info("feedback stored", "id", f.ID, "product", f.Product, "sentiment", f.Sentiment, "source", source)
	return f, nil
}

func (s *FeedbackService) List(ctx context.Context, filter models.FeedbackFilter, skip, limit int) (*models.FeedbackPage, error) {
	skip, limit = ClampPage(skip, limit)
	items, total, err := s.store.ListFeedback(ctx, filter, skip, limit)
	if err != nil {
		return nil, storeFailure(err, "list feedback")
	}
	return &models.FeedbackPage{Total: total, Items: items, Skip: skip, Limit: limit}, nil
}

func (s *FeedbackService) Delete(ctx context.Context, id int64) error {
	err := s.store.DeleteFeedback(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "Feedback not found")
	}
	if err != nil {
		return storeFailure(err, "delete feedback")
	}
	return nil
}

// DeleteMany removes the given ids and reports which of them existed.
func (s *FeedbackService) DeleteMany(ctx context.Context, ids []int64) (*models.BulkDeleteResponse, error) {
	deleted, err := s.store.DeleteFeedbackByIDs(ctx, ids)
	if err != nil {
		return nil, storeFailure(err, "bulk delete feedback")
	}
	return &models.BulkDeleteResponse{Deleted: len(deleted), IDs: deleted}, nil
}

// DeleteFiltered removes every entry matching filter; an empty filter
// removes everything.
func (s *FeedbackService) DeleteFiltered(ctx context.Context, filter models.FeedbackFilter) (int64, error) {
	n, err := s.store.DeleteFeedbackByFilter(ctx, filter)
	if err != nil {
		return 0, storeFailure(err, "delete feedback")
	}
	s.logger.Info("feedback deleted by filter", "count", n, "product", filter.Product, "language", filter.Language)
	return n, nil
}

func (s *FeedbackService) Stats(ctx context.Context, filter models.FeedbackFilter) (*models.Stats, error) {
	counts, err := s.store.CountBySentiment(ctx, filter)
	if err != nil {
		return nil, storeFailure(err, "count feedback")
	}
	return computeStats(counts), nil
}

// computeStats always reports every canonical sentiment, with zeros for
// those that have no entries.
func computeStats(counts map[string]int64) *models.Stats {
	stats := &models.Stats{
		Counts:      make(map[string]int64, 3),
		Percentages: make(map[string]float64, 3),
	}
	for _, sentiment := range []string{models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral} {
		stats.Counts[sentiment] = 0
		stats.Percentages[sentiment] = 0
	}
	for sentiment, n := range counts {
		stats.Counts[sentiment] = n
		stats.Total += n
	}
	if stats.Total == 0 {
		return stats
	}
	for sentiment, n := range stats.Counts {
		pct := float64(n) * 100 / float64(stats.Total)
		stats.Percentages[sentiment] = math.Round(pct*100) / 100
	}
	return stats
}

// ClampPage applies the listing defaults and bounds.
func ClampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return skip, limit
}

func checkClient(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.KindClientDisconnected, err, "Client disconnected")
	}
	return nil
}

func storeFailure(err error, op string) error {
	return apperr.Wrap(apperr.KindStoreFailure, fmt.Errorf("%s: %w", op, err), "Database operation failed")
}
