package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/clock"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

const DefaultModelCacheTTL = 10 * time.Minute

// modelFetchTimeout bounds a shared provider fetch, which no longer follows
// any single caller's context.
const modelFetchTimeout = 30 * time.Second

type ModelLister interface {
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
}

// ModelCatalog caches the provider's model list for a fixed TTL. Concurrent
// misses share one fetch.
type ModelCatalog struct {
	lister ModelLister
	ttl    time.Duration
	clock  clock.Clock

	group singleflight.Group

	mu        sync.Mutex
	cached    []models.ModelInfo
	fetchedAt time.Time
}

func NewModelCatalog(lister ModelLister, ttl time.Duration, c clock.Clock) *ModelCatalog {
	if ttl <= 0 {
		ttl = DefaultModelCacheTTL
	}
	if c == nil {
		c = clock.Real{}
	}
	return &ModelCatalog{lister: lister, ttl: ttl, clock: c}
}

// Models returns the provider's models sorted by name. A caller whose ctx
// ends while waiting gets ctx's error; the shared fetch keeps going for the
// other waiters.
func (m *ModelCatalog) Models(ctx context.Context) ([]models.ModelInfo, error) {
	if cached, ok := m.fresh(); ok {
		return cached, nil
	}

	ch := m.group.DoChan("models", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), modelFetchTimeout)
		defer cancel()

		list, err := m.lister.ListModels(fetchCtx)
		if err != nil {
			return nil, err
		}
		sorted := append([]models.ModelInfo(nil), list...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

		m.mu.Lock()
		m.cached = sorted
		m.fetchedAt = m.clock.Now()
		m.mu.Unlock()
		return sorted, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperr.Wrap(apperr.KindClientDisconnected, ctx.Err(), "Client disconnected")
	case res := <-ch:
		if res.Err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, res.Err, "Could not fetch models from the AI provider")
		}
		return copyModels(res.Val.([]models.ModelInfo)), nil
	}
}

// Invalidate drops the cached list so the next call refetches.
func (m *ModelCatalog) Invalidate() {
	m.mu.Lock()
	m.cached = nil
	m.fetchedAt = time.Time{}
	m.mu.Unlock()
}

func (m *ModelCatalog) fresh() ([]models.ModelInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached == nil || m.clock.Now().Sub(m.fetchedAt) >= m.ttl {
		return nil, false
	}
	return copyModels(m.cached), true
}

func copyModels(in []models.ModelInfo) []models.ModelInfo {
	return append(make([]models.ModelInfo, 0, len(in)), in...)
}
