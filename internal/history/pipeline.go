package history

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/multierr"

	"github.com/medikart/medikart-client/internal/query"
	"github.com/medikart/medikart-client/pkg/apiclient"
	"github.com/medikart/medikart-client/pkg/config"
	"github.com/medikart/medikart-client/pkg/logger"
	"github.com/medikart/medikart-client/pkg/metrics"
	"github.com/medikart/medikart-client/pkg/types"
)

// Query keys. Process-wide: any component issuing the same key shares the
// cached outcome.
const (
	KeyMyMedicines     = "history:my-medicines"
	KeyRecentOrders    = "history:recent-orders"
	KeyRecommendations = "history:recommendations"
)

// MedicineReader is the medicine fetch surface the pipeline depends on.
type MedicineReader interface {
	MyMedicines(ctx context.Context) ([]types.Medicine, error)
	Search(ctx context.Context, limit int) ([]types.Medicine, error)
}

// OrderReader is the order fetch surface the pipeline depends on.
type OrderReader interface {
	Recent(ctx context.Context, limit int) ([]types.Order, error)
}

// Params wires a Pipeline together.
type Params struct {
	Medicines MedicineReader
	Orders    OrderReader
	Cache     *query.Cache
	Config    config.HistoryConfig
	Logger    *logger.Logger
	Metrics   *metrics.QueryMetrics

	// Shuffle randomizes recommendation order. Defaults to rand.Shuffle;
	// injectable for deterministic tests.
	Shuffle func(n int, swap func(i, j int))
}

// Pipeline aggregates the three history queries into a single view state.
//
// The purchased-medicine query (Q1) and the recent-orders query (Q2) are
// issued concurrently. The recommendation query (Q3) is gated: it is only
// issued once Q1 has settled successfully with an empty collection. The gate
// is recomputed from the cache's live status on every evaluation, never from
// a stale snapshot.
type Pipeline struct {
	medicines MedicineReader
	orders    OrderReader
	cache     *query.Cache
	cfg       config.HistoryConfig
	logger    *logger.Logger
	metrics   *metrics.QueryMetrics
	shuffle   func(n int, swap func(i, j int))
}

var (
	errMedicinesRequired = errors.New("history pipeline requires a medicine reader")
	errOrdersRequired    = errors.New("history pipeline requires an order reader")
	errCacheRequired     = errors.New("history pipeline requires a query cache")
)

func New(params Params) (*Pipeline, error) {
	if params.Medicines == nil {
		return nil, errMedicinesRequired
	}
	if params.Orders == nil {
		return nil, errOrdersRequired
	}
	if params.Cache == nil {
		return nil, errCacheRequired
	}

	cfg := params.Config
	if cfg.RecentOrdersLimit <= 0 {
		cfg.RecentOrdersLimit = 5
	}
	if cfg.RecentItemsCap <= 0 {
		cfg.RecentItemsCap = 4
	}
	if cfg.RecommendationPoolLimit <= 0 {
		cfg.RecommendationPoolLimit = 50
	}
	if cfg.RecommendationCap <= 0 {
		cfg.RecommendationCap = 8
	}

	shuffle := params.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}

	return &Pipeline{
		medicines: params.Medicines,
		orders:    params.Orders,
		cache:     params.Cache,
		cfg:       cfg,
		logger:    params.Logger,
		metrics:   params.Metrics,
		shuffle:   shuffle,
	}, nil
}

// Load runs the pipeline to settlement and reduces the outcomes into a view.
// A failing purchased-medicine fetch is terminal; failures of the fallback
// queries only leave their sections empty.
func (p *Pipeline) Load(ctx context.Context) View {
	historyCh := make(chan fetchResult[[]types.Medicine], 1)
	ordersCh := make(chan fetchResult[[]types.Order], 1)

	go func() {
		list, err := query.RunTyped(ctx, p.cache, KeyMyMedicines, func(ctx context.Context) ([]types.Medicine, error) {
			return p.medicines.MyMedicines(ctx)
		})
		historyCh <- fetchResult[[]types.Medicine]{value: list, err: err}
	}()
	go func() {
		list, err := query.RunTyped(ctx, p.cache, KeyRecentOrders, func(ctx context.Context) ([]types.Order, error) {
			return p.orders.Recent(ctx, p.cfg.RecentOrdersLimit)
		})
		ordersCh <- fetchResult[[]types.Order]{value: list, err: err}
	}()

	history := <-historyCh
	if history.err != nil {
		p.metrics.IncViewState("error")
		return View{State: StateError, Message: apiclient.Message(history.err)}
	}
	if len(history.value) > 0 {
		// Recent orders and recommendations are never consulted once the
		// user has history; an in-flight Q2 settles into the cache unused.
		p.metrics.IncViewState("has_history")
		return View{State: StateHasHistory, Medicines: history.value}
	}

	var (
		recommendations []types.Medicine
		recErr          error
	)
	if p.recommendationsEnabled() {
		recommendations, recErr = query.RunTyped(ctx, p.cache, KeyRecommendations, func(ctx context.Context) ([]types.Medicine, error) {
			return p.medicines.Search(ctx, p.cfg.RecommendationPoolLimit)
		})
	}

	recent := <-ordersCh

	var secondary error
	if recent.err != nil {
		secondary = multierr.Append(secondary, fmt.Errorf("recent orders: %w", recent.err))
	}
	if recErr != nil {
		secondary = multierr.Append(secondary, fmt.Errorf("recommendations: %w", recErr))
	}
	if secondary != nil && p.logger != nil {
		p.logger.Warn(p.logger.WithField(ctx, "error", secondary.Error()), "history fallback sections unavailable")
	}

	view := View{State: StateEmptyWithFallback}
	if recent.err == nil && len(recent.value) > 0 {
		order := recent.value[0]
		view.MostRecentOrder = &order
		view.RecentItems = order.Items[:min(p.cfg.RecentItemsCap, len(order.Items))]
	}
	if recErr == nil {
		view.Recommendations = p.sample(recommendations)
	}

	p.metrics.IncViewState("empty_with_fallback")
	return view
}

// Snapshot reduces whatever the cache currently holds without issuing any
// fetches. Useful for re-renders between loads.
func (p *Pipeline) Snapshot() View {
	switch p.cache.Status(KeyMyMedicines) {
	case query.StatusIdle, query.StatusPending:
		return View{State: StateLoading}
	case query.StatusError:
		return View{State: StateError, Message: apiclient.Message(p.cache.Err(KeyMyMedicines))}
	}

	medicines, _ := peekTyped[[]types.Medicine](p.cache, KeyMyMedicines)
	if len(medicines) > 0 {
		return View{State: StateHasHistory, Medicines: medicines}
	}

	view := View{State: StateEmptyWithFallback}
	if orders, ok := peekTyped[[]types.Order](p.cache, KeyRecentOrders); ok && len(orders) > 0 {
		order := orders[0]
		view.MostRecentOrder = &order
		view.RecentItems = order.Items[:min(p.cfg.RecentItemsCap, len(order.Items))]
	}
	if pool, ok := peekTyped[[]types.Medicine](p.cache, KeyRecommendations); ok {
		view.Recommendations = p.sample(pool)
	}
	return view
}

// recommendationsEnabled is the gating predicate for the recommendation
// query: the primary history query has settled successfully and returned an
// empty collection. Recomputed from the live cache on every call.
func (p *Pipeline) recommendationsEnabled() bool {
	if p.cache.Status(KeyMyMedicines) != query.StatusSuccess {
		return false
	}
	medicines, ok := peekTyped[[]types.Medicine](p.cache, KeyMyMedicines)
	return ok && len(medicines) == 0
}

// sample returns a shuffled copy of the pool capped at the recommendation
// limit. The cached pool is never mutated.
func (p *Pipeline) sample(pool []types.Medicine) []types.Medicine {
	if len(pool) == 0 {
		return nil
	}
	shuffled := append([]types.Medicine(nil), pool...)
	p.shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:min(p.cfg.RecommendationCap, len(shuffled))]
}

type fetchResult[T any] struct {
	value T
	err   error
}

func peekTyped[T any](c *query.Cache, key string) (T, bool) {
	value, ok := c.Peek(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return typed, true
}
