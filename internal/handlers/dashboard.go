package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	redis_a "github.com/monabeauty/pos-be/internal/adapters/redis_adapter"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
)

// dashboardTTL keeps the dashboard warm between mutations; dispatch
// invalidates dashboard:* eagerly, so staleness is bounded either way.
const dashboardTTL = 5 * time.Minute

// DashboardHandler serves the store overview: sales aggregates, best
// sellers, per-category performance and the low-stock watchlist.
type DashboardHandler struct {
	repo   ports.ProductRepository
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(repo ports.ProductRepository, cache ports.CacheRepository, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("handler", "dashboard")),
	}
}

// DashboardData is the full dashboard payload.
type DashboardData struct {
	Period      string               `json:"period"`
	Products    int64                `json:"products"`
	Summary     *ports.SalesSummary  `json:"summary"`
	TopSellers  []ports.TopSeller    `json:"top_sellers"`
	Categories  []ports.CategoryStat `json:"categories"`
	LowStock    []*domain.Product    `json:"low_stock"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// GetDashboard handles GET /api/v1/dashboard. The period query parameter
// accepts 7d, 30d, 90d or all (default 30d).
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period := r.URL.Query().Get("period")
	since, ok := parsePeriod(period, time.Now())
	if !ok {
		respondError(w, http.StatusBadRequest, "period must be one of 7d, 30d, 90d, all")
		return
	}
	if period == "" {
		period = "30d"
	}

	cacheKey := redis_a.BuildKey(redis_a.PrefixDashboard, period)
	var dashboard DashboardData

	err := h.cache.GetOrSet(ctx, cacheKey, &dashboard, func() (interface{}, error) {
		return h.load(ctx, period, since)
	}, dashboardTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard",
			slog.String("period", period),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) load(ctx context.Context, period string, since time.Time) (*DashboardData, error) {
	dashboard := &DashboardData{
		Period:      period,
		GeneratedAt: time.Now(),
	}

	var err error
	if dashboard.Products, err = h.repo.Count(ctx); err != nil {
		return nil, err
	}
	if dashboard.Summary, err = h.repo.SalesSummary(ctx, since); err != nil {
		return nil, err
	}
	if dashboard.TopSellers, err = h.repo.TopSellers(ctx, since, 10); err != nil {
		return nil, err
	}
	if dashboard.Categories, err = h.repo.CategoryPerformance(ctx, since); err != nil {
		return nil, err
	}
	if dashboard.LowStock, err = h.repo.LowStock(ctx, 20); err != nil {
		return nil, err
	}

	return dashboard, nil
}

// parsePeriod maps a period token to its window start. "all" and the
// empty string are valid; anything else is rejected.
func parsePeriod(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "", "30d":
		return now.AddDate(0, 0, -30), true
	case "7d":
		return now.AddDate(0, 0, -7), true
	case "90d":
		return now.AddDate(0, 0, -90), true
	case "all":
		return time.Time{}, true
	default:
		return time.Time{}, false
	}
}
