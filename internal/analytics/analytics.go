// Package analytics computes aggregate reporting over an organization's
// deals, with a Redis read-through cache in front of the heavier queries.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/atriumcrm/atrium/internal/cache"
	"github.com/atriumcrm/atrium/internal/deal"
)

// StatusSummary aggregates the organization's deals in one status.
type StatusSummary struct {
	Status      deal.Status `json:"status"`
	Count       int         `json:"count"`
	TotalAmount deal.Amount `json:"total_amount"`
}

// Summary is the per-status rollup plus the won-average and the count of
// deals created inside the requested window.
type Summary struct {
	ByStatus          []StatusSummary `json:"by_status"`
	AvgWonAmount      *deal.Amount    `json:"avg_won_amount"`
	NewDealsLastNDays int             `json:"new_deals_last_n_days"`
	Days              int             `json:"days"`
}

// FunnelStage is one pipeline stage with its status breakdown and the
// conversion rate from the previous stage.
type FunnelStage struct {
	Stage                  deal.Stage       `json:"stage"`
	StageOrder             int              `json:"stage_order"`
	TotalCount             int              `json:"total_count"`
	StatusBreakdown        map[string]int   `json:"status_breakdown"`
	ConversionFromPrevious *float64         `json:"conversion_from_previous"`
}

// Funnel lists every pipeline stage in order, including empty ones.
type Funnel struct {
	Stages []FunnelStage `json:"stages"`
}

// DealStats is the slice of the deal store the analytics queries need.
type DealStats interface {
	SummaryByStatus(ctx context.Context, organizationID string, cutoff time.Time) ([]deal.StatusAggregate, error)
	FunnelCounts(ctx context.Context, organizationID string) ([]deal.StageStatusCount, error)
}

// CacheMetrics counts cache hits and misses per report.
type CacheMetrics interface {
	IncCacheHit(report string)
	IncCacheMiss(report string)
}

// Service computes and caches analytics responses. It also acts as the
// deal-change listener that invalidates the cache.
type Service struct {
	stats   DealStats
	cache   cache.Cache
	ttl     time.Duration
	metrics CacheMetrics
}

// NewService creates an analytics service. c may be nil to disable caching.
func NewService(stats DealStats, c cache.Cache, ttl time.Duration) *Service {
	return &Service{stats: stats, cache: c, ttl: ttl}
}

// SetMetrics attaches a hit/miss counter. Optional.
func (s *Service) SetMetrics(m CacheMetrics) { s.metrics = m }

// Summarize aggregates deals by status for the organization. days bounds the
// new-deal window; values outside 1..365 fall back to 30.
func (s *Service) Summarize(ctx context.Context, organizationID string, days int) (Summary, error) {
	if days < 1 || days > 365 {
		days = 30
	}

	key := fmt.Sprintf("analytics:summary:%s:%d", organizationID, days)
	var cached Summary
	if s.cacheGet(ctx, "summary", key, &cached) {
		return cached, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	aggs, err := s.stats.SummaryByStatus(ctx, organizationID, cutoff)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{ByStatus: []StatusSummary{}, Days: days}
	for _, a := range aggs {
		summary.ByStatus = append(summary.ByStatus, StatusSummary{
			Status:      a.Status,
			Count:       a.Count,
			TotalAmount: a.TotalAmount,
		})
		if a.Status == deal.StatusWon && a.AvgWon != nil {
			avg := deal.Amount(math.Round(*a.AvgWon))
			summary.AvgWonAmount = &avg
		}
		summary.NewDealsLastNDays += a.NewInWindow
	}

	s.cacheSet(ctx, key, summary)
	return summary, nil
}

// Funnel breaks the organization's deals down by pipeline stage. Every stage
// appears in pipeline order even when empty; conversion_from_previous is nil
// for the first stage and whenever the previous stage is empty.
func (s *Service) Funnel(ctx context.Context, organizationID string) (Funnel, error) {
	key := "analytics:funnel:" + organizationID
	var cached Funnel
	if s.cacheGet(ctx, "funnel", key, &cached) {
		return cached, nil
	}

	counts, err := s.stats.FunnelCounts(ctx, organizationID)
	if err != nil {
		return Funnel{}, err
	}

	breakdowns := make(map[deal.Stage]map[string]int)
	totals := make(map[deal.Stage]int)
	for _, c := range counts {
		if breakdowns[c.Stage] == nil {
			breakdowns[c.Stage] = make(map[string]int)
		}
		breakdowns[c.Stage][string(c.Status)] += c.Count
		totals[c.Stage] += c.Count
	}

	funnel := Funnel{}
	var prevTotal *int
	for _, stage := range deal.Stages() {
		breakdown := breakdowns[stage]
		if breakdown == nil {
			breakdown = map[string]int{}
		}
		total := totals[stage]

		var conversion *float64
		if prevTotal != nil && *prevTotal > 0 {
			rate := math.Round(float64(total)/float64(*prevTotal)*100*100) / 100
			conversion = &rate
		}

		funnel.Stages = append(funnel.Stages, FunnelStage{
			Stage:                  stage,
			StageOrder:             deal.StageOrder[stage],
			TotalCount:             total,
			StatusBreakdown:        breakdown,
			ConversionFromPrevious: conversion,
		})

		t := total
		prevTotal = &t
	}

	s.cacheSet(ctx, key, funnel)
	return funnel, nil
}

// DealChanged invalidates every cached analytics response for the
// organization. It satisfies the deal service's change listener.
func (s *Service) DealChanged(ctx context.Context, organizationID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("analytics:*:%s*", organizationID)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		slog.Warn("analytics cache invalidation failed", "organization_id", organizationID, "error", err)
	}
}

func (s *Service) cacheGet(ctx context.Context, report, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		if s.metrics != nil {
			s.metrics.IncCacheHit(report)
		}
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("analytics cache read failed", "key", key, "error", err)
	}
	if s.metrics != nil {
		s.metrics.IncCacheMiss(report)
	}
	return false
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		slog.Warn("analytics cache write failed", "key", key, "error", err)
	}
}
