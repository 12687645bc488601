package httpapi

import (
	"context"
	"sync/atomic"

	"scout-engine/internal/alerts"
	"scout-engine/internal/config"
	"scout-engine/internal/domain"
	"scout-engine/internal/events"
	"scout-engine/internal/scrape"
)

// ListingService is the aggregated feed collaborator.
type ListingService interface {
	Snapshot(ctx context.Context) (scrape.Snapshot, error)
	Refresh(ctx context.Context) (scrape.Snapshot, error)
}

// SubscriptionCreator registers alert subscriptions.
type SubscriptionCreator interface {
	Create(ctx context.Context, email string, criteria []domain.Criterion) (domain.Subscription, error)
}

type Deps struct {
	Hub *events.Hub

	// Atomic store for config.Config
	CfgVal *atomic.Value

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Listings ListingService
	Subs     SubscriptionCreator

	// Alert cycle entrypoint (inject for testability)
	RunAlertCycle func(ctx context.Context) (alerts.CycleReport, error)
}
