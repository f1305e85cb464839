package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"refund-orchestration/internal/domain"
	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/adapter"
	"refund-orchestration/internal/infra/logging"
	"refund-orchestration/internal/infra/metrics"
)

// ProviderRouter decides which settlement backend services a refund. The
// source payment recorded one coarse provider tag for what are operationally
// three distinct rails, so routing inspects payment metadata via
// model.ClassifyRail and keeps a registry of adapters by rail.
type ProviderRouter struct {
	adapters map[model.SettlementRail]adapter.ProviderAdapter
	log      *zerolog.Logger
}

func NewProviderRouter(logger *zerolog.Logger, adapters ...adapter.ProviderAdapter) *ProviderRouter {
	r := &ProviderRouter{
		adapters: make(map[model.SettlementRail]adapter.ProviderAdapter, len(adapters)),
		log:      logger,
	}
	for _, a := range adapters {
		r.adapters[a.Rail()] = a
	}
	return r
}

// Register adds or replaces the adapter for its rail.
func (r *ProviderRouter) Register(a adapter.ProviderAdapter) {
	r.adapters[a.Rail()] = a
}

// ByRail returns the adapter registered for a rail, for callers that already
// know the destination (the wallet path).
func (r *ProviderRouter) ByRail(rail model.SettlementRail) (adapter.ProviderAdapter, error) {
	a, ok := r.adapters[rail]
	if !ok {
		return nil, domain.ErrUnsupportedProvider
	}
	return a, nil
}

// Resolve classifies the payment's settlement rail and returns the matching
// adapter. A misroute would send the refund to a settlement API that will
// reject it, so classification uses the richest signal available and only
// guesses when no signal exists at all; that guess is logged loudly for manual
// review, never treated as a confident answer.
func (r *ProviderRouter) Resolve(ctx context.Context, p *model.Payment) (adapter.ProviderAdapter, model.SettlementRail, error) {
	rail, fallback, ok := model.ClassifyRail(p)
	if !ok {
		logging.With(ctx, r.log).Error().
			Str("payment_id", p.ID).
			Str("provider", p.Provider).
			Msg("no settlement rail matches payment provider tag")
		return nil, "", domain.ErrUnsupportedProvider
	}
	if fallback {
		keys := make([]string, 0, len(p.Metadata))
		for k := range p.Metadata {
			keys = append(keys, k)
		}
		logging.With(ctx, r.log).Warn().
			Str("payment_id", p.ID).
			Str("rail", string(rail)).
			Strs("metadata_keys", keys).
			Msg("ambiguous payment metadata, assuming session rail; flag for manual review")
		metrics.IncRailFallback(p.Provider)
	}
	a, ok := r.adapters[rail]
	if !ok {
		logging.With(ctx, r.log).Error().
			Str("payment_id", p.ID).
			Str("rail", string(rail)).
			Msg("classified rail has no registered adapter")
		return nil, "", domain.ErrUnsupportedProvider
	}
	return a, rail, nil
}
