package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/adapter"
)

var _ adapter.ProviderAdapter = (*NoopAdapter)(nil)

// NoopAdapter is a simple in-memory adapter for dev mode and tests. It
// records every dispatched refund and always succeeds.
type NoopAdapter struct {
	rail model.SettlementRail

	mu       sync.Mutex
	seq      int64
	Refunded []adapter.RefundInput
}

func NewNoopAdapter(rail model.SettlementRail) *NoopAdapter {
	return &NoopAdapter{rail: rail}
}

func (a *NoopAdapter) Rail() model.SettlementRail { return a.rail }

func (a *NoopAdapter) Refund(ctx context.Context, in adapter.RefundInput) (adapter.RefundResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	a.Refunded = append(a.Refunded, in)
	return adapter.RefundResult{
		Success:    true,
		RefundID:   fmt.Sprintf("noop-%s-%d", a.rail, a.seq),
		RefundTime: time.Now(),
	}, nil
}
