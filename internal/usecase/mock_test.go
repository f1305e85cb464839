//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"refund-orchestration/internal/domain"
	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/adapter"
	"refund-orchestration/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// MockTxManager serializes callbacks with a mutex, standing in for the
// row-level locking the Postgres implementation gets from FOR UPDATE.
type MockTxManager struct {
	mu sync.Mutex
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}

// --- Orders ---

type MockOrderRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Order
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{store: make(map[string]*model.Order)}
}

func (m *MockOrderRepo) Put(o *model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.store[o.ID] = &cp
}

func (m *MockOrderRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, _ repository.Tx, id string, status model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *MockOrderRepo) ListWithCompletedRefunds(ctx context.Context, _ repository.Tx, limit int) ([]string, error) {
	return nil, nil
}

// --- Payments ---

type MockPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Payment
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Put(p *model.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[p.ID] = p
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// --- Refund requests ---

type MockRefundRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.RefundRequest
	order   []string // insertion order, for deterministic listings
	saveErr error
	markErr error
}

func NewMockRefundRepo() *MockRefundRepo {
	return &MockRefundRepo{store: make(map[string]*model.RefundRequest)}
}

func (m *MockRefundRepo) Save(ctx context.Context, _ repository.Tx, r *model.RefundRequest) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	if _, exists := m.store[r.ID]; !exists {
		m.order = append(m.order, r.ID)
	}
	m.store[r.ID] = &cp
	return nil
}

func (m *MockRefundRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.RefundRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRefundRepo) ListByOrder(ctx context.Context, _ repository.Tx, orderID string) ([]*model.RefundRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.RefundRequest
	for _, id := range m.order {
		if r := m.store[id]; r.OrderID == orderID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockRefundRepo) SumCompletedByOrder(ctx context.Context, _ repository.Tx, orderID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, r := range m.store {
		if r.OrderID == orderID && r.Status == model.RefundStatusCompleted {
			sum += r.Amount
		}
	}
	return sum, nil
}

func (m *MockRefundRepo) SumReservedByOrder(ctx context.Context, _ repository.Tx, orderID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, r := range m.store {
		if r.OrderID == orderID && r.Status != model.RefundStatusRejected {
			sum += r.Amount
		}
	}
	return sum, nil
}

func (m *MockRefundRepo) MarkCompleted(ctx context.Context, _ repository.Tx, id string, rail model.SettlementRail, providerRefundID string, processedAt time.Time) (bool, error) {
	if m.markErr != nil {
		return false, m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok || r.Status != model.RefundStatusPending {
		return false, nil
	}
	r.Status = model.RefundStatusCompleted
	r.Provider = &rail
	r.ProviderRefundID = &providerRefundID
	r.ProcessedAt = &processedAt
	return true, nil
}

func (m *MockRefundRepo) MarkRejected(ctx context.Context, _ repository.Tx, id string, rail *model.SettlementRail, notes string, processedAt time.Time) (bool, error) {
	if m.markErr != nil {
		return false, m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok || r.Status != model.RefundStatusPending {
		return false, nil
	}
	r.Status = model.RefundStatusRejected
	if rail != nil {
		r.Provider = rail
	}
	if r.Notes == "" {
		r.Notes = notes
	} else {
		r.Notes = r.Notes + " " + notes
	}
	r.ProcessedAt = &processedAt
	return true, nil
}

func (m *MockRefundRepo) ListPendingOlderThan(ctx context.Context, _ repository.Tx, olderThan time.Time, limit int) ([]*model.RefundRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.RefundRequest
	for _, id := range m.order {
		r := m.store[id]
		if r.Status == model.RefundStatusPending && r.CreatedAt.Before(olderThan) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- Wallet ---

type MockWalletRepo struct {
	mu    sync.RWMutex
	store []*model.WalletTransaction
}

func NewMockWalletRepo() *MockWalletRepo { return &MockWalletRepo{} }

func (m *MockWalletRepo) Save(ctx context.Context, _ repository.Tx, wt *model.WalletTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *wt
	m.store = append(m.store, &cp)
	return nil
}

func (m *MockWalletRepo) BalanceByOrganization(ctx context.Context, _ repository.Tx, orgID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, wt := range m.store {
		if wt.OrganizationID == orgID {
			sum += wt.Amount
		}
	}
	return sum, nil
}

// --- Provider adapter ---

// MockAdapter is a scriptable settlement adapter that counts its calls.
type MockAdapter struct {
	rail model.SettlementRail

	mu     sync.Mutex
	calls  int
	Inputs []adapter.RefundInput
	Result adapter.RefundResult
	Err    error
	// RefundFunc overrides the scripted result when set.
	RefundFunc func(ctx context.Context, in adapter.RefundInput) (adapter.RefundResult, error)
}

func NewMockAdapter(rail model.SettlementRail) *MockAdapter {
	return &MockAdapter{
		rail:   rail,
		Result: adapter.RefundResult{Success: true, RefundID: "ref-" + string(rail), RefundTime: time.Now()},
	}
}

func (m *MockAdapter) Rail() model.SettlementRail { return m.rail }

func (m *MockAdapter) Refund(ctx context.Context, in adapter.RefundInput) (adapter.RefundResult, error) {
	m.mu.Lock()
	m.calls++
	m.Inputs = append(m.Inputs, in)
	m.mu.Unlock()
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, in)
	}
	return m.Result, m.Err
}

func (m *MockAdapter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Locker ---

type MockLocker struct {
	mu     sync.Mutex
	held   map[string]string
	Denied bool // simulate an unavailable lock service
}

func NewMockLocker() *MockLocker { return &MockLocker{held: make(map[string]string)} }

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.Denied {
		return "", domain.ErrOrderBusy
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.held[key]; taken {
		return "", domain.ErrOrderBusy
	}
	m.held[key] = key
	return key, nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}
