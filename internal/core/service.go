// Package core implements the procurement services, business rules, and
// storage selection on top of the domain persistence contracts.
package core

import (
	"context"
	"time"

	"procurecore/internal/infra/persistence/memory"
	"procurecore/pkg/domain"
)

type (
	// Material aliases domain.Material.
	Material = domain.Material
	// Requisition aliases domain.Requisition.
	Requisition = domain.Requisition
	// Order aliases domain.Order.
	Order = domain.Order
	// Result aliases domain.Result.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)

// Service exposes transactional procurement operations over a persistent
// store. All mutations run inside a store transaction evaluated by the
// rules engine.
type Service struct {
	store PersistentStore
	opts  serviceOptions
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, options ...ServiceOption) *Service {
	opts := defaultServiceOptions()
	for _, opt := range options {
		opt(&opts)
	}
	return &Service{store: store, opts: opts}
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine. A nil engine falls back to the default rule set.
func NewInMemoryService(engine *RulesEngine, options ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	store := memory.NewStore(engine)
	svc := NewService(store, options...)
	store.SetNowFunc(svc.opts.clock.Now)
	return svc
}

// NewDefaultRulesEngine returns an engine with the built-in procurement rules registered.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(StatusTransitionRule())
	engine.Register(MaterialReferenceRule())
	return engine
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// run executes fn in a store transaction with tracing, metrics, and logging
// around the operation.
func (s *Service) run(ctx context.Context, operation string, fn func(tx Transaction) error) (Result, error) {
	ctx, span := s.opts.tracer.Start(ctx, operation)
	started := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	elapsed := time.Since(started)
	s.opts.metrics.Observe(ctx, operation, err == nil, elapsed)
	span.End(err)
	if err != nil {
		s.opts.logger.Error("operation failed", "operation", operation, "error", err)
	} else {
		s.opts.logger.Debug("operation complete", "operation", operation, "duration_ms", float64(elapsed)/float64(time.Millisecond))
	}
	return res, err
}

// view executes fn against a read-only snapshot with the same instrumentation
// as run.
func (s *Service) view(ctx context.Context, operation string, fn func(view TransactionView) error) error {
	ctx, span := s.opts.tracer.Start(ctx, operation)
	started := time.Now()
	err := s.store.View(ctx, fn)
	elapsed := time.Since(started)
	s.opts.metrics.Observe(ctx, operation, err == nil, elapsed)
	span.End(err)
	if err != nil {
		s.opts.logger.Error("operation failed", "operation", operation, "error", err)
	}
	return err
}
