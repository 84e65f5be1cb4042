// Package memory provides the canonical in-memory implementation of the
// procurement persistence store.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"procurecore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Material aliases domain.Material for in-memory persistence operations.
	Material = domain.Material
	// Requisition aliases domain.Requisition.
	Requisition = domain.Requisition
	// Order aliases domain.Order.
	Order = domain.Order
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	materials    collection[Material]
	requisitions collection[Requisition]
	orders       collection[Order]
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Materials    map[string]Material    `json:"materials"`
	Requisitions map[string]Requisition `json:"requisitions"`
	Orders       map[string]Order       `json:"orders"`
}

func newMemoryState() memoryState {
	return memoryState{
		materials:    newCollection(cloneMaterial),
		requisitions: newCollection(cloneRequisition),
		orders:       newCollection(cloneOrder),
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		materials:    s.materials.copy(),
		requisitions: s.requisitions.copy(),
		orders:       s.orders.copy(),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Materials:    state.materials.export(),
		Requisitions: state.requisitions.export(),
		Orders:       state.orders.export(),
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Materials {
		state.materials.set(k, v)
	}
	for k, v := range s.Requisitions {
		state.requisitions.set(k, v)
	}
	for k, v := range s.Orders {
		state.orders.set(k, v)
	}
	return state
}

// migrateSnapshot normalizes snapshots loaded from external storage so
// older or hand-edited payloads import cleanly.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Materials == nil {
		snapshot.Materials = map[string]Material{}
	}
	if snapshot.Requisitions == nil {
		snapshot.Requisitions = map[string]Requisition{}
	}
	if snapshot.Orders == nil {
		snapshot.Orders = map[string]Order{}
	}

	requisitionNumbers := make(map[string]struct{}, len(snapshot.Requisitions))
	for _, requisition := range snapshot.Requisitions {
		requisitionNumbers[requisition.DocumentNumber] = struct{}{}
	}

	for id, order := range snapshot.Orders {
		if order.RequisitionRef != nil {
			if _, ok := requisitionNumbers[*order.RequisitionRef]; !ok {
				order.RequisitionRef = nil
			}
		}
		for i, item := range order.Items {
			if item.ReceivedQuantity < 0 {
				item.ReceivedQuantity = 0
			}
			order.Items[i] = item
		}
		snapshot.Orders[id] = order
	}

	return snapshot
}

func cloneMaterial(m Material) Material {
	cp := m
	if m.Weight != nil {
		w := *m.Weight
		cp.Weight = &w
	}
	if m.Volume != nil {
		v := *m.Volume
		cp.Volume = &v
	}
	return cp
}

func cloneRequisition(r Requisition) Requisition {
	cp := r
	cp.Items = make([]domain.RequisitionItem, len(r.Items))
	for i, item := range r.Items {
		ic := item
		if item.AssignedToOrder != nil {
			ref := *item.AssignedToOrder
			ic.AssignedToOrder = &ref
		}
		cp.Items[i] = ic
	}
	return cp
}

func cloneOrder(o Order) Order {
	cp := o
	if o.RequisitionRef != nil {
		ref := *o.RequisitionRef
		cp.RequisitionRef = &ref
	}
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return cp
}

// Store provides an in-memory transactional store for the procurement domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc overrides the time provider, primarily for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// RunInTransaction executes fn within a transactional copy of the store
// state. The state swap happens only when fn succeeds and no blocking rule
// violation is reported.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// GetMaterial returns a material by its material number.
func (s *Store) GetMaterial(number string) (Material, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findMaterialByNumber(&s.state, number)
}

// ListMaterials returns all materials ordered by internal ID.
func (s *Store) ListMaterials() []Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.materials.values()
}

// GetRequisition returns a requisition by its document number.
func (s *Store) GetRequisition(number string) (Requisition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRequisitionByNumber(&s.state, number)
}

// ListRequisitions returns all requisitions ordered by internal ID.
func (s *Store) ListRequisitions() []Requisition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.requisitions.values()
}

// GetOrder returns an order by its document number.
func (s *Store) GetOrder(number string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findOrderByNumber(&s.state, number)
}

// ListOrders returns all orders ordered by internal ID.
func (s *Store) ListOrders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.orders.values()
}

func findMaterialByNumber(state *memoryState, number string) (Material, bool) {
	for _, m := range state.materials.items {
		if m.MaterialNumber == number {
			return cloneMaterial(m), true
		}
	}
	return Material{}, false
}

func findRequisitionByNumber(state *memoryState, number string) (Requisition, bool) {
	for _, r := range state.requisitions.items {
		if r.DocumentNumber == number {
			return cloneRequisition(r), true
		}
	}
	return Requisition{}, false
}

func findOrderByNumber(state *memoryState, number string) (Order, bool) {
	for _, o := range state.orders.items {
		if o.DocumentNumber == number {
			return cloneOrder(o), true
		}
	}
	return Order{}, false
}
