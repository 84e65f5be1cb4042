package memory

import (
	"time"

	"procurecore/pkg/domain"
)

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListMaterials returns all materials within the transaction snapshot.
func (v transactionView) ListMaterials() []Material {
	return v.state.materials.values()
}

// ListRequisitions returns all requisitions within the transaction snapshot.
func (v transactionView) ListRequisitions() []Requisition {
	return v.state.requisitions.values()
}

// ListOrders returns all orders within the transaction snapshot.
func (v transactionView) ListOrders() []Order {
	return v.state.orders.values()
}

// FindMaterial retrieves a material by internal ID from the snapshot.
func (v transactionView) FindMaterial(id string) (Material, bool) {
	return v.state.materials.get(id)
}

// FindMaterialByNumber retrieves a material by its material number.
func (v transactionView) FindMaterialByNumber(number string) (Material, bool) {
	return findMaterialByNumber(v.state, number)
}

// FindRequisition retrieves a requisition by internal ID from the snapshot.
func (v transactionView) FindRequisition(id string) (Requisition, bool) {
	return v.state.requisitions.get(id)
}

// FindOrder retrieves an order by internal ID from the snapshot.
func (v transactionView) FindOrder(id string) (Order, bool) {
	return v.state.orders.get(id)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindMaterialByNumber exposes material lookup within the transaction scope.
func (tx *transaction) FindMaterialByNumber(number string) (Material, bool) {
	return findMaterialByNumber(&tx.state, number)
}

// FindRequisitionByNumber exposes requisition lookup within the transaction scope.
func (tx *transaction) FindRequisitionByNumber(number string) (Requisition, bool) {
	return findRequisitionByNumber(&tx.state, number)
}

// FindOrderByNumber exposes order lookup within the transaction scope.
func (tx *transaction) FindOrderByNumber(number string) (Order, bool) {
	return findOrderByNumber(&tx.state, number)
}

// CreateMaterial stores a new material within the transaction. The material
// number is a unique business key.
func (tx *transaction) CreateMaterial(m Material) (Material, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if tx.state.materials.has(m.ID) {
		return Material{}, domain.ConflictError{Entity: domain.EntityMaterial, Key: m.ID, Reason: "id already exists"}
	}
	if _, exists := findMaterialByNumber(&tx.state, m.MaterialNumber); exists {
		return Material{}, domain.ConflictError{Entity: domain.EntityMaterial, Key: m.MaterialNumber, Reason: "material number already exists"}
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.materials.set(m.ID, m)
	tx.recordChange(Change{Entity: domain.EntityMaterial, Action: domain.ActionCreate, After: cloneMaterial(m)})
	return cloneMaterial(m), nil
}

// UpdateMaterial mutates a material using the provided mutator function.
func (tx *transaction) UpdateMaterial(id string, mutator func(*Material) error) (Material, error) {
	current, ok := tx.state.materials.get(id)
	if !ok {
		return Material{}, domain.NotFoundError{Entity: domain.EntityMaterial, ID: id}
	}
	before := cloneMaterial(current)
	if err := mutator(&current); err != nil {
		return Material{}, err
	}
	if current.MaterialNumber != before.MaterialNumber {
		if _, exists := findMaterialByNumber(&tx.state, current.MaterialNumber); exists {
			return Material{}, domain.ConflictError{Entity: domain.EntityMaterial, Key: current.MaterialNumber, Reason: "material number already exists"}
		}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.materials.set(id, current)
	tx.recordChange(Change{Entity: domain.EntityMaterial, Action: domain.ActionUpdate, Before: before, After: cloneMaterial(current)})
	return cloneMaterial(current), nil
}

// DeleteMaterial removes a material from the transaction state.
func (tx *transaction) DeleteMaterial(id string) error {
	current, ok := tx.state.materials.get(id)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityMaterial, ID: id}
	}
	tx.state.materials.delete(id)
	tx.recordChange(Change{Entity: domain.EntityMaterial, Action: domain.ActionDelete, Before: cloneMaterial(current)})
	return nil
}

// CreateRequisition stores a new purchase requisition.
func (tx *transaction) CreateRequisition(r Requisition) (Requisition, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if tx.state.requisitions.has(r.ID) {
		return Requisition{}, domain.ConflictError{Entity: domain.EntityRequisition, Key: r.ID, Reason: "id already exists"}
	}
	if _, exists := findRequisitionByNumber(&tx.state, r.DocumentNumber); exists {
		return Requisition{}, domain.ConflictError{Entity: domain.EntityRequisition, Key: r.DocumentNumber, Reason: "document number already exists"}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.requisitions.set(r.ID, r)
	tx.recordChange(Change{Entity: domain.EntityRequisition, Action: domain.ActionCreate, After: cloneRequisition(r)})
	return cloneRequisition(r), nil
}

// UpdateRequisition mutates an existing requisition.
func (tx *transaction) UpdateRequisition(id string, mutator func(*Requisition) error) (Requisition, error) {
	current, ok := tx.state.requisitions.get(id)
	if !ok {
		return Requisition{}, domain.NotFoundError{Entity: domain.EntityRequisition, ID: id}
	}
	before := cloneRequisition(current)
	if err := mutator(&current); err != nil {
		return Requisition{}, err
	}
	if current.DocumentNumber != before.DocumentNumber {
		if _, exists := findRequisitionByNumber(&tx.state, current.DocumentNumber); exists {
			return Requisition{}, domain.ConflictError{Entity: domain.EntityRequisition, Key: current.DocumentNumber, Reason: "document number already exists"}
		}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.requisitions.set(id, current)
	tx.recordChange(Change{Entity: domain.EntityRequisition, Action: domain.ActionUpdate, Before: before, After: cloneRequisition(current)})
	return cloneRequisition(current), nil
}

// DeleteRequisition removes a requisition from the transaction state.
func (tx *transaction) DeleteRequisition(id string) error {
	current, ok := tx.state.requisitions.get(id)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityRequisition, ID: id}
	}
	tx.state.requisitions.delete(id)
	tx.recordChange(Change{Entity: domain.EntityRequisition, Action: domain.ActionDelete, Before: cloneRequisition(current)})
	return nil
}

// CreateOrder stores a new purchase order.
func (tx *transaction) CreateOrder(o Order) (Order, error) {
	if o.ID == "" {
		o.ID = tx.store.newID()
	}
	if tx.state.orders.has(o.ID) {
		return Order{}, domain.ConflictError{Entity: domain.EntityOrder, Key: o.ID, Reason: "id already exists"}
	}
	if _, exists := findOrderByNumber(&tx.state, o.DocumentNumber); exists {
		return Order{}, domain.ConflictError{Entity: domain.EntityOrder, Key: o.DocumentNumber, Reason: "document number already exists"}
	}
	o.CreatedAt = tx.now
	o.UpdatedAt = tx.now
	tx.state.orders.set(o.ID, o)
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionCreate, After: cloneOrder(o)})
	return cloneOrder(o), nil
}

// UpdateOrder mutates an existing order.
func (tx *transaction) UpdateOrder(id string, mutator func(*Order) error) (Order, error) {
	current, ok := tx.state.orders.get(id)
	if !ok {
		return Order{}, domain.NotFoundError{Entity: domain.EntityOrder, ID: id}
	}
	before := cloneOrder(current)
	if err := mutator(&current); err != nil {
		return Order{}, err
	}
	if current.DocumentNumber != before.DocumentNumber {
		if _, exists := findOrderByNumber(&tx.state, current.DocumentNumber); exists {
			return Order{}, domain.ConflictError{Entity: domain.EntityOrder, Key: current.DocumentNumber, Reason: "document number already exists"}
		}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.orders.set(id, current)
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionUpdate, Before: before, After: cloneOrder(current)})
	return cloneOrder(current), nil
}

// DeleteOrder removes an order from the transaction state.
func (tx *transaction) DeleteOrder(id string) error {
	current, ok := tx.state.orders.get(id)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityOrder, ID: id}
	}
	tx.state.orders.delete(id)
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionDelete, Before: cloneOrder(current)})
	return nil
}
