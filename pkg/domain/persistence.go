package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateMaterial(Material) (Material, error)
	UpdateMaterial(id string, mutator func(*Material) error) (Material, error)
	DeleteMaterial(id string) error
	CreateRequisition(Requisition) (Requisition, error)
	UpdateRequisition(id string, mutator func(*Requisition) error) (Requisition, error)
	DeleteRequisition(id string) error
	CreateOrder(Order) (Order, error)
	UpdateOrder(id string, mutator func(*Order) error) (Order, error)
	DeleteOrder(id string) error
	FindMaterialByNumber(number string) (Material, bool)
	FindRequisitionByNumber(number string) (Requisition, bool)
	FindOrderByNumber(number string) (Order, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListMaterials() []Material
	ListRequisitions() []Requisition
	ListOrders() []Order
	FindMaterial(id string) (Material, bool)
	FindMaterialByNumber(number string) (Material, bool)
	FindRequisition(id string) (Requisition, bool)
	FindOrder(id string) (Order, bool)
}

// PersistentStore is a minimal abstraction over storage backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetMaterial(number string) (Material, bool)
	ListMaterials() []Material
	GetRequisition(number string) (Requisition, bool)
	ListRequisitions() []Requisition
	GetOrder(number string) (Order, bool)
	ListOrders() []Order
}
