// Package domain defines the core procurement entities, value types, and
// rule evaluation primitives used by procurecore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityMaterial identifies a material master record.
	EntityMaterial EntityType = "material"
	// EntityRequisition identifies a purchase requisition document.
	EntityRequisition EntityType = "requisition"
	// EntityOrder identifies a purchase order document.
	EntityOrder EntityType = "order"
)

// MaterialType classifies a material master record.
type MaterialType string

// Canonical material types. The type selects the prefix of generated
// material numbers.
const (
	MaterialTypeRaw          MaterialType = "raw"
	MaterialTypeSemifinished MaterialType = "semifinished"
	MaterialTypeFinished     MaterialType = "finished"
	MaterialTypeService      MaterialType = "service"
	MaterialTypeTrading      MaterialType = "trading"
)

// MaterialStatus represents the lifecycle state of a material master record.
type MaterialStatus string

// Canonical material statuses. Deprecated is terminal: a deprecated material
// can never return to active or inactive.
const (
	MaterialStatusActive     MaterialStatus = "active"
	MaterialStatusInactive   MaterialStatus = "inactive"
	MaterialStatusDeprecated MaterialStatus = "deprecated"
)

// DocumentStatus represents the lifecycle state of a procurement document.
// Requisitions and orders share the value space but follow different edges;
// the permitted transitions live in the status transition rule.
type DocumentStatus string

// Canonical document statuses.
const (
	DocumentStatusDraft             DocumentStatus = "draft"
	DocumentStatusSubmitted         DocumentStatus = "submitted"
	DocumentStatusApproved          DocumentStatus = "approved"
	DocumentStatusRejected          DocumentStatus = "rejected"
	DocumentStatusOrdered           DocumentStatus = "ordered"
	DocumentStatusPartiallyReceived DocumentStatus = "partially_received"
	DocumentStatusReceived          DocumentStatus = "received"
	DocumentStatusCompleted         DocumentStatus = "completed"
	DocumentStatusCanceled          DocumentStatus = "canceled"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Material represents a material master record.
type Material struct {
	Base
	MaterialNumber string         `json:"material_number"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Type           MaterialType   `json:"type"`
	Status         MaterialStatus `json:"status"`
	BaseUnit       string         `json:"base_unit,omitempty"`
	Weight         *float64       `json:"weight,omitempty"`
	Volume         *float64       `json:"volume,omitempty"`
	Dimensions     string         `json:"dimensions,omitempty"`
}

// RequisitionItem is a single line of a purchase requisition.
type RequisitionItem struct {
	ItemNumber      int     `json:"item_number"`
	MaterialNumber  string  `json:"material_number,omitempty"`
	Description     string  `json:"description"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit"`
	Price           float64 `json:"price"`
	AssignedToOrder *string `json:"assigned_to_order,omitempty"`
}

// Requisition represents an internal request to purchase goods or services.
type Requisition struct {
	Base
	DocumentNumber string            `json:"document_number"`
	Description    string            `json:"description,omitempty"`
	Requester      string            `json:"requester"`
	Department     string            `json:"department,omitempty"`
	Status         DocumentStatus    `json:"status"`
	Notes          string            `json:"notes,omitempty"`
	Items          []RequisitionItem `json:"items"`
}

// TotalValue sums quantity times price across all lines.
func (r Requisition) TotalValue() float64 {
	var total float64
	for _, item := range r.Items {
		total += item.Quantity * item.Price
	}
	return total
}

// OrderItem is a single line of a purchase order. RequisitionItem carries the
// originating requisition line number when the order was created by
// conversion; zero means the line was entered directly.
type OrderItem struct {
	ItemNumber       int     `json:"item_number"`
	MaterialNumber   string  `json:"material_number,omitempty"`
	Description      string  `json:"description"`
	Quantity         float64 `json:"quantity"`
	Unit             string  `json:"unit"`
	Price            float64 `json:"price"`
	ReceivedQuantity float64 `json:"received_quantity"`
	RequisitionItem  int     `json:"requisition_item,omitempty"`
}

// FullyReceived reports whether the received quantity covers the ordered quantity.
func (i OrderItem) FullyReceived() bool {
	return i.Quantity > 0 && i.ReceivedQuantity >= i.Quantity
}

// Order represents a vendor-facing purchase document.
type Order struct {
	Base
	DocumentNumber string         `json:"document_number"`
	Vendor         string         `json:"vendor"`
	Description    string         `json:"description,omitempty"`
	Requester      string         `json:"requester,omitempty"`
	PaymentTerms   string         `json:"payment_terms,omitempty"`
	Status         DocumentStatus `json:"status"`
	Notes          string         `json:"notes,omitempty"`
	// RequisitionRef links back to the originating requisition. Immutable
	// once set.
	RequisitionRef *string     `json:"requisition_reference,omitempty"`
	Items          []OrderItem `json:"items"`
}

// TotalValue sums quantity times price across all lines.
func (o Order) TotalValue() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Quantity * item.Price
	}
	return total
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
