package core

import (
	"context"
	"fmt"
	"strings"

	"procurecore/pkg/domain"
)

// OrderUpdate is a partial update applied to an order. Nil fields are left
// unchanged; a nil Items slice leaves the lines untouched. The requisition
// reference is not patchable.
type OrderUpdate struct {
	Vendor       *string                `json:"vendor,omitempty"`
	Description  *string                `json:"description,omitempty"`
	Requester    *string                `json:"requester,omitempty"`
	PaymentTerms *string                `json:"payment_terms,omitempty"`
	Notes        *string                `json:"notes,omitempty"`
	Status       *domain.DocumentStatus `json:"status,omitempty"`
	Items        []domain.OrderItem     `json:"items,omitempty"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Statuses       []domain.DocumentStatus
	Vendor         string
	RequisitionRef string
	Search         string
}

// CreateOrder persists a new order in draft status. The vendor is required
// and material references must resolve to known, non-deprecated materials.
func (s *Service) CreateOrder(ctx context.Context, order Order) (Order, Result, error) {
	var created Order
	res, err := s.run(ctx, "create_order", func(tx Transaction) error {
		if err := validateVendor(order.Vendor); err != nil {
			return err
		}
		if order.DocumentNumber == "" {
			order.DocumentNumber = generateDocumentNumber(orderNumberPrefix)
		}
		if !validDocumentNumber(order.DocumentNumber) {
			return domain.NewValidationError(
				fmt.Sprintf("invalid document number %q", order.DocumentNumber),
				map[string]string{"field": "document_number", "reason": "invalid_format"})
		}
		order.Status = domain.DocumentStatusDraft
		renumberOrderItems(order.Items)
		if err := validateOrderMaterialRefs(tx, order.Items); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateOrder(order)
		return err
	})
	return created, res, err
}

// CreateOrderFromRequisition converts an approved requisition into a new
// draft order within a single transaction. Items are copied preserving
// quantity, unit, and price; both documents are stamped with back-references
// and the requisition moves to ordered.
func (s *Service) CreateOrderFromRequisition(ctx context.Context, requisitionNumber, vendor, paymentTerms string) (Order, Result, error) {
	var created Order
	res, err := s.run(ctx, "create_order_from_requisition", func(tx Transaction) error {
		requisition, ok := tx.FindRequisitionByNumber(requisitionNumber)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityRequisition, ID: requisitionNumber}
		}
		if requisition.Status != domain.DocumentStatusApproved {
			return documentStatusError("cannot create order from requisition", requisitionNumber, requisition.Status, domain.DocumentStatusApproved)
		}
		if err := validateVendor(vendor); err != nil {
			return err
		}

		ref := requisitionNumber
		order := Order{
			DocumentNumber: generateDocumentNumber(orderNumberPrefix),
			Vendor:         vendor,
			Description:    requisition.Description,
			Requester:      requisition.Requester,
			PaymentTerms:   paymentTerms,
			Status:         domain.DocumentStatusDraft,
			RequisitionRef: &ref,
			Items:          make([]domain.OrderItem, 0, len(requisition.Items)),
		}
		for _, item := range requisition.Items {
			order.Items = append(order.Items, domain.OrderItem{
				ItemNumber:      item.ItemNumber,
				MaterialNumber:  item.MaterialNumber,
				Description:     item.Description,
				Quantity:        item.Quantity,
				Unit:            item.Unit,
				Price:           item.Price,
				RequisitionItem: item.ItemNumber,
			})
		}

		var err error
		created, err = tx.CreateOrder(order)
		if err != nil {
			return err
		}
		orderNumber := created.DocumentNumber
		_, err = tx.UpdateRequisition(requisition.ID, func(r *Requisition) error {
			r.Status = domain.DocumentStatusOrdered
			for i := range r.Items {
				assigned := orderNumber
				r.Items[i].AssignedToOrder = &assigned
			}
			return nil
		})
		return err
	})
	return created, res, err
}

// GetOrder returns an order by document number.
func (s *Service) GetOrder(ctx context.Context, number string) (Order, error) {
	var found Order
	err := s.view(ctx, "get_order", func(view TransactionView) error {
		for _, o := range view.ListOrders() {
			if o.DocumentNumber == number {
				found = o
				return nil
			}
		}
		return domain.NotFoundError{Entity: domain.EntityOrder, ID: number}
	})
	return found, err
}

// ListOrders returns orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	var out []Order
	err := s.view(ctx, "list_orders", func(view TransactionView) error {
		for _, o := range view.ListOrders() {
			if matchesOrderFilter(o, filter) {
				out = append(out, o)
			}
		}
		return nil
	})
	return out, err
}

// UpdateOrder applies a partial update. Items are frozen once the order
// leaves draft, and status changes must follow the order status machine.
func (s *Service) UpdateOrder(ctx context.Context, number string, patch OrderUpdate) (Order, Result, error) {
	var updated Order
	res, err := s.run(ctx, "update_order", func(tx Transaction) error {
		current, ok := tx.FindOrderByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityOrder, ID: number}
		}
		if current.Status != domain.DocumentStatusDraft && patch.Items != nil {
			return domain.NewValidationError("cannot update items after order is submitted", map[string]string{
				"document_number": number,
				"current_status":  string(current.Status),
				"reason":          "items_frozen",
			})
		}
		if patch.Status != nil && *patch.Status != current.Status {
			if err := checkDocumentTransition(orderMachine, number, current.Status, *patch.Status); err != nil {
				return err
			}
			if *patch.Status == domain.DocumentStatusSubmitted {
				vendor := current.Vendor
				if patch.Vendor != nil {
					vendor = *patch.Vendor
				}
				if err := validateVendor(vendor); err != nil {
					return err
				}
				items := current.Items
				if patch.Items != nil {
					items = patch.Items
				}
				if err := validateOrderItems(number, items); err != nil {
					return err
				}
			}
		}
		if patch.Items != nil {
			renumberOrderItems(patch.Items)
			if err := validateOrderMaterialRefs(tx, patch.Items); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.UpdateOrder(current.ID, func(o *Order) error {
			applyOrderPatch(o, patch)
			return nil
		})
		return err
	})
	return updated, res, err
}

// SubmitOrder moves a draft order to submitted after vendor and item
// validation.
func (s *Service) SubmitOrder(ctx context.Context, number string) (Order, Result, error) {
	var updated Order
	res, err := s.run(ctx, "submit_order", func(tx Transaction) error {
		current, ok := tx.FindOrderByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityOrder, ID: number}
		}
		if current.Status != domain.DocumentStatusDraft {
			return documentStatusError("cannot submit order", number, current.Status, domain.DocumentStatusDraft)
		}
		if err := validateVendor(current.Vendor); err != nil {
			return err
		}
		if err := validateOrderItems(number, current.Items); err != nil {
			return err
		}
		var err error
		updated, err = tx.UpdateOrder(current.ID, func(o *Order) error {
			o.Status = domain.DocumentStatusSubmitted
			return nil
		})
		return err
	})
	return updated, res, err
}

// ApproveOrder moves a submitted order to approved.
func (s *Service) ApproveOrder(ctx context.Context, number string) (Order, Result, error) {
	var updated Order
	res, err := s.run(ctx, "approve_order", func(tx Transaction) error {
		current, ok := tx.FindOrderByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityOrder, ID: number}
		}
		if current.Status != domain.DocumentStatusSubmitted {
			return documentStatusError("cannot approve order", number, current.Status, domain.DocumentStatusSubmitted)
		}
		var err error
		updated, err = tx.UpdateOrder(current.ID, func(o *Order) error {
			o.Status = domain.DocumentStatusApproved
			return nil
		})
		return err
	})
	return updated, res, err
}

// ReceiveOrder applies per-line received quantities against an approved
// order. A nil received map receives every line in full. The resulting
// status is derived from the lines and is the single source of truth:
// received when every line is fully received, partially_received when some
// lines are, otherwise the status stays unchanged.
func (s *Service) ReceiveOrder(ctx context.Context, number string, received map[int]float64) (Order, Result, error) {
	var updated Order
	res, err := s.run(ctx, "receive_order", func(tx Transaction) error {
		current, ok := tx.FindOrderByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityOrder, ID: number}
		}
		if current.Status != domain.DocumentStatusApproved {
			return documentStatusError("cannot receive order", number, current.Status, domain.DocumentStatusApproved)
		}

		items := make([]domain.OrderItem, len(current.Items))
		copy(items, current.Items)
		if received == nil {
			for i := range items {
				items[i].ReceivedQuantity = items[i].Quantity
			}
		} else {
			index := make(map[int]int, len(items))
			for i, item := range items {
				index[item.ItemNumber] = i
			}
			for itemNumber, quantity := range received {
				i, ok := index[itemNumber]
				if !ok {
					return domain.NewValidationError(
						fmt.Sprintf("order %s has no item %d", number, itemNumber),
						map[string]string{
							"document_number": number,
							"field":           "received_items",
							"reason":          "unknown_item",
						})
				}
				if quantity < 0 {
					return domain.NewValidationError(
						fmt.Sprintf("received quantity for item %d must be non-negative", itemNumber),
						map[string]string{
							"document_number": number,
							"field":           "received_items",
							"reason":          "negative_quantity",
						})
				}
				items[i].ReceivedQuantity = quantity
			}
		}

		newStatus := deriveReceiptStatus(current.Status, items)
		var err error
		updated, err = tx.UpdateOrder(current.ID, func(o *Order) error {
			o.Items = items
			o.Status = newStatus
			return nil
		})
		return err
	})
	return updated, res, err
}

// CompleteOrder moves a received or partially received order to completed.
func (s *Service) CompleteOrder(ctx context.Context, number string) (Order, Result, error) {
	var updated Order
	res, err := s.run(ctx, "complete_order", func(tx Transaction) error {
		current, ok := tx.FindOrderByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityOrder, ID: number}
		}
		if current.Status != domain.DocumentStatusReceived && current.Status != domain.DocumentStatusPartiallyReceived {
			return domain.NewValidationError(
				fmt.Sprintf("cannot complete order with status %s, must be %s or %s",
					current.Status, domain.DocumentStatusReceived, domain.DocumentStatusPartiallyReceived),
				map[string]string{
					"document_number": number,
					"current_status":  string(current.Status),
					"reason":          "invalid_document_status",
				})
		}
		var err error
		updated, err = tx.UpdateOrder(current.ID, func(o *Order) error {
			o.Status = domain.DocumentStatusCompleted
			return nil
		})
		return err
	})
	return updated, res, err
}

// CancelOrder moves any non-terminal order to canceled and appends the
// reason to the notes.
func (s *Service) CancelOrder(ctx context.Context, number, reason string) (Order, Result, error) {
	var updated Order
	res, err := s.run(ctx, "cancel_order", func(tx Transaction) error {
		current, ok := tx.FindOrderByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityOrder, ID: number}
		}
		if orderMachine.terminal(string(current.Status)) {
			return domain.NewValidationError(
				fmt.Sprintf("cannot cancel order with status %s", current.Status),
				map[string]string{
					"document_number": number,
					"current_status":  string(current.Status),
					"reason":          "terminal_status",
				})
		}
		var err error
		updated, err = tx.UpdateOrder(current.ID, func(o *Order) error {
			o.Status = domain.DocumentStatusCanceled
			o.Notes = appendNote(o.Notes, "CANCELED: "+reason)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteOrder removes an order. Only draft orders can be deleted.
func (s *Service) DeleteOrder(ctx context.Context, number string) (Result, error) {
	return s.run(ctx, "delete_order", func(tx Transaction) error {
		current, ok := tx.FindOrderByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityOrder, ID: number}
		}
		if current.Status != domain.DocumentStatusDraft {
			return domain.NewValidationError(
				fmt.Sprintf("cannot delete order with status %s", current.Status),
				map[string]string{
					"document_number": number,
					"current_status":  string(current.Status),
					"reason":          "only_draft_deletable",
				})
		}
		return tx.DeleteOrder(current.ID)
	})
}

// deriveReceiptStatus computes the post-receipt status from the lines.
func deriveReceiptStatus(current domain.DocumentStatus, items []domain.OrderItem) domain.DocumentStatus {
	if len(items) == 0 {
		return current
	}
	full := 0
	for _, item := range items {
		if item.FullyReceived() {
			full++
		}
	}
	switch {
	case full == len(items):
		return domain.DocumentStatusReceived
	case full > 0:
		return domain.DocumentStatusPartiallyReceived
	default:
		return current
	}
}

func renumberOrderItems(items []domain.OrderItem) {
	for i := range items {
		items[i].ItemNumber = i + 1
	}
}

func applyOrderPatch(o *Order, patch OrderUpdate) {
	if patch.Vendor != nil {
		o.Vendor = *patch.Vendor
	}
	if patch.Description != nil {
		o.Description = *patch.Description
	}
	if patch.Requester != nil {
		o.Requester = *patch.Requester
	}
	if patch.PaymentTerms != nil {
		o.PaymentTerms = *patch.PaymentTerms
	}
	if patch.Notes != nil {
		o.Notes = *patch.Notes
	}
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.Items != nil {
		o.Items = patch.Items
	}
}

func validateVendor(vendor string) error {
	if strings.TrimSpace(vendor) == "" {
		return domain.NewValidationError("order vendor is required", map[string]string{
			"field":  "vendor",
			"reason": "required",
		})
	}
	return nil
}

func validateOrderItems(number string, items []domain.OrderItem) error {
	if len(items) == 0 {
		return domain.NewValidationError("order must have at least one item", map[string]string{
			"document_number": number,
			"reason":          "no_items",
		})
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return domain.NewValidationError(
				fmt.Sprintf("order item %d quantity must be positive", item.ItemNumber),
				map[string]string{
					"document_number": number,
					"field":           "quantity",
					"reason":          "non_positive_quantity",
				})
		}
		if item.Price < 0 {
			return domain.NewValidationError(
				fmt.Sprintf("order item %d price must be non-negative", item.ItemNumber),
				map[string]string{
					"document_number": number,
					"field":           "price",
					"reason":          "negative_price",
				})
		}
	}
	return nil
}

func validateOrderMaterialRefs(tx Transaction, items []domain.OrderItem) error {
	for _, item := range items {
		if err := validateMaterialRef(tx, item.MaterialNumber); err != nil {
			return err
		}
	}
	return nil
}

func matchesOrderFilter(o Order, filter OrderFilter) bool {
	if len(filter.Statuses) > 0 && !containsDocumentStatus(filter.Statuses, o.Status) {
		return false
	}
	if filter.Vendor != "" && o.Vendor != filter.Vendor {
		return false
	}
	if filter.RequisitionRef != "" {
		if o.RequisitionRef == nil || *o.RequisitionRef != filter.RequisitionRef {
			return false
		}
	}
	if filter.Search != "" {
		term := strings.ToLower(filter.Search)
		if strings.Contains(strings.ToLower(o.Description), term) ||
			strings.Contains(strings.ToLower(o.DocumentNumber), term) ||
			strings.Contains(strings.ToLower(o.Vendor), term) {
			return true
		}
		for _, item := range o.Items {
			if strings.Contains(strings.ToLower(item.Description), term) {
				return true
			}
		}
		return false
	}
	return true
}
