package core

import (
	"context"
	"fmt"
	"strings"

	"procurecore/pkg/domain"
)

// RequisitionUpdate is a partial update applied to a requisition. Nil fields
// are left unchanged; a nil Items slice leaves the lines untouched.
type RequisitionUpdate struct {
	Description *string                  `json:"description,omitempty"`
	Requester   *string                  `json:"requester,omitempty"`
	Department  *string                  `json:"department,omitempty"`
	Notes       *string                  `json:"notes,omitempty"`
	Status      *domain.DocumentStatus   `json:"status,omitempty"`
	Items       []domain.RequisitionItem `json:"items,omitempty"`
}

// RequisitionFilter narrows requisition listings.
type RequisitionFilter struct {
	Statuses   []domain.DocumentStatus
	Requester  string
	Department string
	Search     string
}

// CreateRequisition persists a new requisition in draft status. Items are
// renumbered sequentially and material references must resolve to known,
// non-deprecated materials.
func (s *Service) CreateRequisition(ctx context.Context, requisition Requisition) (Requisition, Result, error) {
	var created Requisition
	res, err := s.run(ctx, "create_requisition", func(tx Transaction) error {
		if strings.TrimSpace(requisition.Requester) == "" {
			return domain.NewValidationError("requisition requester is required", map[string]string{
				"field":  "requester",
				"reason": "required",
			})
		}
		if requisition.DocumentNumber == "" {
			requisition.DocumentNumber = generateDocumentNumber(requisitionNumberPrefix)
		}
		if !validDocumentNumber(requisition.DocumentNumber) {
			return domain.NewValidationError(
				fmt.Sprintf("invalid document number %q", requisition.DocumentNumber),
				map[string]string{"field": "document_number", "reason": "invalid_format"})
		}
		requisition.Status = domain.DocumentStatusDraft
		renumberRequisitionItems(requisition.Items)
		if err := validateRequisitionMaterialRefs(tx, requisition.Items); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateRequisition(requisition)
		return err
	})
	return created, res, err
}

// GetRequisition returns a requisition by document number.
func (s *Service) GetRequisition(ctx context.Context, number string) (Requisition, error) {
	var found Requisition
	err := s.view(ctx, "get_requisition", func(view TransactionView) error {
		for _, r := range view.ListRequisitions() {
			if r.DocumentNumber == number {
				found = r
				return nil
			}
		}
		return domain.NotFoundError{Entity: domain.EntityRequisition, ID: number}
	})
	return found, err
}

// ListRequisitions returns requisitions matching the filter.
func (s *Service) ListRequisitions(ctx context.Context, filter RequisitionFilter) ([]Requisition, error) {
	var out []Requisition
	err := s.view(ctx, "list_requisitions", func(view TransactionView) error {
		for _, r := range view.ListRequisitions() {
			if matchesRequisitionFilter(r, filter) {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}

// UpdateRequisition applies a partial update. Items are frozen once the
// requisition leaves draft, and status changes must follow the requisition
// status machine.
func (s *Service) UpdateRequisition(ctx context.Context, number string, patch RequisitionUpdate) (Requisition, Result, error) {
	var updated Requisition
	res, err := s.run(ctx, "update_requisition", func(tx Transaction) error {
		current, ok := tx.FindRequisitionByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityRequisition, ID: number}
		}
		if current.Status != domain.DocumentStatusDraft && patch.Items != nil {
			return domain.NewValidationError("cannot update items after requisition is submitted", map[string]string{
				"document_number": number,
				"current_status":  string(current.Status),
				"reason":          "items_frozen",
			})
		}
		if patch.Status != nil && *patch.Status != current.Status {
			if err := checkDocumentTransition(requisitionMachine, number, current.Status, *patch.Status); err != nil {
				return err
			}
			if *patch.Status == domain.DocumentStatusSubmitted {
				items := current.Items
				if patch.Items != nil {
					items = patch.Items
				}
				if err := validateRequisitionItems(number, items); err != nil {
					return err
				}
			}
		}
		if patch.Items != nil {
			renumberRequisitionItems(patch.Items)
			if err := validateRequisitionMaterialRefs(tx, patch.Items); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.UpdateRequisition(current.ID, func(r *Requisition) error {
			applyRequisitionPatch(r, patch)
			return nil
		})
		return err
	})
	return updated, res, err
}

// SubmitRequisition moves a draft requisition to submitted after item
// validation.
func (s *Service) SubmitRequisition(ctx context.Context, number string) (Requisition, Result, error) {
	var updated Requisition
	res, err := s.run(ctx, "submit_requisition", func(tx Transaction) error {
		current, ok := tx.FindRequisitionByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityRequisition, ID: number}
		}
		if current.Status != domain.DocumentStatusDraft {
			return documentStatusError("cannot submit requisition", number, current.Status, domain.DocumentStatusDraft)
		}
		if err := validateRequisitionItems(number, current.Items); err != nil {
			return err
		}
		var err error
		updated, err = tx.UpdateRequisition(current.ID, func(r *Requisition) error {
			r.Status = domain.DocumentStatusSubmitted
			return nil
		})
		return err
	})
	return updated, res, err
}

// ApproveRequisition moves a submitted requisition to approved.
func (s *Service) ApproveRequisition(ctx context.Context, number string) (Requisition, Result, error) {
	var updated Requisition
	res, err := s.run(ctx, "approve_requisition", func(tx Transaction) error {
		current, ok := tx.FindRequisitionByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityRequisition, ID: number}
		}
		if current.Status != domain.DocumentStatusSubmitted {
			return documentStatusError("cannot approve requisition", number, current.Status, domain.DocumentStatusSubmitted)
		}
		var err error
		updated, err = tx.UpdateRequisition(current.ID, func(r *Requisition) error {
			r.Status = domain.DocumentStatusApproved
			return nil
		})
		return err
	})
	return updated, res, err
}

// RejectRequisition moves a submitted requisition to rejected and appends
// the reason to the notes.
func (s *Service) RejectRequisition(ctx context.Context, number, reason string) (Requisition, Result, error) {
	var updated Requisition
	res, err := s.run(ctx, "reject_requisition", func(tx Transaction) error {
		current, ok := tx.FindRequisitionByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityRequisition, ID: number}
		}
		if current.Status != domain.DocumentStatusSubmitted {
			return documentStatusError("cannot reject requisition", number, current.Status, domain.DocumentStatusSubmitted)
		}
		var err error
		updated, err = tx.UpdateRequisition(current.ID, func(r *Requisition) error {
			r.Status = domain.DocumentStatusRejected
			r.Notes = appendNote(r.Notes, "REJECTED: "+reason)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteRequisition removes a requisition. Only draft or rejected
// requisitions can be deleted.
func (s *Service) DeleteRequisition(ctx context.Context, number string) (Result, error) {
	return s.run(ctx, "delete_requisition", func(tx Transaction) error {
		current, ok := tx.FindRequisitionByNumber(number)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityRequisition, ID: number}
		}
		if current.Status != domain.DocumentStatusDraft && current.Status != domain.DocumentStatusRejected {
			return domain.NewValidationError(
				fmt.Sprintf("cannot delete requisition with status %s", current.Status),
				map[string]string{
					"document_number": number,
					"current_status":  string(current.Status),
					"reason":          "only_draft_or_rejected_deletable",
				})
		}
		return tx.DeleteRequisition(current.ID)
	})
}

func renumberRequisitionItems(items []domain.RequisitionItem) {
	for i := range items {
		items[i].ItemNumber = i + 1
	}
}

func applyRequisitionPatch(r *Requisition, patch RequisitionUpdate) {
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Requester != nil {
		r.Requester = *patch.Requester
	}
	if patch.Department != nil {
		r.Department = *patch.Department
	}
	if patch.Notes != nil {
		r.Notes = *patch.Notes
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.Items != nil {
		r.Items = patch.Items
	}
}

func validateRequisitionItems(number string, items []domain.RequisitionItem) error {
	if len(items) == 0 {
		return domain.NewValidationError("requisition must have at least one item", map[string]string{
			"document_number": number,
			"reason":          "no_items",
		})
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return domain.NewValidationError(
				fmt.Sprintf("requisition item %d quantity must be positive", item.ItemNumber),
				map[string]string{
					"document_number": number,
					"field":           "quantity",
					"reason":          "non_positive_quantity",
				})
		}
		if item.Price < 0 {
			return domain.NewValidationError(
				fmt.Sprintf("requisition item %d price must be non-negative", item.ItemNumber),
				map[string]string{
					"document_number": number,
					"field":           "price",
					"reason":          "negative_price",
				})
		}
	}
	return nil
}

func validateRequisitionMaterialRefs(tx Transaction, items []domain.RequisitionItem) error {
	for _, item := range items {
		if err := validateMaterialRef(tx, item.MaterialNumber); err != nil {
			return err
		}
	}
	return nil
}

// validateMaterialRef resolves a document item material reference. Inactive
// materials are permitted; missing or deprecated ones are not.
func validateMaterialRef(tx Transaction, materialNumber string) error {
	if materialNumber == "" {
		return nil
	}
	material, ok := tx.FindMaterialByNumber(materialNumber)
	if !ok {
		return domain.NewValidationError(
			fmt.Sprintf("item references unknown material %s", materialNumber),
			map[string]string{
				"material_number": materialNumber,
				"reason":          "material_not_found",
			})
	}
	if material.Status == domain.MaterialStatusDeprecated {
		return domain.NewValidationError(
			fmt.Sprintf("item references deprecated material %s", materialNumber),
			map[string]string{
				"material_number": materialNumber,
				"current_status":  string(material.Status),
				"reason":          "material_deprecated",
			})
	}
	return nil
}

func checkDocumentTransition(machine statusMachine, number string, from, to domain.DocumentStatus) error {
	if !machine.knows(string(to)) {
		return domain.BadRequestError{Message: fmt.Sprintf("unknown %s status %q", machine.label, to)}
	}
	if !machine.allows(string(from), string(to)) {
		return domain.NewValidationError(
			fmt.Sprintf("invalid status transition from %s to %s", from, to),
			map[string]string{
				"document_number":  number,
				"current_status":   string(from),
				"requested_status": string(to),
				"reason":           "invalid_status_transition",
			})
	}
	return nil
}

func documentStatusError(prefix, number string, current, required domain.DocumentStatus) error {
	return domain.NewValidationError(
		fmt.Sprintf("%s with status %s, must be %s", prefix, current, required),
		map[string]string{
			"document_number": number,
			"current_status":  string(current),
			"required_status": string(required),
			"reason":          "invalid_document_status",
		})
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

func matchesRequisitionFilter(r Requisition, filter RequisitionFilter) bool {
	if len(filter.Statuses) > 0 && !containsDocumentStatus(filter.Statuses, r.Status) {
		return false
	}
	if filter.Requester != "" && r.Requester != filter.Requester {
		return false
	}
	if filter.Department != "" && r.Department != filter.Department {
		return false
	}
	if filter.Search != "" {
		term := strings.ToLower(filter.Search)
		if strings.Contains(strings.ToLower(r.Description), term) ||
			strings.Contains(strings.ToLower(r.DocumentNumber), term) {
			return true
		}
		for _, item := range r.Items {
			if strings.Contains(strings.ToLower(item.Description), term) {
				return true
			}
		}
		return false
	}
	return true
}

func containsDocumentStatus(values []domain.DocumentStatus, status domain.DocumentStatus) bool {
	for _, v := range values {
		if v == status {
			return true
		}
	}
	return false
}
