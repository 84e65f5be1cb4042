package core

import (
	"context"
	"fmt"

	"procurecore/pkg/domain"
)

// MaterialReferenceRule blocks document items pointing at missing or
// deprecated materials and keeps an order's requisition reference immutable
// once set.
func MaterialReferenceRule() domain.Rule {
	return materialReferenceRule{}
}

type materialReferenceRule struct{}

func (materialReferenceRule) Name() string { return "material_reference" }

func (materialReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var result domain.Result
	for _, change := range changes {
		if change.Action == domain.ActionDelete {
			continue
		}
		switch change.Entity {
		case domain.EntityRequisition:
			requisition, ok := change.After.(domain.Requisition)
			if !ok {
				continue
			}
			for _, item := range requisition.Items {
				result.Merge(checkMaterialReference(view, change.Entity, requisition.ID, item.MaterialNumber))
			}
		case domain.EntityOrder:
			order, ok := change.After.(domain.Order)
			if !ok {
				continue
			}
			for _, item := range order.Items {
				result.Merge(checkMaterialReference(view, change.Entity, order.ID, item.MaterialNumber))
			}
			if before, ok := change.Before.(domain.Order); ok {
				result.Merge(checkRequisitionRef(before, order))
			}
		}
	}
	return result, nil
}

func checkMaterialReference(view domain.RuleView, entity domain.EntityType, id, materialNumber string) domain.Result {
	if materialNumber == "" {
		return domain.Result{}
	}
	material, ok := view.FindMaterialByNumber(materialNumber)
	if !ok {
		return domain.Result{Violations: []domain.Violation{{
			Rule:     "material_reference",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("item references unknown material %s", materialNumber),
			Entity:   entity,
			EntityID: id,
		}}}
	}
	if material.Status == domain.MaterialStatusDeprecated {
		return domain.Result{Violations: []domain.Violation{{
			Rule:     "material_reference",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("item references deprecated material %s", materialNumber),
			Entity:   entity,
			EntityID: id,
		}}}
	}
	return domain.Result{}
}

func checkRequisitionRef(before, after domain.Order) domain.Result {
	if before.RequisitionRef == nil {
		return domain.Result{}
	}
	if after.RequisitionRef != nil && *after.RequisitionRef == *before.RequisitionRef {
		return domain.Result{}
	}
	return domain.Result{Violations: []domain.Violation{{
		Rule:     "material_reference",
		Severity: domain.SeverityBlock,
		Message:  fmt.Sprintf("order requisition reference %s is immutable", *before.RequisitionRef),
		Entity:   domain.EntityOrder,
		EntityID: after.ID,
	}}}
}
