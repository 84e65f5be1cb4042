package core

import (
	"context"
	"testing"

	"procurecore/pkg/domain"
)

// stubRuleView serves material lookups by number only; the reference rule
// needs nothing else.
type stubRuleView struct {
	materials map[string]domain.Material
}

func (v stubRuleView) ListMaterials() []domain.Material       { return nil }
func (v stubRuleView) ListRequisitions() []domain.Requisition { return nil }
func (v stubRuleView) ListOrders() []domain.Order             { return nil }

func (v stubRuleView) FindMaterial(string) (domain.Material, bool) { return domain.Material{}, false }

func (v stubRuleView) FindMaterialByNumber(number string) (domain.Material, bool) {
	m, ok := v.materials[number]
	return m, ok
}

func (v stubRuleView) FindRequisition(string) (domain.Requisition, bool) {
	return domain.Requisition{}, false
}

func (v stubRuleView) FindOrder(string) (domain.Order, bool) { return domain.Order{}, false }

func TestMaterialReferenceRuleEvaluate(t *testing.T) {
	rule := MaterialReferenceRule()
	ctx := context.Background()
	view := stubRuleView{materials: map[string]domain.Material{
		"OK-1":  {MaterialNumber: "OK-1", Status: domain.MaterialStatusActive},
		"DEP-1": {MaterialNumber: "DEP-1", Status: domain.MaterialStatusDeprecated},
	}}

	blockingCount := func(changes []domain.Change) int {
		t.Helper()
		result, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		n := 0
		for _, v := range result.Violations {
			if v.Severity == domain.SeverityBlock {
				n++
			}
		}
		return n
	}

	requisition := func(materialNumber string) domain.Requisition {
		return domain.Requisition{Base: domain.Base{ID: "r1"}, Items: []domain.RequisitionItem{
			{ItemNumber: 1, MaterialNumber: materialNumber, Description: "x", Quantity: 1, Price: 1},
		}}
	}

	if n := blockingCount([]domain.Change{{Entity: domain.EntityRequisition, Action: domain.ActionCreate, After: requisition("OK-1")}}); n != 0 {
		t.Fatalf("active material reference should pass, got %d", n)
	}
	if n := blockingCount([]domain.Change{{Entity: domain.EntityRequisition, Action: domain.ActionCreate, After: requisition("GHOST")}}); n != 1 {
		t.Fatalf("unknown material reference should block, got %d", n)
	}
	if n := blockingCount([]domain.Change{{Entity: domain.EntityRequisition, Action: domain.ActionCreate, After: requisition("DEP-1")}}); n != 1 {
		t.Fatalf("deprecated material reference should block, got %d", n)
	}
	// Free-text lines carry no material number and are always allowed.
	if n := blockingCount([]domain.Change{{Entity: domain.EntityRequisition, Action: domain.ActionCreate, After: requisition("")}}); n != 0 {
		t.Fatalf("empty material reference should pass, got %d", n)
	}
	if n := blockingCount([]domain.Change{{Entity: domain.EntityRequisition, Action: domain.ActionDelete, Before: requisition("GHOST")}}); n != 0 {
		t.Fatalf("deletes are not checked, got %d", n)
	}
}

func TestMaterialReferenceRuleOrderRefImmutable(t *testing.T) {
	rule := MaterialReferenceRule()
	ctx := context.Background()
	view := stubRuleView{materials: map[string]domain.Material{}}

	ref := "PR-1"
	other := "PR-2"
	before := domain.Order{Base: domain.Base{ID: "o1"}, RequisitionRef: &ref}

	eval := func(after domain.Order) domain.Result {
		t.Helper()
		result, err := rule.Evaluate(ctx, view, []domain.Change{{
			Entity: domain.EntityOrder, Action: domain.ActionUpdate, Before: before, After: after,
		}})
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		return result
	}

	same := before
	if res := eval(same); res.HasBlocking() {
		t.Fatalf("unchanged reference should pass: %+v", res)
	}
	cleared := domain.Order{Base: domain.Base{ID: "o1"}}
	if res := eval(cleared); !res.HasBlocking() {
		t.Fatalf("clearing the reference must block")
	}
	swapped := domain.Order{Base: domain.Base{ID: "o1"}, RequisitionRef: &other}
	if res := eval(swapped); !res.HasBlocking() {
		t.Fatalf("swapping the reference must block")
	}
}
