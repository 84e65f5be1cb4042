package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"procurecore/pkg/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewInMemoryService(nil)
}

func createTestMaterial(t *testing.T, svc *Service, material domain.Material) domain.Material {
	t.Helper()
	created, _, err := svc.CreateMaterial(context.Background(), material)
	if err != nil {
		t.Fatalf("create material: %v", err)
	}
	return created
}

func TestCreateMaterialDefaultsAndGeneratedNumber(t *testing.T) {
	svc := newTestService(t)
	created := createTestMaterial(t, svc, domain.Material{Name: "Steel Rod", Type: domain.MaterialTypeRaw})
	if created.Status != domain.MaterialStatusActive {
		t.Fatalf("expected default active status, got %s", created.Status)
	}
	if !strings.HasPrefix(created.MaterialNumber, "RAW") {
		t.Fatalf("expected RAW prefix, got %s", created.MaterialNumber)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamps")
	}

	got, err := svc.GetMaterial(context.Background(), created.MaterialNumber)
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("lookup mismatch")
	}
	if _, err := svc.GetMaterial(context.Background(), created.ID); err != nil {
		t.Fatalf("get by id: %v", err)
	}
}

func TestCreateMaterialValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		material domain.Material
	}{
		{"missing name", domain.Material{Type: domain.MaterialTypeRaw}},
		{"bad number", domain.Material{Name: "X", Type: domain.MaterialTypeRaw, MaterialNumber: "has space"}},
		{"unknown type", domain.Material{Name: "X", Type: "plasma"}},
		{"unknown status", domain.Material{Name: "X", Type: domain.MaterialTypeRaw, Status: "half-active"}},
		{"negative weight", domain.Material{Name: "X", Type: domain.MaterialTypeRaw, Weight: floatPtr(-1)}},
	}
	for _, tc := range cases {
		if _, _, err := svc.CreateMaterial(ctx, tc.material); !domain.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCreateMaterialDuplicateNumber(t *testing.T) {
	svc := newTestService(t)
	createTestMaterial(t, svc, domain.Material{Name: "First", Type: domain.MaterialTypeRaw, MaterialNumber: "DUP001"})
	_, _, err := svc.CreateMaterial(context.Background(), domain.Material{Name: "Second", Type: domain.MaterialTypeRaw, MaterialNumber: "DUP001"})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateMaterialPatchAndTransitions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created := createTestMaterial(t, svc, domain.Material{Name: "Widget", Type: domain.MaterialTypeFinished})

	name := "Widget v2"
	weight := 1.5
	updated, _, err := svc.UpdateMaterial(ctx, created.MaterialNumber, MaterialUpdate{Name: &name, Weight: &weight})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.Weight == nil || *updated.Weight != weight {
		t.Fatalf("patch not applied: %+v", updated)
	}

	inactive := domain.MaterialStatusInactive
	if _, _, err := svc.UpdateMaterial(ctx, created.MaterialNumber, MaterialUpdate{Status: &inactive}); err != nil {
		t.Fatalf("active -> inactive: %v", err)
	}

	deprecated := domain.MaterialStatusDeprecated
	if _, _, err := svc.UpdateMaterial(ctx, created.MaterialNumber, MaterialUpdate{Status: &deprecated}); err != nil {
		t.Fatalf("inactive -> deprecated: %v", err)
	}

	active := domain.MaterialStatusActive
	_, _, err = svc.UpdateMaterial(ctx, created.MaterialNumber, MaterialUpdate{Status: &active})
	if !domain.IsValidation(err) {
		t.Fatalf("deprecated -> active must fail validation, got %v", err)
	}
	var verr domain.ValidationError
	if !errors.As(err, &verr) || verr.Details["reason"] != "invalid_status_transition" {
		t.Fatalf("expected invalid_status_transition detail, got %+v", verr.Details)
	}

	bogus := domain.MaterialStatus("bogus")
	_, _, err = svc.UpdateMaterial(ctx, created.MaterialNumber, MaterialUpdate{Status: &bogus})
	var badReq domain.BadRequestError
	if !errors.As(err, &badReq) {
		t.Fatalf("unknown status must be a bad request, got %v", err)
	}
}

func TestDeleteMaterialGuards(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created := createTestMaterial(t, svc, domain.Material{Name: "Removable", Type: domain.MaterialTypeRaw})

	_, err := svc.DeleteMaterial(ctx, created.MaterialNumber)
	if !domain.IsValidation(err) {
		t.Fatalf("active material delete must fail, got %v", err)
	}

	if _, _, err := svc.DeactivateMaterial(ctx, created.MaterialNumber); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.DeleteMaterial(ctx, created.MaterialNumber); err != nil {
		t.Fatalf("delete inactive: %v", err)
	}
	if _, err := svc.GetMaterial(ctx, created.MaterialNumber); !domain.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDeprecateActivateDeactivateLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created := createTestMaterial(t, svc, domain.Material{Name: "Lifecycled", Type: domain.MaterialTypeService})

	if _, _, err := svc.DeactivateMaterial(ctx, created.MaterialNumber); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, _, err := svc.DeactivateMaterial(ctx, created.MaterialNumber); !domain.IsValidation(err) {
		t.Fatalf("double deactivate must fail")
	}
	if _, _, err := svc.ActivateMaterial(ctx, created.MaterialNumber); err != nil {
		t.Fatalf("reactivate: %v", err)
	}

	deprecated, _, err := svc.DeprecateMaterial(ctx, created.MaterialNumber)
	if err != nil {
		t.Fatalf("deprecate: %v", err)
	}
	if deprecated.Status != domain.MaterialStatusDeprecated {
		t.Fatalf("expected deprecated, got %s", deprecated.Status)
	}
	if _, _, err := svc.DeprecateMaterial(ctx, created.MaterialNumber); !domain.IsValidation(err) {
		t.Fatalf("double deprecate must fail")
	}
	if _, _, err := svc.ActivateMaterial(ctx, created.MaterialNumber); !domain.IsValidation(err) {
		t.Fatalf("activating deprecated must fail")
	}
}

func TestListMaterialsFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	createTestMaterial(t, svc, domain.Material{Name: "Steel Sheet", Description: "rolled steel", Type: domain.MaterialTypeRaw, MaterialNumber: "RAW-STEEL"})
	createTestMaterial(t, svc, domain.Material{Name: "Gearbox", Type: domain.MaterialTypeFinished, MaterialNumber: "FIN-GEAR"})
	inactive := createTestMaterial(t, svc, domain.Material{Name: "Old Bolt", Type: domain.MaterialTypeRaw, MaterialNumber: "RAW-BOLT"})
	if _, _, err := svc.DeactivateMaterial(ctx, inactive.MaterialNumber); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	all, err := svc.ListMaterials(ctx, MaterialFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 materials, got %d (%v)", len(all), err)
	}

	raws, _ := svc.ListMaterials(ctx, MaterialFilter{Types: []domain.MaterialType{domain.MaterialTypeRaw}})
	if len(raws) != 2 {
		t.Fatalf("expected 2 raw materials, got %d", len(raws))
	}

	inactives, _ := svc.ListMaterials(ctx, MaterialFilter{Statuses: []domain.MaterialStatus{domain.MaterialStatusInactive}})
	if len(inactives) != 1 || inactives[0].MaterialNumber != "RAW-BOLT" {
		t.Fatalf("status filter mismatch: %+v", inactives)
	}

	byTerm, _ := svc.ListMaterials(ctx, MaterialFilter{Search: "steel"})
	if len(byTerm) != 1 || byTerm[0].MaterialNumber != "RAW-STEEL" {
		t.Fatalf("search filter mismatch: %+v", byTerm)
	}

	count, err := svc.CountMaterials(ctx, MaterialFilter{Types: []domain.MaterialType{domain.MaterialTypeRaw}})
	if err != nil || count != 2 {
		t.Fatalf("expected count 2, got %d (%v)", count, err)
	}
}

func floatPtr(v float64) *float64 { return &v }
