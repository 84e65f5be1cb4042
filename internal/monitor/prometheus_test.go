package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"procurecore/internal/core"
	"procurecore/pkg/domain"
)

func TestPrometheusRecorderObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "create_material", true, 20*time.Millisecond)
	rec.Observe(ctx, "create_material", true, 10*time.Millisecond)
	rec.Observe(ctx, "create_material", false, 5*time.Millisecond)

	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_material", "ok")); got != 2 {
		t.Fatalf("expected 2 ok, got %v", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_material", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}

	if _, err := NewPrometheusRecorder(reg); err == nil {
		t.Fatalf("double registration must fail")
	}
}

func TestRegisterEntityGauges(t *testing.T) {
	store := core.NewInMemoryService(nil).Store()
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateMaterial(domain.Material{MaterialNumber: "M1", Name: "X", Type: domain.MaterialTypeRaw, Status: domain.MaterialStatusActive}); err != nil {
			return err
		}
		_, err := tx.CreateRequisition(domain.Requisition{DocumentNumber: "PR1", Requester: "jdoe", Status: domain.DocumentStatusDraft})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := prometheus.NewRegistry()
	if err := RegisterEntityGauges(reg, store); err != nil {
		t.Fatalf("register gauges: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := map[string]float64{}
	for _, fam := range families {
		if len(fam.GetMetric()) == 1 {
			values[fam.GetName()] = fam.GetMetric()[0].GetGauge().GetValue()
		}
	}
	if values["procurecore_materials_count"] != 1 {
		t.Fatalf("materials gauge mismatch: %+v", values)
	}
	if values["procurecore_requisitions_count"] != 1 {
		t.Fatalf("requisitions gauge mismatch: %+v", values)
	}
	if values["procurecore_orders_count"] != 0 {
		t.Fatalf("orders gauge mismatch: %+v", values)
	}
}
