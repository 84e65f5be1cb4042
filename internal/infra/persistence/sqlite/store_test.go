package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"procurecore/pkg/domain"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateMaterial(domain.Material{MaterialNumber: "SQL-1", Name: "Bolt", Type: domain.MaterialTypeRaw, Status: domain.MaterialStatusActive}); err != nil {
			return err
		}
		_, err := tx.CreateRequisition(domain.Requisition{
			DocumentNumber: "PR-SQL",
			Requester:      "jdoe",
			Status:         domain.DocumentStatusDraft,
			Items: []domain.RequisitionItem{
				{ItemNumber: 1, MaterialNumber: "SQL-1", Description: "Bolts", Quantity: 100, Unit: "EA", Price: 0.1},
			},
		})
		return err
	}); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	material, ok := reopened.GetMaterial("SQL-1")
	if !ok {
		t.Fatalf("material not reloaded")
	}
	if material.Name != "Bolt" || material.Status != domain.MaterialStatusActive {
		t.Fatalf("reloaded material %+v", material)
	}
	requisition, ok := reopened.GetRequisition("PR-SQL")
	if !ok {
		t.Fatalf("requisition not reloaded")
	}
	if len(requisition.Items) != 1 || requisition.Items[0].Quantity != 100 {
		t.Fatalf("reloaded requisition %+v", requisition)
	}
}

func TestStoreFailedTransactionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	boom := errors.New("boom")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateMaterial(domain.Material{MaterialNumber: "GONE", Name: "X"}); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if _, ok := reopened.GetMaterial("GONE"); ok {
		t.Fatalf("rolled back material must not persist")
	}
}

func TestStoreDefaultsAndAccessors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accessors.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if store.Path() != path {
		t.Fatalf("path = %q", store.Path())
	}
	if store.DB() == nil {
		t.Fatalf("nil db handle")
	}
	if err := store.DB().Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
