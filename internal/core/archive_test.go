package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"procurecore/internal/blob"
	"procurecore/internal/infra/persistence/memory"
	"procurecore/pkg/domain"
)

func TestArchiveServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(NewDefaultRulesEngine())
	svc := NewService(store)
	blobs := blob.NewMemory()

	when := time.Date(2025, 7, 4, 9, 30, 0, 0, time.UTC)
	archive := NewArchiveService(store, blobs, WithClock(ClockFunc(func() time.Time { return when })))

	if _, _, err := svc.CreateMaterial(ctx, domain.Material{Name: "Archived", Type: domain.MaterialTypeRaw, MaterialNumber: "ARC-1"}); err != nil {
		t.Fatalf("seed material: %v", err)
	}

	info, err := archive.Archive(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if info.Materials != 1 || info.Requisitions != 0 || info.Orders != 0 {
		t.Fatalf("unexpected counts: %+v", info)
	}
	if info.Key == "" || info.Size == 0 {
		t.Fatalf("missing key or size: %+v", info)
	}

	payload, err := archive.Fetch(ctx, info.Key)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var snap memory.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		t.Fatalf("decode archive: %v", err)
	}
	if len(snap.Materials) != 1 {
		t.Fatalf("expected 1 material in archive, got %d", len(snap.Materials))
	}

	store.ImportState(memory.Snapshot{})
	if len(store.ListMaterials()) != 0 {
		t.Fatalf("expected cleared store")
	}
	if err := archive.Restore(ctx, info.Key); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, ok := store.GetMaterial("ARC-1"); !ok {
		t.Fatalf("expected restored material")
	}

	archives, err := archive.List(ctx)
	if err != nil || len(archives) != 1 {
		t.Fatalf("expected one archive, got %d (%v)", len(archives), err)
	}
	if archives[0].Materials != 1 {
		t.Fatalf("metadata not carried through listing: %+v", archives[0])
	}
}

func TestArchiveFetchRejectsForeignKeys(t *testing.T) {
	archive := NewArchiveService(memory.NewStore(nil), blob.NewMemory())
	if _, err := archive.Fetch(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatalf("expected rejection of non-archive key")
	}
}
