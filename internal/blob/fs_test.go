package blob

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"
)

func TestFilesystemPutGetHeadDeleteList(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	ctx := context.Background()

	info, err := store.Put(ctx, "snapshots/a.json", strings.NewReader(`{"x":1}`), PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"materials": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 || info.ETag == "" || info.ContentType != "application/json" {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, err := store.Put(ctx, "snapshots/a.json", strings.NewReader("dup"), PutOptions{}); err == nil {
		t.Fatalf("put must be create-only")
	}

	got, rc, err := store.Get(ctx, "snapshots/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != `{"x":1}` {
		t.Fatalf("unexpected body %q", body)
	}
	if got.ETag != info.ETag || got.Metadata["materials"] != "1" {
		t.Fatalf("metadata mismatch: %+v", got)
	}

	head, err := store.Head(ctx, "snapshots/a.json")
	if err != nil || head.Size != 7 {
		t.Fatalf("head: %+v (%v)", head, err)
	}

	if _, err := store.Put(ctx, "snapshots/b.json", strings.NewReader("{}"), PutOptions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	if _, err := store.Put(ctx, "other/c.bin", strings.NewReader("c"), PutOptions{}); err != nil {
		t.Fatalf("put c: %v", err)
	}
	infos, err := store.List(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "snapshots/a.json" || infos[1].Key != "snapshots/b.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	existed, err := store.Delete(ctx, "snapshots/a.json")
	if err != nil || !existed {
		t.Fatalf("delete: %v existed=%v", err, existed)
	}
	existed, err = store.Delete(ctx, "snapshots/a.json")
	if err != nil || existed {
		t.Fatalf("second delete must report missing, existed=%v (%v)", existed, err)
	}
	if _, err := store.Head(ctx, "snapshots/a.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist after delete, got %v", err)
	}
}

func TestFilesystemKeySanitization(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "a/../../b", "/absolute"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Errorf("key %q must be rejected", key)
		}
	}
}

func TestFilesystemPresignURL(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	url, err := store.PresignURL(context.Background(), "snapshots/a.json", SignedURLOptions{})
	if err != nil || !strings.Contains(url, "snapshots/a.json") {
		t.Fatalf("presign: %q (%v)", url, err)
	}
	if _, err := store.PresignURL(context.Background(), "k", SignedURLOptions{Method: "PUT"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("PUT presign must be unsupported, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if _, err := store.Put(ctx, "k1", strings.NewReader("hello"), PutOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k1", strings.NewReader("again"), PutOptions{}); err == nil {
		t.Fatalf("put must be create-only")
	}

	info, rc, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "hello" || info.Size != 5 {
		t.Fatalf("unexpected blob: %q %+v", body, info)
	}

	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
	if _, err := store.PresignURL(ctx, "k1", SignedURLOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("memory presign must be unsupported")
	}

	if _, err := store.Put(ctx, "k2", strings.NewReader("x"), PutOptions{}); err != nil {
		t.Fatalf("put k2: %v", err)
	}
	infos, err := store.List(ctx, "k")
	if err != nil || len(infos) != 2 {
		t.Fatalf("list: %d (%v)", len(infos), err)
	}

	existed, err := store.Delete(ctx, "k1")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v (%v)", existed, err)
	}
}
