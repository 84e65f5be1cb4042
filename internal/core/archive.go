package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"procurecore/internal/blob"
	"procurecore/internal/infra/persistence/memory"
	"procurecore/pkg/domain"
)

// Snapshotter is implemented by stores that can export and import their full
// state. All bundled persistence drivers satisfy it.
type Snapshotter interface {
	ExportState() memory.Snapshot
	ImportState(memory.Snapshot)
}

const archivePrefix = "snapshots/"

// ArchiveInfo describes a stored snapshot archive.
type ArchiveInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
	Materials    int       `json:"materials"`
	Requisitions int       `json:"requisitions"`
	Orders       int       `json:"orders"`
}

// ArchiveService writes full store snapshots to a blob store and reads them
// back. Archives are JSON documents keyed snapshots/<timestamp>.json.
type ArchiveService struct {
	store Snapshotter
	blobs blob.Store
	clock Clock
}

// NewArchiveService wires a snapshot-capable store to a blob backend.
func NewArchiveService(store Snapshotter, blobs blob.Store, options ...ServiceOption) *ArchiveService {
	opts := defaultServiceOptions()
	for _, opt := range options {
		opt(&opts)
	}
	return &ArchiveService{store: store, blobs: blobs, clock: opts.clock}
}

// Archive exports the current store state and stores it as a new blob.
func (a *ArchiveService) Archive(ctx context.Context) (ArchiveInfo, error) {
	snap := a.store.ExportState()
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return ArchiveInfo{}, fmt.Errorf("encode snapshot: %w", err)
	}
	now := a.clock.Now().UTC()
	key := fmt.Sprintf("%s%s.json", archivePrefix, now.Format("20060102T150405.000000000Z"))
	info, err := a.blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"materials":    fmt.Sprint(len(snap.Materials)),
			"requisitions": fmt.Sprint(len(snap.Requisitions)),
			"orders":       fmt.Sprint(len(snap.Orders)),
		},
	})
	if err != nil {
		return ArchiveInfo{}, fmt.Errorf("store snapshot: %w", err)
	}
	return ArchiveInfo{
		Key:          info.Key,
		Size:         info.Size,
		CreatedAt:    now,
		Materials:    len(snap.Materials),
		Requisitions: len(snap.Requisitions),
		Orders:       len(snap.Orders),
	}, nil
}

// List returns stored archives, newest first.
func (a *ArchiveService) List(ctx context.Context) ([]ArchiveInfo, error) {
	infos, err := a.blobs.List(ctx, archivePrefix)
	if err != nil {
		return nil, err
	}
	out := make([]ArchiveInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, archiveInfoFromBlob(info))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out, nil
}

// Fetch returns the raw JSON payload of an archive by key.
func (a *ArchiveService) Fetch(ctx context.Context, key string) ([]byte, error) {
	if !strings.HasPrefix(key, archivePrefix) {
		return nil, domain.BadRequestError{Message: fmt.Sprintf("archive key must start with %s", archivePrefix)}
	}
	_, rc, err := a.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Restore replaces the store state with the given archive's contents.
func (a *ArchiveService) Restore(ctx context.Context, key string) error {
	payload, err := a.Fetch(ctx, key)
	if err != nil {
		return err
	}
	var snap memory.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	a.store.ImportState(snap)
	return nil
}

func archiveInfoFromBlob(info blob.Info) ArchiveInfo {
	out := ArchiveInfo{Key: info.Key, Size: info.Size, CreatedAt: info.LastModified}
	if info.Metadata != nil {
		out.Materials = atoiOrZero(info.Metadata["materials"])
		out.Requisitions = atoiOrZero(info.Metadata["requisitions"])
		out.Orders = atoiOrZero(info.Metadata["orders"])
	}
	return out
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
