package spool

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mp4Header is enough of an ISO BMFF header for content sniffing.
var mp4Header = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm'}

func TestFileStore_MaterializeAndRelease(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	payload := append(append([]byte{}, mp4Header...), bytes.Repeat([]byte{0xAB}, 4096)...)

	h, err := store.Materialize(context.Background(), "videos/../a", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	if h.VideoID != "videos/../a" {
		t.Errorf("VideoID = %v", h.VideoID)
	}
	if h.Size != int64(len(payload)) {
		t.Errorf("Size = %d, want %d", h.Size, len(payload))
	}
	if h.ContentType != "video/mp4" {
		t.Errorf("ContentType = %q, want video/mp4", h.ContentType)
	}
	if filepath.Dir(h.Path) != dir {
		t.Errorf("Path %q escapes spool dir %q", h.Path, dir)
	}

	got, err := os.ReadFile(h.Path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("spooled bytes differ from payload")
	}

	if err := store.Release(h); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(h.Path); !os.IsNotExist(err) {
		t.Errorf("spool file still present after Release: %v", err)
	}

	// Second release is a no-op.
	if err := store.Release(h); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}

func TestFileStore_Materialize_SmallPayload(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	h, err := store.Materialize(context.Background(), "tiny", strings.NewReader("hi"))
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if h.Size != 2 {
		t.Errorf("Size = %d, want 2", h.Size)
	}
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestFileStore_Materialize_ReadErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	if _, err := store.Materialize(context.Background(), "a", failingReader{}); err == nil {
		t.Fatal("Materialize() expected error")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("spool dir has %d entries after failed write, want 0", len(entries))
	}
}

func TestFileStore_Materialize_CancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := bytes.Repeat([]byte{0x01}, 2*sniffLen)
	if _, err := store.Materialize(ctx, "a", bytes.NewReader(payload)); !errors.Is(err, context.Canceled) {
		t.Errorf("Materialize() error = %v, want %v", err, context.Canceled)
	}
}

func TestFileStore_Release_Nil(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := store.Release(nil); err != nil {
		t.Errorf("Release(nil) error = %v", err)
	}
}
