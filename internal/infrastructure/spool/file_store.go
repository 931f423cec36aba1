// Package spool materializes retrieved payloads as files on local disk.
package spool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/domain/repository"
)

// sniffLen is the prefix length http.DetectContentType inspects.
const sniffLen = 512

// FileStore implements repository.HandleStore with one file per video.
type FileStore struct {
	dir string
}

// NewFileStore creates dir when needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Materialize writes r to the video's spool file and returns a handle to it.
// The file appears atomically; a failed or cancelled write leaves nothing behind.
func (s *FileStore) Materialize(ctx context.Context, videoID string, r io.Reader) (*model.Handle, error) {
	path := s.pathFor(videoID)

	pending, err := renameio.NewPendingFile(path, renameio.WithTempDir(s.dir))
	if err != nil {
		return nil, fmt.Errorf("create pending spool file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	head = head[:n]

	if _, err := pending.Write(head); err != nil {
		return nil, fmt.Errorf("write payload: %w", err)
	}

	rest, err := io.Copy(pending, &contextReader{ctx: ctx, r: r})
	if err != nil {
		return nil, fmt.Errorf("write payload: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return nil, fmt.Errorf("commit spool file: %w", err)
	}

	return &model.Handle{
		VideoID:     videoID,
		Path:        path,
		Size:        int64(n) + rest,
		ContentType: http.DetectContentType(head),
	}, nil
}

// Release removes the handle's spool file.
func (s *FileStore) Release(handle *model.Handle) error {
	if handle == nil {
		return nil
	}
	if err := os.Remove(handle.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove spool file: %w", err)
	}
	return nil
}

// pathFor hashes the identifier so arbitrary IDs map to safe file names.
func (s *FileStore) pathFor(videoID string) string {
	sum := sha256.Sum256([]byte(videoID))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".media")
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ repository.HandleStore = (*FileStore)(nil)
