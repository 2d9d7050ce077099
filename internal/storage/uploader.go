// Package storage stores attachment uploads and hands back public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/SaschaHYR/G-Copro-sub000/internal/config"
)

// Uploader persists an uploaded file and returns its public address.
type Uploader interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// DiskUploader writes uploads under a local directory served statically.
type DiskUploader struct {
	dir           string
	publicBaseURL string
	maxBytes      int64
}

// NewDiskUploader ensures the target directory exists.
func NewDiskUploader(cfg config.StorageConfig) (*DiskUploader, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	maxBytes := int64(cfg.MaxUploadMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &DiskUploader{
		dir:           cfg.Dir,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:      maxBytes,
	}, nil
}

// Save writes the file under a random prefix to avoid collisions and path
// tricks in client-provided names.
func (u *DiskUploader) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	safeName := sanitizeFilename(filename)
	storedName := uuid.NewString()[:8] + "_" + safeName
	path := filepath.Join(u.dir, storedName)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if written > u.maxBytes {
		os.Remove(path)
		return "", fmt.Errorf("upload exceeds %d bytes", u.maxBytes)
	}

	return u.publicBaseURL + "/" + storedName, nil
}

// Dir exposes the storage directory for static serving.
func (u *DiskUploader) Dir() string {
	return u.dir
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
