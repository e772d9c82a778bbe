// Package download saves course files fetched from the portal.
package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// ErrChecksum reports that the file on disk differs from what was downloaded.
var ErrChecksum = errors.New("checksum verification failed")

// Fetcher downloads a course file. *api.Client satisfies it.
type Fetcher interface {
	DownloadCourse(ctx context.Context, id int64) ([]byte, error)
}

// Progress is reported between download stages.
type Progress struct {
	Stage   string
	Message string
}

// Result describes a saved file.
type Result struct {
	Path   string
	Size   int
	SHA256 string
}

// Course downloads course id and saves it under dest. dest may be a file
// path, an existing directory, or empty for the working directory.
func Course(ctx context.Context, f Fetcher, id int64, dest string, progress func(Progress)) (*Result, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	progress(Progress{Stage: "download", Message: fmt.Sprintf("Downloading course #%d...", id)})
	data, err := f.DownloadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("course #%d: empty file", id)
	}

	target, err := resolveTarget(dest, FileName(id, data))
	if err != nil {
		return nil, err
	}

	progress(Progress{Stage: "save", Message: fmt.Sprintf("Saving %s...", target)})
	sum := sha256.Sum256(data)
	if err := SaveAtomic(data, target, sum[:]); err != nil {
		return nil, fmt.Errorf("save course: %w", err)
	}

	progress(Progress{Stage: "done", Message: fmt.Sprintf("Saved %s", target)})
	return &Result{Path: target, Size: len(data), SHA256: hex.EncodeToString(sum[:])}, nil
}

// FileName picks a file name for a course from its sniffed content type.
func FileName(id int64, data []byte) string {
	ext := ".bin"
	if bytes.HasPrefix(data, []byte("%PDF")) {
		ext = ".pdf"
	} else if ct := http.DetectContentType(data); ct != "application/octet-stream" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("cours-%d%s", id, ext)
}

func resolveTarget(dest, name string) (string, error) {
	if dest == "" {
		return name, nil
	}
	info, err := os.Stat(dest)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(dest, name), nil
	case err == nil || errors.Is(err, os.ErrNotExist):
		return dest, nil
	default:
		return "", fmt.Errorf("stat %s: %w", dest, err)
	}
}

// SaveAtomic writes data next to target, verifies the written bytes against
// expectedHash and renames the file into place.
func SaveAtomic(data []byte, target string, expectedHash []byte) error {
	parentDir := filepath.Dir(target)
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpDir, err := os.MkdirTemp(parentDir, ".jsp-download-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	tmpFile := filepath.Join(tmpDir, filepath.Base(target))
	f, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpFile)
	if err != nil {
		return fmt.Errorf("re-read temp file: %w", err)
	}
	writtenHash := sha256.Sum256(written)
	if !bytes.Equal(writtenHash[:], expectedHash) {
		return fmt.Errorf("%w: expected %x, got %x", ErrChecksum, expectedHash, writtenHash[:])
	}

	if err := os.Rename(tmpFile, target); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	if err := os.Chmod(target, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return nil
}
