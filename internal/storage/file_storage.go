package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

var (
	ErrFileTooLarge    = errors.New("storage: file exceeds the upload limit")
	ErrUnsupportedType = errors.New("storage: unsupported file type")
)

// allowedTypes limits deliverable uploads to document, archive and image
// formats. Keys are filetype MIME values.
var allowedTypes = map[string]bool{
	"application/pdf":              true,
	"application/zip":              true,
	"application/gzip":             true,
	"application/x-tar":            true,
	"application/vnd.ms-excel":     true,
	"application/msword":           true,
	"image/png":                    true,
	"image/jpeg":                   true,
	"image/gif":                    true,
	"image/webp":                   true,
	"application/x-7z-compressed":  true,
	"application/x-rar-compressed": true,
}

// FileStorage keeps uploaded deliverables on local disk, one directory per
// owner.
type FileStorage struct {
	rootPath       string
	maxUploadBytes int64
}

func NewFileStorage(rootPath string, maxUploadMB int64) (*FileStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", rootPath, err)
	}

	return &FileStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save sniffs the content type, writes the file through a temp path and
// returns the relative path, detected MIME type and size. Text files with no
// magic bytes are accepted as text/plain.
func (s *FileStorage) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", "", 0, err
	}

	head := make([]byte, 261)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", 0, fmt.Errorf("storage: read upload: %w", err)
	}
	head = head[:n]

	mimeType := "text/plain"
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		if !allowedTypes[kind.MIME.Value] {
			return "", "", 0, ErrUnsupportedType
		}
		mimeType = kind.MIME.Value
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%s_%d%s", ownerID.String(), time.Now().UnixNano(), filepath.Ext(safeName))

	ownerDir := filepath.Join(s.rootPath, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", "", 0, fmt.Errorf("storage: cannot create owner directory: %w", err)
	}

	targetPath := filepath.Join(ownerDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", "", 0, fmt.Errorf("storage: cannot create file: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", "", 0, fmt.Errorf("storage: write file: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", "", 0, ErrFileTooLarge
	}

	if err := f.Close(); err != nil {
		return "", "", 0, fmt.Errorf("storage: close file: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", "", 0, fmt.Errorf("storage: rename file: %w", err)
	}

	relative := filepath.Join(ownerID.String(), fileName)
	return relative, mimeType, written, nil
}

// Open returns a reader for a stored file.
func (s *FileStorage) Open(ctx context.Context, relativePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := filepath.Join(s.rootPath, filepath.Clean(relativePath))
	if !strings.HasPrefix(target, filepath.Clean(s.rootPath)+string(os.PathSeparator)) {
		return nil, fmt.Errorf("storage: path escapes the storage root")
	}
	return os.Open(target)
}

func (s *FileStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, relativePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: cannot delete file: %w", err)
	}
	return nil
}

// sanitizeFilename strips path components and characters with special
// meaning on disk.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "upload"
	}
	return name
}
