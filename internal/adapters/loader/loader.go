// Package loader provides document loading adapters.
// Clean Architecture: Adapter implementing ports.DocumentLoader.
package loader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

// DefaultMaxFileBytes caps a single document.
const DefaultMaxFileBytes = 50 << 20

// ErrFileTooLarge is returned for files above the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// mimeTypes covers the data room formats; anything else is sniffed.
var mimeTypes = map[string]string{
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":      "application/msword",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".html":     "text/html",
	".htm":      "text/html",
	".json":     "application/json",
}

// FileLoader reads local documents and base64-encodes them for upload.
type FileLoader struct {
	maxFileBytes int64
	concurrency  int
}

// NewFileLoader creates a loader. maxFileBytes <= 0 uses the default.
func NewFileLoader(maxFileBytes int64) *FileLoader {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &FileLoader{
		maxFileBytes: maxFileBytes,
		concurrency:  8,
	}
}

// Load reads a document from the given path.
func (l *FileLoader) Load(ctx context.Context, path string) (*entities.FileUpload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > l.maxFileBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, filepath.Base(path), info.Size(), l.maxFileBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	upload := entities.NewFileUpload(filepath.Base(path), DetectMIME(path, data), data)
	return &upload, nil
}

// LoadAll reads files concurrently and returns them in input order.
func (l *FileLoader) LoadAll(ctx context.Context, paths []string) ([]entities.FileUpload, error) {
	uploads := make([]entities.FileUpload, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			upload, err := l.Load(ctx, path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			uploads[i] = *upload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return uploads, nil
}

// LoadDir loads every supported file directly inside dir, sorted by name.
func (l *FileLoader) LoadDir(ctx context.Context, dir string) ([]entities.FileUpload, error) {
	paths, err := l.ListDir(dir)
	if err != nil {
		return nil, err
	}
	return l.LoadAll(ctx, paths)
}

// ListDir returns the supported files directly inside dir, sorted by name.
// Hidden files are skipped.
func (l *FileLoader) ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !l.Supports(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Supports reports whether the file extension is a known data room format.
func (l *FileLoader) Supports(path string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SupportedExtensions returns all supported extensions, sorted.
func (l *FileLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(mimeTypes))
	for ext := range mimeTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DetectMIME resolves the MIME type from the extension, then the system
// table, then content sniffing.
func DetectMIME(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
	}
	if mediaType, _, err := mime.ParseMediaType(http.DetectContentType(data)); err == nil {
		return mediaType
	}
	return "application/octet-stream"
}
