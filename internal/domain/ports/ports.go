// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"
	"errors"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

// ErrNotFound is returned by stores for unknown IDs.
var ErrNotFound = errors.New("not found")

// DiligenceModel sends a whole data room to the hosted model in one
// request and returns the typed report.
type DiligenceModel interface {
	Analyze(ctx context.Context, files []entities.FileUpload) (*entities.DiligenceReport, error)
}

// DocumentLoader reads local documents into uploads.
type DocumentLoader interface {
	// Load reads a single file.
	Load(ctx context.Context, path string) (*entities.FileUpload, error)

	// LoadAll reads several files, preserving order.
	LoadAll(ctx context.Context, paths []string) ([]entities.FileUpload, error)

	// LoadDir reads every supported file directly inside dir.
	LoadDir(ctx context.Context, dir string) ([]entities.FileUpload, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// AnalysisStore keeps analyses in memory until reset.
type AnalysisStore interface {
	Save(ctx context.Context, a *entities.Analysis) error
	Get(ctx context.Context, id string) (*entities.Analysis, error)
	Delete(ctx context.Context, id string) error
	// List returns newest first.
	List(ctx context.Context) ([]*entities.Analysis, error)
}

// ReportSink receives finished reports, e.g. the exporter used by watch mode.
type ReportSink interface {
	Write(ctx context.Context, report *entities.DiligenceReport) error
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
