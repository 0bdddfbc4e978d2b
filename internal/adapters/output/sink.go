package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

// Format is an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
)

// Formats lists every export format.
var Formats = []Format{FormatJSON, FormatMarkdown, FormatCSV, FormatHTML}

// ParseFormats accepts names like "json", "md", "markdown", "csv", "html".
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		f := Format(n)
		if n == "markdown" {
			f = FormatMarkdown
		}
		if !f.valid() {
			return nil, fmt.Errorf("unknown output format %q", n)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

func (f Format) valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// ContentType is the HTTP media type for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

// Write renders the report in format f.
func Write(w io.Writer, f Format, r *entities.DiligenceReport, generatedAt time.Time) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatMarkdown:
		return WriteMarkdown(w, r)
	case FormatCSV:
		return WriteAmendmentsCSV(w, r)
	case FormatHTML:
		return WriteHTML(w, r, generatedAt)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// FileSink writes each report to Dir in every configured format, using a
// timestamped base name such as redline-20260102-150405.
type FileSink struct {
	dir     string
	formats []Format
	logger  *zap.Logger
	now     func() time.Time
}

// NewFileSink creates a FileSink; no formats means all of them.
func NewFileSink(dir string, formats []Format, logger *zap.Logger) *FileSink {
	if len(formats) == 0 {
		formats = Formats
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{
		dir:     dir,
		formats: formats,
		logger:  logger.Named("sink"),
		now:     time.Now,
	}
}

// Write implements ports.ReportSink.
func (s *FileSink) Write(ctx context.Context, r *entities.DiligenceReport) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("output: mkdir: %w", err)
	}

	now := s.now()
	base := "redline-" + now.Format("20060102-150405")
	for _, f := range s.formats {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.dir, base+"."+string(f))
		if err := writeFile(path, f, r, now); err != nil {
			return fmt.Errorf("output: %s: %w", f, err)
		}
		s.logger.Info("report written", zap.String("path", path))
	}
	return nil
}

func writeFile(path string, f Format, r *entities.DiligenceReport, now time.Time) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, f, r, now); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
