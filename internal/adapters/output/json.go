// Package output renders a diligence report for export: JSON, Markdown,
// CSV and a standalone HTML page.
package output

import (
	"encoding/json"
	"io"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

// WriteJSON writes the report as indented JSON using the wire field names.
func WriteJSON(w io.Writer, r *entities.DiligenceReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
