package output

import (
	"encoding/csv"
	"io"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

// AmendmentsHeader is the first CSV row, matching the dashboard table.
var AmendmentsHeader = []string{"Contract", "Original Clause", "Amending Doc", "Final Controlling Position"}

// WriteAmendmentsCSV writes the amendment resolution table.
// Output is UTF-8 with BOM for clean Excel opening on Windows.
func WriteAmendmentsCSV(w io.Writer, r *entities.DiligenceReport) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(AmendmentsHeader); err != nil {
		return err
	}
	for _, a := range r.AmendmentResolution {
		if err := cw.Write([]string{a.Contract, a.OriginalClause, a.AmendingDocument, a.FinalPosition}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
