package output

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").Funcs(template.FuncMap{
		"severityClass": func(s entities.Severity) string { return strings.ToLower(string(s)) },
	}).ParseFS(templateFS, "templates/report.html.tmpl"),
)

type htmlReport struct {
	Report      *entities.DiligenceReport
	Counts      entities.SeverityCounts
	Risks       []entities.RiskItem
	Tabs        []entities.Tab
	GeneratedAt time.Time
}

// WriteHTML writes a standalone single-file HTML report.
func WriteHTML(w io.Writer, r *entities.DiligenceReport, generatedAt time.Time) error {
	return reportTemplate.Execute(w, htmlReport{
		Report:      r,
		Counts:      r.Counts(),
		Risks:       r.SortedRisks(),
		Tabs:        entities.Tabs,
		GeneratedAt: generatedAt,
	})
}
