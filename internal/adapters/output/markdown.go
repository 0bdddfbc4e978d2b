package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

// WriteMarkdown writes the full report, one section per dashboard tab.
func WriteMarkdown(w io.Writer, r *entities.DiligenceReport) error {
	var b strings.Builder
	b.WriteString("# RedLineAI Diligence Report\n\n")
	for i, tab := range entities.Tabs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(MarkdownSection(r, tab))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// MarkdownSection renders a single tab.
func MarkdownSection(r *entities.DiligenceReport, tab entities.Tab) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", tab.Label())

	switch tab {
	case entities.TabDetailed:
		writeFindings(&b, r)
	case entities.TabAmendments:
		writeAmendments(&b, r)
	case entities.TabQuestions:
		writeQuestions(&b, r)
	default:
		writeSummary(&b, r)
	}
	return b.String()
}

func writeSummary(b *strings.Builder, r *entities.DiligenceReport) {
	c := r.Counts()
	fmt.Fprintf(b, "- **Critical Risks:** %d (Deal-Breakers)\n", c.High)
	fmt.Fprintf(b, "- **Material Issues:** %d (Value Erosion)\n", c.Medium)
	fmt.Fprintf(b, "- **Minor Issues:** %d (Operational / Hygiene)\n\n", c.Low)

	b.WriteString("### Risk Inventory\n\n")
	risks := r.SortedRisks()
	if len(risks) == 0 {
		b.WriteString("No risks identified.\n")
		return
	}
	for _, risk := range risks {
		fmt.Fprintf(b, "#### [%s] %s\n\n", risk.Severity.Label(), inline(risk.Title))
		if risk.Impact != "" {
			fmt.Fprintf(b, "%s\n\n", risk.Impact)
		}
		fmt.Fprintf(b, "_%s_\n\n", risk.RemediationLabel())
	}
}

func writeFindings(b *strings.Builder, r *entities.DiligenceReport) {
	if len(r.DetailedFindings) == 0 {
		b.WriteString("No detailed findings.\n")
		return
	}
	for _, f := range r.DetailedFindings {
		fmt.Fprintf(b, "### %s\n\n", inline(f.Risk))
		fmt.Fprintf(b, "**Reasoning & Synthesis:** %s\n\n", f.Reasoning)
		if len(f.Documents) > 0 {
			fmt.Fprintf(b, "**Sources:** %s\n\n", strings.Join(f.Documents, ", "))
		}
		if f.References != "" {
			fmt.Fprintf(b, "**Specific Reference:** `%s`\n\n", inline(strings.ReplaceAll(f.References, "`", "'")))
		}
	}
}

func writeAmendments(b *strings.Builder, r *entities.DiligenceReport) {
	if len(r.AmendmentResolution) == 0 {
		b.WriteString("No amendments found.\n")
		return
	}
	b.WriteString("| " + strings.Join(AmendmentsHeader, " | ") + " |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, a := range r.AmendmentResolution {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			cell(a.Contract), strike(cell(a.OriginalClause)), cell(a.AmendingDocument), cell(a.FinalPosition))
	}
}

func writeQuestions(b *strings.Builder, r *entities.DiligenceReport) {
	b.WriteString("### Generated Diligence Request List\n\n")
	if len(r.QuestionsForCounsel) == 0 {
		b.WriteString("No questions for counsel.\n")
		return
	}
	for i, q := range r.QuestionsForCounsel {
		fmt.Fprintf(b, "%d. %s\n", i+1, inline(q))
	}
}

// strike marks superseded language, as the dashboard does.
func strike(s string) string {
	if s == "" {
		return s
	}
	return "~~" + s + "~~"
}

// cell makes a value safe inside a Markdown table row.
func cell(s string) string {
	return inline(strings.ReplaceAll(s, "|", `\|`))
}

// inline collapses whitespace so model text cannot break a heading or list item.
func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
