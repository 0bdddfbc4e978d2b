// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FileUpload is one data room document as it travels to the model.
// Data holds the base64 payload, never raw bytes.
type FileUpload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Data string `json:"data"`
}

// NewFileUpload encodes raw bytes into a FileUpload.
func NewFileUpload(name, mimeType string, raw []byte) FileUpload {
	return FileUpload{
		Name: name,
		Type: mimeType,
		Size: int64(len(raw)),
		Data: base64.StdEncoding.EncodeToString(raw),
	}
}

// Bytes decodes the base64 payload.
func (f FileUpload) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(f.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.Name, err)
	}
	return raw, nil
}

// Summary drops the payload for display.
func (f FileUpload) Summary() FileSummary {
	return FileSummary{Name: f.Name, Type: f.Type, Size: f.Size}
}

// FileSummary describes an uploaded file without its contents.
type FileSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Severity is the model's risk classification.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Severities lists the enum in descending order.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// ParseSeverity accepts the enum values case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	for _, sev := range Severities {
		if strings.EqualFold(strings.TrimSpace(s), string(sev)) {
			return sev, nil
		}
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Valid reports whether s is one of the three enum values.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Rank orders severities; unknown values rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Label is the dashboard badge text.
func (s Severity) Label() string {
	switch s {
	case SeverityHigh:
		return "Critical Risk"
	case SeverityMedium:
		return "Material Issue"
	case SeverityLow:
		return "Minor Issue"
	default:
		return string(s)
	}
}

// RiskItem is one entry of the executive summary.
type RiskItem struct {
	Title      string   `json:"title"`
	Severity   Severity `json:"severity"`
	Impact     string   `json:"impact"`
	Remediable bool     `json:"remediable"`
}

// RemediationLabel is "Remediable Pre-Close" or "Structural Risk".
func (r RiskItem) RemediationLabel() string {
	if r.Remediable {
		return "Remediable Pre-Close"
	}
	return "Structural Risk"
}

// DetailedFinding ties a risk to its source documents.
type DetailedFinding struct {
	Risk       string   `json:"risk"`
	Documents  []string `json:"documents"`
	References string   `json:"references"`
	Reasoning  string   `json:"reasoning"`
}

// AmendmentResolution is one row of the amendment table.
type AmendmentResolution struct {
	Contract         string `json:"contract"`
	OriginalClause   string `json:"originalClause"`
	AmendingDocument string `json:"amendingDocument"`
	FinalPosition    string `json:"finalPosition"`
}

// ExecutiveSummary holds every risk the model identified.
type ExecutiveSummary struct {
	TopRisks []RiskItem `json:"topRisks"`
}

// DiligenceReport is the structured model output.
type DiligenceReport struct {
	ExecutiveSummary    ExecutiveSummary      `json:"executiveSummary"`
	DetailedFindings    []DetailedFinding     `json:"detailedFindings"`
	AmendmentResolution []AmendmentResolution `json:"amendmentResolution"`
	QuestionsForCounsel []string              `json:"questionsForCounsel"`
}

// Normalize replaces nil slices with empty ones so renderers and JSON
// output never see null, and canonicalizes severity casing. Unknown
// severities are left for Validate to reject.
func (r *DiligenceReport) Normalize() {
	if r.ExecutiveSummary.TopRisks == nil {
		r.ExecutiveSummary.TopRisks = []RiskItem{}
	}
	for i := range r.ExecutiveSummary.TopRisks {
		risk := &r.ExecutiveSummary.TopRisks[i]
		if sev, err := ParseSeverity(string(risk.Severity)); err == nil {
			risk.Severity = sev
		}
	}
	if r.DetailedFindings == nil {
		r.DetailedFindings = []DetailedFinding{}
	}
	for i := range r.DetailedFindings {
		if r.DetailedFindings[i].Documents == nil {
			r.DetailedFindings[i].Documents = []string{}
		}
	}
	if r.AmendmentResolution == nil {
		r.AmendmentResolution = []AmendmentResolution{}
	}
	if r.QuestionsForCounsel == nil {
		r.QuestionsForCounsel = []string{}
	}
}

// Validate checks the severity enum on every risk.
func (r *DiligenceReport) Validate() error {
	var errs []error
	for i, risk := range r.ExecutiveSummary.TopRisks {
		if !risk.Severity.Valid() {
			errs = append(errs, fmt.Errorf("topRisks[%d] %q: invalid severity %q", i, risk.Title, risk.Severity))
		}
	}
	return errors.Join(errs...)
}

// SeverityCounts tallies risks per severity.
type SeverityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Total is the number of counted risks.
func (c SeverityCounts) Total() int {
	return c.High + c.Medium + c.Low
}

// Counts tallies the executive summary.
func (r *DiligenceReport) Counts() SeverityCounts {
	var c SeverityCounts
	for _, risk := range r.ExecutiveSummary.TopRisks {
		switch risk.Severity {
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		}
	}
	return c
}

// SortedRisks returns the risk inventory ordered by severity, keeping
// the model's order within a severity.
func (r *DiligenceReport) SortedRisks() []RiskItem {
	risks := make([]RiskItem, len(r.ExecutiveSummary.TopRisks))
	copy(risks, r.ExecutiveSummary.TopRisks)
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Severity.Rank() > risks[j].Severity.Rank()
	})
	return risks
}

// Status is the four-value analysis state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusAnalyzing Status = "analyzing"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

// ErrInvalidTransition is returned when the status machine rejects a move.
var ErrInvalidTransition = errors.New("invalid status transition")

// CanTransition reports whether s may move to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusIdle:
		return next == StatusAnalyzing
	case StatusAnalyzing:
		return next == StatusComplete || next == StatusError
	case StatusComplete:
		return next == StatusIdle
	case StatusError:
		return next == StatusIdle || next == StatusAnalyzing
	default:
		return false
	}
}

// Analysis is one upload-to-report session held in memory until reset.
type Analysis struct {
	ID          string           `json:"id"`
	Status      Status           `json:"status"`
	Files       []FileSummary    `json:"files"`
	Report      *DiligenceReport `json:"report,omitempty"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt time.Time        `json:"completedAt,omitzero"`
}

// Transition moves the analysis through the status machine.
func (a *Analysis) Transition(next Status) error {
	if !a.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	return nil
}

// Clone returns a copy safe to hand out of a store.
func (a *Analysis) Clone() *Analysis {
	c := *a
	c.Files = append([]FileSummary(nil), a.Files...)
	return &c
}

// Tab identifies a dashboard view.
type Tab string

const (
	TabSummary    Tab = "summary"
	TabDetailed   Tab = "detailed"
	TabAmendments Tab = "amendments"
	TabQuestions  Tab = "questions"
)

// Tabs lists the dashboard tabs in sidebar order.
var Tabs = []Tab{TabSummary, TabDetailed, TabAmendments, TabQuestions}

// ParseTab falls back to the summary tab.
func ParseTab(s string) Tab {
	for _, t := range Tabs {
		if string(t) == s {
			return t
		}
	}
	return TabSummary
}

// Label is the sidebar text for the tab.
func (t Tab) Label() string {
	switch t {
	case TabDetailed:
		return "Detailed Findings"
	case TabAmendments:
		return "Amendment Resolution"
	case TabQuestions:
		return "Counsel Questions"
	default:
		return "Executive Summary"
	}
}

// ProcessingSteps are shown while the model is working.
var ProcessingSteps = []string{
	"Ingesting Virtual Data Room...",
	"Standardizing Document Formats...",
	"Identifying Cross-References...",
	"Resolving Amendment Hierarchies...",
	"Synthesizing Legal Risks...",
	"Validating Financial Clauses...",
	"Generating Final Report...",
}

// ProcessingStepInterval is how long each step is shown.
const ProcessingStepInterval = 1500 * time.Millisecond

// ProcessingStep returns the step index for the elapsed time, holding on
// the last step.
func ProcessingStep(elapsed time.Duration) int {
	if elapsed < 0 {
		return 0
	}
	step := int(elapsed / ProcessingStepInterval)
	if step >= len(ProcessingSteps) {
		step = len(ProcessingSteps) - 1
	}
	return step
}
