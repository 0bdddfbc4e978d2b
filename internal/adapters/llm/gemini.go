// Package llm provides the Gemini diligence adapter.
// Clean Architecture: Adapter implementing ports.DiligenceModel.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
)

const (
	DefaultModel       = "gemini-3-pro-preview"
	DefaultTemperature = float32(0.1)
)

var (
	ErrMissingAPIKey     = errors.New("API Key is missing. Please check your environment configuration.")
	ErrEmptyResponse     = errors.New("No response generated from RedLineAI.")
	ErrMalformedResponse = errors.New("malformed response from RedLineAI")
	ErrNoDocuments       = errors.New("no documents to analyze")
)

// Config configures the Gemini adapter.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // empty uses the public endpoint
	APIVersion  string
	Temperature float32
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// GeminiAdapter implements ports.DiligenceModel using the Gemini API.
type GeminiAdapter struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGeminiAdapter creates the adapter. A missing API key is not an error
// here; Analyze reports it so the UI can show it on the error path.
func NewGeminiAdapter(cfg Config, logger *zap.Logger) (*GeminiAdapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}

	a := &GeminiAdapter{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger.Named("gemini"),
	}
	if cfg.APIKey == "" {
		return a, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
		},
	}
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	a.client = client
	return a, nil
}

// Model returns the configured model name.
func (a *GeminiAdapter) Model() string {
	return a.model
}

// Analyze sends every file as an inline part, followed by the instruction
// text, in a single generateContent call.
func (a *GeminiAdapter) Analyze(ctx context.Context, files []entities.FileUpload) (*entities.DiligenceReport, error) {
	if a.client == nil {
		return nil, a.fail(ErrMissingAPIKey)
	}
	if len(files) == 0 {
		return nil, a.fail(ErrNoDocuments)
	}

	parts := make([]*genai.Part, 0, len(files)+1)
	for _, f := range files {
		raw, err := f.Bytes()
		if err != nil {
			return nil, a.fail(err)
		}
		parts = append(parts, genai.NewPartFromBytes(raw, f.Type))
	}
	parts = append(parts, genai.NewPartFromText(UserPrompt))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ReportSchema(),
		Temperature:       genai.Ptr(a.temperature),
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	a.logger.Info("analysis request",
		zap.String("model", a.model),
		zap.Int("files", len(files)),
	)

	resp, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		config,
	)
	if err != nil {
		return nil, a.fail(fmt.Errorf("calling Gemini: %w", err))
	}

	report, err := DecodeReport(resp.Text())
	if err != nil {
		return nil, a.fail(err)
	}

	a.logger.Info("analysis complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("risks", len(report.ExecutiveSummary.TopRisks)),
		zap.Int("findings", len(report.DetailedFindings)),
	)
	return report, nil
}

func (a *GeminiAdapter) fail(err error) error {
	a.logger.Error("RedLineAI analysis error", zap.Error(err))
	return err
}

// DecodeReport parses the model's JSON text into a validated report.
func DecodeReport(text string) (*entities.DiligenceReport, error) {
	text = stripFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var report entities.DiligenceReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	report.Normalize()
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &report, nil
}

// stripFence removes a ```json fence some models wrap around the body.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
