// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/redline-go/internal/adapters/loader"
	"github.com/0xcro3dile/redline-go/internal/adapters/output"
	"github.com/0xcro3dile/redline-go/internal/domain/entities"
	"github.com/0xcro3dile/redline-go/internal/domain/ports"
	"github.com/0xcro3dile/redline-go/internal/domain/usecases"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

const (
	DefaultAddr = ":8080"

	// multipart parts beyond this are spooled to disk by net/http
	multipartMemory = 32 << 20
	encodeWorkers   = 8
	refreshSeconds  = 2
)

// Server is the HTTP server for the upload flow, dashboard and JSON API.
type Server struct {
	analyze        *usecases.AnalyzeUseCase
	templates      *template.Template
	addr           string
	maxUploadBytes int64
	logger         *zap.Logger
	now            func() time.Time
}

// Options configures a Server; zero values use defaults.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(analyze *usecases.AnalyzeUseCase, opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = usecases.DefaultMaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Server{
		analyze:        analyze,
		templates:      tmpl,
		addr:           opts.Addr,
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         opts.Logger.Named("http"),
		now:            time.Now,
	}, nil
}

var templateFuncs = template.FuncMap{
	"severityClass": func(s entities.Severity) string { return strings.ToLower(string(s)) },
	"inc":           func(i int) int { return i + 1 },
	"kb": func(n int64) string {
		if n < 1024 {
			return fmt.Sprintf("%d B", n)
		}
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	},
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	staticContent, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	// UI
	r.Get("/", s.handleIndex)
	r.Post("/analyze", s.handleUpload)
	r.Route("/analyses/{id}", func(r chi.Router) {
		r.Get("/", s.handleAnalysis)
		r.Post("/reset", s.handleReset)
		r.Get("/export.{format}", s.handleExport)
	})

	// API
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAPIAnalyze)
		r.Get("/analyses", s.handleAPIAnalyses)
		r.Get("/analyses/{id}", s.handleAPIAnalysis)
		r.Get("/health", s.handleHealth)
	})

	return r
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		// uploads of a whole data room can be slow
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	s.logger.Info("RedLineAI server starting", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type indexView struct {
	Error      string
	Extensions string
}

// handleIndex renders the landing page, with the error banner when
// ?error= names a failed analysis.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := indexView{Extensions: acceptExtensions()}
	if id := r.URL.Query().Get("error"); id != "" {
		if a, err := s.analyze.Get(r.Context(), id); err == nil && a.Status == entities.StatusError {
			view.Error = a.Error
		}
	}
	s.render(w, http.StatusOK, "index.html", view)
}

func acceptExtensions() string {
	return strings.Join(loader.NewFileLoader(0).SupportedExtensions(), ",")
}

// handleUpload starts an analysis from a multipart form and redirects to it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.renderUploadError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	files, err := encodeUploads(r.Context(), headers)
	if err != nil {
		s.renderUploadError(w, r, err)
		return
	}

	a, err := s.analyze.Start(r.Context(), files)
	if err != nil {
		s.renderUploadError(w, r, err)
		return
	}
	http.Redirect(w, r, "/analyses/"+a.ID, http.StatusSeeOther)
}

func (s *Server) renderUploadError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, usecases.ErrTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	s.logger.Warn("upload rejected", zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
	s.render(w, status, "index.html", indexView{
		Error:      usecases.DisplayError(err),
		Extensions: acceptExtensions(),
	})
}

// encodeUploads reads every part concurrently, preserving form order.
func encodeUploads(ctx context.Context, headers []*multipart.FileHeader) ([]entities.FileUpload, error) {
	files := make([]entities.FileUpload, len(headers))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(encodeWorkers)
	for i, fh := range headers {
		g.Go(func() error {
			f, err := fh.Open()
			if err != nil {
				return fmt.Errorf("opening %s: %w", fh.Filename, err)
			}
			defer f.Close()
			raw, err := io.ReadAll(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", fh.Filename, err)
			}
			mimeType := fh.Header.Get("Content-Type")
			if mimeType == "" || mimeType == "application/octet-stream" {
				mimeType = loader.DetectMIME(fh.Filename, raw)
			}
			files[i] = entities.NewFileUpload(fh.Filename, mimeType, raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

type processingView struct {
	Analysis *entities.Analysis
	Step     int
	StepText string
	Steps    int
	Progress int
	Refresh  int
}

type dashboardView struct {
	Analysis *entities.Analysis
	Report   *entities.DiligenceReport
	Tab      entities.Tab
	Tabs     []entities.Tab
	Counts   entities.SeverityCounts
	Risks    []entities.RiskItem
	Formats  []output.Format
}

// handleAnalysis shows the processing view, the dashboard or sends the
// user back to the landing page with the error banner.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := s.analyze.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.internalError(w, r, err)
		return
	}

	switch a.Status {
	case entities.StatusComplete:
		s.render(w, http.StatusOK, "dashboard.html", dashboardView{
			Analysis: a,
			Report:   a.Report,
			Tab:      entities.ParseTab(r.URL.Query().Get("tab")),
			Tabs:     entities.Tabs,
			Counts:   a.Report.Counts(),
			Risks:    a.Report.SortedRisks(),
			Formats:  output.Formats,
		})
	case entities.StatusError:
		http.Redirect(w, r, "/?error="+a.ID, http.StatusSeeOther)
	default:
		step := entities.ProcessingStep(s.now().Sub(a.StartedAt))
		total := len(entities.ProcessingSteps)
		s.render(w, http.StatusOK, "processing.html", processingView{
			Analysis: a,
			Step:     step,
			StepText: entities.ProcessingSteps[step],
			Steps:    total,
			Progress: (step + 1) * 100 / total,
			Refresh:  refreshSeconds,
		})
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	err := s.analyze.Reset(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil, errors.Is(err, ports.ErrNotFound):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, entities.ErrInvalidTransition):
		http.Error(w, "analysis is still running", http.StatusConflict)
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	formats, err := output.ParseFormats([]string{chi.URLParam(r, "format")})
	if err != nil || len(formats) != 1 {
		http.NotFound(w, r)
		return
	}
	format := formats[0]

	a, err := s.analyze.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.internalError(w, r, err)
		return
	}
	if a.Status != entities.StatusComplete || a.Report == nil {
		http.Error(w, "analysis is not complete", http.StatusConflict)
		return
	}

	name := fmt.Sprintf("redline-%s.%s", shortID(a.ID), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := output.Write(w, format, a.Report, a.CompletedAt); err != nil {
		s.logger.Error("export", zap.String("id", a.ID), zap.String("format", string(format)), zap.Error(err))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type analyzeRequest struct {
	Files []entities.FileUpload `json:"files"`
}

// handleAPIAnalyze runs an analysis synchronously and returns the report.
func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	// base64 inflates payloads by a third
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes*4/3+4096)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	files := make([]entities.FileUpload, len(req.Files))
	for i, f := range req.Files {
		raw, err := f.Bytes()
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("file %q: invalid base64 data", f.Name))
			return
		}
		if f.Type == "" {
			f.Type = loader.DetectMIME(f.Name, raw)
		}
		files[i] = entities.NewFileUpload(f.Name, f.Type, raw)
	}

	report, err := s.analyze.Run(r.Context(), files)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, usecases.ErrNoFiles) || errors.Is(err, usecases.ErrTooLarge) {
			status = http.StatusBadRequest
		}
		s.logger.Error("api analyze", zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
		writeJSONError(w, status, usecases.DisplayError(err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleAPIAnalyses lists retained analyses without their reports.
func (s *Server) handleAPIAnalyses(w http.ResponseWriter, r *http.Request) {
	list, err := s.analyze.List(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, a := range list {
		a.Report = nil
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAPIAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.analyze.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "analysis not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, buf.String())
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
