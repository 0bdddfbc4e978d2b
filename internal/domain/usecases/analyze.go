// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code - just the analysis lifecycle.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
	"github.com/0xcro3dile/redline-go/internal/domain/ports"
)

const (
	DefaultAnalysisTimeout = 10 * time.Minute
	DefaultMaxUploadBytes  = 200 << 20

	unexpectedErrorMessage = "An unexpected error occurred during analysis."
)

var (
	ErrNoFiles  = errors.New("no files selected")
	ErrTooLarge = errors.New("upload too large")
)

// AnalyzeUseCase drives an analysis through idle -> analyzing -> complete | error.
type AnalyzeUseCase struct {
	model          ports.DiligenceModel
	store          ports.AnalysisStore
	timeout        time.Duration
	maxUploadBytes int64
	logger         *zap.Logger
	now            func() time.Time

	mu      sync.Mutex
	pending map[string]chan struct{}
	wg      sync.WaitGroup
}

// AnalyzeOptions tunes AnalyzeUseCase; zero values use defaults.
type AnalyzeOptions struct {
	Timeout        time.Duration
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// NewAnalyzeUseCase creates an AnalyzeUseCase with injected dependencies.
func NewAnalyzeUseCase(model ports.DiligenceModel, store ports.AnalysisStore, opts AnalyzeOptions) *AnalyzeUseCase {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAnalysisTimeout
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &AnalyzeUseCase{
		model:          model,
		store:          store,
		timeout:        opts.Timeout,
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         opts.Logger.Named("analyze"),
		now:            time.Now,
		pending:        make(map[string]chan struct{}),
	}
}

// Validate checks the upload set before any work is started.
func (uc *AnalyzeUseCase) Validate(files []entities.FileUpload) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	if total > uc.maxUploadBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, total, uc.maxUploadBytes)
	}
	return nil
}

// Run analyzes files synchronously without recording an Analysis.
func (uc *AnalyzeUseCase) Run(ctx context.Context, files []entities.FileUpload) (*entities.DiligenceReport, error) {
	if err := uc.Validate(files); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.model.Analyze(ctx, files)
}

// Start records a new analysis and runs the model in the background.
// The returned copy is in the analyzing state.
func (uc *AnalyzeUseCase) Start(ctx context.Context, files []entities.FileUpload) (*entities.Analysis, error) {
	if err := uc.Validate(files); err != nil {
		return nil, err
	}

	a := &entities.Analysis{
		ID:        uuid.NewString(),
		Status:    entities.StatusIdle,
		Files:     make([]entities.FileSummary, len(files)),
		StartedAt: uc.now(),
	}
	for i, f := range files {
		a.Files[i] = f.Summary()
	}
	if err := a.Transition(entities.StatusAnalyzing); err != nil {
		return nil, err
	}
	if err := uc.store.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	done := make(chan struct{})
	uc.mu.Lock()
	uc.pending[a.ID] = done
	uc.mu.Unlock()

	uc.logger.Info("analysis started", zap.String("id", a.ID), zap.Int("files", len(files)))

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		defer close(done)
		uc.finish(context.WithoutCancel(ctx), a.Clone(), files)
	}()

	return a.Clone(), nil
}

func (uc *AnalyzeUseCase) finish(ctx context.Context, a *entities.Analysis, files []entities.FileUpload) {
	modelCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	report, err := uc.model.Analyze(modelCtx, files)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.pending, a.ID)

	// Reset may not happen while analyzing, but eviction can.
	if _, getErr := uc.store.Get(ctx, a.ID); getErr != nil {
		uc.logger.Warn("analysis dropped before completion", zap.String("id", a.ID), zap.Error(getErr))
		return
	}

	a.CompletedAt = uc.now()
	if err != nil {
		a.Error = DisplayError(err)
		_ = a.Transition(entities.StatusError)
		uc.logger.Error("analysis failed", zap.String("id", a.ID), zap.Error(err))
	} else {
		a.Report = report
		_ = a.Transition(entities.StatusComplete)
		uc.logger.Info("analysis complete",
			zap.String("id", a.ID),
			zap.Duration("elapsed", a.CompletedAt.Sub(a.StartedAt)),
		)
	}
	if saveErr := uc.store.Save(ctx, a); saveErr != nil {
		uc.logger.Error("saving analysis", zap.String("id", a.ID), zap.Error(saveErr))
	}
}

// Get returns the current state of an analysis.
func (uc *AnalyzeUseCase) Get(ctx context.Context, id string) (*entities.Analysis, error) {
	return uc.store.Get(ctx, id)
}

// List returns the retained analyses, newest first.
func (uc *AnalyzeUseCase) List(ctx context.Context) ([]*entities.Analysis, error) {
	return uc.store.List(ctx)
}

// Wait blocks until the analysis leaves the analyzing state or ctx ends.
func (uc *AnalyzeUseCase) Wait(ctx context.Context, id string) (*entities.Analysis, error) {
	uc.mu.Lock()
	done, ok := uc.pending[id]
	uc.mu.Unlock()

	if ok {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return uc.store.Get(ctx, id)
}

// Reset returns a finished analysis to idle and forgets it.
func (uc *AnalyzeUseCase) Reset(ctx context.Context, id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	a, err := uc.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := a.Transition(entities.StatusIdle); err != nil {
		return err
	}
	uc.logger.Info("analysis reset", zap.String("id", id))
	return uc.store.Delete(ctx, id)
}

// Drain waits for background analyses to finish.
func (uc *AnalyzeUseCase) Drain() {
	uc.wg.Wait()
}

// DisplayError converts any failure into the message shown to the user.
func DisplayError(err error) string {
	if err == nil || err.Error() == "" {
		return unexpectedErrorMessage
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The analysis timed out before the model responded."
	}
	return err.Error()
}
