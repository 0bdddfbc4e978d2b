// Package usecases - watch.go re-runs the analysis when a data room directory changes.
package usecases

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
	"github.com/0xcro3dile/redline-go/internal/domain/ports"
)

// DefaultDebounce collapses bursts of file events into one analysis.
const DefaultDebounce = 2 * time.Second

// WatchUseCase watches a directory and analyzes its contents on change.
type WatchUseCase struct {
	watcher  ports.FileWatcher
	loader   ports.DocumentLoader
	analyzer *AnalyzeUseCase
	sinks    []ports.ReportSink
	debounce time.Duration
	logger   *zap.Logger

	// OnReport, when set, is called after every successful analysis.
	OnReport func(*entities.DiligenceReport)
}

// NewWatchUseCase creates a WatchUseCase with injected dependencies.
func NewWatchUseCase(
	watcher ports.FileWatcher,
	loader ports.DocumentLoader,
	analyzer *AnalyzeUseCase,
	sinks []ports.ReportSink,
	debounce time.Duration,
	logger *zap.Logger,
) *WatchUseCase {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchUseCase{
		watcher:  watcher,
		loader:   loader,
		analyzer: analyzer,
		sinks:    sinks,
		debounce: debounce,
		logger:   logger.Named("watch"),
	}
}

// Run analyzes dir once, then again after every debounced change, until
// ctx is cancelled. Analysis failures are logged and watching continues.
func (uc *WatchUseCase) Run(ctx context.Context, dir string) error {
	events, err := uc.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	uc.logger.Info("watching data room", zap.String("dir", dir), zap.Duration("debounce", uc.debounce))
	uc.analyzeDir(ctx, dir)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			uc.logger.Debug("document changed",
				zap.String("path", ev.Path),
				zap.Stringer("op", ev.Operation),
			)
			if timer == nil {
				timer = time.NewTimer(uc.debounce)
			} else {
				timer.Reset(uc.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			uc.analyzeDir(ctx, dir)
		}
	}
}

func (uc *WatchUseCase) analyzeDir(ctx context.Context, dir string) {
	files, err := uc.loader.LoadDir(ctx, dir)
	if err != nil {
		uc.logger.Error("loading data room", zap.String("dir", dir), zap.Error(err))
		return
	}
	if len(files) == 0 {
		uc.logger.Info("no documents to analyze", zap.String("dir", dir))
		return
	}

	uc.logger.Info("analyzing data room", zap.String("dir", dir), zap.Int("files", len(files)))
	report, err := uc.analyzer.Run(ctx, files)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		uc.logger.Error("analysis failed", zap.String("dir", dir), zap.String("message", DisplayError(err)))
		return
	}

	for _, sink := range uc.sinks {
		if err := sink.Write(ctx, report); err != nil {
			uc.logger.Error("writing report", zap.Error(err))
		}
	}
	if uc.OnReport != nil {
		uc.OnReport(report)
	}
}
