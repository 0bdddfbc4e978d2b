package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/redline-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/redline-go/internal/adapters/loader"
	"github.com/0xcro3dile/redline-go/internal/adapters/output"
	"github.com/0xcro3dile/redline-go/internal/domain/entities"
	"github.com/0xcro3dile/redline-go/internal/domain/ports"
	"github.com/0xcro3dile/redline-go/internal/domain/usecases"
)

var (
	watchOut      string
	watchFormats  []string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-analyze a data room folder whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir := cfg.Watch.OutputDir
		if cmd.Flags().Changed("out") {
			outDir = watchOut
		}
		names := cfg.Watch.Formats
		if cmd.Flags().Changed("formats") {
			names = watchFormats
		}
		formats, err := output.ParseFormats(names)
		if err != nil {
			return err
		}
		debounce := cfg.Watch.Debounce.Std()
		if cmd.Flags().Changed("debounce") {
			debounce = watchDebounce
		}

		fileLoader := loader.NewFileLoader(cfg.Loader.MaxFileBytes)
		watcher, err := filewatcher.NewFSNotifyWatcher(fileLoader.SupportedExtensions(), logger)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		analyzer, err := newAnalyzer()
		if err != nil {
			return err
		}

		uc := usecases.NewWatchUseCase(
			watcher,
			fileLoader,
			analyzer,
			[]ports.ReportSink{output.NewFileSink(outDir, formats, logger)},
			debounce,
			logger,
		)
		uc.OnReport = func(r *entities.DiligenceReport) {
			c := r.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %d critical, %d material, %d minor -> %s\n",
				time.Now().Format(time.TimeOnly), c.High, c.Medium, c.Low, outDir)
		}
		return uc.Run(cmd.Context(), args[0])
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchOut, "out", "", "report directory (overrides watch.output_dir)")
	watchCmd.Flags().StringSliceVar(&watchFormats, "formats", nil, "report formats: json, md, csv, html")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", usecases.DefaultDebounce, "quiet period before re-analyzing")
}
