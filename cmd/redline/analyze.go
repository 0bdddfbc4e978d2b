package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/redline-go/internal/adapters/loader"
	"github.com/0xcro3dile/redline-go/internal/adapters/output"
	"github.com/0xcro3dile/redline-go/internal/adapters/tui"
	"github.com/0xcro3dile/redline-go/internal/domain/entities"
	"github.com/0xcro3dile/redline-go/internal/domain/usecases"
)

var (
	analyzeFormat string
	analyzeOut    string
	analyzeTUI    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|dir>...",
	Short: "Analyze documents once and print the report",
	Long: `Analyze sends every given document (directories are expanded to the
supported files directly inside them) to the model in one request.

The report is printed as rendered text, JSON or Markdown, optionally
written to --out in every export format, or browsed with --tui.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(analyzeFormat)
		switch format {
		case "text", "json", "md", "markdown":
		default:
			return fmt.Errorf("unknown --format %q (want text, json or md)", analyzeFormat)
		}

		fileLoader := loader.NewFileLoader(cfg.Loader.MaxFileBytes)
		paths, err := expandPaths(fileLoader, args)
		if err != nil {
			return err
		}
		files, err := fileLoader.LoadAll(cmd.Context(), paths)
		if err != nil {
			return err
		}

		analyzer, err := newAnalyzer()
		if err != nil {
			return err
		}

		logger.Info("analyzing documents", zap.Int("files", len(files)))
		report, err := analyzer.Run(cmd.Context(), files)
		if err != nil {
			return fmt.Errorf("%s. Please check your API key and try again", usecases.DisplayError(err))
		}

		if analyzeOut != "" {
			sink := output.NewFileSink(analyzeOut, output.Formats, logger)
			if err := sink.Write(cmd.Context(), report); err != nil {
				return err
			}
		}

		if analyzeTUI {
			return tui.Run(report)
		}
		return printReport(cmd, format, report)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "stdout format: text, json or md")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "also write json, md, csv and html reports to this directory")
	analyzeCmd.Flags().BoolVar(&analyzeTUI, "tui", false, "browse the report in an interactive dashboard")
}

// expandPaths replaces each directory with the supported files inside it.
func expandPaths(l *loader.FileLoader, args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		inDir, err := l.ListDir(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, inDir...)
	}
	if len(paths) == 0 {
		return nil, usecases.ErrNoFiles
	}
	return paths, nil
}

func printReport(cmd *cobra.Command, format string, report *entities.DiligenceReport) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return output.WriteJSON(out, report)
	case "md", "markdown":
		return output.WriteMarkdown(out, report)
	}

	var md strings.Builder
	if err := output.WriteMarkdown(&md, report); err != nil {
		return err
	}
	rendered, err := tui.RenderMarkdown(md.String(), 100)
	if err != nil {
		rendered = md.String()
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
