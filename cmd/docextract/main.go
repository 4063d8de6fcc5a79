// Package main implements the docextract CLI: table analysis, template and
// schema extraction over document bundles, plus batch and watch runs.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/document"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/llm/openai"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

var version = "dev"

// Exit statuses by AppError code. Anything else exits 1.
var exitCodes = map[string]int{
	common.CodeInvalidInput:    2,
	common.CodeNoTemplate:      3,
	common.CodeUnknownTemplate: 4,
	common.CodeInvalidSchema:   5,
	common.CodeModel:           6,
	common.CodeConfig:          7,
	common.CodeExport:          8,
}

func exitCode(err error) int {
	if code, ok := exitCodes[common.ErrorCode(err)]; ok {
		return code
	}
	return 1
}

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			printError("Error: %s\n", appErr.Message)
		} else {
			printError("Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// app holds what every subcommand shares. It is filled in before any
// subcommand runs.
type app struct {
	cfg      *common.Config
	logger   *slog.Logger
	gen      llm.Generator
	loader   *document.Loader
	exporter *export.Service

	analyzer *pipeline.Analyzer
}

// Analyzer builds the analyzer on first use so subcommand flags can still
// adjust the config.
func (a *app) Analyzer() *pipeline.Analyzer {
	if a.analyzer == nil {
		a.analyzer = pipeline.NewAnalyzer(a.cfg, a.gen, a.logger)
	}
	return a.analyzer
}

func (a *app) init() error {
	a.cfg = common.LoadConfig()
	a.logger = common.NewLogger(a.cfg.Log, os.Stderr)
	slog.SetDefault(a.logger)
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if a.cfg.LLM.Enabled {
		a.gen = openai.NewClient(openai.ConfigFrom(a.cfg.LLM), nil, a.logger)
	} else {
		a.logger.Info("llm.disabled")
	}
	a.loader = document.NewLoader(a.cfg.Extract.MaxPages, a.logger)
	a.exporter = export.NewService(a.cfg.Export, a.logger)
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "docextract",
		Short: "Infer tables, parties and fields from document bundles",
		Long: `docextract reads the JSON bundles produced by a PDF layer (page text,
positioned fragments and raw table grids) and turns them into normalized
tables, built-in template results or schema-driven results.

Configuration comes from the environment (OPENAI_API_KEY, LLM_MODEL_NAME,
TABLE_HEADER_MODE, BATCH_WORKERS, LOG_FORMAT, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	root.AddCommand(
		newTablesCmd(a),
		newDetectCmd(a),
		newExtractCmd(a),
		newCustomCmd(a),
		newTemplatesCmd(a),
		newRegexCmd(a),
		newBatchCmd(a),
		newWatchCmd(a),
	)
	return root
}
