package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/extract"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

// tablesOutput is the JSON shape of the tables command.
type tablesOutput struct {
	Source     string                    `json:"source,omitempty"`
	TableCount int                       `json:"table_count"`
	Tables     map[string][]entity.Table `json:"tables"`
}

func newTablesCmd(a *app) *cobra.Command {
	var header, xlsx string
	cmd := &cobra.Command{
		Use:   "tables <bundle>",
		Short: "Print the normalized tables of a bundle, grouped per page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if header != "" {
				mode := constants.HeaderMode(header)
				switch mode {
				case constants.HeaderModeAuto, constants.HeaderModeAlways, constants.HeaderModeNever:
					a.cfg.Tables.HeaderMode = mode
				default:
					return common.NewAppError(common.CodeInvalidInput,
						fmt.Sprintf("--header must be auto, always or never, got %q", header), common.ErrInvalidInput)
				}
			}
			ctx := cmd.Context()
			doc, err := a.loader.Load(ctx, args[0])
			if err != nil {
				return err
			}
			report := a.Analyzer().Tables(ctx, doc)
			if xlsx != "" {
				b, err := a.exporter.TablesXLSX(ctx, report.Pages)
				if err != nil {
					return err
				}
				if err := export.SaveFile(xlsx, b); err != nil {
					return err
				}
			}
			return export.WriteJSON(cmd.OutOrStdout(), tablesOutput{
				Source:     report.Source,
				TableCount: report.TableCount,
				Tables:     report.Grouped(),
			})
		},
	}
	cmd.Flags().StringVar(&header, "header", "", "header inference: auto, always or never (default from TABLE_HEADER_MODE)")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "also write the tables to this XLSX workbook")
	return cmd
}

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <bundle>",
		Short: "Print the id of the built-in template the bundle matches",
		Long:  "Print the id of the built-in template the bundle matches. Exits with status 3 when none does.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := common.EnsureRequestID(cmd.Context())
			doc, err := a.loader.Load(ctx, args[0])
			if err != nil {
				return err
			}
			id, ok := a.Analyzer().Detect(ctx, doc)
			if !ok {
				return common.NewAppError(common.CodeNoTemplate, "no template matches "+args[0], common.ErrNotFound)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
}

func newExtractCmd(a *app) *cobra.Command {
	var template, out, xlsx string
	cmd := &cobra.Command{
		Use:   "extract <bundle>...",
		Short: "Extract a bundle with a built-in template",
		Long: `Extract one or more bundles with a built-in template.

With a single bundle and no --out the result is printed. Otherwise one
<name>.result.json is written per bundle, into --out or beside the bundle.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 && out == "" {
				doc, err := a.loader.Load(ctx, args[0])
				if err != nil {
					return err
				}
				res, err := a.Analyzer().Template(ctx, doc, template)
				if err != nil {
					return err
				}
				if err := writeXLSX(ctx, a, xlsx, res); err != nil {
					return err
				}
				return export.WriteJSON(cmd.OutOrStdout(), res)
			}
			if xlsx != "" {
				return common.NewAppError(common.CodeInvalidInput, "--xlsx needs a single bundle and no --out", common.ErrInvalidInput)
			}

			proc := pipeline.NewProcessor(a.logger, a.loader, a.Analyzer())
			proc.Template = template
			proc.OutDir = out
			return processAll(ctx, proc, args, a.cfg.Batch.Workers, cmd)
		},
	}
	cmd.Flags().StringVar(&template, "template", pipeline.AutoTemplate, "template id, or auto to detect it")
	cmd.Flags().StringVar(&out, "out", "", "directory for the result files")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "also write the result to this XLSX workbook")
	return cmd
}

// processAll runs proc over paths with bounded parallelism and prints each
// result path. Every bundle is attempted; the first error is returned.
func processAll(ctx context.Context, proc *pipeline.Processor, paths []string, workers int, cmd *cobra.Command) error {
	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	var mu sync.Mutex
	for _, path := range paths {
		g.Go(func() error {
			res, err := proc.ProcessFile(ctx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				printError("%s: %v\n", path, err)
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res)
			return nil
		})
	}
	return g.Wait()
}

func newCustomCmd(a *app) *cobra.Command {
	var schemaPath, out, xlsx string
	cmd := &cobra.Command{
		Use:   "custom <bundle>",
		Short: "Extract a bundle with a custom template schema (JSON or YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, rid := common.EnsureRequestID(cmd.Context())
			schema, err := loadSchema(a, schemaPath)
			if err != nil {
				return err
			}
			doc, err := a.loader.Load(ctx, args[0])
			if err != nil {
				return err
			}
			res := a.Analyzer().Custom(ctx, doc, schema)
			a.logger.Debug("cli.custom.ok", "req_id", rid, "fields", len(res.Data))

			if err := writeXLSX(ctx, a, xlsx, &res); err != nil {
				return err
			}
			if out != "" {
				return export.SaveJSON(out, &res)
			}
			return export.WriteJSON(cmd.OutOrStdout(), &res)
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "custom template schema file (.json, .yaml, .yml)")
	cmd.Flags().StringVar(&out, "out", "", "write the result to this file instead of stdout")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "also write the result to this XLSX workbook")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

// loadSchema reads and validates a schema file, logging patterns that will
// never match.
func loadSchema(a *app, path string) (*entity.TemplateSchema, error) {
	schema, err := extract.LoadSchema(path, a.cfg.Extract.MaxSchemaDepth)
	if err != nil {
		return nil, err
	}
	for _, w := range extract.PatternWarnings(*schema) {
		a.logger.Warn("cli.schema.pattern_invalid", "field", w.Field, "pattern", w.Value, "reason", w.Message)
	}
	return schema, nil
}

func writeXLSX(ctx context.Context, a *app, path string, result any) error {
	if path == "" {
		return nil
	}
	b, err := a.exporter.ResultXLSX(ctx, result)
	if err != nil {
		return err
	}
	return export.SaveFile(path, b)
}

func newTemplatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the built-in templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return export.WriteJSON(cmd.OutOrStdout(), a.Analyzer().Registry().List())
		},
	}
}

func newRegexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "regex <description>",
		Short: "Ask the generative model for a pattern matching a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := common.EnsureRequestID(cmd.Context())
			svc := llm.NewService(a.gen, a.logger)
			p, err := svc.GenerateRegex(ctx, args[0])
			switch {
			case errors.Is(err, common.ErrModelUnavailable):
				return common.NewAppError(common.CodeModel, "generative model is not available", err)
			case errors.Is(err, llm.ErrNoPattern):
				return common.NewAppError(common.CodeModel, "model did not return a usable pattern", err)
			case err != nil:
				return common.NewAppError(common.CodeModel, "generate pattern", err)
			}
			return export.WriteJSON(cmd.OutOrStdout(), p)
		},
	}
}
