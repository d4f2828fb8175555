package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"template-transformer/internal/dedupe"
	"template-transformer/internal/diagnostic"
	"template-transformer/internal/flatten"
	"template-transformer/internal/hierarchy"
	"template-transformer/internal/logging"
	"template-transformer/internal/mapper"
	"template-transformer/internal/output"
	"template-transformer/internal/row"
	"template-transformer/internal/schema"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Engine transforms source rows with a prepared rule document.
type Engine struct {
	prepared *schema.Prepared
	mapper   *mapper.Mapper
	opts     Options
	logger   *slog.Logger

	// prepDiags holds the diagnostics of preparing the document. They are
	// copied into every run.
	prepDiags *diagnostic.Diagnostics
}

// Result is the outcome of a run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Sheets are the deduplicated target sheets.
	Sheets []*output.Sheet

	// Diagnostics holds the issues and counters of the run, including those
	// found while preparing the document.
	Diagnostics *diagnostic.Diagnostics
}

// Sheet returns the named result sheet.
func (r *Result) Sheet(name string) (*output.Sheet, bool) {
	for _, sh := range r.Sheets {
		if sh.Name == name {
			return sh, true
		}
	}

	return nil, false
}

// New prepares the document.
func New(doc *schema.Document, opts Options) (*Engine, error) {
	diags := &diagnostic.Diagnostics{}

	prepared, err := schema.Prepare(doc, diags)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rule document: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Engine{
		prepared:  prepared,
		mapper:    mapper.New(prepared.Rules, opts.Separator),
		opts:      opts,
		logger:    logger,
		prepDiags: diags,
	}, nil
}

// Prepared returns the prepared document.
func (e *Engine) Prepared() *schema.Prepared { return e.prepared }

// Run transforms the source rows. When a stage fails, the error is returned
// with a Result holding the diagnostics gathered up to that point.
func (e *Engine) Run(ctx context.Context, src row.SheetData) (*Result, error) {
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)
	start := time.Now()

	diags := &diagnostic.Diagnostics{}
	diags.Merge(e.prepDiags)

	e.dump(ctx, logger, "queue", e.prepared.Queue)

	rows := row.Annotate(e.prepared, src, diags)
	logger.Info("rows annotated",
		"rows", diags.Stats.RowsAnnotated,
		"dropped", diags.Stats.RowsDropped)
	e.dump(ctx, logger, "rows", rows)

	forest := hierarchy.Build(e.prepared.Queue, rows, diags)
	diags.Stats.TopLevelRecords = len(forest.Roots)
	logger.Info("hierarchy built",
		"top_level", len(forest.Roots),
		"attached", diags.Stats.RowsAttached,
		"orphaned", diags.Stats.RowsOrphaned)
	e.dump(ctx, logger, "forest", forest.Roots)

	contexts, err := flatten.New(e.opts.contextLimit()).Flatten(ctx, forest.Roots)
	if err != nil {
		code := diagnostic.CodeRunAborted
		if errors.Is(err, flatten.ErrContextLimit) {
			code = diagnostic.CodeContextLimit
		}

		return e.abort(logger, runID, diags, code, fmt.Errorf("failed to flatten rows: %w", err))
	}

	diags.Stats.Contexts = len(contexts)
	logger.Info("rows flattened", "contexts", len(contexts))
	e.dump(ctx, logger, "contexts", contexts)

	outputs, err := e.mapContexts(ctx, contexts, diags)
	if err != nil {
		return e.abort(logger, runID, diags, diagnostic.CodeRunAborted, fmt.Errorf("failed to map contexts: %w", err))
	}

	logger.Info("contexts mapped",
		"fired", diags.Stats.RulesFired,
		"skipped", diags.Stats.RulesSkipped,
		"add_cycles", diags.Stats.AddCycles)

	sheets := dedupe.Dedupe(outputs, e.prepared.TargetKeys, e.prepared.TargetOrder, diags)
	e.dump(ctx, logger, "sheets", sheets)

	logger.Info("run complete",
		"sheets", len(sheets),
		"records", diags.Stats.RecordsKept,
		"collapsed", diags.Stats.RecordsCollapsed,
		"warnings", len(diags.Warnings),
		"duration", time.Since(start))

	return &Result{RunID: runID, Sheets: sheets, Diagnostics: diags}, nil
}

// abort records a fatal stage error and returns the partial result, which
// carries no sheets, alongside it.
func (e *Engine) abort(
	logger *slog.Logger,
	runID string,
	diags *diagnostic.Diagnostics,
	code string,
	err error,
) (*Result, error) {
	diags.AddError(code, err.Error(), "", "")
	logger.Error("run aborted", "error", diags.Error(), "warnings", len(diags.Warnings))

	return &Result{RunID: runID, Diagnostics: diags}, err
}

// mapContexts maps every context and returns the outputs in context order.
func (e *Engine) mapContexts(
	ctx context.Context,
	contexts []*flatten.Context,
	diags *diagnostic.Diagnostics,
) ([]*output.SheetSet, error) {
	outputs := make([]*output.SheetSet, len(contexts))

	if e.opts.Workers < 2 {
		for i, c := range contexts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			outputs[i] = e.mapper.Map(c, diags)
		}

		return outputs, nil
	}

	// Per-context diagnostics, merged in context order after Wait.
	perContext := make([]*diagnostic.Diagnostics, len(contexts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, c := range contexts {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			d := &diagnostic.Diagnostics{}
			outputs[i] = e.mapper.Map(c, d)
			perContext[i] = d

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, d := range perContext {
		diags.Merge(d)
	}

	return outputs, nil
}

func (e *Engine) dump(ctx context.Context, logger *slog.Logger, stage string, v any) {
	if !e.opts.DumpStages || !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	logger.Debug("stage dump", "stage", stage, "value", dumper.Sdump(v))
}
