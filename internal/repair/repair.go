// SPDX-License-Identifier: Apache-2.0

package repair

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mdmend/internal/core/condition"
	"mdmend/internal/core/config"
	"mdmend/internal/core/document"
	"mdmend/internal/core/models"
	"mdmend/internal/core/paths"
	"mdmend/internal/core/rewrite"
	"mdmend/internal/core/setup"
	"mdmend/internal/engine"
	"mdmend/internal/render"
)

// ErrNotMarkdown marks an input that is not a repairable markdown document.
var ErrNotMarkdown = errors.New("not a markdown document")

const (
	// BackupSuffix tags the pre-repair byte copy of the input.
	BackupSuffix = ".bak"

	// OutputSuffix tags the repaired document, distinctly from the
	// backup, so repeated runs never pick up their own output.
	OutputSuffix = ".repaired.md"

	// StampLine is the optional heading inserted after the front matter.
	StampLine = "<!-- repaired by mdmend -->"
)

// state names the orchestrator's progress through one document. Transitions
// are strictly sequential; no state is skipped.
type state string

const (
	stateInit          state = "INIT"
	statePathResolved  state = "PATH_RESOLVED"
	stateSegmented     state = "SEGMENTED"
	stateSetupInjected state = "SETUP_INJECTED"
	stateExecuted      state = "EXECUTED"
	stateReassembled   state = "REASSEMBLED"
	stateWritten       state = "WRITTEN"
)

// OracleFactory builds the execution context for one document. Tests swap in
// a mock; production uses the yaegi oracle.
type OracleFactory func(mapping paths.Mapping, dataDir string) (engine.Oracle, error)

// Orchestrator composes the repair pipeline. It is safe for concurrent use:
// every RepairFile call builds its own mapping, document and oracle.
type Orchestrator struct {
	Config    *config.Config
	Log       *zap.SugaredLogger
	NewOracle OracleFactory
	Renderer  render.Renderer
}

// New wires an orchestrator with the production oracle and renderer.
func New(cfg *config.Config, log *zap.SugaredLogger) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		Config: cfg,
		Log:    log,
		NewOracle: func(mapping paths.Mapping, dataDir string) (engine.Oracle, error) {
			return engine.NewGoOracle(mapping, dataDir)
		},
		Renderer: render.NewGlamourRenderer(cfg.RenderTheme),
	}
}

// RepairFile repairs one document. Structural failures (missing file, wrong
// type, unterminated block) abort the repair with no output written and are
// returned as the error, mirrored into the report; per-block execution
// failures are contained and only show up in the counts.
func (o *Orchestrator) RepairFile(ctx context.Context, docPath string, opts models.RepairOptions) (*models.RepairReport, error) {
	report := &models.RepairReport{Document: docPath}

	fail := func(err error) (*models.RepairReport, error) {
		report.Error = err.Error()
		o.Log.Errorw("repair aborted", "document", docPath, "error", err)
		return report, err
	}

	st := stateInit
	if !strings.HasSuffix(docPath, ".md") || strings.HasSuffix(docPath, OutputSuffix) {
		return fail(fmt.Errorf("%s: %w", docPath, ErrNotMarkdown))
	}

	input, err := os.ReadFile(docPath)
	if err != nil {
		return fail(fmt.Errorf("error reading document: %w", err))
	}

	docDir := filepath.Dir(docPath)
	mapping := paths.BuildMapping(o.Config.ResolveDataDirs(docDir), o.Config.DataExtensions)
	st = o.advance(docPath, st, statePathResolved)

	doc, err := document.ParseText(docPath, string(input))
	if err != nil {
		return fail(err)
	}
	report.Blocks = len(doc.Blocks())
	report.Title = doc.Title()
	st = o.advance(docPath, st, stateSegmented)

	statements, err := setup.GovernanceStatements(o.Config.MaxPrintLines, o.Config.MaxPrintBytes)
	if err != nil {
		return fail(err)
	}
	report.SetupInjected = setup.EnsureSetup(doc, statements)
	if opts.Stamp {
		o.stamp(doc)
	}
	report.Blocks = len(doc.Blocks())
	st = o.advance(docPath, st, stateSetupInjected)

	// Path rewriting happens before execution so blocks run against the
	// resolved locations, and applies to every block, including ones the
	// author already disabled.
	rewritten := o.rewriteBlocks(doc, mapping)
	report.PathsRewritten = sumValues(rewritten)

	if !opts.DryRun {
		counts, err := o.execute(ctx, doc, mapping, docDir)
		if err != nil {
			return fail(err)
		}
		report.Executed = counts.Executed
		report.Disabled = counts.Disabled
		report.Skipped = counts.Skipped
	}
	st = o.advance(docPath, st, stateExecuted)

	report.Changes = blockChanges(doc, rewritten)

	if opts.DryRun {
		return report, nil
	}

	// Backup is an exact byte copy of the input, written before the
	// repaired output so a crash between the two never loses the
	// original.
	backupPath := docPath + BackupSuffix
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return fail(fmt.Errorf("error writing backup: %w", err))
	}
	report.Backup = backupPath

	out := doc.Text()
	st = o.advance(docPath, st, stateReassembled)

	outPath := strings.TrimSuffix(docPath, ".md") + OutputSuffix
	if err := os.WriteFile(outPath, []byte(out), 0644); err != nil {
		return fail(fmt.Errorf("error writing repaired document: %w", err))
	}
	report.Output = outPath
	_ = o.advance(docPath, st, stateWritten)

	if opts.Render && o.Renderer != nil {
		rendered, err := o.Renderer.Render(outPath, docDir)
		if err != nil {
			// Rendering is a collaborator downstream of the repair;
			// its failure does not undo a completed repair.
			o.Log.Warnw("render failed", "document", docPath, "error", err)
		} else {
			report.Rendered = rendered
		}
	}

	return report, nil
}

func (o *Orchestrator) advance(docPath string, from, to state) state {
	o.Log.Debugw("state transition", "document", docPath, "from", string(from), "to", string(to))
	return to
}

// rewriteBlocks applies the path rewriter to every block body and returns
// the per-block substitution counts keyed by block index.
func (o *Orchestrator) rewriteBlocks(doc *document.Document, mapping paths.Mapping) map[int]int {
	counts := make(map[int]int)
	rw := rewrite.New(o.Config.LoaderCalls)
	for _, b := range doc.Blocks() {
		body, n := rw.Rewrite(b.BodyText(), mapping)
		if n == 0 {
			continue
		}
		b.Body = strings.Split(body, "\n")
		counts[b.Index] = n
	}
	return counts
}

// execute creates the document's execution context, runs every block in
// order and tears the context down. One context per document, never shared.
func (o *Orchestrator) execute(ctx context.Context, doc *document.Document, mapping paths.Mapping, docDir string) (engine.Counts, error) {
	var rule *condition.BlockRule
	if o.Config.SkipBlocks != "" {
		var err error
		rule, err = condition.CompileBlockRule(o.Config.SkipBlocks)
		if err != nil {
			return engine.Counts{}, err
		}
	}

	oracle, err := o.NewOracle(mapping, o.Config.PrimaryDataDir(docDir))
	if err != nil {
		return engine.Counts{}, fmt.Errorf("error creating execution context: %w", err)
	}
	defer oracle.Close()

	return engine.New(oracle, rule, o.Log).Run(ctx, doc)
}

// stamp inserts the repair marker right after the front matter, once.
func (o *Orchestrator) stamp(doc *document.Document) {
	at := doc.HeaderLines
	if at > len(doc.Segments) {
		at = len(doc.Segments)
	}
	if at < len(doc.Segments) {
		seg := doc.Segments[at]
		if seg.Kind == document.SegmentProse && strings.TrimSpace(seg.Line) == StampLine {
			return
		}
	}
	seg := document.Segment{Kind: document.SegmentProse, Line: StampLine}
	doc.Segments = append(doc.Segments[:at], append([]document.Segment{seg}, doc.Segments[at:]...)...)
}

func blockChanges(doc *document.Document, rewritten map[int]int) []models.BlockChange {
	var changes []models.BlockChange
	for _, b := range doc.Blocks() {
		disabled := b.Outcome != nil && !b.Outcome.Ok
		if !disabled && rewritten[b.Index] == 0 {
			continue
		}
		change := models.BlockChange{
			Index:          b.Index,
			Label:          b.Options.Label(),
			Disabled:       disabled,
			PathsRewritten: rewritten[b.Index],
		}
		if disabled {
			change.Error = b.Outcome.ErrorMessage
		}
		changes = append(changes, change)
	}
	return changes
}

func sumValues(m map[int]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}
