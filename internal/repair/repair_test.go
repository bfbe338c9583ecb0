// SPDX-License-Identifier: Apache-2.0

package repair_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mdmend/internal/core/config"
	"mdmend/internal/core/models"
	"mdmend/internal/core/paths"
	"mdmend/internal/core/setup"
	"mdmend/internal/engine"
	"mdmend/internal/repair"
	"mdmend/internal/testutil"
)

const fixtureDoc = "---\n" +
	"title: Heights\n" +
	"---\n" +
	"Students measured their heights.\n" +
	"```{go}\n" +
	"rows := data.ReadCSV(\"scores.csv\")\n" +
	"fmt.Println(len(rows))\n" +
	"```\n" +
	"More prose.\n" +
	"```{go, label=model}\n" +
	"boom()\n" +
	"```\n" +
	"```{go, eval=false}\n" +
	"old := data.ReadTSV(\"extra.tsv\")\n" +
	"```\n" +
	"```{go}\n" +
	"```\n"

// writeFixture lays out a project directory with a notebook and a data dir.
func writeFixture(t *testing.T, docText string) string {
	t.Helper()
	dir := t.TempDir()

	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "scores.csv"), []byte("a,b\n1,2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "extra.tsv"), []byte("a\tb\n"), 0644))

	docPath := filepath.Join(dir, "heights.md")
	require.NoError(t, os.WriteFile(docPath, []byte(docText), 0644))
	return docPath
}

func newOrchestrator(oracle *testutil.MockOracle) *repair.Orchestrator {
	return &repair.Orchestrator{
		Config: config.NewDefaultConfig(),
		Log:    zap.NewNop().Sugar(),
		NewOracle: func(mapping paths.Mapping, dataDir string) (engine.Oracle, error) {
			return oracle, nil
		},
		Renderer: &testutil.MockRenderer{},
	}
}

func TestRepairFile(t *testing.T) {
	docPath := writeFixture(t, fixtureDoc)
	oracle := &testutil.MockOracle{FailContaining: map[string]string{
		"boom": "undefined: boom",
	}}

	report, err := newOrchestrator(oracle).RepairFile(context.Background(), docPath, models.RepairOptions{})
	require.NoError(t, err)

	// Four authored blocks plus the synthesized setup block.
	assert.Equal(t, 5, report.Blocks)
	assert.Equal(t, "Heights", report.Title)
	assert.True(t, report.SetupInjected)
	assert.Equal(t, 3, report.Executed)
	assert.Equal(t, 1, report.Disabled)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.PathsRewritten)
	assert.False(t, report.Failed())
	assert.True(t, oracle.Closed)

	// Backup is a byte copy of the input; the input itself is untouched.
	backup, err := os.ReadFile(report.Backup)
	require.NoError(t, err)
	assert.Equal(t, fixtureDoc, string(backup))
	original, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, fixtureDoc, string(original))

	out, err := os.ReadFile(report.Output)
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasSuffix(report.Output, ".repaired.md"))

	// Synthesized setup block sits after the front matter and carries the
	// governance statements exactly once.
	assert.Equal(t, 1, strings.Count(text, setup.Sentinel))
	assert.Contains(t, text, "doc.MaxPrintLines(200)")
	assert.Contains(t, text, "doc.MaxPrintBytes(65536)")
	assert.Less(t, strings.Index(text, "---\ntitle"), strings.Index(text, setup.Sentinel))
	assert.Less(t, strings.Index(text, setup.Sentinel), strings.Index(text, "Students measured"))

	// The failing block got disabled and annotated; the flag rides on the
	// option list, not a duplicate.
	assert.Contains(t, text, "```{go, label=model, eval=false}")
	assert.Contains(t, text, "// mdmend: execution disabled: undefined: boom")
	assert.Equal(t, 1, strings.Count(text, "label=model"))

	// Paths were rewritten in place, including in the author-disabled
	// block, which was still not executed.
	assert.Contains(t, text, `data.ReadCSV(data.Path("scores.csv"))`)
	assert.Contains(t, text, `data.ReadTSV(data.Path("extra.tsv"))`)
	for _, code := range oracle.Submitted {
		assert.NotContains(t, code, "extra.tsv")
	}

	// Blocks run in document order, setup first, against rewritten code.
	require.Len(t, oracle.Submitted, 3)
	assert.Contains(t, oracle.Submitted[0], setup.Sentinel)
	assert.Contains(t, oracle.Submitted[1], `data.Path("scores.csv")`)
	assert.Contains(t, oracle.Submitted[2], "boom()")

	// Untouched segments survive byte for byte; the empty block stays.
	assert.Contains(t, text, "Students measured their heights.\n")
	assert.Contains(t, text, "More prose.\n")
	assert.Contains(t, text, "```{go}\n```\n")

	// Per-block changes cover the disabled block and both rewrites.
	require.Len(t, report.Changes, 3)
	var disabled []models.BlockChange
	for _, c := range report.Changes {
		if c.Disabled {
			disabled = append(disabled, c)
		}
	}
	require.Len(t, disabled, 1)
	assert.Equal(t, "model", disabled[0].Label)
	assert.Equal(t, "undefined: boom", disabled[0].Error)
}

func TestRepairFileDryRun(t *testing.T) {
	docPath := writeFixture(t, fixtureDoc)
	oracle := &testutil.MockOracle{}

	report, err := newOrchestrator(oracle).RepairFile(context.Background(), docPath, models.RepairOptions{DryRun: true})
	require.NoError(t, err)

	// Rewrites are previewed, nothing executes, nothing is written.
	assert.Equal(t, 2, report.PathsRewritten)
	assert.Zero(t, report.Executed)
	assert.Empty(t, oracle.Submitted)
	assert.NoFileExists(t, docPath+repair.BackupSuffix)
	assert.NoFileExists(t, strings.TrimSuffix(docPath, ".md")+repair.OutputSuffix)
}

func TestRepairFileRejectsNonMarkdown(t *testing.T) {
	orch := newOrchestrator(&testutil.MockOracle{})

	_, err := orch.RepairFile(context.Background(), "notes.txt", models.RepairOptions{})
	assert.ErrorIs(t, err, repair.ErrNotMarkdown)

	// Never re-repair our own output.
	_, err = orch.RepairFile(context.Background(), "heights.repaired.md", models.RepairOptions{})
	assert.ErrorIs(t, err, repair.ErrNotMarkdown)
}

func TestRepairFileUnterminatedBlockAborts(t *testing.T) {
	docPath := writeFixture(t, "prose\n```{go}\nx := 1\n")
	oracle := &testutil.MockOracle{}

	report, err := newOrchestrator(oracle).RepairFile(context.Background(), docPath, models.RepairOptions{})
	require.Error(t, err)

	assert.True(t, report.Failed())
	assert.Empty(t, oracle.Submitted)
	assert.NoFileExists(t, docPath+repair.BackupSuffix)
	assert.NoFileExists(t, strings.TrimSuffix(docPath, ".md")+repair.OutputSuffix)
}

func TestRepairFileStamp(t *testing.T) {
	docPath := writeFixture(t, fixtureDoc)

	report, err := newOrchestrator(&testutil.MockOracle{}).RepairFile(context.Background(), docPath, models.RepairOptions{Stamp: true})
	require.NoError(t, err)

	out, err := os.ReadFile(report.Output)
	require.NoError(t, err)
	text := string(out)

	assert.Equal(t, 1, strings.Count(text, repair.StampLine))
	assert.Less(t, strings.Index(text, "---\ntitle"), strings.Index(text, repair.StampLine))
}

func TestRepairFileRender(t *testing.T) {
	docPath := writeFixture(t, fixtureDoc)
	renderer := &testutil.MockRenderer{}
	orch := newOrchestrator(&testutil.MockOracle{})
	orch.Renderer = renderer

	report, err := orch.RepairFile(context.Background(), docPath, models.RepairOptions{Render: true})
	require.NoError(t, err)

	require.Len(t, renderer.Rendered, 1)
	assert.Equal(t, report.Output, renderer.Rendered[0])
	assert.NotEmpty(t, report.Rendered)
}

func TestRepairFileRenderFailureDoesNotUndoRepair(t *testing.T) {
	docPath := writeFixture(t, fixtureDoc)
	orch := newOrchestrator(&testutil.MockOracle{})
	orch.Renderer = &testutil.MockRenderer{Err: assert.AnError}

	report, err := orch.RepairFile(context.Background(), docPath, models.RepairOptions{Render: true})
	require.NoError(t, err)

	assert.Empty(t, report.Rendered)
	assert.FileExists(t, report.Output)
}

func TestRepairFileSkipRule(t *testing.T) {
	docPath := writeFixture(t, fixtureDoc)
	oracle := &testutil.MockOracle{}
	orch := newOrchestrator(oracle)
	orch.Config.SkipBlocks = "block.label == 'model'"

	report, err := orch.RepairFile(context.Background(), docPath, models.RepairOptions{})
	require.NoError(t, err)

	// The rule skips the model block; the author-disabled one is skipped
	// anyway.
	assert.Equal(t, 2, report.Skipped)
	for _, code := range oracle.Submitted {
		assert.NotContains(t, code, "boom")
	}
}

func TestRepairFileBadSkipRuleAborts(t *testing.T) {
	docPath := writeFixture(t, fixtureDoc)
	orch := newOrchestrator(&testutil.MockOracle{})
	orch.Config.SkipBlocks = "block.label =="

	report, err := orch.RepairFile(context.Background(), docPath, models.RepairOptions{})
	require.Error(t, err)
	assert.True(t, report.Failed())
	assert.NoFileExists(t, strings.TrimSuffix(docPath, ".md")+repair.OutputSuffix)
}
