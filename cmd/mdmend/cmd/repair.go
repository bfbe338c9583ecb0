// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mdmend/internal/batch"
	"mdmend/internal/core/format"
	"mdmend/internal/core/models"
	"mdmend/internal/repair"
)

func newRepairCmd() *cobra.Command {
	var (
		dryRun     bool
		stamp      bool
		render     bool
		reportFile string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "repair [file-or-directory]",
		Short: "Repair one document or every document under a directory",
		Long: `Repair parses each document, resolves data-file paths, injects the
output-governance setup statements, executes every enabled code block in
order against a fresh per-document context, disables the blocks that fail,
and writes <stem>.repaired.md next to the input (plus a .bak byte copy).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := models.RepairOptions{
				DryRun:  dryRun,
				Stamp:   stamp,
				Render:  render,
				Verbose: verbose,
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			return runRepair(cmd, args[0], opts, reportFile)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and preview without executing or writing")
	cmd.Flags().BoolVar(&stamp, "stamp", false, "insert a repair marker after the front matter")
	cmd.Flags().BoolVar(&render, "render", false, "render each repaired document")
	cmd.Flags().StringVar(&reportFile, "report-file", "", "write the repair report to a file (.yaml or .json)")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers for directory repair (default from config)")

	return cmd
}

// runRepair dispatches on the target type and prints the outcome. Shared by
// repair and plan.
func runRepair(cmd *cobra.Command, target string, opts models.RepairOptions, reportFile string) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("error accessing '%s': %w", target, err)
	}

	orch := repair.New(cfg, log)

	var summary *models.RepairSummary
	if info.IsDir() {
		runner := batch.NewRunner(orch, cfg.Workers, log)
		summary, err = runner.Run(cmd.Context(), target, opts)
		if err != nil {
			return err
		}
	} else {
		report, repairErr := orch.RepairFile(cmd.Context(), target, opts)
		summary = &models.RepairSummary{Total: 1, Reports: []models.RepairReport{*report}}
		if repairErr != nil {
			summary.Failed = 1
		} else {
			summary.Repaired = 1
		}
	}

	printSummary(summary, opts.DryRun)

	if reportFile != "" {
		if err := format.WriteFile(reportFile, summary); err != nil {
			return fmt.Errorf("error writing report file: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportFile)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", summary.Failed, summary.Total)
	}
	return nil
}

func printSummary(summary *models.RepairSummary, dryRun bool) {
	for _, report := range summary.Reports {
		if report.Failed() {
			fmt.Printf("FAILED  %s: %s\n", report.Document, report.Error)
			continue
		}

		verb := "Repaired"
		if dryRun {
			verb = "Would repair"
		}
		fmt.Printf("%s %s (blocks: %d, executed: %d, disabled: %d, paths rewritten: %d)\n",
			verb, report.Document, report.Blocks, report.Executed, report.Disabled, report.PathsRewritten)

		for _, change := range report.Changes {
			switch {
			case change.Disabled:
				fmt.Printf("  - block %d disabled: %s\n", change.Index, change.Error)
			case change.PathsRewritten > 0:
				fmt.Printf("  - block %d: %d path(s) rewritten\n", change.Index, change.PathsRewritten)
			}
		}
		if report.Rendered != "" {
			fmt.Printf("  - rendered to %s\n", report.Rendered)
		}
	}

	if summary.Total > 1 {
		fmt.Printf("\n%d document(s): %d repaired, %d failed\n", summary.Total, summary.Repaired, summary.Failed)
	}
}
