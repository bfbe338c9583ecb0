// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"mdmend/internal/core/models"
)

func newPlanCmd() *cobra.Command {
	var reportFile string

	cmd := &cobra.Command{
		Use:   "plan [file-or-directory]",
		Short: "Preview what a repair would change, without executing or writing",
		Long: `Plan runs the non-destructive half of the pipeline: parsing, path
resolution and rewrite preview. No code is executed and no file is
written, so it is safe to run on documents with untrusted blocks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := models.RepairOptions{DryRun: true, Verbose: verbose}
			return runRepair(cmd, args[0], opts, reportFile)
		},
	}

	cmd.Flags().StringVar(&reportFile, "report-file", "", "write the plan to a file (.yaml or .json)")

	return cmd
}
