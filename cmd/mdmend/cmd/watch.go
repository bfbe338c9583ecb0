// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mdmend/internal/core/models"
	"mdmend/internal/repair"
	"mdmend/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		stamp  bool
		render bool
	)

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Watch a directory and repair documents as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch := repair.New(cfg, log)
			opts := models.RepairOptions{Stamp: stamp, Render: render, Verbose: verbose}

			fmt.Printf("Watching %s (ctrl-c to stop)\n", args[0])
			return watch.Run(ctx, args[0], log, func(path string) {
				report, err := orch.RepairFile(ctx, path, opts)
				if err != nil {
					fmt.Printf("FAILED  %s: %v\n", path, err)
					return
				}
				fmt.Printf("Repaired %s (blocks: %d, disabled: %d)\n", path, report.Blocks, report.Disabled)
			})
		},
	}

	cmd.Flags().BoolVar(&stamp, "stamp", false, "insert a repair marker after the front matter")
	cmd.Flags().BoolVar(&render, "render", false, "render each repaired document")

	return cmd
}
