// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mdmend/internal/render"
)

func newRenderCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a document to styled terminal output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := render.NewGlamourRenderer(cfg.RenderTheme)
			outPath, err := renderer.Render(args[0], outDir)
			if err != nil {
				return err
			}
			fmt.Printf("Rendered to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "", "output directory (default is next to the document)")

	return cmd
}
