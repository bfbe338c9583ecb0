// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mdmend/internal/core/config"
	"mdmend/internal/logging"
	"mdmend/internal/version"
)

var (
	// Project directory
	projectDir string

	// Verbose logging
	verbose bool

	// Loaded configuration
	cfg *config.Config

	// Process logger
	log *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "mdmend",
	Short: "Literate Document Repair Tool",
	Long: `Mdmend repairs literate markdown notebooks so they render again.
It executes each fenced code block against a persistent per-document
context, disables the blocks that fail (with an inline explanation),
rewrites bare data-file paths against the project's data directories,
and injects output-governance statements into the setup block.`,
	Version: fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if projectDir == "" {
			projectDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("error getting current directory: %w", err)
			}
		} else {
			projectDir, err = filepath.Abs(projectDir)
			if err != nil {
				return fmt.Errorf("error resolving project directory: %w", err)
			}
		}

		log = logging.New(verbose)

		cfg, err = config.LoadConfig(projectDir)
		if err != nil {
			fmt.Printf("Warning: Error loading configuration: %v\n", err)
			fmt.Println("Using default configuration instead.")
			cfg = config.NewDefaultConfig()
		}

		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newRepairCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newInitCmd())

	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
