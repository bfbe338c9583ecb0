// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mdmend/internal/core/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default .mdmend/config.yaml into the project directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := filepath.Join(projectDir, config.DefaultConfigDir, config.DefaultConfigFileName)
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config already exists at %s", configPath)
			}

			if err := config.SaveConfig(config.NewDefaultConfig(), projectDir); err != nil {
				return err
			}
			fmt.Printf("Initialized %s\n", configPath)
			return nil
		},
	}
}
