// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"modkit-cli/internal/config"

	"github.com/spf13/cobra"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage modkit configuration",
}

// configShowCmd prints the resolved configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(TitleStyle.Render("modkit configuration"))
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("modules_dir:"), cfg.ModulesDir)
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("templates_dir:"), cfg.TemplatesDir)
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("syntax_check_timeout:"), cfg.SyntaxCheckTimeout)
		fmt.Printf("  %s %t\n", SubtitleStyle.Render("verbose:"), verbose)
		return nil
	},
}

// configPathCmd prints where configuration is read from
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		fmt.Println(dir)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
