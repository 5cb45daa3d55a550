// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"modkit-cli/internal/metadata"
	"modkit-cli/internal/report"

	"github.com/spf13/cobra"
)

// validateCmd checks module content and metadata
var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate modules",
	Long: `Validate module content and metadata.

With a path, one module is validated: metadata completeness, script
syntax (bash and python), dangerous command patterns, and JSON tab
structure. With --all, every module under the module root is validated
and a summary is printed.

Examples:
  modkit validate modules/scan.sh
  modkit validate --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		switch {
		case all:
			return runValidateAll(cmd)
		case len(args) == 1:
			return runValidateOne(cmd, args[0])
		default:
			return fmt.Errorf("provide a module path or --all")
		}
	},
}

func runValidateOne(cmd *cobra.Command, path string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}

	md, _, err := metadata.NewCodec(report.Default()).Resolve(path)
	if err != nil {
		return err
	}

	rep, err := reg.Validator().Validate(cmd.Context(), path, md)
	if err != nil {
		return err
	}
	if len(md.Dependencies) > 0 {
		// Advisory only: a missing host command never fails validation.
		if ok, notes := reg.Validator().CheckDependencies(md); !ok {
			for _, note := range notes {
				fmt.Println(WarningStyle.Render("  " + note))
			}
		}
	}

	if rep.OK {
		fmt.Println(SuccessStyle.Render("PASS ") + IDStyle.Render(path))
		return nil
	}
	fmt.Println(ErrorStyle.Render("FAIL ") + IDStyle.Render(path))
	for _, msg := range rep.Errors {
		fmt.Printf("  %s\n", msg)
	}
	return fmt.Errorf("validation failed for %s", path)
}

func runValidateAll(cmd *cobra.Command) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}

	rep, err := reg.Validator().ValidateDir(cmd.Context(), reg.Dir())
	if err != nil {
		return err
	}

	for i, msg := range rep.Errors {
		if i == 0 {
			// The summary line leads the error list.
			fmt.Println(TitleStyle.Render(msg))
			continue
		}
		fmt.Println(ErrorStyle.Render("  " + msg))
	}
	if !rep.OK {
		return fmt.Errorf("%d of %d modules failed validation", rep.Failed, rep.Passed+rep.Failed)
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("All %d modules passed.", rep.Passed)))
	return nil
}

func init() {
	validateCmd.Flags().Bool("all", false, "validate every module under the module root")
}
