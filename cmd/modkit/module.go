// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"modkit-cli/internal/metadata"
	"modkit-cli/internal/registry"
	"modkit-cli/pkg/types"

	"github.com/spf13/cobra"
)

// moduleCmd represents the module command group
var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Manage testing modules",
	Long: `Manage the registered testing modules.

Modules are bash scripts, python scripts, or JSON tab definitions living
under the module root. Each module carries its metadata either embedded
as legacy comment blocks or in a structured sidecar file next to it.

Examples:
  modkit module list
  modkit module show scan.sh
  modkit module create portscan lab_scan --var TARGET=10.0.0.1
  modkit module convert legacy_scan.sh
  modkit module delete old_scan.sh`,
}

// moduleListCmd lists every indexed module
var moduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}

		category, _ := cmd.Flags().GetString("category")
		finding, _ := cmd.Flags().GetString("finding")

		var mods []*registry.Module
		switch {
		case category != "":
			mods = reg.ByCategory(category)
		case finding != "":
			mods = reg.ByFinding(finding)
		default:
			mods = reg.Modules()
		}

		if len(mods) == 0 {
			fmt.Println(SubtitleStyle.Render("No modules found."))
			return nil
		}
		for _, mod := range mods {
			fmt.Printf("%s  %s  %s\n",
				IDStyle.Render(mod.ID),
				SubtitleStyle.Render(string(mod.Format)),
				mod.Description)
		}
		return nil
	},
}

// moduleShowCmd prints one module with its resolved metadata
var moduleShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a module and its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		mod := reg.ModuleByID(args[0])
		if mod == nil {
			return fmt.Errorf("module not found: %s", args[0])
		}

		fmt.Println(TitleStyle.Render(mod.ID))
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("name:"), mod.Name)
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("description:"), mod.Description)
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("version:"), mod.Version)
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("author:"), mod.Author)
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("type:"), mod.ScriptType)
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("format:"), mod.Format)
		printInputs("files", mod.Files)
		printInputs("arguments", mod.Arguments)
		if len(mod.FindingTags) > 0 {
			fmt.Printf("  %s %s\n", SubtitleStyle.Render("findings:"), strings.Join(mod.FindingTags, ", "))
		}
		if len(mod.Categories) > 0 {
			fmt.Printf("  %s %s\n", SubtitleStyle.Render("categories:"), strings.Join(mod.Categories, ", "))
		}

		if content, _ := cmd.Flags().GetBool("content"); content {
			fmt.Println()
			fmt.Print(mod.Content)
		}
		return nil
	},
}

func printInputs(label string, specs []metadata.InputSpec) {
	if len(specs) == 0 {
		return
	}
	fmt.Printf("  %s\n", SubtitleStyle.Render(label+":"))
	for _, spec := range specs {
		required := ""
		if !spec.Required {
			required = " (optional)"
		}
		fmt.Printf("    %s - %s%s\n", spec.Name, spec.Description, required)
	}
}

// moduleCreateCmd scaffolds a module from a template
var moduleCreateCmd = &cobra.Command{
	Use:   "create <template-id> <name>",
	Short: "Create a module from a template",
	Long: `Create a new module from a registered template.

Template variables are supplied with repeated --var flags. Placeholders
without a supplied value are left intact in the generated module.

Examples:
  modkit module create portscan lab_scan --var TARGET=10.0.0.1
  modkit module create portscan lab_scan --author "Jo Doe" --description "Scans the lab"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}

		varFlags, _ := cmd.Flags().GetStringArray("var")
		vars := map[string]string{}
		for _, kv := range varFlags {
			key, value, found := strings.Cut(kv, "=")
			if !found {
				return fmt.Errorf("invalid --var %q, expected KEY=VALUE", kv)
			}
			vars[key] = value
		}

		description, _ := cmd.Flags().GetString("description")
		author, _ := cmd.Flags().GetString("author")
		version, _ := cmd.Flags().GetString("version")

		var md *metadata.Metadata
		if description != "" || author != "" {
			md = &metadata.Metadata{
				Description: description,
				Author:      author,
				Version:     types.Version(version),
			}
		}

		id, err := reg.CreateFromTemplate(args[0], args[1], vars, md)
		if err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("Created module ") + IDStyle.Render(id))
		return nil
	},
}

// moduleDeleteCmd removes a module and its sidecar
var moduleDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		if err := reg.Delete(args[0]); err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("Deleted module ") + IDStyle.Render(args[0]))
		return nil
	},
}

// moduleConvertCmd converts legacy metadata to a structured sidecar
var moduleConvertCmd = &cobra.Command{
	Use:   "convert <id>",
	Short: "Convert legacy metadata to a structured sidecar",
	Long: `Convert a legacy module's embedded metadata blocks to a structured
sidecar file. The blocks stay in the module content; the sidecar becomes
the authoritative metadata from the next load on.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		mod, err := reg.ConvertLegacyToStructured(args[0])
		if err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("Converted ") + IDStyle.Render(mod.ID) +
			SubtitleStyle.Render(" -> ") + metadata.SidecarPath(mod.Path))
		return nil
	},
}

// moduleSaveCmd rewrites a module's content from a file
var moduleSaveCmd = &cobra.Command{
	Use:   "save <id> <content-file>",
	Short: "Replace a module's content",
	Long: `Replace a module's content with the contents of a local file.

For structured modules the sidecar is left untouched. A legacy module's
embedded metadata travels with the new content; rewriting it separately
is not supported on save.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[1], err)
		}

		err = reg.Save(args[0], string(data), nil)
		if errors.Is(err, registry.ErrLegacyMetadataImmutable) {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
			err = nil
		}
		if err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("Saved module ") + IDStyle.Render(args[0]))
		return nil
	},
}

func init() {
	moduleListCmd.Flags().String("category", "", "only list modules in this category")
	moduleListCmd.Flags().String("finding", "", "only list modules matching this finding text")
	moduleShowCmd.Flags().Bool("content", false, "also print the module content")
	moduleCreateCmd.Flags().StringArray("var", nil, "template variable as KEY=VALUE (repeatable)")
	moduleCreateCmd.Flags().StringP("description", "d", "", "module description for the sidecar")
	moduleCreateCmd.Flags().StringP("author", "a", "", "module author for the sidecar")
	moduleCreateCmd.Flags().String("version", "1.0.0", "module version for the sidecar")

	moduleCmd.AddCommand(moduleListCmd)
	moduleCmd.AddCommand(moduleShowCmd)
	moduleCmd.AddCommand(moduleCreateCmd)
	moduleCmd.AddCommand(moduleDeleteCmd)
	moduleCmd.AddCommand(moduleConvertCmd)
	moduleCmd.AddCommand(moduleSaveCmd)
}
