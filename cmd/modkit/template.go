// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"modkit-cli/internal/template"
	"modkit-cli/pkg/types"

	"github.com/spf13/cobra"
)

// templateCmd represents the template command group
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage module templates",
	Long: `Manage the reusable module skeletons in the template catalog.

Templates carry placeholder variables (${NAME} or $NAME) that are filled
in when a module is created from them.

Examples:
  modkit template list
  modkit template show portscan
  modkit template vars portscan
  modkit template create portscan "Port Scan" --file scan.sh --type bash`,
}

// templateListCmd lists catalog entries
var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		engine := reg.Templates()

		category, _ := cmd.Flags().GetString("category")
		templates := engine.Templates()
		if category != "" {
			templates = engine.TemplatesByCategory(category)
		}

		if len(templates) == 0 {
			fmt.Println(SubtitleStyle.Render("No templates found."))
			return nil
		}
		for _, tpl := range templates {
			fmt.Printf("%s  %s  %s\n",
				IDStyle.Render(tpl.ID),
				SubtitleStyle.Render(string(tpl.ScriptType)),
				tpl.Description)
		}
		return nil
	},
}

// templateShowCmd prints one template and its skeleton content
var templateShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a template and its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		engine := reg.Templates()
		tpl := engine.TemplateByID(args[0])
		if tpl == nil {
			return fmt.Errorf("template not found: %s", args[0])
		}

		fmt.Println(TitleStyle.Render(tpl.ID))
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("name:"), tpl.Name)
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("description:"), tpl.Description)
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("type:"), tpl.ScriptType)
		if len(tpl.Categories) > 0 {
			fmt.Printf("  %s %s\n", SubtitleStyle.Render("categories:"), strings.Join(tpl.Categories, ", "))
		}

		content, err := engine.Content(tpl.ID)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(content)
		return nil
	},
}

// templateVarsCmd lists a template's placeholder variables
var templateVarsCmd = &cobra.Command{
	Use:   "vars <id>",
	Short: "List a template's placeholder variables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		vars, err := reg.Templates().Variables(args[0])
		if err != nil {
			return err
		}
		if len(vars) == 0 {
			fmt.Println(SubtitleStyle.Render("Template has no variables."))
			return nil
		}
		for _, name := range vars {
			fmt.Println(IDStyle.Render(name))
		}
		return nil
	},
}

// templateCreateCmd registers a new template from a local file
var templateCreateCmd = &cobra.Command{
	Use:   "create <id> <name>",
	Short: "Create a template from a local file",
	Long: `Register a new template in the catalog.

The skeleton content is read from --file and copied under the template
root as <id>_template with the extension matching --type.

Examples:
  modkit template create portscan "Port Scan" --file scan.sh --type bash --category recon`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}

		file, _ := cmd.Flags().GetString("file")
		scriptType, _ := cmd.Flags().GetString("type")
		description, _ := cmd.Flags().GetString("description")
		categories, _ := cmd.Flags().GetStringSlice("category")

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		tpl, err := reg.Templates().CreateTemplate(template.CreateOptions{
			ID:          args[0],
			Name:        args[1],
			Description: description,
			Content:     string(data),
			ScriptType:  types.ScriptType(scriptType),
			Categories:  categories,
		})
		if err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("Created template ") + IDStyle.Render(tpl.ID))
		if len(tpl.Variables) > 0 {
			fmt.Printf("%s %s\n", SubtitleStyle.Render("variables:"), strings.Join(tpl.Variables, ", "))
		}
		return nil
	},
}

// templateDeleteCmd removes a template from the catalog
var templateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		if err := reg.Templates().DeleteTemplate(args[0]); err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("Deleted template ") + IDStyle.Render(args[0]))
		return nil
	},
}

// templateCategoryCmd adds a category to the catalog
var templateCategoryCmd = &cobra.Command{
	Use:   "add-category <id> <name>",
	Short: "Add a template category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		if err := reg.Templates().AddCategory(args[0], args[1], description); err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("Added category ") + IDStyle.Render(args[0]))
		return nil
	},
}

func init() {
	templateListCmd.Flags().String("category", "", "only list templates in this category")
	templateCreateCmd.Flags().String("file", "", "file containing the skeleton content (required)")
	templateCreateCmd.Flags().String("type", "bash", "script type: bash, python, or json")
	templateCreateCmd.Flags().StringP("description", "d", "", "template description")
	templateCreateCmd.Flags().StringSlice("category", nil, "category id (repeatable)")
	_ = templateCreateCmd.MarkFlagRequired("file")
	templateCategoryCmd.Flags().StringP("description", "d", "", "category description")

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateVarsCmd)
	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateDeleteCmd)
	templateCmd.AddCommand(templateCategoryCmd)
}
