package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/client"
	"github.com/spf13/cobra"
)

// templateCmd represents the template command
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage report templates through the API",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List report templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		search, _ := cmd.Flags().GetString("search")
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("page-size")
		templates, pagination, err := c.ListTemplates(cmd.Context(), search, page, size)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]interface{}{"data": templates, "pagination": pagination})
	},
}

var templateGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a template, optionally at a given version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		version, _ := cmd.Flags().GetInt("version")
		tpl, err := c.GetTemplate(cmd.Context(), args[0], version)
		if err != nil {
			return err
		}
		return printJSON(cmd, tpl)
	},
}

var templateVersionsCmd = &cobra.Command{
	Use:   "versions <id>",
	Short: "List the versions of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		versions, err := c.TemplateVersions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, versions)
	},
}

var templateCreateCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create a template from a JSON definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		in, err := readTemplate(args[0])
		if err != nil {
			return err
		}
		tpl, err := c.CreateTemplate(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(cmd, tpl)
	},
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update <id> <file>",
	Short: "Update a template, creating a new version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		in, err := readTemplate(args[1])
		if err != nil {
			return err
		}
		tpl, err := c.UpdateTemplate(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		return printJSON(cmd, tpl)
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return c.DeleteTemplate(cmd.Context(), args[0])
	},
}

func readTemplate(path string) (*client.TemplateInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in client.TemplateInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("invalid template file %s: %w", path, err)
	}
	return &in, nil
}

func init() {
	rootCmd.AddCommand(templateCmd)
	addClientFlags(templateCmd)

	templateCmd.AddCommand(templateListCmd, templateGetCmd, templateVersionsCmd,
		templateCreateCmd, templateUpdateCmd, templateDeleteCmd)

	templateListCmd.Flags().String("search", "", "Search by name")
	templateListCmd.Flags().Int("page", 1, "Page number")
	templateListCmd.Flags().Int("page-size", 20, "Page size")
	templateGetCmd.Flags().Int("version", 0, "Template version (default: latest)")
}
