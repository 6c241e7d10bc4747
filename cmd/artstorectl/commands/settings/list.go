package settings

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	Long: `List all server settings on the admin-module.

Examples:
  artstorectl settings list
  artstorectl settings list -o json`,
	RunE: runList,
}

// List is a list of settings for table rendering.
type List []apiclient.Setting

// Headers implements TableRenderer.
func (l List) Headers() []string {
	return []string{"KEY", "VALUE", "DESCRIPTION", "UPDATED"}
}

// Rows implements TableRenderer.
func (l List) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		rows = append(rows, []string{s.Key, s.Value, cmdutil.EmptyOr(s.Description, "-"), s.UpdatedAt.Format("2006-01-02 15:04:05")})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	settings, err := client.ListSettings()
	if err != nil {
		return fmt.Errorf("failed to list settings: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, settings, len(settings) == 0, "No settings found.", List(settings))
}
