package serviceaccount

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all service accounts",
	Long: `List all service accounts registered with the admin-module.

Examples:
  # List as table
  artstorectl service-account list

  # List as JSON
  artstorectl service-account list -o json`,
	RunE: runList,
}

// List is a list of service accounts for table rendering.
type List []apiclient.ServiceAccountInfo

// Headers implements TableRenderer.
func (l List) Headers() []string {
	return []string{"CLIENT ID", "NAME", "ROLE", "STATUS", "ENVIRONMENT", "RATE LIMIT", "SYSTEM"}
}

// Rows implements TableRenderer.
func (l List) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, sa := range l {
		rows = append(rows, []string{
			sa.ClientID,
			sa.Name,
			sa.Role,
			sa.Status,
			cmdutil.EmptyOr(sa.Environment, "-"),
			fmt.Sprintf("%d", sa.RateLimit),
			cmdutil.BoolToYesNo(sa.IsSystem),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	accounts, err := client.ListServiceAccounts()
	if err != nil {
		return fmt.Errorf("failed to list service accounts: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, accounts, len(accounts) == 0, "No service accounts found.", List(accounts))
}
