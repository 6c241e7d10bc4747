package adminuser

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all admin users",
	Long: `List all admin user accounts registered with the admin-module.

Examples:
  artstorectl admin-user list
  artstorectl admin-user list -o json`,
	RunE: runList,
}

// List is a list of admin users for table rendering.
type List []apiclient.AdminUserInfo

// Headers implements TableRenderer.
func (l List) Headers() []string {
	return []string{"ID", "USERNAME", "ROLE", "SYSTEM", "MUST CHANGE PW", "LOCKED"}
}

// Rows implements TableRenderer.
func (l List) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, u := range l {
		rows = append(rows, []string{
			u.ID,
			u.Username,
			u.Role,
			cmdutil.BoolToYesNo(u.IsSystem),
			cmdutil.BoolToYesNo(u.MustChangePassword),
			cmdutil.BoolToYesNo(u.LockedUntil != nil),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	users, err := client.ListAdminUsers()
	if err != nil {
		return fmt.Errorf("failed to list admin users: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, users, len(users) == 0, "No admin users found.", List(users))
}
