// Package adminuser implements admin user management commands for
// artstorectl.
package adminuser

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for admin user management.
var Cmd = &cobra.Command{
	Use:     "admin-user",
	Aliases: []string{"admin-users", "au"},
	Short:   "Admin user management",
	Long: `Manage human operator accounts on the admin-module.

These operations require SUPER_ADMIN privileges for anything that
creates, deletes, or resets credentials; ADMIN may list and inspect.

Examples:
  # List all admin users
  artstorectl admin-user list

  # Create an admin user (password auto-generated if omitted)
  artstorectl admin-user create --username ops-jane --role ADMIN

  # Reset a locked-out user's password
  artstorectl admin-user reset-password <id>`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(resetPasswordCmd)
	Cmd.AddCommand(deleteCmd)
}
