package adminuser

import (
	"fmt"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an admin user",
	Long: `Delete an admin user from the admin-module.

The built-in system admin account cannot be deleted. You will be
prompted for confirmation unless --force is specified.

Examples:
  artstorectl admin-user delete <id>
  artstorectl admin-user delete <id> --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("Admin user", id, deleteForce, func() error {
		if err := client.DeleteAdminUser(id); err != nil {
			return fmt.Errorf("failed to delete admin user: %w", err)
		}
		return nil
	})
}
