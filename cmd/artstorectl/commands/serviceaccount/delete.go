package serviceaccount

import (
	"fmt"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a service account",
	Long: `Delete a service account from the admin-module.

Any client still presenting this account's credentials will be refused
authentication immediately. You will be prompted for confirmation
unless --force is specified.

Examples:
  artstorectl service-account delete <id>
  artstorectl service-account delete <id> --force`,
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

	return cmdutil.RunDeleteWithConfirmation("Service account", id, deleteForce, func() error {
		if err := client.DeleteServiceAccount(id); err != nil {
			return fmt.Errorf("failed to delete service account: %w", err)
		}
		return nil
	})
}
