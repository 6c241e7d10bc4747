package storageelement

import (
	"fmt"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <element-id>",
	Short: "Remove a storage-element from the registry",
	Long: `Remove a storage-element from the admin-module's registry.

This does not delete any files the storage-element holds; it only
removes the element from selection and registry lookups. You will be
prompted for confirmation unless --force is specified.

Examples:
  # Delete with confirmation
  artstorectl storage-element delete se-03

  # Delete without confirmation
  artstorectl storage-element delete se-03 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	elementID := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("Storage-element", elementID, deleteForce, func() error {
		if err := client.DeleteStorageElement(elementID); err != nil {
			return fmt.Errorf("failed to delete storage-element: %w", err)
		}
		return nil
	})
}
