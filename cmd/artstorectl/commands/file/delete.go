package file

import (
	"fmt"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <file-id>",
	Short: "Soft-delete a file's registry record",
	Long: `Soft-delete a file's record in the admin-module's registry: the
record is kept and marked deleted.

This does not remove the underlying object from its storage-element;
use the storage-element's own cleanup path for that. You will be
prompted for confirmation unless --force is specified.

Examples:
  artstorectl file delete <file-id>
  artstorectl file delete <file-id> --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	fileID := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("File", fileID, deleteForce, func() error {
		if err := client.DeleteFile(fileID); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		return nil
	})
}
