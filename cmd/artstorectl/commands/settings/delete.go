package settings

import (
	"fmt"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Reset a setting to its default",
	Long: `Delete a server setting, resetting it to its built-in default.

Examples:
  artstorectl settings delete rotation.interval_days
  artstorectl settings delete rotation.interval_days --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	key := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("Setting", key, deleteForce, func() error {
		if err := client.DeleteSetting(key); err != nil {
			return fmt.Errorf("failed to delete setting: %w", err)
		}
		return nil
	})
}
