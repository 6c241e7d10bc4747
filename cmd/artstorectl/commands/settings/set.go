package settings

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting value",
	Long: `Set the value of a server setting on the admin-module.

Examples:
  artstorectl settings set rotation.interval_days 30`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	setting, err := client.SetSetting(key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, setting, fmt.Sprintf("Setting '%s' set to '%s'", setting.Key, setting.Value))
}
