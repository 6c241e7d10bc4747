// Package settings implements server settings management commands for
// artstorectl.
package settings

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for settings management.
var Cmd = &cobra.Command{
	Use:   "settings",
	Short: "Admin-module settings management",
	Long: `Manage runtime settings on the admin-module.

Settings commands allow you to get, set, list, and reset server
configuration settings. These operations require admin privileges.

Examples:
  # List all settings
  artstorectl settings list

  # Get a specific setting
  artstorectl settings get rotation.interval_days

  # Set a setting value
  artstorectl settings set rotation.interval_days 30`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(deleteCmd)
}
