// Package storageelement implements storage-element registry management
// commands for artstorectl.
package storageelement

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for storage-element management.
var Cmd = &cobra.Command{
	Use:     "storage-element",
	Aliases: []string{"storage-elements", "se"},
	Short:   "Storage-element registry management",
	Long: `Manage the storage-element registry on the admin-module.

Storage-element commands allow you to register, list, inspect, update,
transition the mode of, and remove storage-elements. These operations
require ADMIN or SUPER_ADMIN privileges.

Examples:
  # List all storage-elements
  artstorectl storage-element list

  # Register a new storage-element
  artstorectl storage-element create --element-id se-03 --api-url http://se-03:8081

  # Transition a storage-element to read-only
  artstorectl storage-element transition se-03 --mode RO`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(transitionCmd)
	Cmd.AddCommand(deleteCmd)
}
