// Package file implements file registry management commands for
// artstorectl.
package file

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for file registry management.
var Cmd = &cobra.Command{
	Use:     "file",
	Aliases: []string{"files"},
	Short:   "File registry management",
	Long: `Inspect and manage the file registry on the admin-module.

Files are normally registered by the ingester as part of an upload;
these commands are for operators inspecting or correcting the registry
directly.

Examples:
  # List recent files
  artstorectl file list

  # Get a file's registry record
  artstorectl file get <file-id>

  # Finalize a file once its storage-element confirms durability
  artstorectl file finalize <file-id>`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(finalizeCmd)
	Cmd.AddCommand(updateMetadataCmd)
	Cmd.AddCommand(deleteCmd)
}
