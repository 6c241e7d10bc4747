package file

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered files",
	Long: `List files registered with the admin-module.

Examples:
  artstorectl file list
  artstorectl file list -o json`,
	RunE: runList,
}

// List is a list of file registrations for table rendering.
type List []apiclient.FileRegistration

// Headers implements TableRenderer.
func (l List) Headers() []string {
	return []string{"FILE ID", "ORIGINAL NAME", "SIZE", "STORAGE ELEMENT", "RETENTION"}
}

// Rows implements TableRenderer.
func (l List) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, f := range l {
		rows = append(rows, []string{
			f.FileID,
			f.OriginalFilename,
			fmt.Sprintf("%d", f.FileSize),
			f.StorageElementID,
			f.RetentionPolicy,
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	files, err := client.ListFiles()
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, files, len(files) == 0, "No files found.", List(files))
}
