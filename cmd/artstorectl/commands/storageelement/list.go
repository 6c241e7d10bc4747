package storageelement

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all storage-elements",
	Long: `List all storage-elements registered with the admin-module.

Examples:
  # List as table
  artstorectl storage-element list

  # List as JSON
  artstorectl storage-element list -o json`,
	RunE: runList,
}

// List is a list of storage-elements for table rendering.
type List []apiclient.StorageElementInfo

// Headers implements TableRenderer.
func (l List) Headers() []string {
	return []string{"ELEMENT ID", "NAME", "MODE", "STATUS", "PRIORITY", "USED", "CAPACITY", "FILES"}
}

// Rows implements TableRenderer.
func (l List) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, se := range l {
		rows = append(rows, []string{
			se.ElementID,
			se.Name,
			se.Mode,
			se.Status,
			fmt.Sprintf("%d", se.Priority),
			fmt.Sprintf("%d", se.UsedBytes),
			fmt.Sprintf("%d", se.CapacityBytes),
			fmt.Sprintf("%d", se.FileCount),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	elements, err := client.ListStorageElements()
	if err != nil {
		return fmt.Errorf("failed to list storage-elements: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, elements, len(elements) == 0, "No storage-elements found.", List(elements))
}
