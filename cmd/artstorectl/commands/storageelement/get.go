package storageelement

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <element-id>",
	Short: "Get a storage-element by ID",
	Long: `Get details of a single storage-element by its element ID.

Examples:
  # Get a storage-element
  artstorectl storage-element get se-01

  # Get as JSON
  artstorectl storage-element get se-01 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	se, err := client.GetStorageElement(args[0])
	if err != nil {
		return fmt.Errorf("failed to get storage-element: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, se, List([]apiclient.StorageElementInfo{*se}))
}
