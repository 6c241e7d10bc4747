package file

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <file-id>",
	Short: "Get a file's registry record",
	Long: `Get the admin-module's registry record for a single file.

Examples:
  artstorectl file get <file-id>
  artstorectl file get <file-id> -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	f, err := client.GetFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, f, List([]apiclient.FileRegistration{*f}))
}
