package serviceaccount

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a service account by ID",
	Long: `Get details of a single service account by its ID.

Examples:
  # Get a service account
  artstorectl service-account get 3f7c2e9a-...

  # Get as JSON
  artstorectl service-account get 3f7c2e9a-... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	sa, err := client.GetServiceAccount(args[0])
	if err != nil {
		return fmt.Errorf("failed to get service account: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, sa, List([]apiclient.ServiceAccountInfo{*sa}))
}
