package adminuser

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get an admin user by ID",
	Long: `Get details of a single admin user by its ID.

Examples:
  artstorectl admin-user get 3f7c2e9a-...
  artstorectl admin-user get 3f7c2e9a-... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	user, err := client.GetAdminUser(args[0])
	if err != nil {
		return fmt.Errorf("failed to get admin user: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, user, List([]apiclient.AdminUserInfo{*user}))
}
