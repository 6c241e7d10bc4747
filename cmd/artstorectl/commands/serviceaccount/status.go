package serviceaccount

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var statusValue string

var statusCmd = &cobra.Command{
	Use:   "set-status <id>",
	Short: "Update a service account's status",
	Long: `Update a service account's status (e.g. to suspend or reactivate it).

Examples:
  # Suspend a service account
  artstorectl service-account set-status <id> --status SUSPENDED

  # Reactivate it
  artstorectl service-account set-status <id> --status ACTIVE`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusValue, "status", "", "Target status (required)")
	_ = statusCmd.MarkFlagRequired("status")
}

func runStatus(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	sa, err := client.UpdateServiceAccountStatus(id, statusValue)
	if err != nil {
		return fmt.Errorf("failed to update service account status: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, sa, fmt.Sprintf("Service account '%s' status set to %s", sa.Name, sa.Status))
}
