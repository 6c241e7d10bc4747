package storageelement

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	updateName          string
	updatePriority      uint16
	updateRetentionDays int
	updateCapacityBytes int64
)

var updateCmd = &cobra.Command{
	Use:   "update <element-id>",
	Short: "Update a storage-element's mutable fields",
	Long: `Update a storage-element's name, priority, retention, or capacity.

Only flags explicitly provided are sent; unset flags leave the
corresponding field unchanged.

Examples:
  # Raise a storage-element's selection priority
  artstorectl storage-element update se-03 --priority 50

  # Rename a storage-element
  artstorectl storage-element update se-03 --name "Element 3 (EU)"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateName, "name", "", "New display name")
	updateCmd.Flags().Uint16Var(&updatePriority, "priority", 0, "New selection priority")
	updateCmd.Flags().IntVar(&updateRetentionDays, "retention-days", 0, "New default retention period in days")
	updateCmd.Flags().Int64Var(&updateCapacityBytes, "capacity-bytes", 0, "New declared capacity in bytes")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	elementID := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	req := apiclient.UpdateStorageElementRequest{}
	if cmd.Flags().Changed("name") {
		req.Name = updateName
	}
	if cmd.Flags().Changed("priority") {
		req.Priority = updatePriority
	}
	if cmd.Flags().Changed("retention-days") {
		req.RetentionDays = updateRetentionDays
	}
	if cmd.Flags().Changed("capacity-bytes") {
		req.CapacityBytes = updateCapacityBytes
	}

	se, err := client.UpdateStorageElement(elementID, req)
	if err != nil {
		return fmt.Errorf("failed to update storage-element: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, se, fmt.Sprintf("Storage-element '%s' updated successfully", se.ElementID))
}
