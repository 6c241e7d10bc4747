package storageelement

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var transitionMode string

var transitionCmd = &cobra.Command{
	Use:   "transition <element-id>",
	Short: "Transition a storage-element's mode",
	Long: `Transition a storage-element between RW, RO, and AR modes.

Examples:
  # Stop accepting new uploads to a storage-element
  artstorectl storage-element transition se-03 --mode RO

  # Archive a storage-element entirely
  artstorectl storage-element transition se-03 --mode AR`,
	Args: cobra.ExactArgs(1),
	RunE: runTransition,
}

func init() {
	transitionCmd.Flags().StringVar(&transitionMode, "mode", "", "Target mode (RW|RO|AR, required)")
	_ = transitionCmd.MarkFlagRequired("mode")
}

func runTransition(cmd *cobra.Command, args []string) error {
	elementID := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	se, err := client.TransitionStorageElementMode(elementID, transitionMode)
	if err != nil {
		return fmt.Errorf("failed to transition storage-element mode: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, se, fmt.Sprintf("Storage-element '%s' transitioned to %s", se.ElementID, se.Mode))
}
