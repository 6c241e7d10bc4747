package file

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize <file-id>",
	Short: "Finalize a file's registry record",
	Long: `Finalize a file: move its retention policy from TEMPORARY to
PERMANENT and clear its TTL. Finalizing an already-permanent file changes
nothing. The ingester registers uploads as TEMPORARY and does not
finalize them.

Examples:
  artstorectl file finalize <file-id>`,
	Args: cobra.ExactArgs(1),
	RunE: runFinalize,
}

func runFinalize(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	f, err := client.FinalizeFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to finalize file: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, f, fmt.Sprintf("File '%s' finalized successfully", f.FileID))
}
