package file

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	updateDescription     string
	updateRetentionPolicy string
	updateTTLDays         int
)

var updateMetadataCmd = &cobra.Command{
	Use:   "update-metadata <file-id>",
	Short: "Update a file's mutable metadata",
	Long: `Update a file's description.

Only flags explicitly provided are sent. The admin-module applies the
description only; --retention-policy and --ttl-days are sent but not
applied. 'artstorectl file finalize' moves a file to PERMANENT retention.

Examples:
  artstorectl file update-metadata <file-id> --description "Quarterly export"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdateMetadata,
}

func init() {
	updateMetadataCmd.Flags().StringVar(&updateDescription, "description", "", "New description")
	updateMetadataCmd.Flags().StringVar(&updateRetentionPolicy, "retention-policy", "", "New retention policy")
	updateMetadataCmd.Flags().IntVar(&updateTTLDays, "ttl-days", 0, "New TTL in days (not applied by the admin-module)")
}

func runUpdateMetadata(cmd *cobra.Command, args []string) error {
	fileID := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	req := apiclient.UpdateFileMetadataRequest{}
	if cmd.Flags().Changed("description") {
		req.Description = updateDescription
	}
	if cmd.Flags().Changed("retention-policy") {
		req.RetentionPolicy = updateRetentionPolicy
	}
	if cmd.Flags().Changed("ttl-days") {
		req.TTLDays = &updateTTLDays
	}

	f, err := client.UpdateFileMetadata(fileID, req)
	if err != nil {
		return fmt.Errorf("failed to update file metadata: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, f, fmt.Sprintf("File '%s' metadata updated successfully", f.FileID))
}
