package storageelement

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/internal/cli/prompt"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	createElementID     string
	createName          string
	createMode          string
	createStorageType   string
	createAPIURL        string
	createBasePath      string
	createCapacityBytes int64
	createPriority      uint16
	createRetentionDays int
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new storage-element",
	Long: `Register a new storage-element with the admin-module.

If the element ID, name, or API URL are not provided via flags, you
will be prompted to enter them interactively.

Examples:
  # Register a storage-element interactively
  artstorectl storage-element create

  # Register with flags
  artstorectl storage-element create --element-id se-03 --name "Element 3" --api-url http://se-03:8081

  # Register in read-only mode with a capacity limit
  artstorectl storage-element create --element-id se-04 --api-url http://se-04:8081 --mode RO --capacity-bytes 1073741824000`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createElementID, "element-id", "", "Element ID (required)")
	createCmd.Flags().StringVar(&createName, "name", "", "Display name")
	createCmd.Flags().StringVar(&createMode, "mode", "RW", "Mode (RW|RO|AR)")
	createCmd.Flags().StringVar(&createStorageType, "storage-type", "", "Storage backend type")
	createCmd.Flags().StringVar(&createAPIURL, "api-url", "", "Base URL of the storage-element's API (required)")
	createCmd.Flags().StringVar(&createBasePath, "base-path", "", "Base path on the storage-element's backend")
	createCmd.Flags().Int64Var(&createCapacityBytes, "capacity-bytes", 0, "Declared capacity in bytes")
	createCmd.Flags().Uint16Var(&createPriority, "priority", 0, "Selection priority (lower values are preferred)")
	createCmd.Flags().IntVar(&createRetentionDays, "retention-days", 0, "Default retention period in days")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	interactive := !cmd.Flags().Changed("element-id")

	elementID := createElementID
	if elementID == "" {
		elementID, err = prompt.InputRequired("Element ID")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	name := createName
	if name == "" {
		name, err = prompt.InputRequired("Name")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	apiURL := createAPIURL
	if apiURL == "" {
		apiURL, err = prompt.InputRequired("API URL")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	mode := createMode
	if interactive && !cmd.Flags().Changed("mode") {
		mode, err = prompt.Select("Mode", []prompt.SelectOption{
			{Label: "RW", Value: "RW", Description: "Read-write, accepts new uploads"},
			{Label: "RO", Value: "RO", Description: "Read-only, existing files still served"},
			{Label: "AR", Value: "AR", Description: "Archived, excluded from active selection"},
		})
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	req := apiclient.CreateStorageElementRequest{
		ElementID:     elementID,
		Name:          name,
		Mode:          mode,
		StorageType:   createStorageType,
		APIURL:        apiURL,
		BasePath:      createBasePath,
		CapacityBytes: createCapacityBytes,
		Priority:      createPriority,
		RetentionDays: createRetentionDays,
	}

	se, err := client.CreateStorageElement(req)
	if err != nil {
		return fmt.Errorf("failed to create storage-element: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, se, fmt.Sprintf("Storage-element '%s' registered successfully", se.ElementID))
}
