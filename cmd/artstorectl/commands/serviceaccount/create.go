package serviceaccount

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/internal/cli/output"
	"github.com/artstore/artstore/internal/cli/prompt"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	createName        string
	createRole        string
	createRateLimit   int
	createEnvironment string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new service account",
	Long: `Create a new service account on the admin-module.

The returned client secret is shown exactly once; store it securely,
it cannot be retrieved again (only rotated).

If name or role are not provided via flags, you will be prompted to
enter them interactively.

Examples:
  # Create interactively
  artstorectl service-account create

  # Create a service account with flags
  artstorectl service-account create --name ingester-prod --role ADMIN --environment production --rate-limit 120`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "Service account name (required)")
	createCmd.Flags().StringVar(&createRole, "role", "ADMIN", "Role (SUPER_ADMIN|ADMIN|READONLY)")
	createCmd.Flags().IntVar(&createRateLimit, "rate-limit", 0, "Requests-per-minute rate limit (0 = default)")
	createCmd.Flags().StringVar(&createEnvironment, "environment", "", "Environment label (e.g. production, staging)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	interactive := !cmd.Flags().Changed("name")

	name := createName
	if name == "" {
		name, err = prompt.InputRequired("Name")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	role := createRole
	if interactive && !cmd.Flags().Changed("role") {
		role, err = prompt.Select("Role", []prompt.SelectOption{
			{Label: "ADMIN", Value: "ADMIN", Description: "Full read-write access to the admin-module API"},
			{Label: "READONLY", Value: "READONLY", Description: "Read-only access, suitable for the query service"},
			{Label: "SUPER_ADMIN", Value: "SUPER_ADMIN", Description: "Full access including user and account management"},
		})
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	req := apiclient.CreateServiceAccountRequest{
		Name:        name,
		Role:        role,
		RateLimit:   createRateLimit,
		Environment: createEnvironment,
	}

	sa, err := client.CreateServiceAccount(req)
	if err != nil {
		return fmt.Errorf("failed to create service account: %w", err)
	}

	if err := cmdutil.PrintResourceWithSuccess(os.Stdout, sa, fmt.Sprintf("Service account '%s' created successfully", sa.Name)); err != nil {
		return err
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err == nil && format == output.FormatTable {
		fmt.Printf("\nClient ID:     %s\n", sa.ClientID)
		fmt.Printf("Client Secret: %s\n", sa.ClientSecret)
		fmt.Println("\nSave this secret now. It will not be shown again.")
	}

	return nil
}
