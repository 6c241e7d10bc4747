package adminuser

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
	createUsername string
	createRole     string
	createPassword string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new admin user",
	Long: `Create a new admin user on the admin-module.

If --password is not supplied, the admin-module generates one and the
account is flagged to require a password change on first login. The
generated password is shown exactly once; it cannot be retrieved again.

Examples:
  # Create interactively
  artstorectl admin-user create

  # Create with an auto-generated password
  artstorectl admin-user create --username ops-jane --role ADMIN`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createUsername, "username", "", "Username (required)")
	createCmd.Flags().StringVar(&createRole, "role", "ADMIN", "Role (SUPER_ADMIN|ADMIN|READONLY)")
	createCmd.Flags().StringVar(&createPassword, "password", "", "Password (generated if omitted)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	interactive := !cmd.Flags().Changed("username")

	username := createUsername
	if username == "" {
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	role := createRole
	if interactive && !cmd.Flags().Changed("role") {
		role, err = prompt.Select("Role", []prompt.SelectOption{
			{Label: "ADMIN", Value: "ADMIN", Description: "Manage storage elements, service accounts, and files"},
			{Label: "READONLY", Value: "READONLY", Description: "Read-only access to the registry"},
			{Label: "SUPER_ADMIN", Value: "SUPER_ADMIN", Description: "Full access including admin user management"},
		})
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	req := apiclient.CreateAdminUserRequest{
		Username: username,
		Password: createPassword,
		Role:     role,
	}

	user, err := client.CreateAdminUser(req)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := cmdutil.PrintResourceWithSuccess(os.Stdout, user, fmt.Sprintf("Admin user '%s' created successfully", user.Username)); err != nil {
		return err
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err == nil && format == output.FormatTable && user.Password != "" {
		fmt.Printf("\nPassword: %s\n", user.Password)
		fmt.Println("\nSave this password now. It will not be shown again.")
	}

	return nil
}
