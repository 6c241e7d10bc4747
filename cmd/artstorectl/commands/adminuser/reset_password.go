package adminuser

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/internal/cli/output"
	"github.com/spf13/cobra"
)

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <id>",
	Short: "Reset an admin user's password",
	Long: `Generate a fresh password for an admin user, e.g. to recover a
locked-out account. The account is flagged to require a password change
on next login. The generated password is shown exactly once.

Examples:
  artstorectl admin-user reset-password <id>`,
	Args: cobra.ExactArgs(1),
	RunE: runResetPassword,
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	user, err := client.ResetAdminUserPassword(id)
	if err != nil {
		return fmt.Errorf("failed to reset admin user password: %w", err)
	}

	if err := cmdutil.PrintResourceWithSuccess(os.Stdout, user, fmt.Sprintf("Password reset for '%s'", user.Username)); err != nil {
		return err
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err == nil && format == output.FormatTable && user.Password != "" {
		fmt.Printf("\nNew password: %s\n", user.Password)
		fmt.Println("\nSave this password now. It will not be shown again.")
	}

	return nil
}
