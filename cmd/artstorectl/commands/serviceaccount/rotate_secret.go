package serviceaccount

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/internal/cli/output"
	"github.com/spf13/cobra"
)

var rotateSecretCmd = &cobra.Command{
	Use:   "rotate-secret <id>",
	Short: "Rotate a service account's client secret",
	Long: `Generate a new client secret for a service account. The previous
secret stops working immediately.

The new secret is shown exactly once; store it securely.

Examples:
  artstorectl service-account rotate-secret <id>`,
	Args: cobra.ExactArgs(1),
	RunE: runRotateSecret,
}

func runRotateSecret(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	sa, err := client.RotateServiceAccountSecret(id)
	if err != nil {
		return fmt.Errorf("failed to rotate service account secret: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, sa)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, sa)
	default:
		cmdutil.PrintSuccess(fmt.Sprintf("Secret rotated for service account '%s'", sa.Name))
		fmt.Printf("\nClient ID:     %s\n", sa.ClientID)
		fmt.Printf("Client Secret: %s\n", sa.ClientSecret)
		fmt.Println("\nSave this secret now. It will not be shown again.")
	}

	return nil
}
