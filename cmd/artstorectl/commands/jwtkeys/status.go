package jwtkeys

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/artstore/artstore/pkg/apiclient"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show JWT signing key status",
	Long: `Show every signing key the admin-module's registry knows about,
newest first, including retained history from past rotations.

Examples:
  artstorectl jwt-keys status
  artstorectl jwt-keys status -o json`,
	RunE: runStatus,
}

// List is a list of signing keys for table rendering.
type List []apiclient.JWTKeyStatus

// Headers implements TableRenderer.
func (l List) Headers() []string {
	return []string{"VERSION", "ACTIVE", "CREATED", "EXPIRES", "ROTATION COUNT"}
}

// Rows implements TableRenderer.
func (l List) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, k := range l {
		rows = append(rows, []string{
			k.Version,
			cmdutil.BoolToYesNo(k.IsActive),
			k.CreatedAt,
			k.ExpiresAt,
			fmt.Sprintf("%d", k.RotationCount),
		})
	}
	return rows
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	status, err := client.JWTKeyStatus()
	if err != nil {
		return fmt.Errorf("failed to get jwt key status: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, status, len(status.Keys) == 0, "No signing keys found.", List(status.Keys))
}
