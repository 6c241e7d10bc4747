package jwtkeys

import (
	"fmt"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	"github.com/spf13/cobra"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Force an immediate JWT signing key rotation",
	Long: `Force the admin-module to mint a new signing key now, instead of
waiting for the scheduled rotation window.

Tokens already issued under the previous key continue to validate for
their full remaining lifetime, since the outgoing key stays active
through its overlap period.

Examples:
  artstorectl jwt-keys rotate`,
	RunE: runRotate,
}

func runRotate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.RotateJWTKey(); err != nil {
		return fmt.Errorf("failed to rotate jwt signing key: %w", err)
	}

	fmt.Println("JWT signing key rotated successfully.")
	return nil
}
