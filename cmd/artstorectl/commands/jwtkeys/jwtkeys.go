// Package jwtkeys implements JWT signing key inspection and rotation
// commands for artstorectl.
package jwtkeys

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for JWT signing key management.
var Cmd = &cobra.Command{
	Use:     "jwt-keys",
	Aliases: []string{"jwt-key"},
	Short:   "JWT signing key status and rotation",
	Long: `Inspect and manage the admin-module's RS256 signing key lifecycle.

Keys rotate on their own schedule once the newest active key is within
an hour of expiry; 'rotate' forces this early, e.g. ahead of a planned
key-compromise response.

Examples:
  artstorectl jwt-keys status
  artstorectl jwt-keys rotate`,
}

func init() {
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(rotateCmd)
}
