// Package serviceaccount implements service account management commands
// for artstorectl.
package serviceaccount

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for service account management.
var Cmd = &cobra.Command{
	Use:     "service-account",
	Aliases: []string{"service-accounts", "sa"},
	Short:   "Service account management",
	Long: `Manage service accounts on the admin-module.

Service accounts authenticate the ingester and query services (and any
other machine client) to the admin-module via OAuth2 client credentials.
These operations require ADMIN or SUPER_ADMIN privileges.

Examples:
  # List all service accounts
  artstorectl service-account list

  # Create a service account for the ingester
  artstorectl service-account create --name ingester-prod --role ADMIN --environment production

  # Rotate a service account's secret
  artstorectl service-account rotate-secret <id>`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(rotateSecretCmd)
	Cmd.AddCommand(deleteCmd)
}
