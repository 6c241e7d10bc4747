// Package commands implements the CLI commands for artstorectl.
package commands

import (
	"os"

	"github.com/artstore/artstore/cmd/artstorectl/cmdutil"
	adminusercmd "github.com/artstore/artstore/cmd/artstorectl/commands/adminuser"
	filecmd "github.com/artstore/artstore/cmd/artstorectl/commands/file"
	jwtkeyscmd "github.com/artstore/artstore/cmd/artstorectl/commands/jwtkeys"
	serviceaccountcmd "github.com/artstore/artstore/cmd/artstorectl/commands/serviceaccount"
	settingscmd "github.com/artstore/artstore/cmd/artstorectl/commands/settings"
	storageelementcmd "github.com/artstore/artstore/cmd/artstorectl/commands/storageelement"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "artstorectl",
	Short: "ArtStore Control - admin-module management client",
	Long: `artstorectl is the command-line client for managing an ArtStore
deployment's admin-module remotely.

Use this tool to manage storage-elements, service accounts, the file
registry, and server settings through the admin-module REST API.

Use "artstorectl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Server URL (overrides stored credential)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides stored credential)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(storageelementcmd.Cmd)
	rootCmd.AddCommand(serviceaccountcmd.Cmd)
	rootCmd.AddCommand(adminusercmd.Cmd)
	rootCmd.AddCommand(jwtkeyscmd.Cmd)
	rootCmd.AddCommand(filecmd.Cmd)
	rootCmd.AddCommand(settingscmd.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
