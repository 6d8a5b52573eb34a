// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "go-portal",
	Short: "go-portal is the backend for the Sukut application portal",
	Long: `go-portal is the backend for the Sukut application portal.
It serves the portal SPA with login, a role and permission gated catalog
of line-of-business applications, an admin console and team chat.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
