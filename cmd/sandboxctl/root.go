// Command sandboxctl is an admin CLI over internal/restapi's REST
// surface: it never touches sandbox.Sandbox directly, only HTTP+JSON.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	authToken string
)

var rootCmd = &cobra.Command{
	Use:   "sandboxctl",
	Short: "sandboxctl manages agent-sandbox instances over the REST API",
	Long: `sandboxctl is a command-line client for the agent-sandbox REST API.

It creates, inspects, executes commands in, and tears down sandboxes running
behind a remote agent-sandbox --listen server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", getEnvOrDefault("SANDBOXCTL_SERVER", "http://localhost:8080"), "agent-sandbox server base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("SANDBOXCTL_TOKEN"), "bearer token for authenticated servers")

	rootCmd.AddCommand(createCmd, listCmd, getCmd, rmCmd, execCmd, statsCmd, snapshotCmd, restoreCmd)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func newAPIClient() *client {
	return newClient(serverURL, authToken)
}

// Execute runs the root command, returning any error for main to report.
func Execute() error {
	return rootCmd.Execute()
}
