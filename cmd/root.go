/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shadownexus",
	Short: "Authenticated command bus for remote operations",
	Long: `Shadow Nexus parses hashtag commands out of free-form messages,
verifies their signatures, and routes them to the registered subsystem.

Commands arrive as #<type>@<system>{json payload} embedded anywhere in a
message. Use "serve" to run the inbound listener, "process" to dispatch a
single message, "sign" to produce signatures for payloads, and "console"
for the interactive operator console.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
