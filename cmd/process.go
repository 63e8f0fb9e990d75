/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"shadownexus/pkg/config"
	"shadownexus/pkg/logger"

	"github.com/spf13/cobra"
)

var messageText string

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [message]",
	Short: "Dispatch a single message through the command pipeline",
	Long:  "Extracts the hashtag command from one message, dispatches it to the matching subsystem, and prints the response envelope as JSON. The message comes from arguments, --message, or stdin.",
	Run: func(cmd *cobra.Command, args []string) {
		message := resolveMessage(args)
		if message == "" {
			fmt.Println("no message provided")
			return
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.process")

		ctl, cleanup, err := buildControl(cfg, log)
		if err != nil {
			log.Error("Failed to initialize command pipeline", "error", err)
			return
		}
		defer cleanup()

		response := ctl.ProcessInput(context.Background(), message)
		rendered, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			fmt.Printf("failed to render response: %v\n", err)
			return
		}

		fmt.Println(string(rendered))
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVarP(&messageText, "message", "m", "", "message text to process")
}

// resolveMessage picks the input message from the flag, arguments, or stdin
// in that order.
func resolveMessage(args []string) string {
	if value := strings.TrimSpace(messageText); value != "" {
		return value
	}

	if len(args) > 0 {
		if value := strings.TrimSpace(strings.Join(args, " ")); value != "" {
			return value
		}
	}

	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return ""
	}

	var builder strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		builder.WriteString(scanner.Text())
		builder.WriteString("\n")
	}

	return strings.TrimSpace(builder.String())
}
