package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
	"shadownexus/pkg/logger"
	"shadownexus/pkg/ui/console"

	"github.com/spf13/cobra"
)

var consoleInput string

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive operator console",
	Long:  "Opens a full-screen console for typing hashtag commands and inspecting dispatch responses. With --input, dispatches one command, renders the response, and exits.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		// Route logs to the JSON handler so the TUI owns the terminal.
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = "json"
		}
		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.console")

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctl, cleanup, err := buildControl(cfg, log)
		if err != nil {
			log.Error("Failed to initialize command pipeline", "error", err)
			return
		}
		defer cleanup()

		process := func(ctx context.Context, input string) (command.Response, error) {
			return ctl.ProcessInput(ctx, input), nil
		}

		if consoleInput != "" {
			if err := console.RunOneShot(runCtx, process, consoleInput); err != nil {
				log.Error("Console failed", "error", err)
			}
			return
		}

		info := console.RuntimeInfo{Systems: ctl.Router().Systems()}
		if err := console.RunInteractive(runCtx, process, info); err != nil {
			log.Error("Console failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVarP(&consoleInput, "input", "i", "", "dispatch one command and exit")
}
