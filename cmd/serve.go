package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
	"shadownexus/pkg/handler/telegram"
	"shadownexus/pkg/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the inbound command listener",
	Long:  "Runs Shadow Nexus as a long-lived service that receives messages over Telegram, extracts hashtag commands, and dispatches them to the registered subsystems.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

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
		log := slog.Default().With("component", "cmd.serve")

		if !cfg.Handlers.Telegram.Enabled {
			log.Error("Serve requires the telegram handler to be enabled")
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctl, cleanup, err := buildControl(cfg, log)
		if err != nil {
			log.Error("Failed to initialize command pipeline", "error", err)
			return
		}
		defer cleanup()

		listener, err := telegram.NewListener(cfg.Handlers.Telegram, log)
		if err != nil {
			log.Error("Failed to initialize telegram listener", "error", err)
			return
		}

		log.Info("Shadow Nexus started", "systems", strings.Join(ctl.Router().Systems(), ","))
		process := func(ctx context.Context, input string) command.Response {
			return ctl.ProcessInput(ctx, input)
		}
		if err := listener.Run(runCtx, process); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Listener runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
