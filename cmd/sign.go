package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shadownexus/pkg/config"
	"shadownexus/pkg/core"
	"shadownexus/pkg/logger"
	"shadownexus/pkg/signature"

	"github.com/spf13/cobra"
)

var signTimestamp float64

// signCmd represents the sign command
var signCmd = &cobra.Command{
	Use:   "sign [payload-json]",
	Short: "Produce a signature for a command payload",
	Long:  "Signs a JSON payload with the configured secret and prints the signature and effective timestamp. Attach both to a command to pass verification.",
	Run: func(cmd *cobra.Command, args []string) {
		raw := strings.TrimSpace(strings.Join(args, " "))
		if raw == "" {
			raw = "{}"
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			fmt.Printf("invalid payload JSON: %v\n", err)
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

		verifier := signature.New(cfg.Signature.Secret, signature.Options{
			MaxAge:       time.Duration(cfg.Signature.MaxAgeSeconds) * time.Second,
			MaxClockSkew: time.Duration(cfg.Signature.MaxClockSkewSeconds) * time.Second,
		}, appLogger)

		canonical, err := core.CanonicalPayload(payload)
		if err != nil {
			fmt.Printf("failed to encode payload: %v\n", err)
			return
		}

		sig, ts := verifier.Sign(canonical, signTimestamp)
		rendered, err := json.MarshalIndent(map[string]any{
			"signature": sig,
			"timestamp": ts,
		}, "", "  ")
		if err != nil {
			fmt.Printf("failed to render output: %v\n", err)
			return
		}

		fmt.Println(string(rendered))
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().Float64VarP(&signTimestamp, "timestamp", "t", 0, "epoch-seconds timestamp to sign with (default: now)")
}
