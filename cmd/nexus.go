package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"shadownexus/pkg/athena"
	"shadownexus/pkg/config"
	"shadownexus/pkg/core"
	"shadownexus/pkg/handler/discord"
	"shadownexus/pkg/handler/email"
	"shadownexus/pkg/handler/telegram"
	"shadownexus/pkg/phantom"
	"shadownexus/pkg/processor"
	"shadownexus/pkg/router"
	"shadownexus/pkg/signature"
	"shadownexus/pkg/sovereign"
)

// buildControl assembles the command pipeline from loaded configuration and
// registers every enabled subsystem. The returned cleanup closes resources
// owned by handlers, such as database pools.
func buildControl(cfg *config.Config, log *slog.Logger) (*core.Control, func(), error) {
	proc := processor.New(cfg.Processor.CacheCapacity, log)
	verifier := signature.New(cfg.Signature.Secret, signature.Options{
		MaxAge:       time.Duration(cfg.Signature.MaxAgeSeconds) * time.Second,
		MaxClockSkew: time.Duration(cfg.Signature.MaxClockSkewSeconds) * time.Second,
	}, log)
	reg := router.New(log)
	ctl := core.New(proc, verifier, reg, log)

	cleanup := func() {}

	if cfg.Handlers.Telegram.Enabled {
		if err := reg.Register("telegram", telegram.NewFactory(cfg.Handlers.Telegram, log)); err != nil {
			return nil, cleanup, fmt.Errorf("register telegram: %w", err)
		}
	}

	if cfg.Handlers.Discord.Enabled {
		if err := reg.Register("discord", discord.NewFactory(cfg.Handlers.Discord, log)); err != nil {
			return nil, cleanup, fmt.Errorf("register discord: %w", err)
		}
	}

	if cfg.Handlers.Email.Enabled {
		if err := reg.Register("email", email.NewFactory(cfg.Handlers.Email, log)); err != nil {
			return nil, cleanup, fmt.Errorf("register email: %w", err)
		}
	}

	if cfg.Handlers.Athena.Enabled {
		if err := reg.Register("athena", athena.NewFactory(cfg.Handlers.Athena, log)); err != nil {
			return nil, cleanup, fmt.Errorf("register athena: %w", err)
		}
	}

	if cfg.Handlers.Phantom.Enabled {
		store, closeStore, err := phantomStore(cfg.Handlers.Phantom, log)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open phantom store: %w", err)
		}
		if err := reg.Register("phantom", phantom.NewFactory(cfg.Handlers.Phantom, store, log)); err != nil {
			closeStore()
			return nil, cleanup, fmt.Errorf("register phantom: %w", err)
		}
		cleanup = closeStore
	}

	if cfg.Handlers.Sovereign.Enabled {
		if err := reg.Register("sovereign", sovereign.NewFactory(cfg.Handlers.Sovereign, log)); err != nil {
			return nil, cleanup, fmt.Errorf("register sovereign: %w", err)
		}
	}

	return ctl, cleanup, nil
}

// phantomStore opens the Postgres archive when a database host is
// configured, and falls back to the in-process store otherwise.
func phantomStore(cfg config.PhantomConfig, log *slog.Logger) (phantom.Store, func(), error) {
	if cfg.Database.Host == "" {
		log.Warn("Phantom database not configured, using in-memory store")
		return phantom.NewMemoryStore(), func() {}, nil
	}

	store, err := phantom.NewPostgresStore(cfg.Database)
	if err != nil {
		return nil, func() {}, err
	}

	return store, func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close phantom store", "error", err)
		}
	}, nil
}
