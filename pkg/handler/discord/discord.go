package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
	"shadownexus/pkg/handler"

	"github.com/bwmarrin/discordgo"
)

// Handler dispatches commands to Discord channels. One session is opened at
// registration time and reused for every command.
type Handler struct {
	session *discordgo.Session
	log     *slog.Logger
}

// NewFactory returns a registry factory for the Discord subsystem.
func NewFactory(cfg config.DiscordConfig, log *slog.Logger) handler.Factory {
	return func() (handler.Handler, error) {
		return New(cfg, log)
	}
}

// New validates Discord configuration and opens the gateway session.
func New(cfg config.DiscordConfig, log *slog.Logger) (*Handler, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("handlers.discord.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("initialize discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open discord gateway: %w", err)
	}

	return &Handler{
		session: session,
		log:     log.With("component", "handler.discord"),
	}, nil
}

// Handle executes one Discord command.
//
// "message" posts payload content to payload channel_id; "status" reports
// gateway health.
func (h *Handler) Handle(_ context.Context, cmd command.Command) (command.Response, error) {
	switch cmd.Type {
	case "message":
		return h.sendMessage(cmd.Payload)
	case "status":
		return command.Response{
			"status":             "success",
			"heartbeat_latency":  h.session.HeartbeatLatency().String(),
			"session_identified": h.session.State != nil && h.session.State.User != nil,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported discord command type: %s", cmd.Type)
	}
}

func (h *Handler) sendMessage(payload map[string]any) (command.Response, error) {
	channelID := channelID(payload["channel_id"])
	if channelID == "" {
		return nil, errors.New("payload channel_id is required")
	}

	content, _ := payload["content"].(string)
	if content == "" {
		return nil, errors.New("payload content is required")
	}

	if _, err := h.session.ChannelMessageSend(channelID, content); err != nil {
		return nil, fmt.Errorf("send discord message: %w", err)
	}

	h.log.Info("Sent message", "channel_id", channelID)
	return command.Response{"status": "success", "message": "message sent"}, nil
}

// Close shuts down the gateway session.
func (h *Handler) Close() error {
	return h.session.Close()
}

// channelID accepts a Discord channel id as a string or JSON number.
func channelID(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
