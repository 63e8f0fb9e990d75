package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
	"shadownexus/pkg/handler"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const messagePreviewLimit = 240

// Handler dispatches commands to Telegram. The bot session is created once,
// at registration time, and reused for every command.
type Handler struct {
	bot *telego.Bot
	log *slog.Logger
}

// NewFactory returns a registry factory for the Telegram subsystem.
func NewFactory(cfg config.TelegramConfig, log *slog.Logger) handler.Factory {
	return func() (handler.Handler, error) {
		return New(cfg, log)
	}
}

// New validates Telegram configuration and opens the bot session.
func New(cfg config.TelegramConfig, log *slog.Logger) (*Handler, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("handlers.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	return &Handler{
		bot: bot,
		log: log.With("component", "handler.telegram"),
	}, nil
}

// Handle executes one Telegram command.
//
// Supported command types: "message" sends payload content to payload
// chat_id; "broadcast" sends content to every entry of payload chat_ids.
func (h *Handler) Handle(ctx context.Context, cmd command.Command) (command.Response, error) {
	switch cmd.Type {
	case "message":
		return h.sendMessage(ctx, cmd.Payload)
	case "broadcast":
		return h.broadcast(ctx, cmd.Payload)
	default:
		return nil, fmt.Errorf("unsupported telegram command type: %s", cmd.Type)
	}
}

func (h *Handler) sendMessage(ctx context.Context, payload map[string]any) (command.Response, error) {
	chatID, err := chatID(payload["chat_id"])
	if err != nil {
		return nil, err
	}

	content, _ := payload["content"].(string)
	if content == "" {
		return nil, errors.New("payload content is required")
	}

	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), content)); err != nil {
		return nil, fmt.Errorf("send telegram message: %w", err)
	}

	h.log.Info("Sent message", "chat_id", chatID, "content", previewText(content))
	return command.Response{"status": "success", "message": "message sent"}, nil
}

func (h *Handler) broadcast(ctx context.Context, payload map[string]any) (command.Response, error) {
	rawIDs, ok := payload["chat_ids"].([]any)
	if !ok || len(rawIDs) == 0 {
		return nil, errors.New("payload chat_ids is required")
	}

	content, _ := payload["content"].(string)
	if content == "" {
		return nil, errors.New("payload content is required")
	}

	sent := 0
	for _, raw := range rawIDs {
		id, err := chatID(raw)
		if err != nil {
			return nil, err
		}
		if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(id), content)); err != nil {
			return nil, fmt.Errorf("broadcast to chat %d: %w", id, err)
		}
		sent++
	}

	h.log.Info("Broadcast message", "chats", sent)
	return command.Response{"status": "success", "sent": sent}, nil
}

// chatID accepts the JSON forms a payload chat id arrives in: a number or a
// numeric string.
func chatID(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid chat_id %q", v)
		}
		return id, nil
	default:
		return 0, errors.New("payload chat_id is required")
	}
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}
