package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// ProcessFunc runs one raw message through the command pipeline.
type ProcessFunc func(ctx context.Context, input string) command.Response

// Listener long-polls Telegram updates and feeds hashtag commands into the
// pipeline, replying with the outcome. It is the inbound counterpart of
// Handler.
type Listener struct {
	cfg       config.TelegramConfig
	allowFrom map[string]struct{}
	log       *slog.Logger
}

// NewListener validates Telegram configuration and constructs a listener.
func NewListener(cfg config.TelegramConfig, log *slog.Logger) (*Listener, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("handlers.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Listener{
		cfg:       cfg,
		allowFrom: allowFromSet(cfg.AllowFrom),
		log:       log.With("component", "listener.telegram"),
	}, nil
}

// Run starts long polling and blocks until ctx is canceled.
func (l *Listener) Run(ctx context.Context, process ProcessFunc) error {
	if process == nil {
		return errors.New("process function is required")
	}

	bot, err := telego.NewBot(strings.TrimSpace(l.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	l.log.Info("Telegram listener started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			message := update.Message
			if message == nil || message.From == nil {
				continue
			}

			content := strings.TrimSpace(message.Text)
			if !strings.Contains(content, "#") {
				continue
			}

			senderID := strconv.FormatInt(message.From.ID, 10)
			if !l.senderAllowed(senderID) {
				l.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
				continue
			}

			l.log.Info("Received message", "chat_id", message.Chat.ID, "sender_id", senderID, "content", previewText(content))

			resp := process(ctx, content)
			reply := renderResponse(resp)
			if reply == "" {
				continue
			}

			if _, err := bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), reply)); err != nil {
				l.log.Error("Failed to send telegram reply", "error", err)
			}
		}
	}
}

// senderAllowed checks whether a sender is permitted by allow_from config.
//
// When no allow list is configured, all senders are accepted.
func (l *Listener) senderAllowed(senderID string) bool {
	if len(l.allowFrom) == 0 {
		return true
	}

	_, ok := l.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

// allowFromSet normalizes allow_from values into a lookup set.
func allowFromSet(allowFrom []string) map[string]struct{} {
	if len(allowFrom) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

// renderResponse flattens a pipeline response into reply text.
func renderResponse(resp command.Response) string {
	if resp == nil {
		return ""
	}

	status, _ := resp["status"].(string)
	message, _ := resp["message"].(string)

	if result, ok := resp["result"]; ok {
		if raw, err := json.MarshalIndent(result, "", "  "); err == nil {
			return fmt.Sprintf("%s: %s\n%s", status, message, raw)
		}
	}

	if status == "" && message == "" {
		return ""
	}

	return fmt.Sprintf("%s: %s", status, message)
}
