package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
	"shadownexus/pkg/handler"

	"github.com/wneessen/go-mail"
)

const defaultSubject = "Shadow Nexus Response"

// Handler dispatches commands over SMTP. The client is configured once at
// registration time; connections are dialed per send and closed after.
type Handler struct {
	cfg    config.EmailConfig
	client *mail.Client
	log    *slog.Logger
}

// NewFactory returns a registry factory for the email subsystem.
func NewFactory(cfg config.EmailConfig, log *slog.Logger) handler.Factory {
	return func() (handler.Handler, error) {
		return New(cfg, log)
	}
}

// New validates SMTP configuration and builds the mail client.
func New(cfg config.EmailConfig, log *slog.Logger) (*Handler, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("handlers.email.host is required")
	}
	if strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.Password) == "" {
		return nil, errors.New("email credentials not properly configured")
	}

	if log == nil {
		log = slog.Default()
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize smtp client: %w", err)
	}

	return &Handler{
		cfg:    cfg,
		client: client,
		log:    log.With("component", "handler.email"),
	}, nil
}

// Handle executes one email command.
//
// "send" delivers payload content to payload to, with an optional subject.
func (h *Handler) Handle(ctx context.Context, cmd command.Command) (command.Response, error) {
	switch cmd.Type {
	case "send":
		return h.send(ctx, cmd.Payload)
	default:
		return nil, fmt.Errorf("unsupported email command type: %s", cmd.Type)
	}
}

func (h *Handler) send(ctx context.Context, payload map[string]any) (command.Response, error) {
	to, _ := payload["to"].(string)
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("payload to is required")
	}

	subject, _ := payload["subject"].(string)
	if subject == "" {
		subject = defaultSubject
	}
	content, _ := payload["content"].(string)
	if content == "" {
		return nil, errors.New("payload content is required")
	}

	msg, err := h.buildMessage(to, subject, content)
	if err != nil {
		return nil, err
	}

	if err := h.client.DialAndSendWithContext(ctx, msg); err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}

	h.log.Info("Sent email", "to", to, "subject", subject)
	return command.Response{"status": "success", "message": "email sent"}, nil
}

func (h *Handler) buildMessage(to, subject, content string) (*mail.Msg, error) {
	from := h.cfg.From
	if from == "" {
		from = h.cfg.Username
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(strings.TrimSpace(to)); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, content)

	return msg, nil
}
