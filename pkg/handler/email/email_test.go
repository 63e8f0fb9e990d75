package email

import (
	"log/slog"
	"testing"

	"shadownexus/pkg/config"
)

func validConfig() config.EmailConfig {
	return config.EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "bot@example.com",
		Password: "hunter2",
		From:     "nexus@example.com",
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Password = ""
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for missing password")
	}

	cfg = validConfig()
	cfg.Host = ""
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestBuildMessage(t *testing.T) {
	h, err := New(validConfig(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	msg, err := h.buildMessage("ops@example.com", "Alert", "body text")
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}

	from := msg.GetAddrHeader("From")
	if len(from) == 0 || from[0].Address != "nexus@example.com" {
		t.Fatalf("From = %v, want nexus@example.com", from)
	}

	if _, err := h.buildMessage("not-an-address", "Alert", "body"); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}

func TestBuildMessageFallsBackToUsername(t *testing.T) {
	cfg := validConfig()
	cfg.From = ""
	h, err := New(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	msg, err := h.buildMessage("ops@example.com", "Alert", "body")
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}
	from := msg.GetAddrHeader("From")
	if len(from) == 0 || from[0].Address != "bot@example.com" {
		t.Fatalf("From = %v, want username fallback", from)
	}
}
