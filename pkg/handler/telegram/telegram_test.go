package telegram

import (
	"strings"
	"testing"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
)

func TestChatID(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    int64
		wantErr bool
	}{
		{name: "number", raw: float64(42), want: 42},
		{name: "string", raw: " 42 ", want: 42},
		{name: "negative group id", raw: float64(-1001), want: -1001},
		{name: "garbage string", raw: "forty-two", wantErr: true},
		{name: "missing", raw: nil, wantErr: true},
	}

	for _, tt := range tests {
		got, err := chatID(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: chatID = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestAllowFromSet(t *testing.T) {
	allowed := allowFromSet([]string{" 123 ", "", "456", "123"})
	if len(allowed) != 2 {
		t.Fatalf("allowFromSet len = %d, want 2", len(allowed))
	}
	if _, ok := allowed["123"]; !ok {
		t.Fatal("allowFromSet missing 123")
	}
	if _, ok := allowed["456"]; !ok {
		t.Fatal("allowFromSet missing 456")
	}
}

func TestSenderAllowed(t *testing.T) {
	listener := &Listener{allowFrom: map[string]struct{}{"1": {}}}
	if !listener.senderAllowed("1") {
		t.Fatal("expected sender 1 to be allowed")
	}
	if listener.senderAllowed("2") {
		t.Fatal("expected sender 2 to be denied")
	}

	listener.allowFrom = nil
	if !listener.senderAllowed("any") {
		t.Fatal("expected sender to be allowed when allowlist empty")
	}
}

func TestPreviewText(t *testing.T) {
	if got := previewText(" hello "); got != "hello" {
		t.Fatalf("previewText short = %q, want %q", got, "hello")
	}

	long := strings.Repeat("a", messagePreviewLimit+20)
	got := previewText(long)
	if len(got) != messagePreviewLimit+3 {
		t.Fatalf("previewText long len = %d, want %d", len(got), messagePreviewLimit+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("previewText long = %q, want ellipsis suffix", got)
	}
}

func TestRenderResponse(t *testing.T) {
	if got := renderResponse(nil); got != "" {
		t.Fatalf("renderResponse(nil) = %q, want empty", got)
	}

	plain := renderResponse(command.Response{"status": "error", "message": "no valid command found"})
	if plain != "error: no valid command found" {
		t.Fatalf("renderResponse plain = %q", plain)
	}

	withResult := renderResponse(command.Response{
		"status":  "success",
		"message": "command executed successfully",
		"result":  command.Response{"echo": "ping"},
	})
	if !strings.Contains(withResult, `"echo": "ping"`) {
		t.Fatalf("renderResponse result = %q, want embedded result JSON", withResult)
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := NewListener(config.TelegramConfig{}, nil); err == nil {
		t.Fatal("expected listener error for missing token")
	}
	if _, err := New(config.TelegramConfig{}, nil); err == nil {
		t.Fatal("expected handler error for missing token")
	}
}
