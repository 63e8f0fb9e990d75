package phantom

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()

	h, err := New(config.PhantomConfig{
		EncryptionKey: "test-passphrase",
		MinDelayMS:    1,
		MaxDelayMS:    2,
	}, NewMemoryStore(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Tests should not pace themselves like production traffic.
	h.sleep = func(context.Context, time.Duration) error { return nil }
	return h
}

func TestSealRoundTrip(t *testing.T) {
	sealer, err := NewSealer("passphrase")
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	plaintext := []byte("classified payload")
	sealed, nonce, err := sealer.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	opened, err := sealer.Open(sealed, nonce)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(opened) != string(plaintext) {
		t.Fatalf("Open = %q, want %q", opened, plaintext)
	}
}

func TestSealTamperDetection(t *testing.T) {
	sealer, err := NewSealer("passphrase")
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	sealed, nonce, err := sealer.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	sealed[0] ^= 0x01
	if _, err := sealer.Open(sealed, nonce); err == nil {
		t.Fatal("tampered ciphertext opened")
	}
}

func TestNewSealerRequiresKey(t *testing.T) {
	if _, err := NewSealer(""); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}

func TestFetchArchivesAndRetrieves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a user agent header")
		}
		_, _ = w.Write([]byte("<html>target content</html>"))
	}))
	defer server.Close()

	h := testHandler(t)
	ctx := context.Background()

	resp, err := h.Handle(ctx, command.Command{Type: "fetch", TargetSystem: "phantom", Payload: map[string]any{
		"url":          server.URL,
		"operation_id": "op-1",
	}})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if resp["status"] != "success" {
		t.Fatalf("fetch status = %v", resp["status"])
	}
	hash, _ := resp["data_hash"].(string)
	if len(hash) != 64 {
		t.Fatalf("data_hash = %q, want sha256 hex", hash)
	}

	// Archived payload must be sealed, not plaintext.
	op, err := h.store.Get(ctx, "op-1")
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if string(op.Sealed) == "<html>target content</html>" {
		t.Fatal("archived payload is not encrypted")
	}

	resp, err = h.Handle(ctx, command.Command{Type: "retrieve", TargetSystem: "phantom", Payload: map[string]any{
		"operation_id": "op-1",
	}})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if resp["content"] != "<html>target content</html>" {
		t.Fatalf("retrieve content = %q", resp["content"])
	}
}

func TestFetchRejectsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	h := testHandler(t)
	_, err := h.Handle(context.Background(), command.Command{Type: "fetch", TargetSystem: "phantom", Payload: map[string]any{
		"url":          server.URL,
		"operation_id": "op-2",
	}})
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestRetrieveUnknownOperation(t *testing.T) {
	h := testHandler(t)

	_, err := h.Handle(context.Background(), command.Command{Type: "retrieve", TargetSystem: "phantom", Payload: map[string]any{
		"operation_id": "missing",
	}})
	if err == nil {
		t.Fatal("expected error for unknown operation")
	}
}

func TestStatusCountsOperations(t *testing.T) {
	h := testHandler(t)
	ctx := context.Background()

	_ = h.store.Save(ctx, &Operation{ID: "a"})
	_ = h.store.Save(ctx, &Operation{ID: "b"})

	resp, err := h.Handle(ctx, command.Command{Type: "status", TargetSystem: "phantom"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if resp["operations"] != int64(2) {
		t.Fatalf("operations = %v, want 2", resp["operations"])
	}
}

func TestStealthDelayBounds(t *testing.T) {
	s := NewStealth(10, 20, nil)
	for i := 0; i < 100; i++ {
		d := s.Delay()
		if d < 10*time.Millisecond || d > 20*time.Millisecond {
			t.Fatalf("delay %v outside [10ms, 20ms]", d)
		}
	}
}

func TestStealthProxySelection(t *testing.T) {
	s := NewStealth(1, 2, []string{"http://proxy-a:8080", " ", "not a url"})

	u, err := s.Proxy(nil)
	if err != nil {
		t.Fatalf("Proxy: %v", err)
	}
	if u == nil || u.Host != "proxy-a:8080" {
		t.Fatalf("Proxy = %v, want proxy-a:8080", u)
	}

	none := NewStealth(1, 2, nil)
	u, err = none.Proxy(nil)
	if err != nil || u != nil {
		t.Fatalf("Proxy with no config = %v, %v; want nil, nil", u, err)
	}
}
