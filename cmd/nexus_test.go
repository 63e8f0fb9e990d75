package cmd

import (
	"log/slog"
	"slices"
	"testing"

	"shadownexus/pkg/config"
)

func TestBuildControlRegistersEnabledSystems(t *testing.T) {
	cfg := &config.Config{
		Signature: config.SignatureConfig{Secret: "test-secret"},
		Handlers: config.HandlersConfig{
			Athena:    config.AthenaConfig{Enabled: true},
			Phantom:   config.PhantomConfig{Enabled: true, EncryptionKey: "test-key"},
			Sovereign: config.SovereignConfig{Enabled: true},
		},
	}

	ctl, cleanup, err := buildControl(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("buildControl: %v", err)
	}
	defer cleanup()

	systems := ctl.Router().Systems()
	for _, want := range []string{"athena", "phantom", "sovereign"} {
		if !slices.Contains(systems, want) {
			t.Fatalf("systems = %v, missing %q", systems, want)
		}
	}
	if slices.Contains(systems, "telegram") {
		t.Fatalf("systems = %v, telegram should be disabled", systems)
	}
}

func TestBuildControlSkipsDisabledHandlers(t *testing.T) {
	cfg := &config.Config{
		Signature: config.SignatureConfig{Secret: "test-secret"},
	}

	ctl, cleanup, err := buildControl(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("buildControl: %v", err)
	}
	defer cleanup()

	if systems := ctl.Router().Systems(); len(systems) != 0 {
		t.Fatalf("systems = %v, want none", systems)
	}
}

func TestPhantomStoreFallsBackToMemory(t *testing.T) {
	store, closeStore, err := phantomStore(config.PhantomConfig{}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("phantomStore: %v", err)
	}
	defer closeStore()

	if store == nil {
		t.Fatal("expected a store")
	}
}

func TestResolveMessage(t *testing.T) {
	original := messageText
	t.Cleanup(func() {
		messageText = original
	})

	messageText = " from-flag "
	if got := resolveMessage([]string{"from", "args"}); got != "from-flag" {
		t.Fatalf("resolveMessage with flag = %q, want %q", got, "from-flag")
	}

	messageText = ""
	if got := resolveMessage([]string{"#status@phantom{}", "trailing"}); got != "#status@phantom{} trailing" {
		t.Fatalf("resolveMessage with args = %q", got)
	}
}
