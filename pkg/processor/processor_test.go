package processor

import (
	"log/slog"
	"testing"
	"time"
)

func testProcessor() *Processor {
	return New(0, slog.New(slog.DiscardHandler))
}

func TestExtractSimpleCommand(t *testing.T) {
	p := testProcessor()

	cmd, ok := p.Extract(`#ping@system{"a":1}`)
	if !ok {
		t.Fatal("expected a command")
	}
	if cmd.Type != "ping" {
		t.Fatalf("Type = %q, want %q", cmd.Type, "ping")
	}
	if cmd.TargetSystem != "system" {
		t.Fatalf("TargetSystem = %q, want %q", cmd.TargetSystem, "system")
	}
	if got := cmd.Payload["a"]; got != float64(1) {
		t.Fatalf(`Payload["a"] = %v, want 1`, got)
	}
	if cmd.Timestamp == 0 {
		t.Fatal("expected a non-zero extraction timestamp")
	}
}

func TestExtractEmbeddedInText(t *testing.T) {
	p := testProcessor()

	cmd, ok := p.Extract(`please run #status@system{"check":"all"} when convenient`)
	if !ok {
		t.Fatal("expected a command")
	}
	if cmd.Type != "status" || cmd.TargetSystem != "system" {
		t.Fatalf("got %s@%s, want status@system", cmd.Type, cmd.TargetSystem)
	}
}

func TestExtractNoCommand(t *testing.T) {
	p := testProcessor()

	if _, ok := p.Extract("no command here"); ok {
		t.Fatal("expected no command")
	}
}

func TestExtractMalformedJSON(t *testing.T) {
	p := testProcessor()

	if _, ok := p.Extract(`#bad@system{not-json}`); ok {
		t.Fatal("malformed JSON must not yield a command")
	}
}

func TestExtractNestedPayload(t *testing.T) {
	p := testProcessor()

	cmd, ok := p.Extract(`#store@phantom{"meta":{"depth":2},"note":"braces } inside strings"}`)
	if !ok {
		t.Fatal("expected a command with nested payload")
	}
	inner, ok := cmd.Payload["meta"].(map[string]any)
	if !ok {
		t.Fatalf("meta = %T, want nested object", cmd.Payload["meta"])
	}
	if inner["depth"] != float64(2) {
		t.Fatalf("meta.depth = %v, want 2", inner["depth"])
	}
	if cmd.Payload["note"] != "braces } inside strings" {
		t.Fatalf("note = %v", cmd.Payload["note"])
	}
}

func TestExtractUnterminatedPayload(t *testing.T) {
	p := testProcessor()

	if _, ok := p.Extract(`#bad@system{"a":1`); ok {
		t.Fatal("unterminated payload must not yield a command")
	}
}

func TestProcessMetadata(t *testing.T) {
	p := testProcessor()

	_, meta := p.Process("just chatting")
	if meta.HasCommand {
		t.Fatal("has_command should be false")
	}
	if meta.Length != len("just chatting") {
		t.Fatalf("Length = %d, want %d", meta.Length, len("just chatting"))
	}

	cmd, meta := p.Process(`#ping@system{"a":1}`)
	if !meta.HasCommand {
		t.Fatal("has_command should be true")
	}
	if meta.Type != cmd.Type || meta.TargetSystem != cmd.TargetSystem {
		t.Fatalf("metadata echo mismatch: %+v vs %+v", meta, cmd)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	p := testProcessor()

	cmd, ok := p.Extract(`#ping@system{"a":1}`)
	if !ok {
		t.Fatal("expected a command")
	}

	cached, ok := p.Cached(cmd.CacheKey())
	if !ok {
		t.Fatal("expected command in cache")
	}
	if cached.Type != cmd.Type {
		t.Fatalf("cached.Type = %q, want %q", cached.Type, cmd.Type)
	}

	p.ClearCache()
	if _, ok := p.Cached(cmd.CacheKey()); ok {
		t.Fatal("expected empty cache after clear")
	}
}

func TestCacheEviction(t *testing.T) {
	p := New(2, slog.New(slog.DiscardHandler))

	base := time.Unix(1700000000, 0)
	tick := 0
	p.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first, _ := p.Extract(`#a@system{"n":1}`)
	p.Extract(`#b@system{"n":2}`)
	third, _ := p.Extract(`#c@system{"n":3}`)

	if _, ok := p.Cached(first.CacheKey()); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if _, ok := p.Cached(third.CacheKey()); !ok {
		t.Fatal("newest entry should be cached")
	}
}
