package processor

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"shadownexus/pkg/command"
)

// Commands are embedded in free text as #<type>@<system>{<json-object>}.
// The head is matched by regex; the payload end is found by brace counting
// so that nested objects and braces inside JSON strings survive intact.
var commandHead = regexp.MustCompile(`#(\w+)@(\w+)\{`)

const defaultCacheCapacity = 1024

// Processor extracts structured commands from raw message text. It keeps a
// bounded cache of recently extracted commands keyed by
// "<type>_<system>_<timestamp>"; when the cache is full the oldest entry is
// evicted.
type Processor struct {
	log      *slog.Logger
	now      func() time.Time
	capacity int

	mu    sync.Mutex
	cache map[string]command.Command
	order []string
}

// New constructs a processor. A non-positive cacheCapacity selects the
// default of 1024 entries.
func New(cacheCapacity int, log *slog.Logger) *Processor {
	if cacheCapacity <= 0 {
		cacheCapacity = defaultCacheCapacity
	}
	if log == nil {
		log = slog.Default()
	}

	return &Processor{
		log:      log.With("component", "processor"),
		now:      time.Now,
		capacity: cacheCapacity,
		cache:    make(map[string]command.Command),
	}
}

// Extract searches message for an embedded command. It returns false when no
// command syntax is present or the payload is not a JSON object; malformed
// input is skipped silently because a message may legitimately contain no
// command.
func (p *Processor) Extract(message string) (command.Command, bool) {
	loc := commandHead.FindStringSubmatchIndex(message)
	if loc == nil {
		p.log.Debug("No command found in message")
		return command.Command{}, false
	}

	commandType := message[loc[2]:loc[3]]
	targetSystem := message[loc[4]:loc[5]]

	// loc[1] is one past the opening brace.
	payloadRaw, ok := capturePayload(message, loc[1]-1)
	if !ok {
		p.log.Debug("Unterminated command payload", "command_type", commandType)
		return command.Command{}, false
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(payloadRaw), &payload); err != nil {
		p.log.Error("Invalid JSON payload in command", "command_type", commandType, "error", err)
		return command.Command{}, false
	}

	cmd := command.Command{
		Type:         commandType,
		TargetSystem: targetSystem,
		Payload:      payload,
		Timestamp:    unixSeconds(p.now()),
	}

	p.store(cmd)

	p.log.Info("Extracted command", "command_type", commandType, "target_system", targetSystem)
	return cmd, true
}

// Process extracts a command and always returns parse metadata, whether or
// not a command was found.
func (p *Processor) Process(message string) (command.Command, command.ParseMetadata) {
	metadata := command.ParseMetadata{
		Timestamp: unixSeconds(p.now()),
		Length:    len(message),
	}

	cmd, ok := p.Extract(message)
	if ok {
		metadata.HasCommand = true
		metadata.Type = cmd.Type
		metadata.TargetSystem = cmd.TargetSystem
	}

	return cmd, metadata
}

// Cached returns the cached command for a key produced by Command.CacheKey.
func (p *Processor) Cached(key string) (command.Command, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd, ok := p.cache[key]
	return cmd, ok
}

// ClearCache drops all cached commands.
func (p *Processor) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]command.Command)
	p.order = p.order[:0]
	p.log.Info("Command cache cleared")
}

func (p *Processor) store(cmd command.Command) {
	key := cmd.CacheKey()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.cache[key]; !exists {
		for len(p.order) >= p.capacity {
			oldest := p.order[0]
			p.order = p.order[1:]
			delete(p.cache, oldest)
		}
		p.order = append(p.order, key)
	}
	p.cache[key] = cmd
}

// capturePayload returns the balanced JSON object starting at the opening
// brace at message[start]. Braces inside JSON strings do not affect depth.
func capturePayload(message string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(message); i++ {
		c := message[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return message[start : i+1], true
			}
		}
	}

	return "", false
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
