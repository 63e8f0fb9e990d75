package sovereign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
	"shadownexus/pkg/handler"
)

// Handler is the data-collection subsystem: pull configured sources,
// dedupe what was already seen, and surface keyword matches.
type Handler struct {
	cfg       config.SovereignConfig
	collector *Collector
	log       *slog.Logger

	mu      sync.Mutex
	seen    map[string]map[string]struct{}
	items   []Item
	lastRun time.Time
}

// NewFactory returns a registry factory for the sovereign subsystem.
func NewFactory(cfg config.SovereignConfig, log *slog.Logger) handler.Factory {
	return func() (handler.Handler, error) {
		return New(cfg, log), nil
	}
}

// New builds the subsystem.
func New(cfg config.SovereignConfig, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		cfg:       cfg,
		collector: NewCollector(log),
		log:       log.With("component", "handler.sovereign"),
		seen:      make(map[string]map[string]struct{}),
	}
}

// Handle executes one sovereign command: "collect", "monitor", "status".
func (h *Handler) Handle(ctx context.Context, cmd command.Command) (command.Response, error) {
	switch cmd.Type {
	case "collect":
		return h.collect(ctx, cmd.Payload)
	case "monitor":
		return h.monitor(cmd.Payload)
	case "status":
		return h.status(), nil
	default:
		return nil, fmt.Errorf("unsupported sovereign command type: %s", cmd.Type)
	}
}

// collect pulls every configured source, or just the one named by
// payload source_id, and records items not seen before.
func (h *Handler) collect(ctx context.Context, payload map[string]any) (command.Response, error) {
	sources, err := h.selectSources(payload)
	if err != nil {
		return nil, err
	}

	collected := 0
	fresh := make([]Item, 0)
	failures := make([]string, 0)
	for _, src := range sources {
		items, err := h.collector.Collect(ctx, src)
		if err != nil {
			h.log.Warn("Source collection failed", "source", src.ID, "error", err)
			failures = append(failures, src.ID)
			continue
		}
		collected += len(items)
		fresh = append(fresh, h.record(src.ID, items)...)
	}

	h.mu.Lock()
	h.lastRun = time.Now()
	h.mu.Unlock()

	resp := command.Response{
		"status":    "success",
		"sources":   len(sources),
		"collected": collected,
		"new_items": itemMaps(fresh),
	}
	if len(failures) > 0 {
		resp["failed_sources"] = failures
	}
	return resp, nil
}

// monitor scans everything collected so far for keyword hits. Payload
// keywords override the configured watch list.
func (h *Handler) monitor(payload map[string]any) (command.Response, error) {
	keywords := h.cfg.Keywords
	if raw, ok := payload["keywords"].([]any); ok {
		keywords = keywords[:0:0]
		for _, entry := range raw {
			if kw, ok := entry.(string); ok && strings.TrimSpace(kw) != "" {
				keywords = append(keywords, strings.TrimSpace(kw))
			}
		}
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords configured")
	}

	h.mu.Lock()
	items := make([]Item, len(h.items))
	copy(items, h.items)
	h.mu.Unlock()

	matches := make([]Item, 0)
	for _, item := range items {
		if matchesAny(item, keywords) {
			matches = append(matches, item)
		}
	}

	return command.Response{
		"status":   "success",
		"keywords": keywords,
		"matches":  itemMaps(matches),
	}, nil
}

func (h *Handler) status() command.Response {
	h.mu.Lock()
	defer h.mu.Unlock()

	resp := command.Response{
		"status":  "success",
		"sources": len(h.cfg.Sources),
		"items":   len(h.items),
	}
	if !h.lastRun.IsZero() {
		resp["last_run"] = h.lastRun.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) selectSources(payload map[string]any) ([]config.SourceConfig, error) {
	sourceID, _ := payload["source_id"].(string)
	if sourceID == "" {
		if len(h.cfg.Sources) == 0 {
			return nil, fmt.Errorf("no sources configured")
		}
		return h.cfg.Sources, nil
	}

	for _, src := range h.cfg.Sources {
		if src.ID == sourceID {
			return []config.SourceConfig{src}, nil
		}
	}
	return nil, fmt.Errorf("unknown source: %s", sourceID)
}

// record appends items whose URL has not been seen for this source and
// returns just the fresh ones.
func (h *Handler) record(sourceID string, items []Item) []Item {
	h.mu.Lock()
	defer h.mu.Unlock()

	known := h.seen[sourceID]
	if known == nil {
		known = make(map[string]struct{})
		h.seen[sourceID] = known
	}

	fresh := make([]Item, 0, len(items))
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		if _, ok := known[item.URL]; ok {
			continue
		}
		known[item.URL] = struct{}{}
		h.items = append(h.items, item)
		fresh = append(fresh, item)
	}
	return fresh
}

func matchesAny(item Item, keywords []string) bool {
	haystack := strings.ToLower(item.Title + " " + item.Summary)
	for _, kw := range keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// itemMaps renders items as generic maps so responses marshal uniformly.
func itemMaps(items []Item) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry := map[string]any{
			"source_id": item.SourceID,
			"title":     item.Title,
			"url":       item.URL,
		}
		if item.Summary != "" {
			entry["summary"] = item.Summary
		}
		if !item.Published.IsZero() {
			entry["published"] = item.Published.UTC().Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	return out
}
