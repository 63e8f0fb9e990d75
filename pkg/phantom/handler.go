package phantom

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
	"shadownexus/pkg/handler"
)

const maxBodyBytes = 10 << 20

// Handler is the retrieval-and-archive subsystem: fetch a target with
// stealth pacing, seal the body, and archive it for later retrieval.
type Handler struct {
	stealth *Stealth
	sealer  *Sealer
	store   Store
	client  *http.Client
	log     *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewFactory returns a registry factory for the phantom subsystem backed by
// the given store.
func NewFactory(cfg config.PhantomConfig, store Store, log *slog.Logger) handler.Factory {
	return func() (handler.Handler, error) {
		return New(cfg, store, log)
	}
}

// New builds the subsystem. The HTTP client routes through the configured
// proxies when any are present.
func New(cfg config.PhantomConfig, store Store, log *slog.Logger) (*Handler, error) {
	if store == nil {
		return nil, errors.New("phantom store is required")
	}

	sealer, err := NewSealer(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = slog.Default()
	}

	stealth := NewStealth(cfg.MinDelayMS, cfg.MaxDelayMS, cfg.Proxies)

	return &Handler{
		stealth: stealth,
		sealer:  sealer,
		store:   store,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &http.Transport{Proxy: stealth.Proxy},
		},
		log:   log.With("component", "handler.phantom"),
		sleep: sleepContext,
	}, nil
}

// Handle executes one phantom command: "fetch", "retrieve", "status".
func (h *Handler) Handle(ctx context.Context, cmd command.Command) (command.Response, error) {
	switch cmd.Type {
	case "fetch":
		return h.fetch(ctx, cmd.Payload)
	case "retrieve":
		return h.retrieve(ctx, cmd.Payload)
	case "status":
		count, err := h.store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count operations: %w", err)
		}
		return command.Response{"status": "success", "operations": count}, nil
	default:
		return nil, fmt.Errorf("unsupported phantom command type: %s", cmd.Type)
	}
}

func (h *Handler) fetch(ctx context.Context, payload map[string]any) (command.Response, error) {
	targetURL, _ := payload["url"].(string)
	if strings.TrimSpace(targetURL) == "" {
		return nil, errors.New("payload url is required")
	}
	operationID, _ := payload["operation_id"].(string)
	if strings.TrimSpace(operationID) == "" {
		return nil, errors.New("payload operation_id is required")
	}

	if err := h.sleep(ctx, h.stealth.Delay()); err != nil {
		return nil, err
	}

	body, err := h.get(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(body)
	dataHash := hex.EncodeToString(hash[:])

	sealed, nonce, err := h.sealer.Seal(body)
	if err != nil {
		return nil, err
	}

	op := &Operation{
		ID:        operationID,
		TargetURL: targetURL,
		DataHash:  dataHash,
		Nonce:     nonce,
		Sealed:    sealed,
	}
	if err := h.store.Save(ctx, op); err != nil {
		return nil, fmt.Errorf("archive operation: %w", err)
	}

	h.log.Info("Retrieval archived", "operation_id", operationID, "bytes", len(body))
	return command.Response{
		"status":       "success",
		"operation_id": operationID,
		"data_hash":    dataHash,
	}, nil
}

func (h *Handler) retrieve(ctx context.Context, payload map[string]any) (command.Response, error) {
	operationID, _ := payload["operation_id"].(string)
	if strings.TrimSpace(operationID) == "" {
		return nil, errors.New("payload operation_id is required")
	}

	op, err := h.store.Get(ctx, operationID)
	if err != nil {
		return nil, err
	}

	plaintext, err := h.sealer.Open(op.Sealed, op.Nonce)
	if err != nil {
		return nil, err
	}

	return command.Response{
		"status":       "success",
		"operation_id": op.ID,
		"target_url":   op.TargetURL,
		"data_hash":    op.DataHash,
		"content":      string(plaintext),
	}, nil
}

func (h *Handler) get(ctx context.Context, targetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	h.stealth.ApplyHeaders(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", targetURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
