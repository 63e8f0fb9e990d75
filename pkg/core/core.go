package core

import (
	"context"
	"encoding/json"
	"log/slog"

	"shadownexus/pkg/command"
	"shadownexus/pkg/processor"
	"shadownexus/pkg/router"
	"shadownexus/pkg/signature"
)

// Control wires the processor, verifier, and router together for one
// incoming message at a time. Each instance owns its collaborators
// explicitly; there is no process-wide singleton.
type Control struct {
	processor *processor.Processor
	verifier  *signature.Verifier
	router    *router.Router
	log       *slog.Logger
}

// New constructs the orchestrator from its three collaborators.
func New(p *processor.Processor, v *signature.Verifier, r *router.Router, log *slog.Logger) *Control {
	if log == nil {
		log = slog.Default()
	}

	return &Control{
		processor: p,
		verifier:  v,
		router:    r,
		log:       log.With("component", "core"),
	}
}

// Router exposes the registry so hosts can install handlers.
func (c *Control) Router() *router.Router {
	return c.router
}

// ProcessInput runs one message through parse, optional verification, and
// dispatch. It always returns a uniform response envelope: parse failures
// and rejected signatures come back as error statuses, and routing or
// handler errors are folded into the envelope after being logged.
func (c *Control) ProcessInput(ctx context.Context, input string) command.Response {
	cmd, metadata := c.processor.Process(input)

	if !metadata.HasCommand {
		return command.Response{
			"status":   "error",
			"message":  "no valid command found",
			"metadata": metadata,
		}
	}

	result, err := c.Dispatch(ctx, cmd)
	if err != nil {
		return command.Response{
			"status":   "error",
			"message":  err.Error(),
			"metadata": metadata,
		}
	}

	return command.Response{
		"status":   "success",
		"message":  "command executed successfully",
		"result":   result,
		"metadata": metadata,
	}
}

// Dispatch verifies and routes an already-built command. Signed commands go
// through the verifier first; failures come back as typed errors
// (*command.AuthError, *command.RoutingError, *command.HandlerError), never
// a bare third-party error.
func (c *Control) Dispatch(ctx context.Context, cmd command.Command) (command.Response, error) {
	if cmd.Signed() {
		if err := c.verifyCommand(cmd); err != nil {
			c.log.Warn("Rejected command", "target_system", cmd.TargetSystem, "error", err)
			return nil, err
		}
	}

	return c.router.Route(ctx, cmd)
}

// verifyCommand applies the signed-command invariant: a signature without a
// timestamp is rejected outright, otherwise the signature is checked over
// the canonical payload encoding.
func (c *Control) verifyCommand(cmd command.Command) error {
	if cmd.Timestamp == 0 {
		return &command.AuthError{Reason: "signature present without timestamp"}
	}

	canonical, err := CanonicalPayload(cmd.Payload)
	if err != nil {
		return &command.AuthError{Reason: "payload is not encodable"}
	}

	if !c.verifier.Verify(canonical, cmd.Signature, cmd.Timestamp) {
		return &command.AuthError{Reason: "invalid command signature"}
	}

	return nil
}

// SignPayload produces the signature and effective timestamp for a payload,
// using the same canonical encoding verification applies.
func (c *Control) SignPayload(payload map[string]any, timestamp float64) (string, float64, error) {
	canonical, err := CanonicalPayload(payload)
	if err != nil {
		return "", 0, err
	}

	sig, ts := c.verifier.Sign(canonical, timestamp)
	return sig, ts, nil
}

// CanonicalPayload renders a payload deterministically for signing. JSON
// object keys marshal in sorted order, so equal payloads always produce
// equal bytes.
func CanonicalPayload(payload map[string]any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
