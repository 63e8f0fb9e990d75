package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"shadownexus/pkg/command"
	"shadownexus/pkg/handler"
)

// Router dispatches commands to registered subsystem handlers. The registry
// maps a target-system tag to a live handler instance; registration is
// expected at startup, dispatch on the hot path, and both are safe for
// concurrent use.
type Router struct {
	log *slog.Logger

	mu       sync.RWMutex
	handlers map[string]handler.Handler
}

// New constructs an empty router.
func New(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		log:      log.With("component", "router"),
		handlers: make(map[string]handler.Handler),
	}
}

// Register constructs a handler from factory and binds it to targetSystem.
// The factory runs exactly once; the resulting instance serves every command
// routed to that system. Re-registering a system replaces the previous
// handler, last writer wins.
func (r *Router) Register(targetSystem string, factory handler.Factory) error {
	h, err := factory()
	if err != nil {
		return fmt.Errorf("construct handler for %s: %w", targetSystem, err)
	}

	r.mu.Lock()
	_, exists := r.handlers[targetSystem]
	r.handlers[targetSystem] = h
	r.mu.Unlock()

	if exists {
		r.log.Warn("Overwriting existing handler", "target_system", targetSystem)
	}
	r.log.Info("Registered handler", "target_system", targetSystem)

	return nil
}

// Systems returns the registered target-system tags.
func (r *Router) Systems() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	systems := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		systems = append(systems, name)
	}
	return systems
}

// Route dispatches cmd to the handler registered for its target system.
// An unknown system yields a *command.RoutingError; a handler failure is
// wrapped in a *command.HandlerError so callers see a uniform error shape
// regardless of which handler failed.
func (r *Router) Route(ctx context.Context, cmd command.Command) (command.Response, error) {
	r.mu.RLock()
	h, ok := r.handlers[cmd.TargetSystem]
	r.mu.RUnlock()

	if !ok {
		err := &command.RoutingError{TargetSystem: cmd.TargetSystem}
		r.log.Error("No handler found", "target_system", cmd.TargetSystem)
		return nil, err
	}

	resp, err := h.Handle(ctx, cmd)
	if err != nil {
		r.log.Error("Handler failed", "target_system", cmd.TargetSystem, "error", err)
		return nil, &command.HandlerError{TargetSystem: cmd.TargetSystem, Err: err}
	}

	r.log.Info("Routed command", "command_type", cmd.Type, "target_system", cmd.TargetSystem)
	return resp, nil
}
