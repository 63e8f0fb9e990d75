package handler

import (
	"context"

	"shadownexus/pkg/command"
)

// Handler performs the actual effect of a command for one target system.
// Implementations own their connection and session lifecycle; the router
// treats them as opaque.
type Handler interface {
	Handle(ctx context.Context, cmd command.Command) (command.Response, error)
}

// Func adapts a plain function to the Handler interface.
type Func func(ctx context.Context, cmd command.Command) (command.Response, error)

func (f Func) Handle(ctx context.Context, cmd command.Command) (command.Response, error) {
	return f(ctx, cmd)
}

// Factory constructs a handler. The router invokes a factory exactly once,
// at registration time, so expensive setup (bot sessions, connection pools)
// happens once and the instance lives for the registry's lifetime.
type Factory func() (Handler, error)
