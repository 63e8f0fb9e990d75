package router

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"shadownexus/pkg/command"
	"shadownexus/pkg/handler"
)

func staticHandler(resp command.Response, err error) handler.Factory {
	return func() (handler.Handler, error) {
		return handler.Func(func(context.Context, command.Command) (command.Response, error) {
			return resp, err
		}), nil
	}
}

func TestRouteDispatchesToHandler(t *testing.T) {
	r := New(slog.New(slog.DiscardHandler))

	want := command.Response{"status": "success"}
	if err := r.Register("system", staticHandler(want, nil)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	resp, err := r.Route(context.Background(), command.Command{Type: "status", TargetSystem: "system"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if resp["status"] != "success" {
		t.Fatalf("response = %v, want status success", resp)
	}
}

func TestRouteUnknownSystem(t *testing.T) {
	r := New(slog.New(slog.DiscardHandler))

	_, err := r.Route(context.Background(), command.Command{TargetSystem: "ghost"})
	var routingErr *command.RoutingError
	if !errors.As(err, &routingErr) {
		t.Fatalf("err = %v, want *command.RoutingError", err)
	}
	if routingErr.TargetSystem != "ghost" {
		t.Fatalf("TargetSystem = %q, want %q", routingErr.TargetSystem, "ghost")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("error should name the missing system: %v", err)
	}
}

func TestRouteWrapsHandlerFailure(t *testing.T) {
	r := New(slog.New(slog.DiscardHandler))

	cause := errors.New("session expired")
	if err := r.Register("telegram", staticHandler(nil, cause)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := r.Route(context.Background(), command.Command{TargetSystem: "telegram"})
	var handlerErr *command.HandlerError
	if !errors.As(err, &handlerErr) {
		t.Fatalf("err = %v, want *command.HandlerError", err)
	}
	if handlerErr.TargetSystem != "telegram" {
		t.Fatalf("TargetSystem = %q, want %q", handlerErr.TargetSystem, "telegram")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should preserve the cause")
	}
	if !strings.Contains(err.Error(), "session expired") {
		t.Fatalf("error should carry the original message: %v", err)
	}
}

func TestRegisterOverwriteWarnsAndLastWriterWins(t *testing.T) {
	var buf bytes.Buffer
	r := New(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := r.Register("x", staticHandler(command.Response{"from": "first"}, nil)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("x", staticHandler(command.Response{"from": "second"}, nil)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !strings.Contains(buf.String(), "Overwriting existing handler") {
		t.Fatal("expected an overwrite warning in the log")
	}

	resp, err := r.Route(context.Background(), command.Command{TargetSystem: "x"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if resp["from"] != "second" {
		t.Fatalf("response = %v, want the second registration to win", resp)
	}
}

func TestRegisterFactoryFailure(t *testing.T) {
	r := New(slog.New(slog.DiscardHandler))

	boom := errors.New("no token configured")
	err := r.Register("telegram", func() (handler.Handler, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want factory failure", err)
	}

	if _, routeErr := r.Route(context.Background(), command.Command{TargetSystem: "telegram"}); routeErr == nil {
		t.Fatal("failed registration must not leave a handler behind")
	}
}

func TestSystems(t *testing.T) {
	r := New(slog.New(slog.DiscardHandler))

	_ = r.Register("a", staticHandler(nil, nil))
	_ = r.Register("b", staticHandler(nil, nil))

	systems := r.Systems()
	if len(systems) != 2 {
		t.Fatalf("Systems() = %v, want 2 entries", systems)
	}
}
