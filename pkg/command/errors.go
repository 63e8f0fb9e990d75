package command

import "fmt"

// RoutingError reports that no handler is registered for a command's target
// system. This is a configuration bug for that command, not a retryable
// condition.
type RoutingError struct {
	TargetSystem string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("no handler registered for system: %s", e.TargetSystem)
}

// HandlerError wraps a failure raised by a downstream handler so that callers
// see a uniform error shape regardless of which handler failed.
type HandlerError struct {
	TargetSystem string
	Err          error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler for %s failed: %v", e.TargetSystem, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// AuthError reports a rejected command signature: a missing timestamp, an
// expired signature, or a digest mismatch.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("signature rejected: %s", e.Reason)
}
