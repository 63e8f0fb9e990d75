package command

import "strconv"

// Command is a structured instruction extracted from free text. It names an
// action, the subsystem that should perform it, and an arbitrary JSON payload.
// A Command is immutable once constructed; the payload map is owned by the
// Command and must not be mutated by handlers.
type Command struct {
	Type         string         `json:"command_type"`
	TargetSystem string         `json:"target_system"`
	Payload      map[string]any `json:"payload"`
	Signature    string         `json:"signature,omitempty"`
	Timestamp    float64        `json:"timestamp,omitempty"`
}

// Signed reports whether the command carries an authenticity token.
func (c Command) Signed() bool {
	return c.Signature != ""
}

// CacheKey derives the processor cache key for this command.
func (c Command) CacheKey() string {
	return c.Type + "_" + c.TargetSystem + "_" + formatTimestamp(c.Timestamp)
}

func formatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', -1, 64)
}

// Response is the open-ended result map a handler returns. The router does
// not validate its shape beyond requiring that the handler returns one.
type Response map[string]any

// ParseMetadata describes one extraction attempt. It is produced for every
// processed message, whether or not a command was found, and is never
// persisted.
type ParseMetadata struct {
	Timestamp    float64 `json:"timestamp"`
	Length       int     `json:"length"`
	HasCommand   bool    `json:"has_command"`
	Type         string  `json:"command_type,omitempty"`
	TargetSystem string  `json:"target_system,omitempty"`
}
