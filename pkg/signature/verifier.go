package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// DefaultMaxAge is the default validity window for a signature.
const DefaultMaxAge = 300 * time.Second

// Options tunes signature freshness checks.
type Options struct {
	// MaxAge bounds how old a signature timestamp may be. Zero selects
	// DefaultMaxAge.
	MaxAge time.Duration
	// MaxClockSkew bounds how far in the future a signature timestamp may
	// sit before it is rejected. Zero disables the check and future
	// timestamps are accepted.
	MaxClockSkew time.Duration
}

// Verifier signs messages and validates authenticity tokens. Signatures are
// base64-encoded HMAC-SHA256 digests over "<message>|<timestamp>"; the
// timestamp travels alongside the signature, not inside it, so callers must
// present the same timestamp at verification time.
type Verifier struct {
	log  *slog.Logger
	opts Options
	now  func() time.Time

	mu     sync.RWMutex
	secret []byte
}

// New constructs a verifier with the given shared secret.
func New(secret string, opts Options, log *slog.Logger) *Verifier {
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if log == nil {
		log = slog.Default()
	}

	return &Verifier{
		log:    log.With("component", "signature"),
		opts:   opts,
		now:    time.Now,
		secret: []byte(secret),
	}
}

// Sign computes the signature for message at the given epoch-seconds
// timestamp. A zero timestamp selects the current time; the effective
// timestamp is returned so the caller can transmit it with the signature.
func (v *Verifier) Sign(message string, timestamp float64) (string, float64) {
	if timestamp == 0 {
		timestamp = unixSeconds(v.now())
	}

	v.mu.RLock()
	secret := v.secret
	v.mu.RUnlock()

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	mac.Write([]byte{'|'})
	mac.Write([]byte(formatTimestamp(timestamp)))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), timestamp
}

// Verify reports whether sig authenticates message for the given timestamp.
// A non-zero timestamp is checked for freshness against MaxAge and, when
// MaxClockSkew is configured, against future drift. Comparison is constant
// time; malformed input yields false, never a panic or error.
func (v *Verifier) Verify(message, sig string, timestamp float64) bool {
	if timestamp != 0 {
		age := unixSeconds(v.now()) - timestamp
		if age > v.opts.MaxAge.Seconds() {
			v.log.Warn("Signature has expired", "age_seconds", age)
			return false
		}
		if v.opts.MaxClockSkew > 0 && -age > v.opts.MaxClockSkew.Seconds() {
			v.log.Warn("Signature timestamp is in the future", "skew_seconds", -age)
			return false
		}
	}

	expected, _ := v.Sign(message, timestamp)
	valid := hmac.Equal([]byte(sig), []byte(expected))
	if !valid {
		v.log.Warn("Invalid signature detected")
	}

	return valid
}

// SetSecret replaces the shared secret. Signatures issued under the old
// secret stop verifying immediately; the freshness window logic is
// unaffected.
func (v *Verifier) SetSecret(secret string) {
	v.mu.Lock()
	v.secret = []byte(secret)
	v.mu.Unlock()
	v.log.Info("Updated secret key")
}

func formatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', -1, 64)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
