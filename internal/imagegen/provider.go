package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider wraps one external image-generation service.
type Provider interface {
	Name() string
	// Available reports whether the provider is configured. It must not touch
	// the network.
	Available() bool
	// Generate makes a single attempt. It never retries.
	Generate(ctx context.Context, prompt string, cocktailID uint) Result
}

// Reason classifies a failed attempt for logs and metrics. The orchestrator
// treats every reason the same way.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonUnavailable Reason = "unavailable"
	ReasonQuota       Reason = "quota/auth error"
	ReasonTransport   Reason = "transient network error"
	ReasonResponse    Reason = "malformed response"
	ReasonSkipped     Reason = "not attempted"
)

var (
	ErrUnavailable = errors.New("image provider unavailable")
	ErrQuota       = errors.New("image provider rejected credentials or quota")
	ErrTransport   = errors.New("image provider unreachable")
	ErrResponse    = errors.New("image provider returned an unusable response")
)

// Result is the outcome of one Generate call.
type Result struct {
	Success bool
	Ref     string
	Reason  Reason
	Detail  string
}

// Err returns the sentinel error matching the failure reason, wrapping Detail.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	var base error
	switch r.Reason {
	case ReasonUnavailable, ReasonSkipped:
		base = ErrUnavailable
	case ReasonQuota:
		base = ErrQuota
	case ReasonTransport:
		base = ErrTransport
	default:
		base = ErrResponse
	}
	if r.Detail == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, r.Detail)
}

func succeeded(ref string) Result {
	return Result{Success: true, Ref: ref}
}

func failed(reason Reason, format string, args ...interface{}) Result {
	return Result{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func unavailable(name string) Result {
	return failed(ReasonUnavailable, "%s is not configured", name)
}

// transportFailure maps an error from http.Client.Do.
func transportFailure(err error) Result {
	if isTimeout(err) {
		return failed(ReasonTransport, "request timed out: %v", err)
	}
	return failed(ReasonTransport, "request failed: %v", err)
}

// statusFailure maps a non-2xx status to a reason.
func statusFailure(status int, body []byte) Result {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired, http.StatusTooManyRequests:
		return failed(ReasonQuota, "status %d: %s", status, truncate(string(body), 300))
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return failed(ReasonTransport, "status %d: %s", status, truncate(string(body), 300))
	}
	return failed(ReasonResponse, "status %d: %s", status, truncate(string(body), 300))
}

// isTimeout reports whether err came from a deadline or a network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var placeholderPrefixes = []string{"your_", "your-", "changeme", "change-me", "xxx", "<", "sk-xxx", "todo"}

// credentialPresent rejects empty values and the placeholders left in sample
// .env files.
func credentialPresent(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(v, p) {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}

// assetName builds a unique file name for a generated image.
func assetName(source string, cocktailID uint, ext string) string {
	return fmt.Sprintf("cocktail_%d_%s_%s_%s%s", cocktailID, source,
		time.Now().Format("20060102_150405"), uuid.New().String()[:8], ext)
}
