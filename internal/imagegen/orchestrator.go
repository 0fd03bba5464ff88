package imagegen

import (
	"context"
	"fmt"
	"time"

	"mixologue-backend/internal/metrics"

	"go.uber.org/zap"
)

// Attempt records what happened to one provider during a request.
type Attempt struct {
	Provider string        `json:"provider"`
	Success  bool          `json:"success"`
	Reason   Reason        `json:"reason,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Elapsed  time.Duration `json:"-"`
}

// Outcome is the terminal state of a chain run. Default is true when every
// provider failed and Ref is the bundled placeholder.
type Outcome struct {
	Ref      string    `json:"image_url"`
	Provider string    `json:"provider,omitempty"`
	Default  bool      `json:"is_default"`
	Attempts []Attempt `json:"attempts"`
}

// ProviderStatus describes one link of the chain for status reporting.
type ProviderStatus struct {
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	Available bool   `json:"available"`
}

// Orchestrator tries providers in priority order until one produces an image.
// It holds no mutable state and is safe for concurrent use.
type Orchestrator struct {
	providers  []Provider
	defaultRef string
	timeout    time.Duration
	log        *zap.Logger
}

// NewOrchestrator fixes the provider order for the lifetime of the process.
// timeout bounds each provider call.
func NewOrchestrator(providers []Provider, defaultRef string, timeout time.Duration, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	chain := make([]Provider, len(providers))
	copy(chain, providers)
	return &Orchestrator{
		providers:  chain,
		defaultRef: defaultRef,
		timeout:    timeout,
		log:        log,
	}
}

// DefaultRef is the asset returned when the chain is exhausted.
func (o *Orchestrator) DefaultRef() string {
	return o.defaultRef
}

// Timeout is the per-provider bound. A whole run takes at most
// len(providers) * Timeout.
func (o *Orchestrator) Timeout() time.Duration {
	return o.timeout
}

// Status lists the chain in priority order (1-based).
func (o *Orchestrator) Status() []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(o.providers))
	for i, p := range o.providers {
		statuses = append(statuses, ProviderStatus{
			Name:      p.Name(),
			Priority:  i + 1,
			Available: p.Available(),
		})
	}
	return statuses
}

// GenerateImage builds the prompt once and walks the chain. It never fails:
// when no provider succeeds the default asset is returned.
func (o *Orchestrator) GenerateImage(ctx context.Context, c Cocktail) Outcome {
	prompt := BuildPrompt(c)
	out := Outcome{Attempts: make([]Attempt, 0, len(o.providers))}

	for i, p := range o.providers {
		if err := ctx.Err(); err != nil {
			for _, rest := range o.providers[i:] {
				out.Attempts = append(out.Attempts, Attempt{
					Provider: rest.Name(),
					Reason:   ReasonSkipped,
					Detail:   err.Error(),
				})
			}
			break
		}

		name := p.Name()
		if !p.Available() {
			metrics.ImageProviderAttempts.WithLabelValues(name, string(ReasonUnavailable)).Inc()
			out.Attempts = append(out.Attempts, Attempt{
				Provider: name,
				Reason:   ReasonUnavailable,
				Detail:   fmt.Sprintf("%s is not configured", name),
			})
			o.log.Debug("Skipping unavailable image provider",
				zap.String("provider", name), zap.Uint("cocktail_id", c.ID))
			continue
		}

		start := time.Now()
		res := o.call(ctx, p, prompt, c.ID)
		elapsed := time.Since(start)
		if res.Success && res.Ref == "" {
			res = failed(ReasonResponse, "provider reported success without an asset reference")
		}

		metrics.ImageProviderDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		outcome := "success"
		if !res.Success {
			outcome = string(res.Reason)
		}
		metrics.ImageProviderAttempts.WithLabelValues(name, outcome).Inc()

		out.Attempts = append(out.Attempts, Attempt{
			Provider: name,
			Success:  res.Success,
			Reason:   res.Reason,
			Detail:   res.Detail,
			Elapsed:  elapsed,
		})

		if res.Success {
			out.Ref = res.Ref
			out.Provider = name
			o.log.Info("Image generated",
				zap.String("provider", name),
				zap.Uint("cocktail_id", c.ID),
				zap.String("ref", res.Ref),
				zap.Duration("latency", elapsed))
			return out
		}

		o.log.Warn("Image provider failed",
			zap.String("provider", name),
			zap.Uint("cocktail_id", c.ID),
			zap.String("reason", string(res.Reason)),
			zap.String("detail", res.Detail),
			zap.Duration("latency", elapsed))
	}

	out.Ref = o.defaultRef
	out.Default = true
	metrics.ImageFallbackExhausted.Inc()

	failures := make([]string, 0, len(out.Attempts))
	for _, a := range out.Attempts {
		failures = append(failures, fmt.Sprintf("%s: %s", a.Provider, a.Reason))
	}
	o.log.Warn("Image chain exhausted, using default asset",
		zap.Uint("cocktail_id", c.ID),
		zap.Strings("failures", failures),
		zap.String("ref", o.defaultRef))
	return out
}

// call runs one provider under the per-provider deadline. A provider that
// ignores its context is abandoned when the deadline passes.
func (o *Orchestrator) call(ctx context.Context, p Provider, prompt string, cocktailID uint) Result {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- failed(ReasonResponse, "provider panicked: %v", r)
			}
		}()
		done <- p.Generate(callCtx, prompt, cocktailID)
	}()

	select {
	case res := <-done:
		return res
	case <-callCtx.Done():
		select {
		case res := <-done:
			return res
		default:
		}
		return failed(ReasonTransport, "no answer within %s: %v", o.timeout, callCtx.Err())
	}
}
