package dnsbench

import (
	"context"
	"time"
)

// AttemptFunc executes a single probe attempt resolving the domain.
type AttemptFunc func(ctx context.Context, domain string) Outcome

// RetryPolicy controls how many attempts a single probe takes.
//
// Attempts are independent and have a fixed timeout, there is no backoff between them. The probe stops
// after MaxRetries attempts or after the first successful attempt with latency lower or equal to Threshold,
// whatever comes first. The fastest successful attempt is the result of the probe.
type RetryPolicy struct {
	MaxRetries int
	Threshold  time.Duration
	Timeout    time.Duration
}

// DefaultRetryPolicy returns policy with default values.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		Threshold:  DefaultRetryThreshold,
		Timeout:    DefaultTimeout,
	}
}

// Measure probes the domain using the attempt function and returns the best outcome together with
// the number of attempts executed.
func (p RetryPolicy) Measure(ctx context.Context, attempt AttemptFunc, domain string) (Outcome, int) {
	best := failedOutcome(nil)
	attempts := 0
	for attempts < p.MaxRetries {
		if err := ctx.Err(); err != nil {
			if !best.Success && best.Err == nil {
				best.Err = err
			}
			break
		}
		attempts++

		o := p.attempt(ctx, attempt, domain)
		if !o.Success {
			if !best.Success {
				best = o
			}
			continue
		}
		if !best.Success || o.LatencyMs < best.LatencyMs {
			best = o
		}
		if o.LatencyMs <= p.Threshold.Milliseconds() {
			break
		}
	}
	return best, attempts
}

func (p RetryPolicy) attempt(ctx context.Context, attempt AttemptFunc, domain string) Outcome {
	actx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	o := attempt(actx, domain)
	if !o.Success {
		return failedOutcome(o.Err)
	}
	if p.Timeout > 0 && o.LatencyMs > p.Timeout.Milliseconds() {
		// adapters with their own timers may return late answers
		return failedOutcome(context.DeadlineExceeded)
	}
	return o
}
