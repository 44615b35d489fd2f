package dnsbench

import (
	"time"
)

// Outcome is a result of a single probe attempt.
type Outcome struct {
	// Address resolved by the attempt, empty if the attempt failed.
	Address string
	// LatencyMs is a latency of the attempt in milliseconds, FailedLatency if the attempt failed.
	LatencyMs int64
	Success   bool
	Err       error
}

func failedOutcome(err error) Outcome {
	return Outcome{LatencyMs: FailedLatency, Err: err}
}

func successOutcome(addr string, elapsed time.Duration) Outcome {
	return Outcome{Address: addr, LatencyMs: elapsed.Milliseconds(), Success: true}
}

// Result is the best outcome of a probe of a single domain using a single method.
type Result struct {
	Outcome
	Method Method
	Domain string
	// Attempts is a number of attempts the probe needed.
	Attempts int
}

// ResultStats is a representation of results of single resolver method.
type ResultStats struct {
	Method Method
	// Results of the probes in the order the domains were probed.
	Results []Result
	// Err is set, when the method could not be probed at all.
	Err error
}

func (rs *ResultStats) record(r Result) {
	rs.Results = append(rs.Results, r)
}
