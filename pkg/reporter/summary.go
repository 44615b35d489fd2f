package reporter

import (
	"errors"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/montanaflynn/stats"

	"github.com/tantalor93/dnsmatrix/pkg/dnsbench"
)

// ErrMissingResult is set on results substituted for (method, domain) pairs, which were not probed.
var ErrMissingResult = errors.New("no result for the domain")

// Summary is an aggregated view of results of a single resolver method.
type Summary struct {
	Method dnsbench.Method

	// Results has exactly one element per domain of the benchmark, in the order of the domains.
	Results []dnsbench.Result

	// Available is false, when the method has no successful probe. Latency statistics are zero then
	// and are reported as unavailable.
	Available bool
	AvgMs     float64
	MinMs     float64
	MaxMs     float64
	P50Ms     float64
	P95Ms     float64

	Successes int
	Failures  int
	// Missing is a number of domains with no result of the method, those are not counted as failures.
	Missing int

	// Err is set when the method could not be probed at all.
	Err error
}

// Successful returns latencies of successful probes of the method.
func (s Summary) Successful() []float64 {
	var latencies []float64
	for _, r := range s.Results {
		if r.Success {
			latencies = append(latencies, float64(r.LatencyMs))
		}
	}
	return latencies
}

// Summarize groups results by resolver method. One summary is returned per method, in the order of methods,
// no matter in which order the stats are supplied. Results of every summary are aligned to domains,
// pairs without a result are substituted by a failed result carrying ErrMissingResult.
func Summarize(methods []dnsbench.Method, domains []string, resultStats []*dnsbench.ResultStats) []Summary {
	byMethod := make(map[dnsbench.Method][]*dnsbench.ResultStats, len(resultStats))
	for _, rs := range resultStats {
		if rs == nil {
			continue
		}
		byMethod[rs.Method] = append(byMethod[rs.Method], rs)
	}

	summaries := make([]Summary, 0, len(methods))
	for _, m := range methods {
		summaries = append(summaries, summarize(m, domains, byMethod[m]))
	}
	return summaries
}

func summarize(m dnsbench.Method, domains []string, resultStats []*dnsbench.ResultStats) Summary {
	s := Summary{Method: m, Results: make([]dnsbench.Result, 0, len(domains))}

	// domains may repeat, so results of the same domain are matched in the order they were recorded
	queues := make(map[string][]dnsbench.Result)
	for _, rs := range resultStats {
		if rs.Err != nil && s.Err == nil {
			s.Err = rs.Err
		}
		for _, r := range rs.Results {
			queues[r.Domain] = append(queues[r.Domain], r)
		}
	}

	for _, d := range domains {
		q := queues[d]
		if len(q) == 0 {
			s.Results = append(s.Results, missingResult(m, d))
			s.Missing++
			continue
		}
		r := q[0]
		queues[d] = q[1:]

		s.Results = append(s.Results, r)
		if r.Success {
			s.Successes++
		} else {
			s.Failures++
		}
	}

	latencies := stats.Float64Data(s.Successful())
	if len(latencies) == 0 {
		return s
	}
	s.Available = true
	s.AvgMs, _ = latencies.Mean()
	s.MinMs, _ = latencies.Min()
	s.MaxMs, _ = latencies.Max()
	s.P50Ms, _ = latencies.Percentile(50)
	s.P95Ms, _ = latencies.Percentile(95)
	return s
}

func missingResult(m dnsbench.Method, domain string) dnsbench.Result {
	return dnsbench.Result{
		Outcome: dnsbench.Outcome{LatencyMs: dnsbench.FailedLatency, Err: ErrMissingResult},
		Method:  m,
		Domain:  domain,
	}
}

// latencyHistogram creates histogram of latencies of all successful probes, values are recorded in nanoseconds.
func latencyHistogram(summaries []Summary, highest time.Duration) *hdrhistogram.Histogram {
	var maxMs float64
	for _, s := range summaries {
		if s.Available && s.MaxMs > maxMs {
			maxMs = s.MaxMs
		}
	}
	if h := time.Duration(maxMs) * time.Millisecond; h > highest {
		highest = h
	}
	if highest <= 0 {
		highest = dnsbench.DefaultTimeout
	}

	hist := hdrhistogram.New(int64(time.Microsecond), int64(highest), dnsbench.DefaultHistPrecision)
	for _, s := range summaries {
		for _, l := range s.Successful() {
			_ = hist.RecordValue(int64(time.Duration(l) * time.Millisecond))
		}
	}
	return hist
}

type errorCount struct {
	err   string
	count int
}

// topErrors returns up to n most frequent errors of failed probes, most frequent first.
func topErrors(summaries []Summary, n int) ([]errorCount, int) {
	grouped := make(map[string]int)
	var order []string
	total := 0
	for _, s := range summaries {
		for _, r := range s.Results {
			if r.Success || r.Err == nil {
				continue
			}
			k := r.Err.Error()
			if _, ok := grouped[k]; !ok {
				order = append(order, k)
			}
			grouped[k]++
			total++
		}
	}

	var top []errorCount
	picked := make(map[string]struct{})
	for i := 0; i < n; i++ {
		maxerr := 0
		maxerrstr := ""
		for _, k := range order {
			if _, ok := picked[k]; grouped[k] > maxerr && !ok {
				maxerrstr = k
				maxerr = grouped[k]
			}
		}
		if maxerr == 0 {
			break
		}
		picked[maxerrstr] = struct{}{}
		top = append(top, errorCount{err: maxerrstr, count: maxerr})
	}
	return top, total
}
