package reporter

import (
	"encoding/json"
	"time"
)

type jsonReporter struct{}

type histogramPoint struct {
	LatencyMs int64 `json:"latencyMs"`
	Count     int64 `json:"count"`
}

type jsonProbe struct {
	Domain    string `json:"domain"`
	Address   string `json:"address"`
	LatencyMs int64  `json:"latencyMs"`
	Success   bool   `json:"success"`
	Attempts  int    `json:"attempts"`
	Error     string `json:"error,omitempty"`
}

// jsonSummary reports latencies as null, when the method has no successful probe.
type jsonSummary struct {
	Resolver  string      `json:"resolver"`
	Location  string      `json:"location,omitempty"`
	Method    string      `json:"method"`
	Address   string      `json:"address"`
	AvgMs     *float64    `json:"avgMs"`
	MinMs     *float64    `json:"minMs"`
	MaxMs     *float64    `json:"maxMs"`
	P50Ms     *float64    `json:"p50Ms"`
	P95Ms     *float64    `json:"p95Ms"`
	Successes int         `json:"successes"`
	Failures  int         `json:"failures"`
	Missing   int         `json:"missing,omitempty"`
	Error     string      `json:"error,omitempty"`
	Probes    []jsonProbe `json:"probes"`
}

type jsonResult struct {
	BenchmarkDurationSeconds float64          `json:"benchmarkDurationSeconds"`
	TotalProbes              int              `json:"totalProbes"`
	TotalFailures            int              `json:"totalFailures"`
	Domains                  []string         `json:"domains"`
	Summaries                []jsonSummary    `json:"summaries"`
	LatencyDistribution      []histogramPoint `json:"latencyDistribution,omitempty"`
}

func (s *jsonReporter) print(params reportParameters) error {
	var res []histogramPoint

	if params.benchmark.HistDisplay {
		dist := params.hist.Distribution()
		for _, d := range dist {
			if d.Count == 0 {
				continue
			}
			res = append(res, histogramPoint{
				LatencyMs: roundDuration(time.Duration(d.To/2 + d.From/2)).Milliseconds(),
				Count:     d.Count,
			})
		}

		var dedupRes []histogramPoint
		for _, r := range res {
			if i := len(dedupRes) - 1; i >= 0 && dedupRes[i].LatencyMs == r.LatencyMs {
				dedupRes[i].Count += r.Count
				continue
			}
			dedupRes = append(dedupRes, r)
		}
		res = dedupRes
	}

	result := jsonResult{
		BenchmarkDurationSeconds: roundDuration(params.benchmarkDuration).Seconds(),
		Domains:                  params.benchmark.Domains,
		Summaries:                make([]jsonSummary, 0, len(params.summaries)),
		LatencyDistribution:      res,
	}
	for _, sm := range params.summaries {
		result.TotalProbes += len(sm.Results)
		result.TotalFailures += sm.Failures
		result.Summaries = append(result.Summaries, toJSONSummary(sm))
	}

	return json.NewEncoder(params.outputWriter).Encode(result)
}

func toJSONSummary(sm Summary) jsonSummary {
	js := jsonSummary{
		Resolver:  sm.Method.Resolver,
		Location:  sm.Method.Location,
		Method:    sm.Method.Name(),
		Address:   sm.Method.Address,
		Successes: sm.Successes,
		Failures:  sm.Failures,
		Missing:   sm.Missing,
		Probes:    make([]jsonProbe, 0, len(sm.Results)),
	}
	if sm.Err != nil {
		js.Error = sm.Err.Error()
	}
	if sm.Available {
		js.AvgMs = msPtr(sm.AvgMs)
		js.MinMs = msPtr(sm.MinMs)
		js.MaxMs = msPtr(sm.MaxMs)
		js.P50Ms = msPtr(sm.P50Ms)
		js.P95Ms = msPtr(sm.P95Ms)
	}
	for _, r := range sm.Results {
		p := jsonProbe{
			Domain:    r.Domain,
			Address:   matrixAddress(r),
			LatencyMs: matrixLatency(r),
			Success:   r.Success,
			Attempts:  r.Attempts,
		}
		if r.Err != nil {
			p.Error = r.Err.Error()
		}
		js.Probes = append(js.Probes, p)
	}
	return js
}

func msPtr(ms float64) *float64 {
	v := roundMs(ms)
	return &v
}
