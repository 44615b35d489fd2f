package reporter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tantalor93/dnsmatrix/pkg/dnsbench"
)

func success(m dnsbench.Method, domain, addr string, latency int64) dnsbench.Result {
	return dnsbench.Result{
		Outcome:  dnsbench.Outcome{Address: addr, LatencyMs: latency, Success: true},
		Method:   m,
		Domain:   domain,
		Attempts: 1,
	}
}

func failure(m dnsbench.Method, domain string, err error) dnsbench.Result {
	return dnsbench.Result{
		Outcome:  dnsbench.Outcome{LatencyMs: dnsbench.FailedLatency, Err: err},
		Method:   m,
		Domain:   domain,
		Attempts: dnsbench.DefaultMaxRetries,
	}
}

func testMethods() []dnsbench.Method {
	return dnsbench.Methods([]dnsbench.Resolver{
		{Name: "Cloudflare", Location: "Global", IPv4: []string{"1.1.1.1"}, DoH: []string{"https://cloudflare-dns.com/dns-query"}},
		{Name: "Test", IPv4: []string{"203.0.113.1"}},
	})
}

func TestSummarize_unavailableResolver(t *testing.T) {
	methods := dnsbench.Methods([]dnsbench.Resolver{{Name: "Test", IPv4: []string{"203.0.113.1"}}})
	domains := []string{"example.com"}
	stats := []*dnsbench.ResultStats{
		{Method: methods[0], Results: []dnsbench.Result{failure(methods[0], "example.com", context.DeadlineExceeded)}},
	}

	summaries := Summarize(methods, domains, stats)

	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, 1, s.Failures)
	assert.Equal(t, 0, s.Successes)
	assert.Equal(t, 0, s.Missing)
	assert.False(t, s.Available)
	assert.Zero(t, s.AvgMs)
	assert.Equal(t, []string{"Test", "IPv4", "203.0.113.1", "-", "-1"}, MatrixRow(s))
}

func TestSummarize_statistics(t *testing.T) {
	methods := testMethods()
	m := methods[0]
	domains := []string{"a.com", "b.com", "c.com", "d.com"}
	stats := []*dnsbench.ResultStats{
		{Method: m, Results: []dnsbench.Result{
			success(m, "a.com", "1.2.3.4", 10),
			success(m, "b.com", "1.2.3.5", 20),
			failure(m, "c.com", errors.New("i/o timeout")),
			success(m, "d.com", "1.2.3.6", 60),
		}},
	}

	summaries := Summarize(methods, domains, stats)

	require.Len(t, summaries, len(methods))
	s := summaries[0]
	assert.True(t, s.Available)
	assert.Equal(t, 3, s.Successes)
	assert.Equal(t, 1, s.Failures)
	assert.InDelta(t, 30.0, s.AvgMs, 0.001)
	assert.InDelta(t, 10.0, s.MinMs, 0.001)
	assert.InDelta(t, 60.0, s.MaxMs, 0.001)
	assert.Equal(t, []float64{10, 20, 60}, s.Successful())
}

func TestSummarize_noAddressCountsAsSuccess(t *testing.T) {
	methods := testMethods()
	m := methods[1]
	require.Equal(t, dnsbench.DoH, m.Kind)
	stats := []*dnsbench.ResultStats{
		{Method: m, Results: []dnsbench.Result{success(m, "example.com", dnsbench.NoAnswerAddress, 42)}},
	}

	summaries := Summarize(methods, []string{"example.com"}, stats)

	s := summaries[1]
	assert.True(t, s.Available)
	assert.Equal(t, 0, s.Failures)
	assert.InDelta(t, 42.0, s.AvgMs, 0.001)
	assert.Equal(t, []string{"Cloudflare", "DoH", "https://cloudflare-dns.com/dns-query", "N/A", "42"}, MatrixRow(s))
}

func TestSummarize_orderFollowsMethods(t *testing.T) {
	methods := testMethods()
	domains := []string{"example.com"}
	var stats []*dnsbench.ResultStats
	for i := len(methods) - 1; i >= 0; i-- {
		m := methods[i]
		stats = append(stats, &dnsbench.ResultStats{Method: m, Results: []dnsbench.Result{success(m, "example.com", "1.2.3.4", int64(i))}})
	}

	summaries := Summarize(methods, domains, stats)

	require.Len(t, summaries, len(methods))
	for i, s := range summaries {
		assert.Equal(t, methods[i], s.Method)
		assert.InDelta(t, float64(i), s.AvgMs, 0.001)
	}
}

func TestSummarize_missingPairs(t *testing.T) {
	methods := testMethods()
	m := methods[0]
	domains := []string{"a.com", "b.com", "c.com"}
	stats := []*dnsbench.ResultStats{
		nil,
		{Method: m, Results: []dnsbench.Result{
			success(m, "c.com", "1.2.3.4", 5),
			success(m, "unknown.com", "1.2.3.5", 7),
		}},
	}

	summaries := Summarize(methods, domains, stats)

	require.Len(t, summaries, len(methods))
	s := summaries[0]
	require.Len(t, s.Results, len(domains))
	assert.Equal(t, 2, s.Missing)
	assert.Equal(t, 0, s.Failures)
	assert.Equal(t, 1, s.Successes)
	assert.ErrorIs(t, s.Results[0].Err, ErrMissingResult)
	assert.Equal(t, "c.com", s.Results[2].Domain)
	assert.Equal(t, []string{"Cloudflare", "IPv4", "1.1.1.1", "-", "-1", "-", "-1", "1.2.3.4", "5"}, MatrixRow(s))

	// methods without any stats are reported as entirely missing
	for _, other := range summaries[1:] {
		assert.Equal(t, len(domains), other.Missing)
		assert.False(t, other.Available)
	}
}

func TestSummarize_duplicateDomains(t *testing.T) {
	methods := testMethods()
	m := methods[0]
	domains := []string{"a.com", "a.com"}
	stats := []*dnsbench.ResultStats{
		{Method: m, Results: []dnsbench.Result{
			success(m, "a.com", "1.2.3.4", 5),
			failure(m, "a.com", errors.New("refused")),
		}},
	}

	summaries := Summarize(methods, domains, stats)

	s := summaries[0]
	assert.Equal(t, 0, s.Missing)
	assert.Equal(t, 1, s.Successes)
	assert.Equal(t, 1, s.Failures)
	assert.True(t, s.Results[0].Success)
	assert.False(t, s.Results[1].Success)
}

func TestSummarize_methodError(t *testing.T) {
	methods := testMethods()
	m := methods[2]
	err := errors.New("invalid nameserver address")
	stats := []*dnsbench.ResultStats{
		{Method: m, Err: err, Results: []dnsbench.Result{failure(m, "a.com", err)}},
	}

	summaries := Summarize(methods, []string{"a.com"}, stats)

	assert.Equal(t, err, summaries[2].Err)
	assert.Equal(t, 1, summaries[2].Failures)
}

func Test_topErrors(t *testing.T) {
	methods := testMethods()
	m := methods[0]
	timeout := errors.New("i/o timeout")
	refused := errors.New("connection refused")
	summaries := Summarize(methods, []string{"a.com", "b.com", "c.com", "d.com"}, []*dnsbench.ResultStats{
		{Method: m, Results: []dnsbench.Result{
			failure(m, "a.com", refused),
			failure(m, "b.com", timeout),
			failure(m, "c.com", timeout),
			success(m, "d.com", "1.2.3.4", 5),
		}},
	})

	// all other methods are missing every domain
	top, total := topErrors(summaries, 2)

	require.Len(t, top, 2)
	assert.Equal(t, ErrMissingResult.Error(), top[0].err)
	assert.Equal(t, 8, top[0].count)
	assert.Equal(t, "i/o timeout", top[1].err)
	assert.Equal(t, 2, top[1].count)
	assert.Equal(t, 11, total)
}

func Test_latencyHistogram(t *testing.T) {
	methods := testMethods()
	m := methods[0]
	summaries := Summarize(methods, []string{"a.com", "b.com"}, []*dnsbench.ResultStats{
		{Method: m, Results: []dnsbench.Result{
			success(m, "a.com", "1.2.3.4", 10),
			success(m, "b.com", "1.2.3.4", 5000),
		}},
	})

	hist := latencyHistogram(summaries, dnsbench.DefaultTimeout)

	assert.Equal(t, int64(2), hist.TotalCount())
}
