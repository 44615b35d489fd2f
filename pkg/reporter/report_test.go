package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tantalor93/dnsmatrix/pkg/dnsbench"
)

func testReportData() (*dnsbench.Benchmark, []*dnsbench.ResultStats) {
	b := &dnsbench.Benchmark{
		Resolvers: []dnsbench.Resolver{
			{Name: "Cloudflare", Location: "Global", IPv4: []string{"1.1.1.1"}, DoH: []string{"https://cloudflare-dns.com/dns-query"}},
			{Name: "Test", IPv4: []string{"203.0.113.1"}},
		},
		Domains: []string{"example.com", "example.org"},
		Timeout: dnsbench.DefaultTimeout,
	}
	methods := b.Methods()
	stats := []*dnsbench.ResultStats{
		{Method: methods[0], Results: []dnsbench.Result{
			success(methods[0], "example.com", "93.184.216.34", 12),
			success(methods[0], "example.org", "93.184.216.35", 18),
		}},
		{Method: methods[1], Results: []dnsbench.Result{
			success(methods[1], "example.com", "93.184.216.34", 120),
			success(methods[1], "example.org", dnsbench.NoAnswerAddress, 80),
		}},
		{Method: methods[2], Results: []dnsbench.Result{
			failure(methods[2], "example.com", context.DeadlineExceeded),
			failure(methods[2], "example.org", context.DeadlineExceeded),
		}},
	}
	return b, stats
}

func TestPrintReport_standard(t *testing.T) {
	b, stats := testReportData()
	buf := bytes.Buffer{}
	b.Writer = &buf
	b.HistDisplay = true
	b.Csv = filepath.Join(t.TempDir(), "results.csv")

	err := PrintReport(b, stats, 5*time.Second)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Total probes:")
	assert.Contains(t, out, "Time taken for probes:")
	assert.Contains(t, out, "Cloudflare")
	assert.Contains(t, out, "203.0.113.1")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "DNS distribution")
	assert.Contains(t, out, "context deadline exceeded")
	assert.Contains(t, out, "Detailed results saved to")

	csv, err := os.ReadFile(b.Csv)
	require.NoError(t, err)
	assert.Equal(t, "DNS Name,Method,Address/URL,example.com_IP,example.com_Latency,example.org_IP,example.org_Latency\n"+
		"Cloudflare,IPv4,1.1.1.1,93.184.216.34,12,93.184.216.35,18\n"+
		"Cloudflare,DoH,https://cloudflare-dns.com/dns-query,93.184.216.34,120,N/A,80\n"+
		"Test,IPv4,203.0.113.1,-,-1,-,-1\n", string(csv))
}

func TestPrintReport_json(t *testing.T) {
	b, stats := testReportData()
	buf := bytes.Buffer{}
	b.Writer = &buf
	b.JSON = true

	err := PrintReport(b, stats, 5*time.Second)

	require.NoError(t, err)
	var res jsonResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.Equal(t, 6, res.TotalProbes)
	assert.Equal(t, 2, res.TotalFailures)
	assert.Equal(t, []string{"example.com", "example.org"}, res.Domains)
	require.Len(t, res.Summaries, 3)

	cf := res.Summaries[0]
	assert.Equal(t, "IPv4", cf.Method)
	require.NotNil(t, cf.AvgMs)
	assert.InDelta(t, 15.0, *cf.AvgMs, 0.001)

	unavailable := res.Summaries[2]
	assert.Nil(t, unavailable.AvgMs)
	assert.Nil(t, unavailable.MinMs)
	assert.Nil(t, unavailable.MaxMs)
	assert.Equal(t, 2, unavailable.Failures)
	require.Len(t, unavailable.Probes, 2)
	assert.Equal(t, "-", unavailable.Probes[0].Address)
	assert.Equal(t, int64(-1), unavailable.Probes[0].LatencyMs)
	assert.Equal(t, "context deadline exceeded", unavailable.Probes[0].Error)
}

func TestPrintReport_silent(t *testing.T) {
	b, stats := testReportData()
	buf := bytes.Buffer{}
	b.Writer = &buf
	b.Silent = true
	b.Csv = filepath.Join(t.TempDir(), "results.csv")

	err := PrintReport(b, stats, time.Second)

	require.NoError(t, err)
	assert.Empty(t, buf.String())
	assert.FileExists(t, b.Csv)
}

func TestPrintReport_plots(t *testing.T) {
	b, stats := testReportData()
	b.Writer = &bytes.Buffer{}
	b.PlotDir = t.TempDir()
	b.PlotFormat = "svg"

	err := PrintReport(b, stats, time.Second)

	require.NoError(t, err)
	dirs, err := os.ReadDir(b.PlotDir)
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	graphs := filepath.Join(b.PlotDir, dirs[0].Name())
	for _, f := range []string{"latency-histogram.svg", "latency-boxplot.svg", "latency-barchart.svg", "outcomes-barchart.svg"} {
		assert.FileExists(t, filepath.Join(graphs, f))
	}
}

func TestPrintReport_invalidPlotDir(t *testing.T) {
	b, stats := testReportData()
	b.Writer = &bytes.Buffer{}
	b.PlotDir = filepath.Join(t.TempDir(), "nonexisting")

	err := PrintReport(b, stats, time.Second)

	assert.ErrorContains(t, err, "does not point to an existing directory")
}

func TestWriteCSV_noMethods(t *testing.T) {
	buf := bytes.Buffer{}

	err := WriteCSV(&buf, []string{"example.com"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "DNS Name,Method,Address/URL,example.com_IP,example.com_Latency\n", buf.String())
}

type closeErrWriter struct {
	bytes.Buffer
	closed bool
}

func (w *closeErrWriter) Close() error {
	w.closed = true
	return errors.New("disk full")
}

func Test_writeAndClose_closeError(t *testing.T) {
	w := closeErrWriter{}

	err := writeAndClose(&w, []string{"example.com"}, nil)

	assert.ErrorContains(t, err, "failed to save CSV export: disk full")
	assert.True(t, w.closed)
	assert.Equal(t, "DNS Name,Method,Address/URL,example.com_IP,example.com_Latency\n", w.String())
}
