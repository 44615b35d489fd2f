package reporter

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/olekukonko/tablewriter"

	"github.com/tantalor93/dnsmatrix/pkg/printutils"
)

type standardReporter struct{}

func (s *standardReporter) print(params reportParameters) error {
	printProgress(params.outputWriter, params.summaries)

	printutils.NeutralFprintf(params.outputWriter, "\nTime taken for probes:\t%s\n",
		printutils.HighlightSprint(roundDuration(params.benchmarkDuration)))
	if secs := params.benchmarkDuration.Seconds(); secs > 0 {
		var total int
		for _, sm := range params.summaries {
			total += len(sm.Results)
		}
		printutils.NeutralFprintf(params.outputWriter, "Probes per second:\t%s\n",
			printutils.HighlightSprintf("%0.1f", float64(total)/secs))
	}

	printutils.NeutralFprintf(params.outputWriter, "\nLatencies per resolver method:\n")
	printSummaries(params.outputWriter, params.summaries)

	if tc := params.hist.TotalCount(); tc > 0 {
		printutils.NeutralFprintf(params.outputWriter, "\nDNS timings, %s datapoints\n", printutils.HighlightSprint(tc))
		printutils.NeutralFprintf(params.outputWriter, "\t min:\t\t%s\n",
			printutils.HighlightSprint(roundDuration(time.Duration(params.hist.Min()))))
		printutils.NeutralFprintf(params.outputWriter, "\t mean:\t\t%s\n",
			printutils.HighlightSprint(roundDuration(time.Duration(params.hist.Mean()))))
		printutils.NeutralFprintf(params.outputWriter, "\t [+/-sd]:\t%s\n",
			printutils.HighlightSprint(roundDuration(time.Duration(params.hist.StdDev()))))
		printutils.NeutralFprintf(params.outputWriter, "\t max:\t\t%s\n",
			printutils.HighlightSprint(roundDuration(time.Duration(params.hist.Max()))))
		printutils.NeutralFprintf(params.outputWriter, "\t p95:\t\t%s\n",
			printutils.HighlightSprint(roundDuration(time.Duration(params.hist.ValueAtQuantile(95)))))
		printutils.NeutralFprintf(params.outputWriter, "\t p50:\t\t%s\n",
			printutils.HighlightSprint(roundDuration(time.Duration(params.hist.ValueAtQuantile(50)))))

		if params.benchmark.HistDisplay && tc > 1 {
			printutils.NeutralFprintf(params.outputWriter, "\nDNS distribution, %s datapoints\n", printutils.HighlightSprint(tc))
			printBars(params.outputWriter, params.hist.Distribution())
		}
	}

	for _, sm := range params.summaries {
		if sm.Err != nil {
			printutils.ErrFprintf(params.outputWriter, "\nUnable to probe %s: %v\n", sm.Method, sm.Err)
		}
	}

	if len(params.topErrs) > 0 {
		printutils.ErrFprintf(params.outputWriter, "\nTotal Errors: %d\n", params.totalErrs)
		printutils.ErrFprintf(params.outputWriter, "Top errors:\n")
		for _, e := range params.topErrs {
			printutils.ErrFprintf(params.outputWriter, "%s\t%d (%.2f)%%\n", e.err, e.count,
				(float64(e.count)/float64(params.totalErrs))*100)
		}
	}

	if params.benchmark.Csv != "" {
		printutils.NeutralFprintf(params.outputWriter, "\nDetailed results saved to %s\n",
			printutils.HighlightSprint(params.benchmark.Csv))
	}
	return nil
}

func printProgress(w io.Writer, summaries []Summary) {
	var total, success, failed, missing int
	for _, s := range summaries {
		total += len(s.Results)
		success += s.Successes
		failed += s.Failures
		missing += s.Missing
	}

	printutils.NeutralFprintf(w, "\nTotal probes:\t\t%s\n", printutils.HighlightSprint(total))
	if success > 0 {
		printutils.SuccessFprintf(w, "Successful probes:\t%d\n", success)
	}
	if failed > 0 {
		printutils.ErrFprintf(w, "Failed probes:\t\t%d\n", failed)
	}
	if missing > 0 {
		printutils.ErrFprintf(w, "Missing probes:\t\t%d\n", missing)
	}
}

func printSummaries(w io.Writer, summaries []Summary) {
	lines := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		lines = append(lines, []string{
			s.Method.Resolver,
			s.Method.Name(),
			s.Method.Address,
			formatLatency(s.AvgMs, s.Available),
			formatLatency(s.MaxMs, s.Available),
			formatLatency(s.MinMs, s.Available),
			formatLatency(s.P95Ms, s.Available),
			strconv.Itoa(s.Failures),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"DNS Name", "Method", "Address/URL", "Avg", "Max", "Min", "P95", "Failures"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.AppendBulk(lines)
	table.Render()
}

func printBars(w io.Writer, bars []hdrhistogram.Bar) {
	counts := make([]int64, 0, len(bars))
	lines := make([][]string, 0, len(bars))
	added := false
	var max int64

	for _, b := range bars {
		if b.Count == 0 && !added {
			// trim the start
			continue
		}
		if b.Count > max {
			max = b.Count
		}

		added = true

		line := make([]string, 3)
		lines = append(lines, line)
		counts = append(counts, b.Count)

		line[0] = roundDuration(time.Duration(b.To/2 + b.From/2)).String()
		line[2] = strconv.FormatInt(b.Count, 10)
	}

	for i, l := range lines {
		l[1] = makeBar(counts[i], max)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Latency", "", "Count"})
	table.SetBorder(false)
	table.AppendBulk(lines)
	table.Render()
}

func makeBar(c int64, max int64) string {
	if c == 0 {
		return ""
	}
	t := int((43 * float64(c) / float64(max)) + 0.5)
	return strings.Repeat(printutils.HighlightSprint("▄"), t)
}
