package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/tantalor93/dnsmatrix/pkg/dnsbench"
)

type reportParameters struct {
	benchmark         *dnsbench.Benchmark
	outputWriter      io.Writer
	summaries         []Summary
	hist              *hdrhistogram.Histogram
	topErrs           []errorCount
	totalErrs         int
	benchmarkDuration time.Duration
}

type reportPrinter interface {
	print(params reportParameters) error
}

// PrintReport aggregates the results, exports plots and the CSV matrix if configured and prints
// formatted report. If there is a fatal error while printing report, an error is returned.
func PrintReport(b *dnsbench.Benchmark, stats []*dnsbench.ResultStats, benchDuration time.Duration) error {
	summaries := Summarize(b.Methods(), b.Domains, stats)

	if len(b.PlotDir) != 0 {
		if err := directoryExists(b.PlotDir); err != nil {
			return fmt.Errorf("unable to plot results: %w", err)
		}

		now := time.Now().Format(time.RFC3339)
		dir := filepath.Join(b.PlotDir, "graphs-"+now)
		if err := os.Mkdir(dir, os.ModePerm); err != nil {
			return fmt.Errorf("unable to plot results: %w", err)
		}
		plotHistogramLatency(fileName(b, dir, "latency-histogram"), summaries)
		plotBoxPlotLatency(fileName(b, dir, "latency-boxplot"), summaries)
		plotAverageLatency(fileName(b, dir, "latency-barchart"), summaries)
		plotOutcomes(fileName(b, dir, "outcomes-barchart"), summaries)
	}

	if b.Csv != "" {
		if err := exportCSV(b.Csv, b.Domains, summaries); err != nil {
			return err
		}
	}

	if b.Silent {
		return nil
	}

	w := b.Writer
	if w == nil {
		w = os.Stdout
	}
	topErrs, totalErrs := topErrors(summaries, 3)
	params := reportParameters{
		benchmark:         b,
		outputWriter:      w,
		summaries:         summaries,
		hist:              latencyHistogram(summaries, b.Timeout),
		topErrs:           topErrs,
		totalErrs:         totalErrs,
		benchmarkDuration: benchDuration,
	}
	return printer(b).print(params)
}

func exportCSV(path string, domains []string, summaries []Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file for CSV export due to '%v'", err)
	}
	return writeAndClose(f, domains, summaries)
}

// writeAndClose writes the CSV matrix and closes the writer, a failed close is returned as an error.
func writeAndClose(w io.WriteCloser, domains []string, summaries []Summary) error {
	if err := WriteCSV(w, domains, summaries); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to export results to CSV: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to save CSV export: %w", err)
	}
	return nil
}

func directoryExists(plotDir string) error {
	stat, err := os.Stat(plotDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("'%s' path does not point to an existing directory", plotDir)
		}
		return err
	} else if !stat.IsDir() {
		return fmt.Errorf("'%s' is not a path to a directory", plotDir)
	}
	return nil
}

func printer(b *dnsbench.Benchmark) reportPrinter {
	switch {
	case b.JSON:
		return &jsonReporter{}
	default:
		return &standardReporter{}
	}
}

func fileName(b *dnsbench.Benchmark, dir, name string) string {
	format := b.PlotFormat
	if format == "" {
		format = dnsbench.DefaultPlotFormat
	}
	return filepath.Join(dir, name+"."+format)
}
