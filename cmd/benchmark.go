package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"

	"github.com/tantalor93/dnsmatrix/internal/sysutil"
	"github.com/tantalor93/dnsmatrix/pkg/config"
	"github.com/tantalor93/dnsmatrix/pkg/dnsbench"
	"github.com/tantalor93/dnsmatrix/pkg/reporter"
)

type options struct {
	benchmark dnsbench.Benchmark

	resolvers  string
	sites      string
	system     bool
	progress   bool
	prometheus string
	verbose    bool

	// output of progress bar, os.Stderr is used if nil
	progressWriter io.Writer
}

func (o *options) run(ctx context.Context) error {
	color.NoColor = !o.benchmark.Color

	resolvers, err := config.LoadResolvers(ctx, o.resolvers)
	if err != nil {
		return fmt.Errorf("failed to load resolvers: %w", err)
	}
	if o.system {
		resolvers = append(resolvers, dnsbench.SystemResolver())
	}
	domains, err := config.LoadDomains(ctx, o.sites)
	if err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}

	b := &o.benchmark
	b.Resolvers = resolvers
	b.Domains = domains
	if b.Logger == nil {
		b.Logger = log.Log
	}

	warnAboutFileLimit(b.Logger, b.Concurrency)

	if o.prometheus != "" {
		stop, err := servePrometheus(b.Logger, o.prometheus)
		if err != nil {
			return err
		}
		defer stop()
	}

	var bar *progressbar.ProgressBar
	if o.progress && !b.Silent && !b.JSON {
		bar = newProgressBar(o.progressWriter, int64(len(b.Methods())*len(domains)))
		b.Progress = func(_, _ int64, r dnsbench.Result) {
			bar.Describe(fmt.Sprintf("%s %s -> %s", r.Method.Resolver, r.Method.Name(), r.Domain))
			_ = bar.Add(1)
		}
	}

	start := time.Now()
	res, err := b.Run(ctx)
	duration := time.Since(start)
	if bar != nil {
		_ = bar.Finish()
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("no report produced: %w", err)
	}
	if err != nil {
		return fmt.Errorf("there was an error while starting probes: %w", err)
	}

	if err := reporter.PrintReport(b, res, duration); err != nil {
		return fmt.Errorf("there was an error while printing report: %w", err)
	}
	return nil
}

func newProgressBar(w io.Writer, total int64) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions64(
		total,
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetWriter(w),
	)
}

func warnAboutFileLimit(logger log.Interface, concurrency uint32) {
	limit, err := sysutil.RlimitNoFile()
	if err != nil {
		logger.WithError(err).Debug("unable to determine limit of open files")
		return
	}
	if sysutil.ConcurrencyWarning(concurrency, limit) {
		logger.WithFields(log.Fields{"concurrency": concurrency, "limit": limit}).
			Warn("concurrency is close to the limit of open files, probes may fail with 'too many open files'")
	}
}

// servePrometheus exposes metrics on the address until the returned function is called.
func servePrometheus(logger log.Interface, addr string) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to expose prometheus metrics on '%s': %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("prometheus metrics server failed")
		}
	}()
	logger.Infof("serving prometheus metrics at http://%s/metrics", listener.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
