package dnsbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"

	"github.com/tantalor93/dnsmatrix/pkg/printutils"
)

const (
	// UDPTransport represents plain DNS over UDP.
	UDPTransport = "udp"
	// TLSTransport represents DNS over TLS.
	TLSTransport = "tcp-tls"
)

const (
	// JSONDoHFormat represents DoH JSON API (application/dns-json).
	JSONDoHFormat = "json"
	// WireDoHFormat represents DoH using DNS wire format (application/dns-message).
	// Latency of wire format probes covers reading and unpacking of the response body, while latency of
	// JSON format probes ends once response headers arrive, so latencies of the two formats are not comparable.
	WireDoHFormat = "wire"
)

const (
	// HTTP1Proto represents HTTP/1.1 protocol used by DoH.
	HTTP1Proto = "1.1"
	// HTTP2Proto represents HTTP/2 protocol used by DoH.
	HTTP2Proto = "2"
	// HTTP3Proto represents HTTP/3 protocol used by DoH.
	HTTP3Proto = "3"
)

// ProgressFunc is notified about every finished probe. It may be called from multiple goroutines at once.
type ProgressFunc func(done, total int64, r Result)

// Benchmark is representation of a single sweep over resolver methods and domains.
type Benchmark struct {
	// Resolvers to probe, each address of a resolver is probed as a separate method.
	Resolvers []Resolver

	// Domains to resolve, the order is preserved in the results of every method.
	Domains []string

	// Concurrency is a maximum number of probes in flight across all methods.
	Concurrency uint32

	// Timeout of a single probe attempt.
	Timeout time.Duration

	// MaxRetries is a maximum number of attempts of a single probe.
	MaxRetries int

	// RetryThreshold is a latency, below which the probe is not retried.
	RetryThreshold time.Duration

	// Rate is a global limit of attempts per second, 0 means unlimited.
	Rate int

	// DohFormat is either JSONDoHFormat or WireDoHFormat.
	DohFormat string

	// DohProtocol is HTTP protocol used for DoH, one of HTTP1Proto, HTTP2Proto or HTTP3Proto.
	DohProtocol string

	// Insecure disables TLS certificate validation of DoT, DoH and DoQ servers.
	Insecure bool

	// RequestLogEnabled enables logging of every probe attempt into RequestLogPath.
	RequestLogEnabled bool
	RequestLogPath    string

	// Csv is a path of the file, where the result matrix will be exported.
	Csv string

	// JSON enables reporting results as JSON.
	JSON bool

	// Silent disables any output to Writer.
	Silent bool

	// Color enables ANSI colors in the output.
	Color bool

	// HistDisplay enables printing distribution of latencies.
	HistDisplay bool

	// PlotDir is a directory, where plots are exported, plotting is disabled when empty.
	PlotDir    string
	PlotFormat string

	// Limiter bounds the number of probes in flight, if nil, limiter with Concurrency slots is used.
	Limiter Limiter

	// Progress is notified about finished probes.
	Progress ProgressFunc

	// Logger for diagnostic messages, log.Log is used if nil.
	Logger log.Interface

	// Writer is used for the output, os.Stdout is used if nil.
	Writer io.Writer

	policy        RetryPolicy
	rateLimiter   ratelimit.Limiter
	requestLogger log.Interface
}

func (b *Benchmark) init() error {
	if len(b.Domains) == 0 {
		return errors.New("no domains to probe")
	}
	if len(b.Resolvers) == 0 {
		return errors.New("no resolvers to probe")
	}

	if b.Concurrency == 0 {
		b.Concurrency = DefaultConcurrency
	}
	if b.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", b.Timeout)
	}
	if b.Timeout == 0 {
		b.Timeout = DefaultTimeout
	}
	if b.MaxRetries < 0 {
		return fmt.Errorf("number of retries must not be negative, got %d", b.MaxRetries)
	}
	if b.MaxRetries == 0 {
		b.MaxRetries = DefaultMaxRetries
	}
	if b.RetryThreshold < 0 {
		return fmt.Errorf("retry threshold must not be negative, got %s", b.RetryThreshold)
	}
	if b.RetryThreshold == 0 {
		b.RetryThreshold = DefaultRetryThreshold
	}
	if b.Rate < 0 {
		return fmt.Errorf("rate limit must not be negative, got %d", b.Rate)
	}

	switch b.DohFormat {
	case "":
		b.DohFormat = JSONDoHFormat
	case JSONDoHFormat, WireDoHFormat:
	default:
		return fmt.Errorf("unsupported DoH format '%s'", b.DohFormat)
	}

	switch b.DohProtocol {
	case "":
		b.DohProtocol = HTTP1Proto
	case HTTP1Proto, HTTP2Proto, HTTP3Proto:
	default:
		return fmt.Errorf("unsupported DoH protocol '%s'", b.DohProtocol)
	}

	if b.RequestLogEnabled && len(b.RequestLogPath) == 0 {
		b.RequestLogPath = DefaultRequestLogPath
	}
	if len(b.PlotFormat) == 0 {
		b.PlotFormat = DefaultPlotFormat
	}

	if b.Writer == nil {
		b.Writer = os.Stdout
	}
	if b.Logger == nil {
		b.Logger = log.Log
	}

	b.policy = RetryPolicy{
		MaxRetries: b.MaxRetries,
		Threshold:  b.RetryThreshold,
		Timeout:    b.Timeout,
	}
	if b.Rate > 0 {
		b.rateLimiter = ratelimit.New(b.Rate)
	}
	return nil
}

// Methods returns all methods of the benchmark in the order they are probed and reported.
func (b *Benchmark) Methods() []Method {
	return Methods(b.Resolvers)
}

// Run executes the sweep, if the sweep is unable to start the error is returned, otherwise slice of results
// with one element per resolver method is returned. Results are in the order of Benchmark.Methods
// and contain one result per domain, no matter if the method could be probed or not.
// Canceling the context aborts the sweep, no partial results are returned in that case.
func (b *Benchmark) Run(ctx context.Context) ([]*ResultStats, error) {
	if err := b.init(); err != nil {
		return nil, err
	}

	if b.RequestLogEnabled {
		file, err := os.OpenFile(b.RequestLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open request log '%s': %w", b.RequestLogPath, err)
		}
		defer file.Close()
		b.requestLogger = &log.Logger{Handler: text.New(file), Level: log.InfoLevel}
	}

	methods := b.Methods()

	limiter := b.Limiter
	if limiter == nil {
		limiter = NewLimiter(int(b.Concurrency))
	}

	if !b.Silent && !b.JSON {
		limits := ""
		if b.Rate > 0 {
			limits = fmt.Sprintf("(limited to %s attempts/s)", printutils.HighlightSprint(b.Rate))
		}
		printutils.NeutralFprintf(b.Writer, "Using %s resolver methods and %s domains\n",
			printutils.HighlightSprint(len(methods)), printutils.HighlightSprint(len(b.Domains)))
		printutils.NeutralFprintf(b.Writer, "Probing with %s concurrent probes %s\n",
			printutils.HighlightSprint(b.Concurrency), limits)
	}

	total := int64(len(methods) * len(b.Domains))
	var done atomic.Int64

	stats := make([]*ResultStats, len(methods))

	// every task owns its slot in stats, the results are read only after all tasks finish
	var g errgroup.Group
	for i, m := range methods {
		g.Go(func() error {
			stats[i] = b.runMethod(ctx, m, limiter, &done, total)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("probes were canceled: %w", err)
	}
	return stats, nil
}

func (b *Benchmark) runMethod(ctx context.Context, m Method, limiter Limiter, done *atomic.Int64, total int64) *ResultStats {
	rs := &ResultStats{Method: m}
	logger := b.Logger.WithFields(log.Fields{"resolver": m.Resolver, "method": m.Name(), "address": m.Address})

	attempt, err := methodAttemptFactory(b, m)
	if err != nil {
		logger.WithError(err).Warn("unable to probe resolver method")
		rs.Err = err
		for _, d := range b.Domains {
			b.finish(rs, Result{Outcome: failedOutcome(err), Method: m, Domain: d}, done, total)
		}
		return rs
	}
	attempt = b.instrument(m, attempt)

	for _, d := range b.Domains {
		if ctx.Err() != nil {
			break
		}
		if err := limiter.Acquire(ctx); err != nil {
			break
		}
		probesInFlightMetrics.Inc()
		o, attempts := b.policy.Measure(ctx, attempt, d)
		probesInFlightMetrics.Dec()
		limiter.Release()
		if ctx.Err() != nil {
			// the probe was cut short, its outcome says nothing about the resolver
			break
		}

		logger.WithFields(log.Fields{"domain": d, "attempts": attempts, "latency": o.LatencyMs}).Debug("probe finished")
		b.finish(rs, Result{Outcome: o, Method: m, Domain: d, Attempts: attempts}, done, total)
	}
	return rs
}

func (b *Benchmark) finish(rs *ResultStats, r Result, done *atomic.Int64, total int64) {
	rs.record(r)
	probeTotalMetrics.WithLabelValues(r.Method.Name(), outcomeLabel(r.Outcome)).Inc()
	n := done.Add(1)
	if b.Progress != nil {
		b.Progress(n, total, r)
	}
}

// instrument decorates attempt function with rate limiting, metrics and request logging.
func (b *Benchmark) instrument(m Method, attempt AttemptFunc) AttemptFunc {
	return func(ctx context.Context, domain string) Outcome {
		if b.rateLimiter != nil {
			b.rateLimiter.Take()
		}
		o := attempt(ctx, domain)

		attemptTotalMetrics.WithLabelValues(m.Name(), outcomeLabel(o)).Inc()
		if o.Success {
			attemptDurationMetrics.WithLabelValues(m.Name()).Observe((time.Duration(o.LatencyMs) * time.Millisecond).Seconds())
		}
		if b.requestLogger != nil {
			logRequest(b.requestLogger, m, domain, o)
		}
		return o
	}
}
