package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"

	"github.com/tantalor93/dnsmatrix/pkg/dnsbench"
	"github.com/tantalor93/dnsmatrix/pkg/printutils"
)

var (
	// Version is set during release of project during build process.
	Version = "development"
)

var (
	pApp = kingpin.New("dnsmatrix", "Measures DNS resolution latency of a matrix of resolvers and domains.")

	opts options
)

func init() {
	registerFlags(pApp, &opts)
}

func registerFlags(app *kingpin.Application, o *options) {
	app.Flag("resolvers", "Resolver list, JSON or YAML file with resolvers and their IPv4, IPv6, DoH, DoT and DoQ addresses. "+
		"It can also be resource accessible using HTTP, in that case, the file will be downloaded.").
		Short('r').Default("dns_servers.json").StringVar(&o.resolvers)

	app.Flag("sites", "Site list, JSON or YAML file with sites, whose domains are resolved. "+
		"It can also be resource accessible using HTTP, in that case, the file will be downloaded.").
		Short('s').Default("site_servers.json").StringVar(&o.sites)

	app.Flag("output", "Export matrix of resolved addresses and latencies to CSV.").
		Short('o').Default("results.csv").PlaceHolder("/path/to/file.csv").StringVar(&o.benchmark.Csv)

	app.Flag("concurrency", "Maximum number of probes in flight across all resolvers.").
		Short('c').Default(fmt.Sprint(dnsbench.DefaultConcurrency)).Uint32Var(&o.benchmark.Concurrency)

	app.Flag("timeout", "Timeout of a single probe attempt.").
		Default(dnsbench.DefaultTimeout.String()).DurationVar(&o.benchmark.Timeout)

	app.Flag("retries", "Maximum number of attempts of a single probe.").
		Default(fmt.Sprint(dnsbench.DefaultMaxRetries)).IntVar(&o.benchmark.MaxRetries)

	app.Flag("retry-threshold", "Probe is not retried, when its attempt finished faster than the threshold.").
		Default(dnsbench.DefaultRetryThreshold.String()).DurationVar(&o.benchmark.RetryThreshold)

	app.Flag("rate-limit", "Apply a global attempts / second rate limit.").
		Short('l').Default("0").IntVar(&o.benchmark.Rate)

	app.Flag("doh-format", "Format of DoH requests. Supported values: json (application/dns-json), wire (application/dns-message).").
		Default(dnsbench.JSONDoHFormat).EnumVar(&o.benchmark.DohFormat, dnsbench.JSONDoHFormat, dnsbench.WireDoHFormat)

	app.Flag("doh-protocol", "HTTP protocol to use for DoH requests. Supported values: 1.1, 2 and 3.").
		Default(dnsbench.HTTP1Proto).EnumVar(&o.benchmark.DohProtocol, dnsbench.HTTP1Proto, dnsbench.HTTP2Proto, dnsbench.HTTP3Proto)

	app.Flag("insecure", "Disables server TLS certificate validation. Applicable for DoT, DoH and DoQ.").
		Default("false").BoolVar(&o.benchmark.Insecure)

	app.Flag("system", "Probe also the system default nameserver.").
		Default("false").BoolVar(&o.system)

	app.Flag("json", "Report results as JSON.").BoolVar(&o.benchmark.JSON)

	app.Flag("silent", "Disable stdout.").Default("false").BoolVar(&o.benchmark.Silent)

	app.Flag("color", "ANSI Color output. Enabled by default.").
		Default("true").BoolVar(&o.benchmark.Color)

	app.Flag("progress", "Show progress bar. Enabled by default.").
		Default("true").BoolVar(&o.progress)

	app.Flag("distribution", "Display distribution histogram of timings to stdout. Enabled by default.").
		Default("true").BoolVar(&o.benchmark.HistDisplay)

	app.Flag("plot", "Plot results and export them to the directory.").
		Default("").PlaceHolder("/path/to/folder").StringVar(&o.benchmark.PlotDir)

	app.Flag("plotf", "Format of graphs. Supported formats: png, jpg, svg.").
		Default(dnsbench.DefaultPlotFormat).EnumVar(&o.benchmark.PlotFormat, "png", "jpg", "svg")

	app.Flag("log-requests", "Log every probe attempt.").
		Default("false").BoolVar(&o.benchmark.RequestLogEnabled)

	app.Flag("log-requests-path", "Path of the file, where probe attempts are logged.").
		Default(dnsbench.DefaultRequestLogPath).StringVar(&o.benchmark.RequestLogPath)

	app.Flag("prometheus", "Expose Prometheus metrics on /metrics endpoint of the address during the run.").
		PlaceHolder(":8080").StringVar(&o.prometheus)

	app.Flag("verbose", "Enable verbose log output.").Short('v').BoolVar(&o.verbose)
}

// Execute starts main logic of command.
func Execute() {
	pApp.Version(Version)
	kingpin.MustParse(pApp.Parse(os.Args[1:]))

	log.SetHandler(cli.New(os.Stderr))
	if opts.verbose {
		log.SetLevel(log.DebugLevel)
	}

	sigsInt := make(chan os.Signal, 8)
	signal.Notify(sigsInt, syscall.SIGINT)

	defer close(sigsInt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_, ok := <-sigsInt
		if !ok {
			// standard exit based on channel close
			return
		}
		fmt.Fprintf(os.Stderr, "\nCancelling probes ^C, again to terminate now.\n")
		cancel()
		<-sigsInt
		os.Exit(1)
	}()

	if err := opts.run(ctx); err != nil {
		printutils.ErrFprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
