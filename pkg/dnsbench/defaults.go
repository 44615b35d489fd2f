package dnsbench

import (
	"time"
)

const (
	// DefaultConcurrency is a default ceiling of probes that can be in flight at once.
	DefaultConcurrency = 16

	// DefaultTimeout is a default timeout of a single probe attempt.
	DefaultTimeout = 3 * time.Second

	// DefaultMaxRetries is a default maximum number of attempts of a single probe.
	DefaultMaxRetries = 3

	// DefaultRetryThreshold is a default latency, below which the probe result is accepted without further retries.
	DefaultRetryThreshold = 500 * time.Millisecond

	// DefaultRequestLogPath is a default path to the file, where the probe attempts will be logged.
	DefaultRequestLogPath = "requests.log"

	// DefaultPlotFormat is a default format for plots.
	DefaultPlotFormat = "png"

	// DefaultPlainDNSPort is a default port of plain DNS nameservers.
	DefaultPlainDNSPort = "53"

	// DefaultDoTPort is a default port of DoT servers, see https://www.rfc-editor.org/rfc/rfc7858.
	DefaultDoTPort = "853"

	// DefaultDoQPort is a default port of DoQ servers, see https://www.rfc-editor.org/rfc/rfc9250.
	DefaultDoQPort = "853"

	// DefaultHistPrecision is a default precision for latency histogram.
	DefaultHistPrecision = 1

	// FailedLatency is a latency reported for probes which failed.
	FailedLatency int64 = -1

	// NoAnswerAddress is an address reported for successful DoH probes without any A record in the answer.
	// Such probes still count into latency statistics, although nothing was resolved.
	NoAnswerAddress = "N/A"
)
