package dnsbench

import (
	"github.com/apex/log"
)

func logRequest(logger log.Interface, m Method, domain string, o Outcome) {
	entry := logger.WithFields(log.Fields{
		"resolver": m.Resolver,
		"method":   m.Name(),
		"address":  m.Address,
		"domain":   domain,
		"resolved": o.Address,
		"latency":  o.LatencyMs,
	})
	if o.Err != nil {
		entry.WithError(o.Err).Info("attempt failed")
		return
	}
	entry.Info("attempt")
}
