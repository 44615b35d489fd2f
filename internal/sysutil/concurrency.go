package sysutil

// ConcurrencyWarning returns true if the concurrency may exhaust file descriptors, every probe in flight
// holds at least one socket, so half of the limit is kept for the rest of the process.
func ConcurrencyWarning(concurrency uint32, limit uint64) bool {
	return limit > 0 && uint64(concurrency) > limit/2
}
