//go:build windows
// +build windows

package sysutil

import "errors"

// ErrUnsupported is returned on platforms without file descriptor limits.
var ErrUnsupported = errors.New("rlimit is not supported on this platform")

// RlimitNoFile reports the current limit of open file descriptors of the process.
func RlimitNoFile() (uint64, error) {
	return 0, ErrUnsupported
}
