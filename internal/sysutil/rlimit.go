//go:build !windows
// +build !windows

package sysutil

import "golang.org/x/sys/unix"

// RlimitNoFile reports the current limit of open file descriptors of the process.
func RlimitNoFile() (cur uint64, err error) {
	var r unix.Rlimit
	err = unix.Getrlimit(unix.RLIMIT_NOFILE, &r)
	return uint64(r.Cur), err
}
