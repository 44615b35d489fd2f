//go:build windows

package dnsbench

import (
	"os/exec"
	"regexp"
)

const defaultNameServer = "127.0.0.1"

var nslookupServerRegexp = regexp.MustCompile(`Address:\s+([^\s]+)`)

// DefaultNameServer fetches default system name server address based on the nslookup call.
// If it fails, it returns 127.0.0.1 as default.
func DefaultNameServer() string {
	out, err := exec.Command("nslookup").Output()
	if err != nil {
		return defaultNameServer
	}
	if ns, ok := parseNslookup(string(out)); ok {
		return ns
	}
	return defaultNameServer
}

func parseNslookup(out string) (string, bool) {
	matches := nslookupServerRegexp.FindStringSubmatch(out)
	if len(matches) != 2 {
		return "", false
	}
	return matches[1], true
}
