//go:build unix

package dnsbench

import (
	"bufio"
	"io"
	"os"
	"strings"
)

const defaultNameServer = "127.0.0.1"

// DefaultNameServer fetches default system name server address based on the /etc/resolv.conf
// If it fails, it returns 127.0.0.1 as default.
func DefaultNameServer() string {
	file, err := os.Open("/etc/resolv.conf")
	if err != nil {
		return defaultNameServer
	}
	defer func() {
		_ = file.Close()
	}()
	if ns, ok := parseResolvConf(file); ok {
		return ns
	}
	return defaultNameServer
}

// parseResolvConf returns the first nameserver entry of resolv.conf formatted input.
func parseResolvConf(r io.Reader) (string, bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > 0 && (line[0] == ';' || line[0] == '#') {
			// comment line, skip
			continue
		}

		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "nameserver" {
			return fields[1], true
		}
	}
	return "", false
}
