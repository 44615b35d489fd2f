// Package config loads resolver and site lists driving the sweep. Lists are read from a local file or
// downloaded from http(s) URL, files with .yaml or .yml extension are decoded as YAML, anything else as JSON.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tantalor93/dnsmatrix/pkg/dnsbench"
)

var client = http.Client{
	Timeout: 120 * time.Second,
}

// ResolverEntry is a named group of resolver addresses as stored in the resolver list.
type ResolverEntry struct {
	Name        string   `json:"name" yaml:"name"`
	Location    string   `json:"location" yaml:"location"`
	Description string   `json:"description" yaml:"description"`
	IPv4        []string `json:"ipv4" yaml:"ipv4"`
	IPv6        []string `json:"ipv6" yaml:"ipv6"`
	DoH         []string `json:"doh" yaml:"doh"`
	DoT         []string `json:"dot" yaml:"dot"`
	DoQ         []string `json:"doq" yaml:"doq"`
}

// Resolvers is the resolver list.
type Resolvers struct {
	Servers []ResolverEntry `json:"servers" yaml:"servers"`
}

// Site is a named group of domains as stored in the site list.
type Site struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	URL         []string `json:"url" yaml:"url"`
}

// Sites is the site list.
type Sites struct {
	Servers []Site `json:"servers" yaml:"servers"`
}

// LoadResolvers loads and validates resolver list from the source, order of resolvers and their addresses is preserved.
func LoadResolvers(ctx context.Context, source string) ([]dnsbench.Resolver, error) {
	var rs Resolvers
	if err := load(ctx, source, &rs); err != nil {
		return nil, err
	}
	return rs.Resolvers()
}

// LoadDomains loads site list from the source and flattens URLs of all sites into a sequence of domains.
// The order is preserved and duplicates are kept.
func LoadDomains(ctx context.Context, source string) ([]string, error) {
	var sites Sites
	if err := load(ctx, source, &sites); err != nil {
		return nil, err
	}
	return sites.Domains()
}

// Resolvers validates the resolver list and converts it into resolvers.
func (r Resolvers) Resolvers() ([]dnsbench.Resolver, error) {
	if len(r.Servers) == 0 {
		return nil, errors.New("no resolvers defined")
	}
	resolvers := make([]dnsbench.Resolver, 0, len(r.Servers))
	for i, s := range r.Servers {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("invalid resolver #%d: %w", i+1, err)
		}
		resolvers = append(resolvers, dnsbench.Resolver{
			Name:        s.Name,
			Location:    s.Location,
			Description: s.Description,
			IPv4:        s.IPv4,
			IPv6:        s.IPv6,
			DoH:         s.DoH,
			DoT:         s.DoT,
			DoQ:         s.DoQ,
		})
	}
	return resolvers, nil
}

// Domains flattens URLs of all sites into a sequence of domains.
func (s Sites) Domains() ([]string, error) {
	var domains []string
	for _, site := range s.Servers {
		for _, u := range site.URL {
			if strings.TrimSpace(u) == "" {
				return nil, fmt.Errorf("site '%s' contains empty domain", site.Name)
			}
			domains = append(domains, u)
		}
	}
	if len(domains) == 0 {
		return nil, errors.New("no domains defined")
	}
	return domains, nil
}

func (e ResolverEntry) validate() error {
	if e.Name == "" {
		return errors.New("missing name")
	}
	for _, a := range e.IPv4 {
		ip, err := parseNameserver(a)
		if err != nil || !ip.Unmap().Is4() {
			return fmt.Errorf("resolver '%s' has invalid IPv4 address '%s'", e.Name, a)
		}
	}
	for _, a := range e.IPv6 {
		ip, err := parseNameserver(a)
		if err != nil || !ip.Is6() {
			return fmt.Errorf("resolver '%s' has invalid IPv6 address '%s'", e.Name, a)
		}
	}
	for _, a := range e.DoH {
		u, err := url.Parse(a)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("resolver '%s' has invalid DoH URL '%s'", e.Name, a)
		}
	}
	for _, a := range append(append([]string{}, e.DoT...), e.DoQ...) {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("resolver '%s' has empty DoT or DoQ address", e.Name)
		}
	}
	return nil
}

// parseNameserver accepts plain IP address or IP address with port.
func parseNameserver(a string) (netip.Addr, error) {
	if ip, err := netip.ParseAddr(a); err == nil {
		return ip, nil
	}
	ap, err := netip.ParseAddrPort(a)
	if err != nil {
		return netip.Addr{}, err
	}
	return ap.Addr(), nil
}

func load(ctx context.Context, source string, v any) error {
	data, name, err := read(ctx, source)
	if err != nil {
		return err
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.NewDecoder(bytes.NewReader(data)).Decode(v)
	}
	if err != nil {
		return fmt.Errorf("failed to parse '%s': %w", source, err)
	}
	return nil
}

// read returns content of the source together with the name used to detect its format.
func read(ctx context.Context, source string) ([]byte, string, error) {
	if !isHTTPUrl(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read '%s': %w", source, err)
		}
		return data, source, nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL '%s': %w", source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file '%s' with error '%v'", source, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file '%s' with error '%v'", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("failed to download file '%s' with status '%s'", source, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file '%s' with error '%v'", source, err)
	}
	return data, u.Path, nil
}

func isHTTPUrl(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
