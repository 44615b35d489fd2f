package dnsbench

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/quic-go/quic-go/http3"
	dohwire "github.com/tantalor93/doh-go/doh"
	"github.com/tantalor93/doq-go/doq"
	"golang.org/x/net/http2"

	"github.com/tantalor93/dnsmatrix/internal/doh"
)

var (
	// ErrNoAddress is returned by plain DNS, DoT and DoQ attempts, when the answer contains no address.
	ErrNoAddress = errors.New("no address in the answer")
	// ErrRcode is returned when the response carries non-success response code.
	ErrRcode = errors.New("unsuccessful response code")
)

// methodAttemptFactory creates attempt function for the method. The function is created once per method
// and reused for all its domains. An error means the method cannot be probed at all.
func methodAttemptFactory(b *Benchmark, m Method) (AttemptFunc, error) {
	switch m.Kind {
	case IPv4, IPv6:
		return plainAttempt(b, m)
	case DoT:
		return dotAttempt(b, m)
	case DoH:
		return dohAttempt(b, m)
	case DoQ:
		return doqAttempt(b, m)
	default:
		return nil, fmt.Errorf("unsupported resolver method %v", m.Kind)
	}
}

func plainAttempt(b *Benchmark, m Method) (AttemptFunc, error) {
	server, err := nameserverAddr(m)
	if err != nil {
		return nil, err
	}
	client := &dns.Client{
		Net:     UDPTransport,
		Timeout: b.Timeout,
	}
	return exchangeAttempt(func(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
		r, _, err := client.ExchangeContext(ctx, msg, server)
		return r, err
	}), nil
}

func dotAttempt(b *Benchmark, m Method) (AttemptFunc, error) {
	server, host, err := hostPort(m.Address, DefaultDoTPort)
	if err != nil {
		return nil, err
	}
	client := &dns.Client{
		Net:     TLSTransport,
		Timeout: b.Timeout,
		// nolint:gosec
		TLSConfig: &tls.Config{ServerName: host, InsecureSkipVerify: b.Insecure},
	}
	return exchangeAttempt(func(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
		r, _, err := client.ExchangeContext(ctx, msg, server)
		return r, err
	}), nil
}

func doqAttempt(b *Benchmark, m Method) (AttemptFunc, error) {
	server, host, err := hostPort(strings.TrimPrefix(m.Address, "quic://"), DefaultDoQPort)
	if err != nil {
		return nil, err
	}
	client := doq.NewClient(server,
		// nolint:gosec
		doq.WithTLSConfig(&tls.Config{ServerName: host, InsecureSkipVerify: b.Insecure}),
		doq.WithReadTimeout(b.Timeout),
		doq.WithWriteTimeout(b.Timeout),
		doq.WithConnectTimeout(b.Timeout),
	)
	return exchangeAttempt(func(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
		// https://www.rfc-editor.org/rfc/rfc9250#section-4.2.1
		msg.Id = 0
		return client.Send(ctx, msg)
	}), nil
}

func dohAttempt(b *Benchmark, m Method) (AttemptFunc, error) {
	u, err := url.Parse(m.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid DoH URL '%s': %w", m.Address, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid DoH URL '%s': scheme must be http or https", m.Address)
	}
	c := dohHTTPClient(b)

	if b.DohFormat == WireDoHFormat {
		dohClient := dohwire.NewClient(m.Address, dohwire.WithHTTPClient(c))
		return func(ctx context.Context, domain string) Outcome {
			start := time.Now()
			r, err := dohClient.SendViaGet(ctx, question(domain))
			elapsed := time.Since(start)
			if err != nil {
				return failedOutcome(err)
			}
			addr, ok := firstA(r)
			if !ok {
				addr = NoAnswerAddress
			}
			return successOutcome(addr, elapsed)
		}, nil
	}

	dohClient := doh.NewClient(c)
	return func(ctx context.Context, domain string) Outcome {
		r, elapsed, err := dohClient.Lookup(ctx, m.Address, domain, dns.TypeA)
		if err != nil {
			return failedOutcome(err)
		}
		addr, ok := r.FirstA()
		if !ok {
			// host may still exist, it just has no A record reported
			addr = NoAnswerAddress
		}
		return successOutcome(addr, elapsed)
	}, nil
}

func dohHTTPClient(b *Benchmark) *http.Client {
	var tr http.RoundTripper
	switch b.DohProtocol {
	case HTTP3Proto:
		// nolint:gosec
		tr = &http3.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: b.Insecure}}
	case HTTP2Proto:
		// nolint:gosec
		tr = &http2.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: b.Insecure}}
	case HTTP1Proto:
		fallthrough
	default:
		// nolint:gosec
		tr = &http.Transport{Proxy: http.ProxyFromEnvironment, TLSClientConfig: &tls.Config{InsecureSkipVerify: b.Insecure}}
	}
	return &http.Client{Transport: tr, Timeout: b.Timeout}
}

// exchangeAttempt wraps function sending DNS message into an attempt function measuring the whole exchange.
func exchangeAttempt(exchange func(ctx context.Context, msg *dns.Msg) (*dns.Msg, error)) AttemptFunc {
	return func(ctx context.Context, domain string) Outcome {
		msg := question(domain)
		start := time.Now()
		r, err := exchange(ctx, msg)
		elapsed := time.Since(start)
		if err != nil {
			return failedOutcome(err)
		}
		if r.Rcode != dns.RcodeSuccess {
			return failedOutcome(fmt.Errorf("%w %s", ErrRcode, dns.RcodeToString[r.Rcode]))
		}
		addr, ok := firstAddress(r)
		if !ok {
			return failedOutcome(ErrNoAddress)
		}
		return successOutcome(addr, elapsed)
	}
}

func question(domain string) *dns.Msg {
	msg := dns.Msg{}
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	return &msg
}

func firstA(r *dns.Msg) (string, bool) {
	for _, rr := range r.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), true
		}
	}
	return "", false
}

func firstAddress(r *dns.Msg) (string, bool) {
	for _, rr := range r.Answer {
		switch v := rr.(type) {
		case *dns.A:
			return v.A.String(), true
		case *dns.AAAA:
			return v.AAAA.String(), true
		}
	}
	return "", false
}

// nameserverAddr validates plain DNS nameserver address against the IP version of the method
// and returns it in the host:port form.
func nameserverAddr(m Method) (string, error) {
	host, port := m.Address, DefaultPlainDNSPort
	if h, p, err := net.SplitHostPort(m.Address); err == nil {
		host, port = h, p
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return "", fmt.Errorf("invalid nameserver address '%s': %w", m.Address, err)
	}
	if m.Kind == IPv4 && !ip.Unmap().Is4() {
		return "", fmt.Errorf("nameserver address '%s' is not an IPv4 address", m.Address)
	}
	if m.Kind == IPv6 && !ip.Is6() {
		return "", fmt.Errorf("nameserver address '%s' is not an IPv6 address", m.Address)
	}
	return net.JoinHostPort(ip.String(), port), nil
}

// hostPort returns address in the host:port form, adding the default port if missing, and the host part.
func hostPort(addr, defaultPort string) (string, string, error) {
	if addr == "" {
		return "", "", errors.New("empty server address")
	}
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return addr, h, nil
	}
	h := strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
	return net.JoinHostPort(h, defaultPort), h, nil
}
