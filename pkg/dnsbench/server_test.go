package dnsbench_test

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/miekg/dns"
	"github.com/quic-go/quic-go"
	"github.com/tantalor93/dnsmatrix/pkg/dnsbench"
)

// Server represents simple DNS server.
type Server struct {
	Addr  string
	inner *dns.Server
}

// Close shuts down running DNS server instance.
func (s *Server) Close() {
	_ = s.inner.Shutdown()
}

// NewServer creates and starts new DNS server instance, tlsConfig is required for the TLS transport.
func NewServer(network string, tlsConfig *tls.Config, f dns.HandlerFunc) *Server {
	ch := make(chan bool)
	s := &dns.Server{
		Net:               network,
		Addr:              "127.0.0.1:0",
		TLSConfig:         tlsConfig,
		NotifyStartedFunc: func() { close(ch) },
		Handler:           f,
	}

	go func() {
		if err := s.ListenAndServe(); err != nil {
			panic(err)
		}
	}()

	<-ch
	server := Server{inner: s}
	if network == dnsbench.UDPTransport {
		server.Addr = s.PacketConn.LocalAddr().String()
	} else {
		server.Addr = s.Listener.Addr().String()
	}
	return &server
}

// A creates A resource record from string.
func A(rr string) *dns.A { r, _ := dns.NewRR(rr); return r.(*dns.A) }

// selfSignedTLSConfig returns server TLS configuration carrying the self-signed certificate of httptest,
// the certificate is valid for 127.0.0.1, so clients have to skip verification.
func selfSignedTLSConfig(nextProtos ...string) *tls.Config {
	ts := httptest.NewUnstartedServer(http.NotFoundHandler())
	ts.StartTLS()
	defer ts.Close()

	return &tls.Config{
		Certificates: ts.TLS.Certificates,
		NextProtos:   nextProtos,
		MinVersion:   tls.VersionTLS12,
	}
}

// DoQServer is simple DNS over QUIC server answering every query using the handler.
type DoQServer struct {
	Addr     string
	listener *quic.Listener
	closed   atomic.Bool
}

// NewDoQServer creates and starts new DoQ server instance listening on localhost.
func NewDoQServer(f func(r *dns.Msg) *dns.Msg) *DoQServer {
	listener, err := quic.ListenAddr("127.0.0.1:0", selfSignedTLSConfig("doq"), nil)
	if err != nil {
		panic(err)
	}
	server := &DoQServer{Addr: listener.Addr().String(), listener: listener}

	go func() {
		for {
			conn, err := listener.Accept(context.Background())
			if err != nil {
				if !server.closed.Load() {
					panic(err)
				}
				return
			}
			go serveDoQConn(conn, f)
		}
	}()
	return server
}

// Close shuts down running DoQ server instance.
func (s *DoQServer) Close() {
	if !s.closed.Swap(true) {
		_ = s.listener.Close()
	}
}

func serveDoQConn(conn quic.Connection, f func(r *dns.Msg) *dns.Msg) {
	for {
		stream, err := conn.AcceptStream(context.Background())
		if err != nil {
			return
		}
		req, err := readDoQMessage(stream)
		if err != nil {
			return
		}
		pack, err := f(req).Pack()
		if err != nil {
			return
		}
		// DoQ messages are prefixed by 2-octet length, see https://www.rfc-editor.org/rfc/rfc9250.html#section-4.2
		buf := make([]byte, 2+len(pack))
		// nolint:gosec
		binary.BigEndian.PutUint16(buf, uint16(len(pack)))
		copy(buf[2:], pack)
		_, _ = stream.Write(buf)
		_ = stream.Close()
	}
}

func readDoQMessage(r io.Reader) (*dns.Msg, error) {
	sizeBuf := make([]byte, 2)
	if _, err := io.ReadFull(r, sizeBuf); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint16(sizeBuf)
	if size == 0 {
		return nil, errors.New("message size is 0")
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	msg := &dns.Msg{}
	if err := msg.Unpack(buf); err != nil {
		return nil, err
	}
	return msg, nil
}
