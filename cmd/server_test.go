package cmd

import (
	"github.com/miekg/dns"

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

// NewServer creates and starts new UDP DNS server instance.
func NewServer(f dns.HandlerFunc) *Server {
	ch := make(chan bool)
	s := &dns.Server{Net: dnsbench.UDPTransport, Addr: "127.0.0.1:0", NotifyStartedFunc: func() { close(ch) }, Handler: f}

	go func() {
		if err := s.ListenAndServe(); err != nil {
			panic(err)
		}
	}()

	<-ch
	return &Server{inner: s, Addr: s.PacketConn.LocalAddr().String()}
}
