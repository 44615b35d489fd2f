package dnsbench

import "fmt"

// MethodKind is a kind of the resolver method. The set of kinds is closed, every kind
// has exactly one adapter in the query factory.
type MethodKind int

const (
	// IPv4 is a plain DNS nameserver reachable over IPv4.
	IPv4 MethodKind = iota
	// IPv6 is a plain DNS nameserver reachable over IPv6.
	IPv6
	// DoH is a DNS over HTTPS endpoint.
	DoH
	// DoT is a DNS over TLS server.
	DoT
	// DoQ is a DNS over QUIC server.
	DoQ
)

var methodKindNames = map[MethodKind]string{
	IPv4: "IPv4",
	IPv6: "IPv6",
	DoH:  "DoH",
	DoT:  "DoT",
	DoQ:  "DoQ",
}

func (k MethodKind) String() string {
	if s, ok := methodKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("MethodKind(%d)", int(k))
}

// Method represents one concrete way of querying a domain, a specific nameserver address or
// a specific DoH/DoT/DoQ endpoint of a resolver.
type Method struct {
	// ID is a position of the method in the enumeration of all methods of a sweep.
	ID int
	// Resolver is a display name of the resolver the method belongs to.
	Resolver string
	// Location of the resolver.
	Location string
	Kind     MethodKind
	// Address is nameserver IP address, DoT/DoQ host[:port] or DoH URL.
	Address string
}

// Name returns human-readable name of the method.
func (m Method) Name() string {
	return m.Kind.String()
}

func (m Method) String() string {
	return fmt.Sprintf("%s %s (%s)", m.Resolver, m.Kind, m.Address)
}

// Resolver represents a named group of resolver methods.
type Resolver struct {
	Name        string
	Location    string
	Description string
	IPv4        []string
	IPv6        []string
	DoH         []string
	DoT         []string
	DoQ         []string
}

// Methods expands resolvers into methods, each address or URL becomes one method.
// Methods are ordered by resolver and then by kind (IPv4, IPv6, DoH, DoT, DoQ).
func Methods(resolvers []Resolver) []Method {
	var methods []Method
	for _, r := range resolvers {
		groups := []struct {
			kind  MethodKind
			addrs []string
		}{
			{IPv4, r.IPv4},
			{IPv6, r.IPv6},
			{DoH, r.DoH},
			{DoT, r.DoT},
			{DoQ, r.DoQ},
		}
		for _, g := range groups {
			for _, addr := range g.addrs {
				methods = append(methods, Method{
					ID:       len(methods),
					Resolver: r.Name,
					Location: r.Location,
					Kind:     g.kind,
					Address:  addr,
				})
			}
		}
	}
	return methods
}
