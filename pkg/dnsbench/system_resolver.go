package dnsbench

import "net/netip"

// SystemResolverName is a name of the resolver representing system default nameserver.
const SystemResolverName = "System"

// SystemResolver returns resolver with the system default nameserver.
func SystemResolver() Resolver {
	return systemResolver(DefaultNameServer())
}

func systemResolver(ns string) Resolver {
	r := Resolver{
		Name:        SystemResolverName,
		Location:    "local",
		Description: "system default nameserver",
	}
	if ip, err := netip.ParseAddr(ns); err == nil && ip.Is6() && !ip.Is4In6() {
		r.IPv6 = []string{ns}
	} else {
		r.IPv4 = []string{ns}
	}
	return r
}
