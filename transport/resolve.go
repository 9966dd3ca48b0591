//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop connect.go (resolve step split out of dial).
//

package transport

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/miekg/dns"
	"github.com/reactorhttp/reactor"
)

// Resolver abstracts hostname resolution so the transport's resolve() step
// (spec §4.1) can be satisfied either by the standard library or by a
// caller-supplied DNS client.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]netip.Addr, error)
}

// SystemResolver resolves using [*net.Resolver], the default.
type SystemResolver struct {
	Resolver *net.Resolver
}

var _ Resolver = SystemResolver{}

// LookupHost implements [Resolver].
func (r SystemResolver) LookupHost(ctx context.Context, host string) ([]netip.Addr, error) {
	res := r.Resolver
	if res == nil {
		res = net.DefaultResolver
	}
	addrs, err := res.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

// DNSResolver resolves A/AAAA records by querying a DNS server directly
// over UDP using github.com/miekg/dns, bypassing the OS resolver. This is
// useful when a caller needs to pin a specific resolver (e.g. for testing
// against a local DNS fixture) rather than relying on system configuration.
type DNSResolver struct {
	// Server is the "host:port" of the DNS server to query.
	Server string

	// Client performs the exchange. Defaults to a plain UDP client with a
	// 5s timeout when nil.
	Client *dns.Client

	Logger        reactor.SLogger
	ErrClassifier reactor.ErrClassifier
}

var _ Resolver = &DNSResolver{}

// LookupHost implements [Resolver] by issuing an A query against Server.
func (r *DNSResolver) LookupHost(ctx context.Context, host string) ([]netip.Addr, error) {
	client := r.Client
	if client == nil {
		client = &dns.Client{Net: "udp", Timeout: 5 * time.Second}
	}
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	t0 := time.Now()
	r.logStart(host, t0)
	reply, _, err := client.ExchangeContext(ctx, msg, r.Server)
	r.logDone(host, t0, reply, err)
	if err != nil {
		return nil, err
	}

	var out []netip.Addr
	for _, rr := range reply.Answer {
		if a, ok := rr.(*dns.A); ok {
			if addr, ok := netip.AddrFromSlice(a.A); ok {
				out = append(out, addr.Unmap())
			}
		}
	}
	if len(out) == 0 {
		return nil, &net.DNSError{Err: "no A records", Name: host, IsNotFound: true}
	}
	return out, nil
}

func (r *DNSResolver) logStart(host string, t0 time.Time) {
	if r.Logger == nil {
		return
	}
	r.Logger.Info("dnsExchangeStart", slog.String("host", host), slog.String("server", r.Server), slog.Time("t", t0))
}

func (r *DNSResolver) logDone(host string, t0 time.Time, reply *dns.Msg, err error) {
	if r.Logger == nil {
		return
	}
	var class string
	if r.ErrClassifier != nil {
		class = r.ErrClassifier.Classify(err)
	}
	answers := 0
	if reply != nil {
		answers = len(reply.Answer)
	}
	r.Logger.Info(
		"dnsExchangeDone",
		slog.String("host", host),
		slog.String("server", r.Server),
		slog.Int("answers", answers),
		slog.Any("err", err),
		slog.String("errClass", class),
		slog.Time("t0", t0),
		slog.Time("t", time.Now()),
	)
}

// joinHostPort is a small helper kept local to avoid importing net just for
// this in call sites that already import net/netip.
func joinHostPort(host, port string) string {
	return net.JoinHostPort(host, port)
}

// addrPorts turns resolved addresses plus a port string into endpoints,
// mirroring what [*net.Resolver] + [net.SplitHostPort] would hand a dialer.
func addrPorts(addrs []netip.Addr, port string) ([]netip.AddrPort, error) {
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return nil, err
	}
	out := make([]netip.AddrPort, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, netip.AddrPortFrom(a, uint16(p)))
	}
	return out, nil
}
