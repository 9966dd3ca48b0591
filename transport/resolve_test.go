// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// startFakeDNSServer answers every UDP query with a single A record
// pointing at answerIP.
func startFakeDNSServer(t *testing.T, answerIP string) string {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 512)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			var query dns.Msg
			if err := query.Unpack(buf[:n]); err != nil {
				continue
			}
			reply := new(dns.Msg)
			reply.SetReply(&query)
			if len(query.Question) > 0 {
				rr, err := dns.NewRR(query.Question[0].Name + " 60 IN A " + answerIP)
				if err == nil {
					reply.Answer = append(reply.Answer, rr)
				}
			}
			packed, err := reply.Pack()
			if err != nil {
				continue
			}
			conn.WriteToUDP(packed, addr)
		}
	}()
	return conn.LocalAddr().String()
}

func TestDNSResolverLookupHostReturnsAnswer(t *testing.T) {
	server := startFakeDNSServer(t, "93.184.216.34")

	resolver := &DNSResolver{Server: server}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	addrs, err := resolver.LookupHost(ctx, "example.com")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	require.Equal(t, "93.184.216.34", addrs[0].String())
}

func TestDNSResolverLookupHostNoAnswerIsNotFound(t *testing.T) {
	server := startFakeDNSServer(t, "")
	// Override the answer building by querying a name our fake server
	// will fail to synthesize an RR for (empty IP yields invalid RR,
	// silently skipped, so Answer stays empty).
	resolver := &DNSResolver{Server: server, Client: &dns.Client{Net: "udp", Timeout: 2 * time.Second}}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := resolver.LookupHost(ctx, "nowhere.invalid")
	require.Error(t, err)
}
