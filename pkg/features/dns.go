package features

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// DNSResolver queries a nameserver directly so record TTLs are visible.
// With no nameserver it falls back to the system resolver, which reports
// counts but no TTLs.
type DNSResolver struct {
	client *dns.Client
	server string
}

// NewDNSResolver creates a resolver for server (host:port). An empty
// server means the first entry of /etc/resolv.conf.
func NewDNSResolver(server string, timeout time.Duration) *DNSResolver {
	if server == "" {
		if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
			server = net.JoinHostPort(conf.Servers[0], conf.Port)
		}
	}
	return &DNSResolver{
		client: &dns.Client{
			Net:          "udp",
			Timeout:      timeout,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		server: server,
	}
}

func (r *DNSResolver) query(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	in, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, err
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%s %s: %s", dns.TypeToString[qtype], name, dns.RcodeToString[in.Rcode])
	}
	return in.Answer, nil
}

// Nameservers returns the NS record count and the TTL of the NS RRset.
func (r *DNSResolver) Nameservers(ctx context.Context, domain string) (int, uint32, error) {
	if r.server == "" {
		ns, err := net.DefaultResolver.LookupNS(ctx, domain)
		return len(ns), 0, err
	}

	answer, err := r.query(ctx, domain, dns.TypeNS)
	if err != nil {
		return 0, 0, err
	}
	count, ttl := 0, uint32(0)
	for _, rr := range answer {
		if ns, ok := rr.(*dns.NS); ok {
			if count == 0 {
				ttl = ns.Hdr.Ttl
			}
			count++
		}
	}
	if count == 0 {
		return 0, 0, fmt.Errorf("NS %s: no answer", domain)
	}
	return count, ttl, nil
}

// MailServers returns the MX record count.
func (r *DNSResolver) MailServers(ctx context.Context, domain string) (int, error) {
	if r.server == "" {
		mx, err := net.DefaultResolver.LookupMX(ctx, domain)
		return len(mx), err
	}

	answer, err := r.query(ctx, domain, dns.TypeMX)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, rr := range answer {
		if _, ok := rr.(*dns.MX); ok {
			count++
		}
	}
	return count, nil
}

// Addresses returns the A and AAAA addresses of host. An IP literal
// resolves to itself.
func (r *DNSResolver) Addresses(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{ip.String()}, nil
	}
	if r.server == "" {
		return net.DefaultResolver.LookupHost(ctx, host)
	}

	var addrs []string
	var lastErr error
	for _, qt := range []uint16{dns.TypeA, dns.TypeAAAA} {
		answer, err := r.query(ctx, host, qt)
		if err != nil {
			lastErr = err
			continue
		}
		for _, rr := range answer {
			switch a := rr.(type) {
			case *dns.A:
				addrs = append(addrs, a.A.String())
			case *dns.AAAA:
				addrs = append(addrs, a.AAAA.String())
			}
		}
	}
	if len(addrs) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("%s: no addresses", host)
		}
		return nil, lastErr
	}
	return addrs, nil
}
