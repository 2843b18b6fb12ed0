package features

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nxneeraj/phishwatch/pkg/httpclient"
)

const (
	DefaultRDAPBase  = "https://rdap.org"
	DefaultIPAPIBase = "https://ipapi.co"
)

// HTTPProber times a GET of the target and counts its redirects.
type HTTPProber struct {
	client *httpclient.CustomClient
}

// NewHTTPProber creates an HTTPProber using client.
func NewHTTPProber(client *httpclient.CustomClient) *HTTPProber {
	return &HTTPProber{client: client}
}

func (p *HTTPProber) Probe(ctx context.Context, rawURL string) (float64, int, error) {
	resp, err := p.client.Fetch(ctx, rawURL)
	if err != nil {
		return 0, 0, err
	}
	return resp.Duration, resp.Redirects, nil
}

// RDAPRegistry reads registration dates from an RDAP service.
type RDAPRegistry struct {
	client *httpclient.CustomClient
	base   string
}

// NewRDAPRegistry queries base, or DefaultRDAPBase when base is empty.
func NewRDAPRegistry(client *httpclient.CustomClient, base string) *RDAPRegistry {
	if base == "" {
		base = DefaultRDAPBase
	}
	return &RDAPRegistry{client: client, base: strings.TrimRight(base, "/")}
}

type rdapDomain struct {
	Events []struct {
		Action string `json:"eventAction"`
		Date   string `json:"eventDate"`
	} `json:"events"`
}

func (r *RDAPRegistry) Dates(ctx context.Context, domain string) (created, expires time.Time, err error) {
	resp, err := r.client.Fetch(ctx, r.base+"/domain/"+url.PathEscape(domain))
	if err != nil {
		return created, expires, err
	}
	if resp.StatusCode != 200 {
		return created, expires, fmt.Errorf("rdap %s: status %d", domain, resp.StatusCode)
	}

	var doc rdapDomain
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return created, expires, fmt.Errorf("rdap %s: %w", domain, err)
	}
	for _, ev := range doc.Events {
		t, perr := time.Parse(time.RFC3339, ev.Date)
		if perr != nil {
			continue
		}
		switch ev.Action {
		case "registration":
			created = t
		case "expiration":
			expires = t
		}
	}
	if created.IsZero() && expires.IsZero() {
		return created, expires, fmt.Errorf("rdap %s: no registration or expiration event", domain)
	}
	return created, expires, nil
}

// IPAPILookup asks an ipapi.co compatible service for an address's ASN.
type IPAPILookup struct {
	client *httpclient.CustomClient
	base   string
}

// NewIPAPILookup queries base, or DefaultIPAPIBase when base is empty.
func NewIPAPILookup(client *httpclient.CustomClient, base string) *IPAPILookup {
	if base == "" {
		base = DefaultIPAPIBase
	}
	return &IPAPILookup{client: client, base: strings.TrimRight(base, "/")}
}

func (l *IPAPILookup) ASN(ctx context.Context, ip string) (int, error) {
	resp, err := l.client.Fetch(ctx, l.base+"/"+url.PathEscape(ip)+"/asn/")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != 200 {
		return 0, fmt.Errorf("asn %s: status %d", ip, resp.StatusCode)
	}
	return parseASN(string(resp.Body))
}

// parseASN accepts "AS15169" or "15169".
func parseASN(s string) (int, error) {
	s = strings.Trim(strings.TrimSpace(s), "AS")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("asn %q: %w", s, err)
	}
	return n, nil
}

// NewNetworkSources wires the real DNS, HTTP, RDAP and ASN lookups.
func NewNetworkSources(dnsServer string, timeout time.Duration) *Sources {
	api := httpclient.NewClient(timeout)
	return &Sources{
		Resolver: NewDNSResolver(dnsServer, timeout),
		Prober:   NewHTTPProber(httpclient.NewProbeClient(timeout)),
		Registry: NewRDAPRegistry(api, ""),
		ASN:      NewIPAPILookup(api, ""),
	}
}
