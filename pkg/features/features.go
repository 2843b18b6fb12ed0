// Package features turns a URL into the fixed-order numeric vector the
// classifier scores. Lexical features are computed locally; the rest come
// from DNS, RDAP and HTTP probes that fall back to fixed values on failure.
package features

import (
	"context"
	"errors"
	"log"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Names lists the features in vector order.
var Names = []string{
	"directory_length",
	"time_domain_activation",
	"asn_ip",
	"time_response",
	"length_url",
	"ttl_hostname",
	"qty_dot_domain",
	"time_domain_expiration",
	"qty_nameservers",
	"domain_length",
	"qty_slash_url",
	"qty_mx_servers",
	"qty_hyphen_directory",
	"qty_vowels_domain",
	"qty_ip_resolved",
	"file_length",
	"qty_redirects",
	"qty_slash_directory",
	"qty_dot_url",
	"qty_dot_file",
}

// Vector indexes.
const (
	DirectoryLength = iota
	TimeDomainActivation
	ASNIP
	TimeResponse
	LengthURL
	TTLHostname
	QtyDotDomain
	TimeDomainExpiration
	QtyNameservers
	DomainLength
	QtySlashURL
	QtyMXServers
	QtyHyphenDirectory
	QtyVowelsDomain
	QtyIPResolved
	FileLength
	QtyRedirects
	QtySlashDirectory
	QtyDotURL
	QtyDotFile
	Count
)

// Values used when a probe fails.
const (
	fallbackDomainAge   = -1
	fallbackASN         = 0
	fallbackResponse    = 0.207
	fallbackTTL         = 0
	fallbackExpiration  = -1
	fallbackNameservers = 0
	fallbackMX          = 0
	fallbackIPResolved  = -1
	fallbackRedirects   = -1
)

// ErrNoFeatures is returned when there is nothing to extract from. A blank
// URL would otherwise score on fallback values alone, so the endpoint answers
// it with the error tag instead of a verdict.
var ErrNoFeatures = errors.New("no features: empty url")

// Vector holds one value per entry of Names.
type Vector []float64

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, len(v))
	for i, val := range v {
		if i < len(Names) {
			m[Names[i]] = val
		}
	}
	return m
}

// Resolver answers the DNS questions the extractor asks.
type Resolver interface {
	Nameservers(ctx context.Context, domain string) (count int, ttl uint32, err error)
	MailServers(ctx context.Context, domain string) (int, error)
	Addresses(ctx context.Context, host string) ([]string, error)
}

// Prober fetches a URL and reports how long it took and how often it redirected.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (seconds float64, redirects int, err error)
}

// Registry looks up a domain's registration and expiration dates.
type Registry interface {
	Dates(ctx context.Context, domain string) (created, expires time.Time, err error)
}

// ASNLookup maps an IP address to its autonomous system number.
type ASNLookup interface {
	ASN(ctx context.Context, ip string) (int, error)
}

// Sources bundles the network lookups. Any nil member is skipped and its
// features get their fallback values.
type Sources struct {
	Resolver Resolver
	Prober   Prober
	Registry Registry
	ASN      ASNLookup
}

// Extractor computes feature vectors.
type Extractor struct {
	src     Sources
	timeout time.Duration
	now     func() time.Time
	verbose bool
}

// NewExtractor creates an Extractor. A nil src extracts lexical features
// only. timeout bounds each individual probe.
func NewExtractor(src *Sources, timeout time.Duration, verbose bool) *Extractor {
	e := &Extractor{timeout: timeout, now: time.Now, verbose: verbose}
	if src != nil {
		e.src = *src
	}
	return e
}

// Extract returns the feature vector for rawURL. Probe failures never fail
// extraction; only an empty URL does.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (Vector, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrNoFeatures
	}

	v := make(Vector, Count)
	parts := split(rawURL)
	e.lexical(v, rawURL, parts)

	v[TimeDomainActivation] = fallbackDomainAge
	v[ASNIP] = fallbackASN
	v[TimeResponse] = fallbackResponse
	v[TTLHostname] = fallbackTTL
	v[TimeDomainExpiration] = fallbackExpiration
	v[QtyNameservers] = fallbackNameservers
	v[QtyMXServers] = fallbackMX
	v[QtyIPResolved] = fallbackIPResolved
	v[QtyRedirects] = fallbackRedirects

	e.probe(ctx, v, rawURL, parts)
	return v, nil
}

// urlParts are the pieces of a URL the features are computed from.
type urlParts struct {
	domain     string // host[:port] as written
	hostname   string // host without port
	directory  string // path up to the last slash
	file       string // path after the last slash
	registered string // eTLD+1 of hostname
}

func split(rawURL string) urlParts {
	var p urlParts
	u, err := url.Parse(rawURL)
	if err != nil {
		return p
	}
	p.domain = u.Host
	p.hostname = u.Hostname()

	path := u.Path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		p.directory = path[:i]
		p.file = path[i+1:]
	} else {
		p.directory = path
		p.file = path
	}

	if p.hostname != "" {
		if reg, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(p.hostname)); err == nil {
			p.registered = reg
		}
	}
	return p
}

func (e *Extractor) lexical(v Vector, rawURL string, p urlParts) {
	v[DirectoryLength] = float64(len(p.directory))
	v[LengthURL] = float64(len(rawURL))
	v[QtyDotDomain] = float64(strings.Count(p.domain, "."))
	v[DomainLength] = float64(len(p.domain))
	v[QtySlashURL] = float64(strings.Count(rawURL, "/"))
	v[QtyHyphenDirectory] = float64(strings.Count(p.directory, "-"))
	v[QtyVowelsDomain] = float64(countVowels(p.domain))
	v[FileLength] = float64(len(p.file))
	v[QtySlashDirectory] = float64(strings.Count(p.directory, "/"))
	v[QtyDotURL] = float64(strings.Count(rawURL, "."))
	v[QtyDotFile] = float64(strings.Count(p.file, "."))
}

func countVowels(s string) int {
	n := 0
	for _, c := range s {
		switch c {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			n++
		}
	}
	return n
}

// probe runs the network lookups concurrently. Each goroutine owns
// distinct vector slots.
func (e *Extractor) probe(ctx context.Context, v Vector, rawURL string, p urlParts) {
	var wg sync.WaitGroup
	run := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var pctx context.Context
			var cancel context.CancelFunc
			if e.timeout > 0 {
				pctx, cancel = context.WithTimeout(ctx, e.timeout)
			} else {
				pctx, cancel = context.WithCancel(ctx)
			}
			defer cancel()
			if err := fn(pctx); err != nil && e.verbose {
				log.Printf("[i] probe %s for %s: %v", name, rawURL, err)
			}
		}()
	}

	if r := e.src.Resolver; r != nil && p.registered != "" {
		run("ns", func(ctx context.Context) error {
			count, ttl, err := r.Nameservers(ctx, p.registered)
			if err != nil {
				return err
			}
			v[QtyNameservers] = float64(count)
			v[TTLHostname] = float64(ttl)
			return nil
		})
		run("mx", func(ctx context.Context) error {
			count, err := r.MailServers(ctx, p.registered)
			if err != nil {
				return err
			}
			v[QtyMXServers] = float64(count)
			return nil
		})
	}

	if r := e.src.Resolver; r != nil && p.hostname != "" {
		run("addresses", func(ctx context.Context) error {
			addrs, err := r.Addresses(ctx, p.hostname)
			if err != nil {
				return err
			}
			v[QtyIPResolved] = float64(len(addrs))
			if e.src.ASN == nil || len(addrs) == 0 {
				return nil
			}
			asn, err := e.src.ASN.ASN(ctx, firstIPv4(addrs))
			if err != nil {
				return err
			}
			v[ASNIP] = float64(asn)
			return nil
		})
	}

	if pr := e.src.Prober; pr != nil {
		run("http", func(ctx context.Context) error {
			secs, redirects, err := pr.Probe(ctx, rawURL)
			if err != nil {
				return err
			}
			v[TimeResponse] = secs
			v[QtyRedirects] = float64(redirects)
			return nil
		})
	}

	if reg := e.src.Registry; reg != nil && p.registered != "" {
		run("rdap", func(ctx context.Context) error {
			created, expires, err := reg.Dates(ctx, p.registered)
			if err != nil {
				return err
			}
			now := e.now()
			if !created.IsZero() {
				v[TimeDomainActivation] = days(now.Sub(created))
			}
			if !expires.IsZero() {
				v[TimeDomainExpiration] = days(expires.Sub(now))
			}
			return nil
		})
	}

	wg.Wait()
}

// days counts whole days, rounding toward negative infinity.
func days(d time.Duration) float64 {
	return math.Floor(d.Hours() / 24)
}

func firstIPv4(addrs []string) string {
	for _, a := range addrs {
		if !strings.Contains(a, ":") {
			return a
		}
	}
	return addrs[0]
}
