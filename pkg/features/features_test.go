package features

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	ns, mx  int
	ttl     uint32
	addrs   []string
	err     error
	queried []string
}

func (f *fakeResolver) Nameservers(ctx context.Context, domain string) (int, uint32, error) {
	return f.ns, f.ttl, f.err
}

func (f *fakeResolver) MailServers(ctx context.Context, domain string) (int, error) {
	return f.mx, f.err
}

func (f *fakeResolver) Addresses(ctx context.Context, host string) ([]string, error) {
	return f.addrs, f.err
}

type fakeProber struct {
	secs      float64
	redirects int
	err       error
}

func (f fakeProber) Probe(ctx context.Context, rawURL string) (float64, int, error) {
	return f.secs, f.redirects, f.err
}

type fakeRegistry struct {
	created, expires time.Time
	domain           chan string
}

func (f fakeRegistry) Dates(ctx context.Context, domain string) (time.Time, time.Time, error) {
	if f.domain != nil {
		f.domain <- domain
	}
	return f.created, f.expires, nil
}

type fakeASN struct{ gotIP chan string }

func (f fakeASN) ASN(ctx context.Context, ip string) (int, error) {
	f.gotIP <- ip
	return 15169, nil
}

func TestExtract_Lexical(t *testing.T) {
	e := NewExtractor(nil, time.Second, false)
	v, err := e.Extract(context.Background(), "http://sub.ex-ample.com/login-page/secure/account.verify.php")
	require.NoError(t, err)
	require.Len(t, v, Count)

	assert.Equal(t, float64(len("/login-page/secure")), v[DirectoryLength])
	assert.Equal(t, float64(len("http://sub.ex-ample.com/login-page/secure/account.verify.php")), v[LengthURL])
	assert.Equal(t, 2.0, v[QtyDotDomain])
	assert.Equal(t, float64(len("sub.ex-ample.com")), v[DomainLength])
	assert.Equal(t, 5.0, v[QtySlashURL])
	assert.Equal(t, 1.0, v[QtyHyphenDirectory])
	assert.Equal(t, 5.0, v[QtyVowelsDomain]) // u e a e o
	assert.Equal(t, float64(len("account.verify.php")), v[FileLength])
	assert.Equal(t, 2.0, v[QtySlashDirectory])
	assert.Equal(t, 4.0, v[QtyDotURL])
	assert.Equal(t, 2.0, v[QtyDotFile])
}

func TestExtract_FallbacksWithoutSources(t *testing.T) {
	v, err := NewExtractor(nil, time.Second, false).Extract(context.Background(), "http://example.com/")
	require.NoError(t, err)

	assert.Equal(t, -1.0, v[TimeDomainActivation])
	assert.Equal(t, 0.0, v[ASNIP])
	assert.Equal(t, 0.207, v[TimeResponse])
	assert.Equal(t, 0.0, v[TTLHostname])
	assert.Equal(t, -1.0, v[TimeDomainExpiration])
	assert.Equal(t, 0.0, v[QtyNameservers])
	assert.Equal(t, 0.0, v[QtyMXServers])
	assert.Equal(t, -1.0, v[QtyIPResolved])
	assert.Equal(t, -1.0, v[QtyRedirects])
}

func TestExtract_NoSchemeIsAllPath(t *testing.T) {
	v, err := NewExtractor(nil, time.Second, false).Extract(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v[DomainLength])
	assert.Equal(t, float64(len("example.com")), v[DirectoryLength])
	assert.Equal(t, float64(len("example.com")), v[FileLength])
}

func TestExtract_EmptyURL(t *testing.T) {
	_, err := NewExtractor(nil, time.Second, false).Extract(context.Background(), "  ")
	assert.True(t, errors.Is(err, ErrNoFeatures))
}

func TestExtract_WithSources(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	domains := make(chan string, 1)
	ips := make(chan string, 1)
	src := &Sources{
		Resolver: &fakeResolver{ns: 4, ttl: 172800, mx: 2, addrs: []string{"2001:db8::1", "93.184.216.34"}},
		Prober:   fakeProber{secs: 0.5, redirects: 3},
		Registry: fakeRegistry{
			created: now.Add(-10 * 24 * time.Hour),
			expires: now.Add(36*time.Hour + 24*time.Hour*364),
			domain:  domains,
		},
		ASN: fakeASN{gotIP: ips},
	}
	e := NewExtractor(src, time.Second, false)
	e.now = func() time.Time { return now }

	v, err := e.Extract(context.Background(), "https://login.example.co.uk/a")
	require.NoError(t, err)

	assert.Equal(t, "example.co.uk", <-domains)
	assert.Equal(t, "93.184.216.34", <-ips)
	assert.Equal(t, 10.0, v[TimeDomainActivation])
	assert.Equal(t, 365.0, v[TimeDomainExpiration])
	assert.Equal(t, 15169.0, v[ASNIP])
	assert.Equal(t, 0.5, v[TimeResponse])
	assert.Equal(t, 3.0, v[QtyRedirects])
	assert.Equal(t, 172800.0, v[TTLHostname])
	assert.Equal(t, 4.0, v[QtyNameservers])
	assert.Equal(t, 2.0, v[QtyMXServers])
	assert.Equal(t, 2.0, v[QtyIPResolved])
}

func TestExtract_FailingSourcesKeepFallbacks(t *testing.T) {
	boom := errors.New("boom")
	src := &Sources{
		Resolver: &fakeResolver{err: boom},
		Prober:   fakeProber{err: boom},
	}
	v, err := NewExtractor(src, time.Second, false).Extract(context.Background(), "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, 0.207, v[TimeResponse])
	assert.Equal(t, -1.0, v[QtyRedirects])
	assert.Equal(t, -1.0, v[QtyIPResolved])
	assert.Equal(t, 0.0, v[QtyNameservers])
}

func TestDays_FloorsNegative(t *testing.T) {
	assert.Equal(t, -1.0, days(-time.Hour))
	assert.Equal(t, 0.0, days(23*time.Hour))
	assert.Equal(t, 1.0, days(25*time.Hour))
}

func TestVectorMap(t *testing.T) {
	v := make(Vector, Count)
	v[QtyDotURL] = 7
	m := v.Map()
	assert.Len(t, m, len(Names))
	assert.Equal(t, 7.0, m["qty_dot_url"])
}
