package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	UserAgent    = "phishwatch (github.com/nxneeraj/phishwatch)"
	maxRedirects = 10
)

// CustomClient holds the configured HTTP client.
type CustomClient struct {
	Client *http.Client
}

// Response is what a request produced, with timing.
type Response struct {
	FinalURL   string
	StatusCode int
	Body       []byte
	Redirects  int
	Duration   float64 // seconds
}

// NewClient creates a new HTTP client with custom settings.
// A zero timeout means requests are never cut short by the client.
func NewClient(timeout time.Duration) *CustomClient {
	return &CustomClient{Client: &http.Client{
		Timeout:       timeout,
		Transport:     newTransport(false),
		CheckRedirect: limitRedirects,
	}}
}

// NewProbeClient creates a client for probing the sites being classified.
// Certificates are not verified.
func NewProbeClient(timeout time.Duration) *CustomClient {
	return &CustomClient{Client: &http.Client{
		Timeout:       timeout,
		Transport:     newTransport(true),
		CheckRedirect: limitRedirects,
	}}
}

func newTransport(insecure bool) *http.Transport {
	return &http.Transport{
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: insecure},
		Proxy:                 http.ProxyFromEnvironment, // Respect environment proxy settings
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return http.ErrUseLastResponse
	}
	return nil
}

// PostJSON encodes body as JSON and POSTs it to urlStr. The response body is
// returned whatever the status code; interpreting it is the caller's job.
func (c *CustomClient) PostJSON(ctx context.Context, urlStr string, body any, header http.Header) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	return c.do(req)
}

// Fetch performs a GET request to the specified URL.
func (c *CustomClient) Fetch(ctx context.Context, urlStr string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	return c.do(req)
}

func (c *CustomClient) do(req *http.Request) (*Response, error) {
	startTime := time.Now()

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &Response{
		FinalURL:   resp.Request.URL.String(), // URL after any redirects
		StatusCode: resp.StatusCode,
		Redirects:  countRedirects(resp),
	}

	out.Body, err = io.ReadAll(resp.Body)
	out.Duration = time.Since(startTime).Seconds()
	if err != nil {
		log.Printf("[!] Error reading response body for %s: %v", out.FinalURL, err)
		return out, err
	}
	return out, nil
}

// countRedirects walks back through the responses that caused each hop.
func countRedirects(resp *http.Response) int {
	n := 0
	for r := resp.Request; r != nil && r.Response != nil; r = r.Response.Request {
		n++
	}
	return n
}
