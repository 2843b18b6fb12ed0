// Package requester implements one user-triggered URL check: it shows a
// loading indicator, POSTs the URL to the classification endpoint and
// replaces the indicator with exactly one result.
package requester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/nxneeraj/phishwatch/pkg/httpclient"
	"github.com/nxneeraj/phishwatch/pkg/types"
)

// Texts shown on the presentation surface.
const (
	TextPhishing           = "Phishing!!"
	TextLegitimate         = "Legitimate"
	TextAnalysisError      = "Error in URL analysis"
	TextCommunicationError = "Error in communication"
)

var (
	// ErrCommunication means the request did not complete or the reply was not usable JSON.
	ErrCommunication = errors.New("communication failure")
	// ErrAnalysisAmbiguous means the endpoint replied but with no known result tag.
	ErrAnalysisAmbiguous = errors.New("ambiguous analysis result")
)

// Presenter is the display surface a Requester drives.
type Presenter interface {
	SetLoading(visible bool)
	SetResult(text string, color types.ColorTag)
}

// Requester sends URLs to the classification endpoint.
type Requester struct {
	endpoint  string
	client    *httpclient.CustomClient
	presenter Presenter
	logger    *log.Logger
	verbose   bool
}

// Option configures a Requester.
type Option func(*Requester)

// WithClient replaces the default client, which has no timeout.
func WithClient(c *httpclient.CustomClient) Option {
	return func(r *Requester) { r.client = c }
}

// WithLogger sets the diagnostic log failures are written to.
func WithLogger(l *log.Logger) Option {
	return func(r *Requester) { r.logger = l }
}

// WithVerbose logs every cycle, not only failures.
func WithVerbose(v bool) Option {
	return func(r *Requester) { r.verbose = v }
}

// New creates a Requester posting to endpoint and rendering on p.
func New(endpoint string, p Presenter, opts ...Option) *Requester {
	r := &Requester{
		endpoint:  endpoint,
		presenter: p,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = httpclient.NewClient(0)
	}
	return r
}

// Submit runs one check cycle for rawURL and returns the terminal state.
// The URL is sent exactly as given. Loading is switched on once and off once.
func (r *Requester) Submit(ctx context.Context, rawURL string) types.UIState {
	cycleID := uuid.New().String()

	r.presenter.SetLoading(true)
	r.presenter.SetResult("", types.ColorNone)
	if r.verbose {
		r.logger.Printf("[i] [%s] Checking %q via %s", cycleID, rawURL, r.endpoint)
	}

	tag, err := r.classify(ctx, cycleID, rawURL)
	state, text, color := render(tag, err)

	r.presenter.SetLoading(false)
	r.presenter.SetResult(text, color)

	switch {
	case errors.Is(err, ErrCommunication):
		r.logger.Printf("[!] [%s] Error: %v", cycleID, err)
	case err != nil && r.verbose:
		r.logger.Printf("[i] [%s] %v", cycleID, err)
	case r.verbose:
		r.logger.Printf("[i] [%s] Result: %s", cycleID, state)
	}
	return state
}

// Trigger starts a check cycle in the background and returns at once.
// Overlapping triggers are not serialized: whichever finishes last owns
// the display.
func (r *Requester) Trigger(rawURL string) <-chan types.UIState {
	done := make(chan types.UIState, 1)
	go func() {
		done <- r.Submit(context.Background(), rawURL)
	}()
	return done
}

// Classify asks the endpoint about rawURL without touching the display.
// It returns one of the known result tags, or an error wrapping
// ErrCommunication or ErrAnalysisAmbiguous.
func (r *Requester) Classify(ctx context.Context, rawURL string) (string, error) {
	return r.classify(ctx, uuid.New().String(), rawURL)
}

func (r *Requester) classify(ctx context.Context, cycleID, rawURL string) (string, error) {
	header := http.Header{"X-Request-ID": {cycleID}}
	resp, err := r.client.PostJSON(ctx, r.endpoint, types.CheckRequest{URL: rawURL}, header)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCommunication, err)
	}
	return interpret(resp.Body)
}

// interpret reads the result tag from a reply body. The status code is not
// consulted: an error page that is not JSON fails to decode anyway.
func interpret(body []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("%w: decode reply: %v", ErrCommunication, err)
	}

	switch v := doc.(type) {
	case nil:
		return "", fmt.Errorf("%w: reply is null", ErrCommunication)
	case map[string]any:
		tag, _ := v["result"].(string)
		switch tag {
		case types.ResultPhishing, types.ResultLegitimate:
			return tag, nil
		}
		return "", fmt.Errorf("%w: result %v", ErrAnalysisAmbiguous, v["result"])
	default:
		return "", fmt.Errorf("%w: reply is not an object", ErrAnalysisAmbiguous)
	}
}

func render(tag string, err error) (types.UIState, string, types.ColorTag) {
	switch {
	case errors.Is(err, ErrCommunication):
		return types.StateResultError, TextCommunicationError, types.ColorWarning
	case err != nil:
		return types.StateResultError, TextAnalysisError, types.ColorWarning
	case tag == types.ResultPhishing:
		return types.StateResultPhishing, TextPhishing, types.ColorAlert
	case tag == types.ResultLegitimate:
		return types.StateResultLegitimate, TextLegitimate, types.ColorSafe
	default:
		return types.StateResultError, TextAnalysisError, types.ColorWarning
	}
}
