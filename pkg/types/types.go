package types

import "time"

// Result tags understood by the requester.
const (
	ResultPhishing   = "phishing"
	ResultLegitimate = "legitimate"
	ResultError      = "error" // Sent by the endpoint when it cannot extract features
)

// CheckRequest is the body POSTed to the classification endpoint.
type CheckRequest struct {
	URL string `json:"url"`
}

// CheckResponse is the body returned by the classification endpoint.
// A Result other than the two known tags is an analysis error, not a decode error.
type CheckResponse struct {
	Result string `json:"result"`
}

// UIState is what the presentation surface currently shows.
type UIState int

const (
	StateIdle UIState = iota
	StateLoading
	StateResultPhishing
	StateResultLegitimate
	StateResultError
)

func (s UIState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateResultPhishing:
		return "ResultPhishing"
	case StateResultLegitimate:
		return "ResultLegitimate"
	case StateResultError:
		return "ResultError"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s is one of the three result states.
func (s UIState) Terminal() bool {
	return s == StateResultPhishing || s == StateResultLegitimate || s == StateResultError
}

// ColorTag is the abstract color a result is rendered in.
type ColorTag int

const (
	ColorNone    ColorTag = iota
	ColorAlert            // red
	ColorSafe             // green
	ColorWarning          // orange
)

func (c ColorTag) String() string {
	switch c {
	case ColorAlert:
		return "alert"
	case ColorSafe:
		return "safe"
	case ColorWarning:
		return "warning"
	default:
		return "none"
	}
}

// CheckRecord is one verdict produced by the classification endpoint.
type CheckRecord struct {
	CheckID   string             `json:"check_id"`
	URL       string             `json:"url"`
	Result    string             `json:"result"`
	Score     float64            `json:"score"`
	Features  map[string]float64 `json:"features,omitempty"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
	Error     string             `json:"error,omitempty"`
}
