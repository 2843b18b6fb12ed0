package output

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/nxneeraj/phishwatch/pkg/types"
)

// Event is one display change, as written by JSONLines.
type Event struct {
	Event     string    `json:"event"` // "loading" or "result"
	Visible   *bool     `json:"visible,omitempty"`
	Text      string    `json:"text,omitempty"`
	Color     string    `json:"color,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JSONLines writes every display change as one JSON object per line, for
// scripts and wrappers that drive their own UI.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines creates a JSONLines presenter writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

func (j *JSONLines) SetLoading(visible bool) {
	j.write(Event{Event: "loading", Visible: &visible})
}

func (j *JSONLines) SetResult(text string, color types.ColorTag) {
	j.write(Event{Event: "result", Text: text, Color: color.String()})
}

func (j *JSONLines) write(ev Event) {
	ev.Timestamp = time.Now().UTC()

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(ev); err != nil {
		log.Printf("[!] Failed to write display event: %v", err)
	}
}
