package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/nxneeraj/phishwatch/pkg/types"
)

const LoadingText = "Checking..."

const eraseLine = "\r\033[K"

// Terminal shows the loading indicator and results on a terminal.
// When colors are on it assumes a real terminal and redraws the loading
// line in place; otherwise every change is printed on its own line.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	inline  bool
	loading bool
	text    string
	color   types.ColorTag
}

// NewTerminal creates a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w, inline: ColorEnabled()}
}

func (t *Terminal) SetLoading(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case visible && !t.loading:
		if t.inline {
			fmt.Fprint(t.w, ColorCyan(LoadingText))
		} else {
			fmt.Fprintln(t.w, LoadingText)
		}
	case !visible && t.loading && t.inline:
		fmt.Fprint(t.w, eraseLine)
	}
	t.loading = visible
}

// SetResult prints text in color. An empty text only clears the stored result.
// A result arriving while another check is loading is printed above the
// loading line, which is then redrawn.
func (t *Terminal) SetResult(text string, color types.ColorTag) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.text, t.color = text, color
	if text == "" {
		return
	}
	redraw := t.inline && t.loading
	if redraw {
		fmt.Fprint(t.w, eraseLine)
	}
	fmt.Fprintln(t.w, Colorize(color, text))
	if redraw {
		fmt.Fprint(t.w, ColorCyan(LoadingText))
	}
}

// Snapshot returns what is currently visible.
func (t *Terminal) Snapshot() (loading bool, text string, color types.ColorTag) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading, t.text, t.color
}
