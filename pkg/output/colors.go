package output

import (
	"github.com/fatih/color"

	"github.com/nxneeraj/phishwatch/pkg/types"
)

// Define color functions for terminal output
var (
	ColorGreen  = color.New(color.FgGreen).SprintFunc()
	ColorRed    = color.New(color.FgRed, color.Bold).SprintFunc()
	ColorYellow = color.New(color.FgYellow).SprintFunc() // Closest terminal color to orange
	ColorCyan   = color.New(color.FgCyan).SprintFunc()   // For the loading indicator
)

// Colorize renders text in the terminal color standing in for tag.
func Colorize(tag types.ColorTag, text string) string {
	switch tag {
	case types.ColorAlert:
		return ColorRed(text)
	case types.ColorSafe:
		return ColorGreen(text)
	case types.ColorWarning:
		return ColorYellow(text)
	default:
		return text
	}
}

// DisableColor turns off escape sequences for every writer.
func DisableColor() {
	color.NoColor = true
}

// ColorEnabled reports whether escape sequences are being emitted.
func ColorEnabled() bool {
	return !color.NoColor
}
