package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// PadRight pads or truncates a string to a fixed display width.
func PadRight(str string, width int) string {
	w := runewidth.StringWidth(str)
	if w > width {
		return runewidth.Truncate(str, width, "...")
	}
	return str + strings.Repeat(" ", width-w)
}

// SingleLine collapses newlines and tabs so a script or payload fits on one
// terminal row, then truncates it to width.
func SingleLine(str string, width int) string {
	str = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(str)
	if width <= 0 {
		return str
	}
	return runewidth.Truncate(str, width, "...")
}

// FormatSize renders a byte count with a binary unit and one decimal place.
func FormatSize(size uint64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	value := float64(size) / unit
	exp := 0
	for value >= unit && exp < len(units)-1 {
		value /= unit
		exp++
	}
	return fmt.Sprintf("%.1f %s", value, units[exp])
}
