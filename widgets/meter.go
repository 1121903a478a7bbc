package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderBar renders a fixed-width horizontal bar for a value in [0,1],
// all filled cells in one style.
func RenderBar(value float64, width int, fill, empty rune, style lipgloss.Style) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value*float64(width) + 0.5)
	bar := strings.Repeat(string(fill), filled) + strings.Repeat(string(empty), width-filled)
	return style.Render(bar)
}

// RenderLevelBar renders a meter bar where each filled cell is colored by
// its position, so the bar heats up toward the right. color maps a
// normalized position to a lipgloss color.
func RenderLevelBar(value float64, width int, fill, empty rune, color func(float64) lipgloss.Color) string {
	if width < 1 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value*float64(width) + 0.5)

	// A one-cell bar has a single position; everything else spans [0,1].
	denom := float64(width - 1)
	if denom < 1 {
		denom = 1
	}

	var out strings.Builder
	for i := 0; i < filled; i++ {
		pos := float64(i) / denom
		out.WriteString(lipgloss.NewStyle().Foreground(color(pos)).Render(string(fill)))
	}
	out.WriteString(strings.Repeat(string(empty), width-filled))
	return out.String()
}

// RenderKeyHelp formats key bindings as a single help line.
func RenderKeyHelp(keys []KeyBinding) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s:%s", k.Key, k.Desc)
	}
	return strings.Join(parts, "  ")
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
