package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepzone/internal/ui/theme"
)

// ContentWidth returns the uniform inner width for centered panels so
// stacked boxes line up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Panel centers content inside the given area.
func Panel(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// Card wraps content in a rounded-border card at the given content width.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw - 2).
		Padding(1, 2).
		Render(content)
}

// Banner renders a full-width single line in the given style, used for
// warnings and errors above the content.
func Banner(text string, style lipgloss.Style, width int) string {
	return style.Width(width).Align(lipgloss.Center).Render(text)
}
