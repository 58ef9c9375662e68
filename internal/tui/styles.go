package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true)

	LabelStyle = lipgloss.NewStyle().Faint(true).Width(16)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	PositiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	NegativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	DoneStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
)

// FormatReward renders a reward with its sign, colored by direction.
func FormatReward(reward float64) string {
	text := fmt.Sprintf("%+.4f", reward)

	switch {
	case reward > 0:
		return PositiveStyle.Render(text)
	case reward < 0:
		return NegativeStyle.Render(text)
	default:
		return text
	}
}

// FormatPriceChange formats a price with an arrow relative to the previous close.
func FormatPriceChange(current, previous float64) string {
	priceStr := fmt.Sprintf("%.4f", current)

	if previous == 0 {
		return priceStr
	}

	if current > previous {
		return priceStr + " ▲"
	} else if current < previous {
		return priceStr + " ▼"
	}

	return priceStr
}
