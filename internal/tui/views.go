package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/neotheprogramist/ai-playground/internal/types"
)

// NewHistoryTable creates the table of recent steps.
func NewHistoryTable() table.Model {
	columns := []table.Column{
		{Title: "Step", Width: 6},
		{Title: "Date", Width: 12},
		{Title: "Action", Width: 8},
		{Title: "Reward", Width: 10},
		{Title: "Balance", Width: 14},
		{Title: "Position", Width: 12},
		{Title: "Value", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(historySize),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.UnsetForeground().UnsetBackground()

	t.SetStyles(s)

	return t
}

// UpdateHistoryRows fills the table with records, newest first.
func UpdateHistoryRows(t table.Model, records []types.StepRecord) table.Model {
	rows := make([]table.Row, 0, len(records))

	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", r.Step),
			r.Date.Format(types.DateLayout),
			r.Action.String(),
			fmt.Sprintf("%+.4f", r.Reward),
			fmt.Sprintf("%.2f", r.Balance),
			fmt.Sprintf("%.6f", r.TokenAmount),
			fmt.Sprintf("%.2f", r.PortfolioValue),
		})
	}

	t.SetRows(rows)

	return t
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	bar := m.env.CurrentBar()

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s  step %d/%d  %s",
		m.env.Symbol(), m.env.CurrentStep(), m.env.Len()-1, bar.Time.Format(types.DateLayout))))
	b.WriteString("\n\n")

	market := strings.Join([]string{
		row("Open", fmt.Sprintf("%.4f", bar.Open)),
		row("High", fmt.Sprintf("%.4f", bar.High)),
		row("Low", fmt.Sprintf("%.4f", bar.Low)),
		row("Close", FormatPriceChange(bar.Close, m.prevClose)),
		row("Volume", fmt.Sprintf("%.2f", bar.Volume)),
	}, "\n")

	account := strings.Join([]string{
		row("Balance", fmt.Sprintf("%.2f", m.env.Balance())),
		row("Position", fmt.Sprintf("%.6f", m.env.TokenAmount())),
		row("Portfolio", fmt.Sprintf("%.2f", m.env.PortfolioValue())),
		row("Last reward", FormatReward(m.lastReward)),
		row("Total reward", FormatReward(m.env.TotalReward())),
	}, "\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		PanelStyle.Render(market), " ", PanelStyle.Render(account)))
	b.WriteString("\n\n")

	if len(m.records) > 0 {
		b.WriteString(m.history.View())
		b.WriteString("\n\n")
	}

	if m.env.Done() {
		b.WriteString(DoneStyle.Render("Episode finished. Press r to play again or q to quit."))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(ErrorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}

func row(label, value string) string {
	return LabelStyle.Render(label) + value
}
