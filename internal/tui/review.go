// Package tui provides an interactive terminal review of a bulk
// recommendation run, built on bubbletea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pourcost/topshelf/internal/cli"
	"github.com/pourcost/topshelf/internal/model"
)

// filter selects which recommendations the table shows.
type filter int

const (
	filterAll filter = iota
	filterDemandOptimized
	filterShortfalls
)

func (f filter) label() string {
	switch f {
	case filterDemandOptimized:
		return "demand-optimized"
	case filterShortfalls:
		return "margin shortfalls"
	default:
		return "all"
	}
}

// Model is the review screen state.
type Model struct {
	recs     []model.Recommendation
	visible  []model.Recommendation
	table    table.Model
	filter   filter
	showInfo bool
	width    int
	height   int
}

// NewModel builds the review screen for a set of recommendations.
func NewModel(recs []model.Recommendation) Model {
	columns := []table.Column{
		{Title: "Venue", Width: 20},
		{Title: "Bottle", Width: 28},
		{Title: "Current", Width: 10},
		{Title: "Recommended", Width: 12},
		{Title: "Δ%", Width: 8},
		{Title: "Method", Width: 18},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := Model{recs: recs, table: t}
	m.applyFilter()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(5, msg.Height-8))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.showInfo = !m.showInfo
			return m, nil
		case "a":
			m.filter = filterAll
			m.applyFilter()
			return m, nil
		case "d":
			m.filter = filterDemandOptimized
			m.applyFilter()
			return m, nil
		case "m":
			m.filter = filterShortfalls
			m.applyFilter()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(cli.FormatTitle("Price Recommendations"))
	b.WriteString("\n")
	b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf("showing %d of %d (%s)",
		len(m.visible), len(m.recs), m.filter.label())))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.showInfo {
		if rec, ok := m.selected(); ok {
			b.WriteString(detailView(rec))
			b.WriteString("\n")
		}
	}

	b.WriteString(cli.SubtleStyle.Render("a: all • d: demand-optimized • m: shortfalls • enter: details • q: quit"))
	return b.String()
}

func (m *Model) applyFilter() {
	m.visible = m.visible[:0]
	for _, rec := range m.recs {
		switch m.filter {
		case filterDemandOptimized:
			if rec.Method != model.MethodDemandOptimized {
				continue
			}
		case filterShortfalls:
			if !rec.MarginShortfall {
				continue
			}
		}
		m.visible = append(m.visible, rec)
	}

	rows := make([]table.Row, 0, len(m.visible))
	for _, rec := range m.visible {
		rows = append(rows, table.Row{
			rec.Venue,
			rec.Bottle,
			cli.FormatPrice(rec.CurrentPrice),
			cli.FormatPrice(rec.RecommendedPrice),
			fmt.Sprintf("%+.1f", rec.DeltaPct),
			string(rec.Method),
		})
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m Model) selected() (model.Recommendation, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return model.Recommendation{}, false
	}
	return m.visible[idx], true
}

func detailView(rec model.Recommendation) string {
	var lines []string
	lines = append(lines,
		fmt.Sprintf("Market estimate: %s (%s)", cli.FormatPrice(rec.MarketEstimate), rec.EstimateTier),
		fmt.Sprintf("Venue index: %.2f", rec.VPI),
		fmt.Sprintf("Guardrails: %s – %s", cli.FormatPrice(rec.MinPrice), cli.FormatPrice(rec.MaxPrice)),
	)
	if rec.Cost != nil {
		lines = append(lines, fmt.Sprintf("Cost: %s", cli.FormatPrice(*rec.Cost)))
	}
	if rec.ProfitMarginPct != nil {
		lines = append(lines, fmt.Sprintf("Margin: %.1f%%", *rec.ProfitMarginPct*100))
	}
	if rec.MarginShortfall {
		lines = append(lines, cli.StyleWarning("Margin floor unreachable within guardrails"))
	}
	if rec.ObjectiveCurrent != nil && rec.ObjectiveOptimal != nil {
		lines = append(lines, fmt.Sprintf("Objective: %.2f → %.2f", *rec.ObjectiveCurrent, *rec.ObjectiveOptimal))
	}
	lines = append(lines, "", rec.Rationale)

	return cli.RenderBox(rec.Bottle+" @ "+rec.Venue, strings.Join(lines, "\n"))
}

// Run opens the review screen and blocks until the user quits.
func Run(recs []model.Recommendation) error {
	if len(recs) == 0 {
		return fmt.Errorf("no recommendations to review")
	}
	p := tea.NewProgram(NewModel(recs), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("review UI failed: %w", err)
	}
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
