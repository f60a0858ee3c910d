package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trading-mirror/internal/coach"
	"trading-mirror/internal/domain"
)

type panel int

const (
	panelMetrics panel = iota
	panelPatterns
	panelPlaybook
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	lossStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	gainStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tableBorder  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	sidePanelBox = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
)

var tradeColumns = []table.Column{
	{Title: "ID", Width: 20},
	{Title: "Ticker", Width: 8},
	{Title: "Entry", Width: 10},
	{Title: "Exit", Width: 10},
	{Title: "PnL", Width: 10},
	{Title: "Ret%", Width: 7},
	{Title: "FOMO", Width: 5},
	{Title: "Panic", Width: 5},
	{Title: "Regime", Width: 8},
	{Title: "Rev", Width: 3},
}

// reportModel renders one finished analysis: the enriched trades as a table
// and a side panel cycling through metrics, deep patterns and the playbook.
type reportModel struct {
	report   *domain.AnalysisReport
	playbook coach.Playbook
	trades   table.Model
	panel    panel
	width    int
	height   int
}

func newReportModel(report *domain.AnalysisReport, playbook coach.Playbook) reportModel {
	t := table.New(
		table.WithColumns(tradeColumns),
		table.WithRows(tradeRows(report.Trades)),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)

	return reportModel{report: report, playbook: playbook, trades: t}
}

func tradeRows(trades []domain.EnrichedTrade) []table.Row {
	rows := make([]table.Row, 0, len(trades))
	for _, t := range trades {
		rev := ""
		if t.IsRevenge {
			rev = "R"
		}
		rows = append(rows, table.Row{
			t.ID,
			t.Ticker,
			t.EntryTime.Format("2006-01-02"),
			t.ExitTime.Format("2006-01-02"),
			fmt.Sprintf("%.2f", t.PnL),
			fmt.Sprintf("%.1f", t.ReturnPct*100),
			score(t.FomoScore),
			score(t.PanicScore),
			string(t.MarketRegime),
			rev,
		})
	}
	return rows
}

func score(v float64) string {
	if v == domain.ScoreUnavailable {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func (m reportModel) Init() tea.Cmd { return nil }

func (m reportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if h := msg.Height - 6; h > 3 {
			m.trades.SetHeight(h)
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.panel = (m.panel + 1) % 3
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.trades, cmd = m.trades.Update(msg)
	return m, cmd
}

func (m reportModel) View() string {
	header := titleStyle.Render(fmt.Sprintf("Trading Mirror  %s  (%d trades)", m.report.AnalysisID, len(m.report.Trades)))
	body := lipgloss.JoinHorizontal(lipgloss.Top, tableBorder.Render(m.trades.View()), sidePanelBox.Render(m.sidePanel()))
	help := helpStyle.Render("↑/↓ move • tab switch panel • q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m reportModel) sidePanel() string {
	switch m.panel {
	case panelPatterns:
		return m.patternsPanel()
	case panelPlaybook:
		return m.playbookPanel()
	}
	return m.metricsPanel()
}

func (m reportModel) metricsPanel() string {
	mt := m.report.Metrics
	var b strings.Builder
	b.WriteString(titleStyle.Render("Metrics") + "\n")
	line := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)) + value + "\n")
	}
	pnl := gainStyle
	if mt.TotalPnL < 0 {
		pnl = lossStyle
	}
	line("Total PnL", pnl.Render(fmt.Sprintf("$%.2f", mt.TotalPnL)))
	line("Win rate", fmt.Sprintf("%.0f%%", mt.WinRate*100))
	line("Profit factor", fmt.Sprintf("%.2f", mt.ProfitFactor))
	line("FOMO", fmt.Sprintf("%.2f", mt.FomoScore))
	line("Panic", fmt.Sprintf("%.2f", mt.PanicScore))
	line("Disposition", fmt.Sprintf("%.2f", mt.DispositionRatio))
	line("Revenge", fmt.Sprintf("%d", mt.RevengeTradingCount))
	line("Sharpe", fmt.Sprintf("%.2f", mt.SharpeRatio))
	line("Max drawdown", fmt.Sprintf("%.1f%%", mt.MaxDrawdown))
	line("Luck pct", fmt.Sprintf("%.0f", mt.LuckPercentile))
	line("Truth score", fmt.Sprintf("%d", mt.TruthScore))
	if m.report.IsLowSample {
		b.WriteString(helpStyle.Render("low sample, read with care") + "\n")
	}

	if len(m.report.BiasPriority) > 0 {
		b.WriteString("\n" + titleStyle.Render("Fix priority") + "\n")
		for _, p := range m.report.BiasPriority {
			b.WriteString(fmt.Sprintf("%d. %s %s\n", p.Priority, p.Bias, lossStyle.Render(fmt.Sprintf("-$%.0f", p.FinancialLoss))))
		}
	}
	return b.String()
}

func (m reportModel) patternsPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Patterns") + "\n")
	if len(m.report.DeepPatterns) == 0 {
		b.WriteString(helpStyle.Render("none detected") + "\n")
	}
	for _, p := range m.report.DeepPatterns {
		b.WriteString(fmt.Sprintf("[%s] %s\n", p.Significance, p.Type))
		b.WriteString(lipgloss.NewStyle().Width(40).Render(p.Description) + "\n")
	}
	return b.String()
}

func (m reportModel) playbookPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Playbook") + "\n")
	for i, rule := range m.playbook.Rules {
		b.WriteString(lipgloss.NewStyle().Width(40).Render(fmt.Sprintf("%d. %s", i+1, rule)) + "\n")
	}
	return b.String()
}
