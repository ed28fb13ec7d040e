// Package historyui provides the Bubble Tea history browser.
package historyui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/supdatta/verbiq/internal/model"
	"github.com/supdatta/verbiq/internal/score"
)

var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	sparkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	detailTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	detailSection  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Bold(true)
	detailTipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	detailStyle    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Model implements the Bubble Tea history browser: a summary header, a table
// of past sessions newest-first, and a detail pane for the selected entry.
type Model struct {
	username string
	items    []model.HistoryItem

	table   table.Model
	detail  viewport.Model
	showing bool
	width   int
	height  int
}

// NewModel constructs a history UI model over the given items (newest first).
func NewModel(username string, items []model.HistoryItem) *Model {
	m := &Model{
		username: username,
		items:    items,
		detail:   viewport.New(0, 0),
	}
	m.initTable()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if !m.showing && len(m.items) > 0 {
				m.showing = true
				m.detail.SetContent(m.renderDetail(m.selectedItem()))
				m.detail.GotoTop()
			}
			return m, nil
		case "esc":
			if m.showing {
				m.showing = false
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.showing {
			m.detail, cmd = m.detail.Update(msg)
		} else {
			m.table, cmd = m.table.Update(msg)
		}
		return m, cmd
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	header := m.renderHeader()
	var body string
	if m.showing {
		body = detailStyle.Render(m.detail.View())
	} else {
		body = m.table.View()
	}
	footer := m.renderFooter()
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) selectedItem() model.HistoryItem {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return model.HistoryItem{}
	}
	return m.items[idx]
}

func (m *Model) initTable() {
	columns := []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Module", Width: 18},
		{Title: "Lesson", Width: 18},
		{Title: "Emotion", Width: 12},
		{Title: "Confidence", Width: 10},
		{Title: "Grade", Width: 5},
	}
	rows := make([]table.Row, 0, len(m.items))
	for _, item := range m.items {
		grade := score.Grade(item.Result.ConfidenceScore, item.Result.Grade)
		rows = append(rows, table.Row{
			formatDate(item.Date),
			item.ModuleTitle,
			item.LessonTitle,
			item.Result.DetectedEmotion,
			item.Result.ConfidenceScore,
			grade.Grade,
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
	)
	t.SetStyles(historyTableStyles())
	m.table = t
}

func (m *Model) updateLayout() {
	bodyHeight := m.height - 4
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.table.SetHeight(bodyHeight)
	m.table.SetWidth(m.width)
	m.detail.Width = maxInt(1, m.width-4)
	m.detail.Height = bodyHeight
	if m.showing {
		m.detail.SetContent(m.renderDetail(m.selectedItem()))
	}
}

func (m *Model) renderHeader() string {
	confidences := make([]float64, 0, len(m.items))
	var best score.GradeInfo
	// History is newest-first; the sparkline reads oldest to newest.
	for i := len(m.items) - 1; i >= 0; i-- {
		item := m.items[i]
		confidences = append(confidences, float64(score.ScoreValue(item.Result.ConfidenceScore)))
		grade := score.Grade(item.Result.ConfidenceScore, item.Result.Grade)
		if best.Grade == "" || gradeRank(grade.Grade) > gradeRank(best.Grade) {
			best = grade
		}
	}
	var avg float64
	for _, v := range confidences {
		avg += v
	}
	if len(confidences) > 0 {
		avg /= float64(len(confidences))
	}
	summary := summaryStyle.Render(fmt.Sprintf("%s · %d sessions · avg confidence %.0f%% · best %s",
		m.username, len(m.items), avg, best.Grade))
	return headerStyle.Render("PROGRESS") + "  " + summary + "\n" + sparkStyle.Render(sparkline(confidences))
}

func (m *Model) renderDetail(item model.HistoryItem) string {
	grade := score.Grade(item.Result.ConfidenceScore, item.Result.Grade)
	var b strings.Builder
	b.WriteString(detailTitle.Render(fmt.Sprintf("%s — %s", item.ModuleTitle, item.LessonTitle)))
	b.WriteString("\n")
	b.WriteString(summaryStyle.Render(formatDate(item.Date)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Grade: %s (%s)\n", grade.Grade, grade.Label))
	b.WriteString(fmt.Sprintf("Emotion: %s\n", item.Result.DetectedEmotion))
	b.WriteString(fmt.Sprintf("Confidence: %s\n", item.Result.ConfidenceScore))
	if item.Result.PauseRatio != "" {
		b.WriteString(fmt.Sprintf("Pause ratio: %s\n", item.Result.PauseRatio))
	}
	b.WriteString("\n")
	b.WriteString(detailSection.Render("METRICS"))
	b.WriteString("\n")
	for _, metric := range score.DetailedMetrics(item.Result) {
		arrow := "↑"
		if metric.Trend == score.TrendDown {
			arrow = "↓"
		}
		b.WriteString(fmt.Sprintf("%-14s %3d%% %s\n", metric.Label, metric.Value, arrow))
	}
	if len(item.Result.Feedback) > 0 {
		b.WriteString("\n")
		b.WriteString(detailSection.Render("COACH TIPS"))
		b.WriteString("\n")
		for _, tip := range item.Result.Feedback {
			b.WriteString(detailTipStyle.Render("· " + tip))
			b.WriteString("\n")
		}
	}
	if item.Result.Transcription != "" {
		b.WriteString("\n")
		b.WriteString(detailSection.Render("TRANSCRIPTION"))
		b.WriteString("\n")
		b.WriteString(detailTipStyle.Render(item.Result.Transcription))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	if m.showing {
		return footerStyle.Render("esc back · ↑/↓ scroll · q quit")
	}
	return footerStyle.Render("enter details · ↑/↓ select · q quit")
}

func historyTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func formatDate(date string) string {
	parsed, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return date
	}
	return parsed.Local().Format("2006-01-02 15:04")
}

func gradeRank(grade string) int {
	switch grade {
	case "S":
		return 6
	case "A":
		return 5
	case "B":
		return 4
	case "C":
		return 3
	case "D":
		return 2
	case "F":
		return 1
	default:
		return 0
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
