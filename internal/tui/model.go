package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/supdatta/verbiq/internal/analysis"
	"github.com/supdatta/verbiq/internal/model"
	"github.com/supdatta/verbiq/internal/recorder"
	"github.com/supdatta/verbiq/internal/score"
	"github.com/supdatta/verbiq/internal/session"
)

type phase int

const (
	phaseIdle phase = iota
	phaseRecording
	phaseAnalyzing
	phaseResult
	phaseFailure
)

type tickMsg time.Time

type analysisMsg struct {
	result model.AnalysisResult
	err    error
}

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	recStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	analyzingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cardStyle      = lipgloss.NewStyle().
			Padding(1, 3).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	gradeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	gradeLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	statLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	sectionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Bold(true)
	barFillStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	barEmptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	trendUpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	trendDownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tipStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	counterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	exhaustedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	failTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

const cardWidth = 56

// Model implements the Bubble Tea practice UI: idle prompt, recording clock,
// analysis spinner, and the performance report.
type Model struct {
	controller *recorder.Controller
	sess       *session.Manager
	labels     recorder.Labels
	baseURL    string

	phase      phase
	spin       spinner.Model
	result     model.AnalysisResult
	failTitle  string
	failDetail string

	width  int
	height int
}

// NewModel constructs a practice TUI model.
func NewModel(controller *recorder.Controller, sess *session.Manager, labels recorder.Labels, baseURL string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = analyzingStyle
	return &Model{
		controller: controller,
		sess:       sess,
		labels:     labels,
		baseURL:    baseURL,
		phase:      phaseIdle,
		spin:       sp,
	}
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
		return m, nil
	case tickMsg:
		if m.phase == phaseRecording {
			m.controller.Tick()
			return m, tickCmd()
		}
		return m, nil
	case analysisMsg:
		if msg.err != nil {
			m.failTitle, m.failDetail = analysis.FailureMessage(msg.err, m.baseURL)
			m.phase = phaseFailure
			return m, nil
		}
		m.result = msg.result
		m.phase = phaseResult
		return m, nil
	case spinner.TickMsg:
		if m.phase != phaseAnalyzing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		switch m.phase {
		case phaseResult, phaseFailure:
			m.phase = phaseIdle
			return m, nil
		case phaseIdle:
			return m, tea.Quit
		}
		return m, nil
	case "enter", " ":
		switch m.phase {
		case phaseIdle:
			return m.startRecording()
		case phaseRecording:
			m.phase = phaseAnalyzing
			return m, tea.Batch(m.spin.Tick, m.analyzeCmd())
		case phaseResult, phaseFailure:
			m.phase = phaseIdle
			return m, nil
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) startRecording() (tea.Model, tea.Cmd) {
	err := m.controller.Start(context.Background())
	switch {
	case err == nil:
		m.phase = phaseRecording
		return m, tickCmd()
	case errors.Is(err, recorder.ErrNoFreeUses):
		m.failTitle = "Free trials exhausted"
		m.failDetail = "Please login to continue using the AI Coach."
		m.phase = phaseFailure
		return m, nil
	case errors.Is(err, recorder.ErrBusy):
		return m, nil
	default:
		m.failTitle = "Microphone access denied"
		m.failDetail = "Please allow microphone access to use the recorder."
		m.phase = phaseFailure
		return m, nil
	}
}

func (m *Model) analyzeCmd() tea.Cmd {
	return func() tea.Msg {
		result, err := m.controller.Stop(context.Background(), m.labels)
		return analysisMsg{result: result, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.phase {
	case phaseIdle:
		body = m.idleView()
	case phaseRecording:
		body = m.recordingView()
	case phaseAnalyzing:
		body = m.analyzingView()
	case phaseResult:
		body = m.resultView()
	case phaseFailure:
		body = m.failureView()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	main := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return main + "\n" + footerLine
}

func (m *Model) idleView() string {
	lines := []string{
		titleStyle.Render("VERBIQ AI COACH"),
		hintStyle.Render("Scenario: " + m.labels.Context),
		"",
		hintStyle.Render("Press enter to start recording"),
	}
	if !m.sess.IsAuthenticated() {
		lines = append(lines, "", m.renderFreeUses())
	}
	return strings.Join(lines, "\n")
}

func (m *Model) recordingView() string {
	return strings.Join([]string{
		recStyle.Render("● REC " + m.controller.Clock()),
		"",
		hintStyle.Render("Press enter to stop and analyze"),
	}, "\n")
}

func (m *Model) analyzingView() string {
	return m.spin.View() + analyzingStyle.Render(" ANALYZING...")
}

func (m *Model) failureView() string {
	detail := wrapText(m.failDetail, cardWidth-8)
	return cardStyle.Render(strings.Join([]string{
		failTitleStyle.Render(m.failTitle),
		"",
		tipStyle.Render(detail),
		"",
		hintStyle.Render("enter dismiss · q quit"),
	}, "\n"))
}

func (m *Model) resultView() string {
	grade := score.Grade(m.result.ConfidenceScore, m.result.Grade)
	metrics := score.DetailedMetrics(m.result)

	var b strings.Builder
	b.WriteString(sectionStyle.Render("PERFORMANCE REPORT"))
	b.WriteString("\n\n")
	b.WriteString(gradeStyle.Render("  "+grade.Grade+"  ") + gradeLabelStyle.Render(grade.Label))
	b.WriteString("\n\n")

	b.WriteString(m.renderStat("Emotion", m.result.DetectedEmotion))
	b.WriteString(m.renderStat("Confidence", m.result.ConfidenceScore))
	if m.result.PauseRatio != "" {
		b.WriteString(m.renderStat("Pause Ratio", m.result.PauseRatio))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("DETAILED METRICS"))
	b.WriteString("\n")
	for _, metric := range metrics {
		b.WriteString(renderMetric(metric))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("AI COACH TIPS"))
	b.WriteString("\n")
	if len(m.result.Feedback) == 0 {
		b.WriteString(hintStyle.Render("No feedback available for this session."))
		b.WriteString("\n")
	}
	for _, tip := range m.result.Feedback {
		wrapped := wrapText(tip, cardWidth-10)
		first := true
		for _, line := range strings.Split(wrapped, "\n") {
			if first {
				b.WriteString(tipStyle.Render("· " + line))
				first = false
			} else {
				b.WriteString(tipStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	if m.result.Transcription != "" {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("TRANSCRIPTION"))
		b.WriteString("\n")
		b.WriteString(tipStyle.Render(wrapText(m.result.Transcription, cardWidth-8)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter play again · q quit"))
	return cardStyle.Render(b.String())
}

func (m *Model) renderStat(label, value string) string {
	return statLabelStyle.Render(fmt.Sprintf("%-12s", label)) + statValueStyle.Render(value) + "\n"
}

func renderMetric(metric score.Metric) string {
	arrow := trendUpStyle.Render("↑")
	if metric.Trend == score.TrendDown {
		arrow = trendDownStyle.Render("↓")
	}
	return fmt.Sprintf("%s %s %s %s",
		statLabelStyle.Render(fmt.Sprintf("%-14s", metric.Label)),
		renderBar(metric.Value, 20),
		statValueStyle.Render(fmt.Sprintf("%3d%%", metric.Value)),
		arrow)
}

func renderBar(value, width int) string {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	filled := value * width / 100
	return barFillStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func (m *Model) renderFreeUses() string {
	n := m.sess.FreeUsesRemaining()
	style := counterStyle
	if n == 0 {
		style = exhaustedStyle
	}
	return hintStyle.Render("Free trials: ") + style.Render(fmt.Sprintf("%d", n))
}

func (m *Model) renderFooter() string {
	segments := []string{"enter record/stop", "q quit"}
	if user := m.sess.User(); user != nil {
		label := user.Username
		if user.IsPremium {
			label += " ★"
		}
		segments = append(segments, label)
	} else {
		segments = append(segments, fmt.Sprintf("free trials %d", m.sess.FreeUsesRemaining()))
	}
	return footerStyle.Render(strings.Join(segments, "  ·  "))
}
