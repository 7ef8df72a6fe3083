// Package progress renders a live view of a running batch scrape.
package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Digital-Shane/movie-meta/internal/core"
	"github.com/Digital-Shane/movie-meta/internal/theme"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type batchEventMsg struct {
	event core.BatchEvent
	done  bool
}

const errorBaseLines = 6

// BatchModel displays progress while a batch scrapes its movies. It starts
// the batch in Init and quits once the batch's event stream closes.
type BatchModel struct {
	batch   *core.Batch
	events  <-chan core.BatchEvent
	summary core.BatchSummary
	errors  []error

	width  int
	height int

	progress progress.Model
	theme    theme.Theme

	parent context.Context
	cancel context.CancelFunc

	canceled bool
	done     bool
}

// NewBatchModel creates a model that runs b under ctx.
func NewBatchModel(ctx context.Context, b *core.Batch, th theme.Theme) *BatchModel {
	gradient := th.ProgressGradient()
	prog := progress.New(progress.WithGradient(gradient[0], gradient[1]))
	prog.Width = 50

	return &BatchModel{
		batch:    b,
		summary:  b.SummarySnapshot(),
		width:    80,
		height:   12,
		progress: prog,
		theme:    th,
		parent:   ctx,
	}
}

// Init starts the batch.
func (m *BatchModel) Init() tea.Cmd {
	parent := m.parent
	if parent == nil {
		parent = context.Background()
	}
	var ctx context.Context
	ctx, m.cancel = context.WithCancel(parent)
	m.events = m.batch.Start(ctx)
	return m.waitForEvent()
}

func (m *BatchModel) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return batchEventMsg{done: true}
		}
		return batchEventMsg{event: evt}
	}
}

// Update processes Bubble Tea messages.
func (m *BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = max(msg.Width-4, 10)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			// Keep draining events so the batch winds down before quitting.
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
	case batchEventMsg:
		return m.handleEvent(msg)
	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *BatchModel) handleEvent(msg batchEventMsg) (tea.Model, tea.Cmd) {
	if msg.done {
		if m.cancel != nil {
			m.cancel()
		}
		m.summary = m.batch.SummarySnapshot()
		m.errors = m.batch.Errors()
		m.done = true
		return m, tea.Quit
	}

	m.summary = msg.event.Summary
	m.errors = m.batch.Errors()
	if msg.event.Err != nil && errors.Is(msg.event.Err, context.Canceled) {
		m.canceled = true
	}

	ratio := 0.0
	if m.summary.TotalJobs > 0 {
		ratio = float64(m.summary.ProcessedJobs) / float64(m.summary.TotalJobs)
	}
	return m, tea.Batch(m.progress.SetPercent(ratio), m.waitForEvent())
}

// View renders the progress UI.
func (m *BatchModel) View() string {
	if m.summary.TotalJobs == 0 {
		return "No movies to scrape.\n"
	}

	percent := 100 * m.summary.ProcessedJobs / m.summary.TotalJobs
	header := fmt.Sprintf("%s Scraping %d movies", m.theme.Icon("movie"), m.summary.TotalJobs)

	statsLines := []string{
		fmt.Sprintf("Processed: %d/%d", m.summary.ProcessedJobs, m.summary.TotalJobs),
		fmt.Sprintf("Failed: %d", m.summary.FailedJobs),
		fmt.Sprintf("Progress: %d%%", percent),
		fmt.Sprintf("Active Workers: %d of %d", m.summary.ActiveWorkers, m.summary.WorkerLimit),
	}

	status := "Scraping in parallel... press esc to cancel"
	switch {
	case m.canceled:
		status = "Canceling..."
	case m.summary.LastItem != "":
		status = m.summary.LastItem
	}

	sections := []string{
		m.theme.HeaderStyle().Width(m.width).Render(header),
		m.progress.View(),
		m.renderStatsPanel(statsLines),
		m.theme.StatusBarStyle().Width(m.width).Render(status),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *BatchModel) renderStatsPanel(statsLines []string) string {
	panel := m.theme.PanelStyle()
	panelWidth := max(m.width-panel.GetHorizontalFrameSize(), 0)

	blocks := []string{strings.Join(statsLines, "\n")}
	if errBlock := m.renderErrorBlock(); errBlock != "" {
		blocks = append(blocks, errBlock)
	}
	return panel.Width(panelWidth).Render(strings.Join(blocks, "\n"))
}

func (m *BatchModel) renderErrorBlock() string {
	if len(m.errors) == 0 {
		return ""
	}

	errorStyle := m.theme.TextStyle(theme.BadgeError).UnsetPadding()
	maxLines := max(m.height-errorBaseLines-1, 1)
	show := min(len(m.errors), maxLines)
	width := max(m.width-6, 10)

	lines := make([]string, 0, show+2)
	lines = append(lines, fmt.Sprintf("Errors: %d", len(m.errors)))
	for _, err := range m.errors[len(m.errors)-show:] {
		lines = append(lines, "• "+runewidth.Truncate(err.Error(), width, "..."))
	}
	if len(m.errors) > show {
		lines = append(lines, fmt.Sprintf("... and %d more", len(m.errors)-show))
	}
	return errorStyle.Render(strings.Join(lines, "\n"))
}

// Summary returns the final batch summary.
func (m *BatchModel) Summary() core.BatchSummary {
	return m.summary
}

// Done reports whether the batch finished or was canceled and drained.
func (m *BatchModel) Done() bool {
	return m.done
}

// Canceled reports whether the user canceled the batch.
func (m *BatchModel) Canceled() bool {
	return m.canceled
}
