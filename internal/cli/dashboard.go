// Package cli holds the interactive terminal dashboard. It renders the
// monitor's snapshots and translates key presses into monitor triggers; all
// repository knowledge stays in the monitor.
package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/inovacc/gitmon/internal/fetch"
	"github.com/inovacc/gitmon/internal/model"
	"github.com/inovacc/gitmon/internal/monitor"
	"github.com/inovacc/gitmon/internal/snapshot"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginLeft(1)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// refreshEvery is how often the dashboard re-reads the snapshot. The
// monitor scans on its own schedule; this only controls render staleness.
const refreshEvery = time.Second

type tickMsg time.Time

type fetchEventMsg fetch.Event

type editorFinishedMsg struct {
	err error
}

// DashboardModel is the root Bubbletea model
type DashboardModel struct {
	mon        *monitor.Monitor
	configPath string

	table   table.Model
	spinner spinner.Model

	records []model.RepoRecord
	state   snapshot.FetchRunState
	summary string

	showDetail bool
	width      int
	height     int
	quitting   bool
	err        error
}

// NewDashboard creates the dashboard bound to a started monitor
func NewDashboard(mon *monitor.Monitor, configPath string) *DashboardModel {
	columns := []table.Column{
		{Title: "Owner", Width: 16},
		{Title: "Repository", Width: 24},
		{Title: "Branch", Width: 20},
		{Title: "Status", Width: 10},
		{Title: "Sync", Width: 10},
		{Title: "Stash", Width: 5},
		{Title: "Fetch", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(styles)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := &DashboardModel{
		mon:        mon,
		configPath: configPath,
		table:      t,
		spinner:    s,
	}

	m.refreshSnapshot()

	return m
}

func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		m.waitForEvent(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks on the monitor's fetch event stream in a command
// goroutine, re-armed after every delivery.
func (m *DashboardModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return fetchEventMsg(<-m.mon.Events())
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-8, 3))

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.refreshSnapshot()

		return m, tickCmd()

	case fetchEventMsg:
		if msg.Done {
			m.summary = renderSummary(fetch.Event(msg))
		}

		m.refreshSnapshot()

		return m, m.waitForEvent()

	case editorFinishedMsg:
		if msg.err != nil {
			m.err = msg.err
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true

		return m, tea.Quit

	case "r":
		m.mon.TriggerScan()

		return m, nil

	case "f":
		m.mon.TriggerFetchCycle()

		return m, nil

	case "x":
		m.mon.CancelFetchCycle()

		return m, nil

	case "a":
		m.mon.SetAutoFetch(!m.mon.AutoFetchEnabled())

		return m, nil

	case "enter":
		m.showDetail = !m.showDetail

		return m, nil

	case "esc":
		if m.showDetail {
			m.showDetail = false

			return m, nil
		}

		m.mon.CancelFetchCycle()

		return m, nil

	case "c":
		return m, m.openConfigEditor()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

// openConfigEditor suspends the TUI and runs $EDITOR on the config file.
// Config changes take effect on the next start.
func (m *DashboardModel) openConfigEditor() tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.Command(editor, m.configPath)

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m *DashboardModel) refreshSnapshot() {
	m.records, m.state = m.mon.Snapshot()

	rows := make([]table.Row, len(m.records))
	for i, record := range m.records {
		rows[i] = table.Row{
			record.RemoteOwner,
			record.Name,
			record.Branch,
			statusCell(record),
			syncCell(record),
			stashCell(record),
			fetchCell(record),
		}
	}

	m.table.SetRows(rows)
}

func (m *DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("gitmon"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d repositories", len(m.records))))
	b.WriteString("\n\n")

	if m.showDetail {
		b.WriteString(m.renderDetail())
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

// renderDetail shows every field of the selected repository
func (m *DashboardModel) renderDetail() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return dimStyle.Render("  no repository selected\n")
	}

	record := m.records[idx]

	var b strings.Builder

	write := func(label, value string) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-14s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}

	write("Path", record.Path)
	write("Owner", record.RemoteOwner)
	write("Branch", record.Branch)
	write("Status", statusCell(record))

	if record.HasUpstream {
		write("Upstream", record.UpstreamRef)
		write("Sync", fmt.Sprintf("%d ahead, %d behind", record.Ahead, record.Behind))
	} else {
		write("Upstream", dimStyle.Render("none"))
	}

	write("Stashes", strconv.Itoa(record.StashCount))

	if record.LastRemoteCommit != "" {
		write("Remote HEAD", record.LastRemoteCommit)
	}

	if record.FetchOutcome != nil {
		o := record.FetchOutcome
		if o.Succeeded {
			write("Last fetch", successStyle.Render("ok ")+dimStyle.Render(o.CompletedAt.Format("15:04:05")))
		} else {
			write("Last fetch", errorStyle.Render("failed: "+o.Reason))
		}
	}

	if record.Err != "" {
		write("Error", errorStyle.Render(record.Err))
	}

	b.WriteString("\n")

	return b.String()
}

// renderStatusBar shows status counts and fetch cycle progress
func (m *DashboardModel) renderStatusBar() string {
	var clean, stashed, changes, failed int

	for _, record := range m.records {
		switch record.Status {
		case model.StatusClean:
			clean++
		case model.StatusStashed:
			stashed++
		case model.StatusChanges:
			changes++
		case model.StatusError:
			failed++
		}
	}

	parts := []string{
		successStyle.Render(fmt.Sprintf("%d clean", clean)),
		warningStyle.Render(fmt.Sprintf("%d stashed", stashed)),
		infoStyle.Render(fmt.Sprintf("%d changed", changes)),
	}

	if failed > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("%d errors", failed)))
	}

	line := "  " + strings.Join(parts, dimStyle.Render(" | "))

	switch m.state.Phase {
	case snapshot.PhaseRunning:
		line += fmt.Sprintf("   %s fetching %d/%d", m.spinner.View(), m.state.Completed, m.state.Total)
	case snapshot.PhaseIdle:
		if m.summary != "" {
			line += "   " + m.summary
		}
	case snapshot.PhaseNever:
	}

	if m.mon.AutoFetchEnabled() {
		line += dimStyle.Render("   auto-fetch on")
	}

	if m.err != nil {
		line += "   " + errorStyle.Render(m.err.Error())
	}

	return line
}

func (m *DashboardModel) renderHelp() string {
	if m.showDetail {
		return dimStyle.Render("  esc/enter: back • q: quit")
	}

	return dimStyle.Render("  r: rescan • f: fetch all • x: cancel fetch • a: auto-fetch • enter: details • c: config • q: quit")
}

func renderSummary(ev fetch.Event) string {
	if ev.Cancelled {
		return warningStyle.Render(fmt.Sprintf("fetch cancelled (%d/%d done)", ev.Completed, ev.Total))
	}

	if ev.Failed > 0 {
		return warningStyle.Render(fmt.Sprintf("fetch done: %d ok, %d failed", ev.Succeeded, ev.Failed))
	}

	return successStyle.Render(fmt.Sprintf("fetch done: %d ok", ev.Succeeded))
}

func statusCell(record model.RepoRecord) string {
	switch record.Status {
	case model.StatusClean:
		return successStyle.Render("○ clean")
	case model.StatusStashed:
		return warningStyle.Render("◐ stash")
	case model.StatusChanges:
		return infoStyle.Render("● dirty")
	case model.StatusError:
		return errorStyle.Render("✗ error")
	default:
		return string(record.Status)
	}
}

func syncCell(record model.RepoRecord) string {
	if !record.HasUpstream {
		return dimStyle.Render("-")
	}

	if record.Ahead == 0 && record.Behind == 0 {
		return successStyle.Render("=")
	}

	var parts []string
	if record.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("↑%d", record.Ahead))
	}

	if record.Behind > 0 {
		parts = append(parts, fmt.Sprintf("↓%d", record.Behind))
	}

	return warningStyle.Render(strings.Join(parts, " "))
}

func stashCell(record model.RepoRecord) string {
	if record.StashCount == 0 {
		return dimStyle.Render("-")
	}

	return strconv.Itoa(record.StashCount)
}

func fetchCell(record model.RepoRecord) string {
	if record.FetchOutcome == nil {
		return dimStyle.Render("-")
	}

	if record.FetchOutcome.Succeeded {
		return successStyle.Render("✓")
	}

	return errorStyle.Render("✗")
}

// Run starts the dashboard program and blocks until it exits
func Run(mon *monitor.Monitor, configPath string) error {
	p := tea.NewProgram(NewDashboard(mon, configPath), tea.WithAltScreen())

	_, err := p.Run()

	return err
}
