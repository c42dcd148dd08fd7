package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rmax-ai/locklord/pkg/client"
)

// Config
const (
	pollRate       = time.Second
	maxLogEntries  = 20
	viewportHeight = 14
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(100)

	logTimeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(22)

	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // Orange
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // Red
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // Green
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // Blue

	heldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")) // Purple
)

type tickMsg time.Time

type dataMsg struct {
	status    client.Status
	processes []client.Process
	resources []client.Resource
	entries   []client.LogEntry
	err       error
}

type model struct {
	api       *client.Client
	spinner   spinner.Model
	viewport  viewport.Model
	status    client.Status
	processes []client.Process
	resources []client.Resource
	entries   []client.LogEntry
	err       error
	ready     bool
}

func initialModel(api *client.Client) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		api:     api,
		spinner: s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchData(m.api),
		tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, fetchData(m.api), tick())

	case dataMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.status = msg.status
			m.processes = msg.processes
			m.resources = msg.resources
			m.entries = msg.entries
			m.updateViewportContent()
		}

		if !m.ready {
			m.ready = true
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewportHeight)
			m.viewport.Style = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				PaddingRight(2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewportHeight
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *model) updateViewportContent() {
	var sb strings.Builder

	for _, e := range m.entries {
		var msgStr string
		switch e.Severity {
		case "error":
			msgStr = dangerStyle.Render(e.Message)
		case "warning":
			msgStr = warnStyle.Render(e.Message)
		case "success":
			msgStr = successStyle.Render(e.Message)
		default:
			msgStr = infoStyle.Render(e.Message)
		}

		sb.WriteString(fmt.Sprintf("%s %s\n", logTimeStyle.Render(e.Time), msgStr))
	}

	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Initializing...", m.spinner.View())
	}

	// Top pane: system verdict plus entity tables.
	var top strings.Builder
	verdict := okStyle.Render("SAFE")
	if m.status.Status == "DEADLOCK" {
		verdict = dangerStyle.Render("DEADLOCK: " + strings.Join(m.status.Cycle, " -> "))
	}
	top.WriteString(statusStyle.Render("System: ") + verdict + "\n")
	top.WriteString(subtleStyle.Render(fmt.Sprintf("detected %d • prevented %d\n\n",
		m.status.DeadlocksDetected, m.status.DeadlocksPrevented)))

	top.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("Processes") + "\n")
	if len(m.processes) == 0 {
		top.WriteString(subtleStyle.Render("none registered\n"))
	}
	for _, p := range m.processes {
		line := fmt.Sprintf("• %s [%s]", p.ID, p.Priority)
		if len(p.Held) > 0 {
			line += heldStyle.Render(" holds " + strings.Join(p.Held, ","))
		}
		if len(p.WaitingFor) > 0 {
			line += warnStyle.Render(" waits " + strings.Join(p.WaitingFor, ","))
		}
		top.WriteString(line + "\n")
	}

	top.WriteString("\n" + lipgloss.NewStyle().Bold(true).Underline(true).Render("Resources") + "\n")
	if len(m.resources) == 0 {
		top.WriteString(subtleStyle.Render("none registered\n"))
	}
	for _, r := range m.resources {
		line := fmt.Sprintf("• %s (%s)", r.ID, r.Type)
		if r.HeldBy != "" {
			line += heldStyle.Render(" held by " + r.HeldBy)
		} else {
			line += okStyle.Render(" available")
		}
		if len(r.WaitQueue) > 0 {
			line += warnStyle.Render(" queue " + strings.Join(r.WaitQueue, ","))
		}
		top.WriteString(line + "\n")
	}

	topPane := paneStyle.Render(top.String())

	header := headerStyle.Render(fmt.Sprintf("%s Activity Log", m.spinner.View()))
	bottomPane := m.viewport.View()

	var status string
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("Offline: %v", m.err))
	} else {
		status = okStyle.Render(fmt.Sprintf("Online • %d Processes • %d Resources",
			len(m.processes), len(m.resources)))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\nPress q to quit", status))

	return lipgloss.JoinVertical(lipgloss.Left, topPane, header, bottomPane, footer)
}

// Commands

func fetchData(api *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		status, err := api.Status(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		processes, err := api.Processes(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		resources, err := api.Resources(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		entries, err := api.Log(ctx, maxLogEntries)
		if err != nil {
			return dataMsg{err: err}
		}

		return dataMsg{
			status:    status,
			processes: processes,
			resources: resources,
			entries:   entries,
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	endpoint := os.Getenv("LOCKLORD_ENDPOINT")
	p := tea.NewProgram(initialModel(client.NewClient(endpoint)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
