// Package tui is the push-to-talk terminal interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"node.town/vaani/history"
	"node.town/vaani/lang"
	"node.town/vaani/pipeline"
)

// Controller is the part of the orchestrator the interface drives.
type Controller interface {
	Dispatch(ctx context.Context, cmd pipeline.Command) error
	Snapshot() pipeline.Snapshot
	History() []history.Entry
	Subscribe(obs pipeline.Observer) func()
}

type dispatchedMsg struct {
	name string
	err  error
}

var (
	accent     = lipgloss.Color("#25A065")
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(accent).
			Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	fallbackNote = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
)

type model struct {
	ctrl     Controller
	events   chan pipeline.Event
	logger   *log.Logger
	viewport viewport.Model
	spinner  spinner.Model

	snap       pipeline.Snapshot
	fallback   bool
	history    []history.Entry
	logEntries []string
	ready      bool
	view       string // "texts", "history" or "log"
}

func initialModel(ctrl Controller, events chan pipeline.Event, logger *log.Logger) model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		ctrl:    ctrl,
		events:  events,
		logger:  logger,
		spinner: s,
		snap:    ctrl.Snapshot(),
		history: ctrl.History(),
		view:    "texts",
	}
}

// Run shows the interface until the user quits.
func Run(ctx context.Context, ctrl Controller, logger *log.Logger) error {
	events := make(chan pipeline.Event, 256)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unsubscribe := ctrl.Subscribe(func(ev pipeline.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	defer unsubscribe()

	p := tea.NewProgram(initialModel(ctrl, events, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func waitForEvent(events chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func (m model) dispatch(cmd pipeline.Command) tea.Cmd {
	return func() tea.Msg {
		err := m.ctrl.Dispatch(context.Background(), cmd)
		return dispatchedMsg{name: cmd.Name(), err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case " ", "enter":
			cmds = append(cmds, m.dispatch(pipeline.ToggleCapture{}))
		case "s":
			cmds = append(cmds, m.dispatch(pipeline.SwapLanguages{}))
		case "[", "]":
			step := map[string]int{"[": -1, "]": 1}[msg.String()]
			code := lang.Cycle(m.snap.Languages.Source, step)
			cmds = append(cmds, m.dispatch(pipeline.SelectLanguage{Side: pipeline.SourceSide, Code: code}))
		case "{", "}":
			step := map[string]int{"{": -1, "}": 1}[msg.String()]
			code := lang.Cycle(m.snap.Languages.Target, step)
			cmds = append(cmds, m.dispatch(pipeline.SelectLanguage{Side: pipeline.TargetSide, Code: code}))
		case "r":
			cmds = append(cmds, m.dispatch(pipeline.Replay{}))
		case "c":
			cmds = append(cmds, m.dispatch(pipeline.ClearHistory{}))
		case "h":
			m.toggleView("history")
		case "tab":
			m.toggleView("log")
		}

	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		verticalMarginHeight := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMarginHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMarginHeight
		}
		m.viewport.SetContent(m.contentView())

	case pipeline.Event:
		m.apply(msg)
		m.viewport.SetContent(m.contentView())
		cmds = append(cmds, waitForEvent(m.events))

	case dispatchedMsg:
		if msg.err != nil {
			m.logger.Debug("command", "name", msg.name, "error", msg.err)
			if errors.Is(msg.err, pipeline.ErrNothingToReplay) {
				m.snap.Message = msg.err.Error()
				m.viewport.SetContent(m.contentView())
			}
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) toggleView(name string) {
	if m.view == name {
		m.view = "texts"
	} else {
		m.view = name
	}
	m.viewport.SetContent(m.contentView())
	m.viewport.GotoTop()
}

func (m *model) apply(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventState:
		m.snap.State = ev.State
		if ev.State == pipeline.Recording {
			m.snap.Transcript = ""
			m.snap.Translation = ""
			m.snap.Message = ""
			m.fallback = false
		}
	case pipeline.EventTranscript:
		m.snap.Transcript = ev.Text
	case pipeline.EventTranslation:
		m.snap.Translation = ev.Text
		m.fallback = ev.Fallback
	case pipeline.EventError:
		m.snap.Message = ev.Message
	case pipeline.EventLanguages:
		m.snap.Languages = lang.Pair{Source: ev.Source, Target: ev.Target}
	case pipeline.EventHistory:
		m.history = m.ctrl.History()
	case pipeline.EventPlayback:
		m.snap.CanReplay = true
	}

	m.logEntries = append(m.logEntries, logLine(ev))
}

func logLine(ev pipeline.Event) string {
	detail := ev.Text
	switch ev.Type {
	case pipeline.EventState:
		detail = string(ev.State)
	case pipeline.EventError:
		detail = ev.Message
	case pipeline.EventLanguages:
		detail = ev.Source + " -> " + ev.Target
	case pipeline.EventPlayback:
		detail = fmt.Sprintf("%d base64 chars", len(ev.AudioBase64))
	}
	return fmt.Sprintf("%s %4d %-11s %s", ev.Time.Format("15:04:05"), ev.Seq, ev.Type, detail)
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	return fmt.Sprintf(
		"%s\n%s\n%s",
		m.headerView(),
		m.viewport.View(),
		m.footerView(),
	)
}

func (m model) headerView() string {
	title := titleStyle.Render("vaani")
	status := " " + m.stateView() + "  " + m.languagesView() + " "
	line := strings.Repeat(
		"─",
		max(0, m.viewport.Width-lipgloss.Width(title)-lipgloss.Width(status)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Center, title, status, line)
}

func (m model) stateView() string {
	switch m.snap.State {
	case pipeline.Recording:
		return errorStyle.Render("● recording")
	case pipeline.Processing:
		return m.spinner.View() + " processing"
	case pipeline.Error:
		return errorStyle.Render("error")
	default:
		return string(m.snap.State)
	}
}

func (m model) languagesView() string {
	return fmt.Sprintf("%s → %s", lang.Name(m.snap.Languages.Source), lang.Name(m.snap.Languages.Target))
}

func (m model) footerView() string {
	info := titleStyle.Render("space talk · s swap · [ ] source · { } target · r replay · h history · c clear · q quit")
	line := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(info)))
	return lipgloss.JoinHorizontal(lipgloss.Center, line, info)
}

func (m model) contentView() string {
	switch m.view {
	case "history":
		return m.historyView()
	case "log":
		return m.logView()
	default:
		return m.textsView()
	}
}

func (m model) textsView() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("You said ("+lang.Name(m.snap.Languages.Source)+")") + "\n")
	b.WriteString(m.snap.Transcript + "\n\n")
	b.WriteString(labelStyle.Render("Translation ("+lang.Name(m.snap.Languages.Target)+")") + "\n")
	b.WriteString(m.snap.Translation + "\n")
	if m.fallback {
		b.WriteString(fallbackNote.Render("translation unavailable, showing original") + "\n")
	}
	if m.snap.Message != "" {
		b.WriteString("\n" + errorStyle.Render(m.snap.Message) + "\n")
	}
	return b.String()
}

func (m model) historyView() string {
	if len(m.history) == 0 {
		return labelStyle.Render("No history yet.") + "\n"
	}
	var b strings.Builder
	for i, e := range m.history {
		fmt.Fprintf(&b, "%2d. %s\n    %s\n", i+1, e.Source, labelStyle.Render(e.Target))
	}
	return b.String()
}

func (m model) logView() string {
	var content strings.Builder
	for _, entry := range m.logEntries {
		content.WriteString(entry)
		content.WriteString("\n")
	}
	return content.String()
}
