package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nav-telemetry/tui/internal/client"
	"github.com/nav-telemetry/tui/internal/theme"
	"github.com/nav-telemetry/tui/internal/views/dashboard"
	"github.com/nav-telemetry/tui/internal/views/detail"
	"github.com/nav-telemetry/tui/internal/views/events"
	"github.com/nav-telemetry/tui/internal/views/feedback"
	"github.com/nav-telemetry/tui/internal/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayFeedback
)

// Options tunes the console.
type Options struct {
	Style     string        // glamour style for the detail view
	Poll      time.Duration // stats and history refresh interval
	MaxEvents int
}

// Model is the root Bubble Tea model.
type Model struct {
	ws     *client.WSClient
	http   *client.HTTPClient
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	keys   KeyMap
	width  int
	height int

	overlay Overlay

	// Sub-views.
	statusBar status.Model
	dashboard dashboard.Model
	events    events.Model
	detail    detail.Model
	feedback  feedback.Model

	// Connection state.
	connected    bool
	awaitingSnap bool
	animating    bool

	// Host app state reported to /api/lifecycle.
	foreground bool
	portrait   bool
}

// --- internal messages ---

type pollMsg struct{}

type frameMsg struct{}

type statsMsg struct {
	stats *client.Stats
	err   error
}

type historyMsg struct {
	history *client.History
	err     error
}

type feedbackSentMsg struct {
	accepted bool
	err      error
}

type lifecycleMsg struct {
	notice string
	err    error
}

// New creates the root model.
func New(ws *client.WSClient, http *client.HTTPClient, opts Options) Model {
	if opts.Style == "" {
		opts.Style = "dark"
	}
	if opts.Poll <= 0 {
		opts.Poll = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ws:         ws,
		http:       http,
		ctx:        ctx,
		cancel:     cancel,
		opts:       opts,
		keys:       DefaultKeyMap(),
		statusBar:  status.New(),
		dashboard:  dashboard.New(),
		events:     events.New(opts.MaxEvents),
		detail:     detail.New(opts.Style),
		feedback:   feedback.New(),
		foreground: true,
		portrait:   true,
	}
}

// Init starts the WebSocket connection and the REST polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.ws.Listen(m.ctx), m.poll())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.dashboard.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.connected = true
		m.awaitingSnap = true
		m.statusBar.Connected = true
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		return m, m.ws.Listen(m.ctx)

	case client.WSSnapshotMsg:
		p := msg.Payload
		m.statusBar.Session = p.Session
		m.dashboard.Session = p.Session
		if p.Stats != nil {
			m.statusBar.Stats = p.Stats
		}
		var anim tea.Cmd
		// Periodic snapshots repeat the recent events; only the first one
		// after connecting replaces the log.
		if m.awaitingSnap {
			m.awaitingSnap = false
			m.events.Reset(p.Recent)
			anim = m.observe(p.Recent)
		}
		return m, tea.Batch(m.ws.ReadLoop(m.ctx), anim)

	case client.WSEventsMsg:
		m.events.Add(msg.Payload.Events...)
		return m, tea.Batch(m.ws.ReadLoop(m.ctx), m.observe(msg.Payload.Events))

	case client.WSErrorMsg:
		m.statusBar.Notice = "server: " + msg.Message
		return m, m.ws.ReadLoop(m.ctx)

	case frameMsg:
		if m.dashboard.Step() {
			return m, frame()
		}
		m.animating = false
		return m, nil

	case pollMsg:
		return m, m.poll()

	case statsMsg:
		if msg.err == nil {
			m.statusBar.Stats = msg.stats
		}
		return m, nil

	case historyMsg:
		if msg.err == nil {
			m.dashboard.History = msg.history
		}
		return m, nil

	case feedbackSentMsg:
		switch {
		case msg.err != nil:
			m.feedback.Status = msg.err.Error()
		case !msg.accepted:
			m.feedback.Status = "no navigation session; feedback discarded"
		default:
			m.feedback.Blur()
			m.overlay = OverlayNone
			m.statusBar.Notice = "feedback queued"
		}
		return m, nil

	case lifecycleMsg:
		if msg.err != nil {
			m.statusBar.Notice = msg.err.Error()
		} else {
			m.statusBar.Notice = msg.notice
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.cancel()
		return m, tea.Quit
	}

	switch m.overlay {
	case OverlayDetail:
		if key.Matches(msg, m.keys.Escape) {
			m.overlay = OverlayNone
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case OverlayFeedback:
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.feedback.Blur()
			m.overlay = OverlayNone
			return m, nil
		case key.Matches(msg, m.keys.NextType):
			m.feedback.NextType()
			return m, nil
		case key.Matches(msg, m.keys.PrevType):
			m.feedback.PrevType()
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			m.feedback.Status = "sending..."
			return m, m.sendFeedback(m.feedback.Feedback())
		}
		var cmd tea.Cmd
		m.feedback, cmd = m.feedback.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		m.events.Down(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.events.Up(1)
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		sel, ok := m.events.Selected()
		if !ok {
			return m, nil
		}
		if err := m.detail.SetEvent(sel.Event, m.width, m.height-3); err != nil {
			m.statusBar.Notice = err.Error()
			return m, nil
		}
		m.overlay = OverlayDetail
		return m, nil

	case key.Matches(msg, m.keys.Feedback):
		m.overlay = OverlayFeedback
		return m, m.feedback.Focus()

	case key.Matches(msg, m.keys.Background):
		m.foreground = !m.foreground
		v := m.foreground
		return m, m.setLifecycle(&v, nil, fmt.Sprintf("foreground: %v", v))

	case key.Matches(msg, m.keys.Orientation):
		m.portrait = !m.portrait
		v := m.portrait
		return m, m.setLifecycle(nil, &v, fmt.Sprintf("portrait: %v", v))

	case key.Matches(msg, m.keys.Resync):
		if m.ws != nil {
			if err := m.ws.Resync(); err != nil {
				m.statusBar.Notice = err.Error()
			}
		}
		return m, nil
	}

	return m, nil
}

// observe feeds events to the progress bar and starts the frame loop when
// it is not already running.
func (m *Model) observe(evs []client.Event) tea.Cmd {
	moving := false
	for _, ev := range evs {
		if m.dashboard.Observe(ev) {
			moving = true
		}
	}
	if !moving || m.animating {
		return nil
	}
	m.animating = true
	return frame()
}

func frame() tea.Cmd {
	return tea.Tick(dashboard.FrameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// poll fetches stats and history now and schedules the next poll.
func (m Model) poll() tea.Cmd {
	if m.http == nil {
		return nil
	}
	h := m.http
	return tea.Batch(
		func() tea.Msg {
			s, err := h.GetStats()
			return statsMsg{stats: s, err: err}
		},
		func() tea.Msg {
			hist, err := h.GetHistory()
			return historyMsg{history: hist, err: err}
		},
		tea.Tick(m.opts.Poll, func(time.Time) tea.Msg { return pollMsg{} }),
	)
}

func (m Model) sendFeedback(fb client.Feedback) tea.Cmd {
	if m.http == nil {
		return nil
	}
	h := m.http
	return func() tea.Msg {
		accepted, err := h.PostFeedback(fb)
		return feedbackSentMsg{accepted: accepted, err: err}
	}
}

func (m Model) setLifecycle(foreground, portrait *bool, notice string) tea.Cmd {
	if m.http == nil {
		return nil
	}
	h := m.http
	return func() tea.Msg {
		return lifecycleMsg{notice: notice, err: h.SetLifecycle(foreground, portrait)}
	}
}

// View renders the full console.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if !m.connected {
		return m.renderDisconnected()
	}

	top := m.statusBar.View()
	help := theme.StyleDimmed.Render("  j/k:select  enter:detail  f:feedback  b:foreground  o:portrait  r:resync  q:quit")

	var body string
	switch m.overlay {
	case OverlayDetail:
		body = m.detail.View()
	case OverlayFeedback:
		body = m.feedback.View()
	default:
		dash := m.dashboard.View()
		remaining := m.height - lipgloss.Height(top) - lipgloss.Height(dash) - 1
		body = lipgloss.JoinVertical(lipgloss.Left, dash, m.events.View(m.width, remaining))
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, body, help)
}

func (m Model) renderDisconnected() string {
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorDanger).
		Padding(1, 4).
		Render(lipgloss.JoinVertical(lipgloss.Center,
			lipgloss.NewStyle().Bold(true).Foreground(theme.ColorDanger).Render("DISCONNECTED"),
			theme.StyleDimmed.Render("Reconnecting to the telemetry daemon..."),
		))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
