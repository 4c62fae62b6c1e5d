package presenter

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/spinpick/internal/reveal"
)

// frameInterval paces the wheel animation.
const frameInterval = 50 * time.Millisecond

// Controller is the part of reveal.Controller the TUI drives.
type Controller interface {
	RequestReveal(tags []string) bool
	Abort() bool
	Reset() bool
	State() reveal.State
	Subscribe(fn func(reveal.State)) (cancel func())
}

type stateMsg reveal.State

type frameMsg time.Time

// mailbox keeps the latest published state for the TUI to pick up without
// ever blocking the controller loop.
type mailbox struct {
	mu     sync.Mutex
	latest reveal.State
	notify chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1), done: make(chan struct{})}
}

func (m *mailbox) put(st reveal.State) {
	m.mu.Lock()
	m.latest = st
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// wait blocks until a new state is put or the mailbox is closed, in which
// case it returns nil.
func (m *mailbox) wait() tea.Msg {
	select {
	case <-m.notify:
	case <-m.done:
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return stateMsg(m.latest)
}

func (m *mailbox) close() {
	m.closeOnce.Do(func() { close(m.done) })
}

type keyMap struct {
	Spin  key.Binding
	Abort key.Binding
	Reset key.Binding
	Share key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Spin, k.Abort, k.Reset, k.Share, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeys() keyMap {
	return keyMap{
		Spin:  key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "spin")),
		Abort: key.NewBinding(key.WithKeys("x", "esc"), key.WithHelp("x", "abort")),
		Reset: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Share: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model is the bubbletea model of the interactive wheel.
type Model struct {
	ctrl     Controller
	tags     []string
	spinDur  time.Duration
	now      func() time.Time
	renderer *Renderer
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	box      *mailbox
	unsub    func()

	st        reveal.State
	spinStart time.Time
	rotation  float64
	shared    string
}

// NewModel creates the TUI for ctrl. tags are sent with every spin;
// spinDur must match the controller's spin duration.
func NewModel(ctrl Controller, tags []string, spinDur time.Duration) *Model {
	m := &Model{
		ctrl:     ctrl,
		tags:     tags,
		spinDur:  spinDur,
		now:      time.Now,
		renderer: NewRenderer(),
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		box:      newMailbox(),
	}
	m.st = ctrl.State()
	m.rotation = m.st.Rotation
	m.unsub = ctrl.Subscribe(m.box.put)
	return m
}

// Close removes the controller subscription and releases a pending wait.
// It is safe to call more than once.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
	m.box.close()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.box.wait, m.spinner.Tick)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case stateMsg:
		return m, tea.Batch(m.applyState(reveal.State(msg)), m.box.wait)

	case frameMsg:
		if m.st.Phase != reveal.PhaseAnimating || m.st.Plan == nil {
			return m, nil
		}
		m.rotation = m.animatedRotation(time.Time(msg))
		return m, frame()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.Spin):
		m.shared = ""
		m.ctrl.RequestReveal(m.tags)
	case key.Matches(msg, m.keys.Abort):
		m.ctrl.Abort()
	case key.Matches(msg, m.keys.Reset):
		m.shared = ""
		m.ctrl.Reset()
	case key.Matches(msg, m.keys.Share):
		if winner, ok := m.st.Winner(); ok {
			m.shared = SharePayload(winner).Text
		}
	}
	return nil
}

func (m *Model) applyState(st reveal.State) tea.Cmd {
	prev := m.st
	m.st = st

	if st.Phase == reveal.PhaseAnimating && st.Plan != nil {
		if prev.Phase != reveal.PhaseAnimating || prev.Generation != st.Generation {
			m.spinStart = m.now()
			m.rotation = st.Plan.StartRotation
			return frame()
		}
		return nil
	}
	m.rotation = st.Rotation
	return nil
}

// animatedRotation eases from the plan's start to its target over spinDur.
func (m *Model) animatedRotation(at time.Time) float64 {
	plan := m.st.Plan
	if m.spinDur <= 0 {
		return plan.TargetRotation
	}
	t := float64(at.Sub(m.spinStart)) / float64(m.spinDur)
	if t >= 1 {
		return plan.TargetRotation
	}
	if t < 0 {
		t = 0
	}
	eased := 1 - (1-t)*(1-t)*(1-t)
	return plan.StartRotation + (plan.TargetRotation-plan.StartRotation)*eased
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderer.Styles.Header.Render("spinpick"))
	b.WriteString("\n\n")

	switch m.st.Phase {
	case reveal.PhaseLoading:
		b.WriteString(m.spinner.View() + " " + m.renderer.State(m.st))
	case reveal.PhaseAnimating:
		b.WriteString("Spinning...\n")
		b.WriteString(m.renderer.Wheel(m.st.Candidates, m.rotation))
	default:
		b.WriteString(m.renderer.State(m.st))
	}

	if m.shared != "" {
		b.WriteString("\n\n")
		b.WriteString(m.renderer.Styles.Muted.Render("Share:"))
		b.WriteString("\n")
		b.WriteString(m.shared)
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}
