// Package tui is the interactive terminal dashboard over a store.Store.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bidwise/bidwise/internal/score"
	"github.com/bidwise/bidwise/internal/store"
)

// Tab identifies a dashboard page.
type Tab int

const (
	TabProjects Tab = iota
	TabBids
	TabMonitoring
	TabProgress
	TabScore
	numTabs
)

var tabNames = [numTabs]string{"Projects", "Bids", "Monitoring", "Progress", "AI Score"}

func (t Tab) String() string { return tabNames[t] }

// changedMsg is delivered when the store state changed.
type changedMsg struct{}

// opDoneMsg is delivered when a store operation returned.
type opDoneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx     context.Context
	store   *store.Store
	changes chan struct{}
	summary score.Summary

	unsubscribe func()

	snap     store.Snapshot
	tab      Tab
	cursor   int
	modal    *form
	spinner  spinner.Model
	progress progress.Model
	width    int
	height   int
	quitting bool
}

// New creates a dashboard bound to st. The model subscribes to st; call
// Close when the program exits.
func New(ctx context.Context, st *store.Store) *Model {
	m := &Model{
		ctx:      ctx,
		store:    st,
		changes:  make(chan struct{}, 1),
		summary:  score.Default(),
		snap:     st.Snapshot(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	m.unsubscribe = st.Subscribe(func(store.Snapshot) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

// Close stops listening to the store.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChange(), m.run("load", m.store.LoadInitial))
}

func (m *Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// run executes a store operation off the UI loop.
func (m *Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = progressWidth(msg.Width)
		return m, nil

	case changedMsg:
		m.refresh()
		return m, m.waitForChange()

	case opDoneMsg:
		m.refresh()
		if msg.op == "select" && m.tab == TabProgress {
			return m, m.ensureProgress()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.modal != nil {
			return m.updateModal(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

// refresh pulls the latest snapshot and keeps the cursor on the selected
// project when it is still listed.
func (m *Model) refresh() {
	m.snap = m.store.Snapshot()
	for i, p := range m.snap.Projects {
		if p.Name == m.snap.Selected && m.snap.Selected != "" {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.snap.Projects) {
		m.cursor = max(len(m.snap.Projects)-1, 0)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "right", "l":
		m.tab = (m.tab + 1) % numTabs
		return m, m.onTabChange()

	case "shift+tab", "left", "h":
		m.tab = (m.tab + numTabs - 1) % numTabs
		return m, m.onTabChange()

	case "up", "k":
		return m, m.moveCursor(-1)

	case "down", "j":
		return m, m.moveCursor(1)

	case "enter":
		return m, m.selectCursor()

	case "n":
		m.modal = newCreateForm()
		return m, m.modal.focus()

	case "s":
		m.modal = newStatusForm(m.snap.Selected)
		return m, m.modal.focus()

	case "r":
		return m, m.run("load", m.store.LoadInitial)
	}
	return m, nil
}

func (m *Model) onTabChange() tea.Cmd {
	switch m.tab {
	case TabProgress:
		return m.ensureProgress()
	case TabMonitoring:
		if len(m.snap.Traffic) == 0 {
			return m.run("traffic", m.store.RefreshTraffic)
		}
	}
	return nil
}

// ensureProgress fetches progress when the shown record is not the
// selected project's.
func (m *Model) ensureProgress() tea.Cmd {
	if m.snap.Selected == "" {
		return nil
	}
	if m.snap.Progress != nil && m.snap.Progress.Project == m.snap.Selected {
		return nil
	}
	return m.run("progress", m.store.RefreshProgress)
}

func (m *Model) moveCursor(delta int) tea.Cmd {
	n := len(m.snap.Projects)
	if n == 0 {
		return nil
	}
	next := m.cursor + delta
	if next < 0 || next >= n {
		return nil
	}
	m.cursor = next
	return m.selectCursor()
}

func (m *Model) selectCursor() tea.Cmd {
	if m.cursor >= len(m.snap.Projects) {
		return nil
	}
	name := m.snap.Projects[m.cursor].Name
	return m.run("select", func(ctx context.Context) error {
		return m.store.SelectProject(ctx, name)
	})
}

func (m *Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.modal = nil
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		return m, m.submitModal()
	case "tab", "down":
		return m, m.modal.next(1)
	case "shift+tab", "up":
		return m, m.modal.next(-1)
	}
	return m, m.modal.update(msg)
}

func (m *Model) submitModal() tea.Cmd {
	f := m.modal
	switch f.kind {
	case formCreate:
		input, err := f.newProject()
		if err != nil {
			f.err = err.Error()
			return nil
		}
		m.modal = nil
		return m.run("create", func(ctx context.Context) error {
			return m.store.CreateProject(ctx, input)
		})
	case formStatus:
		name, status := f.value(0), f.value(1)
		m.modal = nil
		return m.run("status", func(ctx context.Context) error {
			return m.store.ChangeProjectStatus(ctx, name, status)
		})
	}
	return nil
}

func progressWidth(width int) int {
	if width <= 20 {
		return 40
	}
	return width - 20
}
