// Package tui renders the conversation in a terminal and forwards user
// actions to the conversation store.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhouzirui/minimalist-ai/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/minimalist-ai/backend/internal/service/chat"
)

// Store is the slice of the conversation store the terminal client needs.
type Store interface {
	State() chat.State
	Send(ctx context.Context, text string) (chat.Message, error)
	Clear(ctx context.Context)
	Subscribe() (<-chan chatservice.Event, func())
}

// stateMsg delivers a fresh conversation state into the update loop.
type stateMsg chat.State

// closedMsg signals that the store stopped publishing.
type closedMsg struct{}

// Model is the bubbletea model for the chat screen.
type Model struct {
	store       Store
	events      <-chan chatservice.Event
	unsubscribe func()

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	state  chat.State
	width  int
	height int
	ready  bool
}

// New builds the model and subscribes to store updates.
func New(store Store) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask me anything..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.pending

	events, unsubscribe := store.Subscribe()

	return &Model{
		store:       store,
		events:      events,
		unsubscribe: unsubscribe,
		input:       ti,
		spinner:     sp,
		state:       store.State(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForEvent())
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return stateMsg(evt.State)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 4
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.unsubscribe()
			return m, tea.Quit
		case tea.KeyCtrlL:
			m.store.Clear(context.Background())
			return m, nil
		case tea.KeyEnter:
			m.submit()
			return m, nil
		}

	case stateMsg:
		m.state = chat.State(msg)
		m.refresh()
		cmds = append(cmds, m.waitForEvent())

	case closedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit forwards the input to the store. Like the web input, it does
// nothing while a reply is pending or the text is blank.
func (m *Model) submit() {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" || m.state.Pending {
		return
	}
	if _, err := m.store.Send(context.Background(), text); err != nil {
		return
	}
	m.input.Reset()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderConversation(m.state, m.width))
	m.viewport.GotoBottom()
}

func (m *Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	var b strings.Builder
	b.WriteString(styles.header.Render("Minimalist AI"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.state.Pending {
		b.WriteString(m.spinner.View())
		b.WriteString(styles.pending.Render(" thinking"))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(styles.help.Render("enter send • ctrl+l clear • esc quit"))
	return b.String()
}
