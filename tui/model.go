// Package tui is the terminal front end: a bubbletea program that mirrors the
// HTML widget, with the form on top and the newest messages below it.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/onnwee/livechat-viewer/chat"
	"github.com/onnwee/livechat-viewer/ui"
)

const (
	focusVideoID = iota
	focusAPIKey
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	authorStyle = lipgloss.NewStyle().Bold(true)
	buttonStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type (
	stateMsg     chat.State
	submitDone   struct{}
	streamClosed struct{}
)

// Model is the bubbletea model. The session owns the state; the model keeps
// the latest snapshot it was sent.
type Model struct {
	ctx     context.Context
	session *chat.Session
	opts    ui.Options

	updates     <-chan chat.State
	unsubscribe func()

	videoID  textinput.Model
	apiKey   textinput.Model
	focus    int
	spinner  spinner.Model
	viewport viewport.Model

	state chat.State
}

// New builds a model subscribed to session. Call Close when the program ends.
func New(ctx context.Context, session *chat.Session, opts ui.Options) *Model {
	vid := textinput.New()
	vid.Placeholder = ui.VideoIDHint
	vid.CharLimit = 64
	vid.Focus()

	key := textinput.New()
	key.Placeholder = ui.APIKeyHint
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	updates, unsubscribe := session.Subscribe()
	return &Model{
		ctx:         ctx,
		session:     session,
		opts:        opts,
		updates:     updates,
		unsubscribe: unsubscribe,
		videoID:     vid,
		apiKey:      key,
		spinner:     sp,
		viewport:    viewport.New(80, 20),
		state:       session.State(),
	}
}

// Close releases the state subscription.
func (m *Model) Close() { m.unsubscribe() }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForState(m.updates))
}

func waitForState(ch <-chan chat.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return streamClosed{}
		}
		return stateMsg(st)
	}
}

func (m *Model) submit() tea.Cmd {
	videoID := strings.TrimSpace(m.videoID.Value())
	apiKey := strings.TrimSpace(m.apiKey.Value())
	if videoID == "" || apiKey == "" || m.state.Loading {
		return nil
	}
	ctx, session := m.ctx, m.session
	// Every transition, including the outcome, arrives through the
	// subscription; the returned snapshot may already be stale.
	return func() tea.Msg {
		session.Submit(ctx, videoID, apiKey)
		return submitDone{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab:
			return m, m.toggleFocus()
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		if m.focus == focusVideoID {
			m.videoID, cmd = m.videoID.Update(msg)
		} else {
			m.apiKey, cmd = m.apiKey.Update(msg)
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.videoID.Width = max(msg.Width-8, 10)
		m.apiKey.Width = max(msg.Width-8, 10)
		// title, two inputs, button, banner and spacing
		const chrome = 10
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chrome, 3)
		m.viewport.SetContent(m.renderLines())
		return m, nil

	case stateMsg:
		m.setState(chat.State(msg))
		return m, waitForState(m.updates)

	case submitDone, streamClosed:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) setState(st chat.State) {
	m.state = st
	m.viewport.SetContent(m.renderLines())
	m.viewport.GotoTop()
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusVideoID {
		m.focus = focusAPIKey
		m.videoID.Blur()
		return m.apiKey.Focus()
	}
	m.focus = focusVideoID
	m.apiKey.Blur()
	return m.videoID.Focus()
}

func (m *Model) renderLines() string {
	v := ui.Build(m.state, m.opts)
	if v.ShowEmpty {
		return mutedStyle.Render(v.Placeholder)
	}
	var b strings.Builder
	for i, l := range v.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(authorStyle.Render(l.Author))
		b.WriteString(": ")
		b.WriteString(l.Text)
		if l.Time != "" {
			b.WriteString(" ")
			b.WriteString(mutedStyle.Render(l.Time))
		}
	}
	return b.String()
}

func (m *Model) View() string {
	v := ui.Build(m.state, m.opts)

	label := v.SubmitLabel
	if v.Loading {
		label = m.spinner.View() + " " + label
	}

	parts := []string{
		titleStyle.Render(ui.Title),
		m.videoID.View(),
		m.apiKey.View(),
		buttonStyle.Render(label),
	}
	if v.ShowBanner {
		parts = append(parts, bannerStyle.Render(v.Error))
	}
	parts = append(parts, m.viewport.View(), mutedStyle.Render("tab: switch field • enter: load chat • pgup/pgdn: scroll • esc: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Run drives the program until the user quits or ctx ends, then tears the
// session down.
func Run(ctx context.Context, session *chat.Session, opts ui.Options) error {
	m := New(ctx, session, opts)
	defer session.Close()
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
