// Package ui is the Bubble Tea front end of the chat client.
package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/vovakirdan/wirechat-tui/internal/chat"
	"github.com/vovakirdan/wirechat-tui/internal/proto"
)

const (
	rosterWidth = 24
	inputHeight = 2
	helpText    = "enter send · tab select user · ctrl+p private chat · ctrl+r switch room · ctrl+l leave · ctrl+c quit"
)

// restoreMsg triggers the saved-session restore on the event loop.
type restoreMsg struct{}

// Model renders a chat.View and turns key presses into view operations.
type Model struct {
	view  *chat.View
	disp  *Dispatcher
	title string

	width  int
	height int

	viewport viewport.Model
	input    textarea.Model

	selected int    // roster index
	flash    string // one-shot hint shown in the footer
}

// New creates the model. The view must already be bound to the session.
func New(view *chat.View, disp *Dispatcher, title string) *Model {
	ti := textarea.New()
	ti.Placeholder = "Type your name to register..."
	ti.CharLimit = 500
	ti.SetHeight(inputHeight)
	ti.ShowLineNumbers = false
	ti.Prompt = "> "
	ti.Focus()

	return &Model{
		view:     view,
		disp:     disp,
		title:    title,
		viewport: viewport.New(),
		input:    ti,
	}
}

// Init restores the saved session and starts listening for session events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return restoreMsg{} },
		m.disp.Next(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()

	case restoreMsg:
		m.view.Restore()

	case dispatchMsg:
		msg.fn()
		m.refresh()
		return m, m.disp.Next()

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	m.refresh()
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	// The invite prompt blocks every other key until answered.
	if m.view.Snapshot().Invite != nil {
		switch key {
		case "y", "Y":
			m.view.AcceptInvite()
		case "n", "N", "esc":
			m.view.DeclineInvite()
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	switch key {
	case "enter":
		line := m.input.Value()
		m.input.Reset()
		m.flash = ""
		cmd = m.submit(line)
	case "tab":
		if users := m.view.Snapshot().Users; len(users) > 0 {
			m.selected = (m.selected + 1) % len(users)
		}
	case "ctrl+p":
		m.openPrivate()
	case "ctrl+l":
		m.view.LeaveRoom()
	case "ctrl+r":
		m.cycleRoom()
	default:
		m.input, cmd = m.input.Update(msg)
	}

	m.refresh()
	return m, cmd
}

// submit applies one line of input: a slash command, the name when none is set, or a chat message.
func (m *Model) submit(line string) tea.Cmd {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	s := m.view.Snapshot()

	if strings.HasPrefix(line, "/") {
		cmd, arg, _ := strings.Cut(line[1:], " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "name":
			if arg == "" {
				m.flash = "usage: /name <name>"
				return nil
			}
			m.view.RegisterName(arg)
		case "join":
			if arg == "" {
				arg = proto.PublicRoom
			}
			m.join(arg)
		case "leave":
			m.view.LeaveRoom()
		case "quit":
			return tea.Quit
		default:
			m.flash = fmt.Sprintf("unknown command /%s", cmd)
		}
		return nil
	}

	switch {
	case s.Name == "":
		m.view.RegisterName(line)
	case !s.Joined:
		m.flash = "join a room first: /join " + proto.PublicRoom
	default:
		m.view.SendMessage(line)
	}
	return nil
}

// join is disabled while the session is down.
func (m *Model) join(room string) {
	s := m.view.Snapshot()
	switch {
	case !s.Connected:
		m.flash = "not connected"
	case s.Name == "":
		m.flash = "register a name first"
	default:
		m.view.JoinRoom(room, s.Name)
	}
}

func (m *Model) openPrivate() {
	s := m.view.Snapshot()
	if !s.Connected || len(s.Users) == 0 {
		return
	}
	if s.Name == "" {
		m.flash = "register a name first"
		return
	}
	m.view.JoinPrivate(s.Users[m.selected%len(s.Users)].ID)
}

func (m *Model) cycleRoom() {
	s := m.view.Snapshot()
	if len(s.Rooms) < 2 {
		return
	}
	for i, room := range s.Rooms {
		if room == s.Room {
			m.view.SelectRoom(s.Rooms[(i+1)%len(s.Rooms)])
			return
		}
	}
	m.view.SelectRoom(s.Rooms[0])
}

func (m *Model) updateSizes() {
	chatWidth := m.width - rosterWidth - 2
	if chatWidth < 10 {
		chatWidth = 10
	}
	// header, invite line, footer, two panel borders and the input
	vpHeight := m.height - 3 - 2 - inputHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.SetWidth(chatWidth)
	m.viewport.SetHeight(vpHeight)
	m.input.SetWidth(m.width)
	m.refresh()
}

// refresh re-renders the history for the current room and keeps the roster selection in range.
func (m *Model) refresh() {
	s := m.view.Snapshot()
	if m.selected >= len(s.Users) {
		m.selected = 0
	}

	if s.Name == "" {
		m.input.Placeholder = "Type your name to register..."
	} else {
		m.input.Placeholder = "Type a message or /join <room>..."
	}

	lines := make([]string, 0, len(s.History))
	for _, msg := range s.History {
		if msg.System {
			lines = append(lines, SystemLineStyle.Render(msg.String()))
			continue
		}
		lines = append(lines, msg.String())
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// View renders the model.
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		v.SetContent("Loading...")
		return v
	}

	s := m.view.Snapshot()
	panels := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderRoster(s),
		PanelStyle.Render(m.viewport.View()),
	)

	v.SetContent(lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(s),
		panels,
		m.renderInvite(s),
		m.input.View(),
		m.renderFooter(),
	))
	return v
}

func (m *Model) renderHeader(s chat.State) string {
	where := "not joined"
	if s.Joined {
		where = s.Room
		if proto.IsPrivateRoom(s.Room) {
			where += " (private)"
		}
	}
	who := s.Name
	if who == "" {
		who = "anonymous"
	}

	status := OnlineStyle.Render("connected")
	if !s.Connected {
		reason := "disconnected"
		if s.Status != "" {
			reason += ": " + s.Status
		}
		status = OfflineStyle.Render(reason)
	}

	left := HeaderStyle.Render(fmt.Sprintf("%s  %s@%s", m.title, who, where))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", status)
}

func (m *Model) renderRoster(s chat.State) string {
	var sb strings.Builder
	sb.WriteString(PanelTitleStyle.Render("Online"))
	for i, u := range s.Users {
		label := u.Name
		if label == "" {
			label = u.ID
		}
		sb.WriteString("\n")
		if i == m.selected {
			sb.WriteString(SelectedUserStyle.Render("> " + label))
			continue
		}
		sb.WriteString("  " + label)
	}
	return PanelStyle.
		Width(rosterWidth).
		Height(m.viewport.Height()).
		Render(sb.String())
}

func (m *Model) renderInvite(s chat.State) string {
	if s.Invite == nil {
		return ""
	}
	return InviteStyle.Render(fmt.Sprintf("%s invites you to a private chat. Accept? [y/n]", s.Invite.Sender()))
}

func (m *Model) renderFooter() string {
	if m.flash != "" {
		return FooterStyle.Render(m.flash)
	}
	return FooterStyle.Render(helpText)
}
