package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vexscan/vex/internal/session"
)

type loginField int

const (
	loginFieldEmail loginField = iota
	loginFieldPassword
	numLoginFields
)

type loginDoneMsg struct {
	gen int
	err error
}

type loginModel struct {
	sessions   *session.Controller
	fields     [numLoginFields]string
	focus      loginField
	submitting bool
	errMsg     string
	gen        int
}

func newLoginModel(sessions *session.Controller) loginModel {
	return loginModel{sessions: sessions}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m *loginModel) reset() {
	m.fields = [numLoginFields]string{}
	m.focus = loginFieldEmail
	m.errMsg = ""
	m.submitting = false
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		// Success: the controller redirects, which swaps the view out.
		m.reset()
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m loginModel) updateKeys(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	m.errMsg = ""

	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % numLoginFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
	case "backspace":
		f := &m.fields[m.focus]
		*f = editRune(*f, "backspace")
	case "enter":
		if m.focus < numLoginFields-1 {
			m.focus++
			return m, nil
		}
		return m.submit()
	default:
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	m.gen++
	m.submitting = true
	gen := m.gen
	sessions := m.sessions
	email := strings.TrimSpace(m.fields[loginFieldEmail])
	password := m.fields[loginFieldPassword]
	return m, func() tea.Msg {
		err := sessions.Login(context.Background(), email, password)
		return loginDoneMsg{gen: gen, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("sign in") + "\n\n")

	labels := [numLoginFields]string{"email", "password"}
	for i := loginField(0); i < numLoginFields; i++ {
		cursor := " "
		style := metaStyle
		if i == m.focus {
			cursor = ">"
			style = selectedStyle
		}
		display := m.fields[i]
		if i == loginFieldPassword {
			display = strings.Repeat("*", len(display))
		}
		if i == m.focus {
			display += "█"
		}
		fmt.Fprintf(&b, " %s %s: %s\n", cursor, style.Render(fmt.Sprintf("%-8s", labels[i])), display)
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("signing in..."))
	case m.errMsg != "":
		b.WriteString(" " + errStyle.Render(m.errMsg))
	default:
		b.WriteString(" " + metaStyle.Render("no account? ctrl+r to register"))
	}
	return b.String()
}
