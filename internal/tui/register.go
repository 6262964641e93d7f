package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vexscan/vex/internal/session"
)

type registerField int

const (
	regFieldUsername registerField = iota
	regFieldEmail
	regFieldPassword
	regFieldConfirm
	numRegFields
)

type registerDoneMsg struct {
	gen int
	err error
}

type registerModel struct {
	sessions   *session.Controller
	fields     [numRegFields]string
	focus      registerField
	submitting bool
	errMsg     string
	gen        int
}

func newRegisterModel(sessions *session.Controller) registerModel {
	return registerModel{sessions: sessions}
}

func (m registerModel) Init() tea.Cmd {
	return nil
}

func (m *registerModel) reset() {
	m.fields = [numRegFields]string{}
	m.focus = regFieldUsername
	m.errMsg = ""
	m.submitting = false
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case registerDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
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

func (m registerModel) updateKeys(msg tea.KeyMsg) (registerModel, tea.Cmd) {
	m.errMsg = ""

	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % numRegFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numRegFields) % numRegFields
	case "backspace":
		f := &m.fields[m.focus]
		*f = editRune(*f, "backspace")
	case "enter":
		if m.focus < numRegFields-1 {
			m.focus++
			return m, nil
		}
		return m.submit()
	default:
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	m.gen++
	m.submitting = true
	gen := m.gen
	sessions := m.sessions
	username := strings.TrimSpace(m.fields[regFieldUsername])
	email := strings.TrimSpace(m.fields[regFieldEmail])
	password := m.fields[regFieldPassword]
	confirm := m.fields[regFieldConfirm]
	return m, func() tea.Msg {
		err := sessions.Register(context.Background(), username, email, password, confirm)
		return registerDoneMsg{gen: gen, err: err}
	}
}

func (m registerModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("create account") + "\n\n")

	labels := [numRegFields]string{"username", "email", "password", "confirm"}
	for i := registerField(0); i < numRegFields; i++ {
		cursor := " "
		style := metaStyle
		if i == m.focus {
			cursor = ">"
			style = selectedStyle
		}
		display := m.fields[i]
		if i == regFieldPassword || i == regFieldConfirm {
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
		b.WriteString(" " + dimStyle.Render("creating account..."))
	case m.errMsg != "":
		b.WriteString(" " + errStyle.Render(m.errMsg))
	default:
		b.WriteString(" " + metaStyle.Render("already registered? ctrl+l to sign in"))
	}
	return b.String()
}
