package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeString(t *testing.T, m loginModel, s string) loginModel {
	t.Helper()
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestLoginFieldEditing(t *testing.T) {
	a, _ := newTestApp(t)
	m := a.login

	m = typeString(t, m, "m@example.com")
	if m.fields[loginFieldEmail] != "m@example.com" {
		t.Errorf("email field = %q", m.fields[loginFieldEmail])
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != loginFieldPassword {
		t.Fatalf("tab should move focus, got %d", m.focus)
	}
	m = typeString(t, m, "hunter2secret")

	view := m.View()
	if strings.Contains(view, "hunter2secret") {
		t.Error("password must be masked in the view")
	}
	if !strings.Contains(view, strings.Repeat("*", len("hunter2secret"))) {
		t.Error("expected masked password runes")
	}
}

func TestLoginValidationErrorShownWithoutNetwork(t *testing.T) {
	a, _ := newTestApp(t)
	m := a.login
	m = typeString(t, m, "not-an-email")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeString(t, m, "whatever")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on the last field should submit")
	}
	m, _ = m.Update(cmd())

	view := m.View()
	if !strings.Contains(view, "valid email") {
		t.Errorf("expected validation message, got:\n%s", view)
	}
}

func TestLoginRejectedShowsServerMessage(t *testing.T) {
	a, _ := newTestApp(t)
	m := a.login
	m = typeString(t, m, "m@example.com")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeString(t, m, "wrongpassword")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(cmd())

	if !strings.Contains(m.View(), "Invalid email or password") {
		t.Errorf("expected server rejection verbatim, got:\n%s", m.View())
	}
}

func TestLoginSuccessRedirectsToLanding(t *testing.T) {
	a, nav := newTestApp(t)
	m := a.login
	m = typeString(t, m, "m@example.com")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeString(t, m, "hunter2secret")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(cmd())

	if m.errMsg != "" {
		t.Fatalf("unexpected login error: %s", m.errMsg)
	}
	select {
	case path := <-nav.ch:
		if path != "/dashboard" {
			t.Errorf("expected redirect to /dashboard, got %s", path)
		}
	default:
		t.Error("expected a redirect after successful login")
	}
	if m.fields[loginFieldPassword] != "" {
		t.Error("form should reset after success")
	}
}

func TestRegisterPasswordMismatchShown(t *testing.T) {
	a, _ := newTestApp(t)
	m := a.register
	m.fields[regFieldUsername] = "mallory"
	m.fields[regFieldEmail] = "m@example.com"
	m.fields[regFieldPassword] = "hunter2secret"
	m.fields[regFieldConfirm] = "different1234"
	m.focus = regFieldConfirm

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	m, _ = m.Update(cmd())

	if !strings.Contains(m.View(), "passwords do not match") {
		t.Errorf("expected mismatch message, got:\n%s", m.View())
	}
}
