package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeAnalyze(m analyzeModel, s string) analyzeModel {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestAnalyzeRejectsMissingFile(t *testing.T) {
	a, _ := newTestApp(t)
	m := a.analyze
	m = typeAnalyze(m, "/no/such/file.bin")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("unreadable path must not start an upload")
	}
	if !strings.Contains(m.View(), "cannot read") {
		t.Errorf("expected path error, got:\n%s", m.View())
	}
}

func TestAnalyzeRejectsEmptyPath(t *testing.T) {
	a, _ := newTestApp(t)
	m := a.analyze
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("empty path must not start an upload")
	}
	if !strings.Contains(m.View(), "enter a file path") {
		t.Errorf("expected prompt, got:\n%s", m.View())
	}
}

func TestAnalyzeUploadsAndShowsResult(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.sessions.Login(context.Background(), "m@example.com", "hunter2secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sample.bin")
	if err := os.WriteFile(path, []byte("MZ\x90\x00"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := a.analyze
	m = typeAnalyze(m, path)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected an upload command")
	}
	if !m.submitting {
		t.Error("expected submitting state while the upload runs")
	}

	m, _ = m.Update(cmd())
	view := m.View()
	if !strings.Contains(view, "Task queued") {
		t.Errorf("expected queued status, got:\n%s", view)
	}
	if !strings.Contains(view, "d2f0aa8b77") {
		t.Errorf("expected content hash, got:\n%s", view)
	}
	if m.path != "" {
		t.Error("path input should clear after a successful upload")
	}
}

func TestAnalyzeStaleResultDropped(t *testing.T) {
	a, _ := newTestApp(t)
	m := a.analyze
	m.gen = 3
	m, _ = m.Update(analyzeDoneMsg{gen: 2, err: errTest})
	if m.errMsg != "" {
		t.Error("stale error must be dropped")
	}
}
