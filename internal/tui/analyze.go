package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vexscan/vex/internal/session"
	"github.com/vexscan/vex/pkg/client"
)

type analyzeDoneMsg struct {
	gen    int
	result *client.AnalyzeResult
	err    error
}

// analyzeModel submits a local file for scanning and shows the queued result.
// The path input stays focused, so copy uses ctrl+y rather than a bare letter.
type analyzeModel struct {
	api        *client.Client
	sessions   *session.Controller
	path       string
	submitting bool
	result     *client.AnalyzeResult
	errMsg     string
	statusMsg  string
	gen        int
	width      int
	height     int
}

func newAnalyzeModel(api *client.Client, sessions *session.Controller) analyzeModel {
	return analyzeModel{api: api, sessions: sessions}
}

func (m analyzeModel) Init() tea.Cmd {
	return nil
}

func (m *analyzeModel) submit() tea.Cmd {
	path := strings.TrimSpace(m.path)
	if path == "" {
		m.errMsg = "enter a file path"
		return nil
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		m.errMsg = fmt.Sprintf("cannot read %s", path)
		return nil
	}
	if info.IsDir() {
		m.errMsg = "path is a directory"
		return nil
	}

	m.gen++
	m.submitting = true
	m.errMsg = ""
	m.result = nil
	m.statusMsg = fmt.Sprintf("uploading %s (%s)...", filepath.Base(path), formatSize(info.Size()))
	gen := m.gen
	api := m.api
	sessions := m.sessions
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return analyzeDoneMsg{gen: gen, err: err}
		}
		defer f.Close() //nolint:errcheck

		var result *client.AnalyzeResult
		err = sessions.Guard().Do(context.Background(), func(ctx context.Context, accessToken string) error {
			// Rewind between the initial attempt and a post-refresh retry.
			if _, seekErr := f.Seek(0, 0); seekErr != nil {
				return seekErr
			}
			var callErr error
			result, callErr = api.Analyze(ctx, accessToken, filepath.Base(path), f)
			return callErr
		})
		return analyzeDoneMsg{gen: gen, result: result, err: err}
	}
}

func (m analyzeModel) Update(msg tea.Msg) (analyzeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case analyzeDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.submitting = false
		m.statusMsg = ""
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrUnauthenticated) {
				return m, signedOutCmd()
			}
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.result = msg.result
		m.path = ""
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "hash copied!"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			return m, m.submit()
		case "ctrl+y":
			if m.result != nil {
				hash := m.result.Hash
				return m, func() tea.Msg {
					return copyResultMsg{err: clipboard.WriteAll(hash)}
				}
			}
		default:
			m.errMsg = ""
			m.path = editRune(m.path, msg.String())
		}
	}
	return m, nil
}

func (m analyzeModel) View() string {
	var sb strings.Builder
	sb.WriteString(" " + sectionHeaderStyle.Render("analyze a file") + "\n\n")

	prompt := " " + inputPromptStyle.Render("path> ")
	if m.path == "" {
		sb.WriteString(prompt + inputPlaceholderStyle.Render("/path/to/suspicious-binary") + "\n")
	} else {
		sb.WriteString(prompt + normalStyle.Render(m.path) + accentStyle.Render("█") + "\n")
	}
	sb.WriteString("\n")

	switch {
	case m.submitting:
		sb.WriteString(" " + dimStyle.Render(m.statusMsg) + "\n")
	case m.errMsg != "":
		sb.WriteString(" " + errStyle.Render(m.errMsg) + "\n")
	case m.result != nil:
		sb.WriteString(" " + okStyle.Render(m.result.Status) + "\n\n")
		sb.WriteString(" " + metaStyle.Render("job id ") + normalStyle.Render(m.result.ID) + "\n")
		sb.WriteString(" " + metaStyle.Render("sha256 ") + goldStyle.Render(m.result.Hash) + "\n")
		if m.statusMsg != "" {
			sb.WriteString("\n " + okStyle.Render(m.statusMsg) + "\n")
		}
	default:
		sb.WriteString(" " + metaStyle.Render("enter to upload") + "\n")
	}
	return sb.String()
}
