package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vexscan/vex/internal/session"
	"github.com/vexscan/vex/pkg/client"
	"github.com/vexscan/vex/pkg/domain"
)

type historyLoadedMsg struct {
	gen     int
	records []domain.ScanRecord
	err     error
}

type copyResultMsg struct{ err error }

type historyModel struct {
	api       *client.Client
	sessions  *session.Controller
	records   []domain.ScanRecord
	cursor    int
	loading   bool
	errMsg    string
	statusMsg string
	gen       int
	width     int
	height    int
}

func newHistoryModel(api *client.Client, sessions *session.Controller) historyModel {
	return historyModel{api: api, sessions: sessions}
}

func (m historyModel) Init() tea.Cmd {
	return nil
}

func (m *historyModel) load() tea.Cmd {
	m.gen++
	m.loading = true
	m.errMsg = ""
	gen := m.gen
	api := m.api
	sessions := m.sessions
	return func() tea.Msg {
		user := sessions.Current().User
		if user == nil {
			return historyLoadedMsg{gen: gen, err: session.ErrUnauthenticated}
		}
		var records []domain.ScanRecord
		err := sessions.Guard().Do(context.Background(), func(ctx context.Context, accessToken string) error {
			var callErr error
			records, callErr = api.UserHistory(ctx, accessToken, user.ID)
			return callErr
		})
		return historyLoadedMsg{gen: gen, records: records, err: err}
	}
}

func (m historyModel) Update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrUnauthenticated) {
				return m, signedOutCmd()
			}
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.records = msg.records
		if m.cursor >= len(m.records) {
			m.cursor = 0
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "copied!"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.records)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "c":
			if m.cursor < len(m.records) {
				id := m.records[m.cursor].ID.String()
				return m, func() tea.Msg {
					return copyResultMsg{err: clipboard.WriteAll(id)}
				}
			}
		case "r":
			return m, m.load()
		}
	}
	return m, nil
}

func (m historyModel) View() string {
	if m.loading && len(m.records) == 0 {
		return " " + dimStyle.Render("loading history...")
	}
	if m.errMsg != "" {
		return " " + errStyle.Render("error: ") + dimStyle.Render(m.errMsg) + "\n\n " +
			metaStyle.Render("r to retry")
	}
	if len(m.records) == 0 {
		return " " + dimStyle.Render("no scans yet") + "\n\n " +
			metaStyle.Render("press 4 to analyze a file")
	}

	var sb strings.Builder
	header := fmt.Sprintf(" %-12s %-32s %-10s %-12s %s",
		"date", "file", "size", "verdict", "threats")
	sb.WriteString(sectionHeaderStyle.Render(header) + "\n")

	maxRows := m.height - 3
	if maxRows < 5 {
		maxRows = 10
	}
	for i, rec := range m.records {
		if i >= maxRows {
			break
		}
		verdict := rec.StatusLabel()
		threats := ""
		if rec.Threats > 0 {
			threats = maliciousStyle.Render(fmt.Sprintf("%d", rec.Threats))
		} else {
			threats = metaStyle.Render("0")
		}
		row := fmt.Sprintf(" %-12s %-32s %-10s %s %s",
			rec.Date,
			truncStr(rec.Filename, 31),
			rec.Size,
			StatusStyle(verdict).Render(fmt.Sprintf("%-12s", verdict)),
			threats,
		)
		if i == m.cursor {
			sb.WriteString(selectedRowBg.Render("> "+row) + "\n")
		} else {
			sb.WriteString("  " + row + "\n")
		}
	}

	if m.statusMsg != "" {
		sb.WriteString("\n " + okStyle.Render(m.statusMsg) + "\n")
	}
	return sb.String()
}
