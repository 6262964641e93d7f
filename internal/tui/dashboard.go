package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vexscan/vex/internal/session"
	"github.com/vexscan/vex/pkg/client"
	"github.com/vexscan/vex/pkg/domain"
)

type statsLoadedMsg struct {
	gen   int
	stats *domain.ScanStats
	err   error
}

type dashboardModel struct {
	api       *client.Client
	sessions  *session.Controller
	stats     *domain.ScanStats
	fetchedAt time.Time
	loading   bool
	errMsg    string
	gen       int // drops results from superseded loads
	width     int
	height    int
}

func newDashboardModel(api *client.Client, sessions *session.Controller) dashboardModel {
	return dashboardModel{api: api, sessions: sessions}
}

func (m dashboardModel) Init() tea.Cmd {
	return nil
}

// load fetches the scan counters through the session guard so an expired
// access token is refreshed transparently.
func (m *dashboardModel) load() tea.Cmd {
	m.gen++
	m.loading = true
	m.errMsg = ""
	gen := m.gen
	api := m.api
	sessions := m.sessions
	return func() tea.Msg {
		user := sessions.Current().User
		if user == nil {
			return statsLoadedMsg{gen: gen, err: session.ErrUnauthenticated}
		}
		var stats *domain.ScanStats
		err := sessions.Guard().Do(context.Background(), func(ctx context.Context, accessToken string) error {
			var callErr error
			stats, callErr = api.UserStats(ctx, accessToken, user.ID)
			return callErr
		})
		return statsLoadedMsg{gen: gen, stats: stats, err: err}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
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
		m.stats = msg.stats
		m.fetchedAt = time.Now()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, m.load()
		}
	}
	return m, nil
}

// statTile renders one boxed counter, 16 cells wide.
func statTile(label string, value int, style lipgloss.Style) string {
	num := style.Render(fmt.Sprintf("%d", value))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#1e1e2a")).
		Padding(0, 2).
		Width(16).
		Render(num + "\n" + metaStyle.Render(label))
}

func (m dashboardModel) View() string {
	if m.loading && m.stats == nil {
		return " " + dimStyle.Render("loading stats...")
	}
	if m.errMsg != "" {
		return " " + errStyle.Render("error: ") + dimStyle.Render(m.errMsg) + "\n\n " +
			metaStyle.Render("r to retry")
	}
	if m.stats == nil {
		return " " + dimStyle.Render("no stats yet")
	}

	var sb strings.Builder
	name := "analyst"
	if u := m.sessions.Current().User; u != nil {
		name = u.DisplayName()
	}
	sb.WriteString(" " + sectionHeaderStyle.Render("overview") + "  " +
		normalStyle.Render(name) + "\n\n")

	tiles := lipgloss.JoinHorizontal(lipgloss.Top,
		statTile("total scans", m.stats.TotalScans, selectedStyle),
		" ",
		statTile("safe", m.stats.Safe, safeStyle),
		" ",
		statTile("suspicious", m.stats.Suspicious, suspiciousStyle),
		" ",
		statTile("malicious", m.stats.Malicious, maliciousStyle),
	)
	sb.WriteString(tiles + "\n\n")

	if !m.fetchedAt.IsZero() {
		sb.WriteString(" " + metaStyle.Render("updated "+formatTime(m.fetchedAt)) + "\n")
	}
	return sb.String()
}
