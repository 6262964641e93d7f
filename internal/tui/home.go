package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vexscan/vex/internal/session"
)

// homeModel is the public landing view. It needs no network: everything it
// shows is static copy plus the current session state.
type homeModel struct {
	sessions *session.Controller
	width    int
	height   int
}

func newHomeModel(sessions *session.Controller) homeModel {
	return homeModel{sessions: sessions}
}

func (m homeModel) Init() tea.Cmd {
	return nil
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m homeModel) View() string {
	var b []string
	b = append(b, " "+selectedStyle.Render("Know what you're running."))
	b = append(b, "")
	b = append(b, " "+normalStyle.Render("VexScan inspects suspicious binaries with static and"))
	b = append(b, " "+normalStyle.Render("behavioral analysis, then hands you a verdict."))
	b = append(b, "")
	b = append(b, " "+safeStyle.Render("●")+" "+dimStyle.Render("safe")+"        "+
		metaStyle.Render("no indicators found"))
	b = append(b, " "+suspiciousStyle.Render("●")+" "+dimStyle.Render("suspicious")+"  "+
		metaStyle.Render("heuristics flagged behavior worth a look"))
	b = append(b, " "+maliciousStyle.Render("●")+" "+dimStyle.Render("malicious")+"   "+
		metaStyle.Render("known-bad signatures or confirmed payloads"))
	b = append(b, "")

	if u := m.sessions.Current().User; u != nil {
		b = append(b, " "+accentStyle.Render("welcome back, "+u.DisplayName())+
			metaStyle.Render("  press 2 for your dashboard"))
	} else {
		b = append(b, " "+metaStyle.Render("ctrl+l to sign in, ctrl+r to create an account"))
	}

	out := ""
	for _, line := range b {
		out += line + "\n"
	}
	return out
}
