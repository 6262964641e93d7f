package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vexscan/vex/internal/browser"
	"github.com/vexscan/vex/internal/config"
	"github.com/vexscan/vex/internal/fragment"
	"github.com/vexscan/vex/internal/session"
	"github.com/vexscan/vex/pkg/client"
)

type view int

const (
	viewHome view = iota
	viewDashboard
	viewHistory
	viewAnalyze
	viewLogin
	viewRegister
)

// NavBridge adapts the session controller's redirect contract to the TUI.
// Redirect paths are delivered as messages through waitNav, never by touching
// the model from another goroutine.
type NavBridge struct {
	ch chan string
}

func NewNavBridge() *NavBridge {
	return &NavBridge{ch: make(chan string, 8)}
}

// Go implements session.Navigator. Drops the path if the TUI is not draining,
// which only happens during shutdown.
func (n *NavBridge) Go(path string) {
	select {
	case n.ch <- path:
	default:
	}
}

type navMsg string

type sessionChangedMsg session.Event

type chromeMountedMsg struct{ err error }

// sessionExpiredMsg is emitted by views when a guarded call ends with
// session.ErrUnauthenticated.
type sessionExpiredMsg struct{}

func signedOutCmd() tea.Cmd {
	return func() tea.Msg { return sessionExpiredMsg{} }
}

// App is the root Bubbletea model.
type App struct {
	cfg      config.Config
	sessions *session.Controller
	loader   *fragment.Loader
	nav      *NavBridge
	eventCh  chan session.Event

	view       view
	home       homeModel
	dashboard  dashboardModel
	history    historyModel
	analyze    analyzeModel
	login      loginModel
	register   registerModel
	helpOpen   bool
	helpCursor int
	chromeErr  bool
	width      int
	height     int
	frame      int // logo shimmer animation frame
	version    string
}

// NewApp creates the TUI application. The nav bridge must be the same one the
// session controller was built with.
func NewApp(cfg config.Config, api *client.Client, sessions *session.Controller, loader *fragment.Loader, nav *NavBridge, version string) App {
	a := App{
		cfg:       cfg,
		sessions:  sessions,
		loader:    loader,
		nav:       nav,
		eventCh:   make(chan session.Event, 16),
		home:      newHomeModel(sessions),
		dashboard: newDashboardModel(api, sessions),
		history:   newHistoryModel(api, sessions),
		analyze:   newAnalyzeModel(api, sessions),
		login:     newLoginModel(sessions),
		register:  newRegisterModel(sessions),
		version:   version,
	}
	sessions.OnChange(func(e session.Event) {
		select {
		case a.eventCh <- e:
		default:
		}
	})
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.mountChrome(), a.waitNav(), a.waitSession())
}

// mountChrome fetches the shared header and footer fragments. Mounting also
// bootstraps the session on first run.
func (a App) mountChrome() tea.Cmd {
	loader := a.loader
	return func() tea.Msg {
		ctx := context.Background()
		if err := loader.Mount(ctx, "header", fragment.RegionHeader); err != nil {
			return chromeMountedMsg{err: err}
		}
		err := loader.Mount(ctx, "footer", fragment.RegionFooter)
		return chromeMountedMsg{err: err}
	}
}

func (a App) waitNav() tea.Cmd {
	ch := a.nav.ch
	return func() tea.Msg { return navMsg(<-ch) }
}

func (a App) waitSession() tea.Cmd {
	ch := a.eventCh
	return func() tea.Msg { return sessionChangedMsg(<-ch) }
}

// routeFor maps a view back to the path the web chrome knows it by.
func (a App) routeFor(v view) string {
	switch v {
	case viewDashboard:
		return a.cfg.LandingPath
	case viewHistory:
		return "/history"
	case viewAnalyze:
		return "/analyze"
	case viewLogin:
		return a.cfg.LoginPath
	case viewRegister:
		return "/register"
	default:
		return "/"
	}
}

// viewForPath maps a redirect path to a view. Unknown paths land on home.
func (a App) viewForPath(path string) view {
	switch path {
	case a.cfg.LandingPath:
		return viewDashboard
	case a.cfg.LoginPath:
		return viewLogin
	case "/history":
		return viewHistory
	case "/analyze":
		return viewAnalyze
	case "/register":
		return viewRegister
	default:
		return viewHome
	}
}

// setView switches the active view and kicks off its load.
func (a App) setView(v view) (App, tea.Cmd) {
	a.view = v
	a.loader.SetRoute(a.routeFor(v))
	switch v {
	case viewDashboard:
		return a, a.dashboard.load()
	case viewHistory:
		return a, a.history.load()
	case viewLogin:
		a.login.reset()
	case viewRegister:
		a.register.reset()
	}
	return a, nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: logo(1) + nav(1) + footer(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.home, _ = a.home.Update(bodyMsg)
		a.dashboard, _ = a.dashboard.Update(bodyMsg)
		a.history, _ = a.history.Update(bodyMsg)
		a.analyze, _ = a.analyze.Update(bodyMsg)

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case chromeMountedMsg:
		a.chromeErr = msg.err != nil
		return a, nil

	case navMsg:
		next, cmd := a.setView(a.viewForPath(string(msg)))
		return next, tea.Batch(cmd, next.waitNav())

	case sessionChangedMsg:
		// Session state lives in the controller; views read it on render.
		// Only re-arm the listener here.
		return a, a.waitSession()

	case sessionExpiredMsg:
		next, cmd := a.setView(viewLogin)
		return next, cmd

	case tea.KeyMsg:
		// Help overlay captures all keys when open
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q", "ctrl+c":
				return a, tea.Quit
			case "j", "down":
				if a.helpCursor < len(helpItems)-1 {
					a.helpCursor++
				}
			case "k", "up":
				if a.helpCursor > 0 {
					a.helpCursor--
				}
			case "enter":
				item := helpItems[a.helpCursor]
				if item.url != "" {
					browser.Open(item.url) //nolint:errcheck // best-effort browser open
				}
			}
			return a, nil
		}

		// Chords work even while a form is focused
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "ctrl+l":
			next, cmd := a.setView(viewLogin)
			return next, cmd
		case "ctrl+r":
			next, cmd := a.setView(viewRegister)
			return next, cmd
		case "ctrl+o":
			if a.sessions.Current().User != nil || a.sessions.Current().HasTokens() {
				sessions := a.sessions
				return a, func() tea.Msg {
					sessions.Logout(context.Background())
					return nil
				}
			}
		case "esc":
			if a.view == viewLogin || a.view == viewRegister {
				next, cmd := a.setView(viewHome)
				return next, cmd
			}
		}

		// Global keys (only when not editing)
		if !a.isEditing() {
			switch msg.String() {
			case "h":
				a.helpOpen = true
				a.helpCursor = 0
				return a, nil
			case "q":
				return a, tea.Quit
			case "1", "2", "3", "4":
				targets := map[string]view{
					"1": viewHome, "2": viewDashboard, "3": viewHistory, "4": viewAnalyze,
				}
				if target := targets[msg.String()]; target != a.view {
					next, cmd := a.setView(target)
					return next, cmd
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewHome:
		a.home, cmd = a.home.Update(msg)
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case viewHistory:
		a.history, cmd = a.history.Update(msg)
	case viewAnalyze:
		a.analyze, cmd = a.analyze.Update(msg)
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewRegister:
		a.register, cmd = a.register.Update(msg)
	}

	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin, viewRegister, viewAnalyze:
		return true
	}
	return false
}

// navLine renders the shared chrome nav. The server fragment wins; when it is
// not mounted yet (or failed) a local fallback keeps the TUI navigable.
func (a App) navLine() string {
	if line := a.loader.Render(fragment.RegionHeader); line != "" {
		return line
	}
	type entry struct {
		key  string
		name string
		v    view
	}
	entries := []entry{
		{"1", "Home", viewHome},
		{"2", "Dashboard", viewDashboard},
		{"3", "History", viewHistory},
		{"4", "Analyze", viewAnalyze},
	}
	var parts []string
	for _, e := range entries {
		if e.v == a.view {
			parts = append(parts, accentStyle.Render(e.key)+" "+selectedStyle.Underline(true).Render(e.name))
		} else {
			parts = append(parts, metaStyle.Render(e.key)+" "+dimStyle.Render(e.name))
		}
	}
	auth := dimStyle.Render("sign in")
	if u := a.sessions.Current().User; u != nil {
		auth = normalStyle.Render(u.DisplayName()) + metaStyle.Render(" · sign out")
	}
	return " " + strings.Join(parts, "   ") + "   " + auth
}

func (a App) View() string {
	// Header: centered shimmer logo
	logo := renderShimmerLogo(a.frame)
	logoWidth := lipgloss.Width(logo)
	logoPad := (a.width - logoWidth) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	// Body
	var body string
	var help string
	switch a.view {
	case viewHome:
		body = a.home.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + helpEntry("ctrl+l", "sign in") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	case viewDashboard:
		body = a.dashboard.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("ctrl+o", "sign out") + "  " + helpEntry("q", "quit")
	case viewHistory:
		body = a.history.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("c", "copy id") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("q", "quit")
	case viewAnalyze:
		body = a.analyze.View()
		help = " " + helpEntry("enter", "upload") + "  " + helpEntry("ctrl+y", "copy hash") + "  " + helpEntry("1", "home") + "  " + helpEntry("ctrl+c", "quit")
	case viewLogin:
		body = a.login.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("ctrl+r", "register") + "  " + helpEntry("esc", "back")
	case viewRegister:
		body = a.register.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("ctrl+l", "sign in") + "  " + helpEntry("esc", "back")
	}

	// Help overlay
	if a.helpOpen {
		body = helpView(a.helpCursor)
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("esc", "close")
	}

	footer := a.loader.Render(fragment.RegionFooter)
	if footer == "" {
		footer = " " + metaStyle.Render("vexscan "+a.version)
		if a.chromeErr {
			footer += "  " + metaStyle.Render("(offline)")
		}
	}

	// Chrome budget: logo(1) + nav(1) + footer(1) + help(1) = 4 lines + body
	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")

	return header + "\n" + a.navLine() + "\n" + body + "\n" + footer + "\n" + help
}
