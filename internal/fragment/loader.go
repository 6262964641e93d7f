// Package fragment fetches shared page chrome (header, footer) from the
// service and mounts it into named shell regions. Fragment text carries slot
// tokens resolved at render time:
//
//	{{nav:ROUTE:LABEL}}  a navigation entry, marked when ROUTE is current
//	{{auth}}             the auth-dependent area (sign-in vs. user + sign-out)
//
// Mounting replaces a region wholesale, so nothing may hold references into
// mounted content; rendering is re-evaluated against the current route and
// session on every call.
package fragment

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/vexscan/vex/internal/config"
	"github.com/vexscan/vex/internal/session"
	"github.com/vexscan/vex/pkg/client"
)

// Region is a named mount point in the page shell.
type Region string

const (
	RegionHeader Region = "header"
	RegionFooter Region = "footer"
)

var navToken = regexp.MustCompile(`\{\{nav:([^:}]+):([^}]+)\}\}`)

// Loader fetches fragments and renders them against the live session. It
// subscribes to the session controller, so the auth area always reflects the
// current session no matter when (or in what order) regions were mounted.
type Loader struct {
	cfg      config.Config
	api      *client.Client
	sessions *session.Controller
	logger   *slog.Logger

	mu      sync.Mutex
	route   string
	regions map[Region]string
	last    session.Event
}

// NewLoader creates a loader bound to the session controller.
func NewLoader(cfg config.Config, api *client.Client, sessions *session.Controller, logger *slog.Logger) *Loader {
	l := &Loader{
		cfg:      cfg,
		api:      api,
		sessions: sessions,
		logger:   logger,
		regions:  make(map[Region]string),
	}
	sessions.OnChange(func(e session.Event) {
		l.mu.Lock()
		l.last = e
		l.mu.Unlock()
	})
	return l
}

// SetRoute records the current page path so nav marking can re-evaluate.
func (l *Loader) SetRoute(route string) {
	l.mu.Lock()
	l.route = route
	l.mu.Unlock()
}

// Mount fetches the named fragment and installs it into region, replacing
// whatever was there. If the session has not been bootstrapped for this page
// yet, mounting triggers it.
func (l *Loader) Mount(ctx context.Context, name string, region Region) error {
	text, err := l.api.Fragment(ctx, name)
	if err != nil {
		return fmt.Errorf("fragment.Mount %s: %w", name, err)
	}

	l.mu.Lock()
	l.regions[region] = text
	l.mu.Unlock()

	if !l.sessions.Bootstrapped() {
		if _, err := l.sessions.Bootstrap(ctx, l.cfg.RequireAuth); err != nil {
			l.logger.Warn("bootstrap during fragment mount failed", "error", err)
		}
	}
	return nil
}

// Mounted reports whether a fragment is installed in region.
func (l *Loader) Mounted(region Region) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.regions[region]
	return ok
}

// Render resolves the region's fragment against the current route and
// session. An unmounted region renders empty.
func (l *Loader) Render(region Region) string {
	l.mu.Lock()
	text, ok := l.regions[region]
	route := l.route
	last := l.last
	l.mu.Unlock()
	if !ok {
		return ""
	}

	out := navToken.ReplaceAllStringFunc(text, func(tok string) string {
		m := navToken.FindStringSubmatch(tok)
		if m[1] == route {
			return "[" + m[2] + "]"
		}
		return " " + m[2] + " "
	})
	return strings.ReplaceAll(out, "{{auth}}", l.authArea(last))
}

// authArea renders the auth-dependent slot from the latest session event.
func (l *Loader) authArea(e session.Event) string {
	if e.State == session.StateAuthenticated && e.User != nil {
		return e.User.DisplayName() + " · sign out"
	}
	return "sign in"
}
