package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vexscan/vex/internal/config"
	"github.com/vexscan/vex/pkg/client"
	"github.com/vexscan/vex/pkg/domain"
)

// State is the rendered session state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Event is delivered to observers on every committed session mutation, so UI
// regions can re-render independently of mount order.
type Event struct {
	State State
	User  *domain.User
}

// Navigator performs the redirect contract. The TUI maps the configured
// login/landing paths onto views; tests record them.
type Navigator interface {
	Go(path string)
}

// Controller owns the store, the API client and the guard together. All
// session mutations flow through it; pages never touch the store directly.
type Controller struct {
	cfg    config.Config
	api    *client.Client
	store  Store
	guard  *Guarded
	nav    Navigator
	logger *slog.Logger

	mu           sync.Mutex
	observers    []func(Event)
	epoch        uint64
	bootstrapped bool
}

// NewController wires a controller over the given collaborators. The guard is
// built here so every rotation funnels through one single-flight section.
func NewController(cfg config.Config, api *client.Client, store Store, nav Navigator, logger *slog.Logger) *Controller {
	return &Controller{
		cfg:    cfg,
		api:    api,
		store:  store,
		guard:  NewGuarded(api, store, logger),
		nav:    nav,
		logger: logger,
	}
}

// Guard exposes the guarded fetch wrapper for page data calls.
func (c *Controller) Guard() *Guarded { return c.guard }

// Current returns the session as persisted right now. Display use only.
func (c *Controller) Current() domain.Session { return c.store.Get() }

// OnChange registers an observer for committed session mutations.
func (c *Controller) OnChange(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Bootstrapped reports whether Bootstrap has run for this process.
func (c *Controller) Bootstrapped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bootstrapped
}

// Bootstrap establishes the session state for a freshly loaded page.
//
// With no tokens at all it makes zero network calls: requireAuth routes to
// the login surface, a public page just reports Unauthenticated. Otherwise
// the cached user (if any) is emitted immediately for optimistic rendering,
// then the canonical profile is fetched through the guard and reconciled.
// A network failure leaves the optimistic state standing; an unauthenticated
// outcome clears the session and routes to the login surface.
func (c *Controller) Bootstrap(ctx context.Context, requireAuth bool) (State, error) {
	c.mu.Lock()
	c.bootstrapped = true
	epoch := c.epoch
	c.mu.Unlock()

	sess := c.store.Get()
	if !sess.HasTokens() {
		if requireAuth {
			c.nav.Go(c.cfg.LoginPath)
		}
		c.emit(Event{State: StateUnauthenticated})
		return StateUnauthenticated, nil
	}

	if sess.User != nil {
		c.emit(Event{State: StateAuthenticated, User: sess.User})
	}

	user, err := c.fetchMe(ctx)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		if c.stale(epoch) {
			return StateUnauthenticated, nil
		}
		c.bump()
		c.emit(Event{State: StateUnauthenticated})
		c.nav.Go(c.cfg.LoginPath)
		return StateUnauthenticated, nil
	case err != nil:
		// Soft failure: keep whatever we rendered, surface the error.
		c.logger.Warn("bootstrap profile fetch failed", "error", err)
		if sess.User != nil {
			return StateAuthenticated, err
		}
		return StateUnauthenticated, err
	}

	if c.stale(epoch) {
		return StateUnauthenticated, nil
	}
	if err := c.store.SetUser(user); err != nil {
		c.logger.Error("failed to cache user", "error", err)
	}
	c.emit(Event{State: StateAuthenticated, User: user})
	return StateAuthenticated, nil
}

// Login validates the form, exchanges credentials, stores the pair, caches
// the canonical profile and routes to the landing surface. Failures propagate
// without touching the session.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if err := checkLogin(email, password); err != nil {
		return err
	}
	pair, err := c.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return c.commit(ctx, pair)
}

// Register validates the form (including the confirmation field), creates the
// account and signs it in.
func (c *Controller) Register(ctx context.Context, username, email, password, confirm string) error {
	if err := checkRegister(username, email, password, confirm); err != nil {
		return err
	}
	pair, err := c.api.Register(ctx, username, email, password)
	if err != nil {
		return err
	}
	return c.commit(ctx, pair)
}

// commit installs a fresh token pair, populates the user cache and emits
// Authenticated. A failed profile fetch is logged, not fatal: the tokens are
// good and the profile will reconcile on the next bootstrap.
func (c *Controller) commit(ctx context.Context, pair client.TokenPair) error {
	if err := c.store.Set(domain.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}); err != nil {
		return err
	}
	c.bump()

	user, err := c.api.Me(ctx, pair.AccessToken)
	if err != nil {
		c.logger.Warn("profile fetch after sign-in failed", "error", err)
	} else if err := c.store.SetUser(user); err != nil {
		c.logger.Error("failed to cache user", "error", err)
	}

	c.emit(Event{State: StateAuthenticated, User: user})
	c.nav.Go(c.cfg.LandingPath)
	return nil
}

// Logout revokes the refresh token best-effort, then unconditionally clears
// the local session and routes to the login surface. Sign-out always succeeds
// from the user's perspective, server reachable or not.
func (c *Controller) Logout(ctx context.Context) {
	sess := c.store.Get()
	if sess.RefreshToken != "" {
		if err := c.api.Logout(ctx, sess.RefreshToken); err != nil {
			c.logger.Warn("logout request failed, clearing client state anyway", "error", err)
		}
	}
	if err := c.store.Clear(); err != nil {
		c.logger.Error("failed to clear session", "error", err)
	}
	c.bump()
	c.emit(Event{State: StateUnauthenticated})
	c.nav.Go(c.cfg.LoginPath)
}

// fetchMe loads the canonical profile through the guard so an expired access
// token is renewed on the way.
func (c *Controller) fetchMe(ctx context.Context) (*domain.User, error) {
	var user *domain.User
	err := c.guard.Do(ctx, func(ctx context.Context, accessToken string) error {
		u, err := c.api.Me(ctx, accessToken)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// bump invalidates in-flight background work started before a session switch.
func (c *Controller) bump() {
	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()
}

func (c *Controller) stale(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch != epoch
}

func (c *Controller) emit(e Event) {
	c.mu.Lock()
	obs := make([]func(Event), len(c.observers))
	copy(obs, c.observers)
	c.mu.Unlock()
	for _, fn := range obs {
		fn(e)
	}
}
