package session

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/vexscan/vex/pkg/client"
	"github.com/vexscan/vex/pkg/domain"
)

// ErrUnauthenticated is the distinguished terminal outcome of a guarded call:
// the credential could not be renewed and the session has been cleared. It is
// separate from ordinary HTTP failures; callers are expected to route the
// user to the login surface.
var ErrUnauthenticated = errors.New("session: unauthenticated")

// Guarded wraps authenticated requests so that an expired access token is
// renewed transparently: one refresh, one retry, never more. Concurrent
// expiries share a single in-flight refresh, which keeps refresh-token
// rotation from racing against itself.
type Guarded struct {
	api    *client.Client
	store  Store
	group  singleflight.Group
	logger *slog.Logger
}

// NewGuarded creates a guard over the given client and store.
func NewGuarded(api *client.Client, store Store, logger *slog.Logger) *Guarded {
	return &Guarded{api: api, store: store, logger: logger}
}

// Do runs fn with the current access token. An absent token is passed through
// as the empty string (the client then sends no Authorization header).
//
// Any outcome other than a credential failure is returned unchanged. On a
// credential failure with a refresh token present, the tokens are rotated
// (single-flight) and fn is re-issued exactly once; that second outcome is
// final even if it is another credential failure. With no refresh token, or
// when the refresh itself fails, the session is cleared and
// ErrUnauthenticated is returned.
func (g *Guarded) Do(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error {
	sess := g.store.Get()

	err := fn(ctx, sess.AccessToken)
	if err == nil || !client.IsCredentialInvalid(err) {
		return err
	}

	if sess.RefreshToken == "" {
		g.logger.Info("credential rejected with no refresh token, signing out")
		if clearErr := g.store.Clear(); clearErr != nil {
			g.logger.Error("failed to clear session", "error", clearErr)
		}
		return ErrUnauthenticated
	}

	token, err := g.refresh(ctx, sess.AccessToken)
	if err != nil {
		return ErrUnauthenticated
	}

	return fn(ctx, token)
}

// refresh rotates the token pair and returns a usable access token. All
// concurrent callers share one network refresh; the store write happens
// inside the flight, so rotation is serialized. If a peer already rotated
// between this caller's read and its failure, the current token is returned
// without another network call.
func (g *Guarded) refresh(ctx context.Context, staleAccess string) (string, error) {
	v, err, _ := g.group.Do("refresh", func() (any, error) {
		sess := g.store.Get()
		if sess.AccessToken != "" && sess.AccessToken != staleAccess {
			return sess.AccessToken, nil
		}
		if sess.RefreshToken == "" {
			return "", errors.New("no refresh token")
		}

		pair, err := g.api.Refresh(ctx, sess.RefreshToken)
		if err != nil {
			g.logger.Warn("token refresh failed, signing out", "error", err)
			if clearErr := g.store.Clear(); clearErr != nil {
				g.logger.Error("failed to clear session", "error", clearErr)
			}
			return "", err
		}

		rotated := domain.Session{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			User:         sess.User,
		}
		if err := g.store.Set(rotated); err != nil {
			return "", err
		}
		g.logger.Debug("access token refreshed")
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
