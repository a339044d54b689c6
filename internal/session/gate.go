package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgnsrekt/zanger_agent/internal/backend"
	"github.com/dgnsrekt/zanger_agent/internal/conversation"
	"github.com/dgnsrekt/zanger_agent/internal/watchlist"
)

// AuthClient is the backend surface the gate needs.
type AuthClient interface {
	Login(ctx context.Context, apiKey string) error
	Logout(ctx context.Context) error
}

// Listener receives session visibility changes.
type Listener interface {
	SessionChanged(loggedIn bool)
}

// NopListener discards all notifications.
type NopListener struct{}

func (NopListener) SessionChanged(bool) {}

// Gate owns the login/logout flow and gates visibility of the rest of
// the app. Session state is in-memory only and resets each process
// start.
type Gate struct {
	auth     AuthClient
	conv     *conversation.Store
	watch    *watchlist.Store
	worker   *watchlist.Worker
	listener Listener

	mu       sync.Mutex
	loggedIn bool
}

// NewGate creates a session gate over the given collaborators.
func NewGate(auth AuthClient, conv *conversation.Store, watch *watchlist.Store, worker *watchlist.Worker, listener Listener) *Gate {
	if listener == nil {
		listener = NopListener{}
	}
	return &Gate{auth: auth, conv: conv, watch: watch, worker: worker, listener: listener}
}

// LoggedIn reports the current session state.
func (g *Gate) LoggedIn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loggedIn
}

// Login validates the API key with the backend. On success it flips
// the session state and restores both persisted collections into the
// view. Restored entries that are expanded get an initial refresh;
// collapsed ones fetch on first expand. A repeat login without an
// intervening logout revalidates the key and leaves the view alone.
func (g *Gate) Login(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return backend.NewError(backend.CodeValidation, "API key is required", nil)
	}

	if err := g.auth.Login(ctx, apiKey); err != nil {
		return err
	}

	g.mu.Lock()
	already := g.loggedIn
	g.loggedIn = true
	g.mu.Unlock()
	if already {
		// The key was revalidated, but the view already holds the
		// restored state; re-rendering it would duplicate every turn.
		slog.Debug("login repeated without logout, restore skipped")
		return nil
	}
	g.listener.SessionChanged(true)

	if _, err := g.conv.Restore(); err != nil {
		slog.Error("conversation restore failed", "error", err)
	}
	symbols, err := g.watch.RestoreAll()
	if err != nil {
		slog.Error("watchlist restore failed", "error", err)
	}
	for _, symbol := range symbols {
		e, ok := g.watch.Get(symbol)
		if !ok || e.Collapsed {
			continue
		}
		go g.refresh(symbol)
	}
	return nil
}

// Logout posts to the logout endpoint fire-and-forget; failures are
// logged, never surfaced. The session state and the in-memory
// conversation view are reset unconditionally. Watchlist persistence
// is untouched. Callers are expected to have confirmed with the user.
func (g *Gate) Logout(ctx context.Context) {
	if err := g.auth.Logout(ctx); err != nil {
		slog.Warn("logout request failed", "error", err)
	}

	g.mu.Lock()
	g.loggedIn = false
	g.mu.Unlock()

	g.conv.Reset()
	g.listener.SessionChanged(false)
}

func (g *Gate) refresh(symbol string) {
	if err := g.worker.Refresh(context.Background(), symbol); err != nil {
		slog.Warn("watchlist refresh failed", "symbol", symbol, "error", err)
	}
}
