package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/zanger_agent/internal/backend"
	"github.com/dgnsrekt/zanger_agent/internal/conversation"
	"github.com/dgnsrekt/zanger_agent/internal/watchlist"
	"github.com/google/uuid"
)

// analyzingSentinel is the transient placeholder turn shown while a
// submission is in flight. It is removed before the final turn is
// persisted.
const analyzingSentinel = "Analyzing..."

// requestState tracks the submit lifecycle. Transitions are
// idle -> submitting -> idle, guarded by the controller mutex and
// exposed only through accessor methods.
type requestState int

const (
	stateIdle requestState = iota
	stateSubmitting
)

// AnalysisClient is the backend surface the controller needs.
type AnalysisClient interface {
	Chat(ctx context.Context, message string) (*backend.AnalysisResult, error)
}

// Listener receives request lifecycle changes, used to disable the
// input surface for the full duration of a submission.
type Listener interface {
	ProcessingChanged(processing bool)
}

// NopListener discards all notifications.
type NopListener struct{}

func (NopListener) ProcessingChanged(bool) {}

// Controller orchestrates chat submissions: single-flight exclusion,
// the placeholder turn lifecycle, exactly one analysis call per
// accepted submission, and the watchlist upsert for every analyzed
// symbol.
type Controller struct {
	client   AnalysisClient
	conv     *conversation.Store
	watch    *watchlist.Store
	worker   *watchlist.Worker
	listener Listener
	now      func() time.Time

	mu    sync.Mutex
	state requestState
}

// NewController creates a request controller over the given
// collaborators.
func NewController(client AnalysisClient, conv *conversation.Store, watch *watchlist.Store, worker *watchlist.Worker, listener Listener) *Controller {
	if listener == nil {
		listener = NopListener{}
	}
	return &Controller{
		client:   client,
		conv:     conv,
		watch:    watch,
		worker:   worker,
		listener: listener,
		now:      time.Now,
	}
}

// Processing reports whether a submission is in flight.
func (c *Controller) Processing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateSubmitting
}

// begin moves idle -> submitting, failing when a request is already in
// flight.
func (c *Controller) begin() error {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return backend.NewError(backend.CodeValidation, "a request is already in flight", nil)
	}
	c.state = stateSubmitting
	c.mu.Unlock()

	c.listener.ProcessingChanged(true)
	return nil
}

// finish moves back to idle. It runs on every path out of Submit.
func (c *Controller) finish() {
	c.mu.Lock()
	c.state = stateIdle
	c.mu.Unlock()

	c.listener.ProcessingChanged(false)
}

// Submit runs one chat submission end to end. Blank input and an
// in-flight request both fail validation before any turn is appended.
// On acceptance: a user turn, a placeholder turn, exactly one analysis
// call, then the placeholder is removed and exactly one result or
// error turn is appended. No retry; failures surface the raw message
// as a chat turn.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return backend.NewError(backend.CodeValidation, "message is required", nil)
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.finish()

	if _, err := c.conv.Append(c.turn(text, conversation.RoleUser)); err != nil {
		slog.Error("user turn persist failed", "error", err)
	}
	placeholder := c.turn(analyzingSentinel, conversation.RoleSystem)
	placeholder.ID = uuid.NewString()
	if _, err := c.conv.Append(placeholder); err != nil {
		slog.Error("placeholder turn persist failed", "error", err)
	}

	result, chatErr := c.client.Chat(ctx, text)

	if err := c.conv.Remove(placeholder.ID); err != nil {
		slog.Error("placeholder turn remove failed", "error", err)
	}

	if chatErr != nil {
		if _, err := c.conv.Append(c.turn(errorText(chatErr), conversation.RoleSystem)); err != nil {
			slog.Error("error turn persist failed", "error", err)
		}
		return chatErr
	}

	if _, err := c.conv.Append(c.turn(renderAnalysis(result), conversation.RoleSystem)); err != nil {
		slog.Error("result turn persist failed", "error", err)
	}

	for _, symbol := range result.SymbolsAnalyzed {
		if _, err := c.watch.Upsert(symbol); err != nil {
			slog.Warn("watchlist upsert failed", "symbol", symbol, "error", err)
			continue
		}
		go c.refresh(symbol)
	}
	return nil
}

func (c *Controller) turn(content string, role conversation.Role) conversation.Turn {
	return conversation.Turn{
		Content: content,
		Time:    conversation.DisplayTime(c.now()),
		Role:    role,
	}
}

func (c *Controller) refresh(symbol string) {
	if err := c.worker.Refresh(context.Background(), symbol); err != nil {
		slog.Warn("watchlist refresh failed", "symbol", symbol, "error", err)
	}
}

// errorText extracts the raw message rendered into the error turn: the
// server-supplied reason for application failures, the transport error
// text otherwise.
func errorText(err error) string {
	var coded *backend.CodedError
	if errors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}
