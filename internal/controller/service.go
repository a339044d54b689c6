package controller

import (
	"context"
	"strings"

	"github.com/dgnsrekt/zanger_agent/internal/backend"
	"github.com/dgnsrekt/zanger_agent/internal/conversation"
	"github.com/dgnsrekt/zanger_agent/internal/session"
	"github.com/dgnsrekt/zanger_agent/internal/watchlist"
)

// Service is the operation surface exposed to the control API. It
// validates input and delegates to the state core; it never touches a
// rendering surface.
type Service struct {
	gate       *session.Gate
	controller *Controller
	conv       *conversation.Store
	watch      *watchlist.Store
	worker     *watchlist.Worker
}

// NewService wires the facade over the state core.
func NewService(gate *session.Gate, controller *Controller, conv *conversation.Store, watch *watchlist.Store, worker *watchlist.Worker) *Service {
	return &Service{gate: gate, controller: controller, conv: conv, watch: watch, worker: worker}
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return backend.NewError(backend.CodeValidation, fieldName+" is required", nil)
	}
	return nil
}

func (s *Service) requireLogin() error {
	if !s.gate.LoggedIn() {
		return backend.NewError(backend.CodeValidation, "not logged in", nil)
	}
	return nil
}

func (s *Service) LoggedIn() bool   { return s.gate.LoggedIn() }
func (s *Service) Processing() bool { return s.controller.Processing() }

func (s *Service) Login(ctx context.Context, apiKey string) error {
	return s.gate.Login(ctx, apiKey)
}

func (s *Service) Logout(ctx context.Context) {
	s.gate.Logout(ctx)
}

func (s *Service) Submit(ctx context.Context, message string) error {
	if err := s.requireLogin(); err != nil {
		return err
	}
	return s.controller.Submit(ctx, message)
}

func (s *Service) Turns(ctx context.Context) []conversation.Turn {
	return s.conv.Turns()
}

// ClearConversation wipes persisted chat history. The caller is
// assumed to have obtained user confirmation.
func (s *Service) ClearConversation(ctx context.Context) error {
	return s.conv.Clear()
}

func (s *Service) Entries(ctx context.Context) []watchlist.Entry {
	return s.watch.Entries()
}

// SetCollapsed toggles a card's collapse state. An explicit expand
// triggers exactly one additional refresh for the entry.
func (s *Service) SetCollapsed(ctx context.Context, symbol string, collapsed bool) error {
	if err := s.requireNonEmpty(symbol, "symbol"); err != nil {
		return err
	}
	if err := s.watch.SetCollapsed(symbol, collapsed); err != nil {
		return err
	}
	if !collapsed {
		return s.worker.Refresh(ctx, symbol)
	}
	return nil
}

func (s *Service) RemoveSymbol(ctx context.Context, symbol string) error {
	if err := s.requireNonEmpty(symbol, "symbol"); err != nil {
		return err
	}
	return s.watch.Remove(symbol)
}

func (s *Service) RefreshSymbol(ctx context.Context, symbol string) error {
	if err := s.requireNonEmpty(symbol, "symbol"); err != nil {
		return err
	}
	return s.worker.Refresh(ctx, symbol)
}
