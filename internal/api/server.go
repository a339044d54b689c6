package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/zanger_agent/internal/backend"
	"github.com/dgnsrekt/zanger_agent/internal/conversation"
	"github.com/dgnsrekt/zanger_agent/internal/watchlist"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service is the state-core surface the control API exposes.
type Service interface {
	LoggedIn() bool
	Processing() bool
	Login(ctx context.Context, apiKey string) error
	Logout(ctx context.Context)
	Submit(ctx context.Context, message string) error
	Turns(ctx context.Context) []conversation.Turn
	ClearConversation(ctx context.Context) error
	Entries(ctx context.Context) []watchlist.Entry
	SetCollapsed(ctx context.Context, symbol string, collapsed bool) error
	RemoveSymbol(ctx context.Context, symbol string) error
	RefreshSymbol(ctx context.Context, symbol string) error
}

// NewServer builds the control API handler.
func NewServer(svc Service) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Zanger Agent Control API", "1.0.0")
	api := humachi.New(router, cfg)

	registerSessionHandlers(api, svc)
	registerConversationHandlers(api, svc)
	registerWatchlistHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *backend.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case backend.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case backend.CodeApplication:
			return huma.Error422UnprocessableEntity(coded.Message)
		case backend.CodeTransport, backend.CodePartialData:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}

type statusOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func status(s string) *statusOutput {
	out := &statusOutput{}
	out.Body.Status = s
	return out
}

func registerSessionHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type stateOutput struct {
		Body struct {
			LoggedIn   bool `json:"logged_in"`
			Processing bool `json:"processing"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-state", Method: http.MethodGet, Path: "/api/v1/state", Summary: "Session and request state", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*stateOutput, error) {
			out := &stateOutput{}
			out.Body.LoggedIn = svc.LoggedIn()
			out.Body.Processing = svc.Processing()
			return out, nil
		})

	type loginInput struct {
		Body struct {
			APIKey string `json:"api_key" doc:"Backend API key"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "login", Method: http.MethodPost, Path: "/api/v1/session/login", Summary: "Log in and restore persisted state", Tags: []string{"Session"}},
		func(ctx context.Context, input *loginInput) (*statusOutput, error) {
			if err := svc.Login(ctx, input.Body.APIKey); err != nil {
				return nil, mapErr(err)
			}
			return status("logged_in"), nil
		})

	huma.Register(api, huma.Operation{OperationID: "logout", Method: http.MethodPost, Path: "/api/v1/session/logout", Summary: "Log out", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			svc.Logout(ctx)
			return status("logged_out"), nil
		})
}

func registerConversationHandlers(api huma.API, svc Service) {
	type chatInput struct {
		Body struct {
			Message string `json:"message" doc:"Natural-language query"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "submit-chat", Method: http.MethodPost, Path: "/api/v1/chat", Summary: "Submit one chat message for analysis", Tags: []string{"Conversation"}},
		func(ctx context.Context, input *chatInput) (*statusOutput, error) {
			if err := svc.Submit(ctx, input.Body.Message); err != nil {
				return nil, mapErr(err)
			}
			return status("analyzed"), nil
		})

	type turnView struct {
		Content string `json:"content"`
		Time    string `json:"time"`
		Type    string `json:"type"`
	}
	type conversationOutput struct {
		Body struct {
			Turns []turnView `json:"turns"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-conversation", Method: http.MethodGet, Path: "/api/v1/conversation", Summary: "List the conversation log", Tags: []string{"Conversation"}},
		func(ctx context.Context, input *struct{}) (*conversationOutput, error) {
			turns := svc.Turns(ctx)
			out := &conversationOutput{}
			out.Body.Turns = make([]turnView, 0, len(turns))
			for _, t := range turns {
				out.Body.Turns = append(out.Body.Turns, turnView{Content: t.Content, Time: t.Time, Type: string(t.Role)})
			}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-conversation", Method: http.MethodDelete, Path: "/api/v1/conversation", Summary: "Clear persisted chat history", Tags: []string{"Conversation"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			if err := svc.ClearConversation(ctx); err != nil {
				return nil, mapErr(err)
			}
			return status("cleared"), nil
		})
}

type symbolInput struct {
	Symbol string `path:"symbol"`
}

func registerWatchlistHandlers(api huma.API, svc Service) {
	type fieldsView struct {
		Price        string `json:"price"`
		PERatio      string `json:"pe_ratio"`
		MarketCap    string `json:"market_cap"`
		Week52Range  string `json:"week_52_range"`
		QuarterlyEPS string `json:"quarterly_eps"`
	}
	type entryView struct {
		Symbol    string     `json:"symbol"`
		Collapsed bool       `json:"collapsed"`
		SavedAt   string     `json:"saved_at"`
		Fields    fieldsView `json:"fields"`
	}
	type watchlistOutput struct {
		Body struct {
			Entries []entryView `json:"entries"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-watchlist", Method: http.MethodGet, Path: "/api/v1/watchlist", Summary: "List watchlist entries", Tags: []string{"Watchlist"}},
		func(ctx context.Context, input *struct{}) (*watchlistOutput, error) {
			entries := svc.Entries(ctx)
			out := &watchlistOutput{}
			out.Body.Entries = make([]entryView, 0, len(entries))
			for _, e := range entries {
				out.Body.Entries = append(out.Body.Entries, entryView{
					Symbol:    e.Symbol,
					Collapsed: e.Collapsed,
					SavedAt:   e.SavedAt.Format(time.RFC3339),
					Fields: fieldsView{
						Price:        e.Fields.Price,
						PERatio:      e.Fields.PERatio,
						MarketCap:    e.Fields.MarketCap,
						Week52Range:  e.Fields.Week52Range,
						QuarterlyEPS: e.Fields.QuarterlyEPS,
					},
				})
			}
			return out, nil
		})

	type collapseInput struct {
		Symbol string `path:"symbol"`
		Body   struct {
			Collapsed bool `json:"collapsed"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-collapsed", Method: http.MethodPut, Path: "/api/v1/watchlist/{symbol}/collapsed", Summary: "Set a card's collapse state", Tags: []string{"Watchlist"}},
		func(ctx context.Context, input *collapseInput) (*statusOutput, error) {
			if err := svc.SetCollapsed(ctx, input.Symbol, input.Body.Collapsed); err != nil {
				return nil, mapErr(err)
			}
			return status("set"), nil
		})

	huma.Register(api, huma.Operation{OperationID: "remove-symbol", Method: http.MethodDelete, Path: "/api/v1/watchlist/{symbol}", Summary: "Remove a watchlist entry", Tags: []string{"Watchlist"}},
		func(ctx context.Context, input *symbolInput) (*statusOutput, error) {
			if err := svc.RemoveSymbol(ctx, input.Symbol); err != nil {
				return nil, mapErr(err)
			}
			return status("removed"), nil
		})

	huma.Register(api, huma.Operation{OperationID: "refresh-symbol", Method: http.MethodPost, Path: "/api/v1/watchlist/{symbol}/refresh", Summary: "Refresh a card's detail fields", Tags: []string{"Watchlist"}},
		func(ctx context.Context, input *symbolInput) (*statusOutput, error) {
			if err := svc.RefreshSymbol(ctx, input.Symbol); err != nil {
				return nil, mapErr(err)
			}
			return status("refreshed"), nil
		})
}
