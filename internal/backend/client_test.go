package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, path string, handler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestClientLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestServer(t, "/api/login", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				APIKey string `json:"apiKey"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode login body: %v", err)
			}
			if req.APIKey != "sk-test" {
				t.Errorf("unexpected apiKey %q", req.APIKey)
			}
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		})
		if err := client.Login(context.Background(), "sk-test"); err != nil {
			t.Fatalf("login: %v", err)
		}
	})

	t.Run("rejected_key", func(t *testing.T) {
		client := newTestServer(t, "/api/login", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "invalid API key"})
		})
		err := client.Login(context.Background(), "bad")
		var coded *CodedError
		if !errors.As(err, &coded) {
			t.Fatalf("expected coded error, got %v", err)
		}
		if coded.Code != CodeApplication || coded.Message != "invalid API key" {
			t.Fatalf("unexpected error: %+v", coded)
		}
	})

	t.Run("unreachable_backend", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", time.Second)
		err := client.Login(context.Background(), "sk-test")
		var coded *CodedError
		if !errors.As(err, &coded) || coded.Code != CodeTransport {
			t.Fatalf("expected transport error, got %v", err)
		}
	})
}

func TestClientChat(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestServer(t, "/api/chat", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"analysis": map[string]any{
					"analysis_summary": "NVDA looks strong.",
					"symbols_analyzed": []string{"NVDA"},
				},
			})
		})
		result, err := client.Chat(context.Background(), "analyze NVDA")
		if err != nil {
			t.Fatalf("chat: %v", err)
		}
		if result.AnalysisSummary != "NVDA looks strong." {
			t.Fatalf("unexpected summary %q", result.AnalysisSummary)
		}
		if len(result.SymbolsAnalyzed) != 1 || result.SymbolsAnalyzed[0] != "NVDA" {
			t.Fatalf("unexpected symbols %v", result.SymbolsAnalyzed)
		}
	})

	t.Run("backend_reported_failure", func(t *testing.T) {
		client := newTestServer(t, "/api/chat", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "symbol not found"})
		})
		_, err := client.Chat(context.Background(), "analyze XXXX")
		var coded *CodedError
		if !errors.As(err, &coded) || coded.Code != CodeApplication {
			t.Fatalf("expected application error, got %v", err)
		}
		if coded.Message != "symbol not found" {
			t.Fatalf("expected server reason preserved, got %q", coded.Message)
		}
	})

	t.Run("success_without_analysis", func(t *testing.T) {
		client := newTestServer(t, "/api/chat", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		})
		_, err := client.Chat(context.Background(), "analyze NVDA")
		var coded *CodedError
		if !errors.As(err, &coded) || coded.Code != CodeApplication {
			t.Fatalf("expected application error, got %v", err)
		}
	})

	t.Run("malformed_response", func(t *testing.T) {
		client := newTestServer(t, "/api/chat", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>gateway error</html>"))
		})
		_, err := client.Chat(context.Background(), "analyze NVDA")
		var coded *CodedError
		if !errors.As(err, &coded) || coded.Code != CodeTransport {
			t.Fatalf("expected transport error, got %v", err)
		}
	})
}

func TestClientStockData(t *testing.T) {
	t.Run("success_with_missing_fields", func(t *testing.T) {
		client := newTestServer(t, "/api/stock-data", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"current_price": 134.5},
			})
		})
		data, err := client.StockData(context.Background(), "NVDA")
		if err != nil {
			t.Fatalf("stock data: %v", err)
		}
		if data.CurrentPrice == nil || *data.CurrentPrice != 134.5 {
			t.Fatalf("unexpected price %v", data.CurrentPrice)
		}
		if data.PERatio != nil {
			t.Fatal("absent fields must decode as nil")
		}
	})

	t.Run("failure_is_partial_data", func(t *testing.T) {
		client := newTestServer(t, "/api/stock-data", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"success": false})
		})
		_, err := client.StockData(context.Background(), "NVDA")
		var coded *CodedError
		if !errors.As(err, &coded) || coded.Code != CodePartialData {
			t.Fatalf("expected partial data error, got %v", err)
		}
	})
}

func TestClientLogout(t *testing.T) {
	called := false
	client := newTestServer(t, "/api/logout", func(w http.ResponseWriter, r *http.Request) {
		called = true
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !called {
		t.Fatal("expected logout endpoint hit")
	}
}
