package watchlist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dgnsrekt/zanger_agent/internal/backend"
)

// StockFetcher fetches detail fields for one symbol.
type StockFetcher interface {
	StockData(ctx context.Context, symbol string) (*backend.StockData, error)
}

// Worker runs the per-entry fetch-and-format refresh cycle. Refreshes
// are not mutually exclusive: every invocation issues its own fetch,
// but each carries a per-symbol generation and only the completion of
// the latest issued generation is applied, so a slow response cannot
// overwrite a faster, later one.
type Worker struct {
	client StockFetcher
	store  *Store

	mu   sync.Mutex
	gens map[string]uint64
}

// NewWorker creates a refresh worker writing through store.
func NewWorker(client StockFetcher, store *Store) *Worker {
	return &Worker{client: client, store: store, gens: make(map[string]uint64)}
}

// Refresh issues exactly one stock-data fetch for symbol. While the
// fetch is in flight the detail fields show the loading sentinel. On
// success the five fields are formatted and written; on failure all of
// them are replaced with the error sentinel and the entry stays
// visible.
func (w *Worker) Refresh(ctx context.Context, symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return backend.NewError(backend.CodeValidation, "symbol is required", nil)
	}
	return w.refresh(ctx, symbol, w.nextGen(symbol))
}

func (w *Worker) refresh(ctx context.Context, symbol string, gen uint64) error {
	// The sentinel write carries the same generation guard as the
	// completion, so a superseded invocation cannot blank out fields a
	// newer one already wrote.
	if w.isLatest(symbol, gen) {
		w.store.SetFields(symbol, LoadingFields())
	}

	data, err := w.client.StockData(ctx, symbol)
	if !w.isLatest(symbol, gen) {
		slog.Debug("stale refresh completion discarded", "symbol", symbol, "generation", gen)
		return nil
	}
	if err != nil {
		w.store.SetFields(symbol, ErrorFields())
		return err
	}

	w.store.SetFields(symbol, FormatFields(data))
	return nil
}

func (w *Worker) nextGen(symbol string) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gens[symbol]++
	return w.gens[symbol]
}

func (w *Worker) isLatest(symbol string, gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gens[symbol] == gen
}
