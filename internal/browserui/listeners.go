package browserui

import (
	"github.com/dgnsrekt/zanger_agent/internal/conversation"
	"github.com/dgnsrekt/zanger_agent/internal/watchlist"
)

// turnPayload is the wire shape handed to ZangerUI.appendTurn.
type turnPayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Time    string `json:"time"`
	Type    string `json:"type"`
}

func (r *Renderer) TurnAppended(t conversation.Turn) {
	r.call("appendTurn", turnPayload{ID: t.ID, Content: t.Content, Time: t.Time, Type: string(t.Role)})
}

func (r *Renderer) TurnRemoved(id string) {
	r.call("removeTurn", id)
}

func (r *Renderer) ConversationCleared() {
	r.call("clearConversation")
}

func (r *Renderer) EntryUpserted(e watchlist.Entry, created bool) {
	r.call("upsertCard", map[string]any{
		"symbol":    e.Symbol,
		"collapsed": e.Collapsed,
		"created":   created,
	})
}

// EntryRemoved drops the card; the page shows its empty-state
// placeholder when no entries remain.
func (r *Renderer) EntryRemoved(symbol string, remaining int) {
	r.call("removeCard", symbol, remaining == 0)
}

func (r *Renderer) EntryCollapsed(symbol string, collapsed bool) {
	r.call("setCardCollapsed", symbol, collapsed)
}

func (r *Renderer) EntryFields(symbol string, f watchlist.Fields) {
	r.call("setCardFields", symbol, f)
}

func (r *Renderer) SessionChanged(loggedIn bool) {
	r.call("setLoggedIn", loggedIn)
}

// ProcessingChanged disables the input surface for the full duration
// of a submission.
func (r *Renderer) ProcessingChanged(processing bool) {
	r.call("setProcessing", processing)
}
