package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Greeting is the fixed opening message shown at the top of the
// conversation view. Restore skips exactly one occurrence so a reload
// does not duplicate it.
const Greeting = "Hello! I'm your Zanger trading assistant. Ask me about any stock and I'll screen it against Dan Zanger's breakout criteria."

// Turn is one message in the conversation log. The ID is ephemeral and
// never persisted; the stored shape is {content, time, type}.
type Turn struct {
	ID      string `json:"-"`
	Content string `json:"content"`
	Time    string `json:"time"`
	Role    Role   `json:"type"`
}

// DisplayTime formats a timestamp the way turns show it.
func DisplayTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// Listener receives conversation changes. Implementations must not call
// back into the Store.
type Listener interface {
	TurnAppended(turn Turn)
	TurnRemoved(id string)
	ConversationCleared()
}

// NopListener discards all notifications.
type NopListener struct{}

func (NopListener) TurnAppended(Turn)    {}
func (NopListener) TurnRemoved(string)   {}
func (NopListener) ConversationCleared() {}

// Snapshotter is the persistence surface the store needs.
type Snapshotter interface {
	Save(key string, value any) error
	Load(key string, out any) (bool, error)
	Delete(key string) error
}

// Store is the ordered, persisted log of chat turns. Every mutation
// rewrites the full snapshot under the configured key.
type Store struct {
	snaps    Snapshotter
	key      string
	listener Listener

	mu    sync.Mutex
	turns []Turn
}

// NewStore creates a conversation store persisting under key.
func NewStore(snaps Snapshotter, key string, listener Listener) *Store {
	if listener == nil {
		listener = NopListener{}
	}
	return &Store{snaps: snaps, key: key, listener: listener}
}

// Append adds a turn to the end of the log and persists the full
// snapshot. A turn without an ID is assigned one.
func (s *Store) Append(turn Turn) (Turn, error) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.turns = append(s.turns, turn)
	err := s.persistLocked()
	s.mu.Unlock()

	s.listener.TurnAppended(turn)
	return turn, err
}

// Remove deletes the turn with the given ID and persists the snapshot.
// Removing an unknown ID is a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	found := false
	for i, t := range s.turns {
		if t.ID == id {
			s.turns = append(s.turns[:i], s.turns[i+1:]...)
			found = true
			break
		}
	}
	var err error
	if found {
		err = s.persistLocked()
	}
	s.mu.Unlock()

	if found {
		s.listener.TurnRemoved(id)
	}
	return err
}

// Restore loads the persisted log once at startup. The in-memory view
// is seeded with a fresh greeting turn, then the persisted turns minus
// exactly one stored greeting, in original order. Nothing is
// re-persisted; the snapshot is rewritten on the next mutation.
func (s *Store) Restore() ([]Turn, error) {
	var stored []Turn
	ok, err := s.snaps.Load(s.key, &stored)
	if err != nil {
		return nil, err
	}

	turns := []Turn{{
		ID:      uuid.NewString(),
		Content: Greeting,
		Time:    DisplayTime(time.Now()),
		Role:    RoleSystem,
	}}
	if ok {
		skipped := false
		for _, t := range stored {
			if !skipped && t.Role == RoleSystem && t.Content == Greeting {
				skipped = true
				continue
			}
			t.ID = uuid.NewString()
			turns = append(turns, t)
		}
	}

	s.mu.Lock()
	s.turns = turns
	s.mu.Unlock()

	for _, t := range turns {
		s.listener.TurnAppended(t)
	}
	return s.Turns(), nil
}

// Clear wipes the persisted log and reloads the view, which for an
// empty store means the greeting-only state.
func (s *Store) Clear() error {
	greeting := Turn{
		ID:      uuid.NewString(),
		Content: Greeting,
		Time:    DisplayTime(time.Now()),
		Role:    RoleSystem,
	}

	s.mu.Lock()
	s.turns = []Turn{greeting}
	err := s.snaps.Delete(s.key)
	s.mu.Unlock()

	s.listener.ConversationCleared()
	s.listener.TurnAppended(greeting)
	if err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}

// Reset drops the in-memory view without touching the persisted
// snapshot. Used on logout; the next Restore reloads from disk.
func (s *Store) Reset() {
	s.mu.Lock()
	s.turns = nil
	s.mu.Unlock()

	s.listener.ConversationCleared()
}

// Turns returns a copy of the current turn sequence.
func (s *Store) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) persistLocked() error {
	if err := s.snaps.Save(s.key, s.turns); err != nil {
		return fmt.Errorf("persist conversation: %w", err)
	}
	return nil
}
