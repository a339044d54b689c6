package conversation

import (
	"encoding/json"
	"testing"
	"time"
)

type memSnaps struct {
	docs  map[string][]byte
	saves int
}

func newMemSnaps() *memSnaps {
	return &memSnaps{docs: make(map[string][]byte)}
}

func (m *memSnaps) Save(key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.docs[key] = b
	m.saves++
	return nil
}

func (m *memSnaps) Load(key string, out any) (bool, error) {
	b, ok := m.docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *memSnaps) Delete(key string) error {
	delete(m.docs, key)
	return nil
}

func userTurn(content string) Turn {
	return Turn{Content: content, Time: DisplayTime(time.Now()), Role: RoleUser}
}

func TestStoreAppend(t *testing.T) {
	snaps := newMemSnaps()
	s := NewStore(snaps, "chat", nil)

	turn, err := s.Append(userTurn("analyze NVDA"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if turn.ID == "" {
		t.Fatal("expected appended turn to be assigned an id")
	}
	if snaps.saves != 1 {
		t.Fatalf("expected 1 snapshot save, got %d", snaps.saves)
	}

	var stored []Turn
	ok, err := snaps.Load("chat", &stored)
	if err != nil || !ok {
		t.Fatalf("load snapshot: ok=%v err=%v", ok, err)
	}
	if len(stored) != 1 || stored[0].Content != "analyze NVDA" {
		t.Fatalf("unexpected persisted turns: %+v", stored)
	}
	if stored[0].ID != "" {
		t.Fatal("turn ids must not be persisted")
	}
}

func TestStoreRemove(t *testing.T) {
	snaps := newMemSnaps()
	s := NewStore(snaps, "chat", nil)

	first, _ := s.Append(userTurn("one"))
	s.Append(userTurn("two"))

	if err := s.Remove(first.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	turns := s.Turns()
	if len(turns) != 1 || turns[0].Content != "two" {
		t.Fatalf("unexpected turns after remove: %+v", turns)
	}

	saves := snaps.saves
	if err := s.Remove("no-such-id"); err != nil {
		t.Fatalf("remove unknown id: %v", err)
	}
	if snaps.saves != saves {
		t.Fatal("removing an unknown id must not rewrite the snapshot")
	}
}

func TestStoreRestore(t *testing.T) {
	t.Run("seeds_greeting_when_nothing_persisted", func(t *testing.T) {
		s := NewStore(newMemSnaps(), "chat", nil)
		turns, err := s.Restore()
		if err != nil {
			t.Fatalf("restore: %v", err)
		}
		if len(turns) != 1 {
			t.Fatalf("expected 1 turn, got %d", len(turns))
		}
		if turns[0].Content != Greeting || turns[0].Role != RoleSystem {
			t.Fatalf("unexpected seeded turn: %+v", turns[0])
		}
	})

	t.Run("skips_exactly_one_stored_greeting", func(t *testing.T) {
		snaps := newMemSnaps()
		src := NewStore(snaps, "chat", nil)
		src.Append(Turn{Content: Greeting, Time: "9:30 AM", Role: RoleSystem})
		src.Append(userTurn("analyze NVDA"))
		src.Append(Turn{Content: Greeting, Time: "9:35 AM", Role: RoleSystem})

		restored := NewStore(snaps, "chat", nil)
		turns, err := restored.Restore()
		if err != nil {
			t.Fatalf("restore: %v", err)
		}
		// fresh greeting, the user turn, then the second stored greeting
		if len(turns) != 3 {
			t.Fatalf("expected 3 turns, got %d: %+v", len(turns), turns)
		}
		if turns[1].Content != "analyze NVDA" {
			t.Fatalf("unexpected second turn: %+v", turns[1])
		}
		if turns[2].Content != Greeting {
			t.Fatalf("expected extra greeting kept, got %+v", turns[2])
		}
	})

	t.Run("does_not_rewrite_snapshot", func(t *testing.T) {
		snaps := newMemSnaps()
		src := NewStore(snaps, "chat", nil)
		src.Append(userTurn("one"))
		saves := snaps.saves

		restored := NewStore(snaps, "chat", nil)
		if _, err := restored.Restore(); err != nil {
			t.Fatalf("restore: %v", err)
		}
		if snaps.saves != saves {
			t.Fatal("restore must not persist")
		}
	})
}

func TestStoreClear(t *testing.T) {
	snaps := newMemSnaps()
	listener := &clearRecorder{}
	s := NewStore(snaps, "chat", listener)
	s.Append(userTurn("one"))
	s.Append(userTurn("two"))

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	// a full reload of the emptied store is the greeting-only view
	turns := s.Turns()
	if len(turns) != 1 {
		t.Fatalf("expected greeting-only view after clear, got %d turns: %+v", len(turns), turns)
	}
	if turns[0].Content != Greeting || turns[0].Role != RoleSystem {
		t.Fatalf("unexpected turn after clear: %+v", turns[0])
	}
	if _, ok := snaps.docs["chat"]; ok {
		t.Fatal("expected persisted snapshot deleted")
	}
	if !listener.cleared {
		t.Fatal("expected cleared notification")
	}
	if len(listener.appendedAfterClear) != 1 || listener.appendedAfterClear[0] != Greeting {
		t.Fatalf("expected greeting re-rendered after clear, got %v", listener.appendedAfterClear)
	}
}

// clearRecorder tracks turns rendered after the clear notification.
type clearRecorder struct {
	NopListener
	cleared            bool
	appendedAfterClear []string
}

func (l *clearRecorder) ConversationCleared() { l.cleared = true }

func (l *clearRecorder) TurnAppended(t Turn) {
	if l.cleared {
		l.appendedAfterClear = append(l.appendedAfterClear, t.Content)
	}
}

func TestStoreReset(t *testing.T) {
	snaps := newMemSnaps()
	s := NewStore(snaps, "chat", nil)
	s.Append(userTurn("one"))

	s.Reset()
	if len(s.Turns()) != 0 {
		t.Fatal("expected no turns after reset")
	}
	if _, ok := snaps.docs["chat"]; !ok {
		t.Fatal("reset must not delete the persisted snapshot")
	}
}
