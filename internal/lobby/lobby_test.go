package lobby

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/DoyleJ11/skill-strike-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			// channel closed → that's fine; no further snapshots possible
			return
		}
		t.Fatalf("expected no snapshot within %v, but got version %d", within, s.Version)
	case <-time.After(within):
		// good: no snapshot
	}
}

// newGame is a 1v1 game with fixed hands: a1 holds three shields and two
// attacks, b1 two shields and three attacks.
func newGame(t *testing.T) engine.State {
	t.Helper()
	var atks, shs []engine.Card
	for i := range 12 {
		atks = append(atks, engine.Card{ID: fmt.Sprintf("atk%d", i), Kind: engine.KindAttack, Damage: 4})
		shs = append(shs, engine.Card{ID: fmt.Sprintf("sh%d", i), Kind: engine.KindShield, ShieldValue: 2})
	}
	s, err := engine.NewGame(engine.Setup{
		TeamA: []engine.Player{{ID: "a1"}},
		TeamB: []engine.Player{{ID: "b1"}},
		Cards: append(slices.Clone(atks), shs...),
		Seed:  3,
	})
	require.NoError(t, err)

	s.Hands["a1"] = []engine.Card{shs[0], shs[1], shs[2], atks[0], atks[1]}
	s.Hands["b1"] = []engine.Card{shs[3], shs[4], atks[2], atks[3], atks[4]}
	s.Decks[engine.SharedDeck] = engine.Deck{Draw: append(slices.Clone(atks[5:]), shs[5:]...)}
	return s
}

func cardOfKind(s engine.State, player string, kind engine.CardKind) string {
	for _, c := range s.Hands[player] {
		if c.Kind == kind {
			return c.ID
		}
	}
	return ""
}

func startLobby(t *testing.T, st store.Store) (*Lobby, engine.State) {
	t.Helper()
	init := newGame(t)
	if st != nil {
		require.NoError(t, st.Create(context.Background(), "ZED123", init))
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewLobby(ctx, "ZED123", init, 0, Options{Store: st}), init
}

func TestLobby_Action_BroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	l, init := startLobby(t, nil)

	clientOut := make(chan Snapshot, 2) // small buffer so broadcast doesn’t block
	l.Inbox() <- Join{ClientID: "ch1", PlayerID: "b1", Outbox: clientOut}

	first := recvSnapshot(t, clientOut, 100*time.Millisecond)
	if first.Version != 0 {
		t.Fatalf("after join: want version=0, got %d", first.Version)
	}

	reply := make(chan Result, 1)
	cardID := cardOfKind(init, "a1", engine.KindShield)
	l.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdPlayEffect, PlayerID: "a1", CardID: cardID}, Reply: reply}

	res := <-reply
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Version)

	next := recvSnapshot(t, clientOut, 100*time.Millisecond)
	if next.Version != 1 {
		t.Fatalf("after effect: want version=1, got %d", next.Version)
	}
	effects := next.State.Teams[engine.TeamA].Effects
	require.Len(t, effects, 1)
	assert.Equal(t, cardID, effects[0].Card.ID)
	assert.True(t, engine.ContainsEvent(next.Events, engine.EvtEffectPlayed))

	l.Inbox() <- Shutdown{}
}

func TestLobby_RejectedActionRepliesAndDoesNotBroadcast(t *testing.T) {
	l, _ := startLobby(t, nil)

	out := make(chan Snapshot, 4)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	res, err := l.Do(context.Background(), engine.Command{Type: engine.CmdResolveAttack})
	require.ErrorIs(t, err, engine.ErrNoPendingAttack)
	assert.Equal(t, 0, res.Version)

	recvNoSnapshot(t, out, 100*time.Millisecond)
}

func TestLobby_DropSlowClient(t *testing.T) {
	l, init := startLobby(t, nil)

	clientOut := make(chan Snapshot, 1)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: clientOut}

	// join snapshot fills the buffer, so the next broadcast finds it full
	_, err := l.Do(context.Background(), engine.Command{
		Type: engine.CmdPlayEffect, PlayerID: "a1", CardID: cardOfKind(init, "a1", engine.KindShield),
	})
	require.NoError(t, err)

	view, err := l.View(context.Background())
	require.NoError(t, err)
	if view.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", view.NumClients)
	}
}

func TestLobby_PersistsEverySuccessfulAction(t *testing.T) {
	st := store.NewMemory()
	l, init := startLobby(t, st)
	ctx := context.Background()

	_, err := l.Do(ctx, engine.Command{Type: engine.CmdPlayAttack, PlayerID: "a1", CardID: cardOfKind(init, "a1", engine.KindAttack)})
	require.NoError(t, err)
	_, err = l.Do(ctx, engine.Command{Type: engine.CmdEndTurn})
	require.ErrorIs(t, err, engine.ErrAttackPending)
	res, err := l.Do(ctx, engine.Command{Type: engine.CmdResolveAttack, PlayerID: "b1"})
	require.NoError(t, err)

	rec, err := st.Load(ctx, "ZED123")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, 26, rec.State.Teams[engine.TeamB].HP)
	assert.Equal(t, res.State.Teams, rec.State.Teams)
}

type failingStore struct {
	*store.Memory
	err error
}

func (f failingStore) Save(context.Context, string, int, engine.State) error { return f.err }

func TestLobby_FailedWriteKeepsState(t *testing.T) {
	boom := errors.New("disk on fire")
	l, init := startLobby(t, failingStore{Memory: store.NewMemory(), err: boom})

	res, err := l.Do(context.Background(), engine.Command{
		Type: engine.CmdPlayEffect, PlayerID: "a1", CardID: cardOfKind(init, "a1", engine.KindShield),
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, res.Version)

	view, err := l.View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, view.Version)
	assert.Empty(t, view.State.Teams[engine.TeamA].Effects)
}

func TestLobby_ConflictReloadsNewerCopy(t *testing.T) {
	st := store.NewMemory()
	l, init := startLobby(t, st)
	ctx := context.Background()

	// another writer moves the stored game on
	_, other, err := engine.Apply(init, engine.Command{Type: engine.CmdEndTurn})
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, "ZED123", 1, other))

	_, err = l.Do(ctx, engine.Command{Type: engine.CmdEndTurn})
	require.ErrorIs(t, err, store.ErrVersionConflict)

	view, err := l.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Version)
	assert.Equal(t, "b1", view.State.Turn.ActivePlayerID)
}

// Concurrent effect plays are serialized: exactly MaxEffectsPerTurn win.
func TestLobby_SerializesConcurrentActions(t *testing.T) {
	l, init := startLobby(t, store.NewMemory())

	var shields []string
	for _, c := range init.Hands["a1"] {
		if c.Kind == engine.KindShield {
			shields = append(shields, c.ID)
		}
	}
	require.GreaterOrEqual(t, len(shields), 3)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, id := range shields {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Do(context.Background(), engine.Command{Type: engine.CmdPlayEffect, PlayerID: "a1", CardID: id})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, init.Rules.MaxEffectsPerTurn, wins)
	view, err := l.View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wins, view.Version)
	assert.Len(t, view.State.Teams[engine.TeamA].Effects, wins)
}

func TestLobby_Shutdown_ClosesClientsAndRejects(t *testing.T) {
	l, _ := startLobby(t, nil)

	out := make(chan Snapshot, 2)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 500*time.Millisecond) // drain join snapshot

	l.Inbox() <- Shutdown{}
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("lobby did not stop")
	}

	_, ok := <-out
	assert.False(t, ok, "outbox closed on shutdown")
	_, err := l.Do(context.Background(), engine.Command{Type: engine.CmdEndTurn})
	require.ErrorIs(t, err, ErrClosed)
}

func TestLobby_LeaveClosesOutbox(t *testing.T) {
	l, _ := startLobby(t, nil)

	out := make(chan Snapshot, 2)
	l.Inbox() <- Join{ClientID: "c1", PlayerID: "a1", Outbox: out}
	_ = recvSnapshot(t, out, 500*time.Millisecond)

	l.Inbox() <- Leave{ClientID: "c1"}
	select {
	case _, ok := <-out:
		assert.False(t, ok, "outbox closed on leave")
	case <-time.After(time.Second):
		t.Fatal("outbox still open after leave")
	}

	// unknown or repeated leaves are no-ops
	l.Inbox() <- Leave{ClientID: "c1"}
	view, err := l.View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, view.NumClients)
}
