package session

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"tictacmatch/internal/game"
	"tictacmatch/internal/models"
)

const everyone = "*"

type delivery struct {
	to string
	ev models.Event
}

// recorder is an Emitter that keeps everything it is asked to send.
type recorder struct {
	mu  sync.Mutex
	out []delivery
}

func (r *recorder) Send(connID string, ev models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, delivery{to: connID, ev: ev})
}

func (r *recorder) Broadcast(ev models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, delivery{to: everyone, ev: ev})
}

// take returns the deliveries since the last call, skipping user_count
// broadcasts unless withCounts is set.
func (r *recorder) take(withCounts bool) []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []delivery
	for _, d := range r.out {
		if _, ok := d.ev.(models.UserCount); ok && !withCounts {
			continue
		}
		out = append(out, d)
	}
	r.out = nil
	return out
}

func newTestManager(t *testing.T) (*Manager, *recorder) {
	rec := &recorder{}
	seq := 0
	m := NewManager(rec, zaptest.NewLogger(t), WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("game-%d", seq)
	}))
	return m, rec
}

// checkInvariants verifies queue/game exclusivity and the index/table bijection.
func checkInvariants(m *Manager) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	for _, id := range m.waiting.ids() {
		if seen[id] {
			return fmt.Errorf("%s queued twice", id)
		}
		seen[id] = true
		if _, inGame := m.index[id]; inGame {
			return fmt.Errorf("%s is both waiting and playing", id)
		}
	}
	if len(seen) != len(m.waiting.index) {
		return fmt.Errorf("queue order has %d ids, index has %d", len(seen), len(m.waiting.index))
	}

	for connID, gameID := range m.index {
		g, ok := m.games[gameID]
		if !ok {
			return fmt.Errorf("%s indexed to missing game %s", connID, gameID)
		}
		if !g.HasPlayer(connID) {
			return fmt.Errorf("%s indexed to game %s it does not play", connID, gameID)
		}
	}
	for id, g := range m.games {
		if g.Player1 == g.Player2 {
			return fmt.Errorf("game %s pairs %s with itself", id, g.Player1)
		}
		if m.index[g.Player1] != id || m.index[g.Player2] != id {
			return fmt.Errorf("game %s participants not indexed", id)
		}
	}
	if len(m.index) != 2*len(m.games) {
		return fmt.Errorf("index has %d entries for %d games", len(m.index), len(m.games))
	}
	return nil
}

func startGame(t *testing.T, m *Manager, rec *recorder, a, b string) string {
	t.Helper()
	m.Connect(a)
	m.Connect(b)
	m.JoinGame(a)
	m.JoinGame(b)
	gameID, ok := m.GameOf(a)
	require.True(t, ok)
	rec.take(false)
	return gameID
}

func TestConnectBroadcastsCount(t *testing.T) {
	m, rec := newTestManager(t)

	m.Connect("a")
	m.Connect("b")
	m.Disconnect("a")

	got := rec.take(true)
	require.Len(t, got, 3)
	for _, d := range got {
		assert.Equal(t, everyone, d.to)
	}
	assert.Equal(t, models.UserCount{Count: 1}, got[0].ev)
	assert.Equal(t, models.UserCount{Count: 2}, got[1].ev)
	assert.Equal(t, models.UserCount{Count: 1}, got[2].ev)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	m, rec := newTestManager(t)

	m.Connect("a")
	m.Disconnect("a")
	m.Disconnect("a")
	m.Disconnect("never-connected")

	assert.Equal(t, 0, m.UserCount())
	got := rec.take(true)
	require.Len(t, got, 2)
	assert.Equal(t, models.UserCount{Count: 0}, got[1].ev)
}

func TestJoinGamePairsPlayers(t *testing.T) {
	m, rec := newTestManager(t)
	m.Connect("a")
	m.Connect("b")
	rec.take(false)

	m.JoinGame("a")
	assert.Equal(t, []delivery{{to: "a", ev: models.WaitingForOpponent{}}}, rec.take(false))
	assert.True(t, m.IsWaiting("a"))

	m.JoinGame("b")
	got := rec.take(false)
	require.Len(t, got, 2)
	assert.Equal(t, delivery{to: "a", ev: models.GameStarted{
		GameID: "game-1", Symbol: models.SymbolX, YourTurn: true, Board: models.Board{},
	}}, got[0])
	assert.Equal(t, delivery{to: "b", ev: models.GameStarted{
		GameID: "game-1", Symbol: models.SymbolO, YourTurn: false, Board: models.Board{},
	}}, got[1])

	assert.False(t, m.IsWaiting("a"))
	assert.False(t, m.IsWaiting("b"))
	g, ok := m.Game("game-1")
	require.True(t, ok)
	assert.Equal(t, "a", g.Player1)
	assert.Equal(t, "b", g.Player2)
	assert.Equal(t, "a", g.CurrentTurn)
	require.NoError(t, checkInvariants(m))
}

func TestJoinGameTwiceWhileWaiting(t *testing.T) {
	m, rec := newTestManager(t)
	m.Connect("a")
	rec.take(false)

	m.JoinGame("a")
	m.JoinGame("a")

	got := rec.take(false)
	require.Len(t, got, 2)
	for _, d := range got {
		assert.Equal(t, delivery{to: "a", ev: models.WaitingForOpponent{}}, d)
	}
	assert.Equal(t, 1, m.Stats().Waiting)
	assert.Equal(t, 0, m.Stats().Games)
	require.NoError(t, checkInvariants(m))
}

func TestTryPairSelfFallsBackToQueue(t *testing.T) {
	m, rec := newTestManager(t)
	m.mu.Lock()
	m.waiting.add("a")
	m.tryPair("a")
	m.mu.Unlock()

	assert.Equal(t, []delivery{{to: "a", ev: models.WaitingForOpponent{}}}, rec.take(false))
	assert.True(t, m.IsWaiting("a"))
	assert.Equal(t, 0, m.Stats().Games)
}

func TestThirdPlayerWaits(t *testing.T) {
	m, rec := newTestManager(t)
	startGame(t, m, rec, "a", "b")

	m.Connect("c")
	m.JoinGame("c")

	assert.Equal(t, []delivery{{to: "c", ev: models.WaitingForOpponent{}}}, rec.take(false))
	assert.Equal(t, Stats{Users: 3, Waiting: 1, Games: 1}, m.Stats())
	require.NoError(t, checkInvariants(m))
}

func TestMakeMoveBroadcastsToBoth(t *testing.T) {
	m, rec := newTestManager(t)
	gameID := startGame(t, m, rec, "a", "b")

	require.NoError(t, m.MakeMove("a", gameID, 0))

	var board models.Board
	board[0] = models.SymbolX
	want := models.MoveMade{Position: 0, Symbol: models.SymbolX, NextTurn: "b", Board: board}
	assert.Equal(t, []delivery{{to: "a", ev: want}, {to: "b", ev: want}}, rec.take(false))

	err := m.MakeMove("b", gameID, 0)
	assert.ErrorIs(t, err, game.ErrPositionTaken)
	assert.Empty(t, rec.take(true))

	g, ok := m.Game(gameID)
	require.True(t, ok)
	assert.Equal(t, board, g.Board)
	assert.Equal(t, "b", g.CurrentTurn)
}

func TestMakeMoveRejectsOutOfTurn(t *testing.T) {
	m, rec := newTestManager(t)
	gameID := startGame(t, m, rec, "a", "b")

	assert.ErrorIs(t, m.MakeMove("b", gameID, 4), game.ErrNotYourTurn)
	assert.ErrorIs(t, m.MakeMove("a", gameID, 9), game.ErrInvalidMove)
	assert.ErrorIs(t, m.MakeMove("a", gameID, -3), game.ErrInvalidMove)
	assert.Empty(t, rec.take(true))
}

func TestMakeMoveWinEndsGame(t *testing.T) {
	m, rec := newTestManager(t)
	gameID := startGame(t, m, rec, "a", "b")

	for _, mv := range []struct {
		player string
		pos    int
	}{{"a", 0}, {"b", 3}, {"a", 1}, {"b", 4}} {
		require.NoError(t, m.MakeMove(mv.player, gameID, mv.pos))
	}
	rec.take(false)

	require.NoError(t, m.MakeMove("a", gameID, 2))

	got := rec.take(false)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].to)
	assert.Equal(t, "b", got[1].to)
	over, ok := got[1].ev.(models.GameOver)
	require.True(t, ok)
	require.NotNil(t, over.Winner)
	assert.Equal(t, "a", *over.Winner)
	require.NotNil(t, over.Combo)
	assert.Equal(t, models.Line{0, 1, 2}, *over.Combo)
	assert.Equal(t, models.Board{"X", "X", "X", "O", "O", "", "", "", ""}, over.Board)

	_, ok = m.Game(gameID)
	assert.False(t, ok)
	_, ok = m.GameOf("a")
	assert.False(t, ok)
	_, ok = m.GameOf("b")
	assert.False(t, ok)
	require.NoError(t, checkInvariants(m))

	assert.ErrorIs(t, m.MakeMove("b", gameID, 5), ErrGameNotFound)
}

func TestMakeMoveDraw(t *testing.T) {
	m, rec := newTestManager(t)
	gameID := startGame(t, m, rec, "a", "b")

	moves := []struct {
		player string
		pos    int
	}{
		{"a", 0}, {"b", 1}, {"a", 2}, {"b", 4}, {"a", 3},
		{"b", 5}, {"a", 7}, {"b", 6},
	}
	for _, mv := range moves {
		require.NoError(t, m.MakeMove(mv.player, gameID, mv.pos))
	}
	rec.take(false)

	require.NoError(t, m.MakeMove("a", gameID, 8))

	got := rec.take(false)
	require.Len(t, got, 2)
	for _, d := range got {
		over, ok := d.ev.(models.GameOver)
		require.True(t, ok)
		assert.Nil(t, over.Winner)
		assert.Nil(t, over.Combo)
		assert.True(t, over.Board.Full())
	}
	assert.Equal(t, 0, m.Stats().Games)
	require.NoError(t, checkInvariants(m))
}

func TestDisconnectDuringGame(t *testing.T) {
	m, rec := newTestManager(t)
	gameID := startGame(t, m, rec, "a", "b")

	m.Disconnect("a")

	got := rec.take(false)
	require.Len(t, got, 1)
	assert.Equal(t, delivery{to: "b", ev: models.GameEnded{
		Message: "Opponent disconnected",
		Type:    models.EndedDisconnect,
	}}, got[0])

	assert.ErrorIs(t, m.MakeMove("b", gameID, 4), ErrGameNotFound)
	assert.Empty(t, rec.take(true))
	_, ok := m.GameOf("b")
	assert.False(t, ok)
	assert.Equal(t, Stats{Users: 1}, m.Stats())
	require.NoError(t, checkInvariants(m))
}

func TestDisconnectWhileWaiting(t *testing.T) {
	m, rec := newTestManager(t)
	m.Connect("a")
	m.JoinGame("a")
	rec.take(false)

	m.Disconnect("a")

	assert.False(t, m.IsWaiting("a"))
	assert.Empty(t, rec.take(false))

	m.Connect("b")
	m.JoinGame("b")
	assert.Equal(t, []delivery{{to: "b", ev: models.WaitingForOpponent{}}}, rec.take(false))
}

func TestRejoinLeavesCurrentGame(t *testing.T) {
	m, rec := newTestManager(t)
	gameID := startGame(t, m, rec, "a", "b")

	m.JoinGame("b")

	got := rec.take(false)
	require.Len(t, got, 2)
	assert.Equal(t, delivery{to: "a", ev: models.GameEnded{
		Message: "Opponent left the game",
		Type:    models.EndedLeft,
	}}, got[0])
	assert.Equal(t, delivery{to: "b", ev: models.WaitingForOpponent{}}, got[1])

	_, ok := m.Game(gameID)
	assert.False(t, ok)
	assert.True(t, m.IsWaiting("b"))
	require.NoError(t, checkInvariants(m))

	m.JoinGame("a")
	newID, ok := m.GameOf("a")
	require.True(t, ok)
	assert.NotEqual(t, gameID, newID)
	g, _ := m.Game(newID)
	assert.Equal(t, "b", g.Player1, "the waiting player moves first")
	require.NoError(t, checkInvariants(m))
}

func TestTriggerFireBroadcasts(t *testing.T) {
	m, rec := newTestManager(t)
	m.TriggerFire("a")
	assert.Equal(t, []delivery{{to: everyone, ev: models.TriggerFire{}}}, rec.take(true))
}

func TestDefaultGameIDsAreUnique(t *testing.T) {
	m := NewManager(&recorder{}, zap.NewNop())
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		a, b := fmt.Sprintf("a%d", i), fmt.Sprintf("b%d", i)
		m.JoinGame(a)
		m.JoinGame(b)
		id, ok := m.GameOf(a)
		require.True(t, ok)
		require.False(t, seen[id], "duplicate game id %s", id)
		seen[id] = true
	}
}

func TestManagerInvariantsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewManager(&recorder{}, zap.NewNop())
		ids := []string{"p0", "p1", "p2", "p3", "p4"}
		connects, disconnects := 0, 0
		live := make(map[string]bool)

		steps := rapid.IntRange(1, 80).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(t, "id")
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				if !live[id] {
					m.Connect(id)
					live[id] = true
					connects++
				}
			case 1:
				if live[id] {
					disconnects++
				}
				m.Disconnect(id)
				delete(live, id)
			case 2:
				if live[id] {
					m.JoinGame(id)
				}
			case 3:
				gameID, ok := m.GameOf(id)
				if !ok {
					gameID = "stale"
				}
				_ = m.MakeMove(id, gameID, rapid.IntRange(-1, 9).Draw(t, "pos"))
			}

			if err := checkInvariants(m); err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
			want := connects - disconnects
			if want < 0 {
				want = 0
			}
			if got := m.UserCount(); got != want {
				t.Fatalf("user count %d, want %d", got, want)
			}
		}
	})
}

func TestManagerConcurrentSessions(t *testing.T) {
	m := NewManager(&recorder{}, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", n)
			r := rand.New(rand.NewSource(int64(n)))

			m.Connect(id)
			m.JoinGame(id)
			for j := 0; j < 30; j++ {
				if gameID, ok := m.GameOf(id); ok {
					_ = m.MakeMove(id, gameID, r.Intn(9))
				} else if r.Intn(4) == 0 {
					m.JoinGame(id)
				}
			}
			m.Disconnect(id)
		}(i)
	}
	wg.Wait()

	require.NoError(t, checkInvariants(m))
	assert.Equal(t, Stats{}, m.Stats())
}
