package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inarow/client"
	"inarow/game"
	"inarow/server"
)

const eventTimeout = 3 * time.Second

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	s := server.NewServer(websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	})
	router := mux.NewRouter()
	router.HandleFunc("/join", s.HandleJoinRoom)
	router.HandleFunc("/rooms", s.HandleGetRooms).Methods("GET")

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *client.Client {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/join?" + query
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	c, err := client.Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// await pumps events until pred accepts one, failing the test on timeout.
func await(t *testing.T, c *client.Client, what string, pred func(client.Event) bool) client.Event {
	t.Helper()

	deadline := time.After(eventTimeout)
	for {
		select {
		case ev, ok := <-c.Events():
			require.True(t, ok, "connection closed waiting for %s", what)
			if pred(ev) {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func awaitWelcome(t *testing.T, c *client.Client) *server.WelcomePayload {
	t.Helper()
	ev := await(t, c, "welcome", func(ev client.Event) bool { return ev.Welcome != nil })
	return ev.Welcome
}

func awaitState(t *testing.T, c *client.Client, what string, pred func(*game.State) bool) *game.State {
	t.Helper()
	ev := await(t, c, what, func(ev client.Event) bool { return ev.State != nil && pred(ev.State) })
	return ev.State
}

func TestFullGameOverWebsocket(t *testing.T) {
	ts := startServer(t)

	p1 := dial(t, ts, "room=new&room-name=showdown&name=alice")
	w1 := awaitWelcome(t, p1)
	require.Equal(t, game.MarkCrosses, w1.Mark)

	p2 := dial(t, ts, "room="+w1.Room+"&name=bob")
	w2 := awaitWelcome(t, p2)
	require.Equal(t, game.MarkNaughts, w2.Mark)
	require.Equal(t, w1.Room, w2.Room)

	require.NoError(t, p1.SetGridSize(3))
	require.NoError(t, p1.SetWinCondition(3))
	require.NoError(t, p1.SetGravity(false))

	// Both sides see the negotiated settings before the game starts.
	await(t, p2, "negotiated lobby", func(ev client.Event) bool {
		if ev.Lobby == nil {
			return false
		}
		s, complete := ev.Lobby.Settings.Complete()
		return complete && s == (game.Settings{GridSize: 3, WinCondition: 3})
	})

	require.NoError(t, p1.StartGame())
	awaitState(t, p2, "fresh board", func(s *game.State) bool {
		return s.Turn == game.MarkNaughts && s.Winner == nil
	})

	// Naughts take column 0 while crosses dither in column 1.
	require.NoError(t, p2.Place(0, 0))
	awaitState(t, p1, "naughts' first move", func(s *game.State) bool {
		return s.Grid[0][0] == game.MarkNaughts && s.Turn == game.MarkCrosses
	})
	require.NoError(t, p1.Place(1, 0))
	awaitState(t, p2, "crosses' first move", func(s *game.State) bool {
		return s.Grid[1][0] == game.MarkCrosses
	})
	require.NoError(t, p2.Place(0, 1))
	awaitState(t, p1, "naughts' second move", func(s *game.State) bool {
		return s.Grid[0][1] == game.MarkNaughts
	})
	require.NoError(t, p1.Place(1, 1))
	awaitState(t, p2, "crosses' second move", func(s *game.State) bool {
		return s.Grid[1][1] == game.MarkCrosses
	})
	require.NoError(t, p2.Place(0, 2))

	// Both clients converge on the same final snapshot.
	for _, c := range []*client.Client{p1, p2} {
		final := awaitState(t, c, "winning state", func(s *game.State) bool {
			return s.Winner != nil
		})
		assert.Equal(t, game.MarkNaughts, final.Winner.Player)
		assert.ElementsMatch(t,
			[]game.Cell{{Col: 0, Row: 0}, {Col: 0, Row: 2}},
			[]game.Cell{final.Winner.From, final.Winner.To})
	}

	// The winning move handed the turn to crosses, so crosses can restart.
	require.NoError(t, p1.Restart())
	awaitState(t, p2, "restarted board", func(s *game.State) bool {
		return s.Winner == nil && s.Grid[0][0] == game.MarkEmpty && s.Turn == game.MarkNaughts
	})
}

func TestSpectatorSeesEverything(t *testing.T) {
	ts := startServer(t)

	p1 := dial(t, ts, "room=new&name=alice")
	w1 := awaitWelcome(t, p1)
	p2 := dial(t, ts, "room="+w1.Room+"&name=bob")
	awaitWelcome(t, p2)

	spec := dial(t, ts, "room="+w1.Room+"&name=carol")
	ws := awaitWelcome(t, spec)
	require.Equal(t, game.MarkEmpty, ws.Mark)

	require.NoError(t, p1.SetGridSize(4))
	require.NoError(t, p1.SetWinCondition(3))
	require.NoError(t, p1.SetGravity(true))
	require.NoError(t, p1.StartGame())

	awaitState(t, spec, "game start", func(s *game.State) bool {
		return s.Size == 4 && s.Gravity
	})

	// Spectator commands are ignored by the room.
	require.NoError(t, spec.Place(0, 0))

	require.NoError(t, p2.Place(2, 0))
	state := awaitState(t, spec, "gravity drop", func(s *game.State) bool {
		return s.Grid[2][3] == game.MarkNaughts
	})
	assert.Equal(t, game.MarkEmpty, state.Grid[0][3],
		"spectator's move must not have been applied")
}

func TestCloseConcurrently(t *testing.T) {
	ts := startServer(t)

	for i := 0; i < 200; i++ {
		c := dial(t, ts, "room=new&name=alice")
		awaitWelcome(t, c)

		// Both pumps call Close when the connection dies, and the user may
		// call it at any moment from any goroutine; none of those calls may
		// ever panic, whatever the interleaving.
		start := make(chan struct{})
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				assert.NotPanics(t, func() { c.Close() })
			}()
		}
		close(start)
		wg.Wait()
	}
}

func TestChatRoundtrip(t *testing.T) {
	ts := startServer(t)

	p1 := dial(t, ts, "room=new&name=alice")
	w1 := awaitWelcome(t, p1)
	p2 := dial(t, ts, "room="+w1.Room+"&name=bob")
	awaitWelcome(t, p2)

	require.NoError(t, p1.Chat("good luck"))

	ev := await(t, p2, "chat", func(ev client.Event) bool { return ev.Chat != nil })
	assert.Equal(t, "good luck", ev.Chat.Text)
	assert.Equal(t, "alice", ev.Chat.Name)
	assert.Equal(t, w1.ClientID, ev.Chat.ClientID)
}
