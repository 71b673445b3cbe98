// Package client is a headless client for an inarow server. It dials the
// websocket endpoint, pumps commands out, and decodes server events into a
// channel a frontend can render from. It carries no rendering or input
// handling of its own.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inarow/game"
	"inarow/server"
)

var ErrClosed = errors.New("client closed")

const writeWait = 10 * time.Second

// Event is a single decoded server event. Exactly one of the pointer fields
// is set, matching Type.
type Event struct {
	Type    string
	Welcome *server.WelcomePayload
	Lobby   *server.LobbyPayload
	State   *game.State
	Chat    *server.ChatText
}

// Client is a live connection to a game room.
type Client struct {
	conn *websocket.Conn

	cmds      chan []byte
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to a server's join endpoint, e.g.
// "ws://localhost:8080/join?room=new&name=alice".
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:   conn,
		cmds:   make(chan []byte, 16),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	go c.writeLoop()
	return c, nil
}

// Events returns the stream of decoded server events. The channel is closed
// when the connection dies or Close is called.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close tears the connection down. The pumps call it on connection errors,
// so it must be safe to call from any number of goroutines at once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.conn.Close()
}

// Place asks the server to place a piece at the given cell. With gravity on,
// only the column matters.
func (c *Client) Place(col, row int) error {
	return c.push(server.CmdPlace, server.PlacePayload{Col: col, Row: row})
}

// Restart asks the server to reset the current game.
func (c *Client) Restart() error {
	return c.push(server.CmdRestart, nil)
}

// StartGame asks the server to start a game with the negotiated settings.
func (c *Client) StartGame() error {
	return c.push(server.CmdStartGame, nil)
}

func (c *Client) SetGridSize(n int) error {
	return c.push(server.CmdSetGridSize, server.SetIntPayload{Value: n})
}

func (c *Client) SetWinCondition(n int) error {
	return c.push(server.CmdSetWinCondition, server.SetIntPayload{Value: n})
}

func (c *Client) SetGravity(on bool) error {
	return c.push(server.CmdSetGravity, server.SetBoolPayload{Value: on})
}

func (c *Client) SetName(name string) error {
	return c.push(server.CmdSetName, server.SetNamePayload{Name: name})
}

func (c *Client) Chat(text string) error {
	return c.push(server.CmdChat, server.ChatText{Text: text})
}

func (c *Client) push(typ string, payload any) error {
	var body json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = b
	}
	msg, err := json.Marshal(server.Envelope{Type: typ, Payload: body})
	if err != nil {
		return err
	}

	select {
	case c.cmds <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case msg := <-c.cmds:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) readLoop() {
	defer close(c.events)
	defer c.Close()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		ev, ok := decodeEvent(raw)
		if !ok {
			continue
		}

		// Block rather than drop: the server snapshots are authoritative and
		// a consumer that wants only the latest can drain the channel.
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func decodeEvent(raw []byte) (Event, bool) {
	var env server.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, false
	}

	ev := Event{Type: env.Type}

	switch env.Type {
	case server.EventWelcome:
		var p server.WelcomePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Event{}, false
		}
		ev.Welcome = &p
	case server.EventLobby:
		var p server.LobbyPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Event{}, false
		}
		ev.Lobby = &p
	case server.EventState:
		var p game.State
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Event{}, false
		}
		ev.State = &p
	case server.EventChat:
		var p server.ChatText
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Event{}, false
		}
		ev.Chat = &p
	default:
		return Event{}, false
	}

	return ev, true
}
