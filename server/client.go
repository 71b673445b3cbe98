package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// NOTE: the readPump/writePump structure below follows the chat example in
// github.com/gorilla/websocket (credit and much gratitude to the Gorilla
// toolkit authors for elegant design)
const (
	// Time allowed to write a message to a client
	sendToClientWait = 10 * time.Second

	// Time allowed to read a pong message from a client (after sending a ping);
	// ping-pong is used to make sure the client is still responsive even when
	// game-related messages aren't being sent back and forth, so a dead
	// connection can be detected sooner rather than later
	pongWait = 60 * time.Second

	// Interval at which to send pings to a client; must be less than pongWait
	pingInterval = 50 * time.Second

	// Commands are small JSON objects; this leaves generous headroom for a
	// chat message in a language with large UTF-8 encoding
	maxMessageSize = 512
)

// A client is basically a WebSocket connection with some added metadata
// (such as the player name) and a link to the room the connection belongs
// to.
type client struct {
	// We are "extending" a WebSocket connection
	*websocket.Conn

	id   uuid.UUID
	name string
	room *room       // The room this connection belongs to
	send chan []byte // Buffered channel of outgoing messages
}

// emit attempts to queue a message for the client, kicking the client from
// the room if the client's send channel is full/blocked. THIS IS ONLY SAFE
// TO CALL FROM THE ROOM'S PROCESSING GOROUTINE!
func (c *client) emit(msg []byte) {
	select {
	case c.send <- msg:
	default:
		// If this client's send channel, which uses a sizeable buffer, is
		// blocked, it means this client is being way too slow to receive
		// events and needs to be disconnected so we can reclaim resources
		// (the game would literally be unplayable for the user)
		c.room.kick(c)
	}
}

func (c *client) readPump() {
	defer func() {
		c.room.unregister <- c
		c.Close()
	}()

	c.SetReadLimit(maxMessageSize)
	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}
		if cmd, ok := decodeCommand(raw); ok {
			c.room.requests <- request{origin: c, cmd: cmd}
		} else {
			c.room.metrics.IncBadFrames()
			Log.Debugw("dropping malformed frame", "client", c.id, "room", c.room.code)
		}
	}
}

func (c *client) writePump() {
	pingTicker := time.NewTicker(pingInterval)

	defer func() {
		pingTicker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg, chanStillOpen := <-c.send:
			c.SetWriteDeadline(time.Now().Add(sendToClientWait))

			// The room can decide to kill this connection by closing our send
			// channel. Calling Close() on the WebSocket does NOT send a
			// 'proper' close message to the client, so we do it here
			// (otherwise the client would see an abnormal closure because the
			// connection would just die without warning)
			if !chanStillOpen {
				c.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-pingTicker.C:
			deadline := time.Now().Add(sendToClientWait)
			if err := c.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
