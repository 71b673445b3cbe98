package server

import (
	"github.com/google/uuid"

	"inarow/game"
)

const maxNameLen = 32

// room is a lobby plus at most one running game. In the lobby phase the two
// seated players negotiate settings; once a game starts, the room relays
// commands into the simulation and broadcasts the resulting state.
//
// A room does all of its processing in a single goroutine, which owns every
// field below; clients talk to it exclusively through the register,
// unregister, and requests channels. The room is cleaned up as soon as every
// member disconnects from it.
type room struct {
	code string
	name string

	// settings being negotiated in the lobby; every field must be set before
	// a game can start
	settings LobbySettings

	// seats maps a seated player's client ID to their mark. The first
	// claimant gets crosses, the second naughts; everyone else spectates.
	// A seat survives reconnects because it is keyed by client ID.
	seats map[uuid.UUID]game.Mark

	// state is nil until a game is started; it stays non-nil after a win or
	// draw so clients keep rendering the final board until a restart.
	state *game.State

	// Set of clients currently connected to the room, spectators included.
	clients map[*client]struct{}

	// Clients kicked for being unresponsive. Their read pumps are still
	// alive until the connection actually dies, so the room must keep
	// draining channels until each one's unregister arrives.
	kicked map[*client]struct{}

	chat    *chatLog
	metrics *roomMetrics

	// Incoming client connections
	register chan *client

	// Dead client connections which need to be removed from the room
	unregister chan *client

	// Incoming commands from connected clients; frames are decoded (and
	// malformed ones dropped) in each client's read goroutine so that the
	// work can be done in parallel
	requests chan request
}

func newRoom(code, name string) *room {
	return &room{
		code:       code,
		name:       name,
		seats:      make(map[uuid.UUID]game.Mark),
		clients:    make(map[*client]struct{}),
		kicked:     make(map[*client]struct{}),
		chat:       &chatLog{},
		metrics:    &roomMetrics{},
		register:   make(chan *client),
		unregister: make(chan *client),
		requests:   make(chan request, 100),
	}
}

// processUntilClosed continually handles joins, disconnects, and commands
// until the last client leaves. It must be started in a new goroutine as soon
// as the room is created.
func (r *room) processUntilClosed() {
	Log.Infow("room created", "room", r.code, "name", r.name)
	defer Log.Infow("room destroyed", "room", r.code)

	for {
		select {
		case c := <-r.register:
			r.addMember(c)
		case c := <-r.unregister:
			if _, ok := r.clients[c]; ok {
				r.removeMember(c)
			} else {
				delete(r.kicked, c)
			}
			if len(r.clients) == 0 && len(r.kicked) == 0 {
				// Last read pump is gone and nothing can send to the room's
				// channels anymore, so it is safe to clean up
				close(r.requests)
				return
			}
		case req := <-r.requests:
			r.handleRequest(req)
		}
	}
}

func (r *room) addMember(c *client) {
	r.clients[c] = struct{}{}
	mark := r.claimSeat(c.id)
	r.metrics.IncJoins()
	r.metrics.MemberAdded()
	Log.Infow("client joined", "room", r.code, "client", c.id, "name", c.name, "mark", mark.String())

	c.emit(encodeEvent(EventWelcome, WelcomePayload{
		ClientID: c.id.String(),
		Room:     r.code,
		Mark:     mark,
	}))
	for _, entry := range r.chat.history() {
		c.emit(encodeEvent(EventChat, entry))
	}
	if r.state != nil {
		c.emit(encodeEvent(EventState, r.state))
	}
	r.broadcastLobby()
}

func (r *room) removeMember(c *client) {
	delete(r.clients, c)
	close(c.send)
	r.releaseSeat(c)
	r.metrics.MemberRemoved()
	Log.Infow("client left", "room", r.code, "client", c.id)

	if len(r.clients) > 0 {
		r.broadcastLobby()
	}
}

// kick forcefully disconnects a client that is too slow to drain its send
// buffer. Closing the send channel makes the write pump send a proper close
// frame and tear down the connection.
func (r *room) kick(c *client) {
	if _, ok := r.clients[c]; !ok {
		return
	}
	delete(r.clients, c)
	r.kicked[c] = struct{}{}
	close(c.send)
	r.releaseSeat(c)
	r.metrics.IncKicks()
	r.metrics.MemberRemoved()
	Log.Warnw("kicked unresponsive client", "room", r.code, "client", c.id)
}

// claimSeat gives the client a mark if one is free, or their existing mark if
// they are reconnecting. Returns MarkEmpty for spectators.
func (r *room) claimSeat(id uuid.UUID) game.Mark {
	if mark, ok := r.seats[id]; ok {
		return mark
	}
	for _, mark := range []game.Mark{game.MarkCrosses, game.MarkNaughts} {
		if !r.seatTaken(mark) {
			r.seats[id] = mark
			return mark
		}
	}
	return game.MarkEmpty
}

// releaseSeat frees the client's seat unless another connection with the same
// client ID is still in the room (e.g. a second browser tab).
func (r *room) releaseSeat(c *client) {
	if _, seated := r.seats[c.id]; !seated {
		return
	}
	for other := range r.clients {
		if other.id == c.id {
			return
		}
	}
	delete(r.seats, c.id)
}

func (r *room) seatTaken(mark game.Mark) bool {
	for _, m := range r.seats {
		if m == mark {
			return true
		}
	}
	return false
}

// handleRequest should only ever be called by the room's processing
// goroutine; it branches on the command type, decides whether the given
// client is allowed to make the request given the current room state, and
// updates state and emits events accordingly.
//
// Disallowed commands are simply ignored, without error feedback to the
// client; see decodeCommand for why.
func (r *room) handleRequest(req request) {
	// Renaming and chatting are open to everyone, spectators included.
	switch cmd := req.cmd.(type) {
	case cmdSetName:
		req.origin.name = string(cmd)
		r.broadcastLobby()
		return
	case cmdChat:
		entry := r.chat.add(req.origin.id, req.origin.name, string(cmd))
		r.metrics.IncChatMessages()
		r.broadcast(encodeEvent(EventChat, entry))
		return
	}

	mark, seated := r.seats[req.origin.id]
	if !seated {
		r.metrics.IncRejected()
		return
	}

	if r.state != nil {
		r.handleGameCommand(req, mark)
		return
	}

	switch cmd := req.cmd.(type) {
	case cmdSetGridSize:
		v := int(cmd)
		r.settings.GridSize = &v
	case cmdSetWinCondition:
		v := int(cmd)
		r.settings.WinCondition = &v
	case cmdSetGravity:
		v := bool(cmd)
		r.settings.Gravity = &v
	case cmdStartGame:
		settings, complete := r.settings.Complete()
		if !complete || settings.Validate() != nil {
			r.metrics.IncRejected()
			Log.Debugw("start rejected, settings incomplete or invalid", "room", r.code)
			return
		}
		if !r.seatTaken(game.MarkNaughts) || !r.seatTaken(game.MarkCrosses) {
			r.metrics.IncRejected()
			Log.Debugw("start rejected, seat open", "room", r.code)
			return
		}
		r.state = game.NewState(settings)
		r.metrics.IncApplied()
		Log.Infow("game started", "room", r.code,
			"size", settings.GridSize, "win", settings.WinCondition, "gravity", settings.Gravity)
		r.broadcastLobby()
		r.broadcastState()
		return
	default:
		r.metrics.IncRejected()
		return
	}

	r.metrics.IncApplied()
	r.broadcastLobby()
}

// handleGameCommand drives the running simulation. Only the seated player
// whose turn it is may act, restarts included; everything else is a no-op.
func (r *room) handleGameCommand(req request, mark game.Mark) {
	if mark != r.state.Turn {
		r.metrics.IncRejected()
		return
	}

	switch cmd := req.cmd.(type) {
	case cmdPlace:
		if !r.state.Place(cmd.col, cmd.row) {
			r.metrics.IncRejected()
			return
		}
		r.metrics.IncApplied()
		if r.state.Winner != nil {
			Log.Infow("game won", "room", r.code, "winner", r.state.Winner.Player.String())
		} else if r.state.Draw {
			Log.Infow("game drawn", "room", r.code)
		}
		r.broadcastState()
	case cmdRestart:
		r.state.Restart()
		r.metrics.IncApplied()
		Log.Infow("game restarted", "room", r.code)
		r.broadcastState()
	default:
		r.metrics.IncRejected()
	}
}

func (r *room) broadcast(msg []byte) {
	r.metrics.IncBroadcasts()
	for c := range r.clients {
		c.emit(msg)
	}
}

func (r *room) broadcastState() {
	r.broadcast(encodeEvent(EventState, r.state))
}

func (r *room) broadcastLobby() {
	r.broadcast(encodeEvent(EventLobby, r.lobbyPayload()))
}

func (r *room) lobbyPayload() LobbyPayload {
	players := make([]PlayerInfo, 0, 2)
	for _, mark := range []game.Mark{game.MarkCrosses, game.MarkNaughts} {
		for id, m := range r.seats {
			if m != mark {
				continue
			}
			info := PlayerInfo{ClientID: id.String(), Mark: m}
			for c := range r.clients {
				if c.id == id {
					info.Name = c.name
					break
				}
			}
			players = append(players, info)
		}
	}
	return LobbyPayload{
		Settings:   r.settings,
		Players:    players,
		Spectators: len(r.clients) - len(players),
		Started:    r.state != nil,
	}
}
