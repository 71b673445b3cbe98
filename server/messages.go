package server

import (
	"encoding/json"
	"fmt"

	"inarow/game"
)

// This file contains the wire format shared by the server and any client.
// Every frame is a JSON text message wrapped in an Envelope; the payload
// structure depends on the type.

// Envelope wraps every message exchanged over a websocket connection.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client-to-server command types.
const (
	CmdPlace           = "place"
	CmdRestart         = "restart"
	CmdStartGame       = "start_game"
	CmdSetGridSize     = "set_grid_size"
	CmdSetWinCondition = "set_win_condition"
	CmdSetGravity      = "set_gravity"
	CmdSetName         = "set_name"
	CmdChat            = "chat"
)

// Server-to-client event types.
const (
	EventWelcome = "welcome"
	EventLobby   = "lobby"
	EventState   = "state"
	EventChat    = "chat"
)

// PlacePayload asks the server to place a piece. With gravity on, the row is
// advisory only; the server decides where the piece lands.
type PlacePayload struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// SetIntPayload carries the value for set_grid_size and set_win_condition.
type SetIntPayload struct {
	Value int `json:"value"`
}

// SetBoolPayload carries the value for set_gravity.
type SetBoolPayload struct {
	Value bool `json:"value"`
}

// SetNamePayload sets the sender's display name.
type SetNamePayload struct {
	Name string `json:"name"`
}

// ChatText is both the chat command payload (client to server, ClientID and
// Name ignored) and the chat event payload (server to client).
type ChatText struct {
	ClientID string `json:"client_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Text     string `json:"text"`
}

// WelcomePayload is sent once to each connection after it joins a room. Mark
// is empty for spectators.
type WelcomePayload struct {
	ClientID string    `json:"client_id"`
	Room     string    `json:"room"`
	Mark     game.Mark `json:"mark"`
}

// LobbySettings mirrors game.Settings with every field optional, so clients
// can tell "not negotiated yet" apart from a real value.
type LobbySettings struct {
	GridSize     *int  `json:"grid_size"`
	WinCondition *int  `json:"win_condition"`
	Gravity      *bool `json:"gravity"`
}

// Complete reports whether every setting has been negotiated, and if so
// returns the concrete settings.
func (ls LobbySettings) Complete() (game.Settings, bool) {
	if ls.GridSize == nil || ls.WinCondition == nil || ls.Gravity == nil {
		return game.Settings{}, false
	}
	return game.Settings{
		GridSize:     *ls.GridSize,
		WinCondition: *ls.WinCondition,
		Gravity:      *ls.Gravity,
	}, true
}

// PlayerInfo describes one seated player in a lobby event.
type PlayerInfo struct {
	ClientID string    `json:"client_id"`
	Name     string    `json:"name"`
	Mark     game.Mark `json:"mark"`
}

// LobbyPayload is broadcast whenever lobby membership or settings change.
type LobbyPayload struct {
	Settings   LobbySettings `json:"settings"`
	Players    []PlayerInfo  `json:"players"`
	Spectators int           `json:"spectators"`
	Started    bool          `json:"started"`
}

// The state event payload is game.State verbatim.

// encodeEvent serializes an event envelope. Failing to marshal one of our own
// payload types is a programming error, so this panics rather than returning
// an error that every call site would have to ignore.
func encodeEvent(typ string, payload any) []byte {
	body, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("encodeEvent: failed to encode %q payload: %v", typ, err))
	}
	msg, err := json.Marshal(Envelope{Type: typ, Payload: body})
	if err != nil {
		panic(fmt.Sprintf("encodeEvent: failed to encode envelope: %v", err))
	}
	return msg
}
