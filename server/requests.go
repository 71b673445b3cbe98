package server

// This file contains types and deserialization code for every command a
// client can send to the server. Commands are decoded in each client's read
// goroutine so the work happens in parallel, and the room goroutine only ever
// sees well-formed values.

import "encoding/json"

type cmdPlace struct {
	col, row int
}

type cmdRestart struct{}

type cmdStartGame struct{}

type cmdSetGridSize int

type cmdSetWinCondition int

type cmdSetGravity bool

type cmdSetName string

type cmdChat string

// request pairs a decoded command with the client it originated from.
type request struct {
	origin *client
	cmd    any
}

// decodeCommand parses a raw websocket frame into one of the command types
// above. Malformed frames and unknown types yield (nil, false); they are
// dropped without feedback, because a client broken enough to send garbage
// cannot be trusted to handle an error reply either.
func decodeCommand(raw []byte) (any, bool) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}

	switch env.Type {
	case CmdPlace:
		var p PlacePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, false
		}
		return cmdPlace{col: p.Col, row: p.Row}, true

	case CmdRestart:
		return cmdRestart{}, true

	case CmdStartGame:
		return cmdStartGame{}, true

	case CmdSetGridSize:
		var p SetIntPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, false
		}
		return cmdSetGridSize(p.Value), true

	case CmdSetWinCondition:
		var p SetIntPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, false
		}
		return cmdSetWinCondition(p.Value), true

	case CmdSetGravity:
		var p SetBoolPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, false
		}
		return cmdSetGravity(p.Value), true

	case CmdSetName:
		var p SetNamePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.Name == "" || len(p.Name) > maxNameLen {
			return nil, false
		}
		return cmdSetName(p.Name), true

	case CmdChat:
		var p ChatText
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.Text == "" || len(p.Text) > maxChatLen {
			return nil, false
		}
		return cmdChat(p.Text), true
	}

	return nil, false
}
