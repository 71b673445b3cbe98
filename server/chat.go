package server

import "github.com/google/uuid"

const (
	maxScrollback = 50
	maxChatLen    = 200
)

// chatLog is a fixed-size ring of the most recent chat messages, replayed to
// clients when they join so late arrivals get some context. next stays in
// [0, maxScrollback) so the ring keeps working no matter how long the room
// lives.
type chatLog struct {
	ring [maxScrollback]ChatText
	next int  // position the next message is written to
	full bool // the ring has wrapped at least once
}

// add records a message and returns the entry to broadcast.
func (cl *chatLog) add(clientID uuid.UUID, name, text string) ChatText {
	entry := ChatText{ClientID: clientID.String(), Name: name, Text: text}
	cl.ring[cl.next] = entry
	cl.next++
	if cl.next == maxScrollback {
		cl.next = 0
		cl.full = true
	}
	return entry
}

// history returns the retained messages, oldest first.
func (cl *chatLog) history() []ChatText {
	if !cl.full {
		return cl.ring[:cl.next]
	}

	out := make([]ChatText, 0, maxScrollback)
	for i := 0; i < maxScrollback; i++ {
		out = append(out, cl.ring[(cl.next+i)%maxScrollback])
	}
	return out
}
