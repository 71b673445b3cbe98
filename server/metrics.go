package server

import "sync/atomic"

// roomMetrics tracks per-room counters for monitoring and debugging. All
// methods are safe to call from any goroutine.
type roomMetrics struct {
	CommandsApplied  int64 // commands that changed lobby or game state
	CommandsRejected int64 // well-formed commands refused by the rules
	BadFrames        int64 // frames that failed to decode
	Broadcasts       int64 // events fanned out to the room
	Joins            int64 // connections registered
	Kicks            int64 // unresponsive clients disconnected
	ChatMessages     int64
	members          int64 // gauge: connections currently in the room
}

func (m *roomMetrics) IncApplied()      { atomic.AddInt64(&m.CommandsApplied, 1) }
func (m *roomMetrics) IncRejected()     { atomic.AddInt64(&m.CommandsRejected, 1) }
func (m *roomMetrics) IncBadFrames()    { atomic.AddInt64(&m.BadFrames, 1) }
func (m *roomMetrics) IncBroadcasts()   { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *roomMetrics) IncJoins()        { atomic.AddInt64(&m.Joins, 1) }
func (m *roomMetrics) IncKicks()        { atomic.AddInt64(&m.Kicks, 1) }
func (m *roomMetrics) IncChatMessages() { atomic.AddInt64(&m.ChatMessages, 1) }

func (m *roomMetrics) MemberAdded()   { atomic.AddInt64(&m.members, 1) }
func (m *roomMetrics) MemberRemoved() { atomic.AddInt64(&m.members, -1) }
func (m *roomMetrics) Members() int64 { return atomic.LoadInt64(&m.members) }

// Snapshot returns a read-only copy for HTTP output.
func (m *roomMetrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"commands_applied":  atomic.LoadInt64(&m.CommandsApplied),
		"commands_rejected": atomic.LoadInt64(&m.CommandsRejected),
		"bad_frames":        atomic.LoadInt64(&m.BadFrames),
		"broadcasts":        atomic.LoadInt64(&m.Broadcasts),
		"joins":             atomic.LoadInt64(&m.Joins),
		"kicks":             atomic.LoadInt64(&m.Kicks),
		"chat_messages":     atomic.LoadInt64(&m.ChatMessages),
		"members":           atomic.LoadInt64(&m.members),
	}
}
