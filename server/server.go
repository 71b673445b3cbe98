package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const idCookieName = "id"

// DefaultRoom is joined when a connection does not name a room, so two people
// can just open the app and play.
const DefaultRoom = "lobby"

// Server hosts game rooms over websockets and answers a few REST endpoints
// about them.
type Server interface {
	// HandleJoinRoom upgrades the request to a websocket and attaches it to
	// the room named by the 'room' query parameter (or the default room). The
	// special value "new" creates a fresh room, optionally named with the
	// 'room-name' parameter.
	HandleJoinRoom(http.ResponseWriter, *http.Request)

	// HandleGetRooms lists the live rooms as JSON.
	HandleGetRooms(http.ResponseWriter, *http.Request)

	// HandleGetRoom summarizes a single room; the room code is the {code}
	// route variable.
	HandleGetRoom(http.ResponseWriter, *http.Request)

	// HandleMetrics serves a room's counters as JSON; the room is named by
	// the 'room' query parameter.
	HandleMetrics(http.ResponseWriter, *http.Request)
}

func NewServer(u websocket.Upgrader) Server {
	return &server{
		upgrader: u,
		rooms:    make(map[string]*room),
	}
}

type server struct {
	upgrader websocket.Upgrader
	rooms    map[string]*room
	roomsMtx sync.RWMutex
}

// RoomSummary is the REST representation of a room.
type RoomSummary struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Members int64  `json:"members"`
}

func (s *server) HandleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var clientID uuid.UUID

	if ck, err := r.Cookie(idCookieName); err != nil {
		clientID = uuid.New()
		http.SetCookie(w, &http.Cookie{
			Name:     idCookieName,
			Value:    clientID.String(),
			SameSite: http.SameSiteStrictMode,
		})
	} else if clientID, err = uuid.Parse(ck.Value); err != nil {
		http.Error(w, "Invalid client ID cookie", http.StatusBadRequest)
		return
	}

	playerName := r.URL.Query().Get("name")
	if playerName == "" {
		playerName = "Player " + clientID.String()[:4]
	} else if len(playerName) > maxNameLen {
		http.Error(w, "Player name too long", http.StatusBadRequest)
		return
	}

	roomCode := r.URL.Query().Get("room")
	newRoom := roomCode == "new"

	var rm *room

	if newRoom || roomCode == "" {
		roomName := r.URL.Query().Get("room-name")

		s.roomsMtx.Lock()
		if newRoom {
			roomCode = strings.Split(uuid.NewString(), "-")[0]
			rm = spawnRoom(s, roomCode, roomName)
		} else {
			// Lazily materialize the default room.
			roomCode = DefaultRoom
			if rm = s.rooms[roomCode]; rm == nil {
				rm = spawnRoom(s, roomCode, roomCode)
			}
		}
		s.roomsMtx.Unlock()
	} else {
		s.roomsMtx.RLock()
		rm = s.rooms[roomCode]
		s.roomsMtx.RUnlock()

		if rm == nil {
			http.Error(w, "No such room", http.StatusNotFound)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// No need to send an HTTP error reply because the .Upgrade() call
		// sends an error response before it returns an error to our code
		Log.Debugw("failed to upgrade connection", "err", err)
		return
	}

	cli := &client{conn, clientID, playerName, rm, make(chan []byte, 100)}
	rm.register <- cli

	// Start read/write in new goroutines so we can return from this HTTP
	// handler and let the request and response writer (etc.) get cleaned up
	go cli.readPump()
	go cli.writePump()
}

// spawnRoom creates a room, registers it, and starts its processing goroutine.
// Must be called with s.roomsMtx held for writing.
func spawnRoom(s *server, code, name string) *room {
	rm := newRoom(code, name)
	s.rooms[code] = rm

	go func() {
		rm.processUntilClosed()

		s.roomsMtx.Lock()
		delete(s.rooms, code)
		s.roomsMtx.Unlock()
	}()

	return rm
}

func (s *server) HandleGetRooms(w http.ResponseWriter, r *http.Request) {
	s.roomsMtx.RLock()
	out := make([]RoomSummary, 0, len(s.rooms))
	for code, rm := range s.rooms {
		out = append(out, RoomSummary{Code: code, Name: rm.name, Members: rm.metrics.Members()})
	}
	s.roomsMtx.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *server) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	s.roomsMtx.RLock()
	rm := s.rooms[code]
	s.roomsMtx.RUnlock()

	if rm == nil {
		http.Error(w, "No such room", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RoomSummary{Code: code, Name: rm.name, Members: rm.metrics.Members()})
}

func (s *server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")
	if code == "" {
		code = DefaultRoom
	}

	s.roomsMtx.RLock()
	rm := s.rooms[code]
	s.roomsMtx.RUnlock()

	if rm == nil {
		http.Error(w, "No such room", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"room":    code,
		"metrics": rm.metrics.Snapshot(),
	})
}
