package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/CharanLingolu/LC-Ai-Backend/services"
	"github.com/CharanLingolu/LC-Ai-Backend/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Server wires the hub, the call manager and the coordinators together and
// owns the websocket endpoint.
type Server struct {
	hub    *Hub
	router *Router
}

func NewServer(rooms store.RoomStore, messages store.MessageStore, ai services.AIChatProxy) *Server {
	hub := NewHub(rooms)
	calls := NewCallManager(hub)
	roomCoord := NewRoomCoordinator(rooms, hub)
	msgCoord := NewMessageCoordinator(messages, rooms, hub, ai)

	return &Server{
		hub:    hub,
		router: NewRouter(hub, calls, roomCoord, msgCoord),
	}
}

// HandleConnection upgrades the HTTP request and starts the client pumps.
// Connections arrive anonymous; identity is bound later by register_user or
// one of the join events.
func (s *Server) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(s.hub, s.router, conn)
	s.hub.Register(client)

	// Tell the client its connection id so peers can address signaling to it.
	client.enqueue(newEvent(EvConnected, map[string]string{
		"connectionId": client.id,
	}))

	log.Info().Str("conn", client.id).Msg("websocket connected")

	go client.readPump()
	go client.writePump()
}
