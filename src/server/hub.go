package server

import (
	"encoding/json"
	"net/http"
	"time"

	"ipo-wizard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// delivery is a reply meant for one client only.
type delivery struct {
	client *Client
	event  *models.MSessionEvent
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. It is the only writer of the clients
// map and the only goroutine that closes a client's send channel.
func (s *Server) handleWebsockets() {
	for {
		select {
		case <-s.done:
			s.clientsMu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMu.Unlock()
			return

		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			s.clientsMu.Unlock()

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMu.Unlock()

		case d := <-s.direct:
			s.clientsMu.Lock()
			if _, ok := s.clients[d.client]; ok {
				s.push(d.client, d.event)
			}
			s.clientsMu.Unlock()

		case event := <-s.broadcast:
			s.clientsMu.Lock()
			for client := range s.clients {
				if client.subscribed(event.SessionID) {
					s.push(client, event)
				}
			}
			s.clientsMu.Unlock()
		}
	}
}

// push hands event to client, dropping the client when its buffer is full.
// Caller holds clientsMu.
func (s *Server) push(client *Client, event *models.MSessionEvent) {
	select {
	case client.send <- event:
	default:
		delete(s.clients, client)
		close(client.send)
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a session event for every client subscribed to its session.
func (s *Server) Broadcast(message interface{}) {
	var event *models.MSessionEvent
	switch m := message.(type) {
	case *models.MSessionEvent:
		event = m
	case models.MSessionEvent:
		event = &m
	default:
		s.Logger.Info("Broadcast expected MSessionEvent, got %T", message)
		return
	}
	if event == nil {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	select {
	case s.broadcast <- event:
	case <-s.done:
	}
}

func (s *Server) publishState(view models.MWizardView) {
	s.Broadcast(stateEvent(view))
}

func (s *Server) publishClosed(sessionID string) {
	s.Broadcast(closedEvent(sessionID))
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send:     make(chan *models.MSessionEvent, 64),
		sessions: make(map[string]struct{}),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe or unsubscribe command. A new
// subscription is answered with the current state of each session, or CLOSED
// when the session no longer exists.
func (s *Server) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case "subscribe":
		for _, id := range cmd.SessionIDs {
			client.subscribe(id)

			event := closedEvent(id)
			if ctrl, err := s.Sessions.Get(id); err == nil {
				event = stateEvent(ctrl.View())
			}
			select {
			case s.direct <- delivery{client: client, event: event}:
			case <-s.done:
				return
			}
		}
	case "unsubscribe":
		for _, id := range cmd.SessionIDs {
			client.unsubscribe(id)
		}
	}
}
