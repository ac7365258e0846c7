package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Watcher message types
const (
	MsgSessionStarted      MessageType = "session_started"
	MsgSessionConnected    MessageType = "session_connected"
	MsgSessionDisconnected MessageType = "session_disconnected"
	MsgSessionProgress     MessageType = "session_progress"
	MsgSessionSubmitted    MessageType = "session_submitted"
	MsgSessionAbandoned    MessageType = "session_abandoned"
)

// Respondent message types
const (
	MsgQuestion     MessageType = "question"
	MsgFlowComplete MessageType = "flow_complete"
	MsgError        MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections. Builders watch one survey's live
// sessions; respondents stream their own session.
type Hub struct {
	watcherConns map[string]*Connection // surveyID -> builder conn
	sessionConns map[string]*Connection // sessionID -> respondent conn

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	disconnect chan string
}

// Connection represents a WebSocket connection
type Connection struct {
	SurveyID  string
	SessionID string // Empty for watcher connections
	IsWatcher bool
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SurveyID  string
	SessionID string
	ToWatcher bool
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		watcherConns: make(map[string]*Connection),
		sessionConns: make(map[string]*Connection),
		register:     make(chan *Connection),
		unregister:   make(chan *Connection),
		broadcast:    make(chan *BroadcastMessage, 256),
		disconnect:   make(chan string),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.IsWatcher {
				if old, ok := h.watcherConns[conn.SurveyID]; ok {
					close(old.Send)
				}
				h.watcherConns[conn.SurveyID] = conn
				log.Printf("Watcher connected to survey %s", conn.SurveyID)
			} else {
				if old, ok := h.sessionConns[conn.SessionID]; ok {
					close(old.Send)
				}
				h.sessionConns[conn.SessionID] = conn
				log.Printf("Session %s connected", conn.SessionID)

				h.notifyWatcher(conn.SurveyID, MsgSessionConnected, conn.SessionID)
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.IsWatcher {
				if existing, ok := h.watcherConns[conn.SurveyID]; ok && existing == conn {
					delete(h.watcherConns, conn.SurveyID)
					close(conn.Send)
					log.Printf("Watcher disconnected from survey %s", conn.SurveyID)
				}
			} else {
				if existing, ok := h.sessionConns[conn.SessionID]; ok && existing == conn {
					delete(h.sessionConns, conn.SessionID)
					close(conn.Send)
					log.Printf("Session %s disconnected", conn.SessionID)

					h.notifyWatcher(conn.SurveyID, MsgSessionDisconnected, conn.SessionID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.ToWatcher {
				if conn, ok := h.watcherConns[msg.SurveyID]; ok {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			} else {
				if conn, ok := h.sessionConns[msg.SessionID]; ok {
					select {
					case conn.Send <- data:
					default:
					}
				}
			}
			h.mu.RUnlock()

		case sessionID := <-h.disconnect:
			h.mu.Lock()
			if conn, ok := h.sessionConns[sessionID]; ok {
				delete(h.sessionConns, sessionID)
				close(conn.Send)
				log.Printf("Session %s closed by server", sessionID)
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToWatchers sends a message to the survey's watcher (implements service.Broadcaster)
func (h *Hub) BroadcastToWatchers(surveyID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SurveyID:  surveyID,
		ToWatcher: true,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// BroadcastToSession sends a message to one respondent (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// DisconnectSession closes the respondent connection once the session has
// ended (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	h.disconnect <- sessionID
}

func (h *Hub) notifyWatcher(surveyID string, msgType MessageType, sessionID string) {
	if conn, ok := h.watcherConns[surveyID]; ok {
		data, _ := json.Marshal(&Message{
			Type:    msgType,
			Payload: json.RawMessage(`{"sessionId":"` + sessionID + `"}`),
		})
		select {
		case conn.Send <- data:
		default:
		}
	}
}
