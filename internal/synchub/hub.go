package synchub

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// Hub fans visit events out to every connected listener so open sessions can
// refresh their visited sets without polling. Two transports are served:
// newline-delimited JSON over raw TCP and text frames over websocket.
// Listeners that fail a write are dropped on the spot.
type Hub struct {
	mu  sync.Mutex
	tcp map[net.Conn]struct{}
	ws  map[*websocket.Conn]struct{}
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

// helloFrame is the first frame every listener receives after attaching.
type helloFrame struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Listeners int    `json:"listeners"`
}

func NewHub() *Hub {
	return &Hub{
		tcp: make(map[net.Conn]struct{}),
		ws:  make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Attach(conn net.Conn) {
	h.mu.Lock()
	h.tcp[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Detach(conn net.Conn) {
	h.mu.Lock()
	delete(h.tcp, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AttachWS(sock *websocket.Conn) {
	h.mu.Lock()
	h.ws[sock] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) DetachWS(sock *websocket.Conn) {
	h.mu.Lock()
	delete(h.ws, sock)
	h.mu.Unlock()
	_ = sock.Close()
}

// Broadcast pushes one visit event to every listener on both transports.
func (h *Hub) Broadcast(ev VisitEvent) {
	frame, err := json.Marshal(ev)
	if err != nil {
		return
	}
	frame = append(frame, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.tcp {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := conn.Write(frame); err != nil {
			_ = conn.Close()
			delete(h.tcp, conn)
		}
	}
	for sock := range h.ws {
		if err := sock.WriteMessage(websocket.TextMessage, frame); err != nil {
			_ = sock.Close()
			delete(h.ws, sock)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.tcp),
		WSClients:  len(h.ws),
	}
}

// Hello greets a freshly attached TCP listener.
func (h *Hub) Hello(conn net.Conn) {
	frame, err := json.Marshal(helloFrame{
		Type:      "hello",
		Transport: "tcp",
		Listeners: h.Stats().TCPClients,
	})
	if err != nil {
		return
	}
	_, _ = conn.Write(append(frame, '\n'))
}

// HelloWS greets a freshly attached websocket listener.
func (h *Hub) HelloWS(sock *websocket.Conn) {
	frame, err := json.Marshal(helloFrame{
		Type:      "hello",
		Transport: "websocket",
		Listeners: h.Stats().WSClients,
	})
	if err != nil {
		return
	}
	_ = sock.WriteMessage(websocket.TextMessage, append(frame, '\n'))
}
