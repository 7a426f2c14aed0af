package synchub

import (
	"bufio"
	"log"
	"net"
)

// Server accepts raw TCP listeners for the hub's line-delimited transport.
type Server struct {
	Addr string
	Hub  *Hub

	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	log.Printf("[tcp-sync] listening on %s", s.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}

		s.Hub.Attach(conn)
		s.Hub.Hello(conn)
		log.Printf("[tcp-sync] listener attached: %s", conn.RemoteAddr())

		go s.drain(conn)
	}
}

// drain consumes anything the listener sends until the connection drops,
// then detaches it. The transport is one-way; inbound lines are ignored.
func (s *Server) drain(conn net.Conn) {
	defer func() {
		s.Hub.Detach(conn)
		log.Printf("[tcp-sync] listener detached: %s", conn.RemoteAddr())
	}()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
	}
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
