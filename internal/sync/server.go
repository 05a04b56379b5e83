package sync

import (
	"bufio"
	"errors"
	"log"
	"net"
	"sync"
)

// Server accepts TCP feed subscribers and registers them with the hub.
type Server struct {
	Addr   string
	Hub    *Hub
	Logger *log.Logger

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, hub *Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Addr: addr, Hub: hub, Logger: logger}
}

// Run listens until Close is called; it returns nil after Close.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.Logger.Printf("[feed] listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		_, _ = conn.Write(s.Hub.welcome("tcp"))
		s.Hub.Add(conn)
		s.Logger.Printf("[feed] client connected: %s", conn.RemoteAddr())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.Logger.Printf("[feed] client disconnected: %s", c.RemoteAddr())
			}()

			// subscribers only listen; drain anything they send
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
