// Package notify pushes feed events over UDP to subscribers that registered
// with a {"type":"register","client_id":"..."} datagram.
package notify

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"sync"
)

const RegisterMessageType = "register"

// ErrNotRunning is returned by BroadcastJSON before Run has bound the socket.
var ErrNotRunning = errors.New("notify server not running")

type RegisterMessage struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

type Client struct {
	ID   string
	Addr *net.UDPAddr
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds or re-points a subscriber.
func (r *Registry) Register(id string, addr *net.UDPAddr) {
	if id == "" || addr == nil {
		return
	}
	r.mu.Lock()
	r.clients[id] = Client{ID: id, Addr: addr}
	r.mu.Unlock()
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.clients, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

type Server struct {
	addr     string
	registry *Registry
	logger   *log.Logger

	mu   sync.Mutex
	conn *net.UDPConn
}

func NewServer(addr string, registry *Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{addr: addr, registry: registry, logger: logger}
}

// Run listens for registrations until Close is called.
func (s *Server) Run() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	return s.Serve(conn)
}

func (s *Server) Serve(conn *net.UDPConn) error {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()

	s.logger.Printf("[notify] UDP listening on %s", conn.LocalAddr())

	buffer := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			s.logger.Printf("[notify] invalid message from %s: %v", addr, err)
			continue
		}
		if msg.Type != RegisterMessageType {
			continue
		}
		s.registry.Register(msg.ClientID, addr)
		s.logger.Printf("[notify] registered %s (%s)", msg.ClientID, addr)
	}
}

// BroadcastJSON sends v to every registered subscriber. A subscriber that
// fails twice in a row is dropped.
func (s *Server) BroadcastJSON(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotRunning
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	for _, client := range s.registry.Snapshot() {
		s.sendWithRetry(conn, client, payload)
	}
	return nil
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Server) sendWithRetry(conn *net.UDPConn, client Client, payload []byte) {
	if _, err := conn.WriteToUDP(payload, client.Addr); err == nil {
		return
	}
	if _, err := conn.WriteToUDP(payload, client.Addr); err != nil {
		s.logger.Printf("[notify] drop %s at %s: %v", client.ID, client.Addr, err)
		s.registry.Remove(client.ID)
	}
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.ClientID == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}
