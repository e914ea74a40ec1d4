// ABOUTME: WebSocket control surface for the mix orchestrator
// ABOUTME: Handles handshake, transport/tempo commands, and status broadcast
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/LoopSync-Audio/loopsync-go/internal/mixer"
	"github.com/LoopSync-Audio/loopsync-go/internal/protocol"
	"github.com/LoopSync-Audio/loopsync-go/internal/version"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// ProtocolVersion is the control protocol revision.
	ProtocolVersion = 1

	// statusInterval is the status broadcast cadence. Controller-facing
	// polling stays strictly off the audio render path.
	statusInterval = 500 * time.Millisecond
)

// Config holds control server configuration.
type Config struct {
	ListenAddr string // host:port
	Name       string
}

// Server exposes the mixer over a WebSocket control endpoint.
type Server struct {
	config   Config
	serverID string
	mix      *mixer.Mixer

	upgrader   websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener

	clientsMu sync.Mutex
	clients   map[*client]struct{}

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// client is one connected controller.
type client struct {
	id   string
	name string
	conn *websocket.Conn
	send chan protocol.Message
}

// New creates a control server around the mixer.
func New(config Config, mix *mixer.Mixer) *Server {
	return &Server{
		config:   config,
		serverID: uuid.New().String(),
		mix:      mix,
		upgrader: websocket.Upgrader{
			// Local-network control surface; non-browser clients send no Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Start begins listening and serving controllers. Non-blocking; use Stop to
// shut down.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/loopsync", s.handleWebSocket)

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("control listen failed: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: mux}

	log.Printf("Control server listening on %s (ID: %s)", ln.Addr(), s.serverID)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != http.ErrServerClosed {
			log.Printf("Control server error: %v", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.broadcastLoop()
	}()

	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the control server down.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				log.Printf("Control server shutdown error: %v", err)
			}
		}
		s.wg.Wait()
	})
}

// broadcastLoop pushes mix snapshots to all controllers.
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.broadcast(s.statusMessage())
		}
	}
}

func (s *Server) statusMessage() protocol.Message {
	return protocol.Message{
		Type:    protocol.TypeStatusUpdate,
		Payload: s.mix.Snapshot(),
	}
}

func (s *Server) broadcast(msg protocol.Message) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("Dropping message to slow controller %s", c.name)
		}
	}
}

// handleWebSocket upgrades and manages one controller connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c, err := s.handshake(conn)
	if err != nil {
		log.Printf("Handshake failed from %s: %v", r.RemoteAddr, err)
		return
	}

	log.Printf("Controller connected: %s (%s)", c.name, r.RemoteAddr)

	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
		close(c.send)
		log.Printf("Controller disconnected: %s", c.name)
	}()

	go c.writeLoop()
	s.readLoop(c)
}

// handshake waits for client/hello and answers with server/hello.
func (s *Server) handshake(conn *websocket.Conn) (*client, error) {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse hello: %w", err)
	}
	if msg.Type != protocol.TypeClientHello {
		return nil, fmt.Errorf("expected %s, got %s", protocol.TypeClientHello, msg.Type)
	}

	var hello protocol.ClientHello
	payload, _ := json.Marshal(msg.Payload)
	if err := json.Unmarshal(payload, &hello); err != nil {
		return nil, fmt.Errorf("invalid hello payload: %w", err)
	}

	reply := protocol.Message{
		Type: protocol.TypeServerHello,
		Payload: protocol.ServerHello{
			ServerID:        s.serverID,
			Product:         version.Product,
			SoftwareVersion: version.Version,
			Version:         ProtocolVersion,
		},
	}
	if err := conn.WriteJSON(reply); err != nil {
		return nil, fmt.Errorf("failed to send server/hello: %w", err)
	}

	return &client{
		id:   hello.ClientID,
		name: hello.Name,
		conn: conn,
		send: make(chan protocol.Message, 16),
	}, nil
}

// readLoop routes commands from one controller.
func (s *Server) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Bad message from %s: %v", c.name, err)
			continue
		}

		s.handleCommand(c, msg)
	}
}

func (s *Server) handleCommand(c *client, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeTransportPlay:
		s.mix.PlayAll()
		c.reply(ack(msg.Type))

	case protocol.TypeTransportStop:
		s.mix.StopAll()
		c.reply(ack(msg.Type))

	case protocol.TypeTempoSet:
		var tempo protocol.TempoSet
		payload, _ := json.Marshal(msg.Payload)
		if err := json.Unmarshal(payload, &tempo); err != nil {
			c.reply(commandError(msg.Type, err))
			return
		}
		if err := s.mix.SetTempo(tempo.BPM); err != nil {
			c.reply(commandError(msg.Type, err))
			return
		}
		c.reply(ack(msg.Type))

	case protocol.TypeStatusGet:
		c.reply(s.statusMessage())

	default:
		log.Printf("Unknown command from %s: %s", c.name, msg.Type)
		c.reply(commandError(msg.Type, fmt.Errorf("unknown command")))
	}
}

func ack(command string) protocol.Message {
	return protocol.Message{
		Type:    protocol.TypeAck,
		Payload: protocol.Ack{Command: command},
	}
}

func commandError(command string, err error) protocol.Message {
	return protocol.Message{
		Type:    protocol.TypeError,
		Payload: protocol.Error{Command: command, Message: err.Error()},
	}
}

// reply queues a message without blocking the read loop.
func (c *client) reply(msg protocol.Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// writeLoop serializes all writes to the connection.
func (c *client) writeLoop() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
