package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/delvekeep/server/internal/config"
	"github.com/lawnchairsociety/delvekeep/server/internal/database"
	"github.com/lawnchairsociety/delvekeep/server/internal/dungeon"
	"github.com/lawnchairsociety/delvekeep/server/internal/gametime"
	"github.com/lawnchairsociety/delvekeep/server/internal/help"
	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/metrics"
	"github.com/lawnchairsociety/delvekeep/server/internal/namefilter"
	"github.com/lawnchairsociety/delvekeep/server/internal/rival"
	"github.com/lawnchairsociety/delvekeep/server/internal/text"
)

// flagCache is implemented by story trackers that keep per-player flags
// in memory.
type flagCache interface {
	Load(ctx context.Context, playerID string) error
	Forget(playerID string)
}

type Server struct {
	cfg          config.ServerConfig
	accounts     AccountStore
	svc          dungeon.Services
	text         *text.Text
	help         *help.Help
	names        *namefilter.Filter
	clock        gametime.Clock
	connLimiter  *ConnLimiter
	loginLimiter *LoginRateLimiter

	mu       sync.RWMutex
	sessions map[string]*Session // keyed by player id
	clients  map[Client]struct{}

	listener     net.Listener
	httpServer   *http.Server
	wg           sync.WaitGroup
	shutdown     chan struct{}
	shutdownOnce sync.Once
	StartTime    time.Time
}

// NewServer creates a server. When svc has no Notifier, dungeon-wide
// notices are broadcast to every session.
func NewServer(cfg config.ServerConfig, accounts AccountStore, svc dungeon.Services) *Server {
	s := &Server{
		cfg:         cfg,
		accounts:    accounts,
		text:        text.Default(),
		help:        help.Default(),
		clock:       gametime.RealClock{},
		names:       namefilter.New(namefilter.Config{}, rival.Names()...),
		connLimiter: NewConnLimiter(cfg.Connections),
		sessions:    make(map[string]*Session),
		clients:     make(map[Client]struct{}),
		shutdown:    make(chan struct{}),
		StartTime:   time.Now(),
	}
	if svc.Notifier == nil {
		svc.Notifier = s
	}
	s.svc = svc
	s.loginLimiter = NewLoginRateLimiter(cfg.RateLimit, s.clock)
	return s
}

// SetText replaces the built-in welcome and notice text.
func (s *Server) SetText(t *text.Text) {
	s.text = t
}

// SetNameFilter replaces the filter applied to new account names. Rival
// names stay reserved.
func (s *Server) SetNameFilter(cfg namefilter.Config) {
	s.names = namefilter.New(cfg, rival.Names()...)
}

// SetHelp replaces the built-in help topics.
func (s *Server) SetHelp(h *help.Help) {
	s.help = h
}

// SetClock replaces the clock used for throttling and auto-save.
func (s *Server) SetClock(clock gametime.Clock) {
	s.clock = clock
	s.loginLimiter.Stop()
	s.loginLimiter = NewLoginRateLimiter(s.cfg.RateLimit, clock)
}

// Start listens on the configured telnet address and serves until
// Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.TelnetAddr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(listener)
}

// Serve accepts telnet connections on listener until Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logger.Info("Server listening", "address", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Error("Error accepting connection", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// Addr returns the telnet listener's address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	ip := extractIP(remoteAddr)

	if !s.connLimiter.TryAcquire(ip) {
		logger.Warning("Connection rejected - limit exceeded", "remote_addr", remoteAddr, "ip", ip)
		conn.Write([]byte("Too many connections. Please try again later.\r\n"))
		conn.Close()
		return
	}
	defer func() {
		s.connLimiter.Release(ip)
		conn.Close()
	}()

	s.handleClient(NewTelnetClient(conn))
}

// handleClient is the shared client handling logic for both telnet and WebSocket.
func (s *Server) handleClient(client Client) {
	logger.Info("Client connected", "remote_addr", client.RemoteAddr())
	if !s.track(client) {
		client.WriteLine(s.text.GetShutdownNotice() + "\n")
		return
	}
	defer s.untrack(client)

	account, err := s.handleAuth(client)
	if err != nil {
		logger.Info("Authentication failed", "remote_addr", client.RemoteAddr(), "error", err)
		return
	}

	se, err := newSession(s, client, account)
	if err != nil {
		logger.Error("Failed to create session", "account", account.Username, "error", err)
		client.WriteLine("The dungeon is not accepting visitors right now.\n")
		return
	}
	if !s.register(se) {
		client.WriteLine("That account is already in the dungeon.\n")
		return
	}

	ctx := context.Background()
	if fc, ok := s.svc.Story.(flagCache); ok {
		if err := fc.Load(ctx, se.playerID); err != nil {
			logger.Warning("Story flags unavailable at login", "player", se.playerID, "error", err)
		}
	}

	defer func() {
		se.close(ctx)
		s.unregister(se)
		if fc, ok := s.svc.Story.(flagCache); ok {
			fc.Forget(se.playerID)
		}
		s.BroadcastToAll(s.text.GetLeftNotice(se.Name()), se.playerID)
		logger.Info("Client disconnected", "player", se.playerID)
	}()

	s.BroadcastToAll(s.text.GetJoinedNotice(se.Name()), se.playerID)
	if err := se.run(ctx); err != nil {
		logger.Error("Session ended with an error", "player", se.playerID, "error", err)
	}
}

// track records a connected client. It fails once shutdown has begun.
func (s *Server) track(client Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.shutdown:
		return false
	default:
	}
	s.clients[client] = struct{}{}
	return true
}

func (s *Server) untrack(client Client) {
	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()
}

func (s *Server) register(se *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[se.playerID]; ok {
		return false
	}
	s.sessions[se.playerID] = se
	metrics.SessionsActive.Inc()
	return true
}

func (s *Server) unregister(se *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[se.playerID] == se {
		delete(s.sessions, se.playerID)
		metrics.SessionsActive.Dec()
	}
}

// WebSocketHandler returns the handler that upgrades /ws requests.
func (s *Server) WebSocketHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	return mux
}

// StartWebSocket serves WebSocket clients on the configured address
// until Shutdown.
func (s *Server) StartWebSocket() error {
	srv := &http.Server{
		Addr:              s.cfg.WebSocketAddr,
		Handler:           s.WebSocketHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	logger.Info("WebSocket server listening", "address", s.cfg.WebSocketAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleWebSocketUpgrade upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	if !s.connLimiter.TryAcquire(ip) {
		logger.Warning("WebSocket connection rejected - limit exceeded", "remote_addr", r.RemoteAddr, "client_ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(ip)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.connLimiter.Release(ip)
			wsConn.Close()
		}()
		s.handleClient(NewWebSocketClient(wsConn, s.cfg.WebSocket.MaxMessageSize))
	}()
}

// Notify broadcasts a dungeon-wide notice to every session.
func (s *Server) Notify(message string) {
	s.BroadcastToAll(message, "")
}

// BroadcastToAll sends message to every session except the player
// excludeID.
func (s *Server) BroadcastToAll(message, excludeID string) {
	for _, se := range s.snapshotSessions() {
		if se.playerID != excludeID {
			se.write(message)
		}
	}
}

func (s *Server) snapshotSessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, se := range s.sessions {
		out = append(out, se)
	}
	return out
}

// OnlinePlayers returns the names of everyone in the dungeon, sorted.
func (s *Server) OnlinePlayers() []string {
	sessions := s.snapshotSessions()
	names := make([]string, 0, len(sessions))
	for _, se := range sessions {
		names = append(names, se.Name())
	}
	sort.Strings(names)
	return names
}

// FindSession returns the session for name, ignoring case.
func (s *Server) FindSession(name string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[strings.ToLower(strings.TrimSpace(name))]
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// HealthHandler reports uptime and the number of players in the dungeon.
func (s *Server) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		players := len(s.sessions)
		s.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status": "ok", "uptime_seconds": %d, "players": %d}`, int64(s.Uptime().Seconds()), players)
	})
}

// Shutdown stops accepting connections, tells every player, closes their
// connections and waits for their sessions to save. It is safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		listener, httpServer := s.listener, s.httpServer
		s.mu.RUnlock()
		if listener != nil {
			listener.Close()
		}
		if httpServer != nil {
			if shutdownErr := httpServer.Shutdown(ctx); shutdownErr != nil {
				logger.Warning("WebSocket server shutdown", "error", shutdownErr)
			}
		}
		s.loginLimiter.Stop()

		s.mu.Lock()
		clients := make([]Client, 0, len(s.clients))
		for c := range s.clients {
			clients = append(clients, c)
		}
		close(s.shutdown)
		s.mu.Unlock()
		for _, c := range clients {
			c.WriteLine("\n" + s.text.GetShutdownNotice() + "\n")
			c.Close()
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			logger.Info("Server shutdown complete, all players saved")
		case <-ctx.Done():
			err = ctx.Err()
			logger.Error("Server shutdown timed out", "error", err)
		}
	})
	return err
}

var (
	_ dungeon.Notifier = (*Server)(nil)
	_ AccountStore     = (*database.Database)(nil)
)
