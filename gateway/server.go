package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/topiclens/dispatch"
	"github.com/c360/topiclens/errors"
	"github.com/c360/topiclens/metric"
)

const (
	defaultMessageLimit = 50
	snapshotInterval    = time.Second
	writeTimeout        = 10 * time.Second
	shutdownGracePeriod = 5 * time.Second
	wsWriteDeadline     = 5 * time.Second
)

// Server is the HTTP and WebSocket surface over the dispatcher.
type Server struct {
	addr       string
	dispatcher *dispatch.Dispatcher
	registry   *metric.Registry
	logger     *slog.Logger

	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}

	httpServer *http.Server
}

// NewServer wires the API surface. Listening starts with Start.
func NewServer(addr string, d *dispatch.Dispatcher, reg *metric.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:       addr,
		dispatcher: d,
		registry:   reg,
		logger:     logger.With("component", "gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		WriteTimeout: writeTimeout,
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(
		s.registry.PrometheusRegistry(),
		promhttp.HandlerOpts{},
	))
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/topics", s.handleTopics)
	mux.HandleFunc("GET /api/messages", s.handleMessages)
	mux.HandleFunc("GET /api/devices", s.handleDevices)
	mux.HandleFunc("GET /api/metrics", s.handleMetricsList)
	mux.HandleFunc("POST /api/metrics", s.handleMetricsTrack)
	mux.HandleFunc("DELETE /api/metrics/{label}", s.handleMetricsUntrack)
	mux.HandleFunc("GET /api/fields", s.handleFields)
	mux.HandleFunc("GET /api/schema/changes", s.handleSchemaChanges)
	mux.HandleFunc("GET /api/schema", s.handleSchema)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// Start serves until the context ends, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.broadcastLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.WrapTransient(err, "Server", "Start", "serve http")
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	s.closeClients()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.WrapTransient(err, "Server", "Start", "shutdown http server")
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	agg := s.dispatcher.Monitor().AggregateHealth("topiclens")
	code := http.StatusOK
	if agg.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, agg)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dispatcher.Snapshot())
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	// An empty query matches every topic path.
	q := r.URL.Query().Get("q")
	s.writeJSON(w, http.StatusOK, map[string]any{"topics": s.dispatcher.SearchTopics(q)})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	limit := defaultMessageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	if topic != "" {
		msgs := s.dispatcher.Messages(topic)
		if len(msgs) > limit {
			msgs = msgs[:limit]
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": s.dispatcher.RecentMessages(limit)})
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"devices": s.dispatcher.Devices()})
}

func (s *Server) handleMetricsList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"metrics": s.dispatcher.Snapshot().TrackedMetrics,
	})
}

type trackRequest struct {
	Label        string `json:"label"`
	TopicPattern string `json:"topic_pattern"`
	FieldPath    string `json:"field_path"`
}

func (s *Server) handleMetricsTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Label == "" || req.TopicPattern == "" || req.FieldPath == "" {
		s.writeError(w, http.StatusBadRequest, "label, topic_pattern and field_path are required")
		return
	}
	s.dispatcher.TrackMetric(req.Label, req.TopicPattern, req.FieldPath)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleMetricsUntrack(w http.ResponseWriter, r *http.Request) {
	s.dispatcher.UntrackMetric(r.PathValue("label"))
	w.WriteHeader(http.StatusNoContent)
}

type fieldEntry struct {
	Path  string  `json:"path"`
	Value float64 `json:"value"`
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		s.writeError(w, http.StatusBadRequest, "topic query parameter is required")
		return
	}
	discovered, ok := s.dispatcher.NumericFields(topic)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no messages recorded for topic")
		return
	}
	fields := make([]fieldEntry, 0, len(discovered))
	for _, f := range discovered {
		fields = append(fields, fieldEntry{Path: f.Path, Value: f.Value})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"topic": topic, "fields": fields})
}

func (s *Server) handleSchemaChanges(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"changes": s.dispatcher.SchemaChanges()})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		s.writeError(w, http.StatusBadRequest, "topic query parameter is required")
		return
	}
	fields, ok := s.dispatcher.TopicSchema(topic)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no schema recorded for topic")
		return
	}
	named := make(map[string]string, len(fields))
	for path, t := range fields {
		named[path] = t.String()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"topic": topic, "fields": named})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("websocket client connected", "clients", count)

	// Reads are discarded; the read loop only notices disconnects.
	go func() {
		defer s.dropClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

// broadcastLoop pushes a snapshot to every client once a second.
func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcastSnapshot()
		}
	}
}

func (s *Server) broadcastSnapshot() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(s.dispatcher.Snapshot())
	if err != nil {
		s.logger.Error("snapshot marshal failed", "error", err)
		return
	}
	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.dropClient(conn)
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}
