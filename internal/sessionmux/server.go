// Package sessionmux serves the per-session addressing surface: a
// client-chosen session identifier pins one specialist instance, a
// long-lived open request streams that instance's events, and short
// submit requests feed it messages. This is the stable-instance
// counterpart to the gateway's fresh-instance dispatch.
package sessionmux

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/gateway"
	"github.com/jmbish04/lightbulb-aquarium/internal/observability"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
)

// SessionHeader carries the caller-supplied session identifier.
const SessionHeader = "X-Session-ID"

// Server owns the session table and the HTTP surface.
type Server struct {
	logger   *slog.Logger
	registry *specialist.Registry
	router   *gin.Engine

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer builds the router. Allowed origins are echoed back on
// cross-origin requests; preflight requests get the no-op treatment
// from the CORS middleware. An empty origins list allows any caller.
func NewServer(registry *specialist.Registry, origins []string, logger *slog.Logger) *Server {
	observability.RegisterMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", SessionHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		corsCfg.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	s := &Server{
		logger:   logger,
		registry: registry,
		router:   r,
		sessions: make(map[string]*session),
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "specialists": registry.Names()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/specialists/:name/session", s.handleOpen)
	r.POST("/specialists/:name/session", s.handleSubmit)

	return s
}

// Router exposes the gin engine for serving and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// instanceKey derives the pinned instance name from the specialist and
// the caller's session identifier.
func instanceKey(name, sessionID string) string {
	return name + "-" + sessionID
}

// handleOpen creates the session and streams its downstream events as
// newline-delimited JSON until the client goes away.
func (s *Server) handleOpen(c *gin.Context) {
	name := c.Param("name")
	sessionID := c.GetHeader(SessionHeader)
	if sessionID == "" {
		s.fail(c, fault.New(fault.KindValidation, "%s header is required", SessionHeader))
		return
	}

	instance, err := s.registry.Resolve(name)
	if err != nil {
		s.fail(c, err)
		return
	}

	key := instanceKey(name, sessionID)

	s.mu.Lock()
	if _, exists := s.sessions[key]; exists {
		s.mu.Unlock()
		observability.RecordSessionOpen("conflict")
		s.fail(c, fault.New(fault.KindConflict, "session %q is already open", sessionID))
		return
	}
	sess := newSession(sessionID, instance)
	s.sessions[key] = sess
	s.mu.Unlock()

	observability.RecordSessionOpen("ok")
	observability.SessionStarted()
	s.logger.Info("session opened", "specialist", name, "session_id", sessionID)

	defer func() {
		sess.close()
		s.mu.Lock()
		delete(s.sessions, key)
		s.mu.Unlock()
		observability.SessionEnded()
		s.logger.Info("session closed", "specialist", name, "session_id", sessionID)
	}()

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	_ = enc.Encode(gateway.Event{Type: gateway.EventStatus, Specialist: name, Message: "session open"})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case ev := <-sess.downstream:
			if err := enc.Encode(ev); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// handleSubmit feeds one message into an existing session and returns
// the synchronous result.
func (s *Server) handleSubmit(c *gin.Context) {
	name := c.Param("name")
	sessionID := c.GetHeader(SessionHeader)
	if sessionID == "" {
		s.fail(c, fault.New(fault.KindValidation, "%s header is required", SessionHeader))
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[instanceKey(name, sessionID)]
	s.mu.Unlock()
	if !ok {
		s.fail(c, fault.New(fault.KindNotFound, "no open session %q for specialist %q", sessionID, name))
		return
	}

	var env gateway.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		s.fail(c, fault.Wrap(fault.KindValidation, err, "unparseable message body"))
		return
	}
	if env.Tool == "" {
		s.fail(c, fault.New(fault.KindValidation, "message requires a tool"))
		return
	}

	result, err := sess.invoke(c.Request.Context(), env)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"type": gateway.EventResult, "tool": env.Tool, "result": result})
}

// fail renders a tagged error with the status its kind implies.
func (s *Server) fail(c *gin.Context, err error) {
	kind := fault.KindOf(err)
	status := http.StatusBadGateway
	switch kind {
	case fault.KindValidation, fault.KindConfiguration:
		status = http.StatusBadRequest
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindConflict:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{
		"type":    gateway.EventError,
		"code":    string(kind),
		"message": err.Error(),
	})
}
