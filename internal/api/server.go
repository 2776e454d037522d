package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/otc-triage-server/internal/domain"
	"github.com/otc-triage-server/internal/paraphrase"
	"github.com/otc-triage-server/internal/service"
	"github.com/otc-triage-server/internal/session"
)

// Server is the HTTP front end over the triage engine.
type Server struct {
	cfg        domain.ServerConfig
	logger     *logrus.Logger
	triage     *service.Triage
	sessions   *session.Manager
	paraphrase *paraphrase.Client
	router     *gin.Engine
	server     *http.Server
}

// NewServer creates the HTTP server and wires its routes.
func NewServer(cfg *domain.Config, logger *logrus.Logger, triage *service.Triage, sessions *session.Manager, pp *paraphrase.Client) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())

	s := &Server{
		cfg:        cfg.Server,
		logger:     logger,
		triage:     triage,
		sessions:   sessions,
		paraphrase: pp,
		router:     router,
	}
	s.setupRoutes()
	return s
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/conditions", s.handleConditions)
		v1.POST("/sessions", s.handleCreateSession)
		v1.POST("/sessions/:id/messages", s.handleMessage)
		v1.POST("/evaluate", s.handleEvaluate)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"sessions":  s.sessions.Len(),
	})
}

func (s *Server) handleConditions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"conditions": s.triage.ConditionNames()})
}

// handleCreateSession opens a conversation and returns the greeting turn.
func (s *Server) handleCreateSession(c *gin.Context) {
	entry := s.sessions.Create()
	entry.Lock()
	defer entry.Unlock()

	turn := s.triage.Greeting(entry.State)
	c.JSON(http.StatusCreated, gin.H{
		"session_id": entry.State.ID,
		"turn":       turn,
	})
}

type messageRequest struct {
	Text string `json:"text"`
}

// handleMessage feeds one user turn into an existing conversation.
func (s *Server) handleMessage(c *gin.Context) {
	id := c.Param("id")
	entry, ok := s.sessions.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "SESSION_NOT_FOUND", "message": "unknown or expired session"},
		})
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": domain.ErrInvalidInput, "message": "invalid request body"},
		})
		return
	}

	entry.Lock()
	turn := s.triage.Advance(entry.State, req.Text)
	entry.Unlock()
	s.sessions.Touch(id)

	resp := gin.H{"session_id": id, "turn": turn}
	if turn.Done && turn.Recommendation != nil && c.Query("paraphrase") == "true" {
		if text, err := s.paraphrase.Rewrite(c.Request.Context(), turn.Recommendation); err == nil {
			resp["summary"] = text
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleEvaluate runs the stateless decision path over a complete payload.
func (s *Server) handleEvaluate(c *gin.Context) {
	var payload domain.EvaluatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": domain.ErrInvalidInput, "message": "invalid request body"},
		})
		return
	}

	rec, err := s.triage.Evaluate(payload)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := gin.H{"recommendation": rec}
	if c.Query("paraphrase") == "true" {
		if text, perr := s.paraphrase.Rewrite(c.Request.Context(), rec); perr == nil {
			resp["summary"] = text
		}
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	code := domain.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case domain.ErrInvalidInput:
		status = http.StatusBadRequest
	case domain.ErrUnknownCondition:
		status = http.StatusUnprocessableEntity
	case domain.ErrDatasetUnavailable:
		status = http.StatusServiceUnavailable
	case domain.ErrNotConfigured:
		status = http.StatusNotImplemented
	case domain.ErrProviderError:
		status = http.StatusBadGateway
	}

	s.logger.WithFields(logrus.Fields{
		"code":   code,
		"status": status,
	}).WithError(err).Warn("Request failed")

	c.JSON(status, gin.H{
		"error": gin.H{"code": code, "message": err.Error()},
	})
}

// corsMiddleware adds CORS headers to responses.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware adds a unique request ID to each request.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
