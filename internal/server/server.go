// Package server exposes the query engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finquery-engine/internal/common/config"
	stderrors "finquery-engine/internal/common/errors"
	"finquery-engine/internal/common/logger"
	"finquery-engine/internal/common/observability"
	"finquery-engine/internal/engine/memory"
)

// QueryEngine is the engine surface the HTTP layer needs.
type QueryEngine interface {
	AnswerQuestion(ctx context.Context, question, userID string) (string, error)
	ClearConversation(userID string)
	History(userID string) []memory.Message
}

// Server wraps the gin router and the underlying http.Server.
type Server struct {
	engine QueryEngine
	obs    *observability.Observability
	logger logger.Logger
	router *gin.Engine
	srv    *http.Server
}

// New builds the server. obs may be nil, in which case only the prometheus
// metrics are recorded.
func New(cfg config.ServerConfig, eng QueryEngine, obs *observability.Observability, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine: eng,
		obs:    obs,
		logger: log,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.POST("/query", s.handleQuery)
	v1.GET("/conversations/:userID", s.handleHistory)
	v1.DELETE("/conversations/:userID", s.handleClear)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"addr": s.srv.Addr})
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		s.logger.Info("request handled", map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		})
	}
}

// QueryRequest is the API request body for POST /api/v1/query.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
}

// QueryResponse is the API response body for a successful query.
type QueryResponse struct {
	Answer    string `json:"answer"`
	RequestID string `json:"request_id"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and user_id are required"})
		return
	}

	start := time.Now()
	answer, err := s.engine.AnswerQuestion(c.Request.Context(), req.Question, req.UserID)
	if s.obs != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.obs.RecordQuestionProcessed(c.Request.Context(), status)
		s.obs.RecordQuestionDuration(c.Request.Context(), time.Since(start), status)
	}
	if err != nil {
		status := http.StatusInternalServerError
		message := "unable to process your request"
		if stdErr, ok := err.(*stderrors.StandardError); ok && stdErr.Code == stderrors.ErrCodeInvalidQuestion {
			status = http.StatusBadRequest
			message = "question text is invalid"
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, QueryResponse{
		Answer:    answer,
		RequestID: c.GetString("request_id"),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	history := s.engine.History(c.Param("userID"))
	if history == nil {
		history = []memory.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": history})
}

func (s *Server) handleClear(c *gin.Context) {
	s.engine.ClearConversation(c.Param("userID"))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
