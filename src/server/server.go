package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"example.com/average-calculator/src/category"
	"example.com/average-calculator/src/flow"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	engine  *gin.Engine
	handler *flow.Handler
}

type errorResponse struct {
	Detail   string `json:"detail"`
	Accepted string `json:"accepted"`
}

// New builds the router. metrics is mounted at /metrics when not nil.
func New(handler *flow.Handler, metrics http.Handler) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), request_logger())

	s := &Server{
		engine:  r,
		handler: handler,
	}

	r.GET("/", s.health)
	r.GET("/numbers/:category", s.numbers)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Average Calculator API is running",
		"status":  "OK",
	})
}

func (s *Server) numbers(c *gin.Context) {
	cat, err := category.Parse(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Detail:   err.Error(),
			Accepted: category.Accepted(),
		})
		return
	}

	logrus.Infof("server.numbers: got request for %s", cat.Name())
	c.JSON(http.StatusOK, s.handler.Handle(c.Request.Context(), cat))
}

// Run serves on address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:    address,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("server listening on %s", address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	logrus.Infof("server stopped")
	return nil
}

func request_logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}
