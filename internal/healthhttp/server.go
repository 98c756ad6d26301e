// Package healthhttp exposes the gateway's operability surface: liveness,
// worker pool metrics, and a runtime log-level endpoint. It is not part
// of the CRUD/event-sourcing domain surface, just how an operator
// observes the process.
package healthhttp

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/makkalot/eskit/internal/pkg/logger"
	"github.com/makkalot/eskit/internal/pkg/worker"
)

// Server serves the health/metrics/log-level HTTP surface.
type Server struct {
	engine *gin.Engine
	pools  *worker.Pools
}

// New builds the health HTTP server, wired to pools for metrics.
func New(pools *worker.Pools) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	s := &Server{engine: engine, pools: pools}

	engine.GET("/healthz", s.getHealthz)
	engine.GET("/metrics/pools", s.getPoolMetrics)
	engine.GET("/log/level", s.getLogLevel)
	engine.PUT("/log/level", s.putLogLevel)

	return s
}

// Handler returns the http.Handler to mount the server under.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) getHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getPoolMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.pools.Metrics())
}

func (s *Server) getLogLevel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"level": logger.GetLevel().String()})
}

type logLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

func (s *Server) putLogLevel(c *gin.Context) {
	var req logLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := logger.SetLevel(req.Level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"level": logger.GetLevel().String()})
}
