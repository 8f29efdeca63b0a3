package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/TheRev45/IzziAutomationAIP/internal/database"
	"github.com/TheRev45/IzziAutomationAIP/internal/ingest"
	"github.com/TheRev45/IzziAutomationAIP/internal/runner"
	"github.com/TheRev45/IzziAutomationAIP/pkg/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the control and observability API over live runs.
type Server struct {
	router *gin.Engine
	repo   *database.Repository
	hub    *Hub
	port   string

	mu      sync.RWMutex
	runners map[string]*runner.Runner
}

// NewServer creates the API server.
func NewServer(repo *database.Repository, port string) *Server {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(config))

	server := &Server{
		router:  router,
		repo:    repo,
		hub:     NewHub(),
		port:    port,
		runners: make(map[string]*runner.Runner),
	}

	server.setupRoutes()
	return server
}

// Hub exposes the websocket hub so runs created outside the API can
// publish through it.
func (s *Server) Hub() *Hub { return s.hub }

// Register adds an externally created runner to the server's registry.
func (s *Server) Register(r *runner.Runner) {
	s.mu.Lock()
	s.runners[r.ID] = r
	s.mu.Unlock()
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")

	api.POST("/runs", s.createRun)
	api.GET("/runs", s.listRuns)
	api.GET("/runs/:id", s.getRun)

	api.POST("/runs/:id/pause", s.pauseRun)
	api.POST("/runs/:id/resume", s.resumeRun)
	api.POST("/runs/:id/reset", s.resetRun)
	api.PUT("/runs/:id/speed", s.setSpeed)

	api.GET("/runs/:id/snapshot", s.getSnapshot)
	api.GET("/runs/:id/snapshots", s.getSnapshotHistory)
	api.GET("/runs/:id/forecast", s.getForecast)
	api.POST("/runs/:id/forecast", s.requestForecast)
	api.GET("/runs/:id/tasks", s.getFinishedTasks)
	api.GET("/runs/:id/events", s.getEvents)
	api.GET("/runs/:id/ws", s.subscribe)

	api.GET("/health", s.healthCheck)
}

// Start starts the server.
func (s *Server) Start() error {
	return s.router.Run(":" + s.port)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now(),
	})
}

func (s *Server) lookup(c *gin.Context) *runner.Runner {
	s.mu.RLock()
	r, ok := s.runners[c.Param("id")]
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return nil
	}
	return r
}

func (s *Server) createRun(c *gin.Context) {
	// Defaults first, so a scenario without a config block validates,
	// matching how scenario files are loaded from disk.
	sc := ingest.Scenario{Config: config.Default()}
	if err := c.ShouldBindJSON(&sc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sc.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := runner.New(&sc, s.repo, s.hub)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.Register(r)
	r.Start()

	c.JSON(http.StatusCreated, gin.H{"id": r.ID, "status": r.Status()})
}

func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.repo.ListRuns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.repo.GetRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) pauseRun(c *gin.Context) {
	if r := s.lookup(c); r != nil {
		r.Pause()
		c.JSON(http.StatusOK, gin.H{"status": r.Status()})
	}
}

func (s *Server) resumeRun(c *gin.Context) {
	if r := s.lookup(c); r != nil {
		r.Resume()
		c.JSON(http.StatusOK, gin.H{"status": r.Status()})
	}
}

func (s *Server) resetRun(c *gin.Context) {
	r := s.lookup(c)
	if r == nil {
		return
	}
	if err := r.Reset(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": r.Status()})
}

func (s *Server) setSpeed(c *gin.Context) {
	r := s.lookup(c)
	if r == nil {
		return
	}
	var body struct {
		Multiplier float64 `json:"multiplier"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.SetSpeed(body.Multiplier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"multiplier": body.Multiplier})
}

func (s *Server) getSnapshot(c *gin.Context) {
	if r := s.lookup(c); r != nil {
		c.JSON(http.StatusOK, r.Snapshot())
	}
}

func (s *Server) getSnapshotHistory(c *gin.Context) {
	limit := 1000
	snaps, err := s.repo.GetSnapshots(c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snaps)
}

func (s *Server) getForecast(c *gin.Context) {
	r := s.lookup(c)
	if r == nil {
		return
	}
	latest := r.LatestForecast()
	if latest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No forecast available"})
		return
	}
	c.JSON(http.StatusOK, latest)
}

func (s *Server) requestForecast(c *gin.Context) {
	if r := s.lookup(c); r != nil {
		r.RequestForecast()
		c.JSON(http.StatusAccepted, gin.H{"status": "forecast started"})
	}
}

func (s *Server) getFinishedTasks(c *gin.Context) {
	records, err := s.repo.GetFinishedTasks(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getEvents(c *gin.Context) {
	lines, err := s.repo.GetEventLines(c.Param("id"), 500)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, lines)
}

func (s *Server) subscribe(c *gin.Context) {
	r := s.lookup(c)
	if r == nil {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.hub.Subscribe(r.ID, conn)
}
