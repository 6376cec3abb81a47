// Package server exposes timer detection and control over HTTP for
// browser hosts, with a WebSocket push channel for state changes.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/extract"
	"github.com/kbenzar/stovewatch/internal/logger"
	"github.com/kbenzar/stovewatch/internal/timer"
)

// Server holds one aggregator per registered recipe.
type Server struct {
	log      *logger.Logger
	store    domain.KeyValueStore
	notifier domain.Notifier

	mu      sync.RWMutex
	recipes map[string]*recipeEntry
	baseCtx context.Context // server lifetime, owns aggregator loops
}

type recipeEntry struct {
	recipe domain.Recipe
	descs  []domain.TimerDescriptor
	agg    *timer.Aggregator
}

// New creates a server. store may be nil for memory-only operation;
// notifier may be nil to disable completion notifications.
func New(log *logger.Logger, store domain.KeyValueStore, notifier domain.Notifier) *Server {
	return &Server{
		log:      log,
		store:    store,
		notifier: notifier,
		recipes:  make(map[string]*recipeEntry),
		baseCtx:  context.Background(),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	{
		api.POST("/detect", s.detect)
		api.POST("/recipes", s.registerRecipe)
		api.GET("/recipes/:id/timers", s.listTimers)
		api.POST("/recipes/:id/timers/:tid/start", s.timerOp(opStart))
		api.POST("/recipes/:id/timers/:tid/pause", s.timerOp(opPause))
		api.POST("/recipes/:id/timers/:tid/reset", s.timerOp(opReset))
		api.GET("/recipes/:id/ws", s.wsTimers)
	}
	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.baseCtx = ctx
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

// entry returns the registered recipe entry for id.
func (s *Server) entry(id string) (*recipeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.recipes[id]
	return e, ok
}

// register detects timers for the recipe and builds its aggregator. The
// aggregator's background loop is bound to the server lifetime so
// completions fire even with no connected observer.
func (s *Server) register(r domain.Recipe) *recipeEntry {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	descs := extract.DetectRecipe(r)
	agg := timer.NewAggregator(s.baseCtx, r.ID, descs, s.log,
		timer.WithAggregatorStore(s.store),
		timer.WithAggregatorNotifier(s.notifier),
	)
	agg.Start(s.baseCtx)

	e := &recipeEntry{recipe: r, descs: descs, agg: agg}
	s.mu.Lock()
	if old, ok := s.recipes[r.ID]; ok {
		old.agg.Stop()
	}
	s.recipes[r.ID] = e
	s.mu.Unlock()

	s.log.Info("registered recipe %q (%d timers)", r.ID, len(descs))
	return e
}
