package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/extract"
	"github.com/kbenzar/stovewatch/internal/timer"
)

// detectRequest is the payload for ad-hoc detection without registration.
type detectRequest struct {
	Steps           []string `json:"steps" binding:"required"`
	CookTimeMinutes int      `json:"cookTimeMinutes"`
}

func (s *Server) detect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	descs := extract.DetectRecipe(domain.Recipe{
		Steps:           req.Steps,
		CookTimeMinutes: req.CookTimeMinutes,
	})
	if descs == nil {
		descs = []domain.TimerDescriptor{}
	}
	c.JSON(http.StatusOK, gin.H{"timers": descs})
}

func (s *Server) registerRecipe(c *gin.Context) {
	var r domain.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(r.Steps) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipe has no steps"})
		return
	}

	e := s.register(r)
	c.JSON(http.StatusCreated, gin.H{
		"recipeId": e.recipe.ID,
		"timers":   e.descs,
	})
}

func (s *Server) listTimers(c *gin.Context) {
	e, ok := s.entry(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not registered"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timers":         e.agg.TickAll(c.Request.Context()),
		"runningCount":   e.agg.RunningCount(),
		"completedCount": e.agg.CompletedCount(),
	})
}

type timerOperation int

const (
	opStart timerOperation = iota
	opPause
	opReset
)

// timerOp builds a handler applying one state-machine operation to a
// single timer.
func (s *Server) timerOp(op timerOperation) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := s.entry(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not registered"})
			return
		}
		rt, ok := e.agg.Timer(c.Param("tid"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrTimerNotFound.Error()})
			return
		}

		var err error
		ctx := c.Request.Context()
		switch op {
		case opStart:
			err = rt.Start(ctx)
		case opPause:
			err = rt.Pause(ctx)
		case opReset:
			rt.Reset(ctx)
		}
		if errors.Is(err, domain.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "phase": rt.Phase().String()})
			return
		}

		c.JSON(http.StatusOK, snapshot(ctx, rt))
	}
}

func snapshot(ctx context.Context, rt *timer.Runtime) domain.StateChange {
	return rt.Observe(ctx)
}
