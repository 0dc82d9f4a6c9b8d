package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/renatond/dbi-replenishment/internal/cache"
	"github.com/renatond/dbi-replenishment/internal/engine"
	"github.com/renatond/dbi-replenishment/internal/repository/postgres"
	"github.com/renatond/dbi-replenishment/internal/service"
)

type RunHandler struct {
	svc   *service.RunService
	runs  postgres.RunRepository
	cache cache.RunSummaryCache
}

func NewRunHandler(svc *service.RunService, runs postgres.RunRepository, c cache.RunSummaryCache) *RunHandler {
	if c == nil {
		c = cache.NewNoopRunCache()
	}
	return &RunHandler{svc: svc, runs: runs, cache: c}
}

type triggerRunRequest struct {
	Location           string `json:"location" binding:"required"`
	DeriveBuildTargets bool   `json:"derive_build_targets"`
}

// TriggerRun executes a replenishment run and returns its summary.
func (h *RunHandler) TriggerRun(c *gin.Context) {
	var req triggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})
		return
	}

	out, err := h.svc.Execute(c.Request.Context(), service.RunRequest{
		Location:           req.Location,
		DeriveBuildTargets: req.DeriveBuildTargets,
	})
	if err != nil {
		var missing *engine.MissingColumnError
		if errors.As(err, &missing) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": missing.Error()})
			return
		}
		log.Error().Err(err).Str("location", req.Location).Msg("run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":   out.Run,
		"files": out.Files,
	})
}

// GetLatest returns the most recent completed run for a location, consulting
// the cache before the database.
func (h *RunHandler) GetLatest(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location query parameter is required"})
		return
	}

	if run, ok, err := h.cache.GetLatest(c.Request.Context(), location); err == nil && ok {
		c.JSON(http.StatusOK, run)
		return
	} else if err != nil {
		log.Warn().Err(err).Msg("run summary cache read failed")
	}

	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run history available"})
		return
	}

	run, err := h.runs.Latest(c.Request.Context(), location)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed runs for location"})
		return
	}

	if err := h.cache.SetLatest(c.Request.Context(), run); err != nil {
		log.Warn().Err(err).Msg("run summary cache write failed")
	}
	c.JSON(http.StatusOK, run)
}

// ListRuns returns run history, newest first.
func (h *RunHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusOK, []struct{}{})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.runs.List(c.Request.Context(), c.Query("location"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// GetRun returns one run by id.
func (h *RunHandler) GetRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run history available"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.runs.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}
