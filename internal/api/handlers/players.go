package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/scoutline/internal/models"
	"github.com/pitchside/scoutline/internal/recommender"
)

// PlayerHandler serves the enriched player table.
type PlayerHandler struct {
	engine *recommender.Engine
	logger *logrus.Logger
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(engine *recommender.Engine, logger *logrus.Logger) *PlayerHandler {
	return &PlayerHandler{engine: engine, logger: logger}
}

// ListPlayers returns all player rows, optionally filtered by exact position.
func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	position := c.Query("position")

	var players []models.PlayerRecord
	if position != "" {
		players = h.engine.PlayersByPosition(position)
	} else {
		players = h.engine.Players()
	}

	c.JSON(http.StatusOK, gin.H{
		"players": players,
		"count":   len(players),
	})
}

// GetPlayer returns a single player row by id.
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	playerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player id"})
		return
	}

	player, err := h.engine.PlayerByID(playerID)
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, player)
}

// TopPlayers returns the players ranked by a metric column.
func (h *PlayerHandler) TopPlayers(c *gin.Context) {
	metric := c.Query("metric")
	if metric == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing metric parameter"})
		return
	}
	count, _ := strconv.Atoi(c.DefaultQuery("count", "10"))
	ascending := c.Query("ascending") == "true"

	players, err := h.engine.TopPlayersByMetric(metric, count, ascending)
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metric":  metric,
		"players": players,
		"count":   len(players),
	})
}

// respondEngineError maps the engine's typed errors to HTTP statuses.
func respondEngineError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrPlayerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnknownMetric), errors.Is(err, models.ErrInvalidCriteria):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientFeatures):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrEmptyInput), errors.Is(err, models.ErrUntrainedModel):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.WithError(err).Error("Unexpected engine error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
