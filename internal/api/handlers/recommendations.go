package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/scoutline/internal/analytics"
	"github.com/pitchside/scoutline/internal/models"
	"github.com/pitchside/scoutline/internal/providers"
	"github.com/pitchside/scoutline/internal/recommender"
	"github.com/pitchside/scoutline/pkg/config"
)

// RecommendationHandler serves the similarity and criteria query modes and
// the data refresh endpoint.
type RecommendationHandler struct {
	engine    *recommender.Engine
	processor *analytics.Processor
	provider  *providers.FootballProvider
	config    *config.Config
	logger    *logrus.Logger
}

// NewRecommendationHandler creates a new recommendation handler.
func NewRecommendationHandler(
	engine *recommender.Engine,
	processor *analytics.Processor,
	provider *providers.FootballProvider,
	cfg *config.Config,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		engine:    engine,
		processor: processor,
		provider:  provider,
		config:    cfg,
		logger:    logger,
	}
}

// SimilarPlayers returns the players most similar to the given player.
func (h *RecommendationHandler) SimilarPlayers(c *gin.Context) {
	playerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player id"})
		return
	}
	count, _ := strconv.Atoi(c.DefaultQuery("count", "5"))

	result, err := h.engine.RecommendSimilar(c.Request.Context(), playerID, count)
	if err != nil {
		h.logger.WithError(err).WithField("player_id", playerID).Warn("Similarity query failed")
		respondEngineError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// criteriaRequest is the wire shape of a criteria-mode query. The criteria
// object carries an optional "position" plus min_<metric>/max_<metric> keys.
type criteriaRequest struct {
	Criteria map[string]interface{} `json:"criteria" binding:"required"`
	Count    int                    `json:"count"`
}

// ByCriteria returns players matching the supplied thresholds, ranked by
// rating.
func (h *RecommendationHandler) ByCriteria(c *gin.Context) {
	var request criteriaRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Warn("Invalid criteria request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	criteria, err := models.ParseCriteria(request.Criteria)
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	players, err := h.engine.RecommendByCriteria(criteria, request.Count)
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"players": players,
		"count":   len(players),
	})
}

// RefreshData fetches a fresh batch from the football API, loads it into the
// engine and kicks off a retrain. The retrain runs in the background; its
// completion is announced over the websocket hub.
func (h *RecommendationHandler) RefreshData(c *gin.Context) {
	league, _ := strconv.Atoi(c.DefaultQuery("league", strconv.Itoa(h.config.DefaultLeague)))
	season, _ := strconv.Atoi(c.DefaultQuery("season", strconv.Itoa(h.config.DefaultSeason)))

	h.logger.WithFields(logrus.Fields{
		"league": league,
		"season": season,
	}).Info("Refreshing player data")

	entries, err := h.provider.FetchPlayers(c.Request.Context(), league, season)
	if err != nil {
		h.logger.WithError(err).Error("Player data fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch player data", "details": err.Error()})
		return
	}

	table, err := h.processor.ProcessPlayers(entries)
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	h.engine.LoadTable(table)

	go func() {
		if err := h.engine.Train(context.Background()); err != nil {
			h.logger.WithError(err).Error("Background retrain failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status": "training",
		"league": league,
		"season": season,
		"rows":   table.Len(),
	})
}
