package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pitchside/scoutline/internal/models"
	"github.com/pitchside/scoutline/pkg/cache"
	"github.com/pitchside/scoutline/pkg/config"
)

// FootballProvider fetches nested player statistics from the football API
// (api-sports directly or via rapidapi). Responses are cached in redis and
// calls are wrapped in a circuit breaker; the provider performs no analytics
// of its own.
type FootballProvider struct {
	httpClient *http.Client
	cache      *cache.Service
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
	apiKey     string
	baseURL    string
	headers    map[string]string
	cacheTTL   time.Duration
	maxPages   int
}

// playersResponse mirrors the /players endpoint envelope.
type playersResponse struct {
	Response []models.RawPlayerEntry `json:"response"`
	Paging   struct {
		Current int `json:"current"`
		Total   int `json:"total"`
	} `json:"paging"`
}

// NewFootballProvider creates a football API client. cacheService may be nil
// when no redis is configured; fetches then always hit the API.
func NewFootballProvider(cfg *config.Config, cacheService *cache.Service, logger *logrus.Logger) *FootballProvider {
	p := &FootballProvider{
		httpClient: &http.Client{Timeout: cfg.ExternalAPITimeout},
		cache:      cacheService,
		logger:     logger,
		apiKey:     cfg.FootballAPIKey,
		cacheTTL:   cfg.ProviderCacheTTL,
		maxPages:   cfg.MaxPlayerPages,
	}

	if cfg.FootballAPISource == "rapidapi" {
		p.baseURL = "https://api-football-v1.p.rapidapi.com/v3"
		p.headers = map[string]string{
			"x-rapidapi-key":  cfg.FootballAPIKey,
			"x-rapidapi-host": "api-football-v1.p.rapidapi.com",
		}
	} else {
		p.baseURL = "https://v3.football.api-sports.io"
		p.headers = map[string]string{
			"x-apisports-key": cfg.FootballAPIKey,
		}
	}

	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "football-api",
		MaxRequests: uint32(cfg.CircuitBreakerThreshold),
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	})

	return p
}

// FetchPlayers retrieves all player statistics for a league and season,
// following pagination up to the configured page cap.
func (p *FootballProvider) FetchPlayers(ctx context.Context, league, season int) ([]models.RawPlayerEntry, error) {
	var entries []models.RawPlayerEntry

	page := 1
	for {
		resp, err := p.fetchPlayersPage(ctx, league, season, page)
		if err != nil {
			return nil, err
		}
		entries = append(entries, resp.Response...)

		if resp.Paging.Total <= page || page >= p.maxPages {
			break
		}
		page++
	}

	p.logger.WithFields(logrus.Fields{
		"league":  league,
		"season":  season,
		"entries": len(entries),
	}).Info("Fetched player data")

	return entries, nil
}

func (p *FootballProvider) fetchPlayersPage(ctx context.Context, league, season, page int) (*playersResponse, error) {
	cacheKey := ""
	if p.cache != nil {
		cacheKey = p.cache.BuildKey("players",
			strconv.Itoa(league), strconv.Itoa(season), strconv.Itoa(page))
		var cached playersResponse
		if err := p.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	url := fmt.Sprintf("%s/players?league=%d&season=%d&page=%d", p.baseURL, league, season, page)
	body, err := p.breaker.Execute(func() (interface{}, error) {
		return p.doRequest(ctx, url)
	})
	if err != nil {
		return nil, fmt.Errorf("football api request failed: %w", err)
	}

	var resp playersResponse
	if err := json.Unmarshal(body.([]byte), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode football api response: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, cacheKey, &resp, p.cacheTTL); err != nil {
			p.logger.WithError(err).Warn("Failed to cache player response")
		}
	}

	return &resp, nil
}

func (p *FootballProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range p.headers {
		req.Header.Set(key, value)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("football api returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// BreakerState returns the circuit breaker state for health reporting.
func (p *FootballProvider) BreakerState() gobreaker.State {
	return p.breaker.State()
}
