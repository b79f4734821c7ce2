package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/scoutline/pkg/config"
)

func pageBody(page, total int, playerID int) string {
	return fmt.Sprintf(`{
		"paging": {"current": %d, "total": %d},
		"response": [{
			"player": {"id": %d, "name": "Test Player", "age": 27, "position": "Attacker"},
			"statistics": [{
				"team": {"id": 10, "name": "Test FC"},
				"games": {"appearences": 20, "minutes": 1800, "rating": "7.25"},
				"shots": {"total": 30, "on": 15}
			}]
		}]
	}`, page, total, playerID)
}

func testProvider(t *testing.T, handler http.HandlerFunc) (*FootballProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	provider := NewFootballProvider(&config.Config{
		FootballAPIKey:          "test-key",
		FootballAPISource:       "api-sports",
		ExternalAPITimeout:      5 * time.Second,
		CircuitBreakerThreshold: 5,
		MaxPlayerPages:          10,
	}, nil, log)
	provider.baseURL = server.URL
	return provider, server
}

func TestFetchPlayers_Pagination(t *testing.T) {
	var pagesServed int
	provider, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-apisports-key"))
		page := r.URL.Query().Get("page")
		pagesServed++
		switch page {
		case "1":
			fmt.Fprint(w, pageBody(1, 2, 100))
		case "2":
			fmt.Fprint(w, pageBody(2, 2, 200))
		default:
			t.Errorf("unexpected page %s", page)
		}
	})

	entries, err := provider.FetchPlayers(context.Background(), 39, 2023)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, pagesServed)

	assert.Equal(t, 100, entries[0].Player.ID)
	assert.Equal(t, 200, entries[1].Player.ID)

	// Quoted decimal ratings decode like plain numbers.
	games := entries[0].Statistics[0].Games
	require.NotNil(t, games.Rating)
	assert.InDelta(t, 7.25, float64(*games.Rating), 1e-9)
	require.NotNil(t, games.Appearances)
	assert.Equal(t, 20.0, float64(*games.Appearances))
}

func TestFetchPlayers_PageCap(t *testing.T) {
	provider, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageBody(1, 100, 1))
	})
	provider.maxPages = 3

	entries, err := provider.FetchPlayers(context.Background(), 39, 2023)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestFetchPlayers_UpstreamError(t *testing.T) {
	provider, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := provider.FetchPlayers(context.Background(), 39, 2023)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
