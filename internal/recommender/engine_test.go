package recommender_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/scoutline/internal/analytics"
	"github.com/pitchside/scoutline/internal/models"
	"github.com/pitchside/scoutline/internal/recommender"
)

func trainedEngine(t *testing.T, rows []models.PlayerRecord) *recommender.Engine {
	t.Helper()
	engine := recommender.NewEngine(testLogger())
	engine.LoadTable(analytics.NewTable(rows))
	require.NoError(t, engine.Train(context.Background()))
	return engine
}

// Twelve synthetic players with every candidate feature column populated:
// five nearest neighbors of a reference player, none of them the reference,
// all scores in (0, 1], ordered by non-increasing similarity.
func TestRecommendSimilar_Basic(t *testing.T) {
	engine := trainedEngine(t, makeSquad(12))

	result, err := engine.RecommendSimilar(context.Background(), 1, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, result.PlayerID)
	require.Len(t, result.Recommendations, 5)

	for i, rec := range result.Recommendations {
		assert.NotEqual(t, 1, rec.Player.PlayerID, "reference player leaked into results")
		assert.Greater(t, rec.SimilarityScore, 0.0)
		assert.LessOrEqual(t, rec.SimilarityScore, 1.0)
		if i > 0 {
			previous := result.Recommendations[i-1]
			assert.LessOrEqual(t, rec.SimilarityScore, previous.SimilarityScore)
			assert.GreaterOrEqual(t, rec.Distance, previous.Distance)
		}
	}
}

func TestRecommendSimilar_DefaultCount(t *testing.T) {
	engine := trainedEngine(t, makeSquad(12))

	result, err := engine.RecommendSimilar(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Len(t, result.Recommendations, recommender.DefaultRecommendations)
}

func TestRecommendSimilar_LazyFit(t *testing.T) {
	engine := recommender.NewEngine(testLogger())
	engine.LoadTable(analytics.NewTable(makeSquad(10)))
	assert.Equal(t, recommender.StateUntrained, engine.State())

	result, err := engine.RecommendSimilar(context.Background(), 2, 4)
	require.NoError(t, err)
	assert.Len(t, result.Recommendations, 4)
	assert.Equal(t, recommender.StateTrained, engine.State())
}

func TestRecommendSimilar_NoDataSurfacesFitError(t *testing.T) {
	engine := recommender.NewEngine(testLogger())

	_, err := engine.RecommendSimilar(context.Background(), 1, 5)
	assert.ErrorIs(t, err, models.ErrEmptyInput)
	assert.Equal(t, recommender.StateUntrained, engine.State())
}

// A player id absent from the fitted table raises ErrPlayerNotFound and
// leaves the engine state untouched.
func TestRecommendSimilar_PlayerNotFound(t *testing.T) {
	engine := trainedEngine(t, makeSquad(8))

	_, err := engine.RecommendSimilar(context.Background(), 999, 5)
	assert.ErrorIs(t, err, models.ErrPlayerNotFound)
	assert.Equal(t, recommender.StateTrained, engine.State())
}

// A player with two stints occupies two rows; neither row of the reference
// player may appear among its own recommendations.
func TestRecommendSimilar_ExcludesAllStintsOfReference(t *testing.T) {
	rows := makeSquad(9)
	second := makePlayer(1, "Midfielder", 7.7)
	second.TeamName = "Loan Club"
	rows = append(rows, second)

	engine := trainedEngine(t, rows)

	result, err := engine.RecommendSimilar(context.Background(), 1, 8)
	require.NoError(t, err)
	for _, rec := range result.Recommendations {
		assert.NotEqual(t, 1, rec.Player.PlayerID)
	}
}

// Three defenders with tackles_total 40/55/70: a min_tackles_total of 50
// keeps exactly the 55 and 70 rows, sorted by rating descending.
func TestRecommendByCriteria_ThresholdsAndOrder(t *testing.T) {
	defenders := []models.PlayerRecord{
		makePlayer(1, "Defender", 7.0),
		makePlayer(2, "Defender", 6.8),
		makePlayer(3, "Defender", 7.4),
	}
	defenders[0].TacklesTotal = 40
	defenders[1].TacklesTotal = 55
	defenders[2].TacklesTotal = 70

	engine := recommender.NewEngine(testLogger())
	engine.LoadTable(analytics.NewTable(defenders))

	criteria, err := models.ParseCriteria(map[string]interface{}{
		"position":          "Defender",
		"min_tackles_total": 50.0,
	})
	require.NoError(t, err)

	players, err := engine.RecommendByCriteria(criteria, 5)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, 70.0, players[0].TacklesTotal) // rating 7.4
	assert.Equal(t, 55.0, players[1].TacklesTotal) // rating 6.8
}

func TestRecommendByCriteria_Properties(t *testing.T) {
	rows := makeSquad(20)
	for i := range rows {
		if i%2 == 0 {
			rows[i].Position = "Forward"
		}
	}
	engine := recommender.NewEngine(testLogger())
	engine.LoadTable(analytics.NewTable(rows))

	criteria, err := models.ParseCriteria(map[string]interface{}{
		"position":           "Forward",
		"min_minutes_played": 1200.0,
		"max_age":            30.0,
	})
	require.NoError(t, err)

	players, err := engine.RecommendByCriteria(criteria, 50)
	require.NoError(t, err)
	require.NotEmpty(t, players)

	for _, player := range players {
		assert.Equal(t, "Forward", player.Position)
		assert.GreaterOrEqual(t, player.MinutesPlayed, 1200.0)
		assert.LessOrEqual(t, player.Age, 30.0)
	}
}

// Bounds on columns the table does not know are ignored, not an error.
func TestRecommendByCriteria_UnknownColumnIgnored(t *testing.T) {
	engine := recommender.NewEngine(testLogger())
	engine.LoadTable(analytics.NewTable(makeSquad(6)))

	criteria, err := models.ParseCriteria(map[string]interface{}{
		"min_expected_goals": 1.5,
	})
	require.NoError(t, err)

	players, err := engine.RecommendByCriteria(criteria, 10)
	require.NoError(t, err)
	assert.Len(t, players, 6)
}

// Criteria mode needs loaded data but no trained model.
func TestRecommendByCriteria_WorksUntrained(t *testing.T) {
	engine := recommender.NewEngine(testLogger())
	engine.LoadTable(analytics.NewTable(makeSquad(5)))
	require.Equal(t, recommender.StateUntrained, engine.State())

	players, err := engine.RecommendByCriteria(models.Criteria{}, 3)
	require.NoError(t, err)
	assert.Len(t, players, 3)
	assert.Equal(t, recommender.StateUntrained, engine.State())
}

func TestRecommendByCriteria_NoData(t *testing.T) {
	engine := recommender.NewEngine(testLogger())

	_, err := engine.RecommendByCriteria(models.Criteria{}, 3)
	assert.ErrorIs(t, err, models.ErrEmptyInput)
}

// A table carrying only three of the candidate feature columns fails the
// fit with ErrInsufficientFeatures, and a previously trained snapshot keeps
// serving similarity queries.
func TestTrain_InsufficientFeaturesKeepsPriorSnapshot(t *testing.T) {
	engine := trainedEngine(t, makeSquad(10))

	sparse := analytics.NewTableWithColumns(makeSquad(10),
		[]string{"age", "rating", "goals_total", "position"})
	engine.LoadTable(sparse)

	err := engine.Train(context.Background())
	assert.ErrorIs(t, err, models.ErrInsufficientFeatures)
	assert.Equal(t, recommender.StateTrained, engine.State())

	// Prior snapshot still answers queries.
	result, err := engine.RecommendSimilar(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Len(t, result.Recommendations, 3)
}

func TestTrain_FailureWithoutPriorSnapshot(t *testing.T) {
	engine := recommender.NewEngine(testLogger())
	engine.LoadTable(analytics.NewTableWithColumns(makeSquad(4), []string{"age", "rating"}))

	err := engine.Train(context.Background())
	assert.ErrorIs(t, err, models.ErrInsufficientFeatures)
	assert.Equal(t, recommender.StateUntrained, engine.State())
}

func TestTrain_AssignsClusterLabels(t *testing.T) {
	engine := trainedEngine(t, makeSquad(12))

	players := engine.Players()
	require.Len(t, players, 12)
	for _, player := range players {
		require.NotNil(t, player.Cluster)
		assert.GreaterOrEqual(t, *player.Cluster, 0)
		assert.Less(t, *player.Cluster, 8)
	}
}

func TestTrain_ClusterLabelsDeterministic(t *testing.T) {
	rows := makeSquad(15)

	first := trainedEngine(t, rows)
	second := trainedEngine(t, rows)

	firstPlayers, secondPlayers := first.Players(), second.Players()
	for i := range firstPlayers {
		assert.Equal(t, *firstPlayers[i].Cluster, *secondPlayers[i].Cluster)
	}
}

func TestTrain_PublishesEvent(t *testing.T) {
	engine := recommender.NewEngine(testLogger())
	events := engine.Subscribe()
	engine.LoadTable(analytics.NewTable(makeSquad(10)))

	require.NoError(t, engine.Train(context.Background()))

	select {
	case event := <-events:
		assert.NotEmpty(t, event.TrainingID)
		assert.Equal(t, 10, event.Rows)
		assert.Empty(t, event.Error)
		assert.NotZero(t, event.CompletedAt)
	case <-time.After(time.Second):
		t.Fatal("no training event received")
	}
}

func TestTrain_PublishesFailureEvent(t *testing.T) {
	engine := recommender.NewEngine(testLogger())
	events := engine.Subscribe()

	require.Error(t, engine.Train(context.Background()))

	select {
	case event := <-events:
		assert.NotEmpty(t, event.Error)
	case <-time.After(time.Second):
		t.Fatal("no training event received")
	}
}

func TestPlayerByID(t *testing.T) {
	engine := recommender.NewEngine(testLogger())
	engine.LoadTable(analytics.NewTable(makeSquad(5)))

	player, err := engine.PlayerByID(3)
	require.NoError(t, err)
	assert.Equal(t, 3, player.PlayerID)

	_, err = engine.PlayerByID(42)
	assert.ErrorIs(t, err, models.ErrPlayerNotFound)
}

func TestTopPlayersByMetric(t *testing.T) {
	rows := makeSquad(6)
	engine := recommender.NewEngine(testLogger())
	engine.LoadTable(analytics.NewTable(rows))

	top, err := engine.TopPlayersByMetric("rating", 3, false)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.GreaterOrEqual(t, top[0].Rating, top[1].Rating)
	assert.GreaterOrEqual(t, top[1].Rating, top[2].Rating)

	_, err = engine.TopPlayersByMetric("bogus", 3, false)
	assert.ErrorIs(t, err, models.ErrUnknownMetric)
}
