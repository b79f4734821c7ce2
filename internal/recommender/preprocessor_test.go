package recommender_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pitchside/scoutline/internal/analytics"
	"github.com/pitchside/scoutline/internal/models"
	"github.com/pitchside/scoutline/internal/recommender"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return log
}

// makePlayer builds a synthetic player row with all candidate feature
// columns populated and values that vary by id.
func makePlayer(id int, position string, rating float64) models.PlayerRecord {
	f := float64(id)
	return models.PlayerRecord{
		PlayerID:             id,
		Name:                 fmt.Sprintf("Player %d", id),
		Position:             position,
		Age:                  20 + math.Mod(f, 15),
		Appearances:          10 + math.Mod(f, 25),
		MinutesPlayed:        900 + 90*f,
		Rating:               rating,
		ShotsTotal:           10 + 2*f,
		ShotsOnTarget:        5 + f,
		GoalsTotal:           3 + math.Mod(f, 7),
		Assists:              2 + math.Mod(f, 5),
		PassesTotal:          500 + 30*f,
		PassesAccuracy:       70 + math.Mod(f, 20),
		TacklesTotal:         20 + 3*f,
		TacklesBlocks:        2 + math.Mod(f, 6),
		TacklesInterceptions: 10 + math.Mod(2*f, 30),
		DuelsTotal:           100 + 10*f,
		DuelsWon:             50 + 6*f,
	}
}

func makeSquad(n int) []models.PlayerRecord {
	rows := make([]models.PlayerRecord, n)
	for i := 0; i < n; i++ {
		rows[i] = makePlayer(i+1, "Midfielder", 6.0+0.1*float64(i))
	}
	return rows
}

func TestPreprocessorFit_InsufficientFeatures(t *testing.T) {
	table := analytics.NewTableWithColumns(makeSquad(6),
		[]string{"age", "rating", "goals_total", "position"})

	_, _, err := recommender.NewPreprocessor(testLogger()).Fit(table)
	assert.ErrorIs(t, err, models.ErrInsufficientFeatures)
}

func TestPreprocessorFit_EmptyTable(t *testing.T) {
	_, _, err := recommender.NewPreprocessor(testLogger()).Fit(analytics.NewTable(nil))
	assert.ErrorIs(t, err, models.ErrEmptyInput)
}

func TestPreprocessorFit_Standardizes(t *testing.T) {
	table := analytics.NewTable(makeSquad(10))

	matrix, state, err := recommender.NewPreprocessor(testLogger()).Fit(table)
	require.NoError(t, err)
	require.NotNil(t, state)

	rows, cols := matrix.Dims()
	assert.Equal(t, table.Len(), rows)
	assert.Equal(t, len(recommender.FeatureColumns), cols)
	assert.Equal(t, recommender.FeatureColumns, state.Features)

	// Each standardized column is centered on zero.
	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += matrix.At(i, j)
		}
		assert.InDeltaf(t, 0, sum/float64(rows), 1e-9, "column %d not centered", j)
	}
}

func TestPreprocessorFit_Deterministic(t *testing.T) {
	table := analytics.NewTable(makeSquad(8))
	preprocessor := recommender.NewPreprocessor(testLogger())

	first, firstState, err := preprocessor.Fit(table)
	require.NoError(t, err)
	second, secondState, err := preprocessor.Fit(table)
	require.NoError(t, err)

	assert.True(t, mat.Equal(first, second), "refit on unchanged data changed the matrix")
	assert.Equal(t, firstState, secondState)
}

func TestStandardizationState_TransformMatchesTraining(t *testing.T) {
	table := analytics.NewTable(makeSquad(7))

	matrix, state, err := recommender.NewPreprocessor(testLogger()).Fit(table)
	require.NoError(t, err)

	// Transforming a training row with the stored state must reproduce its
	// matrix row exactly; that is what keeps queries consistent with the
	// fitted index.
	for i := 0; i < table.Len(); i++ {
		transformed := state.Transform(state.FeatureVector(table, i))
		for j := range transformed {
			assert.InDelta(t, matrix.At(i, j), transformed[j], 1e-12)
		}
	}
}

func TestPreprocessorFit_ConstantColumn(t *testing.T) {
	rows := makeSquad(5)
	for i := range rows {
		rows[i].Age = 25 // zero variance
	}
	table := analytics.NewTable(rows)

	matrix, state, err := recommender.NewPreprocessor(testLogger()).Fit(table)
	require.NoError(t, err)

	ageIdx := -1
	for j, name := range state.Features {
		if name == "age" {
			ageIdx = j
		}
	}
	require.GreaterOrEqual(t, ageIdx, 0)

	for i := 0; i < table.Len(); i++ {
		assert.Equal(t, 0.0, matrix.At(i, ageIdx))
	}
}
