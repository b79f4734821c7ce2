package recommender

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/pitchside/scoutline/internal/analytics"
	"github.com/pitchside/scoutline/internal/models"
)

// FeatureColumns is the fixed candidate feature schema used to measure
// player similarity. A fit uses the subset of these actually present in the
// table, in this order.
var FeatureColumns = []string{
	"age", "minutes_played", "rating",
	"shots_total", "shots_on_target", "goals_total", "assists",
	"passes_total", "passes_accuracy", "tackles_total",
	"tackles_blocks", "tackles_interceptions",
	"duels_total", "duels_won",
}

// MinFeatures is the minimum number of usable feature columns for a fit.
const MinFeatures = 5

// StandardizationState holds the per-feature imputation and scaling
// parameters fitted on the training table. Any later vector must be
// transformed with this same state; refitting per query would skew queries
// against the trained index.
type StandardizationState struct {
	Features []string  `json:"features"`
	Means    []float64 `json:"means"`
	Stds     []float64 `json:"stds"`
}

// Transform standardizes a raw feature vector in place using the stored
// parameters and returns it. NaN entries are imputed with the column mean
// before scaling.
func (s *StandardizationState) Transform(vec []float64) []float64 {
	for i := range vec {
		if math.IsNaN(vec[i]) {
			vec[i] = s.Means[i]
		}
		vec[i] = (vec[i] - s.Means[i]) / s.Stds[i]
	}
	return vec
}

// Preprocessor selects the feature schema and standardizes the table into a
// numeric matrix for the similarity index and cluster model.
type Preprocessor struct {
	logger *logrus.Logger
}

// NewPreprocessor creates a new feature preprocessor.
func NewPreprocessor(logger *logrus.Logger) *Preprocessor {
	return &Preprocessor{logger: logger}
}

// Fit selects the candidate features present in the table, mean-imputes and
// standardizes them to zero mean / unit variance, and returns the matrix
// (one row per table row, aligned by position) together with the fitted
// state. Fewer than MinFeatures usable columns yields
// ErrInsufficientFeatures and no state.
func (p *Preprocessor) Fit(table *analytics.Table) (*mat.Dense, *StandardizationState, error) {
	if table == nil || table.Len() == 0 {
		return nil, nil, models.ErrEmptyInput
	}

	var features []string
	for _, name := range FeatureColumns {
		if table.HasNumericColumn(name) {
			features = append(features, name)
		}
	}
	if len(features) < MinFeatures {
		p.logger.WithFields(logrus.Fields{
			"available": len(features),
			"required":  MinFeatures,
		}).Warn("Insufficient feature columns for fit")
		return nil, nil, models.ErrInsufficientFeatures
	}

	n := table.Len()
	state := &StandardizationState{
		Features: features,
		Means:    make([]float64, len(features)),
		Stds:     make([]float64, len(features)),
	}

	matrix := mat.NewDense(n, len(features), nil)
	column := make([]float64, n)
	clean := make([]float64, 0, n)
	for j, name := range features {
		clean = clean[:0]
		for i := 0; i < n; i++ {
			v, _ := table.NumericValue(i, name)
			column[i] = v
			if !math.IsNaN(v) {
				clean = append(clean, v)
			}
		}

		// Imputation mean is computed over non-missing values only.
		var mean, std float64
		if len(clean) > 0 {
			mean = stat.Mean(clean, nil)
			std = stat.StdDev(clean, nil)
		}
		if std == 0 || math.IsNaN(std) {
			// Constant column: center only, like a unit scale.
			std = 1
		}
		state.Means[j], state.Stds[j] = mean, std

		for i := 0; i < n; i++ {
			v := column[i]
			if math.IsNaN(v) {
				v = mean
			}
			matrix.Set(i, j, (v-mean)/std)
		}
	}

	p.logger.WithFields(logrus.Fields{
		"rows":     n,
		"features": len(features),
	}).Debug("Fitted feature preprocessor")

	return matrix, state, nil
}

// FeatureVector extracts the raw (unstandardized) feature values of one
// player record under the fitted schema.
func (s *StandardizationState) FeatureVector(table *analytics.Table, row int) []float64 {
	vec := make([]float64, len(s.Features))
	for j, name := range s.Features {
		v, ok := table.NumericValue(row, name)
		if !ok {
			v = math.NaN()
		}
		vec[j] = v
	}
	return vec
}
