package recommender

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/pitchside/scoutline/internal/analytics"
	"github.com/pitchside/scoutline/internal/models"
)

// DefaultRecommendations is the result count used when a query does not ask
// for a specific number.
const DefaultRecommendations = 5

// maxClusters caps the number of player segments; actual k is min of this
// and the row count.
const maxClusters = 8

// State is the engine lifecycle state.
type State int

const (
	StateUntrained State = iota
	StateTraining
	StateTrained
)

func (s State) String() string {
	switch s {
	case StateTraining:
		return "training"
	case StateTrained:
		return "trained"
	default:
		return "untrained"
	}
}

// TrainingEvent notifies subscribers that a training run finished, carrying
// either the shape of the new trained state or the error that failed it.
type TrainingEvent struct {
	TrainingID  string    `json:"training_id"`
	CompletedAt time.Time `json:"completed_at"`
	Rows        int       `json:"rows,omitempty"`
	Features    []string  `json:"features,omitempty"`
	Clusters    int       `json:"clusters,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// snapshot is one internally consistent trained tuple. It is built off to
// the side and swapped in atomically, so readers never observe a
// half-updated model (matrix row i always matches table row i).
type snapshot struct {
	table  *analytics.Table
	matrix *mat.Dense
	scaler *StandardizationState
	index  *knnIndex
	labels []int
}

// Engine answers similarity-based and criteria-based player recommendation
// queries over the current enriched table. Criteria queries and direct
// lookups need only loaded data; similarity queries need a trained snapshot
// and trigger a lazy fit when none exists.
type Engine struct {
	preprocessor *Preprocessor
	logger       *logrus.Logger

	// trainMu serializes training runs; mu guards the fields below.
	trainMu sync.Mutex
	mu      sync.RWMutex
	table   *analytics.Table
	current *snapshot
	state   State

	subMu       sync.Mutex
	subscribers []chan TrainingEvent
}

// NewEngine creates an untrained recommendation engine.
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		preprocessor: NewPreprocessor(logger),
		logger:       logger,
		state:        StateUntrained,
	}
}

// LoadTable replaces the engine's enriched table. The previously trained
// snapshot (if any) keeps serving similarity queries until the next
// successful training run swaps it out.
func (e *Engine) LoadTable(table *analytics.Table) {
	e.mu.Lock()
	e.table = table
	e.mu.Unlock()

	e.logger.WithField("rows", table.Len()).Info("Loaded player table")
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Subscribe registers for training-completion notifications. Events are
// dropped for subscribers that do not keep up.
func (e *Engine) Subscribe() <-chan TrainingEvent {
	ch := make(chan TrainingEvent, 8)
	e.subMu.Lock()
	e.subscribers = append(e.subscribers, ch)
	e.subMu.Unlock()
	return ch
}

func (e *Engine) publish(event TrainingEvent) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Train fits the preprocessor, similarity index and cluster model on the
// current table and atomically swaps the trained snapshot. At most one
// training run is in flight at a time. On failure the previous snapshot (if
// any) stays servable; with no prior snapshot the engine returns to
// untrained.
func (e *Engine) Train(ctx context.Context) error {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	trainingID := uuid.New().String()

	e.mu.Lock()
	table := e.table
	e.state = StateTraining
	e.mu.Unlock()

	err := e.train(ctx, trainingID, table)
	if err != nil {
		e.mu.Lock()
		if e.current == nil {
			e.state = StateUntrained
		} else {
			e.state = StateTrained
		}
		e.mu.Unlock()

		e.logger.WithError(err).WithField("training_id", trainingID).Error("Model training failed")
		e.publish(TrainingEvent{
			TrainingID:  trainingID,
			CompletedAt: time.Now(),
			Error:       err.Error(),
		})
	}
	return err
}

func (e *Engine) train(ctx context.Context, trainingID string, table *analytics.Table) error {
	if table == nil || table.Len() == 0 {
		return models.ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	matrix, scaler, err := e.preprocessor.Fit(table)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	index := newKNNIndex(matrix)

	k := maxClusters
	if table.Len() < k {
		k = table.Len()
	}
	labels := newKMeans(k).Fit(matrix)

	// Annotate a copy of the table with the labels and swap both the
	// snapshot and the live table, so readers see either the fully labeled
	// tuple or the previous one, never a half-written row.
	labeled := table.WithClusterLabels(labels)
	snap := &snapshot{
		table:  labeled,
		matrix: matrix,
		scaler: scaler,
		index:  index,
		labels: labels,
	}

	e.mu.Lock()
	e.current = snap
	if e.table == table {
		e.table = labeled
	}
	e.state = StateTrained
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"training_id": trainingID,
		"rows":        table.Len(),
		"features":    len(scaler.Features),
		"clusters":    k,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("Recommendation models trained")

	e.publish(TrainingEvent{
		TrainingID:  trainingID,
		CompletedAt: time.Now(),
		Rows:        table.Len(),
		Features:    scaler.Features,
		Clusters:    k,
	})
	return nil
}

func (e *Engine) snapshot() *snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

func (e *Engine) currentTable() *analytics.Table {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.table
}

// RecommendSimilar returns the n players most similar to the given player,
// ordered by ascending distance. With no trained snapshot it attempts a lazy
// fit first and surfaces the fit error if that fails. Every row carrying the
// reference player id is excluded, so multiple stints of the same player
// never leak into the result; distinct players with identical feature
// vectors are legitimate matches and are kept.
func (e *Engine) RecommendSimilar(ctx context.Context, playerID, n int) (*models.SimilarityResult, error) {
	if n <= 0 {
		n = DefaultRecommendations
	}

	snap := e.snapshot()
	if snap == nil {
		if err := e.Train(ctx); err != nil {
			return nil, err
		}
		if snap = e.snapshot(); snap == nil {
			return nil, models.ErrUntrainedModel
		}
	}

	ref := -1
	for i := 0; i < snap.table.Len(); i++ {
		if snap.table.Row(i).PlayerID == playerID {
			ref = i
			break
		}
	}
	if ref < 0 {
		return nil, models.ErrPlayerNotFound
	}

	query := make([]float64, snap.matrix.RawMatrix().Cols)
	mat.Row(query, ref, snap.matrix)

	result := &models.SimilarityResult{PlayerID: playerID}
	for _, nb := range snap.index.Neighbors(query, snap.index.Len()) {
		if snap.table.Row(nb.Row).PlayerID == playerID {
			continue
		}
		result.Recommendations = append(result.Recommendations, models.Recommendation{
			Player:          *snap.table.Row(nb.Row),
			Distance:        nb.Distance,
			SimilarityScore: 1 / (1 + nb.Distance),
		})
		if len(result.Recommendations) == n {
			break
		}
	}

	e.logger.WithFields(logrus.Fields{
		"player_id": playerID,
		"results":   len(result.Recommendations),
	}).Debug("Similarity query answered")

	return result, nil
}

// RecommendByCriteria returns up to n rows satisfying the criteria, sorted
// by rating descending when that column is available. It needs only loaded
// data, not a trained model. Bounds on columns unknown to the table are
// ignored.
func (e *Engine) RecommendByCriteria(criteria models.Criteria, n int) ([]models.PlayerRecord, error) {
	if n <= 0 {
		n = DefaultRecommendations
	}

	table := e.currentTable()
	if table == nil {
		return nil, models.ErrEmptyInput
	}

	predicates := criteriaPredicates(table, criteria)

	var matched []models.PlayerRecord
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		keep := true
		for _, pred := range predicates {
			if !pred(i, row) {
				keep = false
				break
			}
		}
		if keep {
			matched = append(matched, *row)
		}
	}

	if table.HasColumn("rating") {
		sort.SliceStable(matched, func(a, b int) bool {
			return matched[a].Rating > matched[b].Rating
		})
	}

	if n < len(matched) {
		matched = matched[:n]
	}
	return matched, nil
}

type rowPredicate func(i int, row *models.PlayerRecord) bool

// criteriaPredicates compiles the criteria into row predicates once per
// query. Metric names are resolved against the table's column set here, so
// the per-row loop does no column lookups.
func criteriaPredicates(table *analytics.Table, criteria models.Criteria) []rowPredicate {
	var predicates []rowPredicate

	if criteria.Position != "" {
		position := criteria.Position
		predicates = append(predicates, func(_ int, row *models.PlayerRecord) bool {
			return row.Position == position
		})
	}

	// Deterministic predicate order for reproducible short-circuiting.
	metrics := make([]string, 0, len(criteria.Bounds))
	for metric := range criteria.Bounds {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	for _, metric := range metrics {
		if !table.HasNumericColumn(metric) {
			continue
		}
		metric := metric
		bounds := criteria.Bounds[metric]
		if bounds.Min != nil {
			min := *bounds.Min
			predicates = append(predicates, func(i int, _ *models.PlayerRecord) bool {
				v, _ := table.NumericValue(i, metric)
				return v >= min
			})
		}
		if bounds.Max != nil {
			max := *bounds.Max
			predicates = append(predicates, func(i int, _ *models.PlayerRecord) bool {
				v, _ := table.NumericValue(i, metric)
				return v <= max
			})
		}
	}

	return predicates
}

// PlayerByID returns the first stint row of the given player.
func (e *Engine) PlayerByID(playerID int) (*models.PlayerRecord, error) {
	table := e.currentTable()
	if table == nil {
		return nil, models.ErrEmptyInput
	}
	for i := 0; i < table.Len(); i++ {
		if table.Row(i).PlayerID == playerID {
			row := *table.Row(i)
			return &row, nil
		}
	}
	return nil, models.ErrPlayerNotFound
}

// PlayersByPosition returns all rows with the given exact position.
func (e *Engine) PlayersByPosition(position string) []models.PlayerRecord {
	table := e.currentTable()
	if table == nil {
		return nil
	}
	var out []models.PlayerRecord
	for i := 0; i < table.Len(); i++ {
		if row := table.Row(i); row.Position == position {
			out = append(out, *row)
		}
	}
	return out
}

// TopPlayersByMetric returns up to n rows ranked by the named metric.
func (e *Engine) TopPlayersByMetric(metric string, n int, ascending bool) ([]models.PlayerRecord, error) {
	table := e.currentTable()
	if table == nil {
		return nil, models.ErrEmptyInput
	}
	return table.TopByMetric(metric, n, ascending)
}

// Players returns all rows of the current table in table order.
func (e *Engine) Players() []models.PlayerRecord {
	table := e.currentTable()
	if table == nil {
		return nil
	}
	return table.Rows()
}
