package analytics

import (
	"sort"

	"github.com/pitchside/scoutline/internal/models"
)

// numericColumn exposes one float64 field of a PlayerRecord by column name.
type numericColumn struct {
	get func(*models.PlayerRecord) float64
	set func(*models.PlayerRecord, float64)
}

var numericColumns = map[string]numericColumn{
	"player_id": {
		get: func(r *models.PlayerRecord) float64 { return float64(r.PlayerID) },
		set: func(r *models.PlayerRecord, v float64) { r.PlayerID = int(v) },
	},
	"age": {
		get: func(r *models.PlayerRecord) float64 { return r.Age },
		set: func(r *models.PlayerRecord, v float64) { r.Age = v },
	},
	"team_id": {
		get: func(r *models.PlayerRecord) float64 { return r.TeamID },
		set: func(r *models.PlayerRecord, v float64) { r.TeamID = v },
	},
	"league_id": {
		get: func(r *models.PlayerRecord) float64 { return r.LeagueID },
		set: func(r *models.PlayerRecord, v float64) { r.LeagueID = v },
	},
	"appearances": {
		get: func(r *models.PlayerRecord) float64 { return r.Appearances },
		set: func(r *models.PlayerRecord, v float64) { r.Appearances = v },
	},
	"minutes_played": {
		get: func(r *models.PlayerRecord) float64 { return r.MinutesPlayed },
		set: func(r *models.PlayerRecord, v float64) { r.MinutesPlayed = v },
	},
	"rating": {
		get: func(r *models.PlayerRecord) float64 { return r.Rating },
		set: func(r *models.PlayerRecord, v float64) { r.Rating = v },
	},
	"shots_total": {
		get: func(r *models.PlayerRecord) float64 { return r.ShotsTotal },
		set: func(r *models.PlayerRecord, v float64) { r.ShotsTotal = v },
	},
	"shots_on_target": {
		get: func(r *models.PlayerRecord) float64 { return r.ShotsOnTarget },
		set: func(r *models.PlayerRecord, v float64) { r.ShotsOnTarget = v },
	},
	"goals_total": {
		get: func(r *models.PlayerRecord) float64 { return r.GoalsTotal },
		set: func(r *models.PlayerRecord, v float64) { r.GoalsTotal = v },
	},
	"assists": {
		get: func(r *models.PlayerRecord) float64 { return r.Assists },
		set: func(r *models.PlayerRecord, v float64) { r.Assists = v },
	},
	"passes_total": {
		get: func(r *models.PlayerRecord) float64 { return r.PassesTotal },
		set: func(r *models.PlayerRecord, v float64) { r.PassesTotal = v },
	},
	"passes_accuracy": {
		get: func(r *models.PlayerRecord) float64 { return r.PassesAccuracy },
		set: func(r *models.PlayerRecord, v float64) { r.PassesAccuracy = v },
	},
	"tackles_total": {
		get: func(r *models.PlayerRecord) float64 { return r.TacklesTotal },
		set: func(r *models.PlayerRecord, v float64) { r.TacklesTotal = v },
	},
	"tackles_blocks": {
		get: func(r *models.PlayerRecord) float64 { return r.TacklesBlocks },
		set: func(r *models.PlayerRecord, v float64) { r.TacklesBlocks = v },
	},
	"tackles_interceptions": {
		get: func(r *models.PlayerRecord) float64 { return r.TacklesInterceptions },
		set: func(r *models.PlayerRecord, v float64) { r.TacklesInterceptions = v },
	},
	"duels_total": {
		get: func(r *models.PlayerRecord) float64 { return r.DuelsTotal },
		set: func(r *models.PlayerRecord, v float64) { r.DuelsTotal = v },
	},
	"duels_won": {
		get: func(r *models.PlayerRecord) float64 { return r.DuelsWon },
		set: func(r *models.PlayerRecord, v float64) { r.DuelsWon = v },
	},
	"minutes_per_appearance": {
		get: func(r *models.PlayerRecord) float64 { return r.MinutesPerAppearance },
		set: func(r *models.PlayerRecord, v float64) { r.MinutesPerAppearance = v },
	},
	"pass_completion_rate": {
		get: func(r *models.PlayerRecord) float64 { return r.PassCompletionRate },
		set: func(r *models.PlayerRecord, v float64) { r.PassCompletionRate = v },
	},
	"shot_conversion_rate": {
		get: func(r *models.PlayerRecord) float64 { return r.ShotConversionRate },
		set: func(r *models.PlayerRecord, v float64) { r.ShotConversionRate = v },
	},
	"duels_success_rate": {
		get: func(r *models.PlayerRecord) float64 { return r.DuelsSuccessRate },
		set: func(r *models.PlayerRecord, v float64) { r.DuelsSuccessRate = v },
	},
}

var stringColumns = map[string]func(*models.PlayerRecord) string{
	"name":        func(r *models.PlayerRecord) string { return r.Name },
	"firstname":   func(r *models.PlayerRecord) string { return r.Firstname },
	"lastname":    func(r *models.PlayerRecord) string { return r.Lastname },
	"nationality": func(r *models.PlayerRecord) string { return r.Nationality },
	"height":      func(r *models.PlayerRecord) string { return r.Height },
	"weight":      func(r *models.PlayerRecord) string { return r.Weight },
	"position":    func(r *models.PlayerRecord) string { return r.Position },
	"team_name":   func(r *models.PlayerRecord) string { return r.TeamName },
	"league_name": func(r *models.PlayerRecord) string { return r.LeagueName },
}

// Table is the ordered player table: one row per (player, stint). Row
// position is the implicit join key to the feature matrix built from it, so
// the row slice is never reordered in place. The available-columns set is
// computed once at construction instead of being re-derived per access.
type Table struct {
	rows      []models.PlayerRecord
	available map[string]struct{}
}

// NewTable builds a table exposing every known column.
func NewTable(rows []models.PlayerRecord) *Table {
	available := make(map[string]struct{}, len(numericColumns)+len(stringColumns))
	for name := range numericColumns {
		available[name] = struct{}{}
	}
	for name := range stringColumns {
		available[name] = struct{}{}
	}
	return &Table{rows: rows, available: available}
}

// NewTableWithColumns builds a table restricted to the named columns, for
// data sources that populate only part of the schema. Unknown names are
// dropped.
func NewTableWithColumns(rows []models.PlayerRecord, columns []string) *Table {
	available := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		if _, ok := numericColumns[name]; ok {
			available[name] = struct{}{}
			continue
		}
		if _, ok := stringColumns[name]; ok {
			available[name] = struct{}{}
		}
	}
	return &Table{rows: rows, available: available}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns a pointer to the i-th row.
func (t *Table) Row(i int) *models.PlayerRecord { return &t.rows[i] }

// Rows returns a copy of all rows in table order.
func (t *Table) Rows() []models.PlayerRecord {
	out := make([]models.PlayerRecord, len(t.rows))
	copy(out, t.rows)
	return out
}

// HasColumn reports whether the named column is available in this table.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.available[name]
	return ok
}

// HasNumericColumn reports whether the named column is available and numeric.
func (t *Table) HasNumericColumn(name string) bool {
	if !t.HasColumn(name) {
		return false
	}
	_, ok := numericColumns[name]
	return ok
}

// Columns returns the available column names, sorted for determinism.
func (t *Table) Columns() []string {
	out := make([]string, 0, len(t.available))
	for name := range t.available {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NumericValue returns the value of a numeric column for row i. The second
// result is false when the column is unavailable or not numeric.
func (t *Table) NumericValue(i int, column string) (float64, bool) {
	if !t.HasColumn(column) {
		return 0, false
	}
	col, ok := numericColumns[column]
	if !ok {
		return 0, false
	}
	return col.get(&t.rows[i]), true
}

// StringValue returns the value of a string column for row i. The second
// result is false when the column is unavailable or not a string column.
func (t *Table) StringValue(i int, column string) (string, bool) {
	if !t.HasColumn(column) {
		return "", false
	}
	get, ok := stringColumns[column]
	if !ok {
		return "", false
	}
	return get(&t.rows[i]), true
}

// WithClusterLabels returns a new table with the same rows and column set,
// annotated with one cluster label per row. The receiver is left untouched
// so readers of the old table never observe a partial write.
func (t *Table) WithClusterLabels(labels []int) *Table {
	rows := t.Rows()
	for i := range rows {
		label := labels[i]
		rows[i].Cluster = &label
	}
	return &Table{rows: rows, available: t.available}
}

// TopByMetric returns up to n rows ranked by the named numeric column,
// descending unless ascending is set. The underlying table order is left
// untouched. An unavailable or non-numeric metric yields ErrUnknownMetric.
func (t *Table) TopByMetric(metric string, n int, ascending bool) ([]models.PlayerRecord, error) {
	if !t.HasNumericColumn(metric) {
		return nil, models.ErrUnknownMetric
	}

	col := numericColumns[metric]
	ranked := t.Rows()
	sort.SliceStable(ranked, func(i, j int) bool {
		if ascending {
			return col.get(&ranked[i]) < col.get(&ranked[j])
		}
		return col.get(&ranked[i]) > col.get(&ranked[j])
	})

	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}
