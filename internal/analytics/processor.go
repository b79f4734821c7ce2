package analytics

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pitchside/scoutline/internal/models"
)

// Processor turns raw nested player entries into the flat enriched table
// consumed by the recommendation engine: it flattens stints, fills missing
// values and computes derived performance metrics.
type Processor struct {
	logger *logrus.Logger
}

// NewProcessor creates a new data processor.
func NewProcessor(logger *logrus.Logger) *Processor {
	return &Processor{logger: logger}
}

// ProcessPlayers flattens the raw entries into one row per (player, stint),
// fills missing values and computes derived metrics. The returned table is
// clean: no numeric field is missing, NaN or infinite.
func (p *Processor) ProcessPlayers(entries []models.RawPlayerEntry) (*Table, error) {
	rows, err := p.normalize(entries)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		p.handleMissingValues(&rows[i])
		p.calculateMetrics(&rows[i])
	}

	p.logger.WithFields(logrus.Fields{
		"players": len(entries),
		"rows":    len(rows),
	}).Info("Processed player data")

	return NewTable(rows), nil
}

// normalize flattens nested entries into flat rows. Players are deliberately
// not deduplicated: one row is emitted per statistics block, so a player
// with multiple team stints in a season occupies multiple rows. Missing
// nested blocks leave numeric fields NaN and string fields empty; both are
// resolved by the fill pass.
func (p *Processor) normalize(entries []models.RawPlayerEntry) ([]models.PlayerRecord, error) {
	if len(entries) == 0 {
		return nil, models.ErrEmptyInput
	}

	var rows []models.PlayerRecord
	for _, entry := range entries {
		for _, stat := range entry.Statistics {
			rec := models.PlayerRecord{
				PlayerID:    entry.Player.ID,
				Name:        entry.Player.Name,
				Firstname:   entry.Player.Firstname,
				Lastname:    entry.Player.Lastname,
				Nationality: entry.Player.Nationality,
				Height:      entry.Player.Height,
				Weight:      entry.Player.Weight,
				Position:    entry.Player.Position,
				Age:         floatOrNaN(entry.Player.Age),
			}

			rec.TeamID, rec.LeagueID = math.NaN(), math.NaN()
			rec.Appearances, rec.MinutesPlayed, rec.Rating = math.NaN(), math.NaN(), math.NaN()
			rec.ShotsTotal, rec.ShotsOnTarget = math.NaN(), math.NaN()
			rec.GoalsTotal, rec.Assists = math.NaN(), math.NaN()
			rec.PassesTotal, rec.PassesAccuracy = math.NaN(), math.NaN()
			rec.TacklesTotal, rec.TacklesBlocks, rec.TacklesInterceptions = math.NaN(), math.NaN(), math.NaN()
			rec.DuelsTotal, rec.DuelsWon = math.NaN(), math.NaN()

			if stat.Team != nil {
				rec.TeamID = floatOrNaN(stat.Team.ID)
				rec.TeamName = stat.Team.Name
			}
			if stat.League != nil {
				rec.LeagueID = floatOrNaN(stat.League.ID)
				rec.LeagueName = stat.League.Name
			}
			if stat.Games != nil {
				rec.Appearances = floatOrNaN(stat.Games.Appearances)
				rec.MinutesPlayed = floatOrNaN(stat.Games.Minutes)
				rec.Rating = floatOrNaN(stat.Games.Rating)
			}
			if stat.Shots != nil {
				rec.ShotsTotal = floatOrNaN(stat.Shots.Total)
				rec.ShotsOnTarget = floatOrNaN(stat.Shots.On)
			}
			if stat.Goals != nil {
				rec.GoalsTotal = floatOrNaN(stat.Goals.Total)
				rec.Assists = floatOrNaN(stat.Goals.Assists)
			}
			if stat.Passes != nil {
				rec.PassesTotal = floatOrNaN(stat.Passes.Total)
				rec.PassesAccuracy = floatOrNaN(stat.Passes.Accuracy)
			}
			if stat.Tackles != nil {
				rec.TacklesTotal = floatOrNaN(stat.Tackles.Total)
				rec.TacklesBlocks = floatOrNaN(stat.Tackles.Blocks)
				rec.TacklesInterceptions = floatOrNaN(stat.Tackles.Interceptions)
			}
			if stat.Duels != nil {
				rec.DuelsTotal = floatOrNaN(stat.Duels.Total)
				rec.DuelsWon = floatOrNaN(stat.Duels.Won)
			}

			rows = append(rows, rec)
		}
	}

	if len(rows) == 0 {
		return nil, models.ErrEmptyInput
	}
	return rows, nil
}

// handleMissingValues applies the fill policy: missing numeric values become
// 0, missing string values stay "". It walks the full numeric column
// registry, so an expected column that no row populated is still
// fill-created rather than silently dropped.
func (p *Processor) handleMissingValues(rec *models.PlayerRecord) {
	for _, col := range numericColumns {
		if v := col.get(rec); math.IsNaN(v) || math.IsInf(v, 0) {
			col.set(rec, 0)
		}
	}
}

// calculateMetrics computes the derived per-row performance metrics. Zero
// denominators yield 0, and anything NaN or infinite produced by the
// formulas is rewritten to 0 before the row is exposed downstream.
func (p *Processor) calculateMetrics(rec *models.PlayerRecord) {
	if rec.Appearances > 0 {
		rec.MinutesPerAppearance = rec.MinutesPlayed / rec.Appearances
	} else {
		rec.MinutesPerAppearance = 0
	}

	rec.PassCompletionRate = rec.PassesAccuracy

	if rec.ShotsTotal > 0 {
		rec.ShotConversionRate = rec.GoalsTotal / rec.ShotsTotal * 100
	} else {
		rec.ShotConversionRate = 0
	}

	if rec.DuelsTotal > 0 {
		rec.DuelsSuccessRate = rec.DuelsWon / rec.DuelsTotal * 100
	} else {
		rec.DuelsSuccessRate = 0
	}

	// Clean up anything the formulas may have produced.
	p.handleMissingValues(rec)
}

func floatOrNaN(v *models.APIFloat) float64 {
	if v == nil {
		return math.NaN()
	}
	return float64(*v)
}
