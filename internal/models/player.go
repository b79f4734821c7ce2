package models

import (
	"bytes"
	"fmt"
	"strconv"
)

// APIFloat decodes numeric fields that the football API delivers either as
// JSON numbers or as quoted decimal strings (e.g. "rating": "7.25").
type APIFloat float64

func (f *APIFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %q: %w", string(data), err)
	}
	*f = APIFloat(v)
	return nil
}

// RawPlayerEntry is one element of the football API /players response: a
// player identity block plus zero or more per-team/competition statistics
// blocks. Pointer fields distinguish absent values from zeroes.
type RawPlayerEntry struct {
	Player     RawPlayer       `json:"player"`
	Statistics []RawStatistics `json:"statistics"`
}

type RawPlayer struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Firstname   string    `json:"firstname"`
	Lastname    string    `json:"lastname"`
	Age         *APIFloat `json:"age"`
	Nationality string    `json:"nationality"`
	Height      string    `json:"height"`
	Weight      string    `json:"weight"`
	Position    string    `json:"position"`
}

type RawStatistics struct {
	Team    *RawTeam    `json:"team"`
	League  *RawLeague  `json:"league"`
	Games   *RawGames   `json:"games"`
	Shots   *RawShots   `json:"shots"`
	Goals   *RawGoals   `json:"goals"`
	Passes  *RawPasses  `json:"passes"`
	Tackles *RawTackles `json:"tackles"`
	Duels   *RawDuels   `json:"duels"`
}

type RawTeam struct {
	ID   *APIFloat `json:"id"`
	Name string    `json:"name"`
}

type RawLeague struct {
	ID   *APIFloat `json:"id"`
	Name string    `json:"name"`
}

type RawGames struct {
	// The upstream API spells this field "appearences".
	Appearances *APIFloat `json:"appearences"`
	Minutes     *APIFloat `json:"minutes"`
	Position    string    `json:"position"`
	Rating      *APIFloat `json:"rating"`
}

type RawShots struct {
	Total *APIFloat `json:"total"`
	On    *APIFloat `json:"on"`
}

type RawGoals struct {
	Total   *APIFloat `json:"total"`
	Assists *APIFloat `json:"assists"`
}

type RawPasses struct {
	Total    *APIFloat `json:"total"`
	Accuracy *APIFloat `json:"accuracy"`
}

type RawTackles struct {
	Total         *APIFloat `json:"total"`
	Blocks        *APIFloat `json:"blocks"`
	Interceptions *APIFloat `json:"interceptions"`
}

type RawDuels struct {
	Total *APIFloat `json:"total"`
	Won   *APIFloat `json:"won"`
}

// PlayerRecord is one flat row of the analytics table: one player's
// aggregate statistics for a single team/competition stint. A player with
// multiple stints in a season occupies multiple rows, so PlayerID is not
// unique across rows.
type PlayerRecord struct {
	PlayerID    int    `json:"player_id"`
	Name        string `json:"name"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Nationality string `json:"nationality"`
	Height      string `json:"height"`
	Weight      string `json:"weight"`
	Position    string `json:"position"`
	TeamName    string `json:"team_name"`
	LeagueName  string `json:"league_name"`

	Age                  float64 `json:"age"`
	TeamID               float64 `json:"team_id"`
	LeagueID             float64 `json:"league_id"`
	Appearances          float64 `json:"appearances"`
	MinutesPlayed        float64 `json:"minutes_played"`
	Rating               float64 `json:"rating"`
	ShotsTotal           float64 `json:"shots_total"`
	ShotsOnTarget        float64 `json:"shots_on_target"`
	GoalsTotal           float64 `json:"goals_total"`
	Assists              float64 `json:"assists"`
	PassesTotal          float64 `json:"passes_total"`
	PassesAccuracy       float64 `json:"passes_accuracy"`
	TacklesTotal         float64 `json:"tackles_total"`
	TacklesBlocks        float64 `json:"tackles_blocks"`
	TacklesInterceptions float64 `json:"tackles_interceptions"`
	DuelsTotal           float64 `json:"duels_total"`
	DuelsWon             float64 `json:"duels_won"`

	// Derived metrics, filled by the metric calculator.
	MinutesPerAppearance float64 `json:"minutes_per_appearance"`
	PassCompletionRate   float64 `json:"pass_completion_rate"`
	ShotConversionRate   float64 `json:"shot_conversion_rate"`
	DuelsSuccessRate     float64 `json:"duels_success_rate"`

	// Cluster is the unsupervised segment label, nil before the first
	// successful model fit.
	Cluster *int `json:"cluster,omitempty"`
}

// Recommendation is a single ranked entry of a similarity query result.
type Recommendation struct {
	Player          PlayerRecord `json:"player"`
	Distance        float64      `json:"distance"`
	SimilarityScore float64      `json:"similarity_score"`
}

// SimilarityResult is the full answer to a "players similar to X" query,
// ordered by ascending distance. The reference player never appears in
// Recommendations.
type SimilarityResult struct {
	PlayerID        int              `json:"player_id"`
	Recommendations []Recommendation `json:"recommendations"`
}
