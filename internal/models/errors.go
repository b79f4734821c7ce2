package models

import "errors"

// Typed errors surfaced by the analytics and recommendation pipeline. All of
// them are recoverable at the call site; handlers map them to HTTP statuses.
var (
	// ErrEmptyInput is returned when a data load contains no player entries.
	ErrEmptyInput = errors.New("no player entries to process")

	// ErrInsufficientFeatures is returned when fewer than the minimum number
	// of candidate feature columns are present at fit time.
	ErrInsufficientFeatures = errors.New("insufficient features for recommendation")

	// ErrPlayerNotFound is returned when a player id is absent from the
	// currently loaded table.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrUntrainedModel is returned when a similarity query is attempted and
	// the lazy retrain also failed.
	ErrUntrainedModel = errors.New("recommendation model not trained")

	// ErrInvalidCriteria is returned when a criteria key is malformed or a
	// threshold value is not numeric.
	ErrInvalidCriteria = errors.New("invalid recommendation criteria")

	// ErrUnknownMetric is returned when a ranking metric does not name a
	// numeric column of the player table.
	ErrUnknownMetric = errors.New("unknown metric column")
)
