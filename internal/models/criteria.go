package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Bounds holds optional inclusive lower/upper thresholds for one metric.
type Bounds struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Criteria is a validated criteria-mode query: an optional exact-match
// position plus numeric bounds keyed by table column name. Build it with
// ParseCriteria so that threshold values are checked once at construction
// instead of at query time.
type Criteria struct {
	Position string            `json:"position,omitempty"`
	Bounds   map[string]Bounds `json:"bounds,omitempty"`
}

// ParseCriteria converts the wire-level criteria object ({"position": ...,
// "min_<metric>": ..., "max_<metric>": ...}) into a typed Criteria. A key
// that is neither "position" nor prefixed min_/max_ with a non-empty metric
// name, or a threshold that is not numeric, yields ErrInvalidCriteria.
// Whether the metric names an existing column is deliberately not checked
// here; unknown columns are ignored at query time.
func ParseCriteria(raw map[string]interface{}) (Criteria, error) {
	criteria := Criteria{Bounds: make(map[string]Bounds)}

	for key, value := range raw {
		if value == nil {
			continue
		}

		if key == "position" {
			position, ok := value.(string)
			if !ok {
				return Criteria{}, fmt.Errorf("%w: position must be a string", ErrInvalidCriteria)
			}
			criteria.Position = position
			continue
		}

		var metric string
		var isMin bool
		switch {
		case strings.HasPrefix(key, "min_"):
			metric, isMin = strings.TrimPrefix(key, "min_"), true
		case strings.HasPrefix(key, "max_"):
			metric, isMin = strings.TrimPrefix(key, "max_"), false
		default:
			return Criteria{}, fmt.Errorf("%w: unrecognized key %q", ErrInvalidCriteria, key)
		}
		if metric == "" {
			return Criteria{}, fmt.Errorf("%w: key %q names no metric", ErrInvalidCriteria, key)
		}

		threshold, err := toFloat(value)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: key %q: %v", ErrInvalidCriteria, key, err)
		}

		bounds := criteria.Bounds[metric]
		if isMin {
			bounds.Min = &threshold
		} else {
			bounds.Max = &threshold
		}
		criteria.Bounds[metric] = bounds
	}

	return criteria, nil
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("threshold value %v is not numeric", value)
	}
}
