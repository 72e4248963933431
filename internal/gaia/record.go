package gaia

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawRecord is one dataset entry as decoded from the source. Its shape is
// source-controlled and not guaranteed.
type RawRecord map[string]any

// Record is the normalized output shape. task_id and Question are passed
// through unchanged (null when absent); Final answer and file_name are
// omitted entirely when the source value is missing, null, or empty.
// Field order here fixes the key order in the output files.
type Record struct {
	TaskID      any    `json:"task_id"`
	Question    any    `json:"Question"`
	Level       int    `json:"Level"`
	FinalAnswer string `json:"Final answer,omitempty"`
	FileName    string `json:"file_name,omitempty"`
}

// Normalize projects a raw record onto the fixed output schema.
func Normalize(raw RawRecord) (Record, error) {
	level, err := coerceLevel(raw["Level"])
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		TaskID:   raw["task_id"],
		Question: raw["Question"],
		Level:    level,
	}
	if v, ok := raw["Final answer"]; ok && truthy(v) {
		rec.FinalAnswer = stringify(v)
	}
	if v, ok := raw["file_name"]; ok && truthy(v) {
		rec.FileName = stringify(v)
	}
	return rec, nil
}

// NormalizeAll normalizes records in source order. The first coercion
// failure aborts with a *LevelError wrapped in the record position.
func NormalizeAll(ctx context.Context, raws []RawRecord) ([]Record, error) {
	if ctx == nil {
		return nil, fmt.Errorf("gaia: nil context")
	}

	out := make([]Record, 0, len(raws))
	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rec, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("gaia: record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// coerceLevel maps the raw Level value to an int. Absent values default
// to 0; fractional floats truncate; anything else non-coercible fails.
func coerceLevel(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, &LevelError{Value: v}
		}
		return int(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, &LevelError{Value: v}
		}
		return n, nil
	default:
		return 0, &LevelError{Value: v}
	}
}

// truthy reports whether an optional raw value should be carried into the
// normalized record: nil, empty strings, zero numbers, and false all drop
// the field.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
