package models

import (
	"encoding/json"
	"strconv"
)

// Record is one uniform-shape row of a report dataset.
type Record map[string]any

// Get returns the value under key; missing keys report ok=false.
func (r Record) Get(key string) (any, bool) {
	if r == nil || key == "" {
		return nil, false
	}
	v, ok := r[key]
	return v, ok
}

// Number reads key as a float. Non-numeric or missing values yield ok=false.
func (r Record) Number(key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Dataset is the ordered set of records returned for one generation. It is
// never mutated after construction.
type Dataset []Record

func (d Dataset) Len() int {
	return len(d)
}

func (d Dataset) Empty() bool {
	return len(d) == 0
}

// ToFloat converts the numeric shapes that arrive from JSON decoding.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
