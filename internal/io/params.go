package io

import (
	"fmt"
	"math"
)

// Params carries component settings decoded from config files. Numbers may
// arrive as int or float64 depending on the decoder that produced them.
type Params map[string]any

func (p Params) Float(key string, def float64) (float64, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("param %s: expected number, got %T", key, raw)
	}
}

func (p Params) Int(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	return toInt(key, raw)
}

// Ints reads a list of integers. A single integer is accepted as a list of
// one.
func (p Params) Ints(key string, def []int) ([]int, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case []int:
		return append([]int(nil), v...), nil
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			n, err := toInt(key, item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	default:
		n, err := toInt(key, raw)
		if err != nil {
			return nil, err
		}
		return []int{n}, nil
	}
}

func toInt(key string, raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("param %s: expected integer, got %g", key, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("param %s: expected integer, got %T", key, raw)
	}
}
