package parser

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Filter selects records with a jq expression. A record is kept when the
// expression yields at least one value other than false or null.
type Filter struct {
	query string
	code  *gojq.Code
}

// NewFilter compiles a jq expression
func NewFilter(query string) (*Filter, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filter %q: %w", query, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", query, err)
	}
	return &Filter{query: query, code: code}, nil
}

// String returns the source expression
func (f *Filter) String() string {
	return f.query
}

// Match evaluates the filter against a decoded record
func (f *Filter) Match(rec Record) (bool, error) {
	iter := f.code.Run(jqValue(map[string]interface{}(rec)))
	for {
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, ok := v.(error); ok {
			return false, fmt.Errorf("filter %q: %w", f.query, err)
		}
		if truthy(v) {
			return true, nil
		}
	}
}

func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// jqValue converts decoded JSON into the value types gojq accepts
func jqValue(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
		f, _ := val.Float64()
		return f
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = jqValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = jqValue(item)
		}
		return out
	default:
		return val
	}
}
