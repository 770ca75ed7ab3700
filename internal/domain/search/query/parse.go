package query

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned by Parse for a clause it does not model.
var ErrUnknownVariant = errors.New("unknown query variant")

// Parse decodes a wire-format clause back into a Node.
func Parse(data []byte) (Node, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode clause: %w", err)
	}
	// script_score may carry a sibling weight key.
	if _, ok := obj["script_score"]; ok {
		return parseScriptScore(data)
	}

	key, body, err := singleKey(obj)
	if err != nil {
		return nil, err
	}

	switch key {
	case "match":
		return parseMatch(body)
	case "bool":
		return parseBool(body)
	case "dis_max":
		return parseDisMax(body)
	case "function_score":
		return parseFunctionScore(body)
	case "terms":
		return parseTerms(body)
	case "rescore":
		return parseRescore(body)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, key)
	}
}

// ParseFunction decodes a wire-format scoring function.
func ParseFunction(data []byte) (Function, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode function: %w", err)
	}

	if _, ok := obj["script_score"]; ok {
		return parseScriptScore(data)
	}
	if raw, ok := obj["filter"]; ok {
		filter, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("decode filter function: %w", err)
		}
		var w struct {
			Weight float64 `json:"weight"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode filter weight: %w", err)
		}
		return FilterWeight{Filter: filter, Weight: w.Weight}, nil
	}
	for _, shape := range []string{"linear", "gauss", "exp"} {
		if raw, ok := obj[shape]; ok {
			return parseDecay(shape, raw)
		}
	}
	return nil, fmt.Errorf("%w: function with keys %v", ErrUnknownVariant, keys(obj))
}

func parseMatch(body json.RawMessage) (Node, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode match: %w", err)
	}
	if len(fields) != 1 {
		return nil, fmt.Errorf("decode match: want one field, got %d", len(fields))
	}
	for name, raw := range fields {
		var short string
		if json.Unmarshal(raw, &short) == nil {
			return Match{Field: name, Query: short}, nil
		}
		var mb matchBody
		if err := json.Unmarshal(raw, &mb); err != nil {
			return nil, fmt.Errorf("decode match %s: %w", name, err)
		}
		return Match{Field: name, Query: mb.Query, Boost: mb.Boost, Operator: mb.Operator}, nil
	}
	panic("unreachable")
}

func parseBool(body json.RawMessage) (Node, error) {
	var raw struct {
		Must   []json.RawMessage `json:"must"`
		Should []json.RawMessage `json:"should"`
		Filter []json.RawMessage `json:"filter"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode bool: %w", err)
	}

	var (
		b   Bool
		err error
	)
	if b.Must, err = parseNodes(raw.Must); err != nil {
		return nil, fmt.Errorf("decode bool.must: %w", err)
	}
	if b.Should, err = parseNodes(raw.Should); err != nil {
		return nil, fmt.Errorf("decode bool.should: %w", err)
	}
	if b.Filter, err = parseNodes(raw.Filter); err != nil {
		return nil, fmt.Errorf("decode bool.filter: %w", err)
	}
	return b, nil
}

func parseDisMax(body json.RawMessage) (Node, error) {
	var raw struct {
		Queries    []json.RawMessage `json:"queries"`
		TieBreaker float64           `json:"tie_breaker"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode dis_max: %w", err)
	}
	queries, err := parseNodes(raw.Queries)
	if err != nil {
		return nil, fmt.Errorf("decode dis_max.queries: %w", err)
	}
	if queries == nil {
		queries = []Node{}
	}
	return DisMax{Queries: queries, TieBreaker: raw.TieBreaker}, nil
}

func parseFunctionScore(body json.RawMessage) (Node, error) {
	var raw struct {
		Query     json.RawMessage   `json:"query"`
		Functions []json.RawMessage `json:"functions"`
		BoostMode string            `json:"boost_mode"`
		ScoreMode string            `json:"score_mode"`
		MinScore  float64           `json:"min_score"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode function_score: %w", err)
	}

	fs := FunctionScore{BoostMode: raw.BoostMode, ScoreMode: raw.ScoreMode, MinScore: raw.MinScore}
	if len(raw.Query) > 0 {
		q, err := Parse(raw.Query)
		if err != nil {
			return nil, fmt.Errorf("decode function_score.query: %w", err)
		}
		fs.Query = q
	}
	for i, f := range raw.Functions {
		fn, err := ParseFunction(f)
		if err != nil {
			return nil, fmt.Errorf("decode function_score.functions[%d]: %w", i, err)
		}
		fs.Functions = append(fs.Functions, fn)
	}
	return fs, nil
}

func parseScriptScore(data []byte) (ScriptScore, error) {
	var w scriptScoreWire
	if err := json.Unmarshal(data, &w); err != nil {
		return ScriptScore{}, fmt.Errorf("decode script_score: %w", err)
	}
	return scriptFromWire(w)
}

func scriptFromWire(w scriptScoreWire) (ScriptScore, error) {
	s := w.ScriptScore.Script
	if s.Lang != ScriptLang || s.Source != ScriptSource {
		return ScriptScore{}, fmt.Errorf("%w: script %s/%s", ErrUnknownVariant, s.Lang, s.Source)
	}
	return ScriptScore{
		Field:  s.Params.Field,
		Vector: s.Params.Vector,
		Cosine: s.Params.Cosine,
		Weight: w.Weight,
	}, nil
}

func parseTerms(body json.RawMessage) (Node, error) {
	var fields map[string][]string
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode terms: %w", err)
	}
	if len(fields) != 1 {
		return nil, fmt.Errorf("decode terms: want one field, got %d", len(fields))
	}
	for name, values := range fields {
		return Terms{Field: name, Values: values}, nil
	}
	panic("unreachable")
}

func parseRescore(body json.RawMessage) (Node, error) {
	var rb rescoreBody
	if err := json.Unmarshal(body, &rb); err != nil {
		return nil, fmt.Errorf("decode rescore: %w", err)
	}
	s, err := scriptFromWire(rb.Query.RescoreQuery.FunctionScore)
	if err != nil {
		return nil, fmt.Errorf("decode rescore_query: %w", err)
	}
	return Rescore{
		WindowSize:         rb.WindowSize,
		ScoreMode:          rb.Query.ScoreMode,
		Script:             s,
		QueryWeight:        rb.Query.QueryWeight,
		RescoreQueryWeight: rb.Query.RescoreQueryWeight,
	}, nil
}

func parseDecay(shape string, body json.RawMessage) (Function, error) {
	var fields map[string]decayBody
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode %s decay: %w", shape, err)
	}
	if len(fields) != 1 {
		return nil, fmt.Errorf("decode %s decay: want one field, got %d", shape, len(fields))
	}
	for name, d := range fields {
		return DateDecay{
			Shape:  shape,
			Field:  name,
			Origin: d.Origin,
			Scale:  d.Scale,
			Offset: d.Offset,
			Decay:  d.Decay,
		}, nil
	}
	panic("unreachable")
}

func parseNodes(raw []json.RawMessage) ([]Node, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Node, 0, len(raw))
	for i, r := range raw {
		n, err := Parse(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func singleKey(obj map[string]json.RawMessage) (string, json.RawMessage, error) {
	if len(obj) != 1 {
		return "", nil, fmt.Errorf("decode clause: want one key, got %v", keys(obj))
	}
	for k, v := range obj {
		return k, v, nil
	}
	panic("unreachable")
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
