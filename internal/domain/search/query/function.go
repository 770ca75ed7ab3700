package query

import (
	"encoding/json"
)

// Store-side scoring script identifiers.
const (
	ScriptLang   = "knn"
	ScriptSource = "binary_vector_score"
)

// Boost and score modes accepted by function_score and rescore.
const (
	ModeReplace  = "replace"
	ModeMultiply = "multiply"
	ModeSum      = "sum"
	ModeAvg      = "avg"
	ModeMax      = "max"
	ModeMin      = "min"
)

// Function is a scoring function inside a FunctionScore. The set of
// implementations is closed.
type Function interface {
	json.Marshaler
	function()
}

// ScriptScore scores documents by vector similarity between Vector and the
// indexed vector field. It is usable both as a query node and as a function.
type ScriptScore struct {
	Field  string
	Vector []float32
	Cosine bool
	Weight float64 // 0 means unset
}

// DateDecay lowers the score of documents as their date moves away from Origin.
type DateDecay struct {
	Shape  string // linear, gauss or exp
	Field  string
	Origin string
	Scale  string
	Offset string
	Decay  float64
}

// FilterWeight multiplies the score of documents matching Filter by Weight.
type FilterWeight struct {
	Filter Node
	Weight float64
}

func (ScriptScore) node()      {}
func (ScriptScore) function()  {}
func (DateDecay) function()    {}
func (FilterWeight) function() {}

type scriptParams struct {
	Field  string    `json:"field"`
	Vector []float32 `json:"vector"`
	Cosine bool      `json:"cosine"`
}

type script struct {
	Lang   string       `json:"lang"`
	Params scriptParams `json:"params"`
	Source string       `json:"source"`
}

type scriptScoreBody struct {
	Script script `json:"script"`
}

type scriptScoreWire struct {
	ScriptScore scriptScoreBody `json:"script_score"`
	Weight      float64         `json:"weight,omitempty"`
}

func (s ScriptScore) wire() scriptScoreWire {
	vector := s.Vector
	if vector == nil {
		vector = []float32{}
	}
	return scriptScoreWire{
		ScriptScore: scriptScoreBody{Script: script{
			Lang:   ScriptLang,
			Params: scriptParams{Field: s.Field, Vector: vector, Cosine: s.Cosine},
			Source: ScriptSource,
		}},
		Weight: s.Weight,
	}
}

// MarshalJSON encodes {"script_score": {"script": {"lang", "params", "source"}}, "weight"}.
func (s ScriptScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

type decayBody struct {
	Origin string  `json:"origin,omitempty"`
	Scale  string  `json:"scale"`
	Offset string  `json:"offset,omitempty"`
	Decay  float64 `json:"decay,omitempty"`
}

// MarshalJSON encodes {shape: {field: {"origin", "scale", "offset", "decay"}}}.
func (d DateDecay) MarshalJSON() ([]byte, error) {
	shape := d.Shape
	if shape == "" {
		shape = "linear"
	}
	return json.Marshal(map[string]map[string]decayBody{
		shape: {d.Field: {Origin: d.Origin, Scale: d.Scale, Offset: d.Offset, Decay: d.Decay}},
	})
}

type filterWeightWire struct {
	Filter Node    `json:"filter"`
	Weight float64 `json:"weight"`
}

// MarshalJSON encodes {"filter": node, "weight": w}.
func (f FilterWeight) MarshalJSON() ([]byte, error) {
	return json.Marshal(filterWeightWire(f))
}

// Rescore re-ranks the top WindowSize hits with a vector script score.
type Rescore struct {
	WindowSize         int
	ScoreMode          string
	Script             ScriptScore
	QueryWeight        float64
	RescoreQueryWeight float64
}

func (Rescore) node() {}

type rescoreQuery struct {
	FunctionScore scriptScoreWire `json:"function_score"`
}

type rescoreQueryBody struct {
	ScoreMode          string       `json:"score_mode"`
	RescoreQuery       rescoreQuery `json:"rescore_query"`
	QueryWeight        float64      `json:"query_weight"`
	RescoreQueryWeight float64      `json:"rescore_query_weight"`
}

type rescoreBody struct {
	WindowSize int              `json:"window_size"`
	Query      rescoreQueryBody `json:"query"`
}

func (r Rescore) body() rescoreBody {
	return rescoreBody{
		WindowSize: r.WindowSize,
		Query: rescoreQueryBody{
			ScoreMode:          r.ScoreMode,
			RescoreQuery:       rescoreQuery{FunctionScore: r.Script.wire()},
			QueryWeight:        r.QueryWeight,
			RescoreQueryWeight: r.RescoreQueryWeight,
		},
	}
}

// MarshalJSON encodes {"rescore": {"window_size", "query": {"score_mode",
// "rescore_query": {"function_score": script_score}, "query_weight", "rescore_query_weight"}}}.
func (r Rescore) MarshalJSON() ([]byte, error) {
	return wrap("rescore", r.body())
}
