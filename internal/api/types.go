package api

import (
	"encoding/json"
	"strconv"

	"gosprt/adapters/simulation"
	"gosprt/domain/sprt"
)

// Ratio is a likelihood ratio as sent over JSON. JSON has no Inf or NaN,
// so those encode as the strings "+Inf" and "indeterminate".
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	if sprt.Classify(float64(r)) != sprt.EvidenceFinite {
		return json.Marshal(sprt.FormatRatio(float64(r)))
	}
	return []byte(strconv.FormatFloat(float64(r), 'g', -1, 64)), nil
}

func toRatios(in []float64) []Ratio {
	out := make([]Ratio, len(in))
	for i, v := range in {
		out[i] = Ratio(v)
	}
	return out
}

// RatiosRequest asks for the likelihood ratio path of an observed sequence.
type RatiosRequest struct {
	Outcomes []int    `json:"outcomes"`
	N        int      `json:"n"`
	P0       float64  `json:"p0"`
	P1       float64  `json:"p1"`
	Alpha    *float64 `json:"alpha,omitempty"`
}

// RatiosResponse carries the path and, when alpha was given, the decision.
type RatiosResponse struct {
	Ratios   []Ratio          `json:"ratios"`
	Evidence string           `json:"evidence"`
	Decision *DecisionPayload `json:"decision,omitempty"`
}

// DecisionPayload is sprt.Decision with a JSON-safe final ratio.
type DecisionPayload struct {
	Rejected   bool    `json:"rejected"`
	Draws      int     `json:"draws"`
	Threshold  float64 `json:"threshold"`
	FinalRatio Ratio   `json:"final_ratio"`
}

func newDecisionPayload(d sprt.Decision) *DecisionPayload {
	return &DecisionPayload{
		Rejected:   d.Rejected,
		Draws:      d.Draws,
		Threshold:  d.Threshold,
		FinalRatio: Ratio(d.FinalRatio),
	}
}

// SimulationRequest describes a Monte Carlo study. Zero-valued optional
// fields fall back to the server's configured defaults.
type SimulationRequest struct {
	N       int      `json:"n"`
	P       float64  `json:"p"`
	P0      float64  `json:"p0"`
	P1      float64  `json:"p1"`
	Alpha   float64  `json:"alpha,omitempty"`
	Trials  int      `json:"trials,omitempty"`
	Seed    *uint64  `json:"seed,omitempty"`
	Workers int      `json:"workers,omitempty"`
}

// SimulationResponse wraps a simulation result.
type SimulationResponse struct {
	*simulation.Result
}
