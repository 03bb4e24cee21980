// Package trace provides per-step episode recording for offline analysis.
// This package has no dependencies on sim/ or its sub-packages; it stores
// pure data types.
package trace

// EgoState captures the ego vehicle after a step.
type EgoState struct {
	X       float64 `msgpack:"x" json:"x"`
	Y       float64 `msgpack:"y" json:"y"`
	Heading float64 `msgpack:"heading" json:"heading"`
	Speed   float64 `msgpack:"speed" json:"speed"`
	Lane    string  `msgpack:"lane" json:"lane"`
	OnRoad  bool    `msgpack:"on_road" json:"on_road"`
	Crashed bool    `msgpack:"crashed" json:"crashed"`
}

// StepRecord captures a single policy step.
type StepRecord struct {
	Step       int                `msgpack:"step" json:"step"`
	Time       float64            `msgpack:"time" json:"time"` // simulated seconds since reset
	Action     []float64          `msgpack:"action" json:"action"`
	Reward     float64            `msgpack:"reward" json:"reward"`
	Components map[string]float64 `msgpack:"components" json:"components"` // unweighted reward terms (may be nil)
	Ego        EgoState           `msgpack:"ego" json:"ego"`
	Terminated bool               `msgpack:"terminated" json:"terminated"`
	Truncated  bool               `msgpack:"truncated" json:"truncated"`
}
