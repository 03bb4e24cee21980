// Package agent provides scripted driving policies that produce raw
// actions for the merge environment.
package agent

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Policy maps an observation to a raw action in [-1, 1]^n.
type Policy interface {
	Act(obs *mat.Dense) []float64
}

// ValidPolicies is the set of recognized policy names.
var ValidPolicies = map[string]bool{"idle": true, "random": true}

// Idle always returns the neutral action: zero acceleration, zero steering.
type Idle struct {
	dim int
}

func (p *Idle) Act(*mat.Dense) []float64 {
	return make([]float64, p.dim)
}

// Random draws every entry uniformly from [-1, 1).
type Random struct {
	dim int
	rng *rand.Rand
}

func (p *Random) Act(*mat.Dense) []float64 {
	out := make([]float64, p.dim)
	for i := range out {
		out[i] = 2*p.rng.Float64() - 1
	}
	return out
}

// NewPolicy creates the named policy for actions of length dim. rng is only
// used by the random policy and must be non-nil for it.
func NewPolicy(name string, dim int, rng *rand.Rand) (Policy, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("action dimension must be positive, got %d", dim)
	}
	switch name {
	case "", "idle":
		return &Idle{dim: dim}, nil
	case "random":
		if rng == nil {
			return nil, fmt.Errorf("random policy requires an RNG")
		}
		return &Random{dim: dim, rng: rng}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q; valid options: idle, random", name)
	}
}
