package env

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/samber/lo"

	"github.com/merge-sim/merge-sim/sim/traffic"
)

// ErrInvalidAction is returned when a raw action has the wrong dimension.
var ErrInvalidAction = errors.New("invalid action")

// ContinuousAction maps a raw action in [-1, 1]^n to acceleration and
// steering commands. The first entry drives acceleration when longitudinal
// control is enabled; the next drives steering when lateral control is.
type ContinuousAction struct {
	cfg ActionConfig
}

// NewContinuousAction creates the action mapping for cfg.
func NewContinuousAction(cfg ActionConfig) *ContinuousAction {
	return &ContinuousAction{cfg: cfg}
}

// Dim is the number of enabled control axes.
func (a *ContinuousAction) Dim() int {
	n := 0
	if a.cfg.Longitudinal {
		n++
	}
	if a.cfg.Lateral {
		n++
	}
	return n
}

// Control converts raw into the command applied to the ego vehicle.
// A disabled axis is held at zero.
func (a *ContinuousAction) Control(raw []float64) (traffic.Action, error) {
	if len(raw) != a.Dim() {
		return traffic.Action{}, fmt.Errorf("%w: got %d entries, want %d", ErrInvalidAction, len(raw), a.Dim())
	}
	in := raw
	if a.cfg.Clip {
		in = lo.Map(raw, func(x float64, _ int) float64 { return lo.Clamp(x, -1, 1) })
	}
	var out traffic.Action
	i := 0
	if a.cfg.Longitudinal {
		out.Acceleration = lmap(in[i], [2]float64{-1, 1}, rangeOf(a.cfg.AccelerationRange))
		i++
	}
	if a.cfg.Lateral {
		out.Steering = lmap(in[i], [2]float64{-1, 1}, rangeOf(a.cfg.SteeringRange))
	}
	return out, nil
}

// Sample draws a uniform raw action from [-1, 1]^Dim.
func (a *ContinuousAction) Sample(rng *rand.Rand) []float64 {
	out := make([]float64, a.Dim())
	for i := range out {
		out[i] = 2*rng.Float64() - 1
	}
	return out
}

// lmap linearly maps v from range x to range y, without clipping.
func lmap(v float64, x, y [2]float64) float64 {
	return y[0] + (v-x[0])*(y[1]-y[0])/(x[1]-x[0])
}

func rangeOf(r []float64) [2]float64 {
	return [2]float64{r[0], r[1]}
}
