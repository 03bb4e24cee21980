// Package env is the merge scenario environment: its configuration, road
// and vehicle construction, reward, action mapping, observation and the
// Configure / Reset / Step surface.
package env

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/merge-sim/merge-sim/sim"
	"github.com/merge-sim/merge-sim/sim/traffic"
)

// MergeEnvID is the identifier of the merge scenario.
const MergeEnvID = "merge-custom-v0"

// ValidEnvironments is the set of recognized environment identifiers.
var ValidEnvironments = map[string]bool{MergeEnvID: true}

// ErrNotReset is returned by Step before the first Reset.
var ErrNotReset = errors.New("environment not reset")

// Info is the auxiliary information returned by Reset and Step.
type Info struct {
	Speed   float64            `json:"speed" yaml:"speed"`
	Crashed bool               `json:"crashed" yaml:"crashed"`
	Action  []float64          `json:"action" yaml:"action"`
	Rewards map[string]float64 `json:"rewards" yaml:"rewards"`
}

// StepResult is the outcome of one policy step.
type StepResult struct {
	Observation *mat.Dense
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
}

// Env is a single merge scenario instance. It is not safe for concurrent use.
type Env struct {
	cfg         Config
	action      *ContinuousAction
	observation *KinematicsObservation

	rng     *sim.PartitionedRNG
	road    *traffic.Road
	vehicle *traffic.Vehicle
	steps   int
	time    float64
}

// New validates cfg and returns an environment awaiting Reset.
func New(cfg Config) (*Env, error) {
	e := &Env{}
	if err := e.Configure(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Configure replaces the configuration. It takes effect at the next Reset.
func (e *Env) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	e.cfg = cfg.Clone()
	return nil
}

// Config returns a copy of the active configuration.
func (e *Env) Config() Config { return e.cfg.Clone() }

// Road returns the populated road, nil before Reset.
func (e *Env) Road() *traffic.Road { return e.road }

// Vehicle returns the ego vehicle, nil before Reset.
func (e *Env) Vehicle() *traffic.Vehicle { return e.vehicle }

// Steps is the number of policy steps since Reset.
func (e *Env) Steps() int { return e.steps }

// Time is the simulated time since Reset [s].
func (e *Env) Time() float64 { return e.time }

// RNG returns the partitioned RNG of the current episode, nil before Reset.
func (e *Env) RNG() *sim.PartitionedRNG { return e.rng }

// ActionDim is the length of the raw action Step expects.
func (e *Env) ActionDim() int { return NewContinuousAction(e.cfg.Action).Dim() }

// Reset builds a fresh road and vehicles for seed and returns the first
// observation. The info carries a randomly sampled action.
func (e *Env) Reset(seed int64) (*mat.Dense, Info, error) {
	e.rng = sim.NewPartitionedRNG(sim.NewEpisodeKey(seed))
	e.action = NewContinuousAction(e.cfg.Action)
	e.observation = NewKinematicsObservation(e.cfg.Observation)
	e.steps, e.time = 0, 0

	e.road = MakeRoad(e.cfg, e.rng.ForSubsystem(sim.SubsystemRoad))
	ego, err := MakeVehicles(e.road, e.cfg)
	if err != nil {
		e.road, e.vehicle = nil, nil
		return nil, Info{}, fmt.Errorf("reset: %w", err)
	}
	e.vehicle = ego
	logrus.Debugf("reset seed=%d: %d lanes, %d vehicles, ego at %v on %s",
		seed, e.road.Network.LaneCount(), len(e.road.Vehicles), ego.Position, ego.LaneIndex)

	obs := e.observation.Observe(e.road, e.vehicle)
	return obs, e.info(e.action.Sample(e.rng.ForSubsystem(sim.SubsystemAction))), nil
}

// Step applies action to the ego for one policy period and advances every
// vehicle simulation_frequency / policy_frequency frames.
func (e *Env) Step(action []float64) (StepResult, error) {
	if e.road == nil || e.vehicle == nil {
		return StepResult{}, ErrNotReset
	}
	control, err := e.action.Control(action)
	if err != nil {
		return StepResult{}, err
	}

	frames := e.cfg.SimulationFrequency / e.cfg.PolicyFrequency
	dt := 1 / float64(e.cfg.SimulationFrequency)
	for frame := 0; frame < frames; frame++ {
		if frame == 0 && !e.cfg.ManualControl {
			e.vehicle.SetAction(control)
		}
		e.road.Act()
		e.road.Step(dt)
	}
	e.steps++
	e.time += float64(frames) * dt

	res := StepResult{
		Observation: e.observation.Observe(e.road, e.vehicle),
		Reward:      e.Reward(action),
		Terminated:  e.IsTerminated(),
		Truncated:   e.IsTruncated(),
		Info:        e.info(action),
	}
	logrus.Debugf("step %d t=%.2f: x=%.2f speed=%.2f reward=%.3f terminated=%v",
		e.steps, e.time, e.vehicle.Position[0], e.vehicle.Speed, res.Reward, res.Terminated)
	return res, nil
}

// Reward scores the ego for the raw action it was given.
func (e *Env) Reward(action []float64) float64 {
	return reward(&e.cfg, e.vehicle, action)
}

// Rewards returns the per-term reward components for the raw action.
func (e *Env) Rewards(action []float64) map[string]float64 {
	return rewards(&e.cfg, e.road, e.vehicle, action)
}

// IsTerminated reports whether the ego crashed, passed the end of the merge
// section or left the road.
func (e *Env) IsTerminated() bool {
	return isTerminated(e.vehicle)
}

// IsTruncated is always false: the scenario has no time limit of its own.
func (e *Env) IsTruncated() bool {
	return false
}

func isTerminated(ego *traffic.Vehicle) bool {
	return ego.Crashed || ego.Position[0] > TerminationX || !ego.OnRoad()
}

func (e *Env) info(action []float64) Info {
	return Info{
		Speed:   e.vehicle.Speed,
		Crashed: e.vehicle.Crashed,
		Action:  action,
		Rewards: e.Rewards(action),
	}
}
