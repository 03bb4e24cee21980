package env

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/merge-sim/merge-sim/sim/traffic"
)

// Config is the scenario configuration, keyed in YAML by the scenario's
// configuration keys. Rendering keys are accepted and carried but not acted
// upon.
type Config struct {
	Observation ObservationConfig `yaml:"observation"`
	Action      ActionConfig      `yaml:"action"`

	SimulationFrequency    int     `yaml:"simulation_frequency"` // [Hz]
	PolicyFrequency        int     `yaml:"policy_frequency"`     // [Hz]
	Duration               float64 `yaml:"duration"`             // [s], carried for the host loop
	OtherVehiclesType      string  `yaml:"other_vehicles_type"`
	DisableCollisionChecks bool    `yaml:"disable_collision_checks"`
	ShowTrajectories       bool    `yaml:"show_trajectories"`

	ScreenWidth        int       `yaml:"screen_width"`  // [px]
	ScreenHeight       int       `yaml:"screen_height"` // [px]
	CenteringPosition  []float64 `yaml:"centering_position"`
	Scaling            float64   `yaml:"scaling"`
	RenderAgent        bool      `yaml:"render_agent"`
	OffscreenRendering bool      `yaml:"offscreen_rendering"`
	ManualControl      bool      `yaml:"manual_control"`
	RealTimeRendering  bool      `yaml:"real_time_rendering"`

	CollisionReward    float64   `yaml:"collision_reward"`
	RightLaneReward    float64   `yaml:"right_lane_reward"`
	HighSpeedReward    float64   `yaml:"high_speed_reward"`
	RewardSpeedRange   []float64 `yaml:"reward_speed_range"`
	RewardHeadingRange []float64 `yaml:"reward_heading_range"` // declared, not used by the reward
	MergingSpeedReward float64   `yaml:"merging_speed_reward"`
	LaneChangeReward   float64   `yaml:"lane_change_reward"`
	SpeedReward        float64   `yaml:"speed_reward"`
	TurningPenalty     float64   `yaml:"turning_penalty"` // declared, not used by the reward
	AccelPenalty       float64   `yaml:"accel_penalty"`
	ForwardReward      float64   `yaml:"forward_reward"`
	OffRoadPenalty     float64   `yaml:"off_road_penalty"` // declared, not used by the reward
}

// ObservationConfig selects and scales the observed vehicle features.
type ObservationConfig struct {
	Type          string    `yaml:"type"`
	Features      []string  `yaml:"features"`
	Scales        []float64 `yaml:"scales,omitempty"`
	VehiclesCount int       `yaml:"vehicles_count"`
	Absolute      bool      `yaml:"absolute"`
}

// ActionConfig maps raw actions in [-1, 1] to vehicle commands.
type ActionConfig struct {
	Type              string    `yaml:"type"`
	Longitudinal      bool      `yaml:"longitudinal"`
	Lateral           bool      `yaml:"lateral"`
	Clip              bool      `yaml:"clip"`
	AccelerationRange []float64 `yaml:"acceleration_range"` // [m/s²]
	SteeringRange     []float64 `yaml:"steering_range"`     // [rad]
}

// DefaultConfig returns the scenario defaults.
func DefaultConfig() Config {
	return Config{
		Observation: ObservationConfig{
			Type:          "Kinematics",
			Features:      []string{"presence", "x", "y", "vx", "vy"},
			VehiclesCount: 5,
		},
		Action: ActionConfig{
			Type:              "ContinuousAction",
			Longitudinal:      true,
			Lateral:           true,
			Clip:              true,
			AccelerationRange: []float64{-5, 5},
			SteeringRange:     []float64{-math.Pi / 4, math.Pi / 4},
		},
		SimulationFrequency: 15,
		PolicyFrequency:     1,
		OtherVehiclesType:   "highway_env.vehicle.behavior.IDMVehicle",
		Duration:            40,

		ScreenWidth:       600,
		ScreenHeight:      150,
		CenteringPosition: []float64{0.3, 0.5},
		Scaling:           5.5,
		RenderAgent:       true,

		CollisionReward:    -1,
		RightLaneReward:    0.1,
		HighSpeedReward:    0.2,
		RewardSpeedRange:   []float64{20, 30},
		RewardHeadingRange: []float64{-0.01, 0.01},
		MergingSpeedReward: -0.5,
		LaneChangeReward:   -0.05,
		SpeedReward:        1.0,
		TurningPenalty:     -0.5,
		AccelPenalty:       0.5,
		ForwardReward:      0.5,
		OffRoadPenalty:     -2,
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Observation.Features = slices.Clone(c.Observation.Features)
	out.Observation.Scales = slices.Clone(c.Observation.Scales)
	out.Action.AccelerationRange = slices.Clone(c.Action.AccelerationRange)
	out.Action.SteeringRange = slices.Clone(c.Action.SteeringRange)
	out.CenteringPosition = slices.Clone(c.CenteringPosition)
	out.RewardSpeedRange = slices.Clone(c.RewardSpeedRange)
	out.RewardHeadingRange = slices.Clone(c.RewardHeadingRange)
	return out
}

// ParseConfig decodes YAML onto a copy of base: keys present in data
// override base (recursively for nested sections), absent keys keep their
// base value. Unknown keys are errors.
func ParseConfig(data []byte, base Config) (Config, error) {
	cfg := base.Clone()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing scenario config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML overlay from path onto a copy of base.
func LoadConfig(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading scenario config: %w", err)
	}
	return ParseConfig(data, base)
}

// ValidObservationTypes is the set of recognized observation types.
var ValidObservationTypes = map[string]bool{"Kinematics": true}

// ValidActionTypes is the set of recognized action types.
var ValidActionTypes = map[string]bool{"ContinuousAction": true}

// ValidFeatures is the set of recognized kinematics features.
var ValidFeatures = map[string]bool{
	"presence": true, "x": true, "y": true, "vx": true, "vy": true,
	"heading": true, "cos_h": true, "sin_h": true,
}

// Validate checks frequencies, ranges, names and that every reward weight
// is finite.
func (c *Config) Validate() error {
	if c.SimulationFrequency <= 0 || c.PolicyFrequency <= 0 {
		return fmt.Errorf("simulation_frequency and policy_frequency must be positive, got %d and %d",
			c.SimulationFrequency, c.PolicyFrequency)
	}
	if c.PolicyFrequency > c.SimulationFrequency {
		return fmt.Errorf("policy_frequency (%d) must not exceed simulation_frequency (%d)",
			c.PolicyFrequency, c.SimulationFrequency)
	}
	if !traffic.IsValidVehicleType(c.OtherVehiclesType) {
		return fmt.Errorf("other_vehicles_type %q: %w", c.OtherVehiclesType, traffic.ErrUnknownVehicleType)
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"collision_reward", c.CollisionReward},
		{"right_lane_reward", c.RightLaneReward},
		{"high_speed_reward", c.HighSpeedReward},
		{"merging_speed_reward", c.MergingSpeedReward},
		{"lane_change_reward", c.LaneChangeReward},
		{"speed_reward", c.SpeedReward},
		{"turning_penalty", c.TurningPenalty},
		{"accel_penalty", c.AccelPenalty},
		{"forward_reward", c.ForwardReward},
		{"off_road_penalty", c.OffRoadPenalty},
	}
	for _, w := range weights {
		if !isFinite(w.value) {
			return fmt.Errorf("%s must be finite, got %v", w.name, w.value)
		}
	}
	if err := validateRange("reward_speed_range", c.RewardSpeedRange, true); err != nil {
		return err
	}
	if len(c.RewardHeadingRange) > 0 {
		if err := validateRange("reward_heading_range", c.RewardHeadingRange, false); err != nil {
			return err
		}
	}

	if !ValidObservationTypes[c.Observation.Type] {
		return fmt.Errorf("unknown observation type %q", c.Observation.Type)
	}
	if len(c.Observation.Features) == 0 {
		return fmt.Errorf("observation features must not be empty")
	}
	for _, f := range c.Observation.Features {
		if !ValidFeatures[f] {
			return fmt.Errorf("unknown observation feature %q", f)
		}
	}
	if n := len(c.Observation.Scales); n > 0 && n != len(c.Observation.Features) {
		return fmt.Errorf("observation scales has %d entries for %d features", n, len(c.Observation.Features))
	}
	for i, s := range c.Observation.Scales {
		if s == 0 || !isFinite(s) {
			return fmt.Errorf("observation scale %d must be finite and non-zero, got %v", i, s)
		}
	}
	if c.Observation.VehiclesCount < 1 {
		return fmt.Errorf("observation vehicles_count must be at least 1, got %d", c.Observation.VehiclesCount)
	}

	if !ValidActionTypes[c.Action.Type] {
		return fmt.Errorf("unknown action type %q", c.Action.Type)
	}
	if !c.Action.Longitudinal && !c.Action.Lateral {
		return fmt.Errorf("action must enable longitudinal or lateral control")
	}
	if err := validateRange("acceleration_range", c.Action.AccelerationRange, false); err != nil {
		return err
	}
	if err := validateRange("steering_range", c.Action.SteeringRange, false); err != nil {
		return err
	}
	return nil
}

func validateRange(name string, r []float64, distinct bool) error {
	if len(r) != 2 {
		return fmt.Errorf("%s must have 2 entries, got %d", name, len(r))
	}
	if !isFinite(r[0]) || !isFinite(r[1]) {
		return fmt.Errorf("%s must be finite, got %v", name, r)
	}
	if distinct && r[0] == r[1] {
		return fmt.Errorf("%s bounds must differ, got %v", name, r)
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
