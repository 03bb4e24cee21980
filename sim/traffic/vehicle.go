package traffic

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

const (
	// VehicleLength and VehicleWidth are the footprint of every vehicle.
	VehicleLength = 5.0
	VehicleWidth  = 2.0
	// MaxSpeed and MinSpeed bound the speed reached through integration.
	MaxSpeed = 40.0
	MinSpeed = -40.0
	// HistorySize is how many past states a vehicle keeps when recording.
	HistorySize = 30
)

// Action is the low-level command applied by Step.
type Action struct {
	Steering     float64 // front wheel angle [rad]
	Acceleration float64 // [m/s²]
}

// Snapshot is a recorded vehicle state.
type Snapshot struct {
	Position orb.Point
	Heading  float64
	Speed    float64
}

// Actor is anything the Road acts and steps every simulation frame.
type Actor interface {
	Body() *Object
	Kinematics() *Vehicle
	Act()
	Step(dt float64)
}

// Vehicle is a kinematic bicycle model driven by an externally set Action.
type Vehicle struct {
	Object

	Action  Action
	History []Snapshot // most recent first
}

// NewVehicle places a kinematic vehicle on r.
func NewVehicle(r *Road, position orb.Point, heading, speed float64) *Vehicle {
	return &Vehicle{
		Object: newObject(r, KindVehicle, position, heading, speed, VehicleLength, VehicleWidth),
	}
}

// Kinematics returns the vehicle itself; embedding types inherit it.
func (v *Vehicle) Kinematics() *Vehicle { return v }

// Act keeps the last action set through SetAction.
func (v *Vehicle) Act() {}

// SetAction stores the command used by the next Step calls.
func (v *Vehicle) SetAction(a Action) {
	v.Action = a
}

func (v *Vehicle) clipActions() {
	if v.Crashed {
		v.Action.Steering = 0
		v.Action.Acceleration = -1.0 * v.Speed
	}
	if v.Speed > MaxSpeed {
		v.Action.Acceleration = math.Min(v.Action.Acceleration, 1.0*(MaxSpeed-v.Speed))
	} else if v.Speed < MinSpeed {
		v.Action.Acceleration = math.Max(v.Action.Acceleration, 1.0*(MinSpeed-v.Speed))
	}
}

// Step integrates the bicycle model over dt seconds and refreshes the lane.
func (v *Vehicle) Step(dt float64) {
	v.clipActions()
	beta := math.Atan(0.5 * math.Tan(v.Action.Steering))
	v.Position = orb.Point{
		v.Position[0] + v.Speed*math.Cos(v.Heading+beta)*dt,
		v.Position[1] + v.Speed*math.Sin(v.Heading+beta)*dt,
	}
	v.Heading += v.Speed * math.Sin(beta) / (v.Length / 2) * dt
	v.Speed += v.Action.Acceleration * dt
	v.onStateUpdate()
}

func (v *Vehicle) onStateUpdate() {
	if v.road == nil || v.road.Network == nil {
		return
	}
	v.LaneIndex = v.road.Network.ClosestLaneIndex(v.Position, v.Heading)
	v.Lane, _ = v.road.Network.Lane(v.LaneIndex)
	if v.road.RecordHistory {
		v.History = append([]Snapshot{{Position: v.Position, Heading: v.Heading, Speed: v.Speed}}, v.History...)
		if len(v.History) > HistorySize {
			v.History = v.History[:HistorySize]
		}
	}
}

// Trajectory returns the recorded positions from oldest to newest.
func (v *Vehicle) Trajectory() orb.LineString {
	return lo.Reverse(lo.Map(v.History, func(s Snapshot, _ int) orb.Point {
		return s.Position
	}))
}
