package traffic

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/samber/lo"

	"github.com/merge-sim/merge-sim/sim/road"
)

// IDM longitudinal parameters.
const (
	AccMax         = 6.0  // [m/s²]
	ComfortAccMax  = 3.0  // [m/s²]
	ComfortAccMin  = -5.0 // [m/s²]
	TimeWanted     = 1.5  // [s]
	Delta          = 4.0  // velocity exponent
	DistanceWanted = 5.0 + VehicleLength
)

// MOBIL lateral parameters.
const (
	Politeness                  = 0.0
	LaneChangeMinAccGain        = 0.2 // [m/s²]
	LaneChangeMaxBrakingImposed = 2.0 // [m/s²]
	LaneChangeDelay             = 1.0 // [s]
)

// IDMVehicle follows its lane with the Intelligent Driver Model and changes
// lanes when the MOBIL incentive and safety criteria both hold.
type IDMVehicle struct {
	*ControlledVehicle
	EnableLaneChange bool
	Delta            float64

	timer float64
}

// NewIDMVehicle places an IDM vehicle on r.
func NewIDMVehicle(r *Road, position orb.Point, heading, speed float64) *IDMVehicle {
	return &IDMVehicle{
		ControlledVehicle: NewControlledVehicle(r, position, heading, speed),
		EnableLaneChange:  true,
		Delta:             Delta,
		timer:             math.Mod((position[0]+position[1])*math.Pi, LaneChangeDelay),
	}
}

// Act computes steering toward the target lane and the IDM acceleration
// with respect to the vehicle ahead.
func (v *IDMVehicle) Act() {
	if v.Crashed || v.road == nil {
		return
	}
	v.FollowRoad()
	if v.EnableLaneChange {
		v.changeLanePolicy()
	}
	steering := v.SteeringControl(v.TargetLaneIndex)

	front, _ := v.road.NeighbourVehicles(v.Body(), v.LaneIndex)
	acc := v.acceleration(v.Body(), front)
	if v.LaneIndex != v.TargetLaneIndex {
		targetFront, _ := v.road.NeighbourVehicles(v.Body(), v.TargetLaneIndex)
		if targetFront != nil {
			acc = math.Min(acc, v.acceleration(v.Body(), targetFront))
		}
	}
	v.SetAction(Action{
		Steering:     steering,
		Acceleration: lo.Clamp(acc, -AccMax, AccMax),
	})
}

// Step advances the lane change timer before integrating.
func (v *IDMVehicle) Step(dt float64) {
	v.timer += dt
	v.Vehicle.Step(dt)
}

// acceleration is the IDM command for ego following front. Objects that are
// not vehicles (or a missing ego) yield 0.
func (v *IDMVehicle) acceleration(ego, front *Object) float64 {
	if ego == nil || ego.Kind != KindVehicle {
		return 0
	}
	delta := v.Delta
	if delta == 0 {
		delta = Delta
	}
	target := math.Abs(notZero(ego.TargetSpeed))
	acc := ComfortAccMax * (1 - math.Pow(math.Max(ego.Speed, 0)/target, delta))
	if front != nil {
		d := ego.LaneDistanceTo(front, nil)
		if !math.IsNaN(d) {
			acc -= ComfortAccMax * math.Pow(desiredGap(ego, front)/notZero(d), 2)
		}
	}
	return acc
}

// desiredGap is the IDM dynamic following distance s*.
func desiredGap(ego, front *Object) float64 {
	ab := -ComfortAccMax * ComfortAccMin
	ev, fv := ego.Velocity(), front.Velocity()
	dir := ego.Direction()
	dv := (ev[0]-fv[0])*dir[0] + (ev[1]-fv[1])*dir[1]
	return DistanceWanted + ego.Speed*TimeWanted + ego.Speed*dv/(2*math.Sqrt(ab))
}

func (v *IDMVehicle) changeLanePolicy() {
	if v.LaneIndex != v.TargetLaneIndex {
		// abort if another vehicle is moving into the same target lane next to us
		if v.LaneIndex.From == v.TargetLaneIndex.From && v.LaneIndex.To == v.TargetLaneIndex.To {
			for _, other := range v.road.Vehicles {
				oc, ok := other.(Controller)
				if !ok || oc.Controlled() == v.ControlledVehicle {
					continue
				}
				o := oc.Controlled()
				if o.LaneIndex != v.TargetLaneIndex || o.TargetLaneIndex != v.TargetLaneIndex {
					continue
				}
				d := v.LaneDistanceTo(o.Body(), nil)
				if 0 < d && d < desiredGap(v.Body(), o.Body()) {
					v.TargetLaneIndex = v.LaneIndex
					break
				}
			}
		}
		return
	}

	if v.timer < LaneChangeDelay {
		return
	}
	v.timer = 0

	for _, candidate := range v.road.Network.SideLanes(v.LaneIndex) {
		lane, err := v.road.Network.Lane(candidate)
		if err != nil || lane.Forbidden() || !road.IsReachableFrom(lane, v.Position) {
			continue
		}
		// only change lane when moving
		if math.Abs(v.Speed) < 1 {
			continue
		}
		if v.mobil(candidate) {
			v.TargetLaneIndex = candidate
		}
	}
}

// mobil reports whether moving to laneIndex is both safe for the new
// follower and worth it for the vehicle.
func (v *IDMVehicle) mobil(laneIndex road.LaneIndex) bool {
	self := v.Body()

	newPreceding, newFollowing := v.road.NeighbourVehicles(self, laneIndex)
	newFollowingA := v.acceleration(newFollowing, newPreceding)
	newFollowingPredA := v.acceleration(newFollowing, self)
	if newFollowingPredA < -LaneChangeMaxBrakingImposed {
		return false
	}

	oldPreceding, oldFollowing := v.road.NeighbourVehicles(self, v.LaneIndex)
	selfPredA := v.acceleration(self, newPreceding)
	selfA := v.acceleration(self, oldPreceding)
	oldFollowingA := v.acceleration(oldFollowing, self)
	oldFollowingPredA := v.acceleration(oldFollowing, oldPreceding)

	jerk := selfPredA - selfA + Politeness*(newFollowingPredA-newFollowingA+oldFollowingPredA-oldFollowingA)
	return jerk >= LaneChangeMinAccGain
}
