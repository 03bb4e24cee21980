package traffic

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/samber/lo"

	"github.com/merge-sim/merge-sim/sim/road"
)

// Controller time constants and gains.
const (
	TauAcc     = 0.6 // [s]
	TauHeading = 0.2 // [s]
	TauLateral = 0.6 // [s]
	TauPursuit = 0.5 * TauHeading

	KpA       = 1 / TauAcc
	KpHeading = 1 / TauHeading
	KpLateral = 1 / TauLateral

	MaxSteeringAngle = math.Pi / 3 // [rad]
)

// ControlledVehicle tracks a target lane and a target speed with a lateral
// pursuit controller and a proportional speed controller. When Route is set
// the vehicle follows it at every junction.
type ControlledVehicle struct {
	*Vehicle
	TargetLaneIndex road.LaneIndex
	Route           []string // planned node sequence, empty to pick successors at random
}

// NewControlledVehicle places a controlled vehicle on r. Its target speed
// starts at its initial speed and its target lane at its current lane.
func NewControlledVehicle(r *Road, position orb.Point, heading, speed float64) *ControlledVehicle {
	v := NewVehicle(r, position, heading, speed)
	return &ControlledVehicle{Vehicle: v, TargetLaneIndex: v.LaneIndex}
}

// Controller is implemented by every vehicle built on ControlledVehicle.
type Controller interface {
	Controlled() *ControlledVehicle
}

// Controlled returns the vehicle itself; embedding types inherit it.
func (c *ControlledVehicle) Controlled() *ControlledVehicle { return c }

// PlanRouteTo plans the shortest route from the end of the current lane to
// destination.
func (c *ControlledVehicle) PlanRouteTo(destination string) error {
	if c.road == nil {
		return fmt.Errorf("planning route to %q: vehicle is not on a road", destination)
	}
	route, err := c.road.Network.ShortestPath(c.LaneIndex.To, destination)
	if err != nil {
		return fmt.Errorf("planning route to %q: %w", destination, err)
	}
	c.Route = route
	return nil
}

// Act steers toward the target lane and regulates toward the target speed.
func (c *ControlledVehicle) Act() {
	c.FollowRoad()
	c.SetAction(Action{
		Steering:     c.SteeringControl(c.TargetLaneIndex),
		Acceleration: c.SpeedControl(c.TargetSpeed),
	})
}

// FollowRoad moves the target lane onto the next edge once the current target
// lane has been driven to its end.
func (c *ControlledVehicle) FollowRoad() {
	if c.road == nil {
		return
	}
	target, err := c.road.Network.Lane(c.TargetLaneIndex)
	if err != nil {
		return
	}
	if road.AfterEnd(target, c.Position) {
		c.TargetLaneIndex = c.road.Network.NextLane(c.TargetLaneIndex, c.Route, c.Position, c.road.Rand)
	}
}

// SteeringControl returns the wheel angle that brings the vehicle onto the
// centre line of the target lane.
func (c *ControlledVehicle) SteeringControl(target road.LaneIndex) float64 {
	if c.road == nil {
		return 0
	}
	lane, err := c.road.Network.Lane(target)
	if err != nil {
		return 0
	}
	s, r := lane.LocalCoordinates(c.Position)
	futureHeading := lane.HeadingAt(s + c.Speed*TauPursuit)

	lateralSpeedCommand := -KpLateral * r
	headingCommand := math.Asin(lo.Clamp(lateralSpeedCommand/notZero(c.Speed), -1, 1))
	headingRef := futureHeading + lo.Clamp(headingCommand, -math.Pi/4, math.Pi/4)

	headingRateCommand := KpHeading * road.WrapToPi(headingRef-c.Heading)
	slipAngle := math.Asin(lo.Clamp(c.Length/2/notZero(c.Speed)*headingRateCommand, -1, 1))
	steering := math.Atan(2 * math.Tan(slipAngle))
	return lo.Clamp(steering, -MaxSteeringAngle, MaxSteeringAngle)
}

// SpeedControl returns the acceleration that tracks targetSpeed.
func (c *ControlledVehicle) SpeedControl(targetSpeed float64) float64 {
	return KpA * (targetSpeed - c.Speed)
}

const epsilon = 1e-2

// notZero pushes x away from zero by at least epsilon, keeping its sign.
func notZero(x float64) float64 {
	if math.Abs(x) > epsilon {
		return x
	}
	if x >= 0 {
		return epsilon
	}
	return -epsilon
}
