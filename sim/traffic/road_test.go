package traffic

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merge-sim/merge-sim/sim/road"
)

func TestRoad_NeighbourVehicles_FrontAndRear(t *testing.T) {
	// GIVEN three vehicles on one lane and one on the far lane
	r := newTestRoad(false)
	rear := NewVehicle(r, orb.Point{20, 0}, 0, 10)
	self := NewVehicle(r, orb.Point{50, 0}, 0, 10)
	front := NewVehicle(r, orb.Point{80, 0}, 0, 10)
	farFront := NewVehicle(r, orb.Point{90, 0}, 0, 10)
	other := NewVehicle(r, orb.Point{60, 10}, 0, 10)
	for _, v := range []*Vehicle{rear, self, front, farFront, other} {
		r.AddVehicle(v)
	}

	// WHEN neighbours are queried on self's lane
	gotFront, gotRear := r.NeighbourVehicles(self.Body(), road.LaneIndex{})

	// THEN the closest vehicle on each side is returned
	assert.Same(t, front.Body(), gotFront)
	assert.Same(t, rear.Body(), gotRear)

	// AND querying the far lane finds only the vehicle there
	gotFront, gotRear = r.NeighbourVehicles(self.Body(), road.LaneIndex{From: "a", To: "b", ID: 1})
	assert.Same(t, other.Body(), gotFront)
	assert.Nil(t, gotRear)
}

func TestRoad_NeighbourVehicles_IncludesObstacles(t *testing.T) {
	r := newTestRoad(false)
	self := NewVehicle(r, orb.Point{50, 0}, 0, 10)
	r.AddVehicle(self)
	obs := NewObstacle(r, orb.Point{70, 0})
	r.AddObstacle(obs)

	gotFront, _ := r.NeighbourVehicles(self.Body(), road.LaneIndex{})
	assert.Same(t, obs.Body(), gotFront)
}

func TestRoad_NeighbourVehicles_UnknownLane(t *testing.T) {
	r := newTestRoad(false)
	self := NewVehicle(r, orb.Point{50, 0}, 0, 10)

	front, rear := r.NeighbourVehicles(self.Body(), road.LaneIndex{From: "x", To: "y"})
	assert.Nil(t, front)
	assert.Nil(t, rear)
}

func TestRoad_Step_OverlappingVehiclesCrash(t *testing.T) {
	// GIVEN two stopped vehicles whose footprints overlap
	r := newTestRoad(false)
	a := NewVehicle(r, orb.Point{50, 0}, 0, 0)
	b := NewVehicle(r, orb.Point{53, 0}, 0, 0)
	c := NewVehicle(r, orb.Point{70, 0}, 0, 0)
	r.AddVehicle(a)
	r.AddVehicle(b)
	r.AddVehicle(c)

	// WHEN the road steps
	r.Step(0.1)

	// THEN only the overlapping pair is crashed
	assert.True(t, a.Crashed)
	assert.True(t, b.Crashed)
	assert.False(t, c.Crashed)
}

func TestRoad_Step_DisableCollisionChecks(t *testing.T) {
	r := newTestRoad(false)
	r.DisableCollisionChecks = true
	a := NewVehicle(r, orb.Point{50, 0}, 0, 0)
	b := NewVehicle(r, orb.Point{53, 0}, 0, 0)
	r.AddVehicle(a)
	r.AddVehicle(b)

	r.Step(0.1)

	assert.False(t, a.Crashed)
	assert.False(t, b.Crashed)
}

func TestRoad_Step_VehicleHitsObstacle(t *testing.T) {
	r := newTestRoad(false)
	v := NewVehicle(r, orb.Point{100, 0}, 0, 0)
	r.AddVehicle(v)
	obs := NewObstacle(r, orb.Point{102, 0})
	r.AddObstacle(obs)

	r.Step(0.1)

	assert.True(t, v.Crashed)
	assert.True(t, obs.Hit)
}

func TestRoad_Act_DrivesEveryVehicle(t *testing.T) {
	r := newTestRoad(false)
	v := NewControlledVehicle(r, orb.Point{20, 0}, 0, 10)
	v.TargetSpeed = 20
	r.AddVehicle(v)

	r.Act()

	assert.Greater(t, v.Action.Acceleration, 0.0)
}

func TestPolygonsIntersect(t *testing.T) {
	square := func(x, y, heading float64) orb.Ring {
		o := Object{Position: orb.Point{x, y}, Heading: heading, Length: 2, Width: 2}
		return o.Polygon()
	}
	tests := []struct {
		name string
		a, b orb.Ring
		want bool
	}{
		{"overlapping", square(0, 0, 0), square(1.5, 0, 0), true},
		{"separated", square(0, 0, 0), square(3, 0, 0), false},
		{"rotated corner gap", square(0, 0, 0), square(2.2, 2.2, math.Pi/4), false},
		{"rotated overlap", square(0, 0, 0), square(1.6, 1.6, math.Pi/4), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, polygonsIntersect(tt.a, tt.b))
		})
	}
}

func TestRegistry_LookupKnownAndUnknown(t *testing.T) {
	f, err := Lookup("highway_env.vehicle.behavior.IDMVehicle")
	require.NoError(t, err)
	actor := f(newTestRoad(false), orb.Point{10, 0}, 0, 20)
	_, isIDM := actor.(*IDMVehicle)
	assert.True(t, isIDM)
	_, isControlled := actor.(Controller)
	assert.True(t, isControlled)

	f, err = Lookup("Vehicle")
	require.NoError(t, err)
	_, isControlled = f(nil, orb.Point{}, 0, 0).(Controller)
	assert.False(t, isControlled)

	_, err = Lookup("highway_env.vehicle.behavior.LinearVehicle")
	assert.True(t, errors.Is(err, ErrUnknownVehicleType))
	assert.False(t, IsValidVehicleType("LinearVehicle"))
	assert.Contains(t, VehicleTypeNames(), "IDMVehicle")
}
