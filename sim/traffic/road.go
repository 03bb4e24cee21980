package traffic

import (
	"math"
	"math/rand"

	"github.com/paulmach/orb/planar"
	"github.com/sirupsen/logrus"

	"github.com/merge-sim/merge-sim/sim/road"
)

// Road is a network populated with vehicles and obstacles.
type Road struct {
	Network       *road.Network
	Vehicles      []Actor
	Obstacles     []*Obstacle
	Rand          *rand.Rand
	RecordHistory bool

	// DisableCollisionChecks skips collision detection during Step.
	DisableCollisionChecks bool
}

// NewRoad creates an empty road over network.
func NewRoad(network *road.Network, rng *rand.Rand, recordHistory bool) *Road {
	return &Road{
		Network:       network,
		Vehicles:      make([]Actor, 0),
		Obstacles:     make([]*Obstacle, 0),
		Rand:          rng,
		RecordHistory: recordHistory,
	}
}

// AddVehicle appends a to the road.
func (r *Road) AddVehicle(a Actor) {
	r.Vehicles = append(r.Vehicles, a)
}

// AddObstacle appends o to the road.
func (r *Road) AddObstacle(o *Obstacle) {
	r.Obstacles = append(r.Obstacles, o)
}

// Act lets every vehicle decide its next action.
func (r *Road) Act() {
	for _, v := range r.Vehicles {
		v.Act()
	}
}

// Step advances every vehicle by dt seconds, then resolves collisions.
func (r *Road) Step(dt float64) {
	for _, v := range r.Vehicles {
		v.Step(dt)
	}
	if r.DisableCollisionChecks {
		return
	}
	for i, v := range r.Vehicles {
		for _, other := range r.Vehicles[i+1:] {
			r.handleCollision(v.Kinematics(), other.Body(), dt)
		}
		for _, o := range r.Obstacles {
			if r.handleCollision(v.Kinematics(), o.Body(), dt) {
				o.Hit = true
			}
		}
	}
}

// handleCollision marks both bodies as crashed when they overlap.
func (r *Road) handleCollision(v *Vehicle, other *Object, dt float64) bool {
	if other == v.Body() || !v.Collidable || !other.Collidable {
		return false
	}
	if planar.Distance(v.Position, other.Position) > (v.Diagonal()+other.Diagonal())/2+math.Abs(v.Speed)*dt {
		return false
	}
	if !polygonsIntersect(v.Polygon(), other.Polygon()) {
		return false
	}
	if other.Solid {
		v.Crashed = true
	}
	if v.Solid {
		other.Crashed = true
	}
	logrus.Debugf("collision between %s at %v and %s at %v", v.Kind, v.Position, other.Kind, other.Position)
	return true
}

// NeighbourVehicles returns the closest objects ahead of and behind self on
// lane index (self's current lane when index is the zero value). Objects off
// that lane by more than one metre are ignored.
func (r *Road) NeighbourVehicles(self *Object, index road.LaneIndex) (front, rear *Object) {
	if self == nil {
		return nil, nil
	}
	if index == (road.LaneIndex{}) {
		index = self.LaneIndex
	}
	lane, err := r.Network.Lane(index)
	if err != nil {
		return nil, nil
	}
	s, _ := lane.LocalCoordinates(self.Position)
	sFront, sRear := math.Inf(1), math.Inf(-1)

	consider := func(o *Object) {
		if o == self {
			return
		}
		sv, _ := lane.LocalCoordinates(o.Position)
		if !road.OnLane(lane, o.Position, 1) {
			return
		}
		if s <= sv && sv <= sFront {
			front, sFront = o, sv
		}
		if sv < s && sv >= sRear {
			rear, sRear = o, sv
		}
	}
	for _, v := range r.Vehicles {
		consider(v.Body())
	}
	for _, o := range r.Obstacles {
		consider(o.Body())
	}
	return front, rear
}
