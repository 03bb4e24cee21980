package env

import (
	"math"
	"sort"

	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/mat"

	"github.com/merge-sim/merge-sim/sim/traffic"
)

// PerceptionDistance bounds which vehicles the ego observes [m].
const PerceptionDistance = 5.0 * traffic.MaxSpeed

// KinematicsObservation describes the ego and the closest vehicles ahead of
// it as a vehicles_count x len(features) matrix.
type KinematicsObservation struct {
	cfg ObservationConfig
}

// NewKinematicsObservation creates the observation for cfg.
func NewKinematicsObservation(cfg ObservationConfig) *KinematicsObservation {
	return &KinematicsObservation{cfg: cfg}
}

// Shape returns the observation matrix dimensions.
func (k *KinematicsObservation) Shape() (rows, cols int) {
	return k.cfg.VehiclesCount, len(k.cfg.Features)
}

// Observe builds the matrix. The first row is the ego in absolute
// coordinates; the following rows are the closest other vehicles, sorted by
// distance, relative to the ego unless absolute is set. Missing rows are
// zero.
func (k *KinematicsObservation) Observe(r *traffic.Road, ego *traffic.Vehicle) *mat.Dense {
	rows, cols := k.Shape()
	obs := mat.NewDense(rows, cols, nil)
	egoFeatures := k.features(ego.Body())
	obs.SetRow(0, egoFeatures)

	for i, other := range k.closeVehicles(r, ego.Body(), rows-1) {
		row := k.features(other)
		if !k.cfg.Absolute {
			for j, f := range k.cfg.Features {
				if relativeFeature[f] {
					row[j] -= egoFeatures[j]
				}
			}
		}
		obs.SetRow(i+1, row)
	}

	if len(k.cfg.Scales) > 0 {
		for j, s := range k.cfg.Scales {
			col := mat.Col(nil, j, obs)
			for i := range col {
				col[i] /= s
			}
			obs.SetCol(j, col)
		}
	}
	return obs
}

// relativeFeature marks features expressed relative to the ego.
var relativeFeature = map[string]bool{"x": true, "y": true, "vx": true, "vy": true}

func (k *KinematicsObservation) features(o *traffic.Object) []float64 {
	v := o.Velocity()
	row := make([]float64, len(k.cfg.Features))
	for j, f := range k.cfg.Features {
		switch f {
		case "presence":
			row[j] = 1
		case "x":
			row[j] = o.Position[0]
		case "y":
			row[j] = o.Position[1]
		case "vx":
			row[j] = v[0]
		case "vy":
			row[j] = v[1]
		case "heading":
			row[j] = o.Heading
		case "cos_h":
			row[j] = math.Cos(o.Heading)
		case "sin_h":
			row[j] = math.Sin(o.Heading)
		}
	}
	return row
}

// closeVehicles returns up to count vehicles within PerceptionDistance of
// ego and not more than two vehicle lengths behind it, closest first.
func (k *KinematicsObservation) closeVehicles(r *traffic.Road, ego *traffic.Object, count int) []*traffic.Object {
	if count <= 0 {
		return nil
	}
	var nearby []*traffic.Object
	for _, a := range r.Vehicles {
		o := a.Body()
		if o == ego {
			continue
		}
		if planar.Distance(o.Position, ego.Position) < PerceptionDistance &&
			ego.LaneDistanceTo(o, nil) > -2*ego.Length {
			nearby = append(nearby, o)
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return planar.Distance(nearby[i].Position, ego.Position) < planar.Distance(nearby[j].Position, ego.Position)
	})
	if len(nearby) > count {
		nearby = nearby[:count]
	}
	return nearby
}
