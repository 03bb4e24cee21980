package traffic

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// ErrUnknownVehicleType is returned by Lookup for unregistered type names.
var ErrUnknownVehicleType = errors.New("unknown vehicle type")

// Factory builds a vehicle of a registered type on r.
type Factory func(r *Road, position orb.Point, heading, speed float64) Actor

// vehicleTypes maps class paths (and their short aliases) to factories.
var vehicleTypes = map[string]Factory{}

// Register binds name to f, replacing any previous binding.
func Register(name string, f Factory) {
	vehicleTypes[name] = f
}

// Lookup resolves a registered vehicle type name.
func Lookup(name string) (Factory, error) {
	f, ok := vehicleTypes[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w (known: %v)", name, ErrUnknownVehicleType, VehicleTypeNames())
	}
	return f, nil
}

// IsValidVehicleType returns true if name is registered.
func IsValidVehicleType(name string) bool {
	_, ok := vehicleTypes[name]
	return ok
}

// VehicleTypeNames returns the registered names, sorted.
func VehicleTypeNames() []string {
	names := lo.Keys(vehicleTypes)
	sort.Strings(names)
	return names
}

func init() {
	idm := func(r *Road, p orb.Point, h, s float64) Actor { return NewIDMVehicle(r, p, h, s) }
	controlled := func(r *Road, p orb.Point, h, s float64) Actor { return NewControlledVehicle(r, p, h, s) }
	kinematic := func(r *Road, p orb.Point, h, s float64) Actor { return NewVehicle(r, p, h, s) }

	Register("highway_env.vehicle.behavior.IDMVehicle", idm)
	Register("IDMVehicle", idm)
	Register("highway_env.vehicle.controller.ControlledVehicle", controlled)
	Register("ControlledVehicle", controlled)
	Register("highway_env.vehicle.kinematics.Vehicle", kinematic)
	Register("Vehicle", kinematic)
}
