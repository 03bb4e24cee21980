// Package sim is the root of the merge-sim highway merge scenario.
//
// # Reading Guide
//
// Start with these files to understand a scenario episode:
//   - env/scenario.go: road network construction and vehicle placement
//   - env/reward.go: scalar reward and per-term reward components
//   - env/env.go: Configure / Reset / Step and the termination check
//
// # Architecture
//
// The sim package itself only owns the partitioned RNG; everything else
// lives in sub-packages:
//   - sim/road/: lane geometry (straight and sine lanes) and the road network
//   - sim/traffic/: kinematic, controlled and IDM vehicles, obstacles, the
//     Road that acts and steps them, and the vehicle type registry
//   - sim/env/: scenario configuration, builder, reward, action mapping,
//     observation and the environment
//   - sim/trace/: per-step episode trace recording and msgpack export
//   - sim/agent/: scripted driving policies for the CLI
//
// Vehicle types referenced by name in the configuration
// (other_vehicles_type) register themselves in sim/traffic via init().
//
// # Key Interfaces
//   - road.Lane: position / local coordinates / heading along a lane
//   - traffic.Actor: anything the road acts and steps each frame
//   - agent.Policy: maps an observation to a raw action
package sim
