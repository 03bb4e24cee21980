package sim

import (
	"hash/fnv"
	"math/rand"
)

// === EpisodeKey ===

// EpisodeKey uniquely identifies a reproducible episode.
// Two episodes with the same EpisodeKey, configuration and action sequence
// MUST produce bit-for-bit identical trajectories.
type EpisodeKey int64

// NewEpisodeKey creates an EpisodeKey from a seed value.
func NewEpisodeKey(seed int64) EpisodeKey {
	return EpisodeKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemRoad is the RNG subsystem owned by the road (successor choice
	// at forks). Uses the master seed directly.
	SubsystemRoad = "road"

	// SubsystemAction is the RNG subsystem used to sample actions, e.g. the
	// action reported in the info returned by Reset.
	SubsystemAction = "action"

	// SubsystemPolicy is the RNG subsystem of scripted driving policies.
	SubsystemPolicy = "policy"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemRoad: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        EpisodeKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from an EpisodeKey.
func NewPartitionedRNG(key EpisodeKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemRoad {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the EpisodeKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() EpisodeKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
