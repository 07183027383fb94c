package match

import (
	"hash/fnv"
	"math/rand"
)

// Stream names. Dataset synthesis reads SubsystemScenario then SubsystemNoise;
// training reads SubsystemSplit then SubsystemSearch.
const (
	// SubsystemScenario draws attribute values, one per column per row.
	// It is seeded with the master seed itself, so a dataset's scenarios
	// depend only on the spec seed.
	SubsystemScenario = "scenario"

	// SubsystemNoise draws five tie-break variates per scored scenario.
	SubsystemNoise = "noise"

	// SubsystemSplit shuffles the stratified 70/30 split and the CV folds.
	SubsystemSplit = "split"

	// SubsystemSearch samples forest parameter combinations.
	SubsystemSearch = "search"
)

// PartitionedRNG hands each consumer of a seed its own *rand.Rand, so that
// changing how much noise a scorer draws never moves the scenario stream, and
// a larger search never changes the split. A stream other than
// SubsystemScenario is seeded with the master seed XOR the FNV-1a hash of its
// name.
//
// Not safe for concurrent use.
type PartitionedRNG struct {
	seed    int64
	streams map[string]*rand.Rand
}

func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{seed: seed, streams: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the stream for name, creating it on first use.
// Repeated calls share one generator, so draws continue where they left off.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if r, ok := p.streams[name]; ok {
		return r
	}
	seed := p.seed
	if name != SubsystemScenario {
		seed ^= streamHash(name)
	}
	r := rand.New(rand.NewSource(seed))
	p.streams[name] = r
	return r
}

// Seed returns the master seed.
func (p *PartitionedRNG) Seed() int64 { return p.seed }

func streamHash(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
