package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// GIVEN two partitioned RNGs with the same seed
	rng1 := NewPartitionedRNG(42)
	rng2 := NewPartitionedRNG(42)

	// WHEN drawing from the same subsystem
	// THEN the streams are identical
	for i := 0; i < 5; i++ {
		assert.Equal(t, rng1.ForSubsystem(SubsystemNoise).Float64(), rng2.ForSubsystem(SubsystemNoise).Float64(), "draw %d", i)
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// GIVEN one RNG that consumes the noise stream and one that does not
	rngA := NewPartitionedRNG(7)
	rngB := NewPartitionedRNG(7)
	for i := 0; i < 100; i++ {
		rngA.ForSubsystem(SubsystemNoise).NormFloat64()
	}

	// WHEN both draw from the scenario stream
	// THEN the scenario draws are unaffected
	for i := 0; i < 10; i++ {
		assert.Equal(t, rngB.ForSubsystem(SubsystemScenario).Intn(1000), rngA.ForSubsystem(SubsystemScenario).Intn(1000))
	}
}

func TestPartitionedRNG_ScenarioUsesSeedDirectly(t *testing.T) {
	p := NewPartitionedRNG(42)
	assert.Equal(t, int64(42), p.Seed())

	a := p.ForSubsystem(SubsystemScenario).Int63()
	b := p.ForSubsystem(SubsystemNoise).Int63()
	assert.NotEqual(t, a, b, "derived streams must differ from the master stream")
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	p := NewPartitionedRNG(1)
	assert.Same(t, p.ForSubsystem(SubsystemSplit), p.ForSubsystem(SubsystemSplit))
	assert.NotSame(t, p.ForSubsystem(SubsystemSplit), p.ForSubsystem(SubsystemSearch))
}
