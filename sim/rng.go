package sim

import (
	"hash/fnv"
	"math/rand"
)

// Random streams used by a level run. Each draws from its own *rand.Rand so
// consuming one never shifts another.
const (
	// SubsystemSpawn drives spawn intervals, template choice and the
	// parameters of each new process. It is seeded with the level seed itself.
	SubsystemSpawn = "spawn"

	// SubsystemIO drives IO request rolls and IO durations of running processes.
	SubsystemIO = "io"

	// SubsystemIODispatch drives the delay before the IOQueue head is serviced.
	SubsystemIODispatch = "io_dispatch"
)

// PartitionedRNG hands out one deterministic random stream per subsystem.
// A stream's seed is the level seed for SubsystemSpawn and
// seed XOR the FNV-1a hash of name for every other stream, so with one seed the
// arrival sequence does not depend on how often processes request IO.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	seed    int64
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates the streams for one level run.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{seed: seed, streams: map[string]*rand.Rand{}}
}

// ForSubsystem returns the stream for name, creating it on first use.
// Repeated calls return the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	rng, ok := p.streams[name]
	if !ok {
		rng = rand.New(rand.NewSource(p.derive(name)))
		p.streams[name] = rng
	}
	return rng
}

// Seed returns the level seed.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

func (p *PartitionedRNG) derive(name string) int64 {
	if name == SubsystemSpawn {
		return p.seed
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	return p.seed ^ int64(h.Sum64())
}
