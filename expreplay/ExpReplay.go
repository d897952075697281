// Package expreplay implements experience replay buffers, which store
// past environmental transitions for randomized minibatch training.
package expreplay

import (
	"fmt"
	"math/rand"

	"github.com/landerlab/golander/timestep"
)

// Config describes a specific configuration of an experience replay
// buffer.
type Config struct {
	MaxCapacity int // Maximum number of transitions retained
	MinCapacity int // Occupancy required before sampling is legal
	BatchSize   int // Number of transitions returned per Sample()
}

// Create creates and returns the replay buffer described by the Config.
// The seed determines the buffer's sampling randomness.
func (c Config) Create(seed int64) (*Buffer, error) {
	return New(c.MaxCapacity, c.MinCapacity, c.BatchSize, seed)
}

// Buffer is a fixed-capacity store of the most recently added
// transitions. When full, adding a new transition evicts the oldest
// one. Insertion order is tracked only to implement this eviction; it
// is never exposed to callers.
type Buffer struct {
	transitions []timestep.Transition
	head        int // Index of the oldest transition
	size        int

	minCapacity int
	batchSize   int
	rng         *rand.Rand
}

// New creates and returns a new Buffer holding at most maxCapacity
// transitions. Sampling returns batchSize transitions and is only
// legal once at least minCapacity transitions have been added.
func New(maxCapacity, minCapacity, batchSize int, seed int64) (*Buffer,
	error) {
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if batchSize > maxCapacity {
		return nil, fmt.Errorf("new: cannot have batch size (%v) > max "+
			"buffer capacity (%v)", batchSize, maxCapacity)
	}
	if batchSize > minCapacity {
		minCapacity = batchSize
	}

	return &Buffer{
		transitions: make([]timestep.Transition, maxCapacity),
		head:        0,
		size:        0,
		minCapacity: minCapacity,
		batchSize:   batchSize,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// Add adds a transition to the buffer, evicting the oldest transition
// first if the buffer is at capacity.
func (b *Buffer) Add(t timestep.Transition) {
	if b.size == len(b.transitions) {
		b.transitions[b.head] = t
		b.head = (b.head + 1) % len(b.transitions)
		return
	}

	b.transitions[(b.head+b.size)%len(b.transitions)] = t
	b.size++
}

// Sample samples and returns a batch of distinct transitions chosen
// uniformly at random, without replacement, from the current buffer
// contents. Sampling is stateless across calls: no memory of prior
// draws is kept. An ExpReplayError for which IsEmptyBuffer or
// IsInsufficientSamples holds is returned when the buffer has too few
// transitions to sample.
func (b *Buffer) Sample() ([]timestep.Transition, error) {
	if b.size == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyBuffer}
	}
	if b.size < b.minCapacity || b.size < b.batchSize {
		return nil, &ExpReplayError{Op: "sample", Err: errInsufficientSamples}
	}

	batch := make([]timestep.Transition, b.batchSize)
	for i, j := range b.rng.Perm(b.size)[:b.batchSize] {
		batch[i] = b.transitions[(b.head+j)%len(b.transitions)]
	}
	return batch, nil
}

// Capacity returns the current number of transitions in the buffer
func (b *Buffer) Capacity() int {
	return b.size
}

// MaxCapacity returns the maximum allowable transitions in the buffer
func (b *Buffer) MaxCapacity() int {
	return len(b.transitions)
}

// MinCapacity returns the number of transitions required to be in the
// buffer before the buffer can be sampled
func (b *Buffer) MinCapacity() int {
	return b.minCapacity
}

// BatchSize returns the number of transitions returned by Sample()
func (b *Buffer) BatchSize() int {
	return b.batchSize
}

// contents returns the retained transitions ordered oldest to newest.
// Used by tests to verify eviction; callers are never shown ordering.
func (b *Buffer) contents() []timestep.Transition {
	out := make([]timestep.Transition, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.transitions[(b.head+i)%len(b.transitions)]
	}
	return out
}
