// Package trail keeps a fixed-length position history per body for drawing
// orbit traces.
package trail

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/orbit"
)

// DefaultCapacity is the number of samples kept per body.
const DefaultCapacity = 100

// Buffer is a ring of the most recent positions, oldest first.
type Buffer struct {
	samples []mgl64.Vec3
	head    int
	size    int
}

// NewBuffer allocates a ring holding capacity samples.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{samples: make([]mgl64.Vec3, capacity)}
}

// Push appends p, evicting the oldest sample when full.
func (b *Buffer) Push(p mgl64.Vec3) {
	b.samples[(b.head+b.size)%len(b.samples)] = p
	if b.size < len(b.samples) {
		b.size++
		return
	}
	b.head = (b.head + 1) % len(b.samples)
}

// Len returns the number of stored samples.
func (b *Buffer) Len() int { return b.size }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.samples) }

// Snapshot copies the samples out, oldest to newest.
func (b *Buffer) Snapshot() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, b.size)
	for i := range out {
		out[i] = b.samples[(b.head+i)%len(b.samples)]
	}
	return out
}

// Clear drops all samples.
func (b *Buffer) Clear() {
	b.head, b.size = 0, 0
}

// Store holds one Buffer per body index.
type Store struct {
	buffers []*Buffer
}

// NewStore creates n buffers of the given capacity.
func NewStore(n, capacity int) *Store {
	s := &Store{buffers: make([]*Buffer, n)}
	for i := range s.buffers {
		s.buffers[i] = NewBuffer(capacity)
	}
	return s
}

func (s *Store) buffer(op string, index int) (*Buffer, error) {
	if index < 0 || index >= len(s.buffers) {
		return nil, orbit.Errorf(op, orbit.ErrValidation, "trail index %d out of range [0,%d)", index, len(s.buffers))
	}
	return s.buffers[index], nil
}

// Record appends a sample to body index's trail.
func (s *Store) Record(index int, p mgl64.Vec3) error {
	b, err := s.buffer("trail.Record", index)
	if err != nil {
		return err
	}
	b.Push(p)
	return nil
}

// Snapshot returns body index's trail, oldest to newest.
func (s *Store) Snapshot(index int) ([]mgl64.Vec3, error) {
	b, err := s.buffer("trail.Snapshot", index)
	if err != nil {
		return nil, err
	}
	return b.Snapshot(), nil
}

// Len returns the number of buffers.
func (s *Store) Len() int { return len(s.buffers) }

// ClearAll empties every trail.
func (s *Store) ClearAll() {
	for _, b := range s.buffers {
		b.Clear()
	}
}
