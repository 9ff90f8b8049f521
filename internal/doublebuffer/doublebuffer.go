// Package doublebuffer keeps two noise textures so one can be regenerated while
// the other is displayed, and swaps their roles once a regeneration completes.
package doublebuffer

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/MeKo-Tech/noisesandbox/internal/texture"
)

var (
	// ErrDimensionMismatch is returned when the two buffers differ in size.
	ErrDimensionMismatch = errors.New("double buffer dimension mismatch")
	// ErrMissingBuffer reports a slot whose buffer was released.
	ErrMissingBuffer = errors.New("buffer no longer available")
)

// DoubleBuffer owns exactly two buffers of identical size. Only the inactive
// one may be written; the active one is read-only to everyone outside a swap.
type DoubleBuffer struct {
	slots  [2]atomic.Pointer[texture.Buffer]
	width  int
	height int
	active atomic.Int32
}

// New pairs a and b. Both must be non-nil and share dimensions.
func New(a, b *texture.Buffer) (*DoubleBuffer, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("double buffer needs two buffers: %w", ErrMissingBuffer)
	}
	if !a.SameSize(b) {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, a.Width(), a.Height(), b.Width(), b.Height())
	}

	db := &DoubleBuffer{width: a.Width(), height: a.Height()}
	db.slots[0].Store(a)
	db.slots[1].Store(b)
	return db, nil
}

// Must is like New but panics on error. Use it where mismatched buffers are a
// programming error at construction time.
func Must(a, b *texture.Buffer) *DoubleBuffer {
	db, err := New(a, b)
	if err != nil {
		panic(err)
	}
	return db
}

// Allocate creates a double buffer of two zeroed width×height buffers.
func Allocate(width, height int) (*DoubleBuffer, error) {
	a, err := texture.NewBuffer(width, height)
	if err != nil {
		return nil, err
	}
	b, err := texture.NewBuffer(width, height)
	if err != nil {
		return nil, err
	}
	return New(a, b)
}

// Size returns the shared buffer dimensions.
func (db *DoubleBuffer) Size() (width, height int) { return db.width, db.height }

// ActiveIndex returns the slot currently displayed.
func (db *DoubleBuffer) ActiveIndex() int { return int(db.active.Load()) }

// InactiveIndex returns the slot that the next regeneration writes to.
func (db *DoubleBuffer) InactiveIndex() int { return 1 - db.ActiveIndex() }

// Buffer returns the buffer in slot i, or nil if it was released.
func (db *DoubleBuffer) Buffer(i int) *texture.Buffer {
	if i != 0 && i != 1 {
		return nil
	}
	return db.slots[i].Load()
}

// Active returns the displayed buffer.
func (db *DoubleBuffer) Active() *texture.Buffer { return db.Buffer(db.ActiveIndex()) }

// Inactive returns the buffer the next regeneration writes to.
func (db *DoubleBuffer) Inactive() *texture.Buffer { return db.Buffer(db.InactiveIndex()) }

// Release drops slot i, as when its owner destroys the texture externally.
// Handles to the slot stop resolving.
func (db *DoubleBuffer) Release(i int) {
	if i == 0 || i == 1 {
		db.slots[i].Store(nil)
	}
}

// Attach puts buf into slot i. The buffer must match the pair's dimensions.
func (db *DoubleBuffer) Attach(i int, buf *texture.Buffer) error {
	if i != 0 && i != 1 {
		return fmt.Errorf("invalid slot %d", i)
	}
	if buf == nil {
		return fmt.Errorf("attach slot %d: %w", i, ErrMissingBuffer)
	}
	if buf.Width() != db.width || buf.Height() != db.height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, buf.Width(), buf.Height(), db.width, db.height)
	}
	db.slots[i].Store(buf)
	return nil
}

func (db *DoubleBuffer) flip() int {
	next := int32(db.InactiveIndex())
	db.active.Store(next)
	return int(next)
}

// Handle identifies a display-ready buffer.
type Handle struct {
	Index      int
	Generation uint64
	db         *DoubleBuffer
}

// Valid reports whether the handle refers to a published buffer.
func (h Handle) Valid() bool { return h.db != nil }

// Buffer resolves the handle. It returns nil for the zero handle or a released slot.
func (h Handle) Buffer() *texture.Buffer {
	if h.db == nil {
		return nil
	}
	return h.db.Buffer(h.Index)
}
