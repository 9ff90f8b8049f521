package doublebuffer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/MeKo-Tech/noisesandbox/internal/grid"
	"github.com/MeKo-Tech/noisesandbox/internal/noise"
	"github.com/MeKo-Tech/noisesandbox/internal/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// watchingRegenerator wraps a real regenerator, counts calls and records the
// active buffer's bytes at the moment each regeneration starts and ends.
type watchingRegenerator struct {
	inner   *texture.Regenerator
	db      *DoubleBuffer
	calls   int
	targets []*texture.Buffer
	fail    error

	activeBefore [][]byte
	activeAfter  [][]byte
}

func (w *watchingRegenerator) Regenerate(ctx context.Context, buf *texture.Buffer, p noise.Params) error {
	w.calls++
	w.targets = append(w.targets, buf)
	if w.fail != nil {
		return w.fail
	}

	var active *texture.Buffer
	if w.db != nil {
		active = w.db.Active()
		w.activeBefore = append(w.activeBefore, active.Snapshot())
	}
	err := w.inner.Regenerate(ctx, buf, p)
	if active != nil {
		w.activeAfter = append(w.activeAfter, active.Snapshot())
	}
	return err
}

func newTestSwapper(t *testing.T) (*Swapper, *DoubleBuffer, *watchingRegenerator) {
	t.Helper()
	g, err := grid.New(8, 1)
	require.NoError(t, err)
	m, err := grid.NewMapper(g, 8, 8, 1)
	require.NoError(t, err)

	db, err := Allocate(8, 8)
	require.NoError(t, err)

	regen := &watchingRegenerator{inner: texture.NewRegenerator(m, 2, nil)}
	return NewSwapper(db, regen, nil), db, regen
}

func params(seed uint32) noise.Params {
	p := noise.DefaultParams(seed)
	p.Frequency = 0.4
	return p
}

func TestNewRejectsDimensionMismatch(t *testing.T) {
	a, err := texture.NewBuffer(4, 4)
	require.NoError(t, err)
	b, err := texture.NewBuffer(4, 5)
	require.NoError(t, err)

	_, err = New(a, b)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	assert.Panics(t, func() { Must(a, b) })

	_, err = New(a, nil)
	require.ErrorIs(t, err, ErrMissingBuffer)
}

func TestInitialGenerationFillsBothBuffers(t *testing.T) {
	s, db, regen := newTestSwapper(t)

	require.False(t, s.Ready())
	require.False(t, s.Active().Valid())

	h, err := s.InitialGeneration(context.Background(), params(1))
	require.NoError(t, err)

	assert.Equal(t, 2, regen.calls)
	assert.True(t, s.Ready())
	assert.Equal(t, 0, h.Index)
	assert.Same(t, db.Buffer(0), h.Buffer())
	assert.NotZero(t, db.Buffer(0).Generation())
	assert.NotZero(t, db.Buffer(1).Generation())
	assert.True(t, db.Buffer(0).Equal(db.Buffer(1)), "both buffers should hold the same startup field")
}

func TestOnTriggerNoPendingIsNoop(t *testing.T) {
	s, db, regen := newTestSwapper(t)
	_, err := s.InitialGeneration(context.Background(), params(1))
	require.NoError(t, err)

	h, ok := s.OnTrigger(context.Background(), false, params(2))
	assert.False(t, ok)
	assert.False(t, h.Valid())
	assert.Equal(t, 2, regen.calls)
	assert.Equal(t, 0, db.ActiveIndex())
	assert.Zero(t, s.Swaps())
}

func TestOnTriggerRegeneratesInactiveAndSwaps(t *testing.T) {
	s, db, regen := newTestSwapper(t)
	regen.db = db
	_, err := s.InitialGeneration(context.Background(), params(1))
	require.NoError(t, err)
	regen.targets = nil

	h, ok := s.OnTrigger(context.Background(), true, params(2))
	require.True(t, ok)

	assert.Equal(t, 1, h.Index)
	assert.Equal(t, 1, db.ActiveIndex())
	assert.Same(t, db.Buffer(1), regen.targets[0], "regeneration must target the inactive buffer")
	assert.Equal(t, h, s.Active())
	assert.Equal(t, uint64(1), s.Swaps())
}

func TestActiveBufferUntouchedUntilNextTrigger(t *testing.T) {
	s, db, regen := newTestSwapper(t)
	_, err := s.InitialGeneration(context.Background(), params(1))
	require.NoError(t, err)
	regen.db = db

	previous := db.Active()
	previousBytes := previous.Snapshot()

	first, ok := s.OnTrigger(context.Background(), true, params(2))
	require.True(t, ok)
	firstBytes := first.Buffer().Snapshot()

	// The first swap left the formerly active buffer alone.
	require.Equal(t, previousBytes, previous.Pix())

	second, ok := s.OnTrigger(context.Background(), true, params(3))
	require.True(t, ok)

	// The buffer returned by the first call stayed identical while the
	// second regeneration ran, and only the old buffer was rewritten.
	require.Len(t, regen.activeBefore, 2)
	assert.True(t, bytes.Equal(firstBytes, regen.activeBefore[1]))
	assert.True(t, bytes.Equal(firstBytes, regen.activeAfter[1]))
	assert.Same(t, previous, second.Buffer())
	assert.False(t, bytes.Equal(previousBytes, second.Buffer().Pix()))
	assert.Equal(t, 0, second.Index)
}

func TestOnTriggerMissingBuffer(t *testing.T) {
	s, db, regen := newTestSwapper(t)
	h0, err := s.InitialGeneration(context.Background(), params(1))
	require.NoError(t, err)

	db.Release(db.InactiveIndex())

	h, ok := s.OnTrigger(context.Background(), true, params(2))
	assert.False(t, ok)
	assert.False(t, h.Valid())
	assert.Equal(t, 2, regen.calls, "missing buffer must not be regenerated")
	assert.Equal(t, h0, s.Active())
	assert.Equal(t, 0, db.ActiveIndex())
	assert.Equal(t, uint64(1), s.Missed())

	// Re-attaching restores normal operation.
	buf, err := texture.NewBuffer(8, 8)
	require.NoError(t, err)
	require.NoError(t, db.Attach(1, buf))
	_, ok = s.OnTrigger(context.Background(), true, params(2))
	assert.True(t, ok)
}

func TestOnTriggerRegenerationFailureKeepsActive(t *testing.T) {
	s, db, regen := newTestSwapper(t)
	h0, err := s.InitialGeneration(context.Background(), params(1))
	require.NoError(t, err)

	regen.fail = errors.New("boom")
	_, ok := s.OnTrigger(context.Background(), true, params(2))

	assert.False(t, ok)
	assert.Equal(t, h0, s.Active())
	assert.Equal(t, 0, db.ActiveIndex())
}

func TestInitialGenerationMissingBuffer(t *testing.T) {
	s, db, _ := newTestSwapper(t)
	db.Release(1)

	_, err := s.InitialGeneration(context.Background(), params(1))
	require.ErrorIs(t, err, ErrMissingBuffer)
	assert.False(t, s.Ready())
}

func TestConsumersNotified(t *testing.T) {
	s, _, _ := newTestSwapper(t)

	var seen []Handle
	s.Register(ConsumerFunc(func(h Handle) { seen = append(seen, h) }))

	_, err := s.InitialGeneration(context.Background(), params(1))
	require.NoError(t, err)
	h, ok := s.OnTrigger(context.Background(), true, params(2))
	require.True(t, ok)
	s.OnTrigger(context.Background(), false, params(3))

	require.Len(t, seen, 2)
	assert.Equal(t, h, seen[1])

	// Late registration receives the current buffer right away.
	var late Handle
	s.Register(ConsumerFunc(func(h Handle) { late = h }))
	assert.Equal(t, h, late)
}

func TestHandleResolution(t *testing.T) {
	var zero Handle
	assert.Nil(t, zero.Buffer())

	db, err := Allocate(2, 2)
	require.NoError(t, err)
	h := Handle{Index: 1, db: db}
	assert.Same(t, db.Buffer(1), h.Buffer())

	db.Release(1)
	assert.Nil(t, h.Buffer())
	assert.Nil(t, db.Buffer(5))
}

func TestAttachRejectsWrongSize(t *testing.T) {
	db, err := Allocate(4, 4)
	require.NoError(t, err)
	buf, err := texture.NewBuffer(3, 4)
	require.NoError(t, err)

	require.ErrorIs(t, db.Attach(0, buf), ErrDimensionMismatch)
	require.ErrorIs(t, db.Attach(0, nil), ErrMissingBuffer)
	require.Error(t, db.Attach(2, buf))
}
