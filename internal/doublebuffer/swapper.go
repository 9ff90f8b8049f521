package doublebuffer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MeKo-Tech/noisesandbox/internal/noise"
	"github.com/MeKo-Tech/noisesandbox/internal/texture"
)

// Regenerator fills a buffer from noise parameters.
// This matches the signature of texture.Regenerator.Regenerate.
type Regenerator interface {
	Regenerate(ctx context.Context, buf *texture.Buffer, p noise.Params) error
}

// Consumer is notified whenever a new buffer becomes active.
type Consumer interface {
	SetActive(h Handle)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(h Handle)

// SetActive calls f.
func (f ConsumerFunc) SetActive(h Handle) { f(h) }

// Swapper regenerates the inactive buffer on demand and then swaps roles.
type Swapper struct {
	buffers *DoubleBuffer
	regen   Regenerator
	logger  *slog.Logger

	mu        sync.Mutex
	consumers []Consumer

	active atomic.Pointer[Handle]
	swaps  atomic.Uint64
	missed atomic.Uint64
}

// NewSwapper creates a swapper over buffers.
func NewSwapper(buffers *DoubleBuffer, regen Regenerator, logger *slog.Logger) *Swapper {
	return &Swapper{
		buffers: buffers,
		regen:   regen,
		logger:  logger,
	}
}

// Buffers returns the underlying double buffer.
func (s *Swapper) Buffers() *DoubleBuffer { return s.buffers }

// Register adds a consumer. If a buffer is already active the consumer is
// told about it immediately.
func (s *Swapper) Register(c Consumer) {
	s.mu.Lock()
	s.consumers = append(s.consumers, c)
	s.mu.Unlock()

	if h := s.Active(); h.Valid() {
		c.SetActive(h)
	}
}

// Active returns the handle of the displayed buffer. It is the zero Handle
// until InitialGeneration succeeds.
func (s *Swapper) Active() Handle {
	if h := s.active.Load(); h != nil {
		return *h
	}
	return Handle{}
}

// Ready reports whether a buffer has been published.
func (s *Swapper) Ready() bool { return s.active.Load() != nil }

// Swaps returns how many trigger-driven swaps happened.
func (s *Swapper) Swaps() uint64 { return s.swaps.Load() }

// Missed returns how many triggers were dropped because a buffer was missing
// or regeneration failed.
func (s *Swapper) Missed() uint64 { return s.missed.Load() }

// InitialGeneration fills both buffers and publishes the active one.
// Both are generated so the steady-state swap never meets a blank buffer.
func (s *Swapper) InitialGeneration(ctx context.Context, p noise.Params) (Handle, error) {
	for i := 0; i < 2; i++ {
		buf := s.buffers.Buffer(i)
		if buf == nil {
			return Handle{}, fmt.Errorf("initial generation of slot %d: %w", i, ErrMissingBuffer)
		}
		if err := s.regen.Regenerate(ctx, buf, p); err != nil {
			return Handle{}, fmt.Errorf("initial generation of slot %d: %w", i, err)
		}
	}

	idx := s.buffers.ActiveIndex()
	h := Handle{Index: idx, Generation: s.buffers.Buffer(idx).Generation(), db: s.buffers}
	s.publish(h)

	s.log().Info("Initial noise generation complete",
		"seed", p.Seed,
		"active", idx,
		"generation", h.Generation,
	)
	return h, nil
}

// OnTrigger runs one swap cycle. Without a pending trigger it does nothing.
// Otherwise it regenerates only the inactive buffer, flips the active index,
// notifies consumers and returns the new handle. A missing buffer or failed
// regeneration leaves everything as it was and returns false.
func (s *Swapper) OnTrigger(ctx context.Context, pending bool, p noise.Params) (Handle, bool) {
	if !pending {
		return Handle{}, false
	}

	idx := s.buffers.InactiveIndex()
	buf := s.buffers.Buffer(idx)
	if buf == nil {
		s.missed.Add(1)
		s.log().Warn("Skipping regeneration: inactive buffer missing", "slot", idx)
		return Handle{}, false
	}

	if err := s.regen.Regenerate(ctx, buf, p); err != nil {
		s.missed.Add(1)
		s.log().Error("Regeneration failed; keeping previous texture", "slot", idx, "error", err)
		return Handle{}, false
	}

	// The slot may have been released while we were writing into it.
	if s.buffers.Buffer(idx) != buf {
		s.missed.Add(1)
		s.log().Warn("Skipping swap: buffer released during regeneration", "slot", idx)
		return Handle{}, false
	}

	s.buffers.flip()
	h := Handle{Index: idx, Generation: buf.Generation(), db: s.buffers}
	s.swaps.Add(1)
	s.publish(h)

	s.log().Debug("Swapped noise texture", "active", idx, "generation", h.Generation)
	return h, true
}

func (s *Swapper) publish(h Handle) {
	s.active.Store(&h)

	s.mu.Lock()
	consumers := make([]Consumer, len(s.consumers))
	copy(consumers, s.consumers)
	s.mu.Unlock()

	for _, c := range consumers {
		c.SetActive(h)
	}
}

func (s *Swapper) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
