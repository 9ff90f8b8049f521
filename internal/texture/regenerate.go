// Package texture owns noise texture buffers and fills them from the noise field.
package texture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/noisesandbox/internal/grid"
	"github.com/MeKo-Tech/noisesandbox/internal/noise"
	"github.com/MeKo-Tech/noisesandbox/internal/worker"
)

// ErrNilBuffer is returned when regeneration targets a missing buffer.
var ErrNilBuffer = errors.New("texture buffer is nil")

// Regenerator fills buffers with grayscale fBm noise.
//
// Rows are filled in parallel bands into a scratch area and copied into the
// target only after every band succeeded, so a cancelled pass never leaves a
// partially written buffer behind. Calls to Regenerate are serialized.
type Regenerator struct {
	mapper  grid.Mapper
	workers int
	logger  *slog.Logger

	mu      sync.Mutex
	scratch []byte

	passes atomic.Uint64
}

// NewRegenerator creates a regenerator for textures of the mapper's size.
// workers <= 0 uses one worker per CPU.
func NewRegenerator(mapper grid.Mapper, workers int, logger *slog.Logger) *Regenerator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Regenerator{
		mapper:  mapper,
		workers: workers,
		logger:  logger,
	}
}

// Mapper returns the coordinate mapper used for sampling.
func (r *Regenerator) Mapper() grid.Mapper { return r.mapper }

// Regenerations returns how many passes completed successfully.
func (r *Regenerator) Regenerations() uint64 { return r.passes.Load() }

// NewBuffer allocates a buffer sized for this regenerator.
func (r *Regenerator) NewBuffer() (*Buffer, error) {
	w, h := r.mapper.Size()
	return NewBuffer(w, h)
}

// Regenerate overwrites every pixel of buf with the noise field for p.
// Each pixel becomes (v, v, v, 255) with v = floor(sample*255).
func (r *Regenerator) Regenerate(ctx context.Context, buf *Buffer, p noise.Params) error {
	if buf == nil {
		return ErrNilBuffer
	}
	w, h := r.mapper.Size()
	if buf.Width() != w || buf.Height() != h {
		return fmt.Errorf("buffer is %dx%d, regenerator expects %dx%d", buf.Width(), buf.Height(), w, h)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	if len(r.scratch) != len(buf.Pix()) {
		r.scratch = make([]byte, len(buf.Pix()))
	}

	field := noise.NewField(p.Seed, p.Basis)
	fill := rowFiller{
		field:   field,
		mapper:  r.mapper,
		params:  p,
		width:   w,
		stride:  buf.Image().Stride,
		scratch: r.scratch,
	}

	pool := worker.New(worker.Config{
		Workers:    r.workers,
		Filler:     fill,
		OnProgress: r.bandProgress(),
	})
	results := pool.Run(ctx, worker.Bands(h, r.workers*4))
	if err := worker.FirstError(results); err != nil {
		return fmt.Errorf("failed to regenerate texture: %w", err)
	}

	copy(buf.Pix(), r.scratch)
	buf.generation = r.passes.Add(1)

	r.log().Debug("Texture regenerated",
		"generation", buf.generation,
		"seed", p.Seed,
		"size", fmt.Sprintf("%dx%d", w, h),
		"octaves", p.Octaves,
		"elapsed", time.Since(start),
	)
	return nil
}

// bandProgress logs filled bands at debug level, once per quarter of the pass
// and whenever a band fails.
func (r *Regenerator) bandProgress() worker.ProgressFunc {
	log := r.log()
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return nil
	}
	lastQuarter := 0
	return func(completed, total, failed int) {
		quarter := completed * 4 / total
		if quarter == lastQuarter && failed == 0 {
			return
		}
		lastQuarter = quarter
		log.Debug("Texture bands filled", "completed", completed, "total", total, "failed", failed)
	}
}

func (r *Regenerator) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

type rowFiller struct {
	field   *noise.Field
	mapper  grid.Mapper
	params  noise.Params
	width   int
	stride  int
	scratch []byte
}

func (f rowFiller) FillRows(ctx context.Context, y0, y1 int) error {
	for y := y0; y < y1; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := f.scratch[y*f.stride : y*f.stride+f.width*4]
		for x := 0; x < f.width; x++ {
			nx, ny := f.mapper.Map(x, y, f.params)
			v := uint8(math.Floor(f.field.Sample(nx, ny, f.params) * 255))
			i := x * 4
			row[i] = v
			row[i+1] = v
			row[i+2] = v
			row[i+3] = 255
		}
	}
	return nil
}
