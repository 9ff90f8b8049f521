package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const progressBarWidth = 24

// Progress reports a sequence of steps, such as rendered frames, as a single
// rewritten line on stderr.
type Progress struct {
	mu      sync.Mutex
	out     io.Writer
	unit    string
	total   int
	done    int
	failed  int
	started time.Time
	last    time.Duration
	enabled bool
}

// NewProgress tracks total steps counted in unit ("items" when empty).
// A disabled tracker still counts but prints nothing.
func NewProgress(total int, unit string, enabled bool) *Progress {
	if unit == "" {
		unit = "items"
	}
	return &Progress{
		out:     os.Stderr,
		unit:    unit,
		total:   total,
		started: time.Now(),
		enabled: enabled,
	}
}

// Step records one finished step; a non-nil err counts it as failed.
func (p *Progress) Step(err error) {
	p.mu.Lock()
	p.done++
	if err != nil {
		p.failed++
	}
	p.last = time.Since(p.started)
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Print rewrites the progress line.
func (p *Progress) Print() {
	p.mu.Lock()
	line := p.line(time.Since(p.started))
	p.mu.Unlock()

	fmt.Fprint(p.out, "\r"+line)
}

func (p *Progress) line(elapsed time.Duration) string {
	filled := 0
	if p.total > 0 {
		filled = p.done * progressBarWidth / p.total
		if filled > progressBarWidth {
			filled = progressBarWidth
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d/%d [%s%s]", p.unit, p.done, p.total,
		strings.Repeat("#", filled), strings.Repeat(".", progressBarWidth-filled))
	if p.failed > 0 {
		fmt.Fprintf(&b, " %d failed", p.failed)
	}
	if p.done > 0 {
		perStep := p.last / time.Duration(p.done)
		fmt.Fprintf(&b, " %s/%s", perStep.Round(time.Millisecond), strings.TrimSuffix(p.unit, "s"))
		if remaining := p.total - p.done; remaining > 0 {
			fmt.Fprintf(&b, " eta %s", formatDuration(perStep*time.Duration(remaining)))
		}
	}
	if p.total > 0 && p.done >= p.total {
		fmt.Fprintf(&b, " done in %s", formatDuration(elapsed))
	}
	// Trailing spaces clear a longer previous line.
	return b.String() + "    "
}

// Done prints the final line and ends it.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.out)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
