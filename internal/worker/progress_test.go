package worker

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProgress_StepCounts(t *testing.T) {
	p := NewProgress(4, "frames", false)

	p.Step(nil)
	p.Step(errors.New("disk full"))

	if p.done != 2 || p.failed != 1 {
		t.Errorf("done=%d failed=%d, want 2 and 1", p.done, p.failed)
	}
}

func TestProgress_Print(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(10, "frames", true)
	p.out = &buf
	p.started = time.Now().Add(-10 * time.Second)

	for i := 0; i < 5; i++ {
		p.Step(nil)
	}
	p.Step(errors.New("boom"))

	last := buf.String()[strings.LastIndex(buf.String(), "\r")+1:]
	for _, want := range []string{"frames 6/10", "[##############..........]", "1 failed", "/frame", "eta "} {
		if !strings.Contains(last, want) {
			t.Errorf("expected %q in %q", want, last)
		}
	}
}

func TestProgress_DefaultUnit(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(2, "", true)
	p.out = &buf

	p.Step(nil)

	if !strings.Contains(buf.String(), "items 1/2") {
		t.Errorf("expected default unit in output, got: %s", buf.String())
	}
}

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(3, "frames", true)
	p.out = &buf

	for i := 0; i < 3; i++ {
		p.Step(nil)
	}
	buf.Reset()
	p.Done()

	output := buf.String()
	if !strings.Contains(output, "done in") {
		t.Errorf("expected 'done in' in output, got: %s", output)
	}
	if strings.Contains(output, "eta") {
		t.Errorf("finished progress should not show an eta: %s", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("expected output to end with newline")
	}
}

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(3, "frames", false)
	p.out = &buf

	p.Step(nil)
	p.Done()

	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got: %s", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}
