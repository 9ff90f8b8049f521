//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/noisesandbox/internal/grid"
	"github.com/MeKo-Tech/noisesandbox/internal/noise"
	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
)

// InitRequest configures the in-browser sandbox.
type InitRequest struct {
	GridSize int          `json:"grid_size"`
	TileSize float64      `json:"tile_size"`
	Seed     *uint32      `json:"seed"`
	Params   *noise.Patch `json:"params"`
}

// FrameInfo describes the active texture after init or a tick.
type FrameInfo struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Index      int    `json:"index"`
	Generation uint64 `json:"generation"`
	Swapped    bool   `json:"swapped"`
}

var sb *sandbox.Sandbox

func errorResult(format string, args ...any) any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}

func toJS(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to encode result: %v", err)
	}
	return string(data)
}

func frameInfo(swapped bool) FrameInfo {
	h := sb.ActiveBuffer()
	w, ht := sb.Buffers().Size()
	return FrameInfo{Width: w, Height: ht, Index: h.Index, Generation: h.Generation, Swapped: swapped}
}

// initSandbox builds the sandbox and runs the initial generation. Browsers
// get a small default grid since there is a single thread to regenerate on.
func initSandbox(this js.Value, args []js.Value) any {
	req := InitRequest{GridSize: 32, TileSize: 8}
	if len(args) > 0 && args[0].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
			return errorResult("failed to parse request: %v", err)
		}
	}

	g, err := grid.New(req.GridSize, req.TileSize)
	if err != nil {
		return errorResult("%v", err)
	}

	seed := noise.RandomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	p := noise.DefaultParams(seed)
	if req.Params != nil {
		req.Params.Apply(&p)
	}

	next, err := sandbox.New(sandbox.Config{Grid: g, Workers: 1, Params: p}, nil)
	if err != nil {
		return errorResult("%v", err)
	}
	if _, err := next.Start(context.Background()); err != nil {
		return errorResult("initial generation failed: %v", err)
	}
	sb = next
	return toJS(frameInfo(false))
}

// setParams applies a JSON params patch and returns the stored parameters.
func setParams(this js.Value, args []js.Value) any {
	if sb == nil {
		return errorResult("sandbox not initialized")
	}
	if len(args) < 1 {
		return errorResult("missing arguments")
	}

	var patch noise.Patch
	if err := json.Unmarshal([]byte(args[0].String()), &patch); err != nil {
		return errorResult("failed to parse params: %v", err)
	}
	return toJS(sb.Update(patch.Apply))
}

func randomize(this js.Value, args []js.Value) any {
	if sb == nil {
		return errorResult("sandbox not initialized")
	}
	return toJS(sb.RandomizeSeed())
}

// tick runs one update cycle; call it from requestAnimationFrame.
func tick(this js.Value, args []js.Value) any {
	if sb == nil {
		return errorResult("sandbox not initialized")
	}
	_, swapped := sb.Tick(context.Background())
	return toJS(frameInfo(swapped))
}

// copyFrame copies the active RGBA pixels into a Uint8ClampedArray, ready
// for new ImageData(arr, width, height).
func copyFrame(this js.Value, args []js.Value) any {
	if sb == nil {
		return errorResult("sandbox not initialized")
	}
	if len(args) < 1 {
		return errorResult("missing destination array")
	}

	buf := sb.ActiveBuffer().Buffer()
	if buf == nil {
		return errorResult("no active texture")
	}
	return js.CopyBytesToJS(args[0], buf.Pix())
}

func main() {
	c := make(chan struct{})

	js.Global().Set("noiseInit", js.FuncOf(initSandbox))
	js.Global().Set("noiseSetParams", js.FuncOf(setParams))
	js.Global().Set("noiseRandomize", js.FuncOf(randomize))
	js.Global().Set("noiseTick", js.FuncOf(tick))
	js.Global().Set("noiseCopyFrame", js.FuncOf(copyFrame))

	fmt.Println("NoiseSandbox WASM module loaded")
	<-c
}
