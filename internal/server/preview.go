// Package server exposes a sandbox over HTTP: the current texture as PNG and
// endpoints that mutate noise parameters.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/noisesandbox/internal/doublebuffer"
	"github.com/MeKo-Tech/noisesandbox/internal/noise"
	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
	"github.com/MeKo-Tech/noisesandbox/internal/texture"
)

// Config configures the preview server.
type Config struct {
	// TPS is the number of update cycles per second driven by Run.
	TPS            int
	CacheControl   string
	PNGCompression png.CompressionLevel
	// StatusInterval is the push period of /status/stream.
	StatusInterval time.Duration
}

// Preview serves frames of a sandbox. It registers itself as a display
// consumer and copies each newly active buffer during the swap, so HTTP
// handlers never read a buffer that a later cycle may regenerate.
type Preview struct {
	sb     *sandbox.Sandbox
	cfg    Config
	logger *slog.Logger

	current atomic.Pointer[frame]
	served  atomic.Int64
}

type frame struct {
	buf        *texture.Buffer
	index      int
	generation uint64
	at         time.Time
}

// FrameStatus describes the frame currently served.
type FrameStatus struct {
	Ready      bool      `json:"ready"`
	Index      int       `json:"index"`
	Generation uint64    `json:"generation"`
	UpdatedAt  time.Time `json:"updated_at"`
	Served     int64     `json:"served"`
}

// Status is the payload of GET /status.
type Status struct {
	Sandbox sandbox.Stats `json:"sandbox"`
	Frame   FrameStatus   `json:"frame"`
}

// NewPreview creates a preview server for sb and registers it as a consumer.
func NewPreview(sb *sandbox.Sandbox, cfg Config, logger *slog.Logger) *Preview {
	if cfg.TPS <= 0 {
		cfg.TPS = 30
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 250 * time.Millisecond
	}

	p := &Preview{sb: sb, cfg: cfg, logger: logger}
	sb.Register(p)
	return p
}

// SetActive copies the newly active buffer into the served frame.
func (p *Preview) SetActive(h doublebuffer.Handle) {
	buf := h.Buffer()
	if buf == nil {
		p.log().Warn("Active buffer handle did not resolve; keeping previous frame", "index", h.Index)
		return
	}

	cp, err := texture.NewBuffer(buf.Width(), buf.Height())
	if err != nil {
		p.log().Error("Failed to copy active buffer", "error", err)
		return
	}
	copy(cp.Pix(), buf.Pix())
	p.current.Store(&frame{
		buf:        cp,
		index:      h.Index,
		generation: h.Generation,
		at:         time.Now(),
	})
}

// Run drives the sandbox's update cycle until ctx is cancelled.
func (p *Preview) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(p.cfg.TPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if h, ok := p.sb.Tick(ctx); ok {
				p.log().Debug("Published new texture", "index", h.Index, "generation", h.Generation)
			}
		}
	}
}

// Handler returns the HTTP routes.
func (p *Preview) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /texture.png", p.serveTexture)
	mux.HandleFunc("GET /texture@2x.png", p.serveTexture)
	mux.HandleFunc("GET /params", p.getParams)
	mux.HandleFunc("POST /params", p.postParams)
	mux.HandleFunc("POST /regenerate", p.postRegenerate)
	mux.HandleFunc("POST /randomize", p.postRandomize)
	mux.HandleFunc("POST /pan", p.postPan)
	mux.HandleFunc("GET /status", p.getStatus)
	mux.HandleFunc("GET /status/stream", p.streamStatus)
	return mux
}

// Status returns the sandbox counters and the served frame.
func (p *Preview) Status() Status {
	fs := FrameStatus{Served: p.served.Load()}
	if f := p.current.Load(); f != nil {
		fs.Ready = true
		fs.Index = f.index
		fs.Generation = f.generation
		fs.UpdatedAt = f.at
	}
	return Status{Sandbox: p.sb.Stats(), Frame: fs}
}

func (p *Preview) serveTexture(w http.ResponseWriter, r *http.Request) {
	f := p.current.Load()
	if f == nil {
		http.Error(w, "texture not ready", http.StatusServiceUnavailable)
		return
	}

	scale := 1
	if strings.HasSuffix(r.URL.Path, "@2x.png") {
		scale = 2
	}
	if s := r.URL.Query().Get("scale"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > texture.MaxPreviewScale {
			http.Error(w, "scale must be an integer between 1 and "+strconv.Itoa(texture.MaxPreviewScale), http.StatusBadRequest)
			return
		}
		scale = n
	}

	var img image.Image = f.buf.Image()
	if scale > 1 {
		img = texture.Enlarge(f.buf, scale)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", p.cfg.CacheControl)
	w.Header().Set("X-Texture-Generation", strconv.FormatUint(f.generation, 10))
	if err := texture.EncodePNG(w, img, p.cfg.PNGCompression); err != nil {
		p.log().Error("Failed to write texture", "error", err)
		return
	}
	p.served.Add(1)
}

func (p *Preview) getParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.sb.Params())
}

func (p *Preview) postParams(w http.ResponseWriter, r *http.Request) {
	var patch noise.Patch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		http.Error(w, "invalid params: "+err.Error(), http.StatusBadRequest)
		return
	}

	stored := p.sb.Update(patch.Apply)
	writeJSON(w, http.StatusOK, stored)
}

func (p *Preview) postRegenerate(w http.ResponseWriter, r *http.Request) {
	p.sb.RequestRegeneration()
	w.WriteHeader(http.StatusAccepted)
}

func (p *Preview) postRandomize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.sb.RandomizeSeed())
}

func (p *Preview) postPan(w http.ResponseWriter, r *http.Request) {
	dx, errX := parseInt32(r.URL.Query().Get("dx"))
	dy, errY := parseInt32(r.URL.Query().Get("dy"))
	if err := errors.Join(errX, errY); err != nil {
		http.Error(w, "invalid pan delta: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, p.sb.Pan(dx, dy))
}

func (p *Preview) getStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, p.Status())
}

// streamStatus pushes the status as server-sent events so a page can follow
// regenerations without polling.
func (p *Preview) streamStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ticker := time.NewTicker(p.cfg.StatusInterval)
	defer ticker.Stop()

	p.sendStatusEvent(w, flusher)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			p.sendStatusEvent(w, flusher)
		}
	}
}

func (p *Preview) sendStatusEvent(w http.ResponseWriter, flusher http.Flusher) {
	data, err := json.Marshal(p.Status())
	if err != nil {
		p.log().Error("failed to encode status", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func (p *Preview) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

func parseInt32(s string) (int32, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WithCORS allows browser pages on other origins to poll the preview.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
