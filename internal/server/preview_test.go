package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/noisesandbox/internal/grid"
	"github.com/MeKo-Tech/noisesandbox/internal/noise"
	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPreview(t *testing.T, start bool) (*Preview, *sandbox.Sandbox) {
	t.Helper()
	p := noise.DefaultParams(7)
	p.Frequency = 0.25
	sb, err := sandbox.New(sandbox.Config{
		Grid:    grid.Grid{Size: 8, TileSize: 2},
		Workers: 2,
		Params:  p,
	}, nil)
	require.NoError(t, err)

	preview := NewPreview(sb, Config{}, nil)
	if start {
		_, err := sb.Start(context.Background())
		require.NoError(t, err)
	}
	return preview, sb
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTextureNotReadyBeforeStart(t *testing.T) {
	preview, _ := newTestPreview(t, false)

	rec := do(t, preview.Handler(), http.MethodGet, "/texture.png", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, preview.Status().Frame.Ready)
}

func TestServeTexture(t *testing.T) {
	preview, _ := newTestPreview(t, true)
	h := preview.Handler()

	tests := []struct {
		target string
		size   int
	}{
		{"/texture.png", 16},
		{"/texture@2x.png", 32},
		{"/texture.png?scale=3", 48},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

			img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, tt.size, img.Bounds().Dx())
			assert.Equal(t, tt.size, img.Bounds().Dy())
		})
	}

	assert.Equal(t, int64(3), preview.Status().Frame.Served)
}

func TestServeTextureRejectsBadScale(t *testing.T) {
	preview, _ := newTestPreview(t, true)

	for _, target := range []string{"/texture.png?scale=0", "/texture.png?scale=99", "/texture.png?scale=x"} {
		rec := do(t, preview.Handler(), http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestPostParamsClampsAndRequests(t *testing.T) {
	preview, sb := newTestPreview(t, true)

	rec := do(t, preview.Handler(), http.MethodPost, "/params", `{"octaves": 20, "frequency": 5, "basis": "simplex"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got noise.Params
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, noise.MaxOctaves, got.Octaves)
	assert.Equal(t, noise.MaxFrequency, got.Frequency)
	assert.Equal(t, noise.BasisSimplex, got.Basis)
	assert.Equal(t, uint32(7), got.Seed, "fields absent from the patch are kept")
	assert.Equal(t, got, sb.Params())
	assert.True(t, sb.Stats().Pending)
}

func TestPostParamsRejectsInvalidBody(t *testing.T) {
	preview, sb := newTestPreview(t, true)

	for _, body := range []string{`{"octaves": "many"}`, `{"colour": 1}`, `not json`} {
		rec := do(t, preview.Handler(), http.MethodPost, "/params", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.False(t, sb.Stats().Pending)
}

func TestGetParams(t *testing.T) {
	preview, sb := newTestPreview(t, true)

	rec := do(t, preview.Handler(), http.MethodGet, "/params", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got noise.Params
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sb.Params(), got)
}

func TestRegenerateUpdatesServedFrame(t *testing.T) {
	preview, sb := newTestPreview(t, true)
	before := preview.Status().Frame

	rec := do(t, preview.Handler(), http.MethodPost, "/regenerate", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	h, ok := sb.Tick(context.Background())
	require.True(t, ok)

	after := preview.Status().Frame
	assert.Equal(t, h.Generation, after.Generation)
	assert.Equal(t, h.Index, after.Index)
	assert.NotEqual(t, before.Index, after.Index)
	assert.Greater(t, after.Generation, before.Generation)
}

func TestServedFrameFollowsSwaps(t *testing.T) {
	preview, sb := newTestPreview(t, true)

	first := do(t, preview.Handler(), http.MethodGet, "/texture.png", "").Body.Bytes()

	sb.SetSeed(99)
	_, ok := sb.Tick(context.Background())
	require.True(t, ok)
	changed := do(t, preview.Handler(), http.MethodGet, "/texture.png", "").Body.Bytes()
	assert.NotEqual(t, first, changed)

	// The second swap rewrites the buffer the first frame was copied from.
	sb.SetSeed(7)
	_, ok = sb.Tick(context.Background())
	require.True(t, ok)

	again := do(t, preview.Handler(), http.MethodGet, "/texture.png", "").Body.Bytes()
	assert.Equal(t, first, again)
}

func TestPostRandomizeAndPan(t *testing.T) {
	preview, sb := newTestPreview(t, true)
	h := preview.Handler()

	rec := do(t, h, http.MethodPost, "/randomize", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sb.Stats().Pending)

	rec = do(t, h, http.MethodPost, "/pan?dx=2&dy=-3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(2), sb.Params().OffsetX)
	assert.Equal(t, int32(-3), sb.Params().OffsetY)

	rec = do(t, h, http.MethodPost, "/pan?dx=left", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusAndHealth(t *testing.T) {
	preview, _ := newTestPreview(t, true)
	h := preview.Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Frame.Ready)
	assert.Equal(t, 16, status.Sandbox.Width)
	assert.Equal(t, uint64(2), status.Sandbox.Regenerations)
}

func TestStatusStreamSendsInitialEvent(t *testing.T) {
	preview, _ := newTestPreview(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/status/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	preview.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "data: "))

	var status Status
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(body, "data: "))), &status))
	assert.True(t, status.Frame.Ready)
}

func TestRunStopsOnCancel(t *testing.T) {
	preview, _ := newTestPreview(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, preview.Run(ctx), context.Canceled)
}

func TestWithCORS(t *testing.T) {
	preview, _ := newTestPreview(t, true)
	h := WithCORS(preview.Handler())

	rec := do(t, h, http.MethodOptions, "/params", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
