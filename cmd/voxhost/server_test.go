package main

import (
	"context"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxtree"
	"github.com/gekko3d/voxtree/remote"
)

func newTestServer(t *testing.T) (*remote.Host, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	prof := voxtree.NewProfiler()
	h := remote.NewHost(remote.HostConfig{
		Voxel: voxtree.VoxelConfig{Depth: 4, Profiler: prof},
	})
	go func() { _ = h.Run(ctx) }()

	srv := httptest.NewServer(newRouter(h, voxtree.DefaultPalette(), prof, voxtree.NewNopLogger()))
	t.Cleanup(srv.Close)
	return h, srv
}

func TestSliceHandler(t *testing.T) {
	h, srv := newTestServer(t)
	require.NoError(t, h.Do(context.Background(), func(vx *voxtree.Voxel) {
		vx.Box(0, 0, 3, 2, 2, 1, 4)
	}))

	resp, err := http.Get(srv.URL + "/slice.png?axis=2&plane=3&cell=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, color.RGBAModel.Convert(img.At(3, 3)))
	assert.Equal(t, color.RGBA{A: 255}, color.RGBAModel.Convert(img.At(4, 4)))
}

func TestSliceHandler_BadQuery(t *testing.T) {
	_, srv := newTestServer(t)
	for _, q := range []string{"axis=x", "axis=5", "cell=0"} {
		resp, err := http.Get(srv.URL + "/slice.png?" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestStatsAndMetrics(t *testing.T) {
	h, srv := newTestServer(t)
	require.NoError(t, h.Do(context.Background(), func(vx *voxtree.Voxel) {
		vx.Sphere(8, 8, 8, 4, 1)
		vx.MakeMesh()
		vx.GenMesh(-1)
	}))

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "genMesh")

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSliceHandler_RejectsOversizedImages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := remote.NewHost(remote.HostConfig{Voxel: voxtree.VoxelConfig{Depth: 9}})
	go func() { _ = h.Run(ctx) }()
	srv := httptest.NewServer(newRouter(h, voxtree.DefaultPalette(), nil, voxtree.NewNopLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/slice.png?cell=64")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/slice.png?cell=8")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
