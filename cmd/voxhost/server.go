package main

import (
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gekko3d/voxtree"
	"github.com/gekko3d/voxtree/preview"
	"github.com/gekko3d/voxtree/remote"
	"github.com/gekko3d/voxtree/volume"
)

type server struct {
	host    *remote.Host
	palette voxtree.Palette
	prof    *voxtree.Profiler
	log     voxtree.Logger
}

func newRouter(h *remote.Host, palette voxtree.Palette, prof *voxtree.Profiler, logger voxtree.Logger) *mux.Router {
	s := &server{host: h, palette: palette, prof: prof, log: logger}
	r := mux.NewRouter()
	r.Handle("/ws", remote.NewWSServer(h, logger).Handler())
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/slice.png", s.handleSlice).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return r
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, v)
	}
	return n, nil
}

// handleSlice renders ?axis=&plane=&cell= of a snapshot of the volume.
func (s *server) handleSlice(rw http.ResponseWriter, r *http.Request) {
	var (
		params [3]int
		err    error
	)
	for i, q := range []struct {
		name string
		def  int
	}{{"axis", volume.AxisZ}, {"plane", 0}, {"cell", 4}} {
		if params[i], err = queryInt(r, q.name, q.def); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var vol *volume.Volume
	if err := s.host.Do(r.Context(), func(vx *voxtree.Voxel) {
		vol = vx.Volume().Clone()
	}); err != nil {
		http.Error(rw, err.Error(), http.StatusServiceUnavailable)
		return
	}

	var img *image.RGBA
	if img, err = preview.Slice(vol, params[0], params[1], params[2], s.palette); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	rw.Header().Set("Content-Type", "image/png")
	if err := png.Encode(rw, img); err != nil {
		s.log.Debugf("slice.png: %v", err)
	}
}

// handleStats writes the profiler's scope timings and counters.
func (s *server) handleStats(rw http.ResponseWriter, r *http.Request) {
	var stats string
	if err := s.host.Do(r.Context(), func(*voxtree.Voxel) {
		stats = s.prof.GetStatsString()
	}); err != nil {
		http.Error(rw, err.Error(), http.StatusServiceUnavailable)
		return
	}
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = rw.Write([]byte(stats))
}
