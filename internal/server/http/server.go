// Package httpserver exposes a minimal operator-facing HTTP surface over a
// running accumulator: a health check and a point lookup for one need's
// current state. It intentionally carries none of the teacher's channel
// publish/subscribe/ack surface — this process has no client-facing
// publish API (spec.md Non-goals: no new producer-facing transport).
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/navikt/behovsakkumulator/internal/bus"
	"github.com/navikt/behovsakkumulator/internal/query"
	"github.com/navikt/behovsakkumulator/internal/runtime"
	"github.com/navikt/behovsakkumulator/internal/statestore"
)

// Server is the admin HTTP listener for one running accumulator process.
type Server struct {
	rt   *runtime.Runtime
	bus  *bus.Adapter
	insp *query.Inspector
	srv  *http.Server
	lis  net.Listener
}

// New builds a Server that answers health checks against rt and state
// lookups against b/store.
func New(rt *runtime.Runtime, b *bus.Adapter, store *statestore.Store) *Server {
	mux := http.NewServeMux()
	s := &Server{rt: rt, bus: b, insp: query.NewInspector(b, store)}
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/state/", s.handleGetState)
	mux.HandleFunc("/v1/stats", s.handleStats)
	s.srv = &http.Server{Handler: cors(mux)}
	return s
}

// ListenAndServe blocks serving addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the listener without waiting for in-flight requests.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_serving"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStats reports adapter-wide counters an operator cannot otherwise
// observe from outside the process, notably the malformed-record count
// (spec.md §4.1/§7).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]uint64{"malformedCount": s.bus.MalformedCount()})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Path[len("/v1/state/"):]
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	state, err := s.insp.Inspect(id)
	if err != nil {
		if errors.Is(err, query.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(state)
}
