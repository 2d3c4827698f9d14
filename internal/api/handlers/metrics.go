package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// MetricsHandler exports request counters in the Prometheus text format.
type MetricsHandler struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Int64 // key: "method status"
}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{counters: make(map[string]*atomic.Int64)}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Count wraps a handler and records its response status.
func (h *MetricsHandler) Count(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		h.inc(fmt.Sprintf("%s %d", r.Method, rec.status))
	}
}

func (h *MetricsHandler) inc(key string) {
	h.mu.RLock()
	c, ok := h.counters[key]
	h.mu.RUnlock()
	if !ok {
		h.mu.Lock()
		if c, ok = h.counters[key]; !ok {
			c = new(atomic.Int64)
			h.counters[key] = c
		}
		h.mu.Unlock()
	}
	c.Add(1)
}

func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "# HELP keyring_up Is the server up\n")
	fmt.Fprintf(w, "# TYPE keyring_up gauge\n")
	fmt.Fprintf(w, "keyring_up 1\n")

	h.mu.RLock()
	keys := make([]string, 0, len(h.counters))
	for k := range h.counters {
		keys = append(keys, k)
	}
	h.mu.RUnlock()
	sort.Strings(keys)

	fmt.Fprintf(w, "# HELP keyring_api_requests_total API requests by method and status\n")
	fmt.Fprintf(w, "# TYPE keyring_api_requests_total counter\n")
	for _, k := range keys {
		var method string
		var status int
		fmt.Sscanf(k, "%s %d", &method, &status)
		h.mu.RLock()
		v := h.counters[k].Load()
		h.mu.RUnlock()
		fmt.Fprintf(w, "keyring_api_requests_total{method=%q,status=\"%d\"} %d\n", method, status, v)
	}
}
