package http

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NMBawiskar/ros-data-publisher/gateway"
)

//go:embed index.html
var indexHTML []byte

// RegisterHTTPHandlers mounts the gateway routes on mux under prefix.
func (s *Server) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	mux.HandleFunc("GET "+prefix+"{$}", s.handleIndex)
	mux.HandleFunc("GET "+prefix+"topics", s.handleTopics)
	mux.HandleFunc("GET "+prefix+"stream/{topic...}", s.handleStream)
	mux.HandleFunc("GET "+prefix+"ws/{topic...}", s.handleWebSocket)
	mux.HandleFunc("GET "+prefix+"healthz", s.handleHealthz)
	if s.registry != nil {
		mux.Handle("GET "+prefix+"metrics", promhttp.HandlerFor(
			s.registry.PrometheusRegistry(),
			promhttp.HandlerOpts{EnableOpenMetrics: true},
		))
	}
}

// handleIndex serves the embedded viewer page.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.touch()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

// handleTopics returns the list of streamable topics.
func (s *Server) handleTopics(w http.ResponseWriter, _ *http.Request) {
	s.touch()
	started := time.Now()
	s.writeJSON(w, http.StatusOK, s.catalog.List())
	if s.core != nil {
		s.core.RecordRequestDuration(s.name, "/topics", time.Since(started))
	}
}

// handleHealthz reports aggregated component health. Degraded systems
// still answer 200 so load balancers only evict hard failures.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.touch()
	if s.monitor == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	aggregate := s.monitor.AggregateHealth("ros-data-publisher")
	code := http.StatusOK
	if aggregate.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, aggregate)
}

// lookupTopic resolves the path wildcard back to a catalog entry. The
// wildcard carries the topic without its leading slash.
func (s *Server) lookupTopic(r *http.Request) (gateway.Topic, bool) {
	name := "/" + r.PathValue("topic")
	return s.catalog.Lookup(name)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if n, writeErr := w.Write(data); writeErr == nil {
		s.bytesSent.Add(uint64(n))
	}
}

// writeError emits the error contract used by all endpoints.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.requestsFailed.Add(1)
	if s.core != nil {
		s.core.RecordError(s.name, http.StatusText(statusCode))
	}
	s.writeJSON(w, statusCode, map[string]string{"error": message})
}

// corsMiddleware applies the configured CORS policy and answers
// preflight requests.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.config.CORSOrigins) > 0 {
			s.applyCORS(w, r)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	allowed := false
	for _, allowedOrigin := range s.config.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}

	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// allowOrigin reports whether a WebSocket upgrade from origin is
// permitted under the CORS policy. Requests without an Origin header
// (non-browser clients) are always allowed.
func (s *Server) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.config.CORSOrigins) == 0 {
		// No CORS policy configured: same-origin only.
		return strings.EqualFold(origin, "http://"+r.Host) ||
			strings.EqualFold(origin, "https://"+r.Host)
	}
	for _, allowedOrigin := range s.config.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}
	return false
}
