package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/time/rate"

	"github.com/hectorBrown/icl-y2-project/pkg/analysis"
	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/lens"
	"github.com/hectorBrown/icl-y2-project/pkg/loaders"
	"github.com/hectorBrown/icl-y2-project/pkg/system"
)

// maxPrescriptionBytes bounds POSTed prescription bodies
const maxPrescriptionBytes = 1 << 20

// Server handles web requests for lens analysis
type Server struct {
	port      int
	catalogue *lens.Catalogue
	limiter   *rate.Limiter
	analysis  analysis.Config
	requests  atomic.Uint64
}

// Option configures a Server
type Option func(*Server)

// WithRateLimit allows r requests per second with the given burst
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(r, burst) }
}

// WithCatalogue replaces the lens catalogue
func WithCatalogue(c *lens.Catalogue) Option {
	return func(s *Server) { s.catalogue = c }
}

// WithAnalysisConfig replaces the focus and spot parameters
func WithAnalysisConfig(config analysis.Config) Option {
	return func(s *Server) { s.analysis = config }
}

// NewServer creates a new web server
func NewServer(port int, opts ...Option) *Server {
	s := &Server{
		port:      port,
		catalogue: lens.NewCatalogue(nil, lens.DefaultSearchPaths...),
		limiter:   rate.NewLimiter(10, 20),
		analysis:  analysis.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes wrapped in the request limiter
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/lenses", s.handleLenses)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/trace", s.handleTrace)
	return s.limit(mux)
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	glog.Infof("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) nextRequestID(kind string) string {
	return fmt.Sprintf("%s-%d", kind, s.requests.Add(1))
}

func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			glog.Warningf("Rate limited %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		glog.V(1).Infof("%s %s", r.Method, r.URL)
		next.ServeHTTP(w, r)
	})
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLenses returns the grouped lens catalogue
func (s *Server) handleLenses(w http.ResponseWriter, r *http.Request) {
	groups, err := s.catalogue.Groups()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// resolveSystem loads the lens named by the query or, for POST, builds the
// prescription in the request body
func (s *Server) resolveSystem(w http.ResponseWriter, r *http.Request) (*system.System, lens.Info, int, error) {
	switch r.Method {
	case http.MethodGet:
		name := r.URL.Query().Get("lens")
		if name == "" {
			name = "biconvex"
		}
		sys, info, err := s.catalogue.Load(name)
		if errors.Is(err, lens.ErrUnknownLens) {
			return nil, info, http.StatusNotFound, err
		}
		if err != nil {
			return nil, info, http.StatusBadRequest, err
		}
		return sys, info, http.StatusOK, nil
	case http.MethodPost:
		p, err := loaders.ParsePrescription(http.MaxBytesReader(w, r.Body, maxPrescriptionBytes))
		if err != nil {
			return nil, lens.Info{}, http.StatusBadRequest, err
		}
		sys, err := p.Build()
		if err != nil {
			return nil, lens.Info{}, http.StatusBadRequest, err
		}
		return sys, lens.Info{
			ID:          "inline",
			Name:        p.Name,
			DisplayName: p.Name,
			Description: p.Description,
			Type:        "prescription",
		}, http.StatusOK, nil
	default:
		return nil, lens.Info{}, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method)
	}
}

// bundleRequest holds the bundle parameters shared by analyze and trace
type bundleRequest struct {
	Radius      float64
	Rings       int
	RaysPerRing int
}

func parseBundleRequest(values url.Values) (bundleRequest, error) {
	var req bundleRequest
	var err error
	if req.Radius, err = parseFloatParam(values, "radius", 5e-3, 1e-6, 1); err != nil {
		return req, err
	}
	if req.Rings, err = parseIntParam(values, "rings", 6, 0, 50); err != nil {
		return req, err
	}
	if req.RaysPerRing, err = parseIntParam(values, "perRing", 6, 1, 100); err != nil {
		return req, err
	}
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// statusFor maps analysis failures onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNonConvergent), errors.Is(err, core.ErrNoSamples):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
