// Package server exposes the analyzer over HTTP for UI front ends. It is a
// local collaborator, not a public service: one endpoint accepts contract
// text and returns the analysis outcome.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pilati06/recall"
	"github.com/pilati06/recall/internal/rclerr"
	"github.com/pilati06/recall/internal/rcllog"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address, e.g. ":8180".
	Address string

	// Analyzer is the run configuration applied to every request.
	Analyzer recall.Config

	// Logger receives analysis logs. May be nil.
	Logger *rcllog.Logger
}

// Server serves the analysis API.
type Server struct {
	cfg    Config
	router chi.Router
}

// New creates a server ready to ServeForever.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/health", s.handleHealth)

	s.router = r
	return s
}

// ServeForever starts the HTTP listener and blocks.
func (s *Server) ServeForever() error {
	return http.ListenAndServe(s.cfg.Address, s.router)
}

// Handler returns the underlying router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// AnalyzeRequest is the POST /analyze request body.
type AnalyzeRequest struct {
	// Text is the RCL contract source.
	Text string `json:"text"`

	// Mode selects how this request is analyzed: "Normal" (the default
	// when empty), "Verbose" to log every analysis step, or "Test" to get
	// the metric CSV payload back, like the CLI -v and -t flags.
	Mode string `json:"mode,omitempty"`

	// Continue keeps expanding after a conflict, like the CLI -c flag.
	Continue bool `json:"continue,omitempty"`
}

// AnalyzeResponse is the POST /analyze response body. ResultCSV is only
// set for Test-mode requests.
type AnalyzeResponse struct {
	Summary     string `json:"summary"`
	Conflict    bool   `json:"conflict"`
	States      int    `json:"states"`
	Transitions int    `json:"transitions"`
	TimeMS      int64  `json:"time_ms"`
	ResultCSV   string `json:"result_csv,omitempty"`
}

// ErrorResponse is the envelope of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	var body AnalyzeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
		return
	}
	if body.Text == "" {
		jsonErr(w, http.StatusBadRequest, "no contract text given")
		return
	}

	logger := s.cfg.Logger
	switch body.Mode {
	case "", "Normal", "Test":
	case "Verbose":
		logger = logger.WithMax(rcllog.Additional)
	default:
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q; use Normal, Verbose or Test", body.Mode))
		return
	}

	cfg := s.cfg.Analyzer
	cfg.ContinueOnConflict = cfg.ContinueOnConflict || body.Continue

	result, err := recall.New(cfg, logger).AnalyzeText(body.Text)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rclerr.ErrParse) {
			status = http.StatusUnprocessableEntity
		}
		jsonErr(w, status, err.Error())
		return
	}

	m := result.Metrics()
	resp := AnalyzeResponse{
		Summary:     result.Summary(),
		Conflict:    m.ConflictFound,
		States:      m.States,
		Transitions: m.Transitions,
		TimeMS:      m.TimeMS,
	}
	if body.Mode == "Test" {
		resp.ResultCSV = m.ResultCSV()
	}
	jsonOK(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"})
}

func jsonOK(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
