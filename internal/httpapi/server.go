// Package httpapi exposes the question flow over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"ragqa/internal/domain"
	"ragqa/internal/service"
)

// AskPath is the route the browser front end posts to.
const AskPath = "/.netlify/functions/openai-embeddings"

const maxBodyBytes = 1 << 20

type askRequest struct {
	Filename string `json:"filename"`
	Query    string `json:"query"`
}

type sourceJSON struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

type askResponse struct {
	Filename string       `json:"filename"`
	Query    string       `json:"query"`
	Answer   string       `json:"answer"`
	Sources  []sourceJSON `json:"sources"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	asker   domain.Asker
	log     *slog.Logger
	timeout time.Duration
}

// New returns a server answering with asker. A zero timeout disables the
// per-request deadline.
func New(asker domain.Asker, logger *slog.Logger, timeout time.Duration) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{asker: asker, log: logger, timeout: timeout}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(AskPath, s.askHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Filename == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "filename and query are required")
		return
	}
	if err := service.ValidateFilename(req.Filename); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := s.asker.Ask(ctx, req.Filename, req.Query)
	if err != nil {
		status := statusFor(err)
		s.log.Error("ask failed", "file", req.Filename, "status", status, "err", err)
		writeError(w, status, err.Error())
		return
	}
	s.log.Info("ask", "file", req.Filename, "sources", len(answer.Sources), "took", time.Since(start))

	resp := askResponse{
		Filename: req.Filename,
		Query:    req.Query,
		Answer:   answer.Text,
		Sources:  make([]sourceJSON, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		resp.Sources[i] = sourceJSON{Index: src.Chunk.Index, Score: src.Score, Text: src.Chunk.Text}
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	var ext *domain.ExternalServiceError
	switch {
	case errors.Is(err, service.ErrInvalidFilename), errors.Is(err, service.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.As(err, &ext):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
