package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mvillard/docsearch/pkg/query"
	"github.com/mvillard/docsearch/pkg/results"
	"github.com/mvillard/docsearch/pkg/session"
	"github.com/mvillard/docsearch/pkg/suggest"
)

const maxPrefixLen = 60

// Directory is the backend side not owned by the session controller:
// type listings and per-document word statistics.
type Directory interface {
	DocumentTypes(ctx context.Context) ([]string, error)
	WordFrequencies(ctx context.Context, filename string) ([]results.WordCount, error)
}

// Server handles the IPC for one search session.
type Server struct {
	controller *session.Controller
	provider   suggest.Provider
	dir        Directory
	cloudCfg   results.ScaleConfig

	dec *msgpack.Decoder
	enc *msgpack.Encoder
}

// Option configures a Server.
type Option func(*Server)

// WithStreams substitutes the IPC pipe, mostly for tests.
func WithStreams(r io.Reader, w io.Writer) Option {
	return func(s *Server) {
		s.dec = msgpack.NewDecoder(r)
		s.enc = msgpack.NewEncoder(w)
	}
}

// WithCloudConfig overrides the word-cloud scaling parameters.
func WithCloudConfig(cfg results.ScaleConfig) Option {
	return func(s *Server) { s.cloudCfg = cfg }
}

// NewServer creates a session server speaking msgpack over stdin/stdout.
func NewServer(controller *session.Controller, provider suggest.Provider, dir Directory, opts ...Option) *Server {
	s := &Server{
		controller: controller,
		provider:   provider,
		dir:        dir,
		cloudCfg:   results.DefaultScaleConfig(),
		dec:        msgpack.NewDecoder(os.Stdin),
		enc:        msgpack.NewEncoder(os.Stdout),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins listening for IPC requests. It returns on EOF or a broken
// pipe.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting session server.")

	// Signal that the server is ready
	s.send(StatusResponse{Status: "ready"})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Reading request: %v", err)
			return err
		}
		s.handleRequest(ctx, req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req Request) {
	switch req.Op {
	case "complete":
		s.handleComplete(ctx, req)
	case "search":
		s.handleSearch(ctx, req)
	case "page":
		s.controller.SetPage(req.Page)
		s.send(s.stateResponse(req.ID, 0))
	case "state":
		s.send(s.stateResponse(req.ID, 0))
	case "types":
		s.handleTypes(ctx, req)
	case "cloud":
		s.handleCloud(ctx, req)
	case "click":
		s.controller.ClickWord(req.Text)
		s.send(ClickResponse{ID: req.ID, Text: s.controller.Query().Text})
	case "health":
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown op: %s", req.Op), 400)
	}
}

func (s *Server) handleComplete(ctx context.Context, req Request) {
	if req.Text == "" {
		s.sendError(req.ID, "Missing 't' parameter", 400)
		log.Debug("Prefix is empty in request")
		return
	}
	if len(req.Text) > maxPrefixLen {
		s.sendError(req.ID, fmt.Sprintf("Prefix exceeds maximum length of %d characters", maxPrefixLen), 400)
		log.Debug("Prefix is too long in request")
		return
	}
	limit := req.Limit
	if limit < 1 {
		limit = suggest.DefaultLimit
	}

	start := time.Now()
	words, err := s.provider.Suggest(ctx, req.Text, limit)
	if err != nil {
		s.sendError(req.ID, "Completion failed", 502)
		log.Warnf("Completion for %q failed: %v", req.Text, err)
		return
	}
	s.send(CompleteResponse{
		ID:          req.ID,
		Suggestions: words,
		Count:       len(words),
		TimeTaken:   time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleSearch(ctx context.Context, req Request) {
	q := query.New()
	q.Text = req.Text
	if req.Mode != "" {
		q.Mode = query.Mode(req.Mode)
	}
	q.Types = req.Types

	start := time.Now()
	if err := s.controller.SubmitWait(ctx, q); err != nil {
		if errors.Is(err, query.ErrEmptyQuery) || errors.Is(err, query.ErrInvalidMode) {
			s.sendError(req.ID, err.Error(), 400)
			return
		}
		// The controller keeps the previous result set; report the
		// failure but still describe the session state.
		log.Warnf("Search failed: %v", err)
		s.send(s.stateResponse(req.ID, time.Since(start).Milliseconds()))
		return
	}
	s.send(s.stateResponse(req.ID, time.Since(start).Milliseconds()))
}

func (s *Server) stateResponse(id string, elapsed int64) SearchResponse {
	page := s.controller.CurrentPage()
	items := make([]ResultItem, len(page.Items))
	for i, it := range page.Items {
		items[i] = ResultItem{
			Filename:         it.Filename,
			Context:          it.Context,
			Date:             it.Date,
			Type:             it.Type,
			TotalOccurrences: it.TotalOccurrences,
		}
	}
	return SearchResponse{
		ID:          id,
		Status:      s.controller.Status().String(),
		Query:       s.controller.Query().Text,
		Items:       items,
		Suggestions: s.controller.DidYouMean(),
		Page:        page.Index,
		TotalPages:  page.TotalPages,
		TotalItems:  page.TotalItems,
		TimeTaken:   elapsed,
	}
}

func (s *Server) handleTypes(ctx context.Context, req Request) {
	types, err := s.dir.DocumentTypes(ctx)
	if err != nil {
		s.sendError(req.ID, "Listing document types failed", 502)
		log.Warnf("Listing document types: %v", err)
		return
	}
	s.send(TypesResponse{ID: req.ID, Types: types})
}

func (s *Server) handleCloud(ctx context.Context, req Request) {
	if req.Filename == "" {
		s.sendError(req.ID, "Missing 'f' parameter", 400)
		return
	}
	counts, err := s.dir.WordFrequencies(ctx, req.Filename)
	if err != nil {
		s.sendError(req.ID, "Fetching word frequencies failed", 502)
		log.Warnf("Word frequencies for %q: %v", req.Filename, err)
		return
	}
	entries := results.ScaleWeights(counts, s.cloudCfg)
	words := make([]CloudWord, len(entries))
	for i, e := range entries {
		words[i] = CloudWord{Word: e.Word, Weight: e.Weight}
	}
	s.send(CloudResponse{ID: req.ID, Words: words})
}

func (s *Server) send(response any) {
	if err := s.enc.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Status: code})
}
