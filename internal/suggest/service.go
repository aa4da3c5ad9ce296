package suggest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Joel31000/CarbonConsult/internal/logging"
)

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

// Generator produces suggestions for a request.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

// Options selects and configures a backend.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	// Timeout bounds a single call; zero means no extra deadline.
	Timeout time.Duration
}

// New builds a Service for the configured provider. The "none" provider (or
// an empty one) yields ErrNotConfigured.
func New(ctx context.Context, opts Options) (*Service, error) {
	var (
		gen Generator
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderAnthropic:
		gen, err = NewAnthropicGenerator(opts.APIKey, opts.Model)
	case ProviderGemini:
		gen, err = NewGeminiGenerator(ctx, opts.APIKey, opts.Model)
	case ProviderNone, "":
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	return NewService(gen, opts.Timeout), nil
}

// Service runs suggestion requests against one Generator.
//
// Each call is numbered. Calls may overlap, but Last only ever reports the
// response of the most recently started call that has completed, so a slow
// earlier call cannot overwrite a newer answer.
type Service struct {
	gen     Generator
	timeout time.Duration

	mu      sync.Mutex
	seq     uint64
	lastSeq uint64
	last    *Response
}

// NewService wraps gen.
func NewService(gen Generator, timeout time.Duration) *Service {
	return &Service{gen: gen, timeout: timeout}
}

// Suggest sends req once. Any failure is returned wrapped in
// ErrSuggestionFailed; there are no retries.
func (s *Service) Suggest(ctx context.Context, req Request) (Response, error) {
	s.mu.Lock()
	s.seq++
	n := s.seq
	s.mu.Unlock()

	logger := logging.FromContext(ctx).With().
		Str("component", "suggest").
		Str("operation", "Suggest").
		Str("provider", s.gen.Name()).
		Uint64("request", n).
		Logger()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("suggestion request failed")
		return Response{}, fmt.Errorf("%w: %s: %w", ErrSuggestionFailed, s.gen.Name(), err)
	}
	logger.Debug().
		Int("recommendations", len(resp.Recommendations)).
		Dur("elapsed", time.Since(start)).
		Msg("suggestion received")

	s.mu.Lock()
	if n > s.lastSeq {
		s.lastSeq = n
		r := resp
		s.last = &r
	}
	s.mu.Unlock()
	return resp, nil
}

// Last returns the retained response and the number of the call that
// produced it.
func (s *Service) Last() (Response, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Response{}, 0, false
	}
	return *s.last, s.lastSeq, true
}
