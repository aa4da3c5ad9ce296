// Package session holds the single in-memory offer a user is editing and
// routes it through calculation, export, import, suggestion and submission.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Joel31000/CarbonConsult/internal/engine"
	"github.com/Joel31000/CarbonConsult/internal/factors"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
	"github.com/Joel31000/CarbonConsult/internal/logging"
	"github.com/Joel31000/CarbonConsult/internal/submission"
	"github.com/Joel31000/CarbonConsult/internal/suggest"
	"github.com/Joel31000/CarbonConsult/internal/tabular"
)

// Edit errors.
var (
	ErrIndexOutOfRange = errors.New("line item index out of range")
	ErrInvalidCategory = errors.New("invalid category")
	ErrNoSubmitter     = errors.New("no submission store configured")
)

// Session is one user's editing session. The offer is only changed through
// Session methods; readers get copies.
type Session struct {
	mu    sync.RWMutex
	offer *lineitem.Offer

	table     *factors.Table
	calc      *engine.Calculator
	suggester *suggest.Service
	submitter *submission.Submitter
}

// Option configures a Session.
type Option func(*Session)

// WithOffer starts the session from a copy of offer.
func WithOffer(offer *lineitem.Offer) Option {
	return func(s *Session) {
		if offer != nil {
			s.offer = offer.Clone()
		}
	}
}

// WithSuggester enables Suggest.
func WithSuggester(svc *suggest.Service) Option {
	return func(s *Session) { s.suggester = svc }
}

// WithSubmitter enables Submit.
func WithSubmitter(sub *submission.Submitter) Option {
	return func(s *Session) { s.submitter = sub }
}

// New creates a session bound to table; nil selects the default table.
func New(table *factors.Table, opts ...Option) *Session {
	if table == nil {
		table = factors.Default()
	}
	s := &Session{
		offer: &lineitem.Offer{},
		table: table,
		calc:  engine.NewCalculator(table),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the factor table of the session.
func (s *Session) Table() *factors.Table { return s.table }

// Offer returns a copy of the current offer.
func (s *Session) Offer() *lineitem.Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offer.Clone()
}

// SetLabel sets the offer label.
func (s *Session) SetLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offer.Label = label
}

// SetComments sets the free-text comments.
func (s *Session) SetComments(comments string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offer.Comments = comments
}

// AppendMaterial adds a material line and returns its index.
func (s *Session) AppendMaterial(m lineitem.MaterialItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offer.Materials = append(s.offer.Materials, m)
	return len(s.offer.Materials) - 1
}

// AppendProcess adds a manufacturing or implementation line and returns its
// index.
func (s *Session) AppendProcess(c factors.Category, p lineitem.ProcessItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.processList(c)
	if err != nil {
		return 0, err
	}
	*list = append(*list, p)
	return len(*list) - 1, nil
}

// AppendTransport adds a transport leg and returns its index.
func (s *Session) AppendTransport(t lineitem.TransportItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offer.Transport = append(s.offer.Transport, t)
	return len(s.offer.Transport) - 1
}

// AppendEndOfLife adds a disposal line and returns its index.
func (s *Session) AppendEndOfLife(e lineitem.EndOfLifeItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offer.EndOfLife = append(s.offer.EndOfLife, e)
	return len(s.offer.EndOfLife) - 1
}

// UpdateMaterial replaces the material line at i.
func (s *Session) UpdateMaterial(i int, m lineitem.MaterialItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return set(s.offer.Materials, i, m)
}

// UpdateProcess replaces the process line at i of a process category.
func (s *Session) UpdateProcess(c factors.Category, i int, p lineitem.ProcessItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.processList(c)
	if err != nil {
		return err
	}
	return set(*list, i, p)
}

// UpdateTransport replaces the transport leg at i.
func (s *Session) UpdateTransport(i int, t lineitem.TransportItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return set(s.offer.Transport, i, t)
}

// UpdateEndOfLife replaces the disposal line at i.
func (s *Session) UpdateEndOfLife(i int, e lineitem.EndOfLifeItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return set(s.offer.EndOfLife, i, e)
}

// Remove deletes the line at index i of category c, keeping the order of
// the remaining lines.
func (s *Session) Remove(c factors.Category, i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.offer
	var err error
	switch c {
	case factors.Materials:
		o.Materials, err = remove(o.Materials, i)
	case factors.Manufacturing:
		o.Manufacturing, err = remove(o.Manufacturing, i)
	case factors.Implementation:
		o.Implementation, err = remove(o.Implementation, i)
	case factors.Transport:
		o.Transport, err = remove(o.Transport, i)
	case factors.EndOfLife:
		o.EndOfLife, err = remove(o.EndOfLife, i)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	return err
}

// Calculate computes the emissions of the current offer. It has no side
// effects and can run after every edit.
func (s *Session) Calculate(ctx context.Context) *engine.Result {
	return s.calc.Calculate(ctx, s.Offer())
}

// Export lays out the current offer and its emissions as a report.
func (s *Session) Export(ctx context.Context, opts tabular.ExportOptions) *tabular.Document {
	offer := s.Offer()
	return tabular.Export(offer, s.calc.Calculate(ctx, offer), opts)
}

// ExportFile writes the report into dir under the suggested file name and
// returns the path written.
func (s *Session) ExportFile(ctx context.Context, dir string, format tabular.Format, opts tabular.ExportOptions) (string, error) {
	s.mu.RLock()
	label := s.offer.Label
	s.mu.RUnlock()

	path := filepath.Join(dir, tabular.Filename(label, format))
	if err := tabular.WriteFile(path, s.Export(ctx, opts)); err != nil {
		return "", err
	}
	logging.FromContext(ctx).Info().
		Str("component", "session").
		Str("path", path).
		Msg("report exported")
	return path, nil
}

// ImportDocument replaces every line-item list with those read from doc.
// Label and Comments are kept. On error the offer is left unchanged.
func (s *Session) ImportDocument(ctx context.Context, doc *tabular.Document) error {
	imported, err := tabular.Import(ctx, doc, s.table)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offer.ReplaceItems(imported)
	return nil
}

// ImportFile reads a CSV or XLSX report and imports it like ImportDocument.
func (s *Session) ImportFile(ctx context.Context, path string) error {
	doc, err := tabular.ReadFile(path)
	if err != nil {
		return err
	}
	return s.ImportDocument(ctx, doc)
}

// Suggest requests an assessment of the current offer. The offer is not
// changed whatever the outcome.
func (s *Session) Suggest(ctx context.Context) (suggest.Response, error) {
	if s.suggester == nil {
		return suggest.Response{}, suggest.ErrNotConfigured
	}
	offer := s.Offer()
	req := suggest.BuildRequest(s.calc.Calculate(ctx, offer), offer.Comments)
	return s.suggester.Suggest(ctx, req)
}

// LastSuggestion returns the newest suggestion received in this session.
func (s *Session) LastSuggestion() (suggest.Response, bool) {
	if s.suggester == nil {
		return suggest.Response{}, false
	}
	resp, _, ok := s.suggester.Last()
	return resp, ok
}

// Submit persists a snapshot of the current offer and its totals. The offer
// stays in the session so a failed submission can be retried.
func (s *Session) Submit(ctx context.Context) (submission.Ack, error) {
	if s.submitter == nil {
		return submission.Ack{Message: ErrNoSubmitter.Error()},
			fmt.Errorf("%w: %w", submission.ErrSubmissionFailed, ErrNoSubmitter)
	}
	offer := s.Offer()
	return s.submitter.Submit(ctx, offer, s.calc.Calculate(ctx, offer).Totals)
}

func (s *Session) processList(c factors.Category) (*[]lineitem.ProcessItem, error) {
	switch c {
	case factors.Manufacturing:
		return &s.offer.Manufacturing, nil
	case factors.Implementation:
		return &s.offer.Implementation, nil
	default:
		return nil, fmt.Errorf("%w: %s has no process lines", ErrInvalidCategory, c)
	}
}

func set[T any](list []T, i int, v T) error {
	if i < 0 || i >= len(list) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(list))
	}
	list[i] = v
	return nil
}

func remove[T any](list []T, i int) ([]T, error) {
	if i < 0 || i >= len(list) {
		return list, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(list))
	}
	return append(list[:i], list[i+1:]...), nil
}
