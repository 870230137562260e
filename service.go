package md2codelab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultListLimit caps List when no positive limit is given.
const DefaultListLimit = 50

// Service converts remote Markdown into stored codelab pages.
// Concurrent conversions of the same URL share a single fetch and render.
type Service struct {
	fetcher  Fetcher
	store    Store
	ids      IDGenerator
	renderer *Renderer
	now      func() time.Time
	group    singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRenderer sets the renderer used for new conversions.
// Defaults to a renderer with DefaultRenderConfig and embedded assets.
func WithRenderer(r *Renderer) ServiceOption {
	return func(s *Service) {
		s.renderer = r
	}
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service from its collaborators.
// Panics if any collaborator is nil (programmer error).
func NewService(fetcher Fetcher, store Store, ids IDGenerator, opts ...ServiceOption) *Service {
	if fetcher == nil || store == nil || ids == nil {
		panic("md2codelab: NewService requires a fetcher, a store and an id generator")
	}

	s := &Service{
		fetcher: fetcher,
		store:   store,
		ids:     ids,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Convert returns the stored conversion for url, converting it first if it is
// not cached. A cache hit refreshes the record's access time. When the fetcher
// implements PrefixChecker, off-prefix URLs are rejected even if cached.
func (s *Service) Convert(ctx context.Context, url string) (*Record, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}
	if pc, ok := s.fetcher.(PrefixChecker); ok && !strings.HasPrefix(url, pc.Prefix()) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURLPrefix, url)
	}

	v, err, _ := s.group.Do(url, func() (any, error) {
		return s.convert(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

func (s *Service) convert(ctx context.Context, url string) (*Record, error) {
	cached, err := s.store.GetByURL(ctx, url)
	switch {
	case err == nil:
		return s.store.GetByID(ctx, cached.ConvertedID)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	markdown, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc := Parse(markdown)
	if len(doc.Steps) == 0 {
		return nil, ErrEmptyDocument
	}

	page, err := s.render(doc)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &Record{
		OriginalURL: url,
		ConvertedID: s.ids.Generate(url),
		Title:       doc.Title,
		HTML:        page,
		CreatedAt:   now,
		AccessedAt:  now,
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Service) render(doc *Document) (string, error) {
	if s.renderer != nil {
		return s.renderer.Render(doc), nil
	}
	r, err := defaultRenderer()
	if err != nil {
		return "", fmt.Errorf("initializing renderer: %w", err)
	}
	return r.Render(doc), nil
}

// View returns the stored conversion with the given id and refreshes its
// access time. Returns ErrNotFound for unknown ids.
func (s *Service) View(ctx context.Context, id string) (*Record, error) {
	return s.store.GetByID(ctx, id)
}

// List returns up to limit conversions, newest first.
// A non-positive limit means DefaultListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.List(ctx, limit)
}
