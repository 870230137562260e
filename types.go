package md2codelab

import (
	"context"
	"fmt"
	"time"
)

// DefaultStepDuration is the duration, in minutes, shown for every step.
// It is a fixed label and is not derived from the step content.
const DefaultStepDuration = 5

// ImageBaseURL is the asset host that relative image paths are rewritten to.
// Images under an img/ segment resolve to ImageBaseURL + "img/...".
const ImageBaseURL = "https://aoco.tech/"

// Document is a Markdown source split into titled steps.
type Document struct {
	Title    string
	Metadata map[string]string // front matter, values unquoted
	Steps    []Step
}

// Step is one page of a codelab. Content is the raw Markdown body that
// followed the step heading, newline-preserved.
type Step struct {
	Title    string
	Content  string
	Duration int // minutes
}

// Unknown-language policies for fenced code blocks.
const (
	// UnknownLanguagePassthrough emits unrecognized or unspecified languages
	// as plain escaped code, without guessing.
	UnknownLanguagePassthrough = "passthrough"
)

// RenderConfig enumerates the Markdown options used when rendering step bodies.
type RenderConfig struct {
	LineBreaksAsHTMLBreak bool   // soft line breaks become <br>
	GitHubFlavoredTables  bool   // GFM pipe tables
	UnknownLanguage       string // only UnknownLanguagePassthrough is supported
}

// DefaultRenderConfig returns the configuration used by Render.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		LineBreaksAsHTMLBreak: true,
		GitHubFlavoredTables:  true,
		UnknownLanguage:       UnknownLanguagePassthrough,
	}
}

// Validate checks that the configuration only uses supported values.
func (c RenderConfig) Validate() error {
	switch c.UnknownLanguage {
	case "", UnknownLanguagePassthrough:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be %q)", ErrInvalidRenderConfig, c.UnknownLanguage, UnknownLanguagePassthrough)
	}
}

// Record is a stored conversion, addressable by source URL or converted ID.
type Record struct {
	OriginalURL string
	ConvertedID string
	Title       string
	HTML        string
	CreatedAt   time.Time
	AccessedAt  time.Time
}

// Fetcher retrieves raw Markdown for a source URL.
// Implementations report ErrInvalidURLPrefix, ErrFetchNotFound and ErrFetchFailed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// PrefixChecker is implemented by fetchers that only accept URLs under a
// prefix. Service checks it before consulting the store.
type PrefixChecker interface {
	Prefix() string
}

// Store persists conversions. Lookups that miss return ErrNotFound.
type Store interface {
	GetByURL(ctx context.Context, url string) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error) // refreshes AccessedAt
	Put(ctx context.Context, rec *Record) error
	List(ctx context.Context, limit int) ([]*Record, error)
}

// IDGenerator derives a short opaque identifier for a source URL.
type IDGenerator interface {
	Generate(url string) string
}
