package md2codelab

import "errors"

// Sentinel errors for library operations.
var (
	// ErrEmptyDocument means the Markdown produced no steps (no "## " headings).
	ErrEmptyDocument = errors.New("no steps found (a codelab needs at least one ## heading)")

	ErrInvalidRenderConfig = errors.New("invalid render config")

	// Asset errors.
	ErrAssetNotFound    = errors.New("asset not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrTemplateParse    = errors.New("failed to parse codelab template")

	// Source URL errors.
	ErrEmptyURL         = errors.New("markdown URL cannot be empty")
	ErrInvalidURLPrefix = errors.New("URL does not start with the allowed prefix")

	// Fetch errors.
	ErrFetchNotFound = errors.New("markdown file not found")
	ErrFetchFailed   = errors.New("failed to fetch markdown")

	// Persistence errors.
	ErrPersistence = errors.New("persistence failed")
	ErrNotFound    = errors.New("codelab not found")
)
