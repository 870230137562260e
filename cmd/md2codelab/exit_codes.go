package main

import (
	"errors"
	"os"

	md2codelab "github.com/alnah/go-md2codelab"
	"github.com/alnah/go-md2codelab/internal/config"
	"github.com/alnah/go-md2codelab/internal/dateutil"
	"github.com/alnah/go-md2codelab/internal/logging"
	"github.com/alnah/go-md2codelab/internal/server"
)

// Exit codes for md2codelab CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess       = 0 // Command succeeded
	ExitGeneral       = 1 // General/unexpected error
	ExitUsage         = 2 // Invalid flags, config, or validation
	ExitIO            = 3 // File not found, permission denied, storage
	ExitNetwork       = 4 // Fetch failures, cannot listen
	ExitEmptyDocument = 5 // Markdown has no ## headings
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, md2codelab.ErrEmptyDocument) {
		return ExitEmptyDocument
	}

	// Network errors (exit 4)
	if errors.Is(err, md2codelab.ErrFetchNotFound) ||
		errors.Is(err, md2codelab.ErrFetchFailed) ||
		errors.Is(err, server.ErrListen) {
		return ExitNetwork
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, md2codelab.ErrPersistence) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, logging.ErrInvalidFormat) ||
		errors.Is(err, md2codelab.ErrEmptyURL) ||
		errors.Is(err, md2codelab.ErrInvalidURLPrefix) ||
		errors.Is(err, md2codelab.ErrInvalidRenderConfig) ||
		errors.Is(err, md2codelab.ErrAssetNotFound) ||
		errors.Is(err, md2codelab.ErrInvalidAssetPath) ||
		errors.Is(err, md2codelab.ErrTemplateParse) ||
		errors.Is(err, server.ErrTemplateParse) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
