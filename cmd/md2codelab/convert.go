package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	md2codelab "github.com/alnah/go-md2codelab"
	"github.com/alnah/go-md2codelab/internal/config"
	"github.com/alnah/go-md2codelab/internal/fetch"
	"github.com/alnah/go-md2codelab/internal/fileutil"
	"github.com/alnah/go-md2codelab/internal/hints"
)

// Sentinel errors for the convert command.
var (
	ErrReadMarkdown = errors.New("failed to read markdown")
	ErrWriteOutput  = errors.New("failed to write output")
)

// stdinSource selects standard input as the Markdown source.
const stdinSource = "-"

// runConvert renders a single Markdown source to a codelab page without
// touching the store.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: convert takes exactly one <file|url|->, got %d arguments", ErrUsage, len(positional))
	}
	source := positional[0]

	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		return err
	}
	applyFetchFlags(&flags.fetch, cfg)
	setString(&cfg.Assets.BasePath, flags.assetPath)
	if err := cfg.Validate(); err != nil {
		return err
	}

	markdown, err := readSource(ctx, source, cfg, env.Stdin)
	if err != nil {
		return err
	}

	doc := md2codelab.Parse(markdown)
	if len(doc.Steps) == 0 {
		return fmt.Errorf("%s: %w", source, md2codelab.ErrEmptyDocument)
	}

	loader, err := newAssetLoader(cfg.Assets.BasePath)
	if err != nil {
		return err
	}
	renderCfg := md2codelab.DefaultRenderConfig()
	renderCfg.LineBreaksAsHTMLBreak = !flags.noBreaks
	renderCfg.GitHubFlavoredTables = !flags.noTables

	renderer, err := md2codelab.NewRenderer(
		md2codelab.WithRenderConfig(renderCfg),
		md2codelab.WithAssetLoader(loader),
	)
	if err != nil {
		return err
	}
	page := renderer.Render(doc)

	if flags.output == "" {
		if _, err := io.WriteString(env.Stdout, page); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}

	if err := fileutil.EnsureParentDir(flags.output); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, flags.output, err)
	}
	if err := fileutil.WriteFileAtomic(flags.output, []byte(page), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, flags.output, err)
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "Created %s (%d steps)\n", flags.output, len(doc.Steps))
	}
	return nil
}

// readSource loads Markdown from stdin, an allowed URL or a local file.
func readSource(ctx context.Context, source string, cfg *config.Config, stdin io.Reader) (string, error) {
	switch {
	case source == stdinSource:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("%w: stdin: %v", ErrReadMarkdown, err)
		}
		return string(data), nil

	case fileutil.IsURL(source):
		client := fetch.New(cfg.Fetch.AllowedPrefix,
			fetch.WithTimeout(cfg.Fetch.Timeout),
			fetch.WithUserAgent(cfg.Fetch.UserAgent),
		)
		markdown, err := client.Fetch(ctx, source)
		if errors.Is(err, md2codelab.ErrInvalidURLPrefix) {
			return "", fmt.Errorf("%w%s", err, hints.ForInvalidPrefix(client.Prefix()))
		}
		return markdown, err

	default:
		data, err := os.ReadFile(source) // #nosec G304 -- user-provided path
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrReadMarkdown, err)
		}
		return string(data), nil
	}
}
