// Package md2codelab converts Markdown documents into interactive, paginated
// codelab pages.
//
// # Quick Start
//
// Parse Markdown into steps, then render the page:
//
//	doc := md2codelab.Parse(markdown)
//	if len(doc.Steps) == 0 {
//	    return md2codelab.ErrEmptyDocument
//	}
//	page := md2codelab.Render(doc)
//
// Every "## " heading starts a step. A leading "---" block is read as front
// matter; its title takes precedence over the first "# " heading. Content
// before the first step is dropped.
//
// # Rendering
//
// The page is a single self-contained HTML file: sidebar, progress bar, one
// container per step, and an inline script that handles navigation, keyboard
// shortcuts, the narrow-screen sidebar and an image lightbox with zoom and pan.
// Images under an img/ path are pointed at ImageBaseURL.
//
// Use NewRenderer for explicit Markdown options or custom assets:
//
//	r, err := md2codelab.NewRenderer(
//	    md2codelab.WithRenderConfig(md2codelab.RenderConfig{GitHubFlavoredTables: true}),
//	    md2codelab.WithAssetPath("/path/to/custom/assets"),
//	)
//
// A Renderer is immutable and safe for concurrent use.
//
// # Conversion Service
//
// Service ties the pipeline to its collaborators: a Fetcher for remote
// Markdown, a Store for finished pages and an IDGenerator for short ids.
// Concurrent conversions of the same URL are collapsed into one.
//
//	svc := md2codelab.NewService(fetcher, store, ids)
//	rec, err := svc.Convert(ctx, url)
//
// # Error Handling
//
// Errors are sentinel values matched with errors.Is:
//
//	if errors.Is(err, md2codelab.ErrFetchNotFound) {
//	    // source URL returned 404
//	}
package md2codelab
