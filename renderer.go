package md2codelab

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/alnah/go-md2codelab/internal/assets"
	"github.com/alnah/go-md2codelab/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.HTMLConverter = (*pipeline.GoldmarkConverter)(nil)
	_ AssetLoader            = (*assets.AssetResolver)(nil)
)

// Renderer turns a Document into a self-contained codelab HTML page.
// It is immutable after construction and safe for concurrent use.
type Renderer struct {
	cfg       RenderConfig
	converter pipeline.HTMLConverter
	page      *template.Template
	style     template.CSS
	highlight template.CSS
	script    template.JS
}

// RenderOption configures a Renderer.
type RenderOption func(*rendererConfig)

// rendererConfig holds construction-time settings for NewRenderer.
type rendererConfig struct {
	render    RenderConfig
	loader    AssetLoader
	assetPath string
}

// WithRenderConfig sets the Markdown options used for step bodies.
func WithRenderConfig(cfg RenderConfig) RenderOption {
	return func(c *rendererConfig) {
		c.render = cfg
	}
}

// WithAssetLoader sets a custom loader for the page template, style and script.
// Takes precedence over WithAssetPath.
func WithAssetLoader(loader AssetLoader) RenderOption {
	return func(c *rendererConfig) {
		c.loader = loader
	}
}

// WithAssetPath overrides embedded assets with files from a directory.
// Files missing from the directory fall back to the embedded defaults.
func WithAssetPath(path string) RenderOption {
	return func(c *rendererConfig) {
		c.assetPath = path
	}
}

// NewRenderer creates a Renderer. Asset loading and template parsing happen
// here, so Render itself cannot fail.
func NewRenderer(opts ...RenderOption) (*Renderer, error) {
	cfg := rendererConfig{render: DefaultRenderConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.render.Validate(); err != nil {
		return nil, err
	}
	if cfg.render.UnknownLanguage == "" {
		cfg.render.UnknownLanguage = UnknownLanguagePassthrough
	}

	loader := cfg.loader
	if loader == nil {
		var err error
		loader, err = NewAssetLoader(cfg.assetPath)
		if err != nil {
			return nil, err
		}
	}

	bundle, err := assets.LoadBundle(loader, assets.CodelabName)
	if err != nil {
		return nil, err
	}

	page, err := template.New(assets.CodelabName).Parse(bundle.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	highlight, err := pipeline.HighlightCSS()
	if err != nil {
		return nil, err
	}

	converter := pipeline.NewGoldmarkConverter(pipeline.ConverterOptions{
		HardWraps: cfg.render.LineBreaksAsHTMLBreak,
		Tables:    cfg.render.GitHubFlavoredTables,
	})

	// #nosec G203 -- assets are trusted; highlight CSS is generated by chroma
	return &Renderer{
		cfg:       cfg.render,
		converter: converter,
		page:      page,
		style:     template.CSS(bundle.Style),
		highlight: template.CSS(highlight),
		script:    template.JS(bundle.Script),
	}, nil
}

// Config returns the render configuration in effect.
func (r *Renderer) Config() RenderConfig {
	return r.cfg
}

// pageData is the template model for a codelab page.
type pageData struct {
	Title          string
	Date           string
	Categories     string
	Total          int
	Steps          []stepView
	Style          template.CSS
	HighlightStyle template.CSS
	Script         template.JS
}

// stepView is one step as the template sees it. Number is 1-based.
type stepView struct {
	Number   int
	Title    string
	Duration int
	Body     template.HTML
	First    bool
	Last     bool
}

// Render produces the codelab page for doc. The output is deterministic for a
// given Document. A nil or step-less Document yields a page shell with an
// empty sidebar and no step containers.
func (r *Renderer) Render(doc *Document) string {
	if doc == nil {
		doc = &Document{}
	}

	data := pageData{
		Title:          doc.Title,
		Date:           doc.Metadata["date"],
		Categories:     doc.Metadata["categories"],
		Total:          len(doc.Steps),
		Steps:          make([]stepView, len(doc.Steps)),
		Style:          r.style,
		HighlightStyle: r.highlight,
		Script:         r.script,
	}
	for i, step := range doc.Steps {
		data.Steps[i] = stepView{
			Number:   i + 1,
			Title:    step.Title,
			Duration: step.Duration,
			Body:     r.renderBody(step.Content),
			First:    i == 0,
			Last:     i == len(doc.Steps)-1,
		}
	}

	var buf bytes.Buffer
	if err := r.page.Execute(&buf, data); err != nil {
		return fallbackPage(data)
	}
	return buf.String()
}

// renderBody converts step Markdown to HTML. A conversion failure degrades to
// the escaped source in a <pre> block; a failed image rewrite keeps the
// original sources.
func (r *Renderer) renderBody(content string) template.HTML {
	body, err := r.converter.ToHTML(content)
	if err != nil {
		return template.HTML("<pre>" + html.EscapeString(content) + "</pre>") // #nosec G203 -- escaped
	}

	if rewritten, err := pipeline.RewriteImageSources(body, ImageBaseURL); err == nil {
		body = rewritten
	}

	return template.HTML(body) // #nosec G203 -- goldmark output without raw HTML
}

// fallbackPage renders a minimal page when the template fails to execute,
// which can only happen with a custom template.
func fallbackPage(data pageData) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n<title>")
	b.WriteString(html.EscapeString(data.Title))
	b.WriteString("</title>\n</head>\n<body>\n<h1>")
	b.WriteString(html.EscapeString(data.Title))
	b.WriteString("</h1>\n")
	for _, s := range data.Steps {
		fmt.Fprintf(&b, "<section class=\"step\" data-step=\"%d\">\n<h2>%s</h2>\n%s\n</section>\n",
			s.Number, html.EscapeString(s.Title), s.Body)
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// defaultRenderer is built on first use from the embedded assets.
var defaultRenderer = sync.OnceValues(func() (*Renderer, error) {
	return NewRenderer()
})

// Render renders doc with DefaultRenderConfig and the embedded assets.
// Use NewRenderer for any other configuration.
func Render(doc *Document) string {
	r, err := defaultRenderer()
	if err != nil {
		// Embedded assets are compiled in; failing here is a build defect.
		panic("md2codelab: default renderer: " + err.Error())
	}
	return r.Render(doc)
}
