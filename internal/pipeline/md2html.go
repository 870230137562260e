package pipeline

import (
	"bytes"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// HighlightStyle is the chroma style used for fenced code blocks.
const HighlightStyle = "github"

// ConverterOptions selects the Markdown features enabled for step bodies.
type ConverterOptions struct {
	HardWraps bool // soft line breaks become <br>
	Tables    bool // GFM pipe tables
}

// HTMLConverter abstracts Markdown to HTML fragment conversion.
type HTMLConverter interface {
	ToHTML(content string) (string, error)
}

// GoldmarkConverter converts Markdown to an HTML fragment using goldmark (pure Go).
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter for the given options.
// Fenced code is highlighted by declared language. Unknown or missing
// languages are emitted as plain escaped code, never guessed.
func NewGoldmarkConverter(opts ConverterOptions) *GoldmarkConverter {
	extensions := []goldmark.Extender{
		extension.Strikethrough,
		extension.Linkify,
		extension.TaskList,
		highlighting.NewHighlighting(
			highlighting.WithStyle(HighlightStyle),
			highlighting.WithGuessLanguage(false),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true), // styled by HighlightCSS
			),
		),
	}
	if opts.Tables {
		extensions = append(extensions, extension.Table)
	}

	rendererOptions := []renderer.Option{
		html.WithXHTML(),
		// WithUnsafe() intentionally NOT used: raw HTML in fetched sources is dropped.
	}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML fragment.
func (c *GoldmarkConverter) ToHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return buf.String(), nil
}

// HighlightCSS returns the stylesheet for the chroma classes emitted by
// GoldmarkConverter.
func HighlightCSS() (string, error) {
	style := styles.Get(HighlightStyle)
	formatter := chromahtml.New(chromahtml.WithClasses(true))

	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("writing highlight CSS: %w", err)
	}
	return buf.String(), nil
}
