package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// imageAssetPath matches sources that point into an img/ directory:
// "../img/x.png", "/img/x.png", "img/x.png" or any URL with an img/ segment.
// The first img/ segment wins.
var imageAssetPath = regexp.MustCompile(`^(?:.*?/)?img/(.*)$`)

// RewriteImageSources points img[src] values under an img/ segment at
// baseURL + "img/". Other sources, including absolute URLs without an img/
// segment, are left untouched. If baseURL is empty, returns the HTML unchanged.
//
// Only img elements are rewritten. Links, media elements, srcset and CSS url()
// references are out of scope.
func RewriteImageSources(htmlContent, baseURL string) (string, error) {
	if baseURL == "" || !strings.Contains(htmlContent, "<img") {
		return htmlContent, nil
	}

	nodes, err := parseFragment(htmlContent)
	if err != nil {
		return "", err
	}

	for _, n := range nodes {
		rewriteImages(n, baseURL)
	}

	return renderFragment(nodes)
}

// ImageSourceURL returns the rewritten form of src, and whether it changed.
func ImageSourceURL(src, baseURL string) (string, bool) {
	m := imageAssetPath.FindStringSubmatch(src)
	if m == nil {
		return src, false
	}
	return baseURL + "img/" + m[1], true
}

// parseFragment parses HTML with body context to avoid <html><body> wrapping.
func parseFragment(content string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	return html.ParseFragment(strings.NewReader(content), context)
}

// renderFragment renders each top-level node back to a string.
func renderFragment(nodes []*html.Node) (string, error) {
	var buf strings.Builder
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// rewriteImages traverses the tree and rewrites img sources.
func rewriteImages(n *html.Node, baseURL string) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		for i, attr := range n.Attr {
			if attr.Key != "src" {
				continue
			}
			if rewritten, ok := ImageSourceURL(attr.Val, baseURL); ok {
				n.Attr[i].Val = rewritten
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteImages(c, baseURL)
	}
}
