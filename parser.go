package md2codelab

import (
	"regexp"
	"strings"

	"github.com/alnah/go-md2codelab/internal/pipeline"
)

// frontMatterDelimiter opens and closes the metadata block.
const frontMatterDelimiter = "---"

// Precompiled line patterns.
var (
	frontMatterLine = regexp.MustCompile(`^(\w+):\s*(.+)$`)
	titleHeading    = regexp.MustCompile(`^#\s+`)
	stepHeading     = regexp.MustCompile(`^##\s+`)
)

// parseState tracks where the scanner is relative to the front matter block.
type parseState int

const (
	stateStart parseState = iota
	stateFrontMatter
	stateBody
)

// Parse splits Markdown into a Document. It never fails: input without any
// "## " heading yields a Document with no steps, and the caller decides
// whether that is an error (see ErrEmptyDocument).
//
// A front matter block must open on the very first line. If it never closes,
// the rest of the input is read as front matter and no steps are produced.
func Parse(markdown string) *Document {
	doc := &Document{Metadata: map[string]string{}}

	var current *Step
	state := stateStart

	lines := strings.Split(pipeline.NormalizeLineEndings(markdown), "\n")
	// A trailing newline yields an empty final element that is not a line.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	for _, line := range lines {
		switch state {
		case stateStart:
			state = stateBody
			if strings.TrimSpace(line) == frontMatterDelimiter {
				state = stateFrontMatter
				continue
			}
		case stateFrontMatter:
			if strings.TrimSpace(line) == frontMatterDelimiter {
				state = stateBody
				if title, ok := doc.Metadata["title"]; ok {
					doc.Title = title
				}
				continue
			}
			parseFrontMatterLine(line, doc.Metadata)
			continue
		}

		switch {
		case titleHeading.MatchString(line) && doc.Title == "":
			doc.Title = strings.TrimSpace(titleHeading.ReplaceAllString(line, ""))
		case stepHeading.MatchString(line):
			if current != nil {
				doc.Steps = append(doc.Steps, *current)
			}
			current = &Step{
				Title:    strings.TrimSpace(stepHeading.ReplaceAllString(line, "")),
				Duration: DefaultStepDuration,
			}
		case current != nil:
			current.Content += line + "\n"
		}
	}

	if current != nil {
		doc.Steps = append(doc.Steps, *current)
	}

	return doc
}

// parseFrontMatterLine records a "key: value" pair. Lines that do not match
// are ignored.
func parseFrontMatterLine(line string, metadata map[string]string) {
	m := frontMatterLine.FindStringSubmatch(strings.TrimRight(line, " \t"))
	if m == nil {
		return
	}
	metadata[m[1]] = unquote(strings.TrimSpace(m[2]))
}

// unquote strips one pair of matching single or double quotes.
func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' || first == '\'') && first == last {
		return value[1 : len(value)-1]
	}
	return value
}
