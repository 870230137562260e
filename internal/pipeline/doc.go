// Package pipeline implements the Markdown-to-HTML stages used to build a
// codelab page:
//   - line ending normalization ahead of step segmentation
//   - step body conversion via Goldmark (GFM tables, hard wraps, chroma
//     highlighting)
//   - image source rewriting to the fixed asset host
//   - the chroma stylesheet matching the highlighted markup
//
// Page layout and client-side behavior live in the root md2codelab package
// and the embedded assets. This package only deals with step bodies.
package pipeline
