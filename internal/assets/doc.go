// Package assets provides the stylesheet, client script and HTML templates
// used to build codelab pages and the server's own pages.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the renderer and the HTTP server. It
// tries the custom FilesystemLoader first, falling back to EmbeddedLoader if
// the asset is not found. This allows overriding a single file, such as the
// stylesheet, while keeping the other defaults.
//
// # Directory Structure
//
// Assets are organized by type:
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css      # e.g. codelab.css
//	├── scripts/
//	│   └── {name}.js       # e.g. codelab.js
//	└── templates/
//	    └── {name}.html     # codelab, index, views, notfound
//
// Templates are html/template sources. Styles and scripts are inlined into
// the generated page, so a converted codelab is a single self-contained file.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
