package assets

// Notes:
// - Verifies custom-first resolution and that only not-found errors fall
//   back to embedded assets.

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses embedded only", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver(\"\") error = %v", err)
		}
		if resolver.HasCustomLoader() {
			t.Error("expected no custom loader for empty path")
		}
	})

	t.Run("valid custom path", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if !resolver.HasCustomLoader() {
			t.Error("expected custom loader for valid path")
		}
	})

	t.Run("invalid custom path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssetResolver("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewAssetResolver() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestAssetResolver_Fallback - Custom first, embedded second
// ---------------------------------------------------------------------------

func TestAssetResolver_Fallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "styles", "codelab.css", "/* custom */")

	resolver, err := NewAssetResolver(dir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	t.Run("custom style wins", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.LoadStyle(CodelabName)
		if err != nil {
			t.Fatalf("LoadStyle() error = %v", err)
		}
		if got != "/* custom */" {
			t.Errorf("LoadStyle() = %q, want custom content", got)
		}
	})

	t.Run("missing script falls back to embedded", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.LoadScript(CodelabName)
		if err != nil {
			t.Fatalf("LoadScript() error = %v", err)
		}
		if !strings.Contains(got, "showStep") {
			t.Error("LoadScript() should return the embedded script")
		}
	})

	t.Run("missing template falls back to embedded", func(t *testing.T) {
		t.Parallel()

		if _, err := resolver.LoadTemplate(ViewsTemplate); err != nil {
			t.Errorf("LoadTemplate() error = %v", err)
		}
	})

	t.Run("invalid name does not fall back", func(t *testing.T) {
		t.Parallel()

		_, err := resolver.LoadStyle("../codelab")
		if !errors.Is(err, ErrInvalidAssetName) {
			t.Errorf("LoadStyle() error = %v, want ErrInvalidAssetName", err)
		}
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Parallel()

		_, err := resolver.LoadTemplate("nonexistent-xyz")
		if !errors.Is(err, ErrTemplateNotFound) {
			t.Errorf("LoadTemplate() error = %v, want ErrTemplateNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestLoadBundle
// ---------------------------------------------------------------------------

func TestLoadBundle(t *testing.T) {
	t.Parallel()

	t.Run("embedded codelab bundle", func(t *testing.T) {
		t.Parallel()

		b, err := LoadBundle(NewEmbeddedLoader(), CodelabName)
		if err != nil {
			t.Fatalf("LoadBundle() error = %v", err)
		}
		if b.Name != CodelabName || b.Template == "" || b.Style == "" || b.Script == "" {
			t.Errorf("LoadBundle() returned incomplete bundle: %+v", b.Name)
		}
	})

	t.Run("template without style fails", func(t *testing.T) {
		t.Parallel()

		_, err := LoadBundle(NewEmbeddedLoader(), IndexTemplate)
		if !errors.Is(err, ErrStyleNotFound) {
			t.Errorf("LoadBundle(index) error = %v, want ErrStyleNotFound", err)
		}
	})
}
