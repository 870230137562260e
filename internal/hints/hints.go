// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"net"
	"strings"

	"github.com/alnah/go-md2codelab/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForListen returns hints for a server that failed to bind addr.
// Inside a container, a loopback address is unreachable from the host.
func ForListen(addr string) string {
	hints := []string{"choose another address with --addr or CODELAB_ADDR"}

	if IsInContainer() {
		host, _, err := net.SplitHostPort(addr)
		if err == nil && (host == "localhost" || host == "127.0.0.1" || host == "::1") {
			hints = append(hints, "inside a container, listen on 0.0.0.0 and publish the port")
		}
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the fetch timeout.
func ForTimeout() string {
	return format("for slow sources, use --fetch-timeout flag")
}

// ForInvalidPrefix returns a hint naming the accepted URL prefix.
func ForInvalidPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return format("URLs must start with " + prefix + "; change it with --allowed-prefix")
}

// ForEmptyDocument returns a hint for Markdown without step headings.
func ForEmptyDocument() string {
	return format("each \"## \" heading starts a step; add at least one")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-md2codelab/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-md2codelab") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output file creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForAssetPath returns a hint describing the custom asset layout.
func ForAssetPath() string {
	return format("asset directory may contain styles/codelab.css, scripts/codelab.js, templates/codelab.html")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
