// Package identity derives the short ids that address stored conversions.
package identity

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/zeebo/blake3"

	md2codelab "github.com/alnah/go-md2codelab"
)

// IDLength is the number of hex characters in a generated id.
const IDLength = 12

// Generator hashes a URL with the current time. Collisions are not detected.
type Generator struct {
	now func() time.Time
}

var _ md2codelab.IDGenerator = (*Generator)(nil)

// NewGenerator returns a Generator using now as its clock.
// A nil now means time.Now.
func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Generate returns the first IDLength hex characters of
// BLAKE3(url + unix milliseconds).
func (g *Generator) Generate(url string) string {
	h := blake3.New()
	_, _ = h.Write([]byte(url))
	_, _ = h.Write([]byte(strconv.FormatInt(g.now().UnixMilli(), 10)))
	return hex.EncodeToString(h.Sum(nil))[:IDLength]
}
