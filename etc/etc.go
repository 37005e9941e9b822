package etc

import (
	"github.com/nrednav/cuid2"
)

// NewFreshID returns a collision-resistant identifier for utterances and
// websocket clients.
func NewFreshID() string {
	return cuid2.Generate()
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
