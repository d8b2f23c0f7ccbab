// Package content imports question banks from the XML packages the games are
// authored in. Each variant has its own format; parsing validates the
// format's structural rules and yields the immutable session graph the store
// then persists.
package content

import (
	"errors"
	"fmt"
	"io"

	"github.com/quizhall/backend/internal/models"
)

// ErrBadFormat wraps every validation failure of an uploaded package.
var ErrBadFormat = errors.New("bad game file")

func badFormat(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadFormat, fmt.Sprintf(format, args...))
}

// Parse reads a variant's XML package and builds the game graph: themes with
// their questions and, for feud, the answer boards. The returned game carries
// only imported content; session fields (state, token, expiry) are assigned
// by the caller.
func Parse(variant string, r io.Reader) (*models.Game, error) {
	switch variant {
	case models.VariantWhirligig:
		return parseWhirligig(r)
	case models.VariantJeopardy:
		return parseJeopardy(r)
	case models.VariantWeakest:
		return parseWeakest(r)
	case models.VariantFeud:
		return parseFeud(r)
	default:
		return nil, badFormat("unknown game %q", variant)
	}
}
