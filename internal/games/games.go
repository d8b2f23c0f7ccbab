// Package games assembles the variant catalogue: one state machine per
// supported quiz game, addressed by variant name.
package games

import (
	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/games/feud"
	"github.com/quizhall/backend/internal/games/jeopardy"
	"github.com/quizhall/backend/internal/games/weakest"
	"github.com/quizhall/backend/internal/games/whirligig"
)

// Catalogue returns every supported variant keyed by name.
func Catalogue() map[string]*engine.Variant {
	variants := []*engine.Variant{
		whirligig.New(),
		jeopardy.New(),
		weakest.New(),
		feud.New(),
	}
	out := make(map[string]*engine.Variant, len(variants))
	for _, v := range variants {
		out[v.Name] = v
	}
	return out
}
