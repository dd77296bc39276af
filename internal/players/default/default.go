// Package _default registers the default evaluators that can be included in any
// front-end of the arena.
//
// Currently, it includes the material linear model and the GoMLX feed-forward network.
package _default

import (
	_ "github.com/janpfeifer/chessArena/internal/ai/fnn"
	_ "github.com/janpfeifer/chessArena/internal/ai/material"
)
