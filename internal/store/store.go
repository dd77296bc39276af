// Package store persists the history of completed matches.
package store

import (
	"context"

	"github.com/janpfeifer/chessArena/internal/match"
)

// DefaultListLimit is the number of matches returned by ListMatches when no limit is given.
const DefaultListLimit = 50

// Store of match summaries.
type Store interface {
	// SaveMatch saves (or replaces) the summary of a completed match.
	SaveMatch(ctx context.Context, summary *match.Summary) error

	// ListMatches returns the most recent matches first. A limit <= 0 uses DefaultListLimit.
	ListMatches(ctx context.Context, limit int) ([]match.Summary, error)

	// Close releases the resources of the store.
	Close() error
}
