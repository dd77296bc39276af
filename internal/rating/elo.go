// Package rating implements the Elo rating arithmetic and the per-agent match statistics.
//
// It has no I/O and no synchronization: callers (see package agents) own the locking.
package rating

import (
	"math"
)

const (
	// K is the Elo K-factor: the maximum rating change of a single match.
	K = 32.0

	// InitialRating of a freshly created agent.
	InitialRating = 1200.0
)

// Score is the outcome of a match from the point of view of one of the participants.
type Score float64

const (
	Loss Score = 0
	Draw Score = 0.5
	Win  Score = 1
)

// Opponent returns the complementary score: what the other participant got.
func (s Score) Opponent() Score {
	return 1 - s
}

// String returns "win", "draw" or "loss".
func (s Score) String() string {
	switch s {
	case Win:
		return "win"
	case Loss:
		return "loss"
	default:
		return "draw"
	}
}

// Expected returns the expected score of a player rated self against one rated opponent.
//
// Expected(r1, r2) + Expected(r2, r1) == 1.
func Expected(self, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-self)/400))
}

// Update returns the new rating of a player rated self, after a match against a player rated
// opponent that ended with the given score.
func Update(self, opponent float64, score Score) float64 {
	return self + K*(float64(score)-Expected(self, opponent))
}

// UpdatePair returns the new ratings of both participants of a match.
// Both are computed from the ratings before the match: the update is symmetric, and for
// players of equal K the sum of the ratings is preserved.
func UpdatePair(ratingA, ratingB float64, scoreA Score) (newA, newB float64) {
	newA = Update(ratingA, ratingB, scoreA)
	newB = Update(ratingB, ratingA, scoreA.Opponent())
	return
}
