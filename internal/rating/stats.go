package rating

import "fmt"

// Stats of one agent: its current rating and cumulative game counters.
//
// Stats is a value type, so a copy is a safe snapshot to hand out to external consumers.
type Stats struct {
	ID          int     `json:"id"`
	Rating      float64 `json:"elo"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Draws       int     `json:"draws"`
}

// NewStats returns the statistics of a fresh agent.
func NewStats(id int) Stats {
	return Stats{ID: id, Rating: InitialRating}
}

// RecordOutcome increments GamesPlayed and the counter matching score.
// Anything other than Win or Loss counts as a draw.
func (s *Stats) RecordOutcome(score Score) {
	s.GamesPlayed++
	switch score {
	case Win:
		s.Wins++
	case Loss:
		s.Losses++
	default:
		s.Draws++
	}
}

// Consistent reports whether the counters add up: Wins+Losses+Draws == GamesPlayed.
func (s Stats) Consistent() bool {
	return s.Wins+s.Losses+s.Draws == s.GamesPlayed && s.Wins >= 0 && s.Losses >= 0 && s.Draws >= 0
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("Agent #%d (elo=%.1f, games=%d: %d wins, %d losses, %d draws)",
		s.ID, s.Rating, s.GamesPlayed, s.Wins, s.Losses, s.Draws)
}
