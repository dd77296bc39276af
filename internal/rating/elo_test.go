package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedIsComplementary(t *testing.T) {
	for _, ratings := range [][2]float64{
		{1200, 1200}, {1200, 1400}, {800, 2400}, {1532.7, 1199.1}, {0, 3000},
	} {
		r1, r2 := ratings[0], ratings[1]
		assert.InDeltaf(t, 1.0, Expected(r1, r2)+Expected(r2, r1), 1e-12,
			"Expected(%g, %g) + Expected(%g, %g) should be 1", r1, r2, r2, r1)
	}
	assert.InDelta(t, 0.5, Expected(1500, 1500), 1e-12)
	// 400 points of difference is a 10:1 odds.
	assert.InDelta(t, 10.0/11.0, Expected(1600, 1200), 1e-12)
}

func TestUpdate(t *testing.T) {
	testCases := []struct {
		name           string
		self, opponent float64
		score          Score
		want           float64
	}{
		{"equal-win", 1200, 1200, Win, 1216},
		{"equal-loss", 1200, 1200, Loss, 1184},
		{"equal-draw", 1200, 1200, Draw, 1200},
		{"underdog-draw", 1200, 1600, Draw, 1200 + K*(0.5-1.0/11.0)},
		{"favourite-win", 1600, 1200, Win, 1600 + K*(1-10.0/11.0)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Update(tc.self, tc.opponent, tc.score), 1e-9)
		})
	}
}

func TestUpdatePairIsZeroSum(t *testing.T) {
	for _, score := range []Score{Win, Draw, Loss} {
		a, b := 1437.5, 1180.25
		newA, newB := UpdatePair(a, b, score)
		assert.InDeltaf(t, a+b, newA+newB, 1e-9, "score=%s", score)
	}
	newA, newB := UpdatePair(1200, 1200, Win)
	assert.Equal(t, 1216.0, newA)
	assert.Equal(t, 1184.0, newB)
}

func TestRecordOutcome(t *testing.T) {
	s := NewStats(3)
	assert.Equal(t, InitialRating, s.Rating)
	for _, score := range []Score{Win, Win, Draw, Loss, Draw, Win} {
		s.RecordOutcome(score)
		assert.True(t, s.Consistent(), "inconsistent stats %s", s)
	}
	assert.Equal(t, Stats{ID: 3, Rating: InitialRating, GamesPlayed: 6, Wins: 3, Losses: 1, Draws: 2}, s)
}
