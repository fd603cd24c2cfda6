package score

import (
	"fmt"
	"math/rand"
)

// memeBucket holds the catchphrases shown with a final verdict in a given
// overall-score range. Ranges are half-open [min,max); the top bucket's max
// sits just above 10 so a perfect score still lands in it.
type memeBucket struct {
	min     float64
	max     float64
	phrases []string
}

var memeBuckets = []memeBucket{
	{
		min: 0, max: 3,
		phrases: []string{
			"Clearly better than the streamer's own track",
			"You really tried, we can tell",
			"Almost sauce, not yet gas",
		},
	},
	{
		min: 3, max: 6,
		phrases: []string{
			"There is gas here, keep cooking",
			"Could be better with a bigger donation",
			"Still better than any streamer track",
		},
	},
	{
		min: 6, max: 8,
		phrases: []string{
			"Needs more sauce!",
			"Needs more gaaas",
			"Straight into the playlist, probably",
		},
	},
	{
		min: 8, max: 10.0001,
		phrases: []string{
			"ANTIGAZZZZZZZZZZ",
			"Personally approved by the frog",
			"SEND MORE TRACKS IMMEDIATELY",
			"The streamer is retiring, it won't get better than this",
		},
	},
}

// MemePhrase picks a random catchphrase for an overall score. Returns ""
// for out-of-range input.
func MemePhrase(overall float64, rng *rand.Rand) string {
	for _, b := range memeBuckets {
		if overall >= b.min && overall < b.max {
			if len(b.phrases) == 0 {
				return ""
			}
			return b.phrases[rng.Intn(len(b.phrases))]
		}
	}
	return ""
}

// TopRankLabel renders the leaderboard position badge for the result modal.
func TopRankLabel(pos int) string {
	switch {
	case pos <= 0:
		return ""
	case pos == 1:
		return "🔥 TOP-1"
	case pos <= 3:
		return fmt.Sprintf("⭐ TOP-3 (#%d)", pos)
	case pos <= 10:
		return fmt.Sprintf("🥉 TOP-10 (#%d)", pos)
	default:
		return fmt.Sprintf("#%d on the leaderboard", pos)
	}
}
