// Package viewers implements the public one-shot rating flow: any viewer
// can fetch a track, move their own sliders, and submit a single vote that
// folds into the track's overall average.
package viewers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Sqott47/track-rating/clients"
	"github.com/Sqott47/track-rating/internal/session"
)

// Track is the public track descriptor returned by the viewers API.
type Track struct {
	ID          string  `json:"id"`
	Artist      string  `json:"artist"`
	Title       string  `json:"title"`
	DisplayName string  `json:"display_name"`
	AudioURL    string  `json:"audio_url,omitempty"`
	DurationSec float64 `json:"duration_sec,omitempty"`
}

type trackResponse struct {
	Track      Track   `json:"track"`
	OverallAvg float64 `json:"overall_avg"`
	Viewer     struct {
		Scores   map[string]float64 `json:"scores"`
		HasVoted bool               `json:"has_voted"`
	} `json:"viewer"`
}

type rateResponse struct {
	OK         bool    `json:"ok"`
	Error      string  `json:"error,omitempty"`
	OverallAvg float64 `json:"overall_avg"`
}

// Client holds one viewer's rating state for one track. Scores live locally
// until Submit; after a successful submit (or a duplicate-vote response) the
// sliders lock.
type Client struct {
	api      *clients.BaseClient
	criteria []session.Criterion

	track      Track
	overallAvg float64
	scores     map[string]float64
	locked     bool
	notice     string
}

func NewClient(api *clients.BaseClient) *Client {
	return &Client{
		api:      api,
		criteria: session.DefaultCriteria(),
		scores:   make(map[string]float64),
	}
}

// LoadTrack fetches the track and this viewer's prior vote, if any. A prior
// vote locks the sliders at the submitted values.
func (c *Client) LoadTrack(ctx context.Context, trackID string) error {
	var resp trackResponse
	if err := c.api.GetJSON(ctx, "/api/viewers/track/"+trackID, &resp); err != nil {
		return fmt.Errorf("failed to load track %s: %w", trackID, err)
	}

	c.track = resp.Track
	c.overallAvg = resp.OverallAvg
	c.locked = resp.Viewer.HasVoted
	c.notice = ""
	c.scores = make(map[string]float64, len(c.criteria))
	for _, criterion := range c.criteria {
		c.scores[criterion.Key] = resp.Viewer.Scores[criterion.Key]
	}
	return nil
}

// Track returns the loaded track descriptor.
func (c *Client) Track() Track { return c.track }

// OverallAvg returns the server-side average across all viewer votes.
func (c *Client) OverallAvg() float64 { return c.overallAvg }

// Locked reports whether the sliders are frozen (already voted).
func (c *Client) Locked() bool { return c.locked }

// TakeNotice returns and clears the pending one-shot notice.
func (c *Client) TakeNotice() string {
	n := c.notice
	c.notice = ""
	return n
}

// Criteria returns the rating criteria in display order.
func (c *Client) Criteria() []session.Criterion { return c.criteria }

// Score returns the viewer's current score for a criterion.
func (c *Client) Score(key string) float64 { return c.scores[key] }

// SetScore moves a slider locally. No-op once locked or for unknown keys.
func (c *Client) SetScore(key string, value float64) {
	if c.locked {
		return
	}
	if _, ok := c.scores[key]; !ok {
		return
	}
	if value < 0 {
		value = 0
	} else if value > 10 {
		value = 10
	}
	c.scores[key] = value
}

// Overall returns the mean of this viewer's own sliders.
func (c *Client) Overall() float64 {
	if len(c.scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range c.scores {
		sum += v
	}
	return sum / float64(len(c.scores))
}

// Submit posts the vote. A duplicate vote is not an error to the caller: the
// sliders lock and a notice is set, matching a fresh "already voted" load.
func (c *Client) Submit(ctx context.Context) error {
	if c.locked {
		return nil
	}
	payload := map[string]interface{}{
		"track_id": c.track.ID,
		"ratings":  c.scores,
	}

	var resp rateResponse
	err := c.api.PostJSON(ctx, "/api/viewers/rate", payload, &resp)
	if err != nil {
		var statusErr *clients.StatusError
		if errors.As(err, &statusErr) && isAlreadyRated(statusErr.Body) {
			c.locked = true
			c.notice = "You already rated this track"
			log.Debug().Str("track_id", c.track.ID).Msg("Duplicate viewer vote")
			return nil
		}
		return fmt.Errorf("failed to submit rating: %w", err)
	}

	if !resp.OK && resp.Error == "already_rated" {
		c.locked = true
		c.notice = "You already rated this track"
		return nil
	}

	c.locked = true
	c.overallAvg = resp.OverallAvg
	c.notice = "Thanks for rating!"
	return nil
}

func isAlreadyRated(body []byte) bool {
	var resp rateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false
	}
	return resp.Error == "already_rated"
}
