package session

// Criterion is one scoring dimension. The set is server-supplied on
// initial_state and immutable for the lifetime of a session.
type Criterion struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DefaultCriteria mirrors the server's built-in scoring dimensions. Used as a
// fallback until the first initial_state arrives.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{Key: "rhyme", Label: "Lyrics + Rhymes"},
		{Key: "structure", Label: "Structure + Rhythm"},
		{Key: "style", Label: "Style + Genre"},
		{Key: "quality", Label: "Quality + Mixing"},
		{Key: "vibe", Label: "Vibe + Impression"},
	}
}

// Rater is one judge slot on the panel. Scores are keyed by criterion key and
// always clamped to [0,10]. UserID binds the slot to an authenticated user in
// the access-controlled variant; empty in the open variant.
type Rater struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Order  int                `json:"order"`
	Scores map[string]float64 `json:"scores"`
	UserID string             `json:"user_id,omitempty"`
}

// Membership is this client's binding to the rating session. A panel is
// editable only while Joined and only for the rater slot assigned to the
// bound user.
type Membership struct {
	UserID   string
	Username string
	RaterID  string
	Joined   bool
}

// PresenceEntry is one occupied rater slot as reported by
// raters_presence_updated. Slots stay visible across transient disconnects
// until an explicit leave or kick.
type PresenceEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	RaterID  string `json:"rater_id"`
}

// Snapshot is an immutable copy of the full view-state, safe to hand to a
// renderer without holding the store's lock.
type Snapshot struct {
	TrackName  string
	Criteria   []Criterion
	Raters     []Rater
	Membership Membership
	Presence   []PresenceEntry
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
