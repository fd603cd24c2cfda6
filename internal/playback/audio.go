package playback

// Origin tags where an audio element event came from. Events fired because
// this client applied a remote playback snapshot carry OriginRemote and must
// never be re-broadcast as admin commands; only genuine user interaction
// with the element is OriginLocal.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

// ElementEvent mirrors the media element callbacks the sync client reacts to.
type ElementEvent int

const (
	EventPlay ElementEvent = iota
	EventPause
	EventSeeked
	EventEnded
	EventLoadedMetadata
)

func (e ElementEvent) String() string {
	switch e {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventSeeked:
		return "seeked"
	case EventEnded:
		return "ended"
	case EventLoadedMetadata:
		return "loadedmetadata"
	default:
		return "unknown"
	}
}

// AudioElement abstracts the playback surface the client drives. Positions
// and durations are in seconds. Play reports an error when the environment
// refuses unattended playback, in which case the client surfaces an unlock
// prompt instead of retrying.
type AudioElement interface {
	Load(url string)
	ClearSource()
	Play() error
	Pause()
	Seek(seconds float64)
	Position() float64
	Duration() float64
	SetVolume(v float64)
	Volume() float64
	SetMuted(muted bool)
	Muted() bool
}
