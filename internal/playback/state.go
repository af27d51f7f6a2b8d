package playback

// State is the reading state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the reader.
type Status struct {
	State   State
	Index   int // chunk being synthesized or played
	Total   int // number of chunks
	Backend string

	// Synthesizing is set while the current chunk's audio is being made.
	Synthesizing bool

	// Skipped counts chunks that failed in the current reading.
	Skipped int
}

// Progress returns the fraction of chunks finished.
func (s Status) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(min(s.Index, s.Total)) / float64(s.Total)
}
