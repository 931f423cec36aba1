package model

import "errors"

// Direction is the transition direction between two slides.
type Direction int

const (
	DirectionForward  Direction = 1
	DirectionBackward Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "none"
	}
}

// FeedState is the user-visible state of a feed session.
type FeedState string

const (
	FeedStateLoading FeedState = "loading"
	FeedStateReady   FeedState = "ready"
	FeedStateError   FeedState = "error"
)

func (s FeedState) String() string {
	return string(s)
}

// EntryStatus is the retrieval state of one prefetch cache entry.
type EntryStatus string

const (
	EntryAbsent  EntryStatus = "absent"
	EntryPending EntryStatus = "pending"
	EntryReady   EntryStatus = "ready"
)

// Valid entry transitions:
// ABSENT -> PENDING -> READY -> ABSENT (release)
//                  \-> ABSENT (failed retrieval)
var validEntryTransitions = map[EntryStatus][]EntryStatus{
	EntryAbsent:  {EntryPending},
	EntryPending: {EntryReady, EntryAbsent},
	EntryReady:   {EntryAbsent},
}

func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	for _, status := range validEntryTransitions[s] {
		if status == next {
			return true
		}
	}
	return false
}

func (s EntryStatus) String() string {
	return string(s)
}

var ErrHandleNotReady = errors.New("playable handle is not ready")

// Handle is a local, ownership-bound reference to a fully retrieved payload.
// It stays valid until released by its owner.
type Handle struct {
	VideoID     string
	Path        string
	Size        int64
	ContentType string
}

// Overlay is the informational layer rendered on top of the current slide.
// Interaction counters are placeholders and carry no backing model.
type Overlay struct {
	Caption  string `json:"caption"`
	Music    string `json:"music"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	Shares   int    `json:"shares"`
}
