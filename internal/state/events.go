package state

import "context"

type EventName string

const (
	EventSongChanged  EventName = "song_changed"
	EventIndexChanged EventName = "index_changed"
	EventStateUpdated EventName = "state_updated"
)

// Payload subtypes carried on state_updated events.
const (
	ChangeIndex           = "index_changed"
	ChangeSong            = "song_changed"
	ChangeLoopUser        = "loop_user_changed"
	ChangeLoopCleared     = "loop_user_cleared"
	ChangeShuffleUser     = "shuffle_user_changed"
	ChangeShuffleCleared  = "shuffle_user_cleared"
	ChangeLastActivitySet = "last_change_set"
)

type Event struct {
	Name EventName
	Type string

	OldIndex int
	NewIndex int
	Song     string
	UserID   string
	Username string
	Change   string
}

type Listener func(ctx context.Context, ev Event) error
