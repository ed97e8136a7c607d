package state

import "time"

// Document is the single JSON document persisted to disk. Unset string
// fields are ""; unset timestamps are nil. The loop/shuffle provenance pairs
// are set and cleared together, never one without the other.
type Document struct {
	CurrentSongIndex int        `json:"current_song_index"`
	CurrentSongName  string     `json:"current_song_name"`
	TotalSongsPlayed int        `json:"total_songs_played"`
	LastPlayedTime   *time.Time `json:"last_played_time"`
	BotStartCount    int        `json:"bot_start_count"`
	LastStateSave    *time.Time `json:"last_state_save"`

	LoopEnabledBy        string `json:"loop_enabled_by"`
	LoopEnabledByName    string `json:"loop_enabled_by_name"`
	ShuffleEnabledBy     string `json:"shuffle_enabled_by"`
	ShuffleEnabledByName string `json:"shuffle_enabled_by_name"`

	LastChange     string `json:"last_change"`
	LastChangeTime int64  `json:"last_change_time"`
}

// Defaults is the document used when no state file exists or the file cannot
// be read. Loading decodes the file over a copy of this, so fields added
// after a deployment are backfilled without losing persisted values.
func Defaults() Document {
	return Document{}
}

// Summary is the read-only snapshot handed to display code.
type Summary struct {
	CurrentSongIndex     int
	CurrentSongName      string
	TotalSongsPlayed     int
	BotStartCount        int
	LastPlayedTime       *time.Time
	LoopEnabledByName    string
	ShuffleEnabledByName string
	LastChange           string
	LastChangeTime       int64
}
