package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"quranbot/internal/logger"
)

// How long a recorded last-change stays visible on the panel.
const lastActivityWindow = 15 * time.Minute

// Store is the single source of truth for playback/session state. Every
// setter writes the document through to disk before returning, then hands
// the matching events to the scheduler. A failed save is logged and the
// in-memory mutation stands; disk catches up on the next successful save.
type Store struct {
	mu    sync.RWMutex
	path  string
	doc   Document
	bus   *Bus
	sched Scheduler
	now   func() time.Time
}

func NewStore(path string, bus *Bus, sched Scheduler) *Store {
	s := &Store{
		path:  path,
		bus:   bus,
		sched: sched,
		now:   time.Now,
	}
	s.doc = s.load()
	return s
}

// load reads the state file, decoding it over the defaults so that missing
// fields are backfilled. Any failure falls back to the defaults; this never
// returns an error.
func (s *Store) load() Document {
	doc := Defaults()

	data, err := os.ReadFile(s.path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Info().Str("path", s.path).Msg("no state file, starting from defaults")
		case errors.Is(err, fs.ErrPermission):
			logger.Error().Err(err).Str("path", s.path).Msg("state file unreadable, starting from defaults")
		default:
			logger.Error().Err(err).Str("path", s.path).Msg("state file read failed, starting from defaults")
		}
		return doc
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("state file is not valid JSON, starting from defaults")
		return Defaults()
	}

	if doc.CurrentSongIndex < 0 {
		logger.Warn().Int("index", doc.CurrentSongIndex).Msg("persisted index was negative, clamping to 0")
		doc.CurrentSongIndex = 0
	}

	logger.Info().Str("path", s.path).Int("index", doc.CurrentSongIndex).Msg("state loaded")
	return doc
}

// save writes the whole document via a temp file and rename so a crash
// mid-write can never leave truncated JSON behind. Callers hold s.mu.
func (s *Store) save() {
	now := s.now()
	s.doc.LastStateSave = &now

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		logger.Error().Err(err).Msg("state marshal failed, keeping in-memory state")
		return
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("state temp file creation failed, keeping in-memory state")
		return
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		logger.Error().Err(err).Msg("state write failed, keeping in-memory state")
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		logger.Error().Err(err).Msg("state file close failed, keeping in-memory state")
		return
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		logger.Error().Err(err).Str("path", s.path).Msg("state rename failed, keeping in-memory state")
		return
	}

	logger.Debug().Str("path", s.path).Msg("state saved")
}

// publish schedules an emission on the background scheduler. When the
// scheduler is not running the event is dropped: mutations made outside the
// bot's dispatch lifetime notify nobody.
func (s *Store) publish(ev Event) {
	if s.bus == nil {
		return
	}
	if s.sched == nil || !s.sched.Schedule(func(ctx context.Context) {
		s.bus.Emit(ctx, ev)
	}) {
		logger.Debug().Str("event", string(ev.Name)).Msg("scheduler not running, event dropped")
	}
}

func (s *Store) CurrentSongIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.CurrentSongIndex
}

func (s *Store) SetCurrentSongIndex(index int) {
	if index < 0 {
		logger.Warn().Int("index", index).Msg("negative song index, clamping to 0")
		index = 0
	}

	s.mu.Lock()
	old := s.doc.CurrentSongIndex
	s.doc.CurrentSongIndex = index
	s.save()
	s.mu.Unlock()

	s.publish(Event{Name: EventIndexChanged, Type: ChangeIndex, OldIndex: old, NewIndex: index})
	s.publish(Event{Name: EventStateUpdated, Type: ChangeIndex, OldIndex: old, NewIndex: index})
}

func (s *Store) CurrentSongName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.CurrentSongName
}

func (s *Store) SetCurrentSongName(name string) {
	if strings.TrimSpace(name) == "" {
		logger.Warn().Msg("blank song name rejected")
		return
	}

	s.mu.Lock()
	s.doc.CurrentSongName = name
	now := s.now()
	s.doc.LastPlayedTime = &now
	s.save()
	s.mu.Unlock()

	s.publish(Event{Name: EventSongChanged, Type: ChangeSong, Song: name})
	s.publish(Event{Name: EventStateUpdated, Type: ChangeSong, Song: name})
}

// SetCurrentSongIndexBySurah positions playback on the first file whose name
// starts with the surah's zero-padded number. No match, or an empty list,
// falls back to index 0. Returns the index that was set.
func (s *Store) SetCurrentSongIndexBySurah(surah int, files []string) int {
	if len(files) == 0 {
		logger.Warn().Int("surah", surah).Msg("empty file list for surah lookup, falling back to index 0")
		s.SetCurrentSongIndex(0)
		return 0
	}

	prefix := fmt.Sprintf("%03d", surah)
	for i, file := range files {
		if strings.HasPrefix(filepath.Base(file), prefix) {
			s.SetCurrentSongIndex(i)
			return i
		}
	}

	logger.Warn().Int("surah", surah).Int("files", len(files)).Msg("no file matches surah, falling back to index 0")
	s.SetCurrentSongIndex(0)
	return 0
}

func (s *Store) TotalSongsPlayed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.TotalSongsPlayed
}

func (s *Store) IncrementSongsPlayed() {
	s.mu.Lock()
	s.doc.TotalSongsPlayed++
	s.save()
	s.mu.Unlock()
}

func (s *Store) BotStartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.BotStartCount
}

func (s *Store) IncrementBotStartCount() {
	s.mu.Lock()
	s.doc.BotStartCount++
	count := s.doc.BotStartCount
	s.save()
	s.mu.Unlock()

	logger.Info().Int("start_count", count).Msg("bot start recorded")
}

// LoopEnabled reports whether loop mode is on. The provenance pair is the
// mode flag: set means on, cleared means off.
func (s *Store) LoopEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.LoopEnabledBy != ""
}

func (s *Store) LoopEnabledBy() (userID, username string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.LoopEnabledBy, s.doc.LoopEnabledByName
}

func (s *Store) SetLoopEnabledBy(userID, username string) {
	if userID == "" || username == "" {
		logger.Warn().Str("user_id", userID).Str("username", username).Msg("loop provenance requires both id and name")
		return
	}

	s.mu.Lock()
	s.doc.LoopEnabledBy = userID
	s.doc.LoopEnabledByName = username
	s.save()
	s.mu.Unlock()

	s.publish(Event{Name: EventStateUpdated, Type: ChangeLoopUser, UserID: userID, Username: username})
}

func (s *Store) ClearLoopEnabledBy() {
	s.mu.Lock()
	s.doc.LoopEnabledBy = ""
	s.doc.LoopEnabledByName = ""
	s.save()
	s.mu.Unlock()

	s.publish(Event{Name: EventStateUpdated, Type: ChangeLoopCleared})
}

func (s *Store) ShuffleEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.ShuffleEnabledBy != ""
}

func (s *Store) ShuffleEnabledBy() (userID, username string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.ShuffleEnabledBy, s.doc.ShuffleEnabledByName
}

func (s *Store) SetShuffleEnabledBy(userID, username string) {
	if userID == "" || username == "" {
		logger.Warn().Str("user_id", userID).Str("username", username).Msg("shuffle provenance requires both id and name")
		return
	}

	s.mu.Lock()
	s.doc.ShuffleEnabledBy = userID
	s.doc.ShuffleEnabledByName = username
	s.save()
	s.mu.Unlock()

	s.publish(Event{Name: EventStateUpdated, Type: ChangeShuffleUser, UserID: userID, Username: username})
}

func (s *Store) ClearShuffleEnabledBy() {
	s.mu.Lock()
	s.doc.ShuffleEnabledBy = ""
	s.doc.ShuffleEnabledByName = ""
	s.save()
	s.mu.Unlock()

	s.publish(Event{Name: EventStateUpdated, Type: ChangeShuffleCleared})
}

// SetLastChange records a human-readable description of a user-initiated
// action, shown on the panel while inside the visibility window. Details is
// optional; pass "" when the action has no target.
func (s *Store) SetLastChange(action, userID, username, details string) {
	desc := fmt.Sprintf("%s by %s", action, username)
	if details != "" {
		desc = fmt.Sprintf("%s by %s to %s", action, username, details)
	}

	s.mu.Lock()
	s.doc.LastChange = desc
	s.doc.LastChangeTime = s.now().Unix()
	s.save()
	s.mu.Unlock()

	s.publish(Event{Name: EventStateUpdated, Type: ChangeLastActivitySet, UserID: userID, Username: username, Change: desc})
}

func (s *Store) LastChange() (string, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.LastChange, s.doc.LastChangeTime
}

// ShouldShowLastActivity reports whether the recorded last change is still
// inside its visibility window.
func (s *Store) ShouldShowLastActivity() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc.LastChangeTime == 0 {
		return false
	}
	elapsed := s.now().Unix() - s.doc.LastChangeTime
	return elapsed <= int64(lastActivityWindow.Seconds())
}

func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Summary{
		CurrentSongIndex:     s.doc.CurrentSongIndex,
		CurrentSongName:      s.doc.CurrentSongName,
		TotalSongsPlayed:     s.doc.TotalSongsPlayed,
		BotStartCount:        s.doc.BotStartCount,
		LastPlayedTime:       s.doc.LastPlayedTime,
		LoopEnabledByName:    s.doc.LoopEnabledByName,
		ShuffleEnabledByName: s.doc.ShuffleEnabledByName,
		LastChange:           s.doc.LastChange,
		LastChangeTime:       s.doc.LastChangeTime,
	}
}

// Document returns a copy of the full persisted document.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}
