package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"quranbot/internal/library"
	"quranbot/internal/logger"
	"quranbot/internal/state"
)

const (
	channels  = 2
	frameRate = 48000
	frameSize = 960
)

type outcome int

const (
	outcomeFinished outcome = iota
	outcomeSkipped
	outcomePaused
	outcomeStopped
)

// Player streams the recitation library into a voice connection without
// stopping: when one surah ends the next starts, chosen by the store's loop
// and shuffle modes. Every advance goes through the store so the persisted
// position and the panel stay in step with what is actually playing.
type Player struct {
	store *state.Store
	lib   *library.Library

	mu       sync.Mutex
	vc       *discordgo.VoiceConnection
	paused   bool
	skipFlag bool
	jumpFlag bool
	stopChan chan struct{}
	running  bool
	done     chan struct{}
}

func NewPlayer(store *state.Store, lib *library.Library) *Player {
	return &Player{
		store: store,
		lib:   lib,
	}
}

func (p *Player) SetVoiceConnection(vc *discordgo.VoiceConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vc = vc
}

// Start launches the playback loop. No-op when already running.
func (p *Player) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.run()
}

func (p *Player) run() {
	defer close(p.done)

	for {
		select {
		case <-p.stopChan:
			return
		default:
		}

		if p.waitWhilePaused() {
			return
		}

		index := p.store.CurrentSongIndex()
		if index >= p.lib.Len() {
			// The library shrank since the index was persisted.
			index = 0
		}

		file := p.lib.FileAt(index)
		p.store.SetCurrentSongName(library.DisplayName(file))
		logger.Info().Str("file", file).Int("index", index).Msg("starting recitation")

		result := p.playFile(p.lib.PathAt(index))

		p.mu.Lock()
		jumped := p.jumpFlag
		p.jumpFlag = false
		p.mu.Unlock()

		switch {
		case result == outcomeStopped:
			return
		case jumped:
			// The store index was repositioned externally; play it as-is.
			continue
		case result == outcomePaused:
			continue
		}

		p.store.IncrementSongsPlayed()
		p.store.SetCurrentSongIndex(p.nextIndex(index, result == outcomeSkipped))
	}
}

// nextIndex applies the store's playback modes. Loop repeats the surah
// unless the listener skipped past it; shuffle picks at random; otherwise
// advance in order, wrapping at the end of the library.
func (p *Player) nextIndex(current int, skipped bool) int {
	if p.store.LoopEnabled() && !skipped {
		return current
	}
	if p.store.ShuffleEnabled() {
		return rand.Intn(p.lib.Len())
	}
	return (current + 1) % p.lib.Len()
}

// waitWhilePaused blocks until the player is resumed or stopped. Returns
// true when the player should exit.
func (p *Player) waitWhilePaused() bool {
	for {
		p.mu.Lock()
		paused := p.paused
		p.mu.Unlock()

		if !paused {
			return false
		}

		select {
		case <-p.stopChan:
			return true
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// playFile decodes one file through ffmpeg and pushes opus frames to the
// voice connection until the file ends or a control flag cuts it short.
func (p *Player) playFile(path string) outcome {
	if path == "" {
		return outcomeFinished
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Error().Str("path", path).Msg("recitation file missing, advancing")
		return outcomeFinished
	}

	p.mu.Lock()
	vc := p.vc
	p.skipFlag = false
	p.mu.Unlock()

	if vc == nil {
		logger.Error().Msg("no voice connection, cannot play")
		time.Sleep(time.Second)
		return outcomeFinished
	}

	vc.Speaking(true)
	defer vc.Speaking(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"-loglevel", "warning",
		"pipe:1",
	)

	out, err := cmd.StdoutPipe()
	if err != nil {
		logger.Error().Err(err).Msg("failed to create ffmpeg stdout pipe")
		return outcomeFinished
	}

	if err := cmd.Start(); err != nil {
		logger.Error().Err(err).Msg("failed to start ffmpeg")
		return outcomeFinished
	}

	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	encoder, err := gopus.NewEncoder(frameRate, channels, gopus.Audio)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create opus encoder")
		return outcomeFinished
	}

	audioBuf := make([]int16, frameSize*channels)

	for {
		p.mu.Lock()
		paused := p.paused
		skip := p.skipFlag
		p.mu.Unlock()

		if paused {
			logger.Info().Str("path", path).Msg("playback paused")
			return outcomePaused
		}
		if skip {
			logger.Info().Str("path", path).Msg("recitation skipped")
			return outcomeSkipped
		}

		readDone := make(chan error, 1)
		go func() {
			readDone <- binary.Read(out, binary.LittleEndian, &audioBuf)
		}()

		select {
		case err := <-readDone:
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return outcomeFinished
				}
				logger.Error().Err(err).Str("path", path).Msg("error reading audio data")
				return outcomeFinished
			}
		case <-p.stopChan:
			return outcomeStopped
		case <-time.After(5 * time.Second):
			logger.Warn().Str("path", path).Msg("audio read timeout")
			return outcomeFinished
		}

		opusData, err := encoder.Encode(audioBuf, frameSize, 1000)
		if err != nil {
			logger.Error().Err(err).Msg("opus encode failed")
			return outcomeFinished
		}

		select {
		case vc.OpusSend <- opusData:
		case <-p.stopChan:
			return outcomeStopped
		case <-time.After(time.Second):
			logger.Warn().Msg("timeout sending opus frame")
			return outcomeFinished
		}
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Skip ends the current surah; the run loop advances past it.
func (p *Player) Skip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipFlag = true
	p.paused = false
}

// Interrupt cuts the current surah short and restarts playback at whatever
// index the store now holds. Callers reposition the store first, then
// interrupt.
func (p *Player) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipFlag = true
	p.jumpFlag = true
	p.paused = false
}

func (p *Player) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()
}

func (p *Player) Shutdown(ctx context.Context) error {
	p.Stop()

	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Player) Name() string {
	return "AudioPlayer"
}
