package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"

	"quranbot/internal/logger"
)

type Verse struct {
	Reference   string `json:"reference"`
	Arabic      string `json:"arabic"`
	Translation string `json:"translation"`
}

// VersePoster posts a verse embed to a channel on a fixed interval. It is
// an optional feature: main only constructs one when a verse file and
// channel are configured.
type VersePoster struct {
	session   *discordgo.Session
	channelID string
	interval  time.Duration
	verses    []Verse
	stop      chan struct{}
	done      chan struct{}
}

func NewVersePoster(session *discordgo.Session, path, channelID string, interval time.Duration) (*VersePoster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read verse file %s: %w", path, err)
	}

	var verses []Verse
	if err := json.Unmarshal(data, &verses); err != nil {
		return nil, fmt.Errorf("failed to parse verse file %s: %w", path, err)
	}
	if len(verses) == 0 {
		return nil, fmt.Errorf("verse file %s is empty", path)
	}

	return &VersePoster{
		session:   session,
		channelID: channelID,
		interval:  interval,
		verses:    verses,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

func (v *VersePoster) Start() {
	logger.Info().
		Int("verses", len(v.verses)).
		Dur("interval", v.interval).
		Msg("daily verse poster started")

	go func() {
		defer close(v.done)
		ticker := time.NewTicker(v.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				v.postOne()
			case <-v.stop:
				return
			}
		}
	}()
}

func (v *VersePoster) postOne() {
	verse := v.verses[rand.Intn(len(v.verses))]

	embed := &discordgo.MessageEmbed{
		Title:       "📖 Verse of the Day",
		Description: verse.Arabic,
		Color:       panelColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Translation", Value: verse.Translation},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: verse.Reference},
	}

	if _, err := v.session.ChannelMessageSendEmbed(v.channelID, embed); err != nil {
		logger.Error().Err(err).Str("channel", v.channelID).Msg("failed to post daily verse")
		return
	}
	logger.Info().Str("reference", verse.Reference).Msg("daily verse posted")
}

func (v *VersePoster) Shutdown(ctx context.Context) error {
	close(v.stop)
	select {
	case <-v.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *VersePoster) Name() string {
	return "VersePoster"
}
