package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"quranbot/internal/audio"
	"quranbot/internal/library"
	"quranbot/internal/state"
)

const panelColor = 0x2E8B57

// PanelView is the one pinned control-panel message. Render re-paints it in
// place from the current store snapshot; the panel manager decides when.
type PanelView struct {
	session *discordgo.Session
	store   *state.Store
	lib     *library.Library
	player  *audio.Player
	reciter string

	mu        sync.Mutex
	channelID string
	messageID string
}

func NewPanelView(session *discordgo.Session, store *state.Store, lib *library.Library, player *audio.Player, reciter string) *PanelView {
	return &PanelView{
		session: session,
		store:   store,
		lib:     lib,
		player:  player,
		reciter: reciter,
	}
}

func (v *PanelView) Host() *discordgo.Session {
	return v.session
}

// Post sends a fresh panel message to the channel and remembers it as the
// render target. An earlier panel message, if any, is deleted first.
func (v *PanelView) Post(channelID string) error {
	v.mu.Lock()
	oldChannel, oldMessage := v.channelID, v.messageID
	v.mu.Unlock()

	if oldMessage != "" {
		// Best effort: a stale panel left behind is cosmetic.
		v.session.ChannelMessageDelete(oldChannel, oldMessage)
	}

	msg, err := v.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{v.buildEmbed()},
		Components: v.buildComponents(),
	})
	if err != nil {
		return fmt.Errorf("failed to post panel message: %w", err)
	}

	v.mu.Lock()
	v.channelID = channelID
	v.messageID = msg.ID
	v.mu.Unlock()

	return nil
}

// Render edits the panel message in place with the current state.
func (v *PanelView) Render(ctx context.Context) error {
	v.mu.Lock()
	channelID, messageID := v.channelID, v.messageID
	v.mu.Unlock()

	if messageID == "" {
		return fmt.Errorf("panel message has not been posted")
	}

	edit := discordgo.NewMessageEdit(channelID, messageID)
	embeds := []*discordgo.MessageEmbed{v.buildEmbed()}
	components := v.buildComponents()
	edit.Embeds = &embeds
	edit.Components = &components

	_, err := v.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}

func (v *PanelView) buildEmbed() *discordgo.MessageEmbed {
	sum := v.store.Summary()

	nowPlaying := sum.CurrentSongName
	if nowPlaying == "" {
		nowPlaying = "Nothing yet"
	}

	status := "▶️ Reciting"
	if v.player.IsPaused() {
		status = "⏸️ Paused"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Now Reciting", Value: nowPlaying, Inline: false},
		{Name: "Reciter", Value: v.reciter, Inline: true},
		{Name: "Status", Value: status, Inline: true},
		{
			Name:   "Position",
			Value:  fmt.Sprintf("%d / %d", sum.CurrentSongIndex+1, v.lib.Len()),
			Inline: true,
		},
		{Name: "Loop", Value: modeLine(sum.LoopEnabledByName), Inline: true},
		{Name: "Shuffle", Value: modeLine(sum.ShuffleEnabledByName), Inline: true},
		{Name: "Surahs Played", Value: fmt.Sprintf("%d", sum.TotalSongsPlayed), Inline: true},
	}

	if v.store.ShouldShowLastActivity() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Last Change",
			Value:  fmt.Sprintf("%s (<t:%d:R>)", sum.LastChange, sum.LastChangeTime),
			Inline: false,
		})
	}

	return &discordgo.MessageEmbed{
		Title:  "🕌 Quran Recitation",
		Color:  panelColor,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Bot start #%d", sum.BotStartCount),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func modeLine(enabledByName string) string {
	if enabledByName == "" {
		return "Off"
	}
	return fmt.Sprintf("On (%s)", enabledByName)
}

func (v *PanelView) buildComponents() []discordgo.MessageComponent {
	playPauseLabel := "Pause"
	playPauseEmoji := "⏸️"
	if v.player.IsPaused() {
		playPauseLabel = "Resume"
		playPauseEmoji = "▶️"
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.SecondaryButton,
					CustomID: "panel:prev",
					Emoji:    &discordgo.ComponentEmoji{Name: "⏮️"},
				},
				discordgo.Button{
					Label:    playPauseLabel,
					Style:    discordgo.PrimaryButton,
					CustomID: "panel:playpause",
					Emoji:    &discordgo.ComponentEmoji{Name: playPauseEmoji},
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.SecondaryButton,
					CustomID: "panel:next",
					Emoji:    &discordgo.ComponentEmoji{Name: "⏭️"},
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Loop",
					Style:    loopStyle(v.store.LoopEnabled()),
					CustomID: "panel:loop",
					Emoji:    &discordgo.ComponentEmoji{Name: "🔂"},
				},
				discordgo.Button{
					Label:    "Shuffle",
					Style:    loopStyle(v.store.ShuffleEnabled()),
					CustomID: "panel:shuffle",
					Emoji:    &discordgo.ComponentEmoji{Name: "🔀"},
				},
			},
		},
	}
}

func loopStyle(enabled bool) discordgo.ButtonStyle {
	if enabled {
		return discordgo.SuccessButton
	}
	return discordgo.SecondaryButton
}
