package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"quranbot/internal/library"
	"quranbot/internal/logger"
)

func (c *Client) handleComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	prefix := customID
	if idx := strings.Index(customID, ":"); idx != -1 {
		prefix = customID[:idx]
	}

	handler, exists := c.componentHandlers[prefix]
	if !exists {
		logger.Warn().Str("custom_id", customID).Msg("no handler for component")
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "Unknown component interaction.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	handler(s, i)
}

// handlePanelButton mutates the store for a panel button press. The panel
// itself repaints through the state_updated pipeline, so the interaction is
// only acknowledged here, never edited directly.
func (c *Client) handlePanelButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil || i.Member.User == nil {
		return
	}
	user := i.Member.User

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})

	action := strings.TrimPrefix(i.MessageComponentData().CustomID, "panel:")
	logger.Info().Str("action", action).Str("user", user.Username).Msg("panel button")

	switch action {
	case "prev":
		n := (c.store.CurrentSongIndex() - 1 + c.lib.Len()) % c.lib.Len()
		c.store.SetCurrentSongIndex(n)
		c.store.SetLastChange("Previous surah", user.ID, user.Username, library.DisplayName(c.lib.FileAt(n)))
		c.player.Interrupt()

	case "next":
		n := (c.store.CurrentSongIndex() + 1) % c.lib.Len()
		c.store.SetCurrentSongIndex(n)
		c.store.SetLastChange("Next surah", user.ID, user.Username, library.DisplayName(c.lib.FileAt(n)))
		c.player.Interrupt()

	case "playpause":
		if c.player.IsPaused() {
			c.player.Resume()
			c.store.SetLastChange("Playback resumed", user.ID, user.Username, "")
		} else {
			c.player.Pause()
			c.store.SetLastChange("Playback paused", user.ID, user.Username, "")
		}

	case "loop":
		if c.store.LoopEnabled() {
			c.store.ClearLoopEnabledBy()
			c.store.SetLastChange("Loop disabled", user.ID, user.Username, "")
		} else {
			c.store.SetLoopEnabledBy(user.ID, user.Username)
			c.store.SetLastChange("Loop enabled", user.ID, user.Username, "")
		}

	case "shuffle":
		if c.store.ShuffleEnabled() {
			c.store.ClearShuffleEnabledBy()
			c.store.SetLastChange("Shuffle disabled", user.ID, user.Username, "")
		} else {
			c.store.SetShuffleEnabledBy(user.ID, user.Username)
			c.store.SetLastChange("Shuffle enabled", user.ID, user.Username, "")
		}

	default:
		logger.Warn().Str("action", action).Msg("unknown panel action")
	}
}
