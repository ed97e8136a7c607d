package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"quranbot/internal/library"
)

func (c *Client) registerCommands() {
	c.router.Register(&panelCommand{client: c})
	c.router.Register(&surahCommand{client: c})
	c.router.Register(&nowPlayingCommand{client: c})
	c.router.Register(&loopCommand{client: c})
	c.router.Register(&shuffleCommand{client: c})
	c.router.Register(&skipCommand{client: c})
	c.router.Register(&pauseCommand{client: c})
	c.router.Register(&resumeCommand{client: c})
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

type panelCommand struct {
	client *Client
}

func (cmd *panelCommand) Name() string        { return "panel" }
func (cmd *panelCommand) Description() string { return "Post the recitation control panel here" }
func (cmd *panelCommand) Options() []*discordgo.ApplicationCommandOption {
	return nil
}

func (cmd *panelCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := cmd.client.EnsurePanel(i.ChannelID); err != nil {
		return respondEphemeral(s, i, "❌ Could not post the panel: "+err.Error())
	}
	return respondEphemeral(s, i, "✅ Control panel posted.")
}

type surahCommand struct {
	client *Client
}

func (cmd *surahCommand) Name() string        { return "surah" }
func (cmd *surahCommand) Description() string { return "Jump to a surah by number" }
func (cmd *surahCommand) Options() []*discordgo.ApplicationCommandOption {
	minNumber := float64(1)
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "number",
			Description: "Surah number (1-114)",
			Required:    true,
			MinValue:    &minNumber,
			MaxValue:    float64(library.SurahCount),
		},
	}
}

func (cmd *surahCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	number := int(i.ApplicationCommandData().Options[0].IntValue())
	user := interactionUser(i)

	c := cmd.client
	idx := c.store.SetCurrentSongIndexBySurah(number, c.lib.Files())
	name := library.DisplayName(c.lib.FileAt(idx))
	c.store.SetLastChange("Surah selected", user.ID, user.Username, name)
	c.player.Interrupt()

	return respondEphemeral(s, i, fmt.Sprintf("▶️ Now reciting %s.", name))
}

type nowPlayingCommand struct {
	client *Client
}

func (cmd *nowPlayingCommand) Name() string        { return "nowplaying" }
func (cmd *nowPlayingCommand) Description() string { return "Show the current recitation" }
func (cmd *nowPlayingCommand) Options() []*discordgo.ApplicationCommandOption {
	return nil
}

func (cmd *nowPlayingCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sum := cmd.client.store.Summary()
	if sum.CurrentSongName == "" {
		return respondEphemeral(s, i, "Nothing is playing yet.")
	}
	return respondEphemeral(s, i, fmt.Sprintf(
		"🎧 %s — %s (%d/%d)",
		sum.CurrentSongName,
		cmd.client.cfg.ReciterName,
		sum.CurrentSongIndex+1,
		cmd.client.lib.Len(),
	))
}

type loopCommand struct {
	client *Client
}

func (cmd *loopCommand) Name() string        { return "loop" }
func (cmd *loopCommand) Description() string { return "Toggle looping the current surah" }
func (cmd *loopCommand) Options() []*discordgo.ApplicationCommandOption {
	return nil
}

func (cmd *loopCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	c := cmd.client

	if c.store.LoopEnabled() {
		c.store.ClearLoopEnabledBy()
		c.store.SetLastChange("Loop disabled", user.ID, user.Username, "")
		return respondEphemeral(s, i, "🔂 Loop disabled.")
	}

	c.store.SetLoopEnabledBy(user.ID, user.Username)
	c.store.SetLastChange("Loop enabled", user.ID, user.Username, "")
	return respondEphemeral(s, i, "🔂 Loop enabled.")
}

type shuffleCommand struct {
	client *Client
}

func (cmd *shuffleCommand) Name() string        { return "shuffle" }
func (cmd *shuffleCommand) Description() string { return "Toggle shuffled surah order" }
func (cmd *shuffleCommand) Options() []*discordgo.ApplicationCommandOption {
	return nil
}

func (cmd *shuffleCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	c := cmd.client

	if c.store.ShuffleEnabled() {
		c.store.ClearShuffleEnabledBy()
		c.store.SetLastChange("Shuffle disabled", user.ID, user.Username, "")
		return respondEphemeral(s, i, "🔀 Shuffle disabled.")
	}

	c.store.SetShuffleEnabledBy(user.ID, user.Username)
	c.store.SetLastChange("Shuffle enabled", user.ID, user.Username, "")
	return respondEphemeral(s, i, "🔀 Shuffle enabled.")
}

type skipCommand struct {
	client *Client
}

func (cmd *skipCommand) Name() string        { return "skip" }
func (cmd *skipCommand) Description() string { return "Skip to the next surah" }
func (cmd *skipCommand) Options() []*discordgo.ApplicationCommandOption {
	return nil
}

func (cmd *skipCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	cmd.client.store.SetLastChange("Surah skipped", user.ID, user.Username, "")
	cmd.client.player.Skip()
	return respondEphemeral(s, i, "⏭️ Skipping.")
}

type pauseCommand struct {
	client *Client
}

func (cmd *pauseCommand) Name() string        { return "pause" }
func (cmd *pauseCommand) Description() string { return "Pause the recitation" }
func (cmd *pauseCommand) Options() []*discordgo.ApplicationCommandOption {
	return nil
}

func (cmd *pauseCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	cmd.client.player.Pause()
	cmd.client.store.SetLastChange("Playback paused", user.ID, user.Username, "")
	return respondEphemeral(s, i, "⏸️ Paused.")
}

type resumeCommand struct {
	client *Client
}

func (cmd *resumeCommand) Name() string        { return "resume" }
func (cmd *resumeCommand) Description() string { return "Resume the recitation" }
func (cmd *resumeCommand) Options() []*discordgo.ApplicationCommandOption {
	return nil
}

func (cmd *resumeCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	cmd.client.player.Resume()
	cmd.client.store.SetLastChange("Playback resumed", user.ID, user.Username, "")
	return respondEphemeral(s, i, "▶️ Resumed.")
}
