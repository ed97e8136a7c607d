package discord

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"quranbot/internal/logger"
)

type Command interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Execute(s *discordgo.Session, i *discordgo.InteractionCreate) error
}

type Router struct {
	commands map[string]Command
	session  *discordgo.Session
	mu       sync.RWMutex
}

func NewRouter(session *discordgo.Session) *Router {
	return &Router{
		commands: make(map[string]Command),
		session:  session,
	}
}

func (r *Router) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name()] = cmd
}

func (r *Router) Handle(i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name

	r.mu.RLock()
	cmd, exists := r.commands[cmdName]
	r.mu.RUnlock()

	if !exists {
		logger.Warn().Str("command", cmdName).Msg("unknown command")
		return
	}

	userName := "unknown"
	if i.Member != nil && i.Member.User != nil {
		userName = i.Member.User.Username
	}
	logger.Info().Str("command", cmdName).Str("user", userName).Msg("slash command")

	if err := cmd.Execute(r.session, i); err != nil {
		logger.Error().Err(err).Str("command", cmdName).Msg("command failed")
	}
}

// UpdateCommands replaces the guild's registered slash commands with the
// router's set. Discord rate limits command writes, hence the sleeps.
func (r *Router) UpdateCommands(guildID string) error {
	r.mu.RLock()
	commands := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		commands = append(commands, cmd)
	}
	r.mu.RUnlock()

	appID := r.session.State.User.ID

	existing, err := r.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range existing {
		logger.Debug().Str("command", cmd.Name).Msg("removing registered command")
		if err := r.session.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			logger.Warn().Err(err).Str("command", cmd.Name).Msg("failed to delete command")
		}
		time.Sleep(100 * time.Millisecond)
	}

	for _, cmd := range commands {
		def := &discordgo.ApplicationCommand{
			Name:        cmd.Name(),
			Description: cmd.Description(),
			Options:     cmd.Options(),
		}
		if _, err := r.session.ApplicationCommandCreate(appID, guildID, def); err != nil {
			logger.Error().Err(err).Str("command", cmd.Name()).Msg("failed to create command")
			continue
		}
		logger.Debug().Str("command", cmd.Name()).Msg("registered command")
		time.Sleep(200 * time.Millisecond)
	}

	logger.Info().Int("commands", len(commands)).Msg("slash commands updated")
	return nil
}
