package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"quranbot/internal/audio"
	"quranbot/internal/config"
	"quranbot/internal/library"
	"quranbot/internal/logger"
	"quranbot/internal/panel"
	"quranbot/internal/state"
)

type componentHandler func(s *discordgo.Session, i *discordgo.InteractionCreate)

// Client owns the gateway session and all interaction surfaces: slash
// commands, the control panel message, and its buttons.
type Client struct {
	session *discordgo.Session
	cfg     config.Config

	store  *state.Store
	lib    *library.Library
	player *audio.Player
	panels *panel.Manager
	router *Router

	componentHandlers map[string]componentHandler

	mu        sync.Mutex
	panelView *PanelView
	startOnce sync.Once
}

func NewClient(cfg config.Config, store *state.Store, lib *library.Library, player *audio.Player, panels *panel.Manager) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("discord token is required")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	c := &Client{
		session: session,
		cfg:     cfg,
		store:   store,
		lib:     lib,
		player:  player,
		panels:  panels,
	}

	c.router = NewRouter(session)
	c.registerCommands()

	c.componentHandlers = map[string]componentHandler{
		"panel": c.handlePanelButton,
	}

	session.AddHandler(c.handleReady)
	session.AddHandler(c.handleInteraction)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages

	return c, nil
}

func (c *Client) Connect() error {
	return c.session.Open()
}

func (c *Client) Session() *discordgo.Session {
	return c.session
}

func (c *Client) UpdateCommands() error {
	return c.router.UpdateCommands(c.cfg.GuildID)
}

func (c *Client) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Info().Str("user", r.User.Username).Msg("bot ready")
	s.UpdateGameStatus(0, "Quran 24/7 | /panel")

	// Ready also fires on gateway reconnects; the voice join and panel
	// post only happen once per process.
	c.startOnce.Do(func() {
		go c.startPlayback()
	})
}

func (c *Client) startPlayback() {
	vc, err := c.session.ChannelVoiceJoin(c.cfg.GuildID, c.cfg.VoiceChannelID, false, true)
	if err != nil {
		logger.Error().Err(err).Str("channel", c.cfg.VoiceChannelID).Msg("failed to join voice channel")
		return
	}

	c.player.SetVoiceConnection(vc)
	c.player.Start()
	logger.Info().Str("channel", c.cfg.VoiceChannelID).Msg("streaming recitations")

	if c.cfg.PanelChannelID != "" {
		if err := c.EnsurePanel(c.cfg.PanelChannelID); err != nil {
			logger.Error().Err(err).Msg("failed to post panel at startup")
		}
	}
}

// EnsurePanel posts the control panel into the channel and wires it to
// state notifications, replacing any panel posted earlier.
func (c *Client) EnsurePanel(channelID string) error {
	c.mu.Lock()
	view := c.panelView
	if view == nil {
		view = NewPanelView(c.session, c.store, c.lib, c.player, c.cfg.ReciterName)
		c.panelView = view
	}
	c.mu.Unlock()

	if err := view.Post(channelID); err != nil {
		return err
	}

	if err := c.panels.Register(view); err != nil {
		return err
	}

	c.panels.TriggerManualUpdate(context.Background())
	return nil
}

func (c *Client) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		c.router.Handle(i)
	case discordgo.InteractionMessageComponent:
		c.handleComponentInteraction(s, i)
	}
}

func (c *Client) Shutdown(ctx context.Context) error {
	return c.session.Close()
}

func (c *Client) Name() string {
	return "DiscordClient"
}
