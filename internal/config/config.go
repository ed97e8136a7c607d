package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

type Config struct {
	GuildID        string `json:"guild_id"`
	VoiceChannelID string `json:"voice_channel_id"`
	PanelChannelID string `json:"panel_channel_id"`

	AudioDir    string `json:"audio_dir"`
	ReciterName string `json:"reciter_name"`
	StatePath   string `json:"state_path"`

	VersesPath         string `json:"verses_path"`
	VerseChannelID     string `json:"verse_channel_id"`
	VerseIntervalHours int    `json:"verse_interval_hours"`

	// Loaded from the environment, never from the file.
	Token string `json:"-"`
}

func Load(configPath string) (Config, error) {
	var config Config

	if configPath == "" {
		configPath = "config.json"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}

	config.Token = os.Getenv("DISCORD_TOKEN")
	if config.Token == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required in the environment")
	}

	if config.GuildID == "" {
		return Config{}, errors.New("guild_id is required in config")
	}

	if config.VoiceChannelID == "" {
		return Config{}, errors.New("voice_channel_id is required in config")
	}

	if config.AudioDir == "" {
		config.AudioDir = "audio"
	}

	if config.ReciterName == "" {
		config.ReciterName = "Mishary Rashid Alafasy"
	}

	if config.StatePath == "" {
		config.StatePath = "playback_state.json"
	}

	if config.VerseIntervalHours == 0 {
		config.VerseIntervalHours = 24
	}

	return config, nil
}
