package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token-123")
	path := writeConfig(t, `{"guild_id": "g1", "voice_channel_id": "vc1"}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "token-123", cfg.Token)
	assert.Equal(t, "audio", cfg.AudioDir)
	assert.Equal(t, "playback_state.json", cfg.StatePath)
	assert.Equal(t, 24, cfg.VerseIntervalHours)
	assert.NotEmpty(t, cfg.ReciterName)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	path := writeConfig(t, `{"guild_id": "g1", "voice_channel_id": "vc1"}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRequiresGuildAndVoiceChannel(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token-123")

	_, err := Load(writeConfig(t, `{"voice_channel_id": "vc1"}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"guild_id": "g1"}`))
	assert.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token-123")

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadInvalidJSONFails(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token-123")

	_, err := Load(writeConfig(t, `{"guild_id":`))
	assert.Error(t, err)
}
