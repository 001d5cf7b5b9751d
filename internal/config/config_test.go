package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("STAGEHAND_ROOT", "")
	t.Setenv("HF_TOKEN", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Render, cfg.Render)
	assert.Equal(t, "copy", cfg.FFmpeg.AudioCodec)
	assert.Equal(t, IndexPolicyClamp, cfg.Render.SpriteIndexPolicy)
}

func TestLoadOverridesAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stagehand.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers: 3
ffmpeg:
  video_encoder: h264_nvenc
  quality: 28
render:
  sprite_index_policy: strict
`), 0644))

	t.Setenv("STAGEHAND_ROOT", "/srv/stagehand")
	t.Setenv("HF_TOKEN", "hf_secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "h264_nvenc", cfg.FFmpeg.VideoEncoder)
	assert.Equal(t, 28, cfg.FFmpeg.Quality)
	assert.Equal(t, IndexPolicyStrict, cfg.Render.SpriteIndexPolicy)
	// untouched keys keep their defaults
	assert.Equal(t, 1920, cfg.Render.DefaultWidth)
	assert.Equal(t, filepath.Join("/srv/stagehand", "public"), cfg.AssetDir)
	assert.Equal(t, filepath.Join("/srv/stagehand", "bin"), cfg.OutputDir)
	assert.Equal(t, "hf_secret", cfg.Speech.Token)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestRegisterFlags(t *testing.T) {
	cfg := Default()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(flags)

	require.NoError(t, flags.Parse([]string{"--workers=2", "--encoder=auto", "--stats"}))
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "auto", cfg.FFmpeg.VideoEncoder)
	assert.True(t, cfg.ShowStats)
}

func TestApplyFlags(t *testing.T) {
	fromFlags := Default()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fromFlags.RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--quality=30"}))

	cfg := Default()
	cfg.Workers = 7
	cfg.ApplyFlags(flags, fromFlags)

	assert.Equal(t, 30, cfg.FFmpeg.Quality)
	assert.Equal(t, 7, cfg.Workers)
}

func TestResolveAsset(t *testing.T) {
	cfg := &Config{AssetDir: "/assets"}
	assert.Equal(t, filepath.Join("/assets", "a.png"), cfg.ResolveAsset("a.png"))
	assert.Equal(t, "/abs/b.png", cfg.ResolveAsset("/abs/b.png"))
	assert.Equal(t, "", cfg.ResolveAsset(""))
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("STAGEHAND_ROOT", "")
	t.Setenv("HF_TOKEN", "")

	cfg := Default()
	cfg.Workers = 3
	cfg.FFmpeg.VideoEncoder = "h264_nvenc"
	cfg.Render.AllowSilent = true
	cfg.Speech.Token = "hf_secret"

	path := filepath.Join(t.TempDir(), "stagehand.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hf_secret")
	assert.Contains(t, string(data), "allow_silent: true")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Workers)
	assert.Equal(t, "h264_nvenc", loaded.FFmpeg.VideoEncoder)
	assert.True(t, loaded.Render.AllowSilent)
	assert.Empty(t, loaded.Speech.Token)
}
