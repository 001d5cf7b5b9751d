package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Sprite index policies for out-of-range video frames.
const (
	IndexPolicyClamp  = "clamp"
	IndexPolicyStrict = "strict"
)

// Resample modes applied to a direction's explicit width/height.
const (
	ResampleNone    = "none"
	ResampleNearest = "nearest"
)

type Config struct {
	AssetDir  string `yaml:"asset_dir"`
	OutputDir string `yaml:"output_dir"`
	TempDir   string `yaml:"temp_dir"`
	SceneDir  string `yaml:"scene_dir"`

	Workers        int     `yaml:"workers"`
	Lookahead      int     `yaml:"lookahead"`
	MemoryFraction float64 `yaml:"memory_fraction"`
	ShowStats      bool    `yaml:"show_stats"`
	BuildVersion   string  `yaml:"-"`

	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Render RenderConfig `yaml:"render"`
	Speech SpeechConfig `yaml:"speech"`
}

type FFmpegConfig struct {
	FFmpegPath   string `yaml:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path"`
	VideoEncoder string `yaml:"video_encoder"` // "auto" picks the best available H.264 encoder
	AudioCodec   string `yaml:"audio_codec"`
	Quality      int    `yaml:"quality"` // 0 = encoder default
}

type RenderConfig struct {
	SpriteIndexPolicy  string `yaml:"sprite_index_policy"`
	Resample           string `yaml:"resample"`
	MaxPrecomputeDepth int    `yaml:"max_precompute_depth"`
	DefaultWidth       int    `yaml:"default_width"`
	DefaultHeight      int    `yaml:"default_height"`
	StillFrameCap      int    `yaml:"still_frame_cap"`
	// AllowSilent renders scenes without audio as video-only files instead
	// of rejecting them.
	AllowSilent bool `yaml:"allow_silent"`
}

type SpeechConfig struct {
	PythonPath string `yaml:"python_path"`
	ScriptPath string `yaml:"script_path"`
	Token      string `yaml:"-"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		AssetDir:       ".",
		OutputDir:      "output",
		TempDir:        filepath.Join(os.TempDir(), "stagehand"),
		SceneDir:       filepath.Join("input", "scenes"),
		Workers:        runtime.NumCPU(),
		MemoryFraction: 0.25,
		FFmpeg: FFmpegConfig{
			FFmpegPath:   "ffmpeg",
			FFprobePath:  "ffprobe",
			VideoEncoder: "libx264",
			AudioCodec:   "copy",
		},
		Render: RenderConfig{
			SpriteIndexPolicy:  IndexPolicyClamp,
			Resample:           ResampleNone,
			MaxPrecomputeDepth: 16,
			DefaultWidth:       1920,
			DefaultHeight:      1080,
			StillFrameCap:      1,
		},
		Speech: SpeechConfig{
			PythonPath: filepath.Join("src-py", ".venv", "bin", "python3"),
			ScriptPath: filepath.Join("src-py", "diarise.py"),
		},
	}
}

// Load reads configuration from path (or the first candidate file found),
// then applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Encode writes the configuration as YAML. Secrets are never written.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// Save writes the configuration to path in the format Load reads.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// RegisterFlags binds the options most often overridden per run.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.IntVar(&c.Workers, "workers", c.Workers, "parallel prop loaders and compositors")
	flags.StringVar(&c.FFmpeg.VideoEncoder, "encoder", c.FFmpeg.VideoEncoder, "H.264 encoder (auto, libx264, h264_nvenc, h264_videotoolbox)")
	flags.IntVar(&c.FFmpeg.Quality, "quality", c.FFmpeg.Quality, "quality (0 = auto; x264 CRF, nvenc CQ, videotoolbox bitrate = Q*100kbit/s)")
	flags.BoolVar(&c.ShowStats, "stats", c.ShowStats, "print a performance report after video renders")
}

// ApplyFlags copies the options explicitly set on flags from src, the
// config the flags were registered on. Unset flags leave c untouched.
func (c *Config) ApplyFlags(flags *pflag.FlagSet, src *Config) {
	if flags.Changed("workers") {
		c.Workers = src.Workers
	}
	if flags.Changed("encoder") {
		c.FFmpeg.VideoEncoder = src.FFmpeg.VideoEncoder
	}
	if flags.Changed("quality") {
		c.FFmpeg.Quality = src.FFmpeg.Quality
	}
	if flags.Changed("stats") {
		c.ShowStats = src.ShowStats
	}
}

// ResolveAsset joins relative asset paths onto AssetDir.
func (c *Config) ResolveAsset(path string) string {
	if path == "" || filepath.IsAbs(path) || c.AssetDir == "" {
		return path
	}
	return filepath.Join(c.AssetDir, path)
}

func (c *Config) applyEnv() {
	if root := os.Getenv("STAGEHAND_ROOT"); root != "" {
		c.AssetDir = filepath.Join(root, "public")
		c.OutputDir = filepath.Join(root, "bin")
	}
	if token := os.Getenv("HF_TOKEN"); token != "" {
		c.Speech.Token = token
	}
}

func findConfigFile() string {
	candidates := []string{
		"./stagehand.yaml",
		"./stagehand.yml",
		filepath.Join(os.Getenv("HOME"), ".stagehand", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
