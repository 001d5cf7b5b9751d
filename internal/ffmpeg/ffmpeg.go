// Package ffmpeg runs the ffmpeg and ffprobe binaries: decoding videos into
// raw RGBA frames, probing media metadata and extracting mono audio.
package ffmpeg

import (
	"github.com/rs/zerolog"

	"github.com/Razzula/stagehand/internal/config"
	"github.com/Razzula/stagehand/internal/logging"
	"github.com/Razzula/stagehand/internal/process"
)

// Executor handles ffmpeg and ffprobe invocations.
type Executor struct {
	logger      zerolog.Logger
	spawner     process.Spawner
	ffmpegPath  string
	ffprobePath string
}

// New creates an executor that runs the configured binaries.
func New(logger zerolog.Logger, cfg config.FFmpegConfig) *Executor {
	return NewWithSpawner(logger, cfg, process.ExecSpawner{})
}

// NewWithSpawner creates an executor on top of an arbitrary spawner.
func NewWithSpawner(logger zerolog.Logger, cfg config.FFmpegConfig, s process.Spawner) *Executor {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := cfg.FFprobePath
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	return &Executor{
		logger:      logging.WithComponent(logger, "ffmpeg"),
		spawner:     s,
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}
