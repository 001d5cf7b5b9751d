package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/Razzula/stagehand/internal/config"
	"github.com/Razzula/stagehand/internal/engine"
	"github.com/Razzula/stagehand/internal/ffmpeg"
	"github.com/Razzula/stagehand/internal/logging"
	"github.com/Razzula/stagehand/internal/process"
	"github.com/Razzula/stagehand/internal/scene"
	"github.com/Razzula/stagehand/internal/source"
	"github.com/Razzula/stagehand/internal/system"
	"github.com/Razzula/stagehand/internal/video"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	spawner process.Spawner
	ffmpeg  *ffmpeg.Executor
}

func newApp(cfg *config.Config, logger zerolog.Logger, s process.Spawner) *app {
	return &app{
		cfg:     cfg,
		logger:  logger,
		spawner: s,
		ffmpeg:  ffmpeg.NewWithSpawner(logger, cfg.FFmpeg, s),
	}
}

// renderer wires the prop sources and the encoder into a Renderer.
func (a *app) renderer(ctx context.Context) *engine.Renderer {
	reg := source.NewRegistry(source.Options{
		Resolve:       a.cfg.ResolveAsset,
		DefaultWidth:  a.cfg.Render.DefaultWidth,
		DefaultHeight: a.cfg.Render.DefaultHeight,
		Decoder:       a.ffmpeg,
	})

	encoderName := a.cfg.FFmpeg.VideoEncoder
	if encoderName == "" || encoderName == "auto" {
		encoderName = system.GetBestH264Encoder(ctx, a.spawner, a.cfg.FFmpeg.FFmpegPath)
		if encoderName != "libx264" {
			a.logger.Info().Str("encoder", encoderName).Msg("hardware encoder detected")
		}
	}

	enc := &video.FFmpegEncoder{
		Spawner:    a.spawner,
		FFmpegPath: a.cfg.FFmpeg.FFmpegPath,
		Encoder:    encoderName,
		AudioCodec: a.cfg.FFmpeg.AudioCodec,
		Quality:    a.cfg.FFmpeg.Quality,
		Logger:     logging.WithComponent(a.logger, "encoder"),
	}

	return engine.NewRenderer(a.cfg, a.logger, reg, enc)
}

// loadScene reads the scene named by args, "-" for stdin, or the newest
// scene file in the scene directory when args is empty.
func (a *app) loadScene(args []string, stdin io.Reader) (*scene.Scene, error) {
	if len(args) > 0 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read scene from stdin: %w", err)
		}
		return scene.Decode(data)
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		latest, err := system.FindLatestFile(a.cfg.SceneDir, ".json", ".yaml", ".yml")
		if err != nil {
			return nil, err
		}
		path = latest
		a.logger.Info().Str("scene", path).Msg("using latest scene")
	}

	return scene.ReadScene(path)
}

// checkScene validates a scene, prints a summary to w and, when out is set,
// writes the scene there in the format its extension names.
func (a *app) checkScene(args []string, stdin io.Reader, out string, w io.Writer) error {
	sc, err := a.loadScene(args, stdin)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %dx%d @ %d fps, %d props, %d frames, %d precompute\n",
		sc.ID, sc.CanvasSize.Width, sc.CanvasSize.Height, sc.FPS,
		len(sc.Props), len(sc.Frames), len(sc.Precompute))
	if sc.Audio == "" && !a.cfg.Render.AllowSilent {
		fmt.Fprintln(w, "warning: no audio, video renders will be rejected")
	}

	if out == "" {
		return nil
	}
	if err := scene.WriteScene(sc, out); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	a.logger.Info().Str("scene", sc.ID).Str("path", out).Msg("scene written")
	return nil
}

// writeConfig saves the effective configuration to path, or prints it to w.
func (a *app) writeConfig(path string, w io.Writer) error {
	if path == "" {
		return a.cfg.Encode(w)
	}
	if err := a.cfg.Save(path); err != nil {
		return err
	}
	a.logger.Info().Str("path", path).Msg("config saved")
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
