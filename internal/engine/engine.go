// Package engine renders scenes into stills and videos.
package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Razzula/stagehand/internal/compositor"
	"github.com/Razzula/stagehand/internal/config"
	"github.com/Razzula/stagehand/internal/logging"
	"github.com/Razzula/stagehand/internal/props"
	"github.com/Razzula/stagehand/internal/scene"
	"github.com/Razzula/stagehand/internal/source"
	"github.com/Razzula/stagehand/internal/system"
	"github.com/Razzula/stagehand/internal/video"
)

// Renderer turns scenes into PNG stills or encoded videos.
type Renderer struct {
	Config     *config.Config
	Loader     *props.Loader
	Compositor *compositor.Compositor
	Encoder    video.VideoEncoder
	// OnFrame, if set, is called after each video frame is written.
	OnFrame func(done, total int)
	// Report receives the performance report when Config.ShowStats is set.
	Report io.Writer

	logger zerolog.Logger
}

func NewRenderer(cfg *config.Config, logger zerolog.Logger, src source.Source, enc video.VideoEncoder) *Renderer {
	logger = logging.WithComponent(logger, "engine")
	return &Renderer{
		Config: cfg,
		Loader: &props.Loader{Source: src, Workers: cfg.Workers, Logger: logger},
		Compositor: compositor.New(compositor.Options{
			IndexPolicy: cfg.Render.SpriteIndexPolicy,
			Resample:    cfg.Render.Resample,
		}),
		Encoder: enc,
		Report:  os.Stderr,
		logger:  logger,
	}
}

// RenderStill composites frame index of sc and returns it PNG-encoded.
// Multi-frame props are bounded by the still frame cap.
func (r *Renderer) RenderStill(ctx context.Context, sc *scene.Scene, index int) ([]byte, error) {
	if index < 0 || index >= len(sc.Frames) {
		return nil, fmt.Errorf("%w %q: frame %d out of range (%d frames)", scene.ErrInvalidScene, sc.ID, index, len(sc.Frames))
	}

	table, err := r.LoadTable(ctx, sc, r.Config.Render.StillFrameCap)
	if err != nil {
		return nil, err
	}

	img, err := r.Compositor.Composite(sc.Frames[index], table, sc.CanvasSize)
	if err != nil {
		return nil, err
	}
	defer r.Compositor.Release(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderFrame renders a still as a base64 PNG data URL.
func (r *Renderer) RenderFrame(ctx context.Context, sc *scene.Scene, index int) (string, error) {
	data, err := r.RenderStill(ctx, sc, index)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// RenderVideo encodes every frame of sc into <OutputDir>/<id>.mp4 and returns
// the absolute path once the encoder has exited.
func (r *Renderer) RenderVideo(ctx context.Context, sc *scene.Scene) (string, error) {
	startTime := time.Now()

	if sc.FPS <= 0 {
		return "", fmt.Errorf("%w %q: fps must be positive for video", scene.ErrInvalidScene, sc.ID)
	}
	if sc.ID == "" {
		return "", fmt.Errorf("%w: video scenes need an id", scene.ErrInvalidScene)
	}

	if sc.Audio == "" && !r.Config.Render.AllowSilent {
		return "", fmt.Errorf("%w %q: no audio track provided", scene.ErrInvalidScene, sc.ID)
	}

	outputPath, err := filepath.Abs(filepath.Join(r.Config.OutputDir, sc.ID+".mp4"))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", err
	}

	table, err := r.LoadTable(ctx, sc, 0)
	if err != nil {
		return "", err
	}
	loadTime := time.Since(startTime)

	audioPath := ""
	if sc.Audio != "" {
		audioPath = r.Config.ResolveAsset(sc.Audio)
	} else {
		r.logger.Warn().Str("scene", sc.ID).Msg("scene has no audio, writing a video-only file")
	}

	lookahead := r.Config.Lookahead
	if lookahead <= 0 {
		lookahead = r.workers()
	}
	lookahead = system.FrameBudget(ctx, sc.CanvasSize.Bytes(), r.Config.MemoryFraction, lookahead)

	r.logger.Info().
		Str("scene", sc.ID).
		Int("frames", len(sc.Frames)).
		Int("width", sc.CanvasSize.Width).
		Int("height", sc.CanvasSize.Height).
		Int("fps", sc.FPS).
		Int("lookahead", lookahead).
		Msg("rendering video")

	asm := &video.Assembler{
		Encoder:   r.Encoder,
		Lookahead: lookahead,
		OnFrame:   r.OnFrame,
		Release:   r.Compositor.Release,
		Logger:    r.logger,
	}
	params := video.StreamParams{
		Width:      sc.CanvasSize.Width,
		Height:     sc.CanvasSize.Height,
		FPS:        sc.FPS,
		AudioPath:  audioPath,
		OutputPath: outputPath,
	}

	stats, err := asm.Assemble(ctx, params, len(sc.Frames), func(ctx context.Context, i int) (*image.NRGBA, error) {
		return r.Compositor.Composite(sc.Frames[i], table, sc.CanvasSize)
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", sc.ID, err)
	}

	if r.Config.ShowStats {
		r.showStats(sc, loadTime, stats, time.Since(startTime))
	}

	r.logger.Info().Str("output", outputPath).Msg("video rendered")
	return outputPath, nil
}

// LoadTable loads the props of sc and renders its precompute children into
// synthetic copy-mode image props. Children override base props with the
// same id.
func (r *Renderer) LoadTable(ctx context.Context, sc *scene.Scene, frameCap int) (props.Table, error) {
	return r.loadTable(ctx, sc, frameCap, 0)
}

func (r *Renderer) loadTable(ctx context.Context, sc *scene.Scene, frameCap, depth int) (props.Table, error) {
	if limit := r.Config.Render.MaxPrecomputeDepth; limit > 0 && depth > limit {
		return nil, fmt.Errorf("%w %q: precompute nested deeper than %d", scene.ErrInvalidScene, sc.ID, limit)
	}

	base, err := r.Loader.Load(ctx, sc.Props, frameCap)
	if err != nil {
		return nil, err
	}
	if len(sc.Precompute) == 0 {
		return base, nil
	}

	children := make(props.Table, len(sc.Precompute))
	for i := range sc.Precompute {
		child := &sc.Precompute[i]
		r.logger.Debug().Str("scene", sc.ID).Str("child", child.ID).Int("depth", depth+1).Msg("precomputing")

		frames, err := r.renderSequence(ctx, child, frameCap, depth+1)
		if err != nil {
			return nil, fmt.Errorf("precompute %s: %w", child.ID, err)
		}

		p, err := props.NewLoaded(child.ID, scene.KindImage, scene.ModeCopy, frames)
		if err != nil {
			return nil, fmt.Errorf("precompute %s: %w", child.ID, err)
		}
		children[child.ID] = p
	}

	return props.Merge(base, children), nil
}

// renderSequence composites every frame of sc. The frames are kept as
// sprites, so they never go back to the canvas pool.
func (r *Renderer) renderSequence(ctx context.Context, sc *scene.Scene, frameCap, depth int) ([]*image.NRGBA, error) {
	table, err := r.loadTable(ctx, sc, frameCap, depth)
	if err != nil {
		return nil, err
	}

	frames := make([]*image.NRGBA, len(sc.Frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i := range sc.Frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := r.Compositor.Composite(sc.Frames[i], table, sc.CanvasSize)
			if err != nil {
				return err
			}
			frames[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func (r *Renderer) workers() int {
	if r.Config.Workers > 0 {
		return r.Config.Workers
	}
	return runtime.NumCPU()
}
