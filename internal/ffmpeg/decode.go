package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/Razzula/stagehand/internal/compositor"
	"github.com/Razzula/stagehand/internal/scene"
)

// DecodeFrames decodes the video at path into frames of exactly w×h pixels,
// in source order. With maxFrames > 0 decoding stops after that many frames
// and the decoder is killed. A trailing partial frame is dropped.
func (e *Executor) DecodeFrames(ctx context.Context, path string, w, h, maxFrames int) ([]*image.NRGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid decode size %dx%d for %s", w, h, path)
	}

	args := []string{
		"-nostdin",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-vf", fmt.Sprintf("scale=%d:%d", w, h),
		"-",
	}

	e.logger.Debug().
		Str("path", path).
		Int("width", w).
		Int("height", h).
		Int("max_frames", maxFrames).
		Msg("decoding video frames")

	proc, err := e.spawner.Spawn(ctx, e.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn decoder for %s: %w", path, err)
	}
	proc.Stdin().Close()

	canvas := scene.CanvasSize{Width: w, Height: h}
	frameSize := canvas.Bytes()
	stdout := proc.Stdout()

	var frames []*image.NRGBA
	for maxFrames <= 0 || len(frames) < maxFrames {
		buf := make([]byte, frameSize)
		if _, err := io.ReadFull(stdout, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			proc.Kill()
			proc.Wait()
			return nil, fmt.Errorf("failed to read frame %d of %s: %w", len(frames), path, err)
		}

		img, err := compositor.FromRaw(buf, canvas)
		if err != nil {
			proc.Kill()
			proc.Wait()
			return nil, fmt.Errorf("frame %d of %s: %w", len(frames), path, err)
		}
		frames = append(frames, img)
	}

	if maxFrames > 0 && len(frames) >= maxFrames {
		// the decoder may still be producing output
		proc.Kill()
		proc.Wait()
	} else if err := proc.Wait(); err != nil {
		return nil, fmt.Errorf("decoder failed for %s: %w", path, err)
	}

	e.logger.Debug().Str("path", path).Int("frames", len(frames)).Msg("video decoded")
	return frames, nil
}
