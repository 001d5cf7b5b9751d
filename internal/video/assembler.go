package video

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FrameFunc renders frame i of a sequence.
type FrameFunc func(ctx context.Context, i int) (*image.NRGBA, error)

// Assembler renders a frame sequence concurrently and streams it to an
// encoder in order.
type Assembler struct {
	Encoder VideoEncoder
	// Lookahead bounds how many frames may be rendered ahead of the writer.
	Lookahead int
	// OnFrame, if set, is called by the writer after each frame.
	OnFrame func(done, total int)
	// Release, if set, receives each frame once it has been written.
	Release func(img *image.NRGBA)
	Logger  zerolog.Logger
}

// Stats reports where an Assemble call spent its time.
type Stats struct {
	Frames int
	Total  time.Duration
	// Encode is the time spent waiting for the encoder after the last frame.
	Encode time.Duration
}

// Assemble renders total frames with render and writes them, in index
// order, to a stream opened with params. It returns only after the encoder
// has exited.
func (a *Assembler) Assemble(ctx context.Context, params StreamParams, total int, render FrameFunc) (Stats, error) {
	start := time.Now()
	stats := Stats{Frames: total}

	stream, err := a.Encoder.Open(ctx, params)
	if err != nil {
		return stats, err
	}

	lookahead := a.Lookahead
	if lookahead < 1 {
		lookahead = 1
	}

	g, gctx := errgroup.WithContext(ctx)

	// A writer blocked in stdin.Write only returns once the encoder is gone,
	// so any failure elsewhere in the group aborts the stream.
	finished := make(chan struct{})
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case <-finished:
		case <-gctx.Done():
			select {
			case <-finished:
			default:
				stream.Abort()
			}
		}
	}()

	// writeFailed is set when the encoder stopped reading on its own. Its
	// exit status is then the real cause.
	writeFailed := false

	// Futures are queued in frame order, so the writer sees them in order
	// no matter which render finishes first.
	pending := make(chan chan *image.NRGBA, lookahead)

	g.Go(func() error {
		defer close(pending)
		for i := 0; i < total; i++ {
			fut := make(chan *image.NRGBA, 1)
			select {
			case pending <- fut:
			case <-gctx.Done():
				return gctx.Err()
			}

			g.Go(func() error {
				img, err := render(gctx, i)
				if err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
				fut <- img
				return nil
			})
		}
		return nil
	})

	g.Go(func() error {
		done := 0
		for fut := range pending {
			var img *image.NRGBA
			select {
			case img = <-fut:
			case <-gctx.Done():
				return gctx.Err()
			}

			if err := stream.WriteFrame(img); err != nil {
				writeFailed = gctx.Err() == nil
				return fmt.Errorf("frame %d: %w", done, err)
			}
			if a.Release != nil {
				a.Release(img)
			}

			done++
			a.Logger.Debug().Int("frame", done).Int("total", total).Msg("frame written")
			if a.OnFrame != nil {
				a.OnFrame(done, total)
			}
		}
		close(finished)
		return nil
	})

	err = g.Wait()
	<-watchDone
	if err != nil {
		if abortErr := stream.Abort(); abortErr != nil && writeFailed {
			return stats, fmt.Errorf("%w: %w", abortErr, err)
		}
		return stats, err
	}

	encodeStart := time.Now()
	if err := stream.Close(); err != nil {
		return stats, err
	}
	stats.Encode = time.Since(encodeStart)
	stats.Total = time.Since(start)

	return stats, nil
}
