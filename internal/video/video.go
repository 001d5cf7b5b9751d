package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Razzula/stagehand/internal/process"
	"github.com/Razzula/stagehand/internal/system"
)

// StreamParams describes one encoded output file.
type StreamParams struct {
	Width  int
	Height int
	FPS    int
	// AudioPath is muxed as the second input when set.
	AudioPath  string
	OutputPath string
}

// Stream accepts raw frames for one output file.
type Stream interface {
	// WriteFrame writes one frame. Frames must be written in order.
	WriteFrame(img *image.NRGBA) error
	// Close ends the input and waits for the encoder to finish.
	Close() error
	// Abort stops the encoder without finishing the file and returns its
	// exit status. It is safe to call more than once.
	Abort() error
}

type VideoEncoder interface {
	Open(ctx context.Context, params StreamParams) (Stream, error)
}

// FFmpegEncoder streams raw RGBA frames into an ffmpeg subprocess.
type FFmpegEncoder struct {
	Spawner    process.Spawner
	FFmpegPath string
	// Encoder is the H.264 encoder name, e.g. libx264 or h264_nvenc.
	Encoder    string
	AudioCodec string
	// Quality of 0 uses the encoder's default.
	Quality int
	Logger  zerolog.Logger
}

func (e *FFmpegEncoder) Open(ctx context.Context, params StreamParams) (Stream, error) {
	if params.Width <= 0 || params.Height <= 0 || params.FPS <= 0 {
		return nil, fmt.Errorf("invalid stream %dx%d @ %d fps", params.Width, params.Height, params.FPS)
	}

	name := e.FFmpegPath
	if name == "" {
		name = "ffmpeg"
	}
	args := e.buildFFmpegArgs(params)

	e.Logger.Debug().
		Str("cmd", name).
		Strs("args", args).
		Msg("starting encoder")

	proc, err := e.Spawner.Spawn(ctx, name, args...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return &ffmpegStream{proc: proc, stdin: proc.Stdin()}, nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(params StreamParams) []string {
	encoderName := e.Encoder
	if encoderName == "" || encoderName == "auto" {
		encoderName = "libx264"
	}
	quality := e.Quality
	if quality <= 0 {
		quality = system.DefaultQuality(encoderName)
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
	}

	if params.AudioPath != "" {
		audioCodec := e.AudioCodec
		if audioCodec == "" {
			audioCodec = "copy"
		}
		args = append(args,
			"-i", params.AudioPath,
			"-map", "0:v",
			"-map", "1:a",
			"-c:a", audioCodec,
		)
	} else {
		args = append(args, "-map", "0:v")
	}

	args = append(args,
		"-c:v", encoderName,
		"-pix_fmt", "yuv420p",
	)

	// Quality flag depends on the encoder.
	switch encoderName {
	case "h264_videotoolbox":
		bitrate := quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}

	args = append(args, params.OutputPath)
	return args
}

type ffmpegStream struct {
	proc  process.Process
	stdin io.WriteCloser

	abortOnce sync.Once
	abortErr  error
}

func (s *ffmpegStream) WriteFrame(img *image.NRGBA) error {
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	return nil
}

func (s *ffmpegStream) Close() error {
	closeErr := s.stdin.Close()
	if err := s.proc.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("ffmpeg stdin close error: %w", closeErr)
	}
	return nil
}

func (s *ffmpegStream) Abort() error {
	s.abortOnce.Do(func() {
		// The pipe may already be broken and the child may already be gone.
		_ = s.stdin.Close()
		_ = s.proc.Kill()
		s.abortErr = s.proc.Wait()
	})
	return s.abortErr
}

// writeRawRGBA writes img as one tightly packed frame in a single Write.
func writeRawRGBA(w io.Writer, img *image.NRGBA) error {
	b := img.Bounds()
	rowBytes := b.Dx() * 4
	if img.Stride == rowBytes && b.Min == (image.Point{}) {
		_, err := w.Write(img.Pix[:rowBytes*b.Dy()])
		return err
	}

	buf := make([]byte, 0, rowBytes*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		o := img.PixOffset(b.Min.X, y)
		buf = append(buf, img.Pix[o:o+rowBytes]...)
	}
	_, err := w.Write(buf)
	return err
}
