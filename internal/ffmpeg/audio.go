package ffmpeg

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Razzula/stagehand/internal/process"
)

// ExtractAudio decodes the audio track of path to mono 32-bit float samples
// at rate Hz. When wavPath is set the samples are also written there as a
// float WAV file.
func (e *Executor) ExtractAudio(ctx context.Context, path string, rate int, wavPath string) ([]float32, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", rate)
	}

	args := []string{
		"-nostdin",
		"-i", path,
		"-vn",
		"-ac", "1",
		"-f", "f32le",
		"-ar", strconv.Itoa(rate),
		"-ss", "0",
		"-",
	}

	e.logger.Debug().Str("path", path).Int("rate", rate).Msg("extracting audio")

	raw, err := process.Output(ctx, e.spawner, e.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("audio extraction failed for %s: %w", path, err)
	}

	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	if wavPath != "" {
		if err := os.MkdirAll(filepath.Dir(wavPath), 0755); err != nil {
			return nil, err
		}
		if err := WriteWAV(wavPath, samples, rate); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", wavPath, err)
		}
	}

	e.logger.Debug().Int("samples", len(samples)).Msg("audio extracted")
	return samples, nil
}

const wavFormatFloat = 3

type wavHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

// WriteWAV writes mono float samples as a 32-bit IEEE float WAV file.
func WriteWAV(path string, samples []float32, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := encodeWAV(w, samples, rate); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeWAV(w io.Writer, samples []float32, rate int) error {
	dataSize := uint32(len(samples) * 4)
	hdr := wavHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   wavFormatFloat,
		Channels:      1,
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate) * 4,
		BlockAlign:    4,
		BitsPerSample: 32,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}

	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, samples)
}
