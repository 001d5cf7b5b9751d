package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Razzula/stagehand/internal/process"
)

const (
	defaultProbeWidth      = 1920
	defaultProbeHeight     = 1080
	defaultAudioSampleRate = 48000
)

// VideoData is the technical metadata of a media file.
type VideoData struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	DurationSec     float64 `json:"durationSec"`
	AudioSampleRate int     `json:"audioSampleRate"`
	Datetime        string  `json:"datetime"`
	FPS             float64 `json:"fps"`
}

// Probe reads media metadata with ffprobe.
func (e *Executor) Probe(ctx context.Context, path string) (*VideoData, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	output, err := process.Output(ctx, e.spawner, e.ffprobePath, args...)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	data := &VideoData{
		Width:           defaultProbeWidth,
		Height:          defaultProbeHeight,
		AudioSampleRate: defaultAudioSampleRate,
		Datetime:        probe.Format.Tags["creation_time"],
	}

	duration := probe.Format.Duration
	if v := probe.stream("video"); v != nil {
		if v.Width > 0 {
			data.Width = v.Width
		}
		if v.Height > 0 {
			data.Height = v.Height
		}
		if v.Duration != "" {
			duration = v.Duration
		}

		rate := v.AvgFrameRate
		if rate == "" || rate == "0/0" {
			rate = v.RFrameRate
		}
		data.FPS = ParseFrameRate(rate)
	}
	data.DurationSec, _ = strconv.ParseFloat(duration, 64)

	if a := probe.stream("audio"); a != nil {
		if rate, err := strconv.Atoi(a.SampleRate); err == nil {
			data.AudioSampleRate = rate
		}
	}

	return data, nil
}

// ParseFrameRate parses "30000/1001" style rationals or bare decimals.
// Unparseable input and zero denominators yield 0.
func ParseFrameRate(s string) float64 {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			d = 1
		}
		if d == 0 {
			return 0
		}
		return n / d
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     string `json:"duration"`
	SampleRate   string `json:"sample_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
}

func (p *probeResult) stream(codecType string) *probeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == codecType {
			return &p.Streams[i]
		}
	}
	return nil
}
