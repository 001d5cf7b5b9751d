package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Razzula/stagehand/internal/process"
)

// InitResourceLimits raises the open file limit; every video prop holds a
// decoder pipe while it loads.
func InitResourceLimits(logger zerolog.Logger) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("could not read open file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("could not raise open file limit")
	} else {
		logger.Debug().Uint64("limit", uint64(rLimit.Cur)).Msg("open file limit raised")
	}
}

// FindLatestFile returns the most recently modified file in dir whose name
// ends with one of exts.
func FindLatestFile(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), dir)
	}

	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// GetBestH264Encoder picks a hardware encoder when ffmpeg reports one.
//
// Priority:
// 1. MacOS (VideoToolbox)
// 2. NVIDIA (NVENC)
// 3. Software (libx264)
func GetBestH264Encoder(ctx context.Context, s process.Spawner, ffmpegPath string) string {
	out, err := process.Output(ctx, s, ffmpegPath, "-hide_banner", "-encoders")
	if err != nil {
		return "libx264"
	}

	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}

	return "libx264"
}

// DefaultQuality is the quality used when none is configured.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // good quality for VideoToolbox
	case "h264_nvenc":
		return 28 // CRF equivalent for NVENC
	default:
		return 23 // standard x264 CRF
	}
}

// FrameBudget returns how many frames of frameBytes each may be held in
// memory at once, using fraction of the currently available memory. It
// never returns less than 1, and returns limit when memory cannot be read.
func FrameBudget(ctx context.Context, frameBytes int, fraction float64, limit int) int {
	if limit < 1 {
		limit = 1
	}
	if frameBytes <= 0 || fraction <= 0 {
		return limit
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil || vm.Available == 0 {
		return limit
	}

	n := int(float64(vm.Available) * fraction / float64(frameBytes))
	if n < 1 {
		return 1
	}
	if n > limit {
		return limit
	}
	return n
}
