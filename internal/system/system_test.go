package system

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Razzula/stagehand/internal/process/processtest"
)

func TestImagePoolReturnsZeroedImages(t *testing.T) {
	pool := NewImagePool()
	rect := image.Rect(0, 0, 4, 2)

	img := pool.Get(rect)
	require.Len(t, img.Pix, 4*2*4)
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	pool.Put(img)

	again := pool.Get(rect)
	assert.Equal(t, rect, again.Rect)
	for i, b := range again.Pix {
		if b != 0 {
			t.Fatalf("byte %d not cleared: %d", i, b)
		}
	}
}

func TestImagePoolIgnoresUnknownSizes(t *testing.T) {
	pool := NewImagePool()
	pool.Put(image.NewNRGBA(image.Rect(0, 0, 3, 3)))
	pool.Put(nil)

	assert.Empty(t, pool.pools)
}

func TestFindLatestFile(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.json", "b.yaml", "c.txt"}
	for i, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0644))
		mod := time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}

	latest, err := FindLatestFile(dir, ".json", ".yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.yaml"), latest)

	_, err = FindLatestFile(dir, ".mp4")
	assert.Error(t, err)
}

func TestGetBestH264Encoder(t *testing.T) {
	s := &processtest.Spawner{
		Respond: func(name string, args []string) processtest.Response {
			return processtest.Response{Stdout: []byte(" V....D h264_nvenc  NVIDIA NVENC H.264 encoder\n")}
		},
	}
	assert.Equal(t, "h264_nvenc", GetBestH264Encoder(context.Background(), s, "ffmpeg"))

	failing := &processtest.Spawner{
		Respond: func(string, []string) processtest.Response {
			return processtest.Response{ExitCode: 1}
		},
	}
	assert.Equal(t, "libx264", GetBestH264Encoder(context.Background(), failing, "ffmpeg"))
}

func TestDefaultQuality(t *testing.T) {
	assert.Equal(t, 75, DefaultQuality("h264_videotoolbox"))
	assert.Equal(t, 28, DefaultQuality("h264_nvenc"))
	assert.Equal(t, 23, DefaultQuality("libx264"))
}

func TestFrameBudget(t *testing.T) {
	ctx := context.Background()

	n := FrameBudget(ctx, 1920*1080*4, 0.25, 8)
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 8)

	assert.Equal(t, 1, FrameBudget(ctx, 1<<62, 0.25, 8))
	assert.Equal(t, 4, FrameBudget(ctx, 0, 0.25, 4))
	assert.Equal(t, 1, FrameBudget(ctx, 16, 0.25, 0))
}
