package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Razzula/stagehand/internal/config"
	"github.com/Razzula/stagehand/internal/process/processtest"
	"github.com/Razzula/stagehand/internal/scene"
)

const sceneJSON = `{
  "id": "card",
  "fps": 1,
  "canvasSize": {"width": 2, "height": 2},
  "audio": "voice.wav",
  "props": {"bg": {"propType": "colour", "compositeType": "copy", "colour": [0, 128, 255], "width": 2, "height": 2}},
  "frames": [{"id": "f0", "props": [{"prop": "bg", "x": 0, "y": 0}]}]
}`

func testApp(t *testing.T, s *processtest.Spawner) *app {
	cfg := config.Default()
	cfg.SceneDir = t.TempDir()
	cfg.OutputDir = t.TempDir()
	return newApp(cfg, zerolog.Nop(), s)
}

func TestLoadSceneFromStdin(t *testing.T) {
	a := testApp(t, &processtest.Spawner{})

	sc, err := a.loadScene([]string{"-"}, strings.NewReader(sceneJSON))
	require.NoError(t, err)
	assert.Equal(t, "card", sc.ID)
}

func TestLoadSceneLatest(t *testing.T) {
	a := testApp(t, &processtest.Spawner{})

	_, err := a.loadScene(nil, nil)
	require.Error(t, err)

	older := filepath.Join(a.cfg.SceneDir, "older.json")
	newer := filepath.Join(a.cfg.SceneDir, "newer.json")
	require.NoError(t, os.WriteFile(older, []byte(`{"id":"old","canvasSize":{"width":1,"height":1}}`), 0644))
	require.NoError(t, os.WriteFile(newer, []byte(sceneJSON), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	sc, err := a.loadScene(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "card", sc.ID)
}

func TestRendererDetectsEncoder(t *testing.T) {
	s := &processtest.Spawner{
		Respond: func(name string, args []string) processtest.Response {
			if len(args) > 0 && args[len(args)-1] == "-encoders" {
				return processtest.Response{Stdout: []byte(" V..... h264_nvenc   NVIDIA NVENC\n")}
			}
			return processtest.Response{}
		},
	}
	a := testApp(t, s)
	a.cfg.FFmpeg.VideoEncoder = "auto"

	sc, err := a.loadScene([]string{"-"}, strings.NewReader(sceneJSON))
	require.NoError(t, err)

	out, err := a.renderer(context.Background()).RenderVideo(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, "card.mp4", filepath.Base(out))

	procs := s.Processes()
	require.Len(t, procs, 2)
	assert.Contains(t, procs[1].Args, "h264_nvenc")
	assert.Len(t, procs[1].Writes(), 1)
}

func TestLoadSceneYAMLFromStdin(t *testing.T) {
	a := testApp(t, &processtest.Spawner{})

	sc, err := a.loadScene([]string{"-"}, strings.NewReader("id: card\ncanvasSize: {width: 2, height: 2}\n"))
	require.NoError(t, err)
	assert.Equal(t, "card", sc.ID)
}

func TestCheckSceneConvertsFormat(t *testing.T) {
	a := testApp(t, &processtest.Spawner{})
	out := filepath.Join(t.TempDir(), "card.yaml")

	var summary bytes.Buffer
	require.NoError(t, a.checkScene([]string{"-"}, strings.NewReader(sceneJSON), out, &summary))
	assert.Equal(t, "card: 2x2 @ 1 fps, 1 props, 1 frames, 0 precompute\n", summary.String())

	sc, err := scene.ReadScene(out)
	require.NoError(t, err)
	assert.Equal(t, "card", sc.ID)
	assert.Equal(t, "voice.wav", sc.Audio)
}

func TestWriteConfig(t *testing.T) {
	a := testApp(t, &processtest.Spawner{})
	a.cfg.Workers = 7

	var printed bytes.Buffer
	require.NoError(t, a.writeConfig("", &printed))
	assert.Contains(t, printed.String(), "workers: 7")

	path := filepath.Join(t.TempDir(), "stagehand.yaml")
	require.NoError(t, a.writeConfig(path, nil))
	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Workers)
}
