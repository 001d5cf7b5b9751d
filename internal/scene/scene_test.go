package scene

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{
  "id": "intro",
  "fps": 25,
  "canvasSize": {"width": 4, "height": 2},
  "audio": "audio/voice.wav",
  "props": {
    "bg":   {"id": "bg", "propType": "colour", "compositeType": "paste", "colour": [255, 0, 0], "width": 4, "height": 2},
    "head": {"id": "head", "propType": "image", "compositeType": "overlay", "sprites": ["a.png", "b.png"]},
    "old":  {"propType": "bogus", "compositeType": "copy", "disabled": true}
  },
  "precompute": [
    {"id": "inner", "fps": 25, "canvasSize": {"width": 2, "height": 2}, "props": {}, "frames": []}
  ],
  "frames": [
    {"id": "frame_0", "props": [
      {"prop": "bg", "x": 0, "y": 0},
      {"id": "h", "prop": "head", "sprite": 1, "x": 3, "y": 1, "width": 2, "height": 2}
    ]}
  ]
}`

func TestDecode(t *testing.T) {
	sc, err := Decode([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "intro", sc.ID)
	assert.Equal(t, 25, sc.FPS)
	assert.Equal(t, CanvasSize{Width: 4, Height: 2}, sc.CanvasSize)
	assert.Equal(t, 32, sc.CanvasSize.Bytes())

	bg := sc.Props["bg"]
	require.NotNil(t, bg.Colour)
	assert.Equal(t, RGB{255, 0, 0}, *bg.Colour)
	assert.Equal(t, ModeCopy, bg.CompositeType.Normalize())

	require.Len(t, sc.Precompute, 1)
	require.Len(t, sc.Frames, 1)

	dirs := sc.Frames[0].Directions
	require.Len(t, dirs, 2)
	assert.Equal(t, 0, dirs[0].SpriteIndex())
	assert.Equal(t, 1, dirs[1].SpriteIndex())
	assert.Equal(t, 2, *dirs[1].Width)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{"id":`},
		{"zero canvas", `{"id":"s","canvasSize":{"width":0,"height":2}}`},
		{"unknown kind", `{"id":"s","canvasSize":{"width":1,"height":1},"props":{"p":{"propType":"audio","compositeType":"copy"}}}`},
		{"unknown mode", `{"id":"s","canvasSize":{"width":1,"height":1},"props":{"p":{"propType":"colour","compositeType":"multiply"}}}`},
		{"image without sprites", `{"id":"s","canvasSize":{"width":1,"height":1},"props":{"p":{"propType":"image","compositeType":"copy"}}}`},
		{"video without path", `{"id":"s","canvasSize":{"width":1,"height":1},"props":{"p":{"propType":"video","compositeType":"copy","sprites":[""]}}}`},
		{"qrcode without text", `{"id":"s","canvasSize":{"width":1,"height":1},"props":{"p":{"propType":"qrcode","compositeType":"copy"}}}`},
		{"direction without prop", `{"id":"s","canvasSize":{"width":1,"height":1},"frames":[{"id":"f","props":[{"x":0,"y":0}]}]}`},
		{"bad child", `{"id":"s","canvasSize":{"width":1,"height":1},"precompute":[{"id":"c","canvasSize":{"width":-1,"height":1}}]}`},
		{"anonymous child", `{"id":"s","canvasSize":{"width":1,"height":1},"precompute":[{"canvasSize":{"width":1,"height":1}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidScene), "got %v", err)
		})
	}
}

func TestDecodeYAML(t *testing.T) {
	sc, err := Decode([]byte(`
id: card
fps: 2
canvasSize: {width: 4, height: 2}
audio: voice.wav
props:
  bg:
    propType: colour
    compositeType: copy
    colour: [10, 20, 30]
frames:
  - id: f0
    props:
      - {prop: bg, x: 1, y: 0}
`))
	require.NoError(t, err)
	assert.Equal(t, "card", sc.ID)
	assert.Equal(t, CanvasSize{Width: 4, Height: 2}, sc.CanvasSize)
	assert.Equal(t, RGB{10, 20, 30}, *sc.Props["bg"].Colour)
	require.Len(t, sc.Frames, 1)
	assert.Equal(t, 1, sc.Frames[0].Directions[0].X)

	_, err = Decode([]byte("id: card\ncanvasSize: {width: 0, height: 2}\n"))
	require.ErrorIs(t, err, ErrInvalidScene)

	_, err = Decode([]byte("just a string"))
	require.ErrorIs(t, err, ErrInvalidScene)
}

func TestSceneWriteRead(t *testing.T) {
	sc, err := Decode([]byte(payload))
	require.NoError(t, err)

	for _, name := range []string{"scene.yaml", "scene.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteScene(sc, path))

			read, err := ReadScene(path)
			require.NoError(t, err)
			assert.Equal(t, sc.ID, read.ID)
			assert.Equal(t, sc.Frames, read.Frames)
			assert.Equal(t, *sc.Props["bg"].Colour, *read.Props["bg"].Colour)
		})
	}
}

func TestPropSize(t *testing.T) {
	p := Prop{Width: Int(10)}
	w, h := p.Size(1920, 1080)
	assert.Equal(t, 10, w)
	assert.Equal(t, 1080, h)
}
