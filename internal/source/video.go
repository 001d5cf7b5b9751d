package source

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/Razzula/stagehand/internal/scene"
)

// VideoSource decodes a video prop into its frame sequence.
type VideoSource struct {
	resolve    func(string) string
	decoder    FrameDecoder
	defW, defH int
}

func (s *VideoSource) Load(ctx context.Context, id string, def scene.Prop, frameCap int) ([]*image.NRGBA, error) {
	if s.decoder == nil {
		return nil, errors.New("no video decoder configured")
	}
	if len(def.Sprites) == 0 {
		return nil, fmt.Errorf("%w: video prop %s has no source", scene.ErrInvalidScene, id)
	}

	w, h := def.Size(s.defW, s.defH)
	frames, err := s.decoder.DecodeFrames(ctx, s.resolve(def.Sprites[0]), w, h, frameCap)
	if err != nil {
		return nil, fmt.Errorf("failed to load video prop %s: %w", id, err)
	}
	return frames, nil
}

// ColourSource fills a single opaque sprite with the prop colour.
type ColourSource struct {
	defW, defH int
}

func (s *ColourSource) Load(ctx context.Context, id string, def scene.Prop, frameCap int) ([]*image.NRGBA, error) {
	if def.Colour == nil {
		return nil, fmt.Errorf("colour prop %s has no colour", id)
	}

	w, h := def.Size(s.defW, s.defH)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("colour prop %s has invalid size %dx%d", id, w, h)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	c := *def.Colour
	px := [4]byte{c[0], c[1], c[2], 0xff}
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], px[:])
	}
	return []*image.NRGBA{img}, nil
}
