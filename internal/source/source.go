// Package source turns prop definitions into decoded RGBA sprites, one
// Source per prop kind.
package source

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/Razzula/stagehand/internal/scene"
)

// Source produces the sprites of one prop. frameCap bounds multi-frame
// sources; 0 means no bound.
type Source interface {
	Load(ctx context.Context, id string, def scene.Prop, frameCap int) ([]*image.NRGBA, error)
}

// FrameDecoder decodes a video file into frames of a fixed size.
type FrameDecoder interface {
	DecodeFrames(ctx context.Context, path string, w, h, maxFrames int) ([]*image.NRGBA, error)
}

// Options configures the built-in sources.
type Options struct {
	// Resolve maps sprite paths onto the filesystem.
	Resolve func(path string) string
	// DefaultWidth and DefaultHeight size video and colour props that do
	// not declare a size.
	DefaultWidth  int
	DefaultHeight int
	Decoder       FrameDecoder
}

// Registry dispatches prop definitions to the source for their kind.
type Registry struct {
	sources map[scene.PropKind]Source
}

// NewRegistry creates a registry holding every built-in source.
func NewRegistry(opts Options) *Registry {
	if opts.Resolve == nil {
		opts.Resolve = func(p string) string { return p }
	}
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = 1920
	}
	if opts.DefaultHeight <= 0 {
		opts.DefaultHeight = 1080
	}

	return &Registry{
		sources: map[scene.PropKind]Source{
			scene.KindImage:  &ImageSource{resolve: opts.Resolve},
			scene.KindVideo:  &VideoSource{resolve: opts.Resolve, decoder: opts.Decoder, defW: opts.DefaultWidth, defH: opts.DefaultHeight},
			scene.KindColour: &ColourSource{defW: opts.DefaultWidth, defH: opts.DefaultHeight},
			scene.KindPDF:    &FitzPDFSource{resolve: opts.Resolve},
			scene.KindQRCode: &QRCodeSource{},
		},
	}
}

// Register replaces the source used for kind.
func (r *Registry) Register(kind scene.PropKind, s Source) {
	r.sources[kind] = s
}

func (r *Registry) Load(ctx context.Context, id string, def scene.Prop, frameCap int) ([]*image.NRGBA, error) {
	s, ok := r.sources[def.PropType]
	if !ok {
		return nil, fmt.Errorf("%w: prop %s has unknown type %q", scene.ErrInvalidScene, id, def.PropType)
	}
	return s.Load(ctx, id, def, frameCap)
}

// ToNRGBA returns img as a tightly packed *image.NRGBA anchored at the
// origin, converting only when needed.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == b.Dx()*4 {
		return n
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// fitTo scales img to w×h when its size differs.
func fitTo(img *image.NRGBA, w, h int) *image.NRGBA {
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
