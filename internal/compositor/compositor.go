// Package compositor paints frame scripts onto RGBA canvases.
package compositor

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/Razzula/stagehand/internal/config"
	"github.com/Razzula/stagehand/internal/props"
	"github.com/Razzula/stagehand/internal/scene"
	"github.com/Razzula/stagehand/internal/system"
)

var (
	// ErrPropNotFound is returned when a direction names a prop that is not
	// in the table.
	ErrPropNotFound = errors.New("prop not found")
	// ErrDimensionMismatch is returned when a raw buffer does not hold a
	// frame of the requested canvas size.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Options configures a Compositor.
type Options struct {
	// IndexPolicy is config.IndexPolicyClamp or config.IndexPolicyStrict.
	IndexPolicy string
	// Resample is config.ResampleNone or config.ResampleNearest.
	Resample string
	// Pool recycles canvases. Nil uses the shared pool.
	Pool *system.ImagePool
}

// Compositor paints frame scripts. It holds no per-frame state and is safe
// for concurrent use.
type Compositor struct {
	strict   bool
	resample bool
	pool     *system.ImagePool
}

func New(opts Options) *Compositor {
	c := &Compositor{
		strict:   opts.IndexPolicy == config.IndexPolicyStrict,
		resample: opts.Resample == config.ResampleNearest,
		pool:     opts.Pool,
	}
	return c
}

// Composite paints every direction of script, in order, onto a blank canvas.
// A missing prop aborts the whole frame.
func (c *Compositor) Composite(script scene.Script, table props.Table, canvas scene.CanvasSize) (*image.NRGBA, error) {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d", scene.ErrInvalidScene, canvas.Width, canvas.Height)
	}

	dst := c.get(image.Rect(0, 0, canvas.Width, canvas.Height))

	for _, d := range script.Directions {
		if err := c.paint(dst, d, table); err != nil {
			c.Release(dst)
			return nil, fmt.Errorf("frame %s: %w", script.ID, err)
		}
	}

	return dst, nil
}

// Release hands a canvas back for reuse. The caller must not touch it again.
func (c *Compositor) Release(img *image.NRGBA) {
	if c.pool != nil {
		c.pool.Put(img)
		return
	}
	system.PutImage(img)
}

func (c *Compositor) get(rect image.Rectangle) *image.NRGBA {
	if c.pool != nil {
		return c.pool.Get(rect)
	}
	return system.GetImage(rect)
}

func (c *Compositor) paint(dst *image.NRGBA, d scene.StageDirection, table props.Table) error {
	p, ok := table[d.Prop]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPropNotFound, d.Prop)
	}

	w, h := p.Width, p.Height
	if d.Width != nil {
		w = *d.Width
	}
	if d.Height != nil {
		h = *d.Height
	}

	x := Clamp(d.X, dst.Rect.Dx(), w)
	y := Clamp(d.Y, dst.Rect.Dy(), h)

	sprite, err := c.sprite(p, d.SpriteIndex())
	if err != nil {
		return err
	}

	if c.resample && (d.Width != nil || d.Height != nil) && w > 0 && h > 0 {
		sprite = scaleNearest(sprite, w, h)
	}

	switch p.Mode {
	case scene.ModeOverlay:
		overlay(dst, sprite, x, y)
	default:
		copyRect(dst, sprite, x, y)
	}
	return nil
}

// sprite resolves a sprite index. Video props clamp to their last frame
// unless the strict policy is set.
func (c *Compositor) sprite(p *props.Loaded, idx int) (*image.NRGBA, error) {
	n := len(p.Sprites)
	if n == 0 {
		return nil, fmt.Errorf("prop %s has no sprites", p.ID)
	}
	if idx < n {
		return p.Sprites[idx], nil
	}
	if p.Kind == scene.KindVideo && !c.strict {
		return p.Sprites[n-1], nil
	}
	return nil, fmt.Errorf("sprite %d out of range for prop %s with %d sprites", idx, p.ID, n)
}

// Clamp pins a position so that size fits inside limit. Negative positions
// saturate to 0, as does an item larger than the limit.
func Clamp(pos, limit, size int) int {
	maxPos := limit - size
	if maxPos < 0 {
		maxPos = 0
	}
	if pos > maxPos {
		pos = maxPos
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

func scaleNearest(src *image.NRGBA, w, h int) *image.NRGBA {
	if src.Rect.Dx() == w && src.Rect.Dy() == h {
		return src
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst
}

// FromRaw wraps a raw RGBA buffer as an image of the canvas size.
func FromRaw(buf []byte, canvas scene.CanvasSize) (*image.NRGBA, error) {
	if canvas.Width <= 0 || canvas.Height <= 0 || len(buf) != canvas.Bytes() {
		return nil, fmt.Errorf("%w: %d bytes for a %dx%d canvas",
			ErrDimensionMismatch, len(buf), canvas.Width, canvas.Height)
	}
	return &image.NRGBA{
		Pix:    buf,
		Stride: canvas.Width * 4,
		Rect:   image.Rect(0, 0, canvas.Width, canvas.Height),
	}, nil
}
