package source

import (
	"context"
	"fmt"
	"image"

	"github.com/skip2/go-qrcode"

	"github.com/Razzula/stagehand/internal/scene"
)

const defaultQRSize = 256

// QRCodeSource encodes the prop text as a square QR code.
type QRCodeSource struct{}

func (QRCodeSource) Load(ctx context.Context, id string, def scene.Prop, frameCap int) ([]*image.NRGBA, error) {
	if def.Text == "" {
		return nil, fmt.Errorf("qrcode prop %s has no text", id)
	}

	size := defaultQRSize
	if def.Width != nil && *def.Width > 0 {
		size = *def.Width
	}

	q, err := qrcode.New(def.Text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qrcode prop %s: %w", id, err)
	}

	img := ToNRGBA(q.Image(size))
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		img = fitTo(img, size, size)
	}
	return []*image.NRGBA{img}, nil
}
