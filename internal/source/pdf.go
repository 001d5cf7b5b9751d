package source

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/Razzula/stagehand/internal/scene"
)

const defaultPDFDPI = 72

// FitzPDFSource renders every page of a PDF document as one sprite.
// Pages are scaled to the size of the first page.
type FitzPDFSource struct {
	resolve func(string) string
}

func (f *FitzPDFSource) Load(ctx context.Context, id string, def scene.Prop, frameCap int) ([]*image.NRGBA, error) {
	if len(def.Sprites) == 0 {
		return nil, fmt.Errorf("%w: pdf prop %s has no source", scene.ErrInvalidScene, id)
	}
	path := f.resolve(def.Sprites[0])

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s of prop %s: %w", path, id, err)
	}
	defer doc.Close()

	dpi := def.DPI
	if dpi <= 0 {
		dpi = defaultPDFDPI
	}

	n := doc.NumPage()
	if frameCap > 0 && n > frameCap {
		n = frameCap
	}

	pages := make([]*image.NRGBA, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d of %s: %w", i, path, err)
		}

		page := ToNRGBA(img)
		if len(pages) > 0 {
			first := pages[0].Bounds()
			page = fitTo(page, first.Dx(), first.Dy())
		}
		pages = append(pages, page)
	}

	return pages, nil
}
