package source

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Razzula/stagehand/internal/scene"
)

// ImageSource decodes every sprite path of an image prop.
type ImageSource struct {
	resolve func(string) string
}

func (s *ImageSource) Load(ctx context.Context, id string, def scene.Prop, frameCap int) ([]*image.NRGBA, error) {
	sprites := make([]*image.NRGBA, 0, len(def.Sprites))
	for _, p := range def.Sprites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := decodeFile(s.resolve(p))
		if err != nil {
			return nil, fmt.Errorf("failed to load sprite %s of prop %s: %w", p, id, err)
		}
		sprites = append(sprites, img)
	}

	if len(sprites) > 1 {
		w, h := sprites[0].Bounds().Dx(), sprites[0].Bounds().Dy()
		for i, sp := range sprites[1:] {
			if sp.Bounds().Dx() != w || sp.Bounds().Dy() != h {
				return nil, fmt.Errorf("sprite %s of prop %s is %dx%d, expected %dx%d",
					def.Sprites[i+1], id, sp.Bounds().Dx(), sp.Bounds().Dy(), w, h)
			}
		}
	}

	return sprites, nil
}

func decodeFile(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return ToNRGBA(img), nil
}
