package scene

import (
	"errors"
	"fmt"
)

// ErrInvalidScene marks structurally malformed scene input.
var ErrInvalidScene = errors.New("invalid scene")

// Validate checks the structure of the scene and its precompute children.
// Prop references are checked later, against the loaded prop table.
func (s *Scene) Validate() error {
	if s.CanvasSize.Width <= 0 || s.CanvasSize.Height <= 0 {
		return fmt.Errorf("%w %q: canvas size %dx%d must be positive",
			ErrInvalidScene, s.ID, s.CanvasSize.Width, s.CanvasSize.Height)
	}
	if s.FPS < 0 {
		return fmt.Errorf("%w %q: negative fps %d", ErrInvalidScene, s.ID, s.FPS)
	}

	for id, p := range s.Props {
		if p.Disabled {
			continue
		}
		if err := p.validate(); err != nil {
			return fmt.Errorf("%w %q: prop %s: %v", ErrInvalidScene, s.ID, id, err)
		}
	}

	for i, sc := range s.Frames {
		for j, d := range sc.Directions {
			if d.Prop == "" {
				return fmt.Errorf("%w %q: frame %d direction %d has no prop", ErrInvalidScene, s.ID, i, j)
			}
			if (d.Width != nil && *d.Width < 0) || (d.Height != nil && *d.Height < 0) {
				return fmt.Errorf("%w %q: frame %d direction %d has a negative size", ErrInvalidScene, s.ID, i, j)
			}
		}
	}

	for i := range s.Precompute {
		if s.Precompute[i].ID == "" {
			return fmt.Errorf("%w %q: precompute %d has no id", ErrInvalidScene, s.ID, i)
		}
		if err := s.Precompute[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (p Prop) validate() error {
	switch p.CompositeType.Normalize() {
	case ModeCopy, ModeOverlay:
	default:
		return fmt.Errorf("unknown composite type %q", p.CompositeType)
	}

	if (p.Width != nil && *p.Width <= 0) || (p.Height != nil && *p.Height <= 0) {
		return errors.New("declared size must be positive")
	}

	switch p.PropType {
	case KindImage:
		if len(p.Sprites) == 0 {
			return errors.New("image prop needs at least one sprite")
		}
	case KindVideo, KindPDF:
		if len(p.Sprites) == 0 || p.Sprites[0] == "" {
			return fmt.Errorf("%s prop needs a source path", p.PropType)
		}
	case KindColour:
		// a missing colour is reported when the prop is loaded
	case KindQRCode:
		if p.Text == "" {
			return errors.New("qrcode prop needs text")
		}
	default:
		return fmt.Errorf("unknown prop type %q", p.PropType)
	}

	return nil
}
