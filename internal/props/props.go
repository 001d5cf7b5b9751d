// Package props loads prop definitions into render-ready sprite tables.
package props

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Razzula/stagehand/internal/scene"
	"github.com/Razzula/stagehand/internal/source"
)

// Loaded is a decoded prop. It is never mutated after loading.
type Loaded struct {
	ID      string
	Sprites []*image.NRGBA
	Kind    scene.PropKind
	Mode    scene.CompositeMode
	// Width and Height are the size of the first sprite.
	Width  int
	Height int
}

// Table maps prop ids to loaded props. It is read-only once built and is
// shared by every frame of a render.
type Table map[string]*Loaded

// NewLoaded builds a Loaded prop from already decoded sprites.
func NewLoaded(id string, kind scene.PropKind, mode scene.CompositeMode, sprites []*image.NRGBA) (*Loaded, error) {
	if len(sprites) == 0 {
		return nil, fmt.Errorf("prop %s loaded no sprites", id)
	}

	b := sprites[0].Bounds()
	return &Loaded{
		ID:      id,
		Sprites: sprites,
		Kind:    kind,
		Mode:    mode.Normalize(),
		Width:   b.Dx(),
		Height:  b.Dy(),
	}, nil
}

// Merge returns a new table holding base with overrides layered on top.
func Merge(base, overrides Table) Table {
	out := make(Table, len(base)+len(overrides))
	for id, p := range base {
		out[id] = p
	}
	for id, p := range overrides {
		out[id] = p
	}
	return out
}

// Loader loads prop definitions concurrently.
type Loader struct {
	Source  source.Source
	Workers int
	Logger  zerolog.Logger
}

// Load decodes every enabled prop in defs. frameCap bounds video and pdf
// props; 0 means unbounded. The first failure cancels the remaining loads.
func (l *Loader) Load(ctx context.Context, defs map[string]scene.Prop, frameCap int) (Table, error) {
	start := time.Now()

	ids := make([]string, 0, len(defs))
	for id, def := range defs {
		if def.Disabled {
			l.Logger.Debug().Str("prop", id).Msg("skipping disabled prop")
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	workers := l.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	loaded := make([]*Loaded, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		g.Go(func() error {
			def := defs[id]
			sprites, err := l.Source.Load(gctx, id, def, frameCap)
			if err != nil {
				return err
			}

			p, err := NewLoaded(id, def.PropType, def.CompositeType, sprites)
			if err != nil {
				return err
			}
			loaded[i] = p

			l.Logger.Debug().
				Str("prop", id).
				Str("kind", string(def.PropType)).
				Int("sprites", len(sprites)).
				Int("width", p.Width).
				Int("height", p.Height).
				Msg("prop loaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := make(Table, len(loaded))
	for _, p := range loaded {
		table[p.ID] = p
	}

	l.Logger.Debug().
		Int("props", len(table)).
		Dur("elapsed", time.Since(start)).
		Msg("props loaded")
	return table, nil
}
