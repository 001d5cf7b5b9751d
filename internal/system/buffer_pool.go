package system

import (
	"image"
	"sync"
)

// ImagePool reuses image.NRGBA buffers to take load off the garbage
// collector. Canvas buffers of a video render all share one size, so after
// the first few frames every canvas is recycled.
type ImagePool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

var globalPool = NewImagePool()

// GetImage returns a zeroed *image.NRGBA from the shared pool.
func GetImage(rect image.Rectangle) *image.NRGBA {
	return globalPool.Get(rect)
}

// PutImage returns img to the shared pool for reuse.
func PutImage(img *image.NRGBA) {
	globalPool.Put(img)
}

// Get returns a fully transparent image of the given bounds.
func (p *ImagePool) Get(rect image.Rectangle) *image.NRGBA {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewNRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	img := pool.Get().(*image.NRGBA)
	clear(img.Pix)
	return img
}

func (p *ImagePool) Put(img *image.NRGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
