package compositor

import "image"

// span returns the part of src that lands inside dst at (x, y).
func span(dst, src *image.NRGBA, x, y int) (w, h int) {
	w = min(src.Rect.Dx(), dst.Rect.Dx()-x)
	h = min(src.Rect.Dy(), dst.Rect.Dy()-y)
	return max(w, 0), max(h, 0)
}

// copyRect overwrites dst with src at (x, y), alpha included, one row at a
// time. Rows are clipped to dst.
func copyRect(dst, src *image.NRGBA, x, y int) {
	w, h := span(dst, src, x, y)
	if w == 0 || h == 0 {
		return
	}

	n := w * 4
	for row := 0; row < h; row++ {
		so := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+row)
		do := dst.PixOffset(x, y+row)
		copy(dst.Pix[do:do+n], src.Pix[so:so+n])
	}
}

// overlay blends src over dst at (x, y) using straight alpha. Fully
// transparent source pixels leave dst untouched and fully opaque ones
// replace it.
func overlay(dst, src *image.NRGBA, x, y int) {
	w, h := span(dst, src, x, y)
	if w == 0 || h == 0 {
		return
	}

	for row := 0; row < h; row++ {
		so := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+row)
		do := dst.PixOffset(x, y+row)
		s := src.Pix[so : so+w*4 : so+w*4]
		d := dst.Pix[do : do+w*4 : do+w*4]

		for i := 0; i < len(s); i += 4 {
			sa := uint32(s[i+3])
			switch sa {
			case 0:
				continue
			case 0xff:
				copy(d[i:i+4], s[i:i+4])
				continue
			}

			da := uint32(d[i+3])
			daw := (da*(0xff-sa) + 0x7f) / 0xff
			outA := sa + daw
			half := outA / 2
			d[i+0] = uint8((uint32(s[i+0])*sa + uint32(d[i+0])*daw + half) / outA)
			d[i+1] = uint8((uint32(s[i+1])*sa + uint32(d[i+1])*daw + half) / outA)
			d[i+2] = uint8((uint32(s[i+2])*sa + uint32(d[i+2])*daw + half) / outA)
			d[i+3] = uint8(outA)
		}
	}
}
