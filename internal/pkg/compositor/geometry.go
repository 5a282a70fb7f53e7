package compositor

import (
	"image"
	"math"

	"github.com/ds124wfegd/pfpframe/internal/entity"
)

// CropRect returns the centred square that a "cover" fit of a w×h image
// into a square box would show. The longer side is cropped.
func CropRect(w, h int) image.Rectangle {
	if w > h {
		off := (w - h) / 2
		return image.Rect(off, 0, off+h, h)
	}
	off := (h - w) / 2
	return image.Rect(0, off, w, off+w)
}

// maxStickerScale bounds each scaled sticker coordinate to this many canvas
// sides.
const maxStickerScale = 4

// ScaleSticker maps a sticker rectangle positioned inside a displayed box of
// width containerSize onto a square canvas of the given side.
func ScaleSticker(st entity.Sticker, containerSize float64, side int) (image.Rectangle, error) {
	if containerSize <= 0 {
		return image.Rectangle{}, entity.ErrInvalidContainerSize
	}
	k := float64(side) / containerSize
	limit := float64(maxStickerScale * side)

	var scaled [4]int
	for i, v := range [4]float64{st.X, st.Y, st.Width, st.Height} {
		v = math.Round(v * k)
		if math.IsNaN(v) || math.Abs(v) > limit {
			return image.Rectangle{}, entity.ErrInvalidSticker
		}
		scaled[i] = int(v)
	}

	x, y, w, h := scaled[0], scaled[1], scaled[2], scaled[3]
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, nil
	}
	return image.Rect(x, y, x+w, y+h), nil
}
