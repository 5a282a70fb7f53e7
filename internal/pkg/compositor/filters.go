package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/pfpframe/internal/entity"
)

// matrix is a 3×3 colour matrix over normalised sRGB channels, in the form
// used by the filter-effects grayscale/sepia/hue-rotate/saturate functions.
type matrix [3][3]float64

// transform is a chain of matrices. Channels are clamped to [0,1] after
// every step, the same way a chain of CSS filter functions behaves.
type transform []matrix

func grayscale() matrix {
	return matrix{
		{0.2126, 0.7152, 0.0722},
		{0.2126, 0.7152, 0.0722},
		{0.2126, 0.7152, 0.0722},
	}
}

func sepia() matrix {
	return matrix{
		{0.393, 0.769, 0.189},
		{0.349, 0.686, 0.168},
		{0.272, 0.534, 0.131},
	}
}

func hueRotate(deg float64) matrix {
	rad := deg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	return matrix{
		{0.213 + 0.787*c - 0.213*s, 0.715 - 0.715*c - 0.715*s, 0.072 - 0.072*c + 0.928*s},
		{0.213 - 0.213*c + 0.143*s, 0.715 + 0.285*c + 0.140*s, 0.072 - 0.072*c - 0.283*s},
		{0.213 - 0.213*c - 0.787*s, 0.715 - 0.715*c + 0.715*s, 0.072 + 0.928*c + 0.072*s},
	}
}

func saturate(v float64) matrix {
	return matrix{
		{0.213 + 0.787*v, 0.715 - 0.715*v, 0.072 - 0.072*v},
		{0.213 - 0.213*v, 0.715 + 0.285*v, 0.072 - 0.072*v},
		{0.213 - 0.213*v, 0.715 - 0.715*v, 0.072 + 0.928*v},
	}
}

// tint desaturates fully, warms to sepia and then rotates the hue onto the
// target colour.
func tint(deg, sat float64) transform {
	return transform{grayscale(), sepia(), hueRotate(deg), saturate(sat)}
}

var transforms = map[entity.Filter]transform{
	entity.FilterNone:  nil,
	entity.FilterRed:   tint(-50, 6),
	entity.FilterGreen: tint(50, 4),
	entity.FilterBlue:  tint(180, 4),
}

func (t transform) apply(c color.NRGBA) color.NRGBA {
	v := [3]float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
	for _, m := range t {
		var out [3]float64
		for i := 0; i < 3; i++ {
			out[i] = clamp(m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2])
		}
		v = out
	}
	return color.NRGBA{R: toByte(v[0]), G: toByte(v[1]), B: toByte(v[2]), A: c.A}
}

// ApplyFilter returns a filtered copy of img. Alpha is left untouched.
func ApplyFilter(img image.Image, f entity.Filter) (*image.NRGBA, error) {
	t, ok := transforms[f]
	if !ok {
		return nil, entity.ErrUnknownFilter
	}
	if len(t) == 0 {
		return imaging.Clone(img), nil
	}
	return imaging.AdjustFunc(img, t.apply), nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toByte(v float64) uint8 {
	return uint8(math.Round(v * 255))
}
