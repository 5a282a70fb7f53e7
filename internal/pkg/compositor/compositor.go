package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Result struct {
	PNG  []byte
	Size int
}

type Renderer interface {
	Render(ctx context.Context, req entity.RenderRequest) (*Result, error)
}

type renderer struct {
	loader Loader
}

func NewRenderer(loader Loader) Renderer {
	return &renderer{loader: loader}
}

func (r *renderer) Render(ctx context.Context, req entity.RenderRequest) (*Result, error) {
	var src, sticker image.Image

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := r.loader.Load(gctx, req.SourceURL)
		if err != nil {
			return fmt.Errorf("%w: %w", entity.ErrSourceLoad, err)
		}
		src = img
		return nil
	})
	if req.Sticker.Visible && req.Sticker.URL != "" {
		g.Go(func() error {
			img, err := r.loader.Load(gctx, req.Sticker.URL)
			if err != nil {
				return fmt.Errorf("%w: %w", entity.ErrStickerLoad, err)
			}
			sticker = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out, err := Compose(src, req.Filter, sticker, req.Sticker, req.ContainerSize)
	if err != nil {
		return nil, err
	}

	data, err := Encode(out)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"session": req.SessionID,
		"filter":  req.Filter,
		"size":    out.Bounds().Dx(),
		"sticker": sticker != nil,
		"bytes":   len(data),
	}).Debug("composite rendered")

	return &Result{PNG: data, Size: out.Bounds().Dx()}, nil
}

// Compose crops src to a centred square, applies the filter and draws the
// sticker on top when it is visible. The sticker may be nil.
func Compose(src image.Image, f entity.Filter, sticker image.Image, st entity.Sticker, containerSize float64) (*image.NRGBA, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, entity.ErrEmptyImage
	}

	cropped := imaging.Crop(src, CropRect(b.Dx(), b.Dy()).Add(b.Min))

	out, err := ApplyFilter(cropped, f)
	if err != nil {
		return nil, err
	}

	if !st.Visible || sticker == nil {
		return out, nil
	}

	rect, err := ScaleSticker(st, containerSize, out.Bounds().Dx())
	if err != nil {
		return nil, err
	}
	if rect.Empty() {
		return out, nil
	}

	resized := imaging.Resize(sticker, rect.Dx(), rect.Dy(), imaging.Lanczos)
	return imaging.Overlay(out, resized, rect.Min, 1.0), nil
}

// Encode serialises img as PNG.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
