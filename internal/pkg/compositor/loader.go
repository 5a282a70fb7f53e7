package compositor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/pfpframe/internal/entity"
)

const (
	defaultMaxBytes  = 20 << 20
	defaultMaxPixels = 40_000_000
)

type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

type httpLoader struct {
	client    *http.Client
	maxBytes  int64
	maxPixels int64
}

// NewHTTPLoader returns a Loader for http(s) and data: URLs. maxBytes caps
// the encoded payload and maxPixels the decoded width×height; zero means
// 20 MiB and 40 megapixels.
func NewHTTPLoader(client *http.Client, maxBytes, maxPixels int64) Loader {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	return &httpLoader{client: client, maxBytes: maxBytes, maxPixels: maxPixels}
}

func (l *httpLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if strings.HasPrefix(url, "data:") {
		payload, err := DecodeDataURL(url)
		if err != nil {
			return nil, err
		}
		if int64(len(payload)) > l.maxBytes {
			return nil, fmt.Errorf("image exceeds %d bytes", l.maxBytes)
		}
		return l.decode(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("get %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", l.maxBytes)
	}
	return l.decode(data)
}

// decode handles png, jpeg and gif (first frame) among the formats imaging
// registers. The header is checked against maxPixels before any pixel
// buffer is allocated.
func (l *httpLoader) decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > l.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", entity.ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeDataURL returns the payload of a base64 data URL.
func DecodeDataURL(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, entity.ErrInvalidDataURL
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, entity.ErrInvalidDataURL
	}
	out, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidDataURL, err)
	}
	return out, nil
}

// EncodeDataURL wraps a PNG payload into a data URL.
func EncodeDataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
