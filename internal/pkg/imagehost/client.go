package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ds124wfegd/pfpframe/internal/entity"
)

type Uploader interface {
	// Upload hosts a data URL and returns the public URL of the image.
	Upload(ctx context.Context, dataURL string) (string, error)
}

type client struct {
	base string
	ext  string
	http *http.Client
}

// NewClient returns an Uploader for an image host that accepts
// POST /upload {"data": <data url>} and answers {"hash": ...}.
func NewClient(base string, httpClient *http.Client) Uploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &client{base: strings.TrimRight(base, "/"), ext: "png", http: httpClient}
}

func (c *client) Upload(ctx context.Context, dataURL string) (string, error) {
	body, err := json.Marshal(struct {
		Data string `json:"data"`
	}{Data: dataURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/upload", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("image host upload: %s: %w", resp.Status, entity.ErrUnexpectedStatus)
	}

	var out struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.Hash == "" {
		return "", entity.ErrUploadNoHash
	}
	return ImageURL(c.base, out.Hash, c.ext), nil
}

// ImageURL builds the retrievable address of an uploaded image.
func ImageURL(base, hash, ext string) string {
	return strings.TrimRight(base, "/") + "/" + hash + "." + ext
}
