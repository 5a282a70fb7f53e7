package signer

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client talks to the signer service that issues key signatures and
// changes profile pictures on the user's behalf.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}
}

func (c *Client) Signature(ctx context.Context, key string, deadline int64) (string, error) {
	q := url.Values{}
	q.Set("key", key)
	q.Set("deadline", strconv.FormatInt(deadline, 10))

	var out struct {
		Signature string `json:"signature"`
	}
	if err := doJSON(ctx, c.http, http.MethodGet, c.base+"/signature?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	if out.Signature == "" {
		return "", errors.New("signer returned an empty signature")
	}
	return out.Signature, nil
}

func (c *Client) ChangePFP(ctx context.Context, privateKey, pfpURL string, fid uint64) error {
	in := struct {
		PrivateKey string `json:"privateKey"`
		PFP        string `json:"pfp"`
		FID        uint64 `json:"fid"`
	}{PrivateKey: privateKey, PFP: pfpURL, FID: fid}

	return doJSON(ctx, c.http, http.MethodPost, c.base+"/change-pfp", in, nil)
}
