package signer

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

const stateCompleted = "completed"

type SignedKeyRequest struct {
	Key        string `json:"key"`
	RequestFID uint64 `json:"requestFid"`
	Signature  string `json:"signature"`
	Deadline   int64  `json:"deadline"`
}

type SignedKeyRequestResult struct {
	Token       string `json:"token"`
	DeepLinkURL string `json:"deeplinkUrl"`
	State       string `json:"state"`
}

type signedKeyRequestEnvelope struct {
	Result struct {
		SignedKeyRequest SignedKeyRequestResult `json:"signedKeyRequest"`
	} `json:"result"`
}

// HubClient talks to the social network API that brokers signed key requests.
type HubClient struct {
	base string
	http *http.Client
}

func NewHubClient(base string, httpClient *http.Client) *HubClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HubClient{base: strings.TrimRight(base, "/"), http: httpClient}
}

func (c *HubClient) CreateSignedKeyRequest(ctx context.Context, req SignedKeyRequest) (*SignedKeyRequestResult, error) {
	var out signedKeyRequestEnvelope
	if err := doJSON(ctx, c.http, http.MethodPost, c.base+"/v2/signed-key-requests", req, &out); err != nil {
		return nil, err
	}
	res := out.Result.SignedKeyRequest
	if res.Token == "" || res.DeepLinkURL == "" {
		return nil, errors.New("signed key request response is missing token or deep link")
	}
	return &res, nil
}

func (c *HubClient) SignedKeyRequestState(ctx context.Context, token string) (string, error) {
	var out signedKeyRequestEnvelope
	u := c.base + "/v2/signed-key-request?token=" + url.QueryEscape(token)
	if err := doJSON(ctx, c.http, http.MethodGet, u, nil, &out); err != nil {
		return "", err
	}
	return out.Result.SignedKeyRequest.State, nil
}
