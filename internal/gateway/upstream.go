// Package gateway is the browser-facing proxy layer. It validates /api/*
// requests, forwards them to the FinTrack API with a bearer credential,
// and reshapes responses for the frontend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxUpstreamBody = 4 << 20

// Upstream calls the FinTrack API. Every call carries a bearer token: the
// client's session token when the browser sent one, else the configured
// service token. Requests time out so a hung upstream cannot hang the
// gateway handler.
type Upstream struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

func NewUpstream(baseURL, apiToken string, timeout time.Duration) *Upstream {
	return &Upstream{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		client:   &http.Client{Timeout: timeout},
	}
}

// Do sends one request upstream and returns the status and body.
func (u *Upstream) Do(ctx context.Context, method, path, sessionToken string, body any) (int, []byte, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal upstream request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.baseURL+path, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token := sessionToken
	if token == "" {
		token = u.apiToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("call upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read upstream response: %w", err)
	}
	return resp.StatusCode, data, nil
}
