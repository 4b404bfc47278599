package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
)

const maxBodySize = 1 << 20

// Response is a decoded backend answer.
type Response struct {
	StatusCode int
	Data       json.RawMessage
	Message    string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err converts a non-2xx response into *types.APIError.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &types.APIError{StatusCode: r.StatusCode, Message: r.Message}
}

// Client talks to the REST backend. It knows nothing about sessions, the
// access token is passed per call.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Do sends body as JSON and decodes the {data, error, message} envelope.
// Transport failures are returned as errors, HTTP failures are left in the Response.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, accessToken string) (*Response, error) {
	const op = "BackendClient.Do"

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if id := wrap.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFail)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %s %s: %w", op, method, endpoint, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	out := &Response{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if out.OK() {
			return nil, fmt.Errorf("%s: decode envelope: %w", op, err)
		}
		out.Message = http.StatusText(resp.StatusCode)
		return out, nil
	}

	out.Data = env.Data
	out.Message = env.Error
	if out.Message == "" {
		out.Message = env.Message
	}
	return out, nil
}

var ErrEmptyRefresh = errors.New("refresh response carries no session")

// RefreshToken exchanges a refresh token for a new session. Any non-2xx answer is an error.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthData, error) {
	const op = "BackendClient.RefreshToken"

	resp, err := c.Do(ctx, http.MethodPost, "/auth/refresh-token", map[string]string{"refresh_token": refreshToken}, "")
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var data models.AuthData
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyRefresh)
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("%s: decode session: %w", op, err)
	}
	if data.Session.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyRefresh)
	}

	return &data, nil
}
