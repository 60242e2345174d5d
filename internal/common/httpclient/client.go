// internal/common/httpclient/client.go

// Package httpclient performs the single-attempt outbound HTTP calls for the
// spending API and classifies transport failures into the retryable kinds the
// retry executor understands.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	apperrors "spendquery/internal/common/errors"
)

// Response is the raw outcome of one outbound attempt.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether the status code is in the 2xx class.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PerformRequest executes one attempt of an outbound call. A non-nil body is
// JSON-encoded. Network failures come back as *errors.TransportError; caller
// cancellation comes back as the bare context error.
func (c *Client) PerformRequest(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ClassifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ClassifyTransportError(err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// ClassifyTransportError maps a low-level client error onto one of the four
// transport kinds. Unrecognized network errors are treated as connection
// resets, the broadest transient category.
func ClassifyTransportError(err error) *apperrors.TransportError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTransportError(apperrors.KindTimeout, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return apperrors.NewTransportError(apperrors.KindConnectionRefused, err)
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.NewTransportError(apperrors.KindConnectionReset, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTransportError(apperrors.KindTimeout, err)
	}

	if strings.Contains(err.Error(), "connection pool") || strings.Contains(err.Error(), "no free connection") {
		return apperrors.NewTransportError(apperrors.KindPoolExhausted, err)
	}

	return apperrors.NewTransportError(apperrors.KindConnectionReset, err)
}
