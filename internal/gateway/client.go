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

const defaultTimeout = 10 * time.Second

// Client wraps outbound calls to the commerce backend API. It attaches the
// caller's bearer credential, enforces a fixed request timeout and
// normalizes every failure into a *Error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string

	successURL string
	cancelURL  string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "storefront-backend/gateway",
	}
}

// SetReturnURLs configures where the payment processor sends the customer
// after the hosted payment page.
func (c *Client) SetReturnURLs(successURL, cancelURL string) {
	c.successURL = successURL
	c.cancelURL = cancelURL
}

func (c *Client) do(ctx context.Context, method, path, token string, body interface{}, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindBackend, Message: genericBackendMessage, Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindBackend, Message: genericBackendMessage, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connectivity loss are indistinguishable here.
		return &Error{Kind: KindNetwork, Message: networkMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &Error{Kind: KindBackend, Message: genericBackendMessage, Err: fmt.Errorf("response decode failed: %w", err)}
	}

	return nil
}

// errorFromResponse threads the backend's structured error message through
// when present, else falls back to a generic message.
func (c *Client) errorFromResponse(resp *http.Response) *Error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		message = strings.TrimSpace(payload.Error)
	}

	kind := KindBackend
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = KindSessionExpired
		if message == "" {
			message = "Your session has expired. Please log in again."
		}
	case http.StatusNotFound:
		kind = KindNotFound
		if message == "" {
			message = "The requested resource was not found"
		}
	default:
		if message == "" {
			message = genericBackendMessage
		}
	}

	return &Error{Kind: kind, Status: resp.StatusCode, Message: message}
}
