// Package smartapi is a minimal client for the SmartAPI broker endpoints
// used by this service: password+TOTP login and batched market quotes.
package smartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"
)

const (
	loginPath = "/auth/angelbroking/user/v1/loginByPassword"
	quotePath = "/secure/angelbroking/market/v1/quote/"

	// ModeFull requests the full quote payload including circuits and 52-week levels.
	ModeFull = "FULL"
	// ModeLTP requests last traded price only.
	ModeLTP = "LTP"
)

// ErrUnauthorized is returned when the upstream rejects the auth token.
var ErrUnauthorized = errors.New("smartapi: unauthorized")

// Doer executes an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the SmartAPI REST endpoints.
type Client struct {
	HTTP    Doer
	BaseURL string
	APIKey  string
}

// New creates a Client with a tuned http.Client and the given request timeout.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		ForceAttemptHTTP2:   true,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 3 * time.Second,
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout, Transport: transport},
		BaseURL: baseURL,
		APIKey:  apiKey,
	}
}

// GenerateTOTP computes the current TOTP value for a login secret.
func GenerateTOTP(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now())
}

// Login exchanges client code, pin and TOTP value for session tokens.
func (c *Client) Login(ctx context.Context, clientCode, pin, totpValue string) (*Session, error) {
	body := loginRequest{ClientCode: clientCode, Password: pin, Totp: totpValue}

	data, err := c.post(ctx, loginPath, "", body)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("smartapi: decode login response: %v", err)
	}
	if session.JwtToken == "" {
		return nil, fmt.Errorf("smartapi: login response missing jwt token")
	}

	return &session, nil
}

// GetQuotes fetches quotes for multiple tokens per exchange in one call.
// The response splits requested tokens into fetched and unfetched lists.
func (c *Client) GetQuotes(ctx context.Context, authToken, mode string, exchangeTokens map[string][]string) (*QuoteResult, error) {
	if authToken == "" {
		return nil, fmt.Errorf("smartapi: auth token required")
	}
	if len(exchangeTokens) == 0 {
		return nil, fmt.Errorf("smartapi: no tokens requested")
	}

	body := quoteRequest{Mode: mode, ExchangeTokens: exchangeTokens}

	data, err := c.post(ctx, quotePath, authToken, body)
	if err != nil {
		return nil, err
	}

	var result QuoteResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("smartapi: decode quote response: %v", err)
	}
	if result.Fetched == nil && result.Unfetched == nil {
		return nil, fmt.Errorf("smartapi: quote response missing fetched/unfetched lists")
	}

	return &result, nil
}

// post sends a JSON request and unwraps the SmartAPI envelope.
func (c *Client) post(ctx context.Context, path, authToken string, body interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("smartapi: marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("smartapi: build request: %v", err)
	}
	c.setHeaders(req, authToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("smartapi: request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("smartapi: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("smartapi: read response: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("smartapi: decode response envelope: %v", err)
	}
	if !env.Status {
		if env.ErrorCode == "AG8001" || env.ErrorCode == "AG8002" {
			// Invalid or expired token error codes
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("smartapi: api error %s: %s", env.ErrorCode, env.Message)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("smartapi: response missing data")
	}

	return env.Data, nil
}

func (c *Client) setHeaders(req *http.Request, authToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	req.Header.Set("X-ClientLocalIP", "192.168.1.1")
	req.Header.Set("X-ClientPublicIP", "103.21.58.192")
	req.Header.Set("X-MACAddress", "00:0a:95:9d:68:16")
	req.Header.Set("X-PrivateKey", c.APIKey)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
}
