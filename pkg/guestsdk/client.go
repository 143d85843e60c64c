package guestsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client is a typed client for the guest-facing invitation API. The session
// cookie issued by the validate endpoint is carried automatically by the
// client's cookie jar, so a single Client instance represents a single guest
// session.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a guest API client with its own cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}, nil
}

// APIError is a non-2xx response decoded into the standard error payload.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Code, e.Description)
}

// Validate exchanges an invitation code for a session cookie.
func (c *Client) Validate(ctx context.Context, code string) (ValidateResponse, error) {
	var out ValidateResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/validate", ValidateRequest{Code: code}, &out)
	return out, err
}

// Logout clears the session on both ends.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
}

// Details fetches the invitation detail view for the current session.
func (c *Client) Details(ctx context.Context) (DetailsResponse, error) {
	var out DetailsResponse
	err := c.doJSON(ctx, http.MethodGet, "/v1/invitation/details", nil, &out)
	return out, err
}

// SubmitRSVP records or replaces the reply for the current invitation.
func (c *Client) SubmitRSVP(ctx context.Context, req RSVPRequest) (RSVPResponse, error) {
	var out RSVPResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/invitation/rsvp", req, &out)
	return out, err
}

// SendVerification requests a verification code email.
func (c *Client) SendVerification(ctx context.Context) (SendVerificationResponse, error) {
	var out SendVerificationResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/invitation/send-verification", nil, &out)
	return out, err
}

// VerificationStatus probes the send cooldown without sending anything.
func (c *Client) VerificationStatus(ctx context.Context) (CooldownStatusResponse, error) {
	var out CooldownStatusResponse
	err := c.doJSON(ctx, http.MethodGet, "/v1/invitation/send-verification", nil, &out)
	return out, err
}

// VerifyEmail submits a verification code. On success the server rotates the
// session cookie; the jar picks the new one up transparently.
func (c *Client) VerifyEmail(ctx context.Context, code string) (VerifyEmailResponse, error) {
	var out VerifyEmailResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/invitation/verify-email", VerifyEmailRequest{Code: code}, &out)
	return out, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr != nil {
			return &APIError{StatusCode: resp.StatusCode, Code: "unknown_error"}
		}
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
