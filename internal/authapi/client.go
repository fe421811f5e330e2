// ABOUTME: HTTP client for the awful-auth identity-challenge API.
// ABOUTME: Issues profile-hash challenges and polls for their verification.

package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidName is returned when the API rejects the supplied forum name
// as syntactically invalid (HTTP 422).
var ErrInvalidName = errors.New("invalid forum username")

// ErrUnknownChallenge is returned when there is no live challenge for the
// supplied name; the caller must restart the flow from /auth.
var ErrUnknownChallenge = errors.New("no active challenge for username")

// Challenge is a short-lived hash the user must place in their forum
// profile to prove control of the claimed identity.
type Challenge struct {
	UserName string `json:"user_name"`
	Hash     string `json:"hash"`
}

// VerificationStatus reports the outcome of a verification poll. The
// identity fields are populated only once the profile hash has been seen.
type VerificationStatus struct {
	Validated    bool       `json:"validated"`
	UserName     string     `json:"user_name,omitempty"`
	UserID       int64      `json:"user_id,omitempty"`
	RegisterDate *time.Time `json:"register_date,omitempty"`
	Permabanned  *time.Time `json:"permabanned,omitempty"`
}

// Client talks to the awful-auth HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a challenge API client. The timeout applies to every request;
// the upstream challenge itself expires after about five minutes.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// IssueChallenge requests a new profile-hash challenge for the given forum
// name. Returns ErrInvalidName on a 422. A non-200 response other than 422
// yields (nil, nil): the API answered but produced nothing usable, which
// the caller must treat as a service inconsistency.
func (c *Client) IssueChallenge(ctx context.Context, userName string) (*Challenge, error) {
	resp, err := c.get(ctx, "/goon_auth/verification", userName)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrInvalidName
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var challenge Challenge
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		return nil, fmt.Errorf("decoding challenge: %w", err)
	}
	return &challenge, nil
}

// PollVerification asks whether the challenge hash for the given name has
// appeared on the user's forum profile. A 404 carrying a message body means
// the challenge is unknown or expired (ErrUnknownChallenge); a 422 means
// the name is invalid (ErrInvalidName). Any other non-200 yields (nil, nil).
func (c *Client) PollVerification(ctx context.Context, userName string) (*VerificationStatus, error) {
	resp, err := c.get(ctx, "/goon_auth/verification/update", userName)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		var payload map[string]any
		if json.Unmarshal(body, &payload) == nil {
			if _, ok := payload["message"]; ok {
				return nil, ErrUnknownChallenge
			}
		}
		return nil, nil
	}
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrInvalidName
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var status VerificationStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding verification status: %w", err)
	}
	return &status, nil
}

// get issues a GET with the user_name query parameter set.
func (c *Client) get(ctx context.Context, path, userName string) (*http.Response, error) {
	query := url.Values{"user_name": {userName}}
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	return resp, nil
}
