// ABOUTME: HTTP client for the goon-files user-record API.
// ABOUTME: Looks up, creates, and links persisted users to platform identities.

package userapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Service identifies the platform a service link belongs to.
type Service string

const (
	ServiceDiscord Service = "discord"
	ServiceOther   Service = "other"
)

// ErrInvalidQuery is returned when the API rejects lookup parameters (422).
var ErrInvalidQuery = errors.New("invalid query parameter")

// ErrInvalidUser is returned when the API rejects a user payload (422).
var ErrInvalidUser = errors.New("invalid user parameter")

// ServiceLink associates a user record with one platform identity.
type ServiceLink struct {
	Service Service `json:"service"`
	Token   string  `json:"token"`
	Info    string  `json:"info,omitempty"`
}

// User is the persisted record linking a forum identity to its platform
// identities. The goon-files service exclusively owns this entity; the bot
// only reads it and requests creates and link updates.
type User struct {
	UserID      int64         `json:"userId"`
	UserName    string        `json:"userName"`
	RegDate     *time.Time    `json:"regDate,omitempty"`
	CreatedAt   *time.Time    `json:"createdAt,omitempty"`
	PermaBanned *time.Time    `json:"permaBanned,omitempty"`
	Services    []ServiceLink `json:"services,omitempty"`
}

// FindService returns the user's link for the given platform, or nil.
func (u *User) FindService(service Service) *ServiceLink {
	for i := range u.Services {
		if u.Services[i].Service == service {
			return &u.Services[i]
		}
	}
	return nil
}

// Client talks to the goon-files HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a user-record API client with an explicit request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FindByService looks up the user linked to a platform identity. Returns
// (nil, nil) when no user carries that link.
func (c *Client) FindByService(ctx context.Context, service Service, token string) (*User, error) {
	query := url.Values{
		"service": {string(service)},
		"token":   {token},
	}
	resp, err := c.do(ctx, http.MethodGet, "/user/?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrInvalidQuery
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return decodeUser(resp)
}

// FindByID looks up a user by forum user ID. Returns (nil, nil) when the
// user does not exist.
func (c *Client) FindByID(ctx context.Context, userID int64) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/user/%d", userID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrInvalidQuery
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return decodeUser(resp)
}

// createPayload is the POST /user/ request body.
type createPayload struct {
	UserID   int64         `json:"userId"`
	UserName string        `json:"userName"`
	RegDate  string        `json:"regDate"`
	Services []ServiceLink `json:"services,omitempty"`
}

// Create registers a new user record, optionally with initial service links.
// Returns ErrInvalidUser when the API rejects the payload.
func (c *Client) Create(ctx context.Context, userID int64, userName string, regDate time.Time, links []ServiceLink) (*User, error) {
	payload := createPayload{
		UserID:   userID,
		UserName: userName,
		RegDate:  regDate.Format(time.RFC3339),
		Services: links,
	}

	resp, err := c.do(ctx, http.MethodPost, "/user/", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrInvalidUser
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return decodeUser(resp)
}

// AddServiceLink attaches a platform identity to an existing user. Returns
// (nil, nil) when the target user does not exist (404).
func (c *Client) AddServiceLink(ctx context.Context, userID int64, link ServiceLink) (*User, error) {
	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/user/%d/service", userID), link)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return decodeUser(resp)
}

// CreateOrUpdate ensures a user record exists and carries the given link.
// The two remote calls are not atomic; a failure between lookup and write
// leaves the user unlinked, which is safely retryable.
func (c *Client) CreateOrUpdate(ctx context.Context, userID int64, userName string, regDate time.Time, link ServiceLink) (*User, error) {
	user, err := c.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return c.Create(ctx, userID, userName, regDate, []ServiceLink{link})
	}
	return c.AddServiceLink(ctx, userID, link)
}

// do issues a request with an optional JSON body.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s %s: %w", method, path, err)
	}
	return resp, nil
}

// decodeUser parses a user record from a 200 response.
func decodeUser(resp *http.Response) (*User, error) {
	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	return &user, nil
}
