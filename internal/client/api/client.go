// Package api is the HTTP client for the calendar server. Responses are
// unwrapped from their message envelopes; non-2xx statuses surface as
// *Error with the server's error string.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Event struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
	Resource    string    `json:"resource"`
	UserID      *int      `json:"user_id"`
	Username    *string   `json:"username"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Health struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// Error is a non-2xx response decoded into the server's error message.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// NewWithHTTPClient allows callers to supply their own transport, e.g. one
// with a timeout or test instrumentation.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/register", req, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", req, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

func (c *Client) GetUser(ctx context.Context, id int) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, id int, req UpdateUserRequest) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/users/%d", id), req, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var out struct {
		Events []Event `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *Client) GetEvent(ctx context.Context, id int) (Event, error) {
	var out struct {
		Event Event `json:"event"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/events/%d", id), nil, &out); err != nil {
		return Event{}, err
	}
	return out.Event, nil
}

func (c *Client) ListUserEvents(ctx context.Context, userID int) (User, []Event, error) {
	var out struct {
		User   User    `json:"user"`
		Events []Event `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d/events", userID), nil, &out); err != nil {
		return User{}, nil, err
	}
	return out.User, out.Events, nil
}

func (c *Client) ListEventsByRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	var out struct {
		Events []Event `json:"events"`
	}
	path := fmt.Sprintf("/api/events/range/%s/%s",
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

type CreateEventRequest struct {
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description,omitempty"`
	Resource    string    `json:"resource,omitempty"`
	UserID      *int      `json:"user_id,omitempty"`
}

func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (Event, error) {
	var out struct {
		Event Event `json:"event"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/events", req, &out); err != nil {
		return Event{}, err
	}
	return out.Event, nil
}

type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Description *string    `json:"description,omitempty"`
	Resource    *string    `json:"resource,omitempty"`
	UserID      *int       `json:"user_id,omitempty"`
}

func (c *Client) UpdateEvent(ctx context.Context, id int, req UpdateEventRequest) (Event, error) {
	var out struct {
		Event Event `json:"event"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/events/%d", id), req, &out); err != nil {
		return Event{}, err
	}
	return out.Event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id int) (Event, error) {
	var out struct {
		Event Event `json:"event"`
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/events/%d", id), nil, &out); err != nil {
		return Event{}, err
	}
	return out.Event, nil
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return Health{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		message := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			message = payload.Error
		}
		return &Error{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
