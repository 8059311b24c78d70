package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amonks/taskowner/access"
	internalstrings "github.com/amonks/taskowner/internal/strings"
	"github.com/amonks/taskowner/ownership"
	"github.com/amonks/taskowner/store"
)

// Client queries a running server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the given address or URL.
func NewClient(addr string) *Client {
	baseURL := internalstrings.TrimTrailingSlash(addr)
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{baseURL: baseURL, client: &http.Client{}}
}

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Message string

	notFound error
}

func (e *Error) Error() string {
	return fmt.Sprintf("taskowner error (%d): %s", e.Status, e.Message)
}

// Unwrap maps the status onto the package sentinels: 404 unwraps to the
// route's not-found error and 5xx to store.ErrUnavailable.
func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		if e.notFound != nil {
			return e.notFound
		}
		return store.ErrNotFound
	case e.Status >= http.StatusInternalServerError:
		return store.ErrUnavailable
	default:
		return nil
	}
}

// Root returns the greeting and advertised endpoints.
func (c *Client) Root(ctx context.Context) (RootResponse, error) {
	var response RootResponse
	err := c.get(ctx, "/", nil, &response)
	return response, err
}

// Health checks that the server can reach its store.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/healthz", nil, &HealthResponse{})
}

// TaskOwnership lists every candidate owner of every task.
func (c *Client) TaskOwnership(ctx context.Context) ([]ownership.Record, error) {
	var response OwnershipResponse
	if err := c.get(ctx, "/api/tasks/ownership", nil, &response); err != nil {
		return nil, err
	}
	return response.Tasks, nil
}

// TaskStatus lists task status records.
func (c *Client) TaskStatus(ctx context.Context) ([]ownership.StatusRecord, error) {
	var response StatusResponse
	if err := c.get(ctx, "/api/tasks/status", nil, &response); err != nil {
		return nil, err
	}
	return response.Tasks, nil
}

// TaskOwner returns the top-ranked owner of one task.
func (c *Client) TaskOwner(ctx context.Context, taskID int64) (ownership.Record, error) {
	var record ownership.Record
	path := "/api/tasks/" + strconv.FormatInt(taskID, 10) + "/owner"
	if err := c.get(ctx, path, ownership.ErrNotFound, &record); err != nil {
		return ownership.Record{}, err
	}
	return record, nil
}

// CheckAccess reports whether username can see the task.
func (c *Client) CheckAccess(ctx context.Context, taskID int64, username string) (access.Report, error) {
	var report access.Report
	path := "/api/tasks/" + strconv.FormatInt(taskID, 10) + "/check-access/" + url.PathEscape(username)
	if err := c.get(ctx, path, access.ErrNotFound, &report); err != nil {
		return access.Report{}, err
	}
	return report, nil
}

func (c *Client) get(ctx context.Context, path string, notFound error, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readErrorResponse(resp, notFound)
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func readErrorResponse(resp *http.Response, notFound error) error {
	apiErr := &Error{Status: resp.StatusCode, Message: resp.Status, notFound: notFound}
	var payload ErrorResponse
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(&payload); err == nil && payload.Detail != "" {
		apiErr.Message = payload.Detail
	}
	return apiErr
}
