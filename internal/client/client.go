// Package client is the HTTP adapter for the procurement REST backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bidwise/bidwise/internal/models"
)

const maxResponseSize = 10 << 20 // 10MB

// DefaultTimeout bounds every request unless overridden with WithTimeout.
const DefaultTimeout = 30 * time.Second

// Client talks to the backend described by a single base URL. All requests
// carry a JSON content type and, when a token is set, a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client targeting baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListProjects fetches GET /projects.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	resp, err := c.do(ctx, http.MethodGet, "/projects", nil, nil)
	if err != nil {
		return nil, err
	}
	var projects []models.Project
	if err := decodeArray(resp, "projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject submits POST /projects. The backend may answer with the
// created project or an empty acknowledgement; in the latter case the
// returned project is nil.
func (c *Client) CreateProject(ctx context.Context, p models.NewProject) (*models.Project, error) {
	resp, err := c.do(ctx, http.MethodPost, "/projects", nil, p)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if !startsWith(body, '{') {
		return nil, nil
	}
	var created models.Project
	if err := json.Unmarshal(body, &created); err != nil || created.Name == "" {
		return nil, nil
	}
	return &created, nil
}

// UpdateProjectStatus submits PUT /projects/status.
func (c *Client) UpdateProjectStatus(ctx context.Context, name, newStatus string) error {
	resp, err := c.do(ctx, http.MethodPut, "/projects/status", nil, models.StatusChange{Name: name, NewStatus: newStatus})
	if err != nil {
		return err
	}
	_, err = readBody(resp)
	return err
}

// ListBids fetches GET /bids?project_id=<name>.
func (c *Client) ListBids(ctx context.Context, projectName string) ([]models.Bid, error) {
	q := url.Values{"project_id": {projectName}}
	resp, err := c.do(ctx, http.MethodGet, "/bids", q, nil)
	if err != nil {
		return nil, err
	}
	var bids []models.Bid
	if err := decodeArray(resp, "bids", &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

// TrafficData fetches GET /traffic-data.
func (c *Client) TrafficData(ctx context.Context) ([]models.TrafficPoint, error) {
	resp, err := c.do(ctx, http.MethodGet, "/traffic-data", nil, nil)
	if err != nil {
		return nil, err
	}
	var points []models.TrafficPoint
	if err := decodeArray(resp, "traffic", &points); err != nil {
		return nil, err
	}
	return points, nil
}

// ProjectProgress fetches GET /project-progress?project=<name>.
func (c *Client) ProjectProgress(ctx context.Context, projectName string) (*models.ProjectProgress, error) {
	q := url.Values{"project": {projectName}}
	resp, err := c.do(ctx, http.MethodGet, "/project-progress", q, nil)
	if err != nil {
		return nil, err
	}
	var progress models.ProjectProgress
	if err := decodeObject(resp, "project progress", &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, &RequestError{Err: errors.New("backend base URL is not configured")}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Err: fmt.Errorf("marshalling request: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", "method", method, "path", path, "error", err)
		return nil, &NoResponseError{Err: err}
	}
	c.logger.Debug("backend request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

// readBody drains and closes the response body, converting error statuses
// into a ResponseError.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return bytes.TrimSpace(body), nil
}

func decodeArray(resp *http.Response, resource string, v any) error {
	return decodeShape(resp, resource, '[', "array", v)
}

func decodeObject(resp *http.Response, resource string, v any) error {
	return decodeShape(resp, resource, '{', "object", v)
}

func decodeShape(resp *http.Response, resource string, open byte, want string, v any) error {
	body, err := readBody(resp)
	if err != nil {
		return err
	}
	if len(body) > 0 && !json.Valid(body) {
		return fmt.Errorf("decoding %s: response is not valid JSON", resource)
	}
	if !startsWith(body, open) {
		return &ShapeError{Resource: resource, Want: want, Got: jsonKind(body)}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &ShapeError{Resource: resource, Want: want, Got: jsonKind(body), Err: err}
	}
	return nil
}

func startsWith(body []byte, b byte) bool {
	return len(body) > 0 && body[0] == b
}

func jsonKind(body []byte) string {
	if len(body) == 0 {
		return "empty body"
	}
	switch body[0] {
	case '[':
		return "array"
	case '{':
		return "object"
	case '"':
		return "string"
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

// errorMessage extracts a human-readable message from an error body. It
// accepts {"message": "..."}, {"error": "..."} and {"error": {"message": "..."}}.
func errorMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	var msg string
	if raw, ok := fields["message"]; ok && json.Unmarshal(raw, &msg) == nil && msg != "" {
		return msg
	}
	raw, ok := fields["error"]
	if !ok {
		return ""
	}
	if json.Unmarshal(raw, &msg) == nil {
		return msg
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &nested) == nil {
		return nested.Message
	}
	return ""
}
