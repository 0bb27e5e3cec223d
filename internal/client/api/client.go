// Package api is the HTTP client for the session ledger. It speaks the
// same JSON envelopes the server's handlers emit and maps wire error
// codes onto the client-side error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"focusblock/internal/model"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type StartParams struct {
	DepartmentID    string `json:"departmentId"`
	ProjectID       string `json:"projectId"`
	DurationMinutes int    `json:"durationMinutes"`
	PlannedTitle    string `json:"plannedTitle"`
}

type CompleteParams struct {
	Completed   bool   `json:"completed"`
	ActualTitle string `json:"actualTitle,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type sessionEnvelope struct {
	Session *model.Session `json:"session"`
}

type sessionsEnvelope struct {
	Sessions []model.Session `json:"sessions"`
}

type departmentEnvelope struct {
	Department *model.Department `json:"department"`
}

type departmentsEnvelope struct {
	Departments []model.Department `json:"departments"`
}

type projectEnvelope struct {
	Project *model.Project `json:"project"`
}

type projectsEnvelope struct {
	Projects []model.Project `json:"projects"`
}

// AuthResponse is the body of a successful register or login call.
type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) StartSession(ctx context.Context, params StartParams) (*model.Session, error) {
	var out sessionEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/sessions", params, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var out sessionEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (c *Client) PauseSession(ctx context.Context, id string) (*model.Session, error) {
	var out sessionEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+id+"/pause", struct{}{}, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (c *Client) ResumeSession(ctx context.Context, id string) (*model.Session, error) {
	var out sessionEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+id+"/resume", struct{}{}, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (c *Client) CancelSession(ctx context.Context, id string) (*model.Session, error) {
	var out sessionEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+id+"/cancel", struct{}{}, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (c *Client) CompleteSession(ctx context.Context, id string, params CompleteParams) (*model.Session, error) {
	var out sessionEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+id+"/complete", params, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (c *Client) ListSessions(ctx context.Context, limit int) ([]model.Session, error) {
	var out sessionsEnvelope
	path := "/api/sessions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) CreateDepartment(ctx context.Context, name string) (*model.Department, error) {
	var out departmentEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/departments", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return out.Department, nil
}

func (c *Client) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var out departmentsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/departments", nil, &out); err != nil {
		return nil, err
	}
	return out.Departments, nil
}

func (c *Client) CreateProject(ctx context.Context, departmentID, code, name string) (*model.Project, error) {
	var out projectEnvelope
	err := c.do(ctx, http.MethodPost, "/api/projects", map[string]string{
		"departmentId": departmentID,
		"code":         code,
		"name":         name,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Project, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out projectsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
