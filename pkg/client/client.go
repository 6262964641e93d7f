package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vexscan/vex/pkg/domain"
)

// TokenPair is the credential pair issued by login, register and refresh.
// Refresh rotates the pair: both values replace the stored ones together.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AnalyzeResult is the response from submitting a file for analysis.
type AnalyzeResult struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Hash   string `json:"hash"`
}

// Client is the VexScan API client. It is stateless: each authenticated call
// takes the access token explicitly, and no method retries or persists
// anything. Retry and storage belong to the session layer.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client against the given base endpoint.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"email": email, "password": password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/login", "", body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("client.Login: %w", err)
	}
	return pair, nil
}

// Register creates an account. The server auto-logs the account in and
// returns a token pair.
func (c *Client) Register(ctx context.Context, username, email, password string) (TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/register", "", body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("client.Register: %w", err)
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a rotated token pair. The old pair is
// revoked server-side, so the result must replace both stored tokens.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.doRequest(ctx, http.MethodPost, "/api/refresh", "", body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("client.Refresh: %w", err)
	}
	return pair, nil
}

// Me returns the canonical profile for the access token's owner.
func (c *Client) Me(ctx context.Context, accessToken string) (*domain.User, error) {
	var resp struct {
		User *domain.User `json:"user"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/me", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	if resp.User == nil {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "me: empty user in response"}
	}
	return resp.User, nil
}

// Logout revokes the refresh token server-side. The result is informational:
// callers clear local state regardless of what this returns.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.doRequest(ctx, http.MethodPost, "/api/logout", "", body, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// UserStats fetches the per-user scan counters.
// The endpoint has shipped both {"stats": {...}} and a flat object; both are
// accepted.
func (c *Client) UserStats(ctx context.Context, accessToken string, userID int64) (*domain.ScanStats, error) {
	path := "/api/user/" + strconv.FormatInt(userID, 10) + "/stats"
	var raw json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, path, accessToken, nil, &raw); err != nil {
		return nil, fmt.Errorf("client.UserStats: %w", err)
	}
	var wrapped struct {
		Stats *domain.ScanStats `json:"stats"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Stats != nil {
		return wrapped.Stats, nil
	}
	var flat domain.ScanStats
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("client.UserStats: decode response: %w", err)
	}
	return &flat, nil
}

// UserHistory fetches the user's recent scans, newest first.
func (c *Client) UserHistory(ctx context.Context, accessToken string, userID int64) ([]domain.ScanRecord, error) {
	path := "/api/user/" + strconv.FormatInt(userID, 10) + "/history"
	var resp struct {
		History []domain.ScanRecord `json:"history"`
	}
	if err := c.doRequest(ctx, http.MethodGet, path, accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("client.UserHistory: %w", err)
	}
	return resp.History, nil
}

// Analyze submits a file for scanning. The upload is queued server-side; the
// result carries the job ID and content hash.
func (c *Client) Analyze(ctx context.Context, accessToken, filename string, r io.Reader) (*AnalyzeResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("client.Analyze: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("client.Analyze: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client.Analyze: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", &buf)
	if err != nil {
		return nil, fmt.Errorf("client.Analyze: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	var result AnalyzeResult
	if err := c.send(req, &result); err != nil {
		return nil, fmt.Errorf("client.Analyze: %w", err)
	}
	return &result, nil
}

// Fragment fetches a named shared page fragment (header, footer).
func (c *Client) Fragment(ctx context.Context, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/partials/"+url.PathEscape(name), nil)
	if err != nil {
		return "", fmt.Errorf("client.Fragment: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("client.Fragment: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("client.Fragment: %w", errorFromResponse(resp))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("client.Fragment: read body: %w", err)
	}
	return string(data), nil
}

func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorFromResponse builds an APIError from a non-2xx response, preferring the
// server's own message. The backend reports errors as {"detail": ...}; older
// deployments used {"error": ...}.
func errorFromResponse(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
	}
	var apiErr struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(respBody, &apiErr) == nil {
		if apiErr.Detail != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Detail}
		}
		if apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
}
