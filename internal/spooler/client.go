package spooler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// API defines the print server operations the client depends on.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	FetchSystemState(ctx context.Context) (*SystemState, error)
	SubmitTask(ctx context.Context, req TaskRequest) error
	CheckAuth(ctx context.Context) (SessionInfo, error)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the print server HTTP API.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	jar         *cookiejar.Jar
	userAgent   string
	sessionPath string
}

const (
	defaultServer    = "127.0.0.1:8000"
	defaultUserAgent = "spoolwatch/0.1"
	requestTimeout   = 15 * time.Second
	pushPath         = "/ws/status"
)

// NewClient builds a Client for the server at serverURL (host:port or full
// URL). When sessionPath is non-empty the session cookie is loaded from and
// saved to that file.
func NewClient(serverURL, sessionPath string) (*Client, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	c := &Client{
		baseURL: base,
		jar:     jar,
		http: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		userAgent:   defaultUserAgent,
		sessionPath: sessionPath,
	}
	if err := c.loadSession(); err != nil {
		return nil, err
	}
	return c, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchSystemState retrieves the full queue and printer snapshot.
func (c *Client) FetchSystemState(ctx context.Context) (*SystemState, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload SystemState
	if err := c.do(ctx, http.MethodGet, "/system-state/", nil, "", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SubmitTask creates a new print job. Requests with a File are sent as a
// multipart upload; requests without one use the JSON body.
func (c *Client) SubmitTask(ctx context.Context, req TaskRequest) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(req.File) == "" {
		body, err := json.Marshal(struct {
			Username string `json:"username"`
			Name     string `json:"name"`
			Pages    int    `json:"pages"`
			Priority int    `json:"priority"`
		}{req.Username, req.Name, req.Pages, req.Priority})
		if err != nil {
			return fmt.Errorf("encode task: %w", err)
		}
		return c.do(ctx, http.MethodPost, "/tasks/", bytes.NewReader(body), "application/json", nil)
	}

	body, contentType, err := encodeTaskUpload(req)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/tasks/", body, contentType, nil)
}

// CheckAuth asks the server whether the current session is authenticated.
func (c *Client) CheckAuth(ctx context.Context) (SessionInfo, error) {
	if c == nil {
		return SessionInfo{}, fmt.Errorf("client is nil")
	}
	var info SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/check-auth", nil, "", &info); err != nil {
		return SessionInfo{}, err
	}
	if !info.Authenticated {
		info.Username = ""
	}
	return info, nil
}

// Login posts credentials as a multipart form. On success the session cookie
// is stored in the jar and persisted.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("username", username); err != nil {
		return fmt.Errorf("encode login: %w", err)
	}
	if err := writer.WriteField("password", password); err != nil {
		return fmt.Errorf("encode login: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("encode login: %w", err)
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", &buf, writer.FormDataContentType(), nil); err != nil {
		return err
	}
	return c.saveSession()
}

// Logout ends the server session. The local session is dropped even when the
// call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, "", nil)
	c.clearSession()
	return err
}

// PushURL returns the WebSocket URL of the status push channel.
func (c *Client) PushURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = pushPath
	return u.String()
}

// PushHeader returns the headers for the push channel handshake, including
// the session cookie.
func (c *Client) PushHeader() http.Header {
	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		header.Add("Cookie", cookie.String())
	}
	return header
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, dest any) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Path: path, Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Error); msg != "" {
		return msg
	}
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}

func encodeTaskUpload(req TaskRequest) (io.Reader, string, error) {
	file, err := os.Open(req.File)
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("username", req.Username); err != nil {
		return nil, "", fmt.Errorf("encode task: %w", err)
	}
	if err := writer.WriteField("priority", strconv.Itoa(req.Priority)); err != nil {
		return nil, "", fmt.Errorf("encode task: %w", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(req.File))
	if err != nil {
		return nil, "", fmt.Errorf("encode task: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("encode task: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return nil, fmt.Errorf("parse server url %q: unsupported scheme %q", serverURL, u.Scheme)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
