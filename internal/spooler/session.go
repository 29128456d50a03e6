package spooler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type storedSession struct {
	Server  string         `json:"server"`
	Cookies []storedCookie `json:"cookies"`
}

// loadSession restores cookies saved by a previous login. A missing file, or
// one written for a different server, is not an error.
func (c *Client) loadSession() error {
	if c.sessionPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read session: %w", err)
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		// Corrupt session files are dropped; the user just logs in again.
		return nil
	}
	if stored.Server != c.baseURL.String() {
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(stored.Cookies))
	for _, sc := range stored.Cookies {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)
	return nil
}

func (c *Client) saveSession() error {
	if c.sessionPath == "" {
		return nil
	}
	stored := storedSession{Server: c.baseURL.String()}
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		stored.Cookies = append(stored.Cookies, storedCookie{Name: cookie.Name, Value: cookie.Value})
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.sessionPath), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(c.sessionPath, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (c *Client) clearSession() {
	var expired []*http.Cookie
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		expired = append(expired, &http.Cookie{Name: cookie.Name, Path: "/", MaxAge: -1})
	}
	if len(expired) > 0 {
		c.jar.SetCookies(c.baseURL, expired)
	}
	if c.sessionPath != "" {
		_ = os.Remove(c.sessionPath)
	}
}
