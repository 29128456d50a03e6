// Package auth decides which view a session may see and drives the login
// and logout flows.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/five82/spoolwatch/internal/spooler"
)

// Route names the view to show next.
type Route int

const (
	RouteLogin Route = iota
	RouteDashboard
)

func (r Route) String() string {
	if r == RouteDashboard {
		return "dashboard"
	}
	return "login"
}

// Login view texts.
const (
	BusyLabel         = "Logging in..."
	IdleLabel         = "Login"
	MsgLoginFailed    = "Login failed"
	MsgConnectionFail = "Connection error. Please try again."
)

// Checker reports the current session.
type Checker interface {
	CheckAuth(ctx context.Context) (spooler.SessionInfo, error)
}

// Gate asks the server whether the session is authenticated. A failed check
// counts as unauthenticated.
func Gate(ctx context.Context, c Checker) (spooler.SessionInfo, Route) {
	info, err := c.CheckAuth(ctx)
	if err != nil || !info.Authenticated {
		return spooler.SessionInfo{}, RouteLogin
	}
	return info, RouteDashboard
}

// LoginAPI is the slice of the spooler client the login flow needs.
type LoginAPI interface {
	Checker
	Login(ctx context.Context, username, password string) error
}

// LoginResult is the outcome of one login attempt.
type LoginResult struct {
	Route   Route
	Session spooler.SessionInfo
	Error   string
}

// Login posts credentials. On success the session is re-checked so the
// dashboard can pin the server-confirmed username.
func Login(ctx context.Context, api LoginAPI, username, password string) LoginResult {
	err := api.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return LoginResult{Route: RouteLogin, Error: loginError(err)}
	}
	info, err := api.CheckAuth(ctx)
	if err != nil || !info.Authenticated {
		info = spooler.SessionInfo{Authenticated: true, Username: strings.TrimSpace(username)}
	}
	return LoginResult{Route: RouteDashboard, Session: info}
}

func loginError(err error) string {
	var apiErr *spooler.APIError
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
		return MsgLoginFailed
	}
	return MsgConnectionFail
}

// Logouter ends a session.
type Logouter interface {
	Logout(ctx context.Context) error
}

// Logout ends the session and always routes to login. The error is returned
// for logging only.
func Logout(ctx context.Context, api Logouter) (Route, error) {
	return RouteLogin, api.Logout(ctx)
}
