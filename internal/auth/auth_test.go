package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/spoolwatch/internal/spooler"
)

type fakeAPI struct {
	info      spooler.SessionInfo
	checkErr  error
	loginErr  error
	logoutErr error
	logins    int
	logouts   int
}

func (f *fakeAPI) CheckAuth(context.Context) (spooler.SessionInfo, error) {
	return f.info, f.checkErr
}

func (f *fakeAPI) Login(_ context.Context, username, _ string) error {
	f.logins++
	if f.loginErr != nil {
		return f.loginErr
	}
	f.info = spooler.SessionInfo{Authenticated: true, Username: username}
	return nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.logouts++
	f.info = spooler.SessionInfo{}
	return f.logoutErr
}

func TestGate(t *testing.T) {
	ctx := context.Background()

	info, route := Gate(ctx, &fakeAPI{info: spooler.SessionInfo{Authenticated: true, Username: "ann"}})
	assert.Equal(t, RouteDashboard, route)
	assert.Equal(t, "ann", info.Username)

	_, route = Gate(ctx, &fakeAPI{})
	assert.Equal(t, RouteLogin, route)

	_, route = Gate(ctx, &fakeAPI{info: spooler.SessionInfo{Authenticated: true}, checkErr: errors.New("boom")})
	assert.Equal(t, RouteLogin, route, "failed check must not admit the session")
}

func TestLoginFlowSuccess(t *testing.T) {
	api := &fakeAPI{}
	flow := NewLoginFlow(api)
	require.Equal(t, IdleLabel, flow.Label())

	require.True(t, flow.Begin())
	assert.True(t, flow.Busy())
	assert.Equal(t, BusyLabel, flow.Label())
	assert.False(t, flow.Begin(), "second attempt while busy")

	res := Login(context.Background(), api, " ann ", "pw")
	flow.Finish(res)
	assert.Equal(t, RouteDashboard, res.Route)
	assert.Equal(t, "ann", res.Session.Username)
	assert.Empty(t, flow.Error())
}

func TestLoginFlowFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server detail", &spooler.APIError{Status: 401, Message: "Invalid username or password"}, "Invalid username or password"},
		{"no detail", &spooler.APIError{Status: 422}, MsgLoginFailed},
		{"transport", fmt.Errorf("execute request: %w", errors.New("refused")), MsgConnectionFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := NewLoginFlow(&fakeAPI{loginErr: tt.err})
			res := flow.Submit(context.Background(), "ann", "pw")
			assert.Equal(t, RouteLogin, res.Route)
			assert.Equal(t, tt.want, flow.Error())
			assert.False(t, flow.Busy(), "control must be re-enabled")
			assert.Equal(t, IdleLabel, flow.Label())
		})
	}
}

func TestLoginClearsPreviousError(t *testing.T) {
	api := &fakeAPI{loginErr: &spooler.APIError{Status: 401, Message: "nope"}}
	flow := NewLoginFlow(api)
	flow.Submit(context.Background(), "ann", "x")
	require.Equal(t, "nope", flow.Error())

	require.True(t, flow.Begin())
	assert.Empty(t, flow.Error())
}

func TestLogoutAlwaysRoutesToLogin(t *testing.T) {
	route, err := Logout(context.Background(), &fakeAPI{})
	assert.NoError(t, err)
	assert.Equal(t, RouteLogin, route)

	route, err = Logout(context.Background(), &fakeAPI{logoutErr: errors.New("offline")})
	assert.Error(t, err)
	assert.Equal(t, RouteLogin, route)
}
