package auth

import "context"

// LoginFlow tracks the login form controls across an attempt.
type LoginFlow struct {
	API LoginAPI

	busy  bool
	label string
	err   string
}

// NewLoginFlow returns a flow with the submit control enabled.
func NewLoginFlow(api LoginAPI) *LoginFlow {
	return &LoginFlow{API: api, label: IdleLabel}
}

// Begin disables the submit control, shows the busy label and clears any
// previous error. It reports false when an attempt is already running.
func (f *LoginFlow) Begin() bool {
	if f.busy {
		return false
	}
	f.busy = true
	f.label = BusyLabel
	f.err = ""
	return true
}

// Finish records the result and re-enables the control on failure.
func (f *LoginFlow) Finish(res LoginResult) {
	if res.Route == RouteDashboard {
		f.err = ""
		return
	}
	f.busy = false
	f.label = IdleLabel
	f.err = res.Error
}

// Submit runs a complete attempt synchronously.
func (f *LoginFlow) Submit(ctx context.Context, username, password string) LoginResult {
	if !f.Begin() {
		return LoginResult{Route: RouteLogin}
	}
	res := Login(ctx, f.API, username, password)
	f.Finish(res)
	return res
}

// Busy reports whether the submit control is disabled.
func (f *LoginFlow) Busy() bool { return f.busy }

// Label is the submit control's text.
func (f *LoginFlow) Label() string {
	if f.label == "" {
		return IdleLabel
	}
	return f.label
}

// Error is the message under the form, empty when none.
func (f *LoginFlow) Error() string { return f.err }
