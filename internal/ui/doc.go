// Package ui provides the terminal dashboard for spoolwatch.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program with two views. The login view collects
// credentials and drives an auth.LoginFlow. The dashboard shows the printer
// status, the task queue, the submission form and the event log fed by the
// push channel.
//
// The model never talks to the network to read state. It waits on
// state.Store.Changes and re-renders from a fresh Snapshot, so the poller and
// the push channel stay the only writers. Login, logout and uploads run as
// tea.Cmds and report back through messages.
//
// # Package Structure
//
//   - app.go: Model, Update, view routing and the Run function
//   - render.go: pure status and queue content plus their panels
//   - form.go: the submission form inputs
//   - login.go: the login card
//   - eventlog.go: the event log viewport
//   - flash.go: transient messages with id-keyed expiry
//   - header.go: status bar and command bar
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Event Flow
//
//  1. Run builds the Model from the current snapshot; a store flagged for
//     login opens the login view
//  2. Each store change delivers a snapshotMsg and re-arms the wait
//  3. A snapshot flagged for login switches to the login view from anywhere
//  4. Enter on the form validates locally, shows "Sending..." and uploads
//  5. Results flash for FlashDuration, then clear
//
// # Key Bindings
//
//   - Tab / Shift+Tab: Move between fields
//   - Enter: Submit the form or log in
//   - Ctrl+R: Refresh now
//   - Ctrl+O: Log out
//   - PgUp / PgDn: Scroll the event log, Ctrl+G follows the newest line
//   - Ctrl+T: Cycle theme (saved to prefs)
//   - F1: Toggle help
//   - Ctrl+C: Exit
package ui
