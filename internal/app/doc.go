// Package app provides the orchestration layer for spoolwatch.
//
// # Overview
//
// This package wires together configuration, the spooler client, state
// management, the two synchronization sources and the UI. It is the
// composition root where all dependencies are initialized and connected.
//
// # Architecture
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> Connect()             Config, overrides, spooler client
//	       ├─────> tea.LogToFile()       Diagnostics off the terminal
//	       ├─────> state.NewStore()      Shared state container
//	       ├─────> gate()                Session check picks the first view
//	       ├─────> StartRefresher()      Serves Trigger requests
//	       ├─────> StartPoller()         Full-state fetch every interval
//	       ├─────> StartPush()           WebSocket channel with backoff
//	       └─────> ui.Run()              Start TUI (blocks)
//
//	Both sources write through the Syncer:
//	┌─────────────────────────────────────────┐
//	│ poller tick / Trigger                   │
//	│  ├─> store.Begin()       ticket         │
//	│  ├─> FetchSystemState()                 │
//	│  └─> store.ApplyState()  drops stale    │
//	│ push message                            │
//	│  ├─> system_state envelope -> apply     │
//	│  └─> log line -> AppendLog, Trigger     │
//	│      (NEW, START, END, ABORT, STOP)     │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller runs for the life of the context at a fixed interval (default:
// 3 seconds), whatever the push channel is doing. A 401 flags the store for
// login instead of counting as a failure. Other errors are logged and
// recorded; the previous snapshot stays on screen.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Malformed server URL
//   - Log file cannot be created
//
// Recoverable errors (logged, synchronization continues):
//   - Poll failures and timeouts
//   - Push channel errors and closes; the channel reconnects with backoff
//     and, after its attempt budget, leaves the poller in charge
//   - Metrics listener failures
package app
