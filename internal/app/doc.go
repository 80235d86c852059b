// Package app provides the orchestration layer for hubmirror.
//
// # Overview
//
// This package wires together configuration, polling, the local item
// store, and the dashboard UI. It is the composition root: every
// dependency is constructed here and handed down by reference, so there
// is no package-level session state anywhere in the program.
//
// # Architecture
//
//  1. Load configuration from ~/.config/hubmirror/config.toml
//  2. Initialize the GitHub REST client for one owner/repo pair
//  3. Create the shared store.Store and a mirror.Session around it
//  4. Restore the last session's filter from prefs
//  5. Start the item poller (20s) and the lighter label poller (5s)
//  6. Run the dashboard and block until the user exits
//
// # Polling behavior
//
// Each poller fires its first cycle immediately and then on a fixed
// interval. A tick that arrives while a cycle is still in flight is
// dropped, never queued, which caps concurrent remote fetches at one
// even when a slow multi-page sync outlasts the interval. Cycle errors
// are logged and swallowed; the loop keeps ticking and the store keeps
// its last good data.
//
// The UI reads store snapshots at its own refresh rate, so a slow sync
// never blocks rendering.
package app
