// SPDX-License-Identifier: MPL-2.0

// Package serverbase holds the lifecycle state machine shared by the SSH
// browser server and the HTTP API server.
//
// A server embeds Base, calls TransitionToStarting at the top of Start,
// TransitionToRunning once it accepts connections, and Shutdown from Stop.
// State reads are lock-free; transitions are compare-and-swap so Stop is
// safe to call concurrently and more than once.
package serverbase
