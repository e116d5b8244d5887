// SPDX-License-Identifier: MPL-2.0

// Package sshserver serves the tag tree browser over SSH with wish.
//
// Every SSH session gets its own browser program bound to the shared
// indexing session, styled for the remote terminal and refreshed on every
// tree update. Sessions without a PTY are rejected.
package sshserver
