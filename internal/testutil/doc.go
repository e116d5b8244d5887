// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Helpers cover project fixtures on disk (MustWriteFile, MustWriteTree),
// resource cleanup (MustClose, MustStop) and polling for asynchronous
// effects (Eventually).
package testutil
