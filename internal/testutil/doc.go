// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv, MustUnsetenv,
// SetConfigHome), file system setup (MustMkdirAll, MustWriteFile, WriteExecutable),
// a FakeClock for history timestamps, and a semaphore limiting concurrent
// container-backed tests.
package testutil
