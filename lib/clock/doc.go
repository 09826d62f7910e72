// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock interface parameter instead of calling
// time.Now or time.After directly. In production, Real() provides the
// standard library behavior. In tests, Fake() provides a deterministic
// clock that advances only when Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Client struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	c := &Client{clock: clock.Real()}
//
// In tests:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c := &Client{clock: fake}
//	// ... start goroutines ...
//	fake.WaitForTimers(1)            // wait for goroutine to call After
//	fake.Advance(5 * time.Second)    // fire the wait deterministically
//
// # FakeClock Synchronization
//
// When a goroutine calls After on a FakeClock, it registers a pending
// waiter. Use WaitForTimers to block until a specific number of waiters
// are registered before calling Advance. This eliminates the race
// between waiter registration and time advancement that plagues tests
// using time.Sleep for synchronization.
package clock
