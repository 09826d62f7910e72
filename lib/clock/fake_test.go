// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	want := epoch.Add(5 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockAfterFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	// Should not fire yet.
	select {
	case <-channel:
		t.Fatal("After fired before Advance")
	default:
	}

	// Advance past the deadline.
	clock.Advance(3 * time.Second)

	select {
	case <-channel:
	default:
		t.Fatal("After did not fire after Advance")
	}
}

func TestFakeClockAfterZeroDuration(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(0)

	select {
	case <-channel:
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestFakeClockAfterNegativeDuration(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(-1 * time.Second)

	select {
	case <-channel:
	default:
		t.Fatal("After(-1s) should fire immediately")
	}
}

func TestFakeClockAfterPartialAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(5 * time.Second)

	clock.Advance(3 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before deadline")
	default:
	}

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
	default:
		t.Fatal("After did not fire at exact deadline")
	}
}

func TestFakeClockAfterReceivesFireTime(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(2 * time.Second)

	clock.Advance(10 * time.Second)
	fired := <-channel
	want := epoch.Add(10 * time.Second)
	if !fired.Equal(want) {
		t.Fatalf("After received %v, want %v", fired, want)
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	clock := Fake(epoch)

	received := make(chan time.Time)
	go func() {
		received <- <-clock.After(5 * time.Second)
	}()

	clock.WaitForTimers(1)
	if got := clock.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d, want 1", got)
	}

	clock.Advance(5 * time.Second)
	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter did not fire after Advance")
	}

	if got := clock.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() after fire = %d, want 0", got)
	}
}

func TestFakeClockMultipleWaiters(t *testing.T) {
	clock := Fake(epoch)
	first := clock.After(1 * time.Second)
	second := clock.After(2 * time.Second)
	third := clock.After(10 * time.Second)

	clock.Advance(2 * time.Second)

	select {
	case <-first:
	default:
		t.Fatal("first waiter did not fire")
	}
	select {
	case <-second:
	default:
		t.Fatal("second waiter did not fire")
	}
	select {
	case <-third:
		t.Fatal("third waiter fired early")
	default:
	}
	if got := clock.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d, want 1", got)
	}
}
