// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"slices"
	"sync"
	"testing"
	"time"
)

func TestNewFakeClock_DefaultTime(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !clock.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", clock.Now(), want)
	}
}

func TestFakeClock_SleepAdvancesAndRecords(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	clock.Sleep(200 * time.Millisecond)
	clock.Sleep(400 * time.Millisecond)
	clock.Advance(time.Second)

	if got := clock.Now().Sub(start); got != 1600*time.Millisecond {
		t.Errorf("elapsed = %v, want 1.6s", got)
	}
	want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}
	if !slices.Equal(clock.Sleeps(), want) {
		t.Errorf("Sleeps() = %v, want %v", clock.Sleeps(), want)
	}
}

func TestFakeClock_Concurrent(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			clock.Sleep(time.Millisecond)
			_ = clock.Now()
		})
	}
	wg.Wait()

	if len(clock.Sleeps()) != 10 {
		t.Errorf("recorded %d sleeps, want 10", len(clock.Sleeps()))
	}
}
