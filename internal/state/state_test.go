// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "console.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSidebarWidthClamping(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   int
	}{
		{name: "missing reads default", stored: "", want: 320},
		{name: "in range kept", stored: "400", want: 400},
		{name: "lower bound kept", stored: "240", want: 240},
		{name: "upper bound kept", stored: "520", want: 520},
		{name: "below range reads default", stored: "100", want: 320},
		{name: "above range reads default", stored: "9000", want: 320},
		{name: "garbage reads default", stored: "wide", want: 320},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := openTestStore(t)
			if tt.stored != "" {
				store.Set(KeySidebarWidth, tt.stored)
			}
			if got := store.SidebarWidth(); got != tt.want {
				t.Errorf("SidebarWidth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCollapsePreservesWidth(t *testing.T) {
	store := openTestStore(t)
	store.SetSidebarWidth(480)
	store.SetSidebarCollapsed(true)

	if !store.SidebarCollapsed() {
		t.Error("collapse flag not stored")
	}
	if got := store.SidebarWidth(); got != 480 {
		t.Errorf("width after collapse = %d, want 480", got)
	}

	store.SetSidebarCollapsed(false)
	if got := store.SidebarWidth(); got != 480 {
		t.Errorf("width after expand = %d, want 480", got)
	}
}

func TestPageSizeValidation(t *testing.T) {
	store := openTestStore(t)

	if got := store.LowerPageSize(); got != 25 {
		t.Errorf("default page size = %d, want 25", got)
	}

	store.SetLowerPageSize(50)
	if got := store.LowerPageSize(); got != 50 {
		t.Errorf("page size = %d, want 50", got)
	}

	// Rejected values leave the previous choice in place.
	store.SetLowerPageSize(33)
	if got := store.LowerPageSize(); got != 50 {
		t.Errorf("page size after invalid set = %d, want 50", got)
	}

	// A stored-out-of-set value (e.g. written by an older build) reads as
	// the default.
	store.Set(KeyLowerPageSize, "12")
	if got := store.LowerPageSize(); got != 25 {
		t.Errorf("out-of-set stored value reads %d, want 25", got)
	}
}

func TestAdminUnlockedRoundTrip(t *testing.T) {
	store := openTestStore(t)
	if store.AdminUnlocked() {
		t.Error("fresh store should read locked")
	}
	store.SetAdminUnlocked(true)
	if !store.AdminUnlocked() {
		t.Error("unlock flag not stored")
	}
	store.SetAdminUnlocked(false)
	if store.AdminUnlocked() {
		t.Error("lock flag not stored")
	}
}

// TestConcurrentAccess exercises the store from many goroutines at once.
// The sqlite driver serializes writes internally; this guards against
// regressions if the store ever grows in-process caching.
func TestConcurrentAccess(t *testing.T) {
	store := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%5)
			store.Set(key, fmt.Sprintf("v%d", n))
			_ = store.Get(key)
			_ = store.AdminUnlocked()
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("k%d", i)
		require.NotEmpty(t, store.Get(key), "key %s lost after concurrent writes", key)
	}
}

func TestAPIURLOverride(t *testing.T) {
	store := openTestStore(t)
	if store.APIURL() != "" {
		t.Error("fresh store should have no override")
	}
	store.SetAPIURL("http://10.0.0.5:8000")
	if got := store.APIURL(); got != "http://10.0.0.5:8000" {
		t.Errorf("override = %q", got)
	}
	store.SetAPIURL("")
	if store.APIURL() != "" {
		t.Error("empty set should clear the override")
	}
}
