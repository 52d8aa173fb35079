// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state persists small UI preferences between runs: sidebar
// geometry, pagination choices, the admin-unlock flag, and the backend URL
// override. Writes are best-effort; a failed write degrades to defaults on
// the next load, never to an error the user sees.
package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// KEYS
// =============================================================================

// Well-known preference keys.
const (
	KeyAdminUnlocked    = "ADMIN_UNLOCKED"
	KeySidebarWidth     = "ragai.sidebar.width"
	KeySidebarCollapsed = "ragai.sidebar.collapsed"
	KeyLowerExpanded    = "dataTab.lowerPriority.expanded"
	KeyLowerPageSize    = "dataTab.lowerPriority.pageSize"
	KeyAPIURL           = "API_URL"
)

// Sidebar width bounds, in layout units of one-eighth column.
const (
	SidebarWidthMin     = 240
	SidebarWidthMax     = 520
	SidebarWidthDefault = 320
)

// DefaultPageSize for the lower-priority findings list.
const DefaultPageSize = 25

// PageSizes are the only accepted lower-priority page sizes.
var PageSizes = []int{10, 25, 50, 100}

// ValidPageSize reports whether n is an accepted page size.
func ValidPageSize(n int) bool {
	for _, size := range PageSizes {
		if n == size {
			return true
		}
	}
	return false
}

// ClampSidebarWidth maps any stored width into the accepted range. An
// out-of-range stored value reads as the default, not the nearest bound.
func ClampSidebarWidth(width int) int {
	if width < SidebarWidthMin || width > SidebarWidthMax {
		return SidebarWidthDefault
	}
	return width
}

// =============================================================================
// STORE
// =============================================================================

// Store is a key/value preference store backed by SQLite.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	log *logrus.Logger
}

// DefaultPath returns ~/.ragai/console.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ragai", "console.db"), nil
}

// Open opens or creates the store at path.
func Open(path string, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS preferences (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, log: log}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// =============================================================================
// RAW ACCESS
// =============================================================================

// Get returns the stored value for key, or "" when absent or unreadable.
func (s *Store) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.WithError(err).WithField("key", key).Debug("preference read failed")
		}
		return ""
	}
	return value
}

// Set stores a value. Failures are logged and otherwise ignored.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Debug("preference write failed")
	}
}

// Delete removes a key. Failures are logged and otherwise ignored.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
		s.log.WithError(err).WithField("key", key).Debug("preference delete failed")
	}
}

// =============================================================================
// TYPED PREFERENCES
// =============================================================================

// AdminUnlocked reports whether a previous run unlocked the admin surface.
func (s *Store) AdminUnlocked() bool {
	return s.Get(KeyAdminUnlocked) == "true"
}

// SetAdminUnlocked records the unlock flag.
func (s *Store) SetAdminUnlocked(unlocked bool) {
	s.Set(KeyAdminUnlocked, strconv.FormatBool(unlocked))
}

// SidebarWidth returns the stored sidebar width, clamped; anything missing
// or out of range reads as the default.
func (s *Store) SidebarWidth() int {
	width, err := strconv.Atoi(s.Get(KeySidebarWidth))
	if err != nil {
		return SidebarWidthDefault
	}
	return ClampSidebarWidth(width)
}

// SetSidebarWidth stores the width as given; clamping happens on read.
func (s *Store) SetSidebarWidth(width int) {
	s.Set(KeySidebarWidth, strconv.Itoa(width))
}

// SidebarCollapsed returns the stored collapse flag.
func (s *Store) SidebarCollapsed() bool {
	return s.Get(KeySidebarCollapsed) == "true"
}

// SetSidebarCollapsed stores the collapse flag. The width key is left
// untouched so expanding restores the previous width.
func (s *Store) SetSidebarCollapsed(collapsed bool) {
	s.Set(KeySidebarCollapsed, strconv.FormatBool(collapsed))
}

// LowerExpanded returns whether the lower-priority findings list was left
// expanded.
func (s *Store) LowerExpanded() bool {
	return s.Get(KeyLowerExpanded) == "true"
}

// SetLowerExpanded stores the expand flag.
func (s *Store) SetLowerExpanded(expanded bool) {
	s.Set(KeyLowerExpanded, strconv.FormatBool(expanded))
}

// LowerPageSize returns the stored page size, falling back to the default
// for anything outside the accepted set.
func (s *Store) LowerPageSize() int {
	size, err := strconv.Atoi(s.Get(KeyLowerPageSize))
	if err != nil || !ValidPageSize(size) {
		return DefaultPageSize
	}
	return size
}

// SetLowerPageSize stores a page size; values outside the accepted set are
// ignored.
func (s *Store) SetLowerPageSize(size int) {
	if !ValidPageSize(size) {
		return
	}
	s.Set(KeyLowerPageSize, strconv.Itoa(size))
}

// APIURL returns the backend URL override, if any.
func (s *Store) APIURL() string {
	return s.Get(KeyAPIURL)
}

// SetAPIURL stores the backend URL override; empty clears it.
func (s *Store) SetAPIURL(url string) {
	if url == "" {
		s.Delete(KeyAPIURL)
		return
	}
	s.Set(KeyAPIURL, url)
}
