// Package data provides thread-safe in-memory state for the report analysis API.
// It holds the process-lifetime prompt history, the last dependency probe
// results and the server start time. Readers never take a lock: every write
// publishes a new snapshot through atomic.Value.
package data

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/hireshawk-api/entities"
	"github.com/giygas/hireshawk-api/interfaces"
	"github.com/giygas/hireshawk-api/logging"
	"github.com/google/uuid"
)

// Compile-time check to ensure DataContainer implements HistoryStore
var _ interfaces.HistoryStore = (*DataContainer)(nil)

// DataContainer holds the history and dependency state behind atomic snapshots
type DataContainer struct {
	history         atomic.Value // []entities.HistoryEntry
	dependencies    atomic.Value // map[string]entities.DependencyStatus
	serverStartTime atomic.Value // time.Time

	// writeMu serializes copy-on-write updates
	writeMu sync.Mutex
	now     func() time.Time
}

// NewDataContainer creates a new DataContainer with empty history
func NewDataContainer() *DataContainer {
	dc := &DataContainer{now: time.Now}
	dc.history.Store(make([]entities.HistoryEntry, 0))
	dc.dependencies.Store(make(map[string]entities.DependencyStatus))
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// Append stores a copy of entry with a fresh id and timestamp and returns it.
// Existing entries are never modified.
func (dc *DataContainer) Append(entry entities.HistoryEntry) entities.HistoryEntry {
	entry.ID = uuid.NewString()
	entry.CreatedAt = dc.now().UTC()
	entry.Outputs = append([]string(nil), entry.Outputs...)

	dc.writeMu.Lock()
	defer dc.writeMu.Unlock()

	current := dc.Entries()
	next := make([]entities.HistoryEntry, len(current), len(current)+1)
	copy(next, current)
	next = append(next, entry)
	dc.history.Store(next)

	logging.Debug("History entry appended", "id", entry.ID, "mode", entry.Mode, "entries", len(next))
	return entry
}

// Entries returns the history in append order. The slice must not be modified.
func (dc *DataContainer) Entries() []entities.HistoryEntry {
	if v := dc.history.Load(); v != nil {
		if entries, ok := v.([]entities.HistoryEntry); ok {
			return entries
		}
	}

	logging.Warn("History is empty or invalid")
	return []entities.HistoryEntry{}
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns all.
func (dc *DataContainer) Recent(limit int) []entities.HistoryEntry {
	entries := dc.Entries()
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}

	recent := make([]entities.HistoryEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, entries[i])
	}
	return recent
}

// Count returns the number of history entries
func (dc *DataContainer) Count() int {
	return len(dc.Entries())
}

// SetDependencyStatus records the latest probe result for one dependency
func (dc *DataContainer) SetDependencyStatus(status entities.DependencyStatus) {
	dc.writeMu.Lock()
	defer dc.writeMu.Unlock()

	current := dc.DependencyStatuses()
	next := make(map[string]entities.DependencyStatus, len(current)+1)
	for name, s := range current {
		next[name] = s
	}
	next[status.Name] = status
	dc.dependencies.Store(next)
}

// DependencyStatuses returns the last probe result per dependency.
// The map must not be modified.
func (dc *DataContainer) DependencyStatuses() map[string]entities.DependencyStatus {
	if v := dc.dependencies.Load(); v != nil {
		if statuses, ok := v.(map[string]entities.DependencyStatus); ok {
			return statuses
		}
	}

	logging.Warn("Dependency statuses are empty or invalid")
	return map[string]entities.DependencyStatus{}
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}
