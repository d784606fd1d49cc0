package domain

import "time"

// ChangeEvent is a single relevant filesystem change observed by the watcher.
// Events are transient: they carry no identity beyond their values and are
// consumed immediately by the debouncer.
type ChangeEvent struct {
	Path       string
	ObservedAt time.Time
}
