package model

import (
	"sync"
	"time"
)

// Level classifies a flash message for rendering.
type Level int

const (
	Info Level = iota
	Error
)

// Flash holds one transient notification message.
type Flash struct {
	mu      sync.RWMutex
	message string
	level   Level
	expires time.Time
}

// Set stores a flash message that expires after the given duration.
func (f *Flash) Set(msg string, level Level, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.level = level
	f.expires = time.Now().Add(d)
}

// Get returns the current flash message and level, or empty if expired.
func (f *Flash) Get() (string, Level) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.expires) {
		return "", Info
	}
	return f.message, f.level
}

// Clear drops the message immediately.
func (f *Flash) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires = time.Time{}
}
