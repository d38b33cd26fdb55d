package errors

import (
	"fmt"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[int]*Errno)
)

// Register records e in the global registry and returns it.
// It panics on a duplicate code so clashes surface at init time.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := registry[e.Code]; ok {
		panic(fmt.Sprintf("errno: duplicate code %d (%q already registered as %q)",
			e.Code, e.MessageEN, existing.MessageEN))
	}
	registry[e.Code] = e
	return e
}

// Lookup finds a registered Errno by code.
func Lookup(code int) (*Errno, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[code]
	return e, ok
}
