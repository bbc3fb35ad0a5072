package blob

import (
	"fmt"
	"sync"
)

var (
	enginesMu sync.RWMutex
	engines   = map[string]ContourEngine{"native": Tracer{}}
)

// RegisterEngine makes a contour backend available by name.
func RegisterEngine(name string, e ContourEngine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[name] = e
}

// Engine returns the contour backend registered under name.
func Engine(name string) (ContourEngine, error) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	e, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown contour engine %q", name)
	}
	return e, nil
}
