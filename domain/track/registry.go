package track

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownTracker is returned when no factory is registered under a name.
var ErrUnknownTracker = errors.New("unknown tracker")

// VisualTracker follows one object from an initial box.
type VisualTracker interface {
	Init(frame *image.RGBA, box image.Rectangle) bool
	Update(frame *image.RGBA) (image.Rectangle, bool)
	Close() error
}

// Factory constructs a fresh tracker instance.
type Factory func() (VisualTracker, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a tracker available by name. Registering a name twice
// replaces the earlier factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownTracker, name, strings.Join(namesLocked(), ", "))
	}
	return f, nil
}

// Names lists registered trackers, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
