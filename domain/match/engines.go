package match

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// NativeEngine names the pure-Go engine.
const NativeEngine = "native"

// ErrUnknownEngine is returned when no engine is registered under a name.
var ErrUnknownEngine = errors.New("unknown correlation engine")

// EngineFactory builds an engine. stride is a hint for engines that support
// coarse scanning and may be ignored.
type EngineFactory func(stride int) CorrelationEngine

var (
	enginesMu sync.RWMutex
	engines   = map[string]EngineFactory{
		NativeEngine: func(stride int) CorrelationEngine { return NewNCC(stride) },
	}
)

// RegisterEngine makes a correlation backend available by name.
func RegisterEngine(name string, f EngineFactory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[name] = f
}

// NewEngine builds the engine registered under name.
func NewEngine(name string, stride int) (CorrelationEngine, error) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	f, ok := engines[name]
	if !ok {
		names := make([]string, 0, len(engines))
		for n := range engines {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownEngine, name, strings.Join(names, ", "))
	}
	return f(stride), nil
}
