package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"
)

// FrameSource yields frames one at a time. Next blocks until a frame is
// available and returns io.EOF once the stream is exhausted. Sources are not
// safe for concurrent use.
type FrameSource interface {
	Next(ctx context.Context) (*image.RGBA, error)
	Close() error
}

// Opener builds a source from the argument following "scheme:".
type Opener func(arg string) (FrameSource, error)

// ErrUnknownSource is returned for a scheme nobody registered.
var ErrUnknownSource = errors.New("unknown frame source")

var (
	openersMu sync.RWMutex
	openers   = map[string]Opener{}
)

// RegisterSource makes a scheme available to Open.
func RegisterSource(scheme string, o Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[scheme] = o
}

// Schemes lists registered source schemes.
func Schemes() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	out := make([]string, 0, len(openers))
	for s := range openers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open parses "scheme" or "scheme:arg" and opens the matching source.
func Open(spec string) (FrameSource, error) {
	scheme, arg, _ := strings.Cut(spec, ":")
	openersMu.RLock()
	o, ok := openers[scheme]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownSource, scheme, strings.Join(Schemes(), ", "))
	}
	src, err := o(arg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", spec, err)
	}
	return src, nil
}
