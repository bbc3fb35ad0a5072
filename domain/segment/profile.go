package segment

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
)

// ErrUnknownColorProfile is returned when a profile name is not registered.
var ErrUnknownColorProfile = errors.New("unknown color profile")

// Profile is an inclusive per-channel RGB box.
type Profile struct {
	Name  string
	Lower color.RGBA
	Upper color.RGBA
}

// Contains reports whether every channel of c lies within the profile bounds.
func (p Profile) Contains(c color.RGBA) bool {
	return inRange(c.R, c.G, c.B, p)
}

func inRange(r, g, b uint8, p Profile) bool {
	return r >= p.Lower.R && r <= p.Upper.R &&
		g >= p.Lower.G && g <= p.Upper.G &&
		b >= p.Lower.B && b <= p.Upper.B
}

var profiles = map[string]Profile{
	"red": {
		Name:  "red",
		Lower: color.RGBA{R: 168, G: 13, B: 13, A: 255},
		Upper: color.RGBA{R: 242, G: 101, B: 101, A: 255},
	},
	"orange": {
		Name:  "orange",
		Lower: color.RGBA{R: 190, G: 70, B: 0, A: 255},
		Upper: color.RGBA{R: 255, G: 170, B: 90, A: 255},
	},
	"green": {
		Name:  "green",
		Lower: color.RGBA{R: 13, G: 155, B: 13, A: 255},
		Upper: color.RGBA{R: 111, G: 232, B: 111, A: 255},
	},
	"blue": {
		Name:  "blue",
		Lower: color.RGBA{R: 17, G: 17, B: 127, A: 255},
		Upper: color.RGBA{R: 116, G: 116, B: 224, A: 255},
	},
}

// Lookup returns the named profile.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownColorProfile, name)
	}
	return p, nil
}

// Names returns the registered profile names, sorted.
func Names() []string {
	out := make([]string, 0, len(profiles))
	for n := range profiles {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
