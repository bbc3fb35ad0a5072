package identity

import (
	"image"
	"image/color"
	"math"
)

// Defaults for association.
const (
	DefaultMinIdentities = 3
	DefaultColorDistance = 250
)

// Record is the last observation of one identity.
type Record struct {
	ID       int
	Location image.Point
	Color    color.RGBA
}

// Tracker associates observations with persistent identities by nearest
// location and nearest color. Identities are never retired.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	// records is indexed by id; ids are handed out densely from 0, so
	// iteration order is creation order.
	records       []Record
	minIdentities int
	maxColorDist  int
}

// New returns a tracker. minIdentities is the number of identities that must
// exist before matching is attempted; maxColorDist is the exclusive L1 color
// distance bound. A negative minIdentities or a non-positive maxColorDist
// selects the default; a minIdentities of 0 matches from the first identity.
func New(minIdentities, maxColorDist int) *Tracker {
	if minIdentities < 0 {
		minIdentities = DefaultMinIdentities
	}
	if maxColorDist <= 0 {
		maxColorDist = DefaultColorDistance
	}
	return &Tracker{minIdentities: minIdentities, maxColorDist: maxColorDist}
}

// Len returns the number of identities.
func (t *Tracker) Len() int { return len(t.records) }

// Get returns the stored record for id.
func (t *Tracker) Get(id int) (Record, bool) {
	if id < 0 || id >= len(t.records) {
		return Record{}, false
	}
	return t.records[id], true
}

// Records returns all identities ordered by id.
func (t *Tracker) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Check assigns the observation to an identity and stores it as that
// identity's latest state. created reports whether a new identity was made.
func (t *Tracker) Check(loc image.Point, c color.RGBA) (id int, created bool) {
	locID, locOK := t.nearestLocation(loc)
	colID, colOK := t.nearestColor(c)
	if len(t.records) < t.minIdentities || !locOK || !colOK || locID != colID {
		id = len(t.records)
		t.records = append(t.records, Record{ID: id, Location: loc, Color: c})
		return id, true
	}
	t.records[locID] = Record{ID: locID, Location: loc, Color: c}
	return locID, false
}

func (t *Tracker) nearestLocation(loc image.Point) (int, bool) {
	best, found := 0, false
	bestDist := math.Inf(1)
	for _, r := range t.records {
		d := Euclidean(r.Location, loc)
		if d < bestDist {
			best, bestDist, found = r.ID, d, true
		}
	}
	return best, found
}

func (t *Tracker) nearestColor(c color.RGBA) (int, bool) {
	best, found := 0, false
	bestDist := t.maxColorDist
	for _, r := range t.records {
		d := L1(r.Color, c)
		if d < bestDist {
			best, bestDist, found = r.ID, d, true
		}
	}
	return best, found
}

// Euclidean is the straight-line distance between two points.
func Euclidean(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// L1 is the sum of absolute RGB channel differences.
func L1(a, b color.RGBA) int {
	abs := func(x int) int {
		if x < 0 {
			return -x
		}
		return x
	}
	return abs(int(a.R)-int(b.R)) + abs(int(a.G)-int(b.G)) + abs(int(a.B)-int(b.B))
}
