package identity

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orange = color.RGBA{R: 230, G: 120, B: 40, A: 255}
	green  = color.RGBA{R: 60, G: 200, B: 60, A: 255}
	blue   = color.RGBA{R: 60, G: 60, B: 200, A: 255}
)

func seeded(t *testing.T) *Tracker {
	t.Helper()
	tr := New(DefaultMinIdentities, DefaultColorDistance)
	for i, obs := range []struct {
		loc image.Point
		c   color.RGBA
	}{
		{image.Pt(100, 100), orange},
		{image.Pt(400, 120), green},
		{image.Pt(250, 380), blue},
	} {
		id, created := tr.Check(obs.loc, obs.c)
		require.True(t, created)
		require.Equal(t, i, id)
	}
	return tr
}

func TestFewerThanMinimumAlwaysCreates(t *testing.T) {
	tr := New(3, 250)
	for i := 0; i < 3; i++ {
		before := tr.Len()
		// Same observation every time; still a new identity.
		id, created := tr.Check(image.Pt(10, 10), orange)
		assert.True(t, created)
		assert.Equal(t, i, id)
		assert.Equal(t, before+1, tr.Len())
	}
}

func TestAgreeingMatchReturnsExistingIdentity(t *testing.T) {
	tr := seeded(t)
	moved := image.Pt(403, 118)
	shade := color.RGBA{R: 70, G: 190, B: 55, A: 255}
	id, created := tr.Check(moved, shade)
	assert.False(t, created)
	assert.Equal(t, 1, id)
	assert.Equal(t, 3, tr.Len())
	rec, ok := tr.Get(1)
	require.True(t, ok)
	if diff := cmp.Diff(Record{ID: 1, Location: moved, Color: shade}, rec); diff != "" {
		t.Fatalf("record not overwritten (-want +got):\n%s", diff)
	}
}

func TestDisagreementCreates(t *testing.T) {
	tr := seeded(t)
	// Nearest by location is 0 (orange) but nearest by color is 2 (blue).
	id, created := tr.Check(image.Pt(105, 100), blue)
	assert.True(t, created)
	assert.Equal(t, 3, id)
	assert.Equal(t, 4, tr.Len())
	rec, _ := tr.Get(0)
	assert.Equal(t, image.Pt(100, 100), rec.Location, "other identities untouched")
}

func TestColorTooFarCreates(t *testing.T) {
	tr := seeded(t)
	id, created := tr.Check(image.Pt(100, 100), color.RGBA{R: 255, G: 255, B: 255, A: 255})
	assert.True(t, created)
	assert.Equal(t, 3, id)
}

func TestColorBoundIsExclusive(t *testing.T) {
	tr := New(0, 250)
	tr.Check(image.Pt(0, 0), color.RGBA{})
	// L1 distance exactly 250.
	_, created := tr.Check(image.Pt(0, 0), color.RGBA{R: 250})
	assert.True(t, created)

	tr = New(0, 250)
	tr.Check(image.Pt(0, 0), color.RGBA{})
	_, created = tr.Check(image.Pt(0, 0), color.RGBA{R: 249})
	assert.False(t, created)
}

func TestTiesBreakToFirstIdentity(t *testing.T) {
	tr := New(2, 250)
	tr.Check(image.Pt(0, 0), orange)
	tr.Check(image.Pt(20, 0), orange)
	// Equidistant in location and identical in color to both.
	id, created := tr.Check(image.Pt(10, 0), orange)
	assert.False(t, created)
	assert.Equal(t, 0, id)
}

func TestIdsStayUnique(t *testing.T) {
	tr := New(3, 250)
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		id, created := tr.Check(image.Pt(i*37%500, i*91%400), color.RGBA{R: uint8(i * 5), G: 100, B: 50, A: 255})
		if created {
			assert.False(t, seen[id], "id %d reused", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, tr.Len())
	recs := tr.Records()
	for i := 1; i < len(recs); i++ {
		assert.Less(t, recs[i-1].ID, recs[i].ID)
	}
}

func TestNewDefaults(t *testing.T) {
	tr := New(-1, 0)
	assert.Equal(t, DefaultMinIdentities, tr.minIdentities)
	assert.Equal(t, DefaultColorDistance, tr.maxColorDist)

	// Zero minimum matches as soon as one identity exists.
	tr = New(0, 250)
	id, created := tr.Check(image.Pt(5, 5), orange)
	require.True(t, created)
	id2, created := tr.Check(image.Pt(6, 5), orange)
	assert.False(t, created)
	assert.Equal(t, id, id2)
}

func TestManyIdentitiesKeepCreationOrder(t *testing.T) {
	tr := New(0, 1)
	for i := 0; i < 200; i++ {
		id, created := tr.Check(image.Pt(i*2, 0), color.RGBA{R: uint8(i), A: 255})
		require.True(t, created)
		require.Equal(t, i, id)
	}
	// Identical in color to id 7, equidistant from ids 7 and 8.
	tr.maxColorDist = 250
	id, created := tr.Check(image.Pt(15, 0), color.RGBA{R: 7, A: 255})
	assert.False(t, created)
	assert.Equal(t, 7, id)

	r, ok := tr.Get(7)
	require.True(t, ok)
	assert.Equal(t, image.Pt(15, 0), r.Location)
	_, ok = tr.Get(200)
	assert.False(t, ok)
	_, ok = tr.Get(-1)
	assert.False(t, ok)
	assert.Len(t, tr.Records(), 200)
}

func TestDistances(t *testing.T) {
	assert.InDelta(t, 5.0, Euclidean(image.Pt(0, 0), image.Pt(3, 4)), 1e-12)
	assert.Equal(t, 30, L1(color.RGBA{R: 10, G: 20, B: 30}, color.RGBA{R: 20, G: 10, B: 20}))
}
