package roi

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inside(r, b image.Rectangle) bool {
	return r.Min.X >= b.Min.X && r.Min.Y >= b.Min.Y && r.Max.X <= b.Max.X && r.Max.Y <= b.Max.Y
}

func TestBuildCentered(t *testing.T) {
	bounds := image.Rect(0, 0, 1019, 589)
	m := NewManager(0, 0, 0)
	r := m.Build(image.Pt(500, 300), bounds)
	assert.Equal(t, image.Rect(470, 270, 530, 330), r.Small)
	assert.Equal(t, image.Rect(350, 150, 650, 450), r.Large)
	assert.Equal(t, image.Rect(400, 200, 600, 400), r.Box)
	assert.InDelta(t, 200.0*200/(1019*589)*100, r.PercentArea, 1e-9)
}

func TestBuildClampsAtEveryEdge(t *testing.T) {
	bounds := image.Rect(0, 0, 320, 240)
	m := NewManager(30, 150, 100)
	centers := []image.Point{
		{0, 0}, {319, 239}, {5, 230}, {310, 4}, {160, 120}, {-20, 500},
	}
	for _, c := range centers {
		r := m.Build(c, bounds)
		for _, rect := range []image.Rectangle{r.Small, r.Large, r.Box} {
			assert.True(t, inside(rect, bounds), "center %v rect %v", c, rect)
		}
		assert.GreaterOrEqual(t, r.PercentArea, 0.0)
		assert.LessOrEqual(t, r.PercentArea, 100.0)
	}
	r := m.Build(image.Pt(0, 0), bounds)
	assert.Equal(t, image.Rect(0, 0, 100, 100), r.Box)
	assert.Equal(t, image.Rect(0, 0, 150, 150), r.Large)
}

func TestBuildConfigurableBox(t *testing.T) {
	m := NewManager(30, 150, 25)
	r := m.Build(image.Pt(100, 100), image.Rect(0, 0, 200, 200))
	assert.Equal(t, image.Rect(75, 75, 125, 125), r.Box)
	assert.InDelta(t, 6.25, r.PercentArea, 1e-9)
}

func TestCrop(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 50, 40))
	frame.SetRGBA(10, 10, color.RGBA{R: 9, A: 255})

	sub, r, err := Crop(frame, image.Rect(5, 5, 20, 20))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(5, 5, 20, 20), r)
	assert.Equal(t, uint8(9), sub.RGBAAt(10, 10).R)

	_, r, err = Crop(frame, image.Rect(40, 30, 90, 90))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(40, 30, 50, 40), r)

	_, r, err = Crop(frame, image.Rect(100, 100, 120, 120))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Dx())
	assert.Equal(t, 1, r.Dy())
	assert.Equal(t, image.Rect(49, 39, 50, 40), r)

	_, _, err = Crop(nil, image.Rect(0, 0, 1, 1))
	assert.Error(t, err)
}
