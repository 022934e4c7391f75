package maskbrush

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrush_Defaults(t *testing.T) {
	assert := assert.New(t)

	b := DefaultBrush()
	assert.Equal(20.0, b.Width)
	assert.Equal(Paint, b.Mode)
	assert.Equal(color.NRGBA{R: 255, A: 77}, b.Color)
	assert.True(b.Valid())

	b.Width = 0
	assert.False(b.Valid())
	b.Width = math.NaN()
	assert.False(b.Valid())
	b.Width = math.Inf(1)
	assert.False(b.Valid())
}

func TestBrush_ParseBlendMode(t *testing.T) {
	assert := assert.New(t)

	for in, want := range map[string]BlendMode{
		"paint":   Paint,
		"Brush":   Paint,
		" erase ": Erase,
		"eraser":  Erase,
	} {
		got, err := ParseBlendMode(in)
		assert.NoError(err, in)
		assert.Equal(want, got, in)
	}

	_, err := ParseBlendMode("smudge")
	assert.Error(err)
	assert.Equal("erase", Erase.String())
	assert.Equal("BlendMode(7)", BlendMode(7).String())
}

func TestBrush_BrushColor(t *testing.T) {
	assert := assert.New(t)

	green := color.RGBA{G: 200, A: 255}
	assert.Equal(color.NRGBA{G: 200, A: 128}, BrushColor(green, 0.5))
	assert.Equal(color.NRGBA{G: 200, A: 255}, BrushColor(green, 1))
	assert.Equal(color.NRGBA{G: 200, A: 0}, BrushColor(green, -3))
	assert.Equal(color.NRGBA{G: 200, A: 255}, BrushColor(green, 7))
}
