package maskbrush

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// halfBlackPhoto is black on the top half and white on the bottom half.
func halfBlackPhoto(w, h int) *image.NRGBA {
	img := uniformImage(w, h, color.White)
	draw.Draw(img, image.Rect(0, 0, w, h/2), &image.Uniform{color.Black}, image.Point{}, draw.Src)
	return img
}

func TestProcessor_Run(t *testing.T) {
	p := &Processor{Brush: DefaultBrush()}
	out, err := p.Run(RasterFromImage(halfBlackPhoto(20, 20)))
	require.NoError(t, err)

	// the overlay is flipped vertically, so the dark half ends up at the bottom
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0x4d}, out.Overlay.NRGBAAt(5, 15))
	assert.Equal(t, color.NRGBA{}, out.Overlay.NRGBAAt(5, 5))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, out.Mask.NRGBAAt(5, 15))
	assert.Equal(t, color.NRGBA{}, out.Mask.NRGBAAt(5, 5))
	assert.Equal(t, 0, out.Canvas.UndoDepth())
	assert.Empty(t, out.Faces)

	_, err = p.Run(nil)
	assert.Error(t, err)
}

func TestProcessor_RawAndInvalidBrush(t *testing.T) {
	p := &Processor{Raw: true}
	photo := RasterFromImage(halfBlackPhoto(10, 10))
	out, err := p.Run(photo)
	require.NoError(t, err)

	assert.True(t, out.Overlay.Equal(photo))
	assert.Equal(t, 1.0, Coverage(out.Mask))
	assert.Equal(t, DefaultBrush(), out.Canvas.Brush())
}

func TestProcessor_Script(t *testing.T) {
	script, err := ParseScript(strings.NewReader(`
steps:
  - brush: {alpha: 1, width: 4, mode: erase}
  - stroke: [[0, 15], [20, 15]]
`))
	require.NoError(t, err)

	p := &Processor{Brush: DefaultBrush(), Script: script}
	out, err := p.Run(RasterFromImage(halfBlackPhoto(20, 20)))
	require.NoError(t, err)

	assert.Zero(t, out.Overlay.NRGBAAt(10, 15).A)
	assert.Zero(t, out.Mask.NRGBAAt(10, 15).A)
	assert.Equal(t, uint8(0x4d), out.Overlay.NRGBAAt(10, 18).A)
	assert.Equal(t, 1, out.Canvas.UndoDepth())

	script.Steps = append(script.Steps, Step{Clear: true})
	out, err = p.Run(RasterFromImage(halfBlackPhoto(20, 20)))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 20), out.Overlay.Size())
	assert.Zero(t, Coverage(out.Mask))

	script.Steps = []Step{{Faces: true}}
	_, err = p.Run(RasterFromImage(halfBlackPhoto(20, 20)))
	assert.Error(t, err)
}

func TestProcessor_Faces(t *testing.T) {
	fs, err := NewFaceSeeder(stubCascade())
	require.NoError(t, err)

	p := &Processor{Brush: DefaultBrush(), Seeder: fs}
	photo := RasterFromImage(uniformImage(64, 64, color.White))

	out, err := p.Run(photo)
	require.NoError(t, err)
	require.NotEmpty(t, out.Faces)
	assert.Equal(t, 1, out.Canvas.UndoDepth())
	assert.Greater(t, Coverage(out.Mask), 0.0)

	p.Script = &Script{}
	out, err = p.Run(photo)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Faces)
	assert.Equal(t, 0, out.Canvas.UndoDepth())
	assert.Zero(t, Coverage(out.Mask))
}

func TestProcessor_Process(t *testing.T) {
	p := &Processor{Brush: DefaultBrush()}

	var buf bytes.Buffer
	err := p.Process(bytes.NewReader(encodePNG(t, halfBlackPhoto(8, 8))), &buf)
	require.NoError(t, err)

	r, err := DecodeRaster(&buf)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0x4d}, r.NRGBAAt(0, 7))
	assert.Equal(t, color.NRGBA{}, r.NRGBAAt(0, 0))

	err = p.Process(strings.NewReader("garbage"), &buf)
	assert.Error(t, err)
}

func TestProcessor_Preview(t *testing.T) {
	photo := RasterFromImage(halfBlackPhoto(10, 10))
	overlay := NewRaster(5, 5)

	p := &Processor{}
	prev, err := p.Preview(photo, overlay)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 10), prev.Bounds())
	assert.Equal(t, color.NRGBA{A: 0xff}, prev.NRGBAAt(2, 2))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, prev.NRGBAAt(2, 8))

	prev, err = p.Preview(photo, nil)
	require.NoError(t, err)
	assert.Equal(t, photo.Image(), prev)

	p.Blend = "multiply"
	_, err = p.Preview(photo, overlay)
	assert.NoError(t, err)

	p.Blend = "smudge"
	_, err = p.Preview(photo, overlay)
	assert.Error(t, err)

	_, err = p.Preview(nil, overlay)
	assert.Error(t, err)
}

func TestProcessor_PreviewAlignsOverlay(t *testing.T) {
	p := &Processor{Brush: DefaultBrush()}
	photo := RasterFromImage(halfBlackPhoto(20, 20))
	out, err := p.Run(photo)
	require.NoError(t, err)

	prev, err := p.Preview(out.Photo, out.Overlay)
	require.NoError(t, err)

	// the tint covers the dark half it was derived from
	assert.Equal(t, color.NRGBA{R: 0x4d, A: 0xff}, prev.NRGBAAt(5, 5))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, prev.NRGBAAt(5, 15))

	p.Raw = true
	out, err = p.Run(photo)
	require.NoError(t, err)
	prev, err = p.Preview(out.Photo, out.Overlay)
	require.NoError(t, err)
	assert.Equal(t, photo.Image(), prev)
}
