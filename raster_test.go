package maskbrush

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"testing"

	"github.com/esimov/maskbrush/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaster_NewRaster(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(NewRaster(0, 10))
	assert.Nil(NewRaster(10, -1))

	r := NewRaster(3, 2)
	require.NotNil(t, r)
	assert.Equal(3, r.Width())
	assert.Equal(2, r.Height())
	assert.Equal(image.Rect(0, 0, 3, 2), r.Bounds())
	assert.Equal(int64(3*2*4), r.Bytes())
	assert.Equal(color.NRGBA{}, r.NRGBAAt(1, 1))
}

func TestRaster_NilIsSafe(t *testing.T) {
	assert := assert.New(t)

	var r *Raster
	assert.Zero(r.Width())
	assert.Zero(r.Height())
	assert.True(r.Bounds().Empty())
	assert.Equal(color.NRGBA{}, r.NRGBAAt(0, 0))
	assert.Nil(r.Image())
	assert.Nil(r.Resize(10, 10))
	assert.True(r.Equal(nil))
	assert.False(r.Equal(NewRaster(1, 1)))
	assert.Nil(RasterFromImage(nil))
	assert.Nil(RasterFromImage(image.NewNRGBA(image.Rect(0, 0, 0, 4))))
}

func TestRaster_IsImmutable(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 255})

	r := RasterFromImage(src)
	src.SetNRGBA(0, 0, color.NRGBA{G: 20, A: 255})
	assert.Equal(t, color.NRGBA{R: 10, A: 255}, r.NRGBAAt(0, 0))

	img := r.Image()
	img.SetNRGBA(0, 0, color.NRGBA{B: 30, A: 255})
	assert.Equal(t, color.NRGBA{R: 10, A: 255}, r.NRGBAAt(0, 0))
}

func TestRaster_Equal(t *testing.T) {
	assert := assert.New(t)

	a := NewRaster(2, 2)
	b := NewRaster(2, 2)
	assert.True(a.Equal(b))
	assert.False(a.Equal(NewRaster(2, 3)))

	img := b.Image()
	img.SetNRGBA(1, 1, color.NRGBA{A: 1})
	assert.False(a.Equal(RasterFromImage(img)))
}

func TestRaster_Resize(t *testing.T) {
	assert := assert.New(t)

	r := NewRaster(40, 20)
	assert.Same(r, r.Resize(40, 20))

	res := r.Resize(20, 0)
	require.NotNil(t, res)
	assert.Equal(image.Pt(20, 10), res.Size())
	assert.Nil(r.Resize(0, 0))
}

func TestRaster_ImgToNRGBA(t *testing.T) {
	rect := image.Rect(-1, -1, 15, 15)
	colors := palette.Plan9
	testCases := []struct {
		name string
		img  image.Image
	}{
		{
			name: "NRGBA",
			img:  makeNRGBAImage(rect, colors),
		},
		{
			name: "YCbCr-444",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio444),
		},
		{
			name: "YCbCr-420",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio420),
		},
		{
			name: "Paletted",
			img:  makePalettedImage(rect, colors),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := RasterFromImage(tc.img)
			require.NotNil(t, r)

			b := tc.img.Bounds()
			assert.Equal(t, b.Size(), r.Size())
			for y := b.Min.Y; y < b.Max.Y; y++ {
				got := r.img.Pix[r.img.PixOffset(0, y-b.Min.Y):r.img.PixOffset(0, y-b.Min.Y+1)]
				want := readRow(tc.img, y)
				if !compareBytes(got, want, 1) {
					t.Errorf("row %d: got %v want %v", y, got, want)
				}
			}
		})
	}
}

func makeYCbCrImage(rect image.Rectangle, colors []color.Color, sr image.YCbCrSubsampleRatio) *image.YCbCr {
	img := image.NewYCbCr(rect, sr)
	j := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			iy := img.YOffset(x, y)
			ic := img.COffset(x, y)
			c := color.NRGBAModel.Convert(colors[j]).(color.NRGBA)
			img.Y[iy], img.Cb[ic], img.Cr[ic] = color.RGBToYCbCr(c.R, c.G, c.B)
			j++
		}
	}
	return img
}

func makeNRGBAImage(rect image.Rectangle, colors []color.Color) *image.NRGBA {
	img := image.NewNRGBA(rect)
	fillDrawImage(img, colors)
	return img
}

func makePalettedImage(rect image.Rectangle, colors []color.Color) *image.Paletted {
	img := image.NewPaletted(rect, colors)
	fillDrawImage(img, colors)
	return img
}

func fillDrawImage(img draw.Image, colors []color.Color) {
	colorsNRGBA := make([]color.NRGBA, len(colors))
	for i, c := range colors {
		nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
		nrgba.A = uint8(i % 256)
		colorsNRGBA[i] = nrgba
	}
	rect := img.Bounds()
	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.Set(x, y, colorsNRGBA[i])
			i++
		}
	}
}

func readRow(img image.Image, y int) []uint8 {
	row := make([]byte, img.Bounds().Dx()*4)
	i := 0
	for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		row[i+0] = c.R
		row[i+1] = c.G
		row[i+2] = c.B
		row[i+3] = c.A
		i += 4
	}
	return row
}

func compareBytes(a, b []uint8, delta int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if utils.Abs(int(a[i])-int(b[i])) > delta {
			return false
		}
	}
	return true
}
