package maskbrush

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Raster is an immutable RGBA8 pixel buffer with straight (non-premultiplied)
// alpha and its origin at (0, 0). A nil *Raster stands for an absent image;
// all the accessor methods are safe to call on it.
type Raster struct {
	img *image.NRGBA
}

// NewRaster returns a fully transparent raster of the given size,
// or nil if the size does not describe a positive area.
func NewRaster(width, height int) *Raster {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &Raster{img: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

// RasterFromImage copies any image into a new raster. It returns nil for a nil
// image or one with no pixels.
func RasterFromImage(img image.Image) *Raster {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	return &Raster{img: imgToNRGBA(img)}
}

// wrapNRGBA takes ownership of img; the caller must not modify it afterwards.
func wrapNRGBA(img *image.NRGBA) *Raster {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	if img.Rect.Min != (image.Point{}) {
		return &Raster{img: imgToNRGBA(img)}
	}
	return &Raster{img: img}
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int {
	if r == nil {
		return 0
	}
	return r.img.Rect.Dx()
}

// Height returns the raster height in pixels.
func (r *Raster) Height() int {
	if r == nil {
		return 0
	}
	return r.img.Rect.Dy()
}

// Size returns the raster dimension as a point.
func (r *Raster) Size() image.Point {
	return image.Pt(r.Width(), r.Height())
}

// Bounds returns the raster bounds. The origin is always (0, 0).
func (r *Raster) Bounds() image.Rectangle {
	return image.Rectangle{Max: r.Size()}
}

// NRGBAAt returns the pixel at (x, y); out of bounds reads are transparent.
func (r *Raster) NRGBAAt(x, y int) color.NRGBA {
	if r == nil {
		return color.NRGBA{}
	}
	return r.img.NRGBAAt(x, y)
}

// Image returns a copy of the underlying pixel buffer.
func (r *Raster) Image() *image.NRGBA {
	if r == nil {
		return nil
	}
	return r.clone()
}

// Bytes returns the memory held by the pixel buffer.
func (r *Raster) Bytes() int64 {
	if r == nil {
		return 0
	}
	return int64(len(r.img.Pix))
}

// Equal reports whether both rasters have the same size and bit-identical pixels.
// Two absent rasters are equal.
func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.img.Rect != o.img.Rect {
		return false
	}
	return bytes.Equal(r.img.Pix, o.img.Pix)
}

// Resize returns a copy of the raster rescaled to the new dimension with the Lanczos
// filter. If one of width or height is 0 the aspect ratio is preserved.
func (r *Raster) Resize(width, height int) *Raster {
	if r == nil || width < 0 || height < 0 || (width == 0 && height == 0) {
		return nil
	}
	if width == r.Width() && height == r.Height() {
		return r
	}
	return wrapNRGBA(imaging.Resize(r.img, width, height, imaging.Lanczos))
}

func (r *Raster) clone() *image.NRGBA {
	dst := image.NewNRGBA(r.img.Rect)
	copy(dst.Pix, r.img.Pix)
	return dst
}

// imgToNRGBA copies any image type into a new *image.NRGBA with min-point at (0, 0).
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := dstW * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}
