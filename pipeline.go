package maskbrush

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/esimov/maskbrush/utils"
	"github.com/sirupsen/logrus"
)

// DefaultKey is the color which becomes transparent after the channel transform.
var DefaultKey = color.NRGBA{R: 1, G: 1, B: 1, A: 0xff}

// Pipeline turns a photo into a colored, alpha keyed overlay which can be
// used as the paint surface of a canvas.
type Pipeline struct {
	// Key is the RGB triplet treated as transparent once the photo is inverted
	// and flattened. Its alpha is ignored.
	Key color.NRGBA
	// Tolerance is the maximum per channel distance from Key still treated as a match.
	Tolerance uint8
	// Background is the opaque color the inverted photo is flattened onto.
	Background color.Color
}

// NewPipeline returns a Pipeline with the default key, tolerance and background.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Key:        DefaultKey,
		Tolerance:  1,
		Background: color.Black,
	}
}

var defaultPipeline = NewPipeline()

// BuildOverlay runs src through the default pipeline.
func BuildOverlay(src image.Image, brushColor color.NRGBA) *Raster {
	return defaultPipeline.BuildOverlay(src, brushColor)
}

// DecodeOverlay decodes an image from r and runs it through the default
// pipeline. It returns nil if the image cannot be decoded.
func DecodeOverlay(r io.Reader, brushColor color.NRGBA) *Raster {
	src, err := DecodeRaster(r)
	if err != nil {
		Logger().WithError(err).Warn("maskbrush: overlay source rejected")
		return nil
	}
	return defaultPipeline.BuildOverlay(src.img, brushColor)
}

// BuildOverlay applies the three pipeline steps to src:
//
//  1. the RGB channels are complemented, alpha is kept as it is;
//  2. the result is flattened onto the background and the pixels matching
//     the key become transparent, all the others take the brush color at
//     the opacity they had in src;
//  3. the image is flipped vertically.
//
// The result is nil when src is nil or holds no pixels.
func (p *Pipeline) BuildOverlay(src image.Image, brushColor color.NRGBA) (res *Raster) {
	defer func() {
		if r := recover(); r != nil {
			Logger().WithField("error", r).Warn("maskbrush: overlay source could not be read")
			res = nil
		}
	}()
	if src == nil || src.Bounds().Empty() {
		return nil
	}

	inverted := imaging.Invert(src)
	w, h := inverted.Rect.Dx(), inverted.Rect.Dy()

	bg := p.Background
	if bg == nil {
		bg = color.Black
	}
	flat := imaging.Overlay(imaging.New(w, h, opaque(bg)), inverted, image.Point{}, 1)

	keyed := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(keyed.Pix); i += 4 {
		if p.matches(flat.Pix[i], flat.Pix[i+1], flat.Pix[i+2]) {
			continue
		}
		a := overlayAlpha(brushColor.A, inverted.Pix[i+3])
		if a == 0 {
			continue
		}
		keyed.Pix[i+0] = brushColor.R
		keyed.Pix[i+1] = brushColor.G
		keyed.Pix[i+2] = brushColor.B
		keyed.Pix[i+3] = a
	}

	Logger().WithFields(logrus.Fields{
		"width":  w,
		"height": h,
	}).Debug("maskbrush: overlay built")

	return wrapNRGBA(imaging.FlipV(keyed))
}

func (p *Pipeline) matches(r, g, b uint8) bool {
	tol := int(p.Tolerance)
	return utils.Abs(int(r)-int(p.Key.R)) <= tol &&
		utils.Abs(int(g)-int(p.Key.G)) <= tol &&
		utils.Abs(int(b)-int(p.Key.B)) <= tol
}

// overlayAlpha scales the brush alpha by the source opacity. A visible source
// pixel never drops to full transparency, so the silhouette survives a
// transparent brush.
func overlayAlpha(brushA, srcA uint8) uint8 {
	if srcA == 0 {
		return 0
	}
	a := (int(brushA)*int(srcA) + 127) / 255
	if a == 0 {
		a = 1
	}
	return uint8(a)
}

func opaque(c color.Color) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	return n
}
