package maskbrush

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/esimov/maskbrush/imop"
	"github.com/esimov/maskbrush/utils"
	"github.com/sirupsen/logrus"
)

// ErrNoOverlay is returned when the photo cannot be turned into an overlay.
var ErrNoOverlay = errors.New("could not build the overlay")

// Processor options
type Processor struct {
	Brush       Brush
	MaxHistory  int
	EmptyPolicy EmptyPolicy
	// Raw paints directly over the photo instead of its overlay.
	Raw bool
	// Blend is the imop blend mode mixing the overlay with the photo in previews.
	Blend    string
	Pipeline *Pipeline
	Seeder   *FaceSeeder
	Script   *Script
	Spinner  *utils.Spinner
}

// Output holds the artifacts produced for a single photo.
type Output struct {
	Canvas  *Canvas
	Photo   *Raster
	Overlay *Raster
	Mask    *Raster
	Faces   []Region
}

// Run builds the paint surface of photo, seeds the detected faces, replays
// the script and extracts the mask.
func (p *Processor) Run(photo *Raster) (*Output, error) {
	if photo == nil {
		return nil, errors.New("missing source image")
	}
	brush := p.Brush
	if !brush.Valid() {
		brush = DefaultBrush()
	}
	c := NewCanvas(Config{
		MaxHistory:  p.MaxHistory,
		Brush:       brush,
		EmptyPolicy: p.EmptyPolicy,
	})

	base := photo
	if !p.Raw {
		pipeline := p.Pipeline
		if pipeline == nil {
			pipeline = defaultPipeline
		}
		if base = pipeline.BuildOverlay(photo.img, brush.Color); base == nil {
			return nil, ErrNoOverlay
		}
	}
	c.SetBaseImage(base)

	out := &Output{Canvas: c, Photo: photo}
	if p.Seeder != nil {
		faces, err := p.Seeder.Detect(photo.img)
		if err != nil {
			return nil, err
		}
		out.Faces = ScaleRegions(faces, ViewTransform{Native: c.Size(), Display: photo.Size()})
		if p.Script == nil {
			c.SeedRegions(out.Faces)
		}
	}
	if p.Script != nil {
		if err := p.Script.Replay(c, WithFaces(out.Faces)); err != nil {
			return nil, fmt.Errorf("script replay failed: %w", err)
		}
	}
	out.Overlay = c.Current()
	if out.Overlay == nil {
		// A cleared canvas still yields artifacts of the working size.
		out.Overlay = NewRaster(c.Size().X, c.Size().Y)
	}
	out.Mask = ExtractBinaryMask(out.Overlay)

	Logger().WithFields(logrus.Fields{
		"width":    photo.Width(),
		"height":   photo.Height(),
		"faces":    len(out.Faces),
		"brush":    utils.NRGBAToHex(brush.Color),
		"history":  utils.FormatBytes(c.HistoryBytes()),
		"coverage": Coverage(out.Mask),
	}).Debug("maskbrush: photo processed")

	return out, nil
}

// Process decodes the photo from r and encodes the painted overlay into w.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	photo, err := DecodeRaster(r)
	if err != nil {
		return err
	}
	out, err := p.Run(photo)
	if err != nil {
		return err
	}
	return Encode(w, out.Overlay.img)
}

// Preview composites overlay over photo with the processor blend mode.
// Unless Raw is set, overlay is expected in the vertically flipped layout
// produced by the pipeline and is flipped back onto the photo.
func (p *Processor) Preview(photo, overlay *Raster) (*image.NRGBA, error) {
	if photo == nil {
		return nil, errors.New("missing source image")
	}
	if overlay == nil {
		return photo.Image(), nil
	}
	if overlay.Size() != photo.Size() {
		overlay = overlay.Resize(photo.Width(), photo.Height())
	}

	var blend *imop.Blend
	if p.Blend != "" {
		blend = imop.NewBlend()
		if err := blend.Set(p.Blend); err != nil {
			return nil, fmt.Errorf("%w: %q", err, p.Blend)
		}
	}
	// The pipeline overlay is stored upside down relative to the photo.
	src := overlay.img
	if !p.Raw {
		src = imaging.FlipV(src)
	}
	bmp := imop.NewBitmap(photo.Bounds())
	imop.InitOp().Draw(bmp, src, photo.img, blend)
	return bmp.Img, nil
}
