// Package imop implements the Porter-Duff composition operations
// used for mixing a graphic element with its backdrop.
// Porter and Duff presented in their paper 12 different composition operation,
// but the image/draw core package implements only the source-over-destination and source.
// This package is aimed to overcome the missing composite operations.
//
// The brush compositor uses it for painting (source-over) and erasing
// (destination-out) through an anti-aliased coverage mask, while the
// preview renderer mixes the overlay with the photo using one of the
// separable blend modes.
package imop

import (
	"image/color"
	"math"
)

// The separable blend modes.
const (
	Normal   = "normal"
	Darken   = "darken"
	Lighten  = "lighten"
	Multiply = "multiply"
	Screen   = "screen"
	Overlay  = "overlay"
)

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activate one of the supported blend mode.
func (o *Blend) Set(opType string) error {
	switch opType {
	case Normal, Darken, Lighten, Multiply, Screen, Overlay:
		o.OpType = opType
		return nil
	}
	return ErrUnsupportedOp
}

// Get returns the currently active blend mode.
func (o *Blend) Get() string {
	return o.OpType
}

// fn returns the blend function B(cb, cs) for normalized color channels.
func (o *Blend) fn(cb, cs float64) float64 {
	switch o.OpType {
	case Darken:
		return math.Min(cb, cs)
	case Lighten:
		return math.Max(cb, cs)
	case Multiply:
		return cb * cs
	case Screen:
		return cb + cs - cb*cs
	case Overlay:
		// overlay is hard-light with the layers swapped
		if cb <= 0.5 {
			return 2 * cb * cs
		}
		return 1 - 2*(1-cb)*(1-cs)
	}
	return cs
}

// mix returns the source color after blending it with the backdrop:
// Cs' = (1 - αb)·Cs + αb·B(Cb, Cs). The source alpha is kept.
func (o *Blend) mix(src, dst color.NRGBA) color.NRGBA {
	ab := float64(dst.A) / 0xff
	ch := func(cs, cb uint8) uint8 {
		s, b := float64(cs)/0xff, float64(cb)/0xff
		v := (1-ab)*s + ab*o.fn(b, s)
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 0xff))
	}
	return color.NRGBA{
		R: ch(src.R, dst.R),
		G: ch(src.G, dst.G),
		B: ch(src.B, dst.B),
		A: src.A,
	}
}
