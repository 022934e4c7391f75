/*
Package maskbrush is a raster painting library for drawing a translucent overlay
on top of a photo and deriving a binary mask from it, e.g. for segmentation or
inpainting tools.

The canvas keeps a single raster layer together with a bounded undo/redo history
of full snapshots. Every pointer move composites one round-capped segment onto
a fresh copy of the current raster, so snapshots pushed to the history can never
be modified by later strokes.

A photo can be turned into a paintable overlay with the Pipeline, and the
painted overlay can be reduced to a strict black and white mask at any time:

	package main

	import (
		"github.com/esimov/maskbrush"
	)

	func main() {
		c := maskbrush.NewCanvas(maskbrush.DefaultConfig())
		c.SetBaseImage(maskbrush.BuildOverlay(photo, maskbrush.DefaultBrush().Color))

		c.PointerDown(maskbrush.Pt(10, 10))
		c.PointerMove(maskbrush.Pt(60, 40))
		c.PointerUp(maskbrush.Pt(90, 40))

		mask := c.Mask()
	}

The canvas is not safe for concurrent use. Pixel heavy jobs which do not need
to observe the canvas can be handed over to a Worker; their results should be
written back by the goroutine owning the canvas.
*/
package maskbrush
