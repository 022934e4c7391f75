package maskbrush

import (
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Worker runs the pixel heavy pipeline steps off the goroutine owning the
// canvas. Requests for the same input are collapsed, so at most one job per
// input is in flight. Jobs always run to completion; the owner writes the
// result back by receiving from the returned channel.
type Worker struct {
	pipeline *Pipeline
	group    singleflight.Group
}

// NewWorker creates a Worker running p, or the default pipeline if p is nil.
func NewWorker(p *Pipeline) *Worker {
	if p == nil {
		p = NewPipeline()
	}
	return &Worker{pipeline: p}
}

// BuildOverlay builds the overlay of src in the background. The channel
// receives exactly one value, nil on failure, and is then closed.
func (w *Worker) BuildOverlay(src image.Image, brushColor color.NRGBA) <-chan *Raster {
	key := fmt.Sprintf("overlay:%p:%v", src, brushColor)
	return w.run(key, func() *Raster {
		return w.pipeline.BuildOverlay(src, brushColor)
	})
}

// ExtractMask computes the binary mask of r in the background.
func (w *Worker) ExtractMask(r *Raster) <-chan *Raster {
	key := fmt.Sprintf("mask:%p", r)
	return w.run(key, func() *Raster {
		return ExtractBinaryMask(r)
	})
}

func (w *Worker) run(key string, fn func() *Raster) <-chan *Raster {
	res := make(chan *Raster, 1)
	ch := w.group.DoChan(key, func() (interface{}, error) {
		Logger().WithField("op", key).Debug("maskbrush: worker job started")
		return fn(), nil
	})
	go func() {
		defer close(res)
		out := <-ch
		if out.Shared {
			Logger().WithFields(logrus.Fields{"op": key}).Debug("maskbrush: worker job shared")
		}
		r, _ := out.Val.(*Raster)
		res <- r
	}()
	return res
}
