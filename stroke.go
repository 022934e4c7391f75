package maskbrush

import (
	"image"
	"image/draw"
	"math"

	"github.com/esimov/maskbrush/imop"
	"github.com/esimov/maskbrush/utils"
	"golang.org/x/image/vector"
)

const (
	// kappa is the distance of the cubic control points approximating a quarter circle.
	kappa = 0.5522847498307936
	// maxCoord bounds the coordinates handed to the fixed point rasterizer.
	maxCoord = 1 << 20
)

// Point is a position in pixel space. Integer coordinates are pixel corners.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) add(q Point) Point   { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) sub(q Point) Point   { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) mul(k float64) Point { return Point{p.X * k, p.Y * k} }
func (p Point) len() float64        { return math.Hypot(p.X, p.Y) }
func (p Point) rot() Point          { return Point{p.Y, -p.X} }

// vec returns p relative to origin in the rasterizer's float32 space.
func (p Point) vec(origin Point) [2]float32 {
	return [2]float32{float32(p.X - origin.X), float32(p.Y - origin.Y)}
}

// ViewTransform maps points given in the displayed (view) coordinate space to
// the native working resolution of the canvas.
type ViewTransform struct {
	Native  image.Point
	Display image.Point
}

func (vt ViewTransform) ratio() (sx, sy float64) {
	if vt.Display.X <= 0 || vt.Display.Y <= 0 || vt.Native.X <= 0 || vt.Native.Y <= 0 {
		return 1, 1
	}
	return float64(vt.Native.X) / float64(vt.Display.X), float64(vt.Native.Y) / float64(vt.Display.Y)
}

// Map converts a view point into native coordinates.
func (vt ViewTransform) Map(p Point) Point {
	sx, sy := vt.ratio()
	return Point{p.X * sx, p.Y * sy}
}

// ScaleWidth converts a brush width given in view units into native units,
// using the mean of the two axis ratios.
func (vt ViewTransform) ScaleWidth(w float64) float64 {
	sx, sy := vt.ratio()
	return w * (sx + sy) / 2
}

// Rasterizer composites brush segments onto raster snapshots. Each call
// produces a new Raster and never modifies its input.
type Rasterizer struct {
	paint *imop.Composite
	erase *imop.Composite
}

// NewRasterizer creates a Rasterizer.
func NewRasterizer() *Rasterizer {
	rs := &Rasterizer{
		paint: imop.InitOp(),
		erase: imop.InitOp(),
	}
	rs.paint.Set(imop.SrcOver)
	rs.erase.Set(imop.DstOut)
	return rs
}

// Composite draws a round capped line segment from `from` to `to` on top of base
// and returns the result as a new raster of the given size. The base is drawn
// at the origin; a nil base starts from a fully transparent canvas.
//
// When the target has no area, the brush cannot leave a mark or the segment has
// zero length, compositing is skipped and base is returned as it is.
func (rs *Rasterizer) Composite(base *Raster, from, to Point, brush Brush, size image.Point) *Raster {
	if from == to {
		return base
	}
	return rs.composite(base, from, to, brush, size)
}

// Dab stamps a single filled disc of the brush width centered at p.
func (rs *Rasterizer) Dab(base *Raster, p Point, brush Brush, size image.Point) *Raster {
	return rs.composite(base, p, p, brush, size)
}

func (rs *Rasterizer) composite(base *Raster, from, to Point, brush Brush, size image.Point) *Raster {
	if size.X <= 0 || size.Y <= 0 || !brush.Valid() {
		return base
	}
	if !finite(from) || !finite(to) || brush.Width >= maxCoord {
		return base
	}

	dst := image.NewNRGBA(image.Rectangle{Max: size})
	if base != nil {
		if base.Size() == size {
			copy(dst.Pix, base.img.Pix)
		} else {
			draw.Draw(dst, dst.Rect, base.img, image.Point{}, draw.Src)
		}
	}

	r := brush.Width / 2
	bbox := image.Rect(
		int(math.Floor(math.Min(from.X, to.X)-r)),
		int(math.Floor(math.Min(from.Y, to.Y)-r)),
		int(math.Ceil(math.Max(from.X, to.X)+r)),
		int(math.Ceil(math.Max(from.Y, to.Y)+r)),
	).Intersect(dst.Rect)
	if bbox.Empty() {
		return wrapNRGBA(dst)
	}

	mask := capsuleCoverage(from, to, r, bbox)

	op := rs.paint
	if brush.Mode == Erase {
		op = rs.erase
	}
	op.DrawMask(dst, bbox, brush.Color, mask, image.Point{})

	return wrapNRGBA(dst)
}

// capsuleCoverage rasterizes the outline of a round capped segment with radius r
// into an anti-aliased coverage mask covering bbox. The mask origin is bbox.Min.
func capsuleCoverage(from, to Point, r float64, bbox image.Rectangle) *image.Alpha {
	w, h := bbox.Dx(), bbox.Dy()
	origin := Point{float64(bbox.Min.X), float64(bbox.Min.Y)}

	dir := to.sub(from)
	if l := dir.len(); l > 0 {
		dir = dir.mul(1 / l)
	} else {
		dir = Point{1, 0}
	}
	// normal and Point.rot turn in opposite directions, so normal.rot() == dir.
	normal := Point{-dir.Y, dir.X}

	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src

	moveTo := func(p Point) {
		v := p.vec(origin)
		z.MoveTo(v[0], v[1])
	}
	lineTo := func(p Point) {
		v := p.vec(origin)
		z.LineTo(v[0], v[1])
	}
	// quarter appends a quarter circle around c starting at c+r·u and ending at c+r·u.rot().
	quarter := func(c, u Point) {
		v := u.rot()
		p0 := c.add(u.mul(r))
		p3 := c.add(v.mul(r))
		p1 := p0.add(v.mul(r * kappa)).vec(origin)
		p2 := p3.add(u.mul(r * kappa)).vec(origin)
		e := p3.vec(origin)
		z.CubeTo(p1[0], p1[1], p2[0], p2[1], e[0], e[1])
	}

	moveTo(from.add(normal.mul(r)))
	lineTo(to.add(normal.mul(r)))
	quarter(to, normal)
	quarter(to, dir)
	lineTo(from.sub(normal.mul(r)))
	quarter(from, normal.mul(-1))
	quarter(from, dir.mul(-1))
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0) &&
		utils.Abs(p.X) < maxCoord && utils.Abs(p.Y) < maxCoord
}
