package imop

import (
	"errors"
	"image"
	"image/color"
	"math"
)

// The Porter-Duff composition operators.
const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// ErrUnsupportedOp is returned when an unknown operator or blend mode is activated.
var ErrUnsupportedOp = errors.New("unsupported composite operation")

// Bitmap holds the result of a composition.
type Bitmap struct {
	Img *image.NRGBA
}

// Composite holds the currently active composition operator.
type Composite struct {
	current string
	ops     []string
}

// NewBitmap allocates a transparent bitmap of the given size.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// InitOp returns a Composite with SrcOver as the active operator.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Clear,
			Copy,
			Dst,
			SrcOver,
			DstOver,
			SrcIn,
			DstIn,
			SrcOut,
			DstOut,
			SrcAtop,
			DstAtop,
			Xor,
		},
	}
}

// Set activates one of the supported composition operators.
func (op *Composite) Set(cop string) error {
	for _, o := range op.ops {
		if o == cop {
			op.current = cop
			return nil
		}
	}
	return ErrUnsupportedOp
}

// Get returns the active composition operator.
func (op *Composite) Get() string {
	return op.current
}

// Draw composites the src image over the dst backdrop with the active operator
// and writes the result into bitmap. If blend is not nil the source colors are
// first mixed with the backdrop colors by the blend mode.
// All three images are expected to share the same bounds.
func (op *Composite) Draw(bitmap *Bitmap, src, dst *image.NRGBA, blend *Blend) {
	r := src.Bounds().Intersect(dst.Bounds()).Intersect(bitmap.Img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s := src.NRGBAAt(x, y)
			d := dst.NRGBAAt(x, y)
			if blend != nil {
				s = blend.mix(s, d)
			}
			bitmap.Img.SetNRGBA(x, y, op.apply(load(s), load(d)).store())
		}
	}
}

// DrawMask composites the solid src color onto dst inside r, modulated by the
// coverage values of mask. The mask pixel at mp is aligned with r.Min, in the
// same manner as draw.DrawMask. Pixels with zero coverage are left untouched.
func (op *Composite) DrawMask(dst *image.NRGBA, r image.Rectangle, src color.NRGBA, mask *image.Alpha, mp image.Point) {
	r = r.Intersect(dst.Bounds())
	s := load(src)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			mx, my := mp.X+x-r.Min.X, mp.Y+y-r.Min.Y
			if !(image.Point{X: mx, Y: my}).In(mask.Rect) {
				continue
			}
			cov := mask.Pix[mask.PixOffset(mx, my)]
			if cov == 0 {
				continue
			}
			d := load(dst.NRGBAAt(x, y))
			res := op.apply(s, d)
			if cov != 0xff {
				res = d.lerp(res, float64(cov)/0xff)
			}
			dst.SetNRGBA(x, y, res.store())
		}
	}
}

// premul is a normalized color with premultiplied alpha.
type premul struct {
	r, g, b, a float64
}

func load(c color.NRGBA) premul {
	a := float64(c.A) / 0xff
	return premul{
		r: float64(c.R) / 0xff * a,
		g: float64(c.G) / 0xff * a,
		b: float64(c.B) / 0xff * a,
		a: a,
	}
}

func (p premul) store() color.NRGBA {
	a := math.Round(p.a * 0xff)
	if a <= 0 {
		return color.NRGBA{}
	}
	unmul := func(c float64) uint8 {
		v := math.Round(c / p.a * 0xff)
		if v < 0 {
			return 0
		}
		if v > 0xff {
			return 0xff
		}
		return uint8(v)
	}
	if a > 0xff {
		a = 0xff
	}
	return color.NRGBA{R: unmul(p.r), G: unmul(p.g), B: unmul(p.b), A: uint8(a)}
}

func (p premul) scale(f float64) premul {
	return premul{p.r * f, p.g * f, p.b * f, p.a * f}
}

func (p premul) add(q premul) premul {
	return premul{p.r + q.r, p.g + q.g, p.b + q.b, p.a + q.a}
}

func (p premul) lerp(q premul, t float64) premul {
	return p.scale(1 - t).add(q.scale(t))
}

// factors returns the Porter-Duff source and destination fractions.
func (op *Composite) factors(as, ab float64) (fa, fb float64) {
	switch op.current {
	case Clear:
		return 0, 0
	case Copy:
		return 1, 0
	case Dst:
		return 0, 1
	case SrcOver:
		return 1, 1 - as
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	}
	return 1, 1 - as
}

func (op *Composite) apply(s, d premul) premul {
	fa, fb := op.factors(s.a, d.a)
	return s.scale(fa).add(d.scale(fb))
}
