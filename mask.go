package maskbrush

import (
	"fmt"
	"image"
	"strings"
)

// EmptyPolicy selects the predicate deciding whether an image holds a drawing.
type EmptyPolicy int

const (
	// EmptyByAlpha treats an image as empty when no pixel has a non-zero alpha.
	EmptyByAlpha EmptyPolicy = iota
	// EmptyByColor treats an image as empty when no pixel has both a non-zero
	// alpha and a non-zero color channel. A black pixel with alpha does not count.
	EmptyByColor
)

func (p EmptyPolicy) String() string {
	switch p {
	case EmptyByAlpha:
		return "alpha"
	case EmptyByColor:
		return "color"
	}
	return fmt.Sprintf("EmptyPolicy(%d)", int(p))
}

// ParseEmptyPolicy parses the textual form of an emptiness policy.
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "alpha":
		return EmptyByAlpha, nil
	case "color":
		return EmptyByColor, nil
	}
	return EmptyByAlpha, fmt.Errorf("unknown empty policy %q", s)
}

// IsEmpty reports whether r contains no drawing under the given policy.
// An absent raster is empty.
func IsEmpty(r *Raster, policy EmptyPolicy) bool {
	if r == nil {
		return true
	}
	pix := r.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] == 0 {
			continue
		}
		if policy == EmptyByAlpha || pix[i] != 0 || pix[i+1] != 0 || pix[i+2] != 0 {
			return false
		}
	}
	return true
}

// ExtractBinaryMask returns an image of the same size as r where every pixel
// with a non-zero alpha becomes opaque white and every other pixel becomes
// transparent black. It returns nil for an absent raster.
func ExtractBinaryMask(r *Raster) *Raster {
	if r == nil {
		return nil
	}
	dst := image.NewNRGBA(r.img.Rect)
	src := r.img.Pix
	for i := 0; i+3 < len(src); i += 4 {
		if src[i+3] > 0 {
			dst.Pix[i+0] = 0xff
			dst.Pix[i+1] = 0xff
			dst.Pix[i+2] = 0xff
			dst.Pix[i+3] = 0xff
		}
	}
	return wrapNRGBA(dst)
}

// ExtractGrayMask is the single channel variant of ExtractBinaryMask:
// 255 where alpha is non-zero, 0 elsewhere.
func ExtractGrayMask(r *Raster) *image.Gray {
	if r == nil {
		return nil
	}
	dst := image.NewGray(r.img.Rect)
	src := r.img.Pix
	for i := range dst.Pix {
		if src[i*4+3] > 0 {
			dst.Pix[i] = 0xff
		}
	}
	return dst
}

// Coverage returns the fraction of pixels with a non-zero alpha.
func Coverage(r *Raster) float64 {
	if r == nil {
		return 0
	}
	var n int
	src := r.img.Pix
	for i := 3; i < len(src); i += 4 {
		if src[i] > 0 {
			n++
		}
	}
	return float64(n) / float64(r.Width()*r.Height())
}
