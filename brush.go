package maskbrush

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/esimov/maskbrush/utils"
)

// BlendMode selects how a brush interacts with the pixels below it.
type BlendMode int

const (
	// Paint draws the brush color with source-over composition.
	Paint BlendMode = iota
	// Erase removes alpha and color with destination-out composition.
	Erase
)

// DefaultBrushWidth is the brush thickness in pixels.
const DefaultBrushWidth = 20.0

// DefaultBrushColor is red at 0.3 alpha.
var DefaultBrushColor = color.NRGBA{R: 0xff, A: 0x4d}

func (m BlendMode) String() string {
	switch m {
	case Paint:
		return "paint"
	case Erase:
		return "erase"
	}
	return fmt.Sprintf("BlendMode(%d)", int(m))
}

// ParseBlendMode parses the textual form of a blend mode.
func ParseBlendMode(s string) (BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paint", "brush":
		return Paint, nil
	case "erase", "eraser":
		return Erase, nil
	}
	return Paint, fmt.Errorf("unknown blend mode %q", s)
}

// Brush is the configuration used for rendering strokes.
type Brush struct {
	Color color.NRGBA
	Width float64
	Mode  BlendMode
}

// DefaultBrush returns a red brush at 0.3 alpha, 20 pixels wide, in Paint mode.
func DefaultBrush() Brush {
	return Brush{
		Color: DefaultBrushColor,
		Width: DefaultBrushWidth,
		Mode:  Paint,
	}
}

// Valid reports whether the brush is able to leave a mark.
func (b Brush) Valid() bool {
	return b.Width > 0 && !math.IsInf(b.Width, 0) && !math.IsNaN(b.Width)
}

// BrushColor returns c with its alpha replaced by alpha in the [0, 1] range.
func BrushColor(c color.Color, alpha float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	alpha = utils.Clamp(alpha, 0, 1)
	n.A = uint8(math.Round(alpha * 0xff))
	return n
}
