package maskbrush

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/esimov/maskbrush/utils"
	"gopkg.in/yaml.v3"
)

// Script is a replayable painting session. Strokes are given in view
// coordinates when View is set, otherwise in native canvas coordinates.
//
//	view: {width: 400, height: 300}
//	steps:
//	  - brush: {color: "#00ff00", alpha: 0.5, width: 12, mode: paint}
//	  - stroke: [[10, 10], [120, 40]]
//	  - undo: 1
type Script struct {
	View  *ViewSize `yaml:"view,omitempty"`
	Steps []Step    `yaml:"steps"`
}

// ViewSize is the size of the view the script coordinates refer to.
type ViewSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Step is a single session action. Exactly one of its fields is set.
type Step struct {
	Brush  *BrushStep  `yaml:"brush,omitempty"`
	Stroke [][]float64 `yaml:"stroke,omitempty"`
	Cancel [][]float64 `yaml:"cancel,omitempty"`
	Undo   int         `yaml:"undo,omitempty"`
	Redo   int         `yaml:"redo,omitempty"`
	Clear  bool        `yaml:"clear,omitempty"`
	Faces  bool        `yaml:"faces,omitempty"`
}

// BrushStep changes the brush. Color sets the RGB channels only, the
// opacity is changed through Alpha. Zero values keep the current settings.
type BrushStep struct {
	Color string   `yaml:"color,omitempty"`
	Alpha *float64 `yaml:"alpha,omitempty"`
	Width float64  `yaml:"width,omitempty"`
	Mode  string   `yaml:"mode,omitempty"`
}

// ReplayOption configures a replay.
type ReplayOption func(*replay)

type replay struct {
	faces []Region
}

// WithFaces provides the regions painted by the faces step.
func WithFaces(regions []Region) ReplayOption {
	return func(r *replay) {
		r.faces = regions
	}
}

// ParseScript decodes and validates a YAML session script.
func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not decode the script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Encode writes the script as YAML.
func (s *Script) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("could not encode the script: %w", err)
	}
	return enc.Close()
}

// Validate checks the structure of every step.
func (s *Script) Validate() error {
	if s.View != nil && (s.View.Width <= 0 || s.View.Height <= 0) {
		return fmt.Errorf("invalid view size %dx%d", s.View.Width, s.View.Height)
	}
	for i, st := range s.Steps {
		kind, err := st.kind()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if err := st.validate(kind); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, kind, err)
		}
	}
	return nil
}

// Replay applies the steps to c in order and stops at the first failing step.
func (s *Script) Replay(c *Canvas, opts ...ReplayOption) error {
	var rp replay
	for _, opt := range opts {
		opt(&rp)
	}
	if s.View != nil {
		c.SetViewSize(s.View.Width, s.View.Height)
	}
	for i, st := range s.Steps {
		kind, err := st.kind()
		if err == nil {
			err = st.validate(kind)
		}
		if err == nil {
			err = st.apply(c, kind, &rp)
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i, kind, err)
		}
	}
	return nil
}

func (st Step) kind() (string, error) {
	var kinds []string
	if st.Brush != nil {
		kinds = append(kinds, "brush")
	}
	if st.Stroke != nil {
		kinds = append(kinds, "stroke")
	}
	if st.Cancel != nil {
		kinds = append(kinds, "cancel")
	}
	if st.Undo != 0 {
		kinds = append(kinds, "undo")
	}
	if st.Redo != 0 {
		kinds = append(kinds, "redo")
	}
	if st.Clear {
		kinds = append(kinds, "clear")
	}
	if st.Faces {
		kinds = append(kinds, "faces")
	}
	switch len(kinds) {
	case 0:
		return "", errors.New("empty step")
	case 1:
		return kinds[0], nil
	}
	return "", fmt.Errorf("ambiguous step %v", kinds)
}

func (st Step) validate(kind string) error {
	switch kind {
	case "brush":
		b := st.Brush
		if b.Color != "" {
			if _, err := utils.HexToNRGBA(b.Color); err != nil {
				return err
			}
		}
		if b.Alpha != nil && (*b.Alpha < 0 || *b.Alpha > 1) {
			return fmt.Errorf("alpha %v out of the [0, 1] range", *b.Alpha)
		}
		if b.Width < 0 || math.IsNaN(b.Width) || math.IsInf(b.Width, 0) {
			return fmt.Errorf("invalid width %v", b.Width)
		}
		if b.Mode != "" {
			if _, err := ParseBlendMode(b.Mode); err != nil {
				return err
			}
		}
	case "stroke", "cancel":
		pts := st.Stroke
		if kind == "cancel" {
			pts = st.Cancel
		}
		if len(pts) == 0 {
			return errors.New("no points")
		}
		for _, p := range pts {
			if len(p) != 2 {
				return fmt.Errorf("point %v should have two coordinates", p)
			}
		}
	case "undo", "redo":
		if st.Undo < 0 || st.Redo < 0 {
			return errors.New("negative count")
		}
	}
	return nil
}

func (st Step) apply(c *Canvas, kind string, rp *replay) error {
	switch kind {
	case "brush":
		b := c.Brush()
		if st.Brush.Color != "" {
			col, _ := utils.HexToNRGBA(st.Brush.Color)
			col.A = b.Color.A
			b.Color = col
		}
		if st.Brush.Alpha != nil {
			b.Color = BrushColor(b.Color, *st.Brush.Alpha)
		}
		if st.Brush.Width > 0 {
			b.Width = st.Brush.Width
		}
		if st.Brush.Mode != "" {
			b.Mode, _ = ParseBlendMode(st.Brush.Mode)
		}
		c.SetBrush(b)
	case "stroke":
		pts := toPoints(st.Stroke)
		c.PointerDown(pts[0])
		for i := 1; i < len(pts)-1; i++ {
			c.PointerMove(pts[i])
		}
		c.PointerUp(pts[len(pts)-1])
	case "cancel":
		pts := toPoints(st.Cancel)
		c.PointerDown(pts[0])
		for _, p := range pts[1:] {
			c.PointerMove(p)
		}
		c.PointerCancel()
	case "undo":
		for i := 0; i < st.Undo; i++ {
			c.Undo()
		}
	case "redo":
		for i := 0; i < st.Redo; i++ {
			c.Redo()
		}
	case "clear":
		c.Clear()
	case "faces":
		if rp.faces == nil {
			return errors.New("no face regions available")
		}
		c.SeedRegions(rp.faces)
	}
	return nil
}

func toPoints(pts [][]float64) []Point {
	res := make([]Point, len(pts))
	for i, p := range pts {
		res[i] = Pt(p[0], p[1])
	}
	return res
}
