package maskbrush

import (
	"image"
	"image/color"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxHistory is the number of snapshots kept by each history stack.
	DefaultMaxHistory = 5
	// Unbounded disables the history capacity limit.
	Unbounded = -1
)

// Config holds the canvas options.
type Config struct {
	// Width and Height give the working size used before a base image is set.
	Width, Height int
	// MaxHistory is the capacity of the undo and redo stacks. Zero selects
	// DefaultMaxHistory, Unbounded removes the limit.
	MaxHistory int
	Brush      Brush
	// DiscardEmptyStrokes drops the history entry of a stroke which started
	// and finished on an empty canvas.
	DiscardEmptyStrokes bool
	EmptyPolicy         EmptyPolicy
}

// DefaultConfig returns the default canvas options.
func DefaultConfig() Config {
	return Config{
		MaxHistory:  DefaultMaxHistory,
		Brush:       DefaultBrush(),
		EmptyPolicy: EmptyByAlpha,
	}
}

func (cfg Config) capacity() int {
	switch {
	case cfg.MaxHistory == 0:
		return DefaultMaxHistory
	case cfg.MaxHistory < 0:
		return 0
	}
	return cfg.MaxHistory
}

type subscriber struct {
	id int
	n  Notifier
}

// Canvas is the paintable raster state: the current image together with the
// undo and redo history. A Canvas is not safe for concurrent use; all its
// methods must be called from the goroutine which owns it.
type Canvas struct {
	current *Raster
	undo    *History
	redo    *History

	brush      Brush
	size       image.Point
	view       image.Point
	rasterizer *Rasterizer

	discardEmpty bool
	emptyPolicy  EmptyPolicy

	stroke   ulid.ULID
	stroking bool
	pressed  bool
	last     Point

	subs   []subscriber
	nextID int
}

// NewCanvas creates an empty canvas.
func NewCanvas(cfg Config) *Canvas {
	brush := cfg.Brush
	if !brush.Valid() {
		brush = DefaultBrush()
	}
	c := &Canvas{
		undo:         NewHistory(cfg.capacity()),
		redo:         NewHistory(cfg.capacity()),
		brush:        brush,
		rasterizer:   NewRasterizer(),
		discardEmpty: cfg.DiscardEmptyStrokes,
		emptyPolicy:  cfg.EmptyPolicy,
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		c.size = image.Pt(cfg.Width, cfg.Height)
	}
	return c
}

// Subscribe registers n for canvas events. The returned function removes
// the subscription.
func (c *Canvas) Subscribe(n Notifier) (cancel func()) {
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscriber{id: id, n: n})
	return func() {
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Canvas) notify(kind EventKind) {
	e := Event{
		Kind:          kind,
		Stroke:        c.stroke,
		UndoAvailable: c.UndoAvailable(),
		RedoAvailable: c.RedoAvailable(),
	}
	for _, s := range c.subs {
		s.n.Notify(e)
	}
}

func (c *Canvas) log() logrus.FieldLogger {
	return Logger().WithFields(logrus.Fields{
		"undo": c.undo.Len(),
		"redo": c.redo.Len(),
	})
}

// SetBaseImage replaces the current image and empties both history stacks.
// The working size becomes the size of r. A nil raster is ignored.
func (c *Canvas) SetBaseImage(r *Raster) {
	if r == nil {
		Logger().Warn("maskbrush: ignoring absent base image")
		return
	}
	c.current = r
	c.size = r.Size()
	c.undo.Clear()
	c.redo.Clear()
	c.stroking, c.pressed = false, false
	c.stroke = ulid.ULID{}

	c.log().WithFields(logrus.Fields{
		"width":  r.Width(),
		"height": r.Height(),
	}).Debug("maskbrush: base image set")
	c.notify(Changed)
}

// SetViewSize sets the size of the view the pointer events are reported in.
// A zero size means pointer coordinates are already in native resolution.
func (c *Canvas) SetViewSize(width, height int) {
	c.view = image.Pt(width, height)
}

// View returns the transformation applied to pointer coordinates.
func (c *Canvas) View() ViewTransform {
	return ViewTransform{Native: c.size, Display: c.view}
}

// BeginStroke records the current image on the undo stack and
// invalidates the redo history.
func (c *Canvas) BeginStroke() {
	if c.undo.Push(c.current) {
		c.log().Debug("maskbrush: oldest undo snapshot evicted")
	}
	c.redo.Clear()
	c.stroke = ulid.Make()
	c.stroking = true

	c.log().WithField("stroke", c.stroke.String()).Debug("maskbrush: stroke started")
	c.notify(StrokeStarted)
}

// AppendSegment draws a segment given in native coordinates with the
// active brush. It never records history.
func (c *Canvas) AppendSegment(from, to Point) {
	c.appendSegment(from, to, c.brush)
}

func (c *Canvas) appendSegment(from, to Point, brush Brush) {
	c.current = c.rasterizer.Composite(c.current, from, to, brush, c.size)
	c.notify(Changed)
}

// EndStroke finishes the stroke in progress.
func (c *Canvas) EndStroke() {
	c.endStroke()
}

// endStroke reports whether the stroke snapshot was dropped as empty and
// returns the dropped snapshot.
func (c *Canvas) endStroke() (snap *Raster, discarded bool) {
	if c.stroking && c.discardEmpty {
		top, ok := c.undo.Peek()
		if ok && IsEmpty(top, c.emptyPolicy) && IsEmpty(c.current, c.emptyPolicy) {
			snap, _ = c.undo.Pop()
			discarded = true
			c.log().Debug("maskbrush: empty stroke discarded")
		}
	}
	c.notify(StrokeFinished)
	c.stroking = false
	c.stroke = ulid.ULID{}
	return snap, discarded
}

// Undo restores the image recorded before the last stroke. It reports
// whether there was anything to undo.
func (c *Canvas) Undo() bool {
	prev, ok := c.undo.Pop()
	if !ok {
		c.notify(Changed)
		return false
	}
	if c.redo.Push(c.current) {
		c.log().Debug("maskbrush: oldest redo snapshot evicted")
	}
	c.current = prev
	c.log().Debug("maskbrush: undo")
	c.notify(Changed)
	return true
}

// Redo reapplies the last undone stroke. It reports whether there was
// anything to redo.
func (c *Canvas) Redo() bool {
	next, ok := c.redo.Pop()
	if !ok {
		c.notify(Changed)
		return false
	}
	if c.undo.Push(c.current) {
		c.log().Debug("maskbrush: oldest undo snapshot evicted")
	}
	c.current = next
	c.log().Debug("maskbrush: redo")
	c.notify(Changed)
	return true
}

// Clear removes the current image and all the history. A stroke in
// progress is abandoned; its remaining pointer events are ignored.
func (c *Canvas) Clear() {
	c.current = nil
	c.undo.Clear()
	c.redo.Clear()
	c.stroking, c.pressed = false, false
	c.stroke = ulid.ULID{}
	c.log().Debug("maskbrush: cleared")
	c.notify(Changed)
}

// PointerDown starts a stroke at p, given in view coordinates.
func (c *Canvas) PointerDown(p Point) {
	if c.pressed {
		c.PointerUp(c.last)
	}
	c.BeginStroke()
	c.pressed = true
	c.last = c.View().Map(p)
}

// PointerMove extends the stroke in progress up to p.
func (c *Canvas) PointerMove(p Point) {
	if !c.pressed {
		return
	}
	vt := c.View()
	to := vt.Map(p)
	brush := c.brush
	brush.Width = vt.ScaleWidth(brush.Width)
	c.appendSegment(c.last, to, brush)
	c.last = to
}

// PointerUp draws the last segment up to p and finishes the stroke.
func (c *Canvas) PointerUp(p Point) {
	if !c.pressed {
		return
	}
	c.PointerMove(p)
	c.pressed = false
	c.endStroke()
}

// PointerCancel aborts the stroke in progress and rolls the canvas back
// to the snapshot taken when it started.
func (c *Canvas) PointerCancel() {
	if !c.pressed {
		return
	}
	c.pressed = false
	if snap, discarded := c.endStroke(); discarded {
		c.current = snap
		c.notify(Changed)
		return
	}
	c.Undo()
}

// SeedRegions paints a filled disc over every region as a single stroke.
// It returns the number of regions painted.
func (c *Canvas) SeedRegions(regions []Region) int {
	if len(regions) == 0 {
		return 0
	}
	c.BeginStroke()
	n := 0
	for _, r := range regions {
		if r.Radius <= 0 {
			continue
		}
		brush := c.brush
		brush.Mode = Paint
		brush.Width = 2 * r.Radius
		c.current = c.rasterizer.Dab(c.current, r.Center, brush, c.size)
		n++
	}
	c.notify(Changed)
	c.endStroke()
	return n
}

// Current returns the current image, or nil when the canvas is blank.
func (c *Canvas) Current() *Raster { return c.current }

// Mask returns the binary mask of the current image.
func (c *Canvas) Mask() *Raster { return ExtractBinaryMask(c.current) }

// UndoAvailable reports whether Undo would change the canvas.
func (c *Canvas) UndoAvailable() bool { return !c.undo.Empty() }

// RedoAvailable reports whether Redo would change the canvas.
func (c *Canvas) RedoAvailable() bool { return !c.redo.Empty() }

// UndoDepth returns the number of snapshots on the undo stack.
func (c *Canvas) UndoDepth() int { return c.undo.Len() }

// RedoDepth returns the number of snapshots on the redo stack.
func (c *Canvas) RedoDepth() int { return c.redo.Len() }

// HistoryBytes returns the memory retained by both history stacks.
func (c *Canvas) HistoryBytes() int64 { return c.undo.Bytes() + c.redo.Bytes() }

// Size returns the working resolution.
func (c *Canvas) Size() image.Point { return c.size }

// Brush returns the active brush.
func (c *Canvas) Brush() Brush { return c.brush }

// SetBrush replaces the active brush. An invalid brush is ignored.
func (c *Canvas) SetBrush(b Brush) {
	if !b.Valid() {
		Logger().WithField("width", b.Width).Warn("maskbrush: invalid brush ignored")
		return
	}
	c.brush = b
}

// SetBrushColor changes the brush color.
func (c *Canvas) SetBrushColor(col color.NRGBA) {
	c.brush.Color = col
}

// SetBrushWidth changes the brush width. Non positive widths are ignored.
func (c *Canvas) SetBrushWidth(w float64) {
	b := c.brush
	b.Width = w
	c.SetBrush(b)
}

// SetBlendMode switches between painting and erasing.
func (c *Canvas) SetBlendMode(m BlendMode) {
	c.brush.Mode = m
}
