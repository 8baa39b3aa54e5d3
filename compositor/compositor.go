package compositor

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand"
	"sync"

	"github.com/milk9111/paperdoll/anim"
)

var (
	ErrLayerOutOfRange   = errors.New("compositor: layer out of range")
	ErrInvalidLayer      = errors.New("compositor: invalid layer")
	ErrUnknownAnimation  = errors.New("compositor: unknown animation")
	ErrNoActiveAnimation = errors.New("compositor: no active animation")
	ErrSpriteOutOfRange  = errors.New("compositor: sprite index outside sheet")
	ErrInvalidSize       = errors.New("compositor: buffer size must be positive")
	ErrNilCollaborator   = errors.New("compositor: backend and sheet provider are required")
)

// RenderMode controls when the off-screen buffer is repainted.
type RenderMode int

const (
	// PreRender paints the buffer only on an explicit Render call; Draw blits
	// whatever the buffer holds.
	PreRender RenderMode = iota
	// RealTime repaints the buffer on every Draw.
	RealTime
)

func (m RenderMode) String() string {
	switch m {
	case PreRender:
		return "pre_render"
	case RealTime:
		return "real_time"
	default:
		return fmt.Sprintf("RenderMode(%d)", int(m))
	}
}

// ParseRenderMode accepts the names produced by String. Empty means PreRender.
func ParseRenderMode(s string) (RenderMode, error) {
	switch s {
	case "", "pre_render":
		return PreRender, nil
	case "real_time":
		return RealTime, nil
	}
	return PreRender, fmt.Errorf("compositor: unknown render mode %q", s)
}

// Layer is one entry of the paint stack. Layers are values: copying one never
// aliases another slot.
type Layer struct {
	SheetID     string
	SpriteIndex int
	FrameWidth  int
	FrameHeight int
	OffsetX     int
	OffsetY     int
	Tint        color.Color
}

func (l Layer) validate() error {
	if l.SpriteIndex < 0 {
		return fmt.Errorf("%w: negative sprite index %d", ErrInvalidLayer, l.SpriteIndex)
	}
	if l.FrameWidth <= 0 || l.FrameHeight <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidLayer, l.FrameWidth, l.FrameHeight)
	}
	return nil
}

// Compositor stacks spritesheet frames onto a fixed size off-screen buffer
// and drives them with named frame sequences. Compositor methods are safe to
// call from multiple goroutines, though a single host tick loop is the normal
// use. Sequences handed out by Animation are not guarded; seek through Seek
// and SeekRandom when other goroutines share the compositor.
type Compositor struct {
	mu sync.Mutex

	width  int
	height int
	buffer Canvas
	sheets SheetProvider
	mode   RenderMode

	layers  []Layer
	anims   map[string]*anim.Sequence
	active  string
	current *anim.Sequence

	clock anim.Clock
	rng   *rand.Rand
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithClock sets the clock handed to every sequence added afterwards.
func WithClock(c anim.Clock) Option {
	return func(comp *Compositor) { comp.clock = c }
}

// WithRand sets the random source used by GotoRandomFrame.
func WithRand(r *rand.Rand) Option {
	return func(comp *Compositor) { comp.rng = r }
}

func WithRenderMode(m RenderMode) Option {
	return func(comp *Compositor) { comp.mode = m }
}

// New allocates a width x height buffer from backend. The buffer is never
// resized.
func New(width, height int, backend Backend, sheets SheetProvider, opts ...Option) (*Compositor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if backend == nil || sheets == nil {
		return nil, ErrNilCollaborator
	}
	buf, err := backend.NewCanvas(width, height)
	if err != nil {
		return nil, fmt.Errorf("compositor: create buffer: %w", err)
	}
	c := &Compositor{
		width:  width,
		height: height,
		buffer: buf,
		sheets: sheets,
		anims:  make(map[string]*anim.Sequence),
		clock:  anim.SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Size returns the buffer dimensions.
func (c *Compositor) Size() (int, int) { return c.width, c.height }

// Buffer exposes the off-screen canvas for hosts that place it themselves.
func (c *Compositor) Buffer() Canvas { return c.buffer }

func (c *Compositor) RenderMode() RenderMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Compositor) SetRenderMode(m RenderMode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// AddLayer appends l to the top of the stack and returns its index.
// The sprite index is not checked against the sheet until Render.
func (c *Compositor) AddLayer(l Layer) (int, error) {
	if err := l.validate(); err != nil {
		return -1, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers = append(c.layers, l)
	return len(c.layers) - 1, nil
}

// ReplaceSpriteIndexAtLayer points an existing layer at another frame.
func (c *Compositor) ReplaceSpriteIndexAtLayer(layer, spriteIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setSpriteIndex(layer, spriteIndex)
}

// ReplaceSpriteSheetAtLayer swaps the sheet of an existing layer, keeping its
// frame, size and offset.
func (c *Compositor) ReplaceSpriteSheetAtLayer(layer int, sheetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setSheet(layer, sheetID)
}

// SetLayerTint dyes a layer. nil removes the tint.
func (c *Compositor) SetLayerTint(layer int, tint color.Color) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLayer(layer); err != nil {
		return err
	}
	c.layers[layer].Tint = tint
	return nil
}

// CopyLayerToLocation overwrites target with a copy of source. Later changes
// to either layer do not affect the other.
func (c *Compositor) CopyLayerToLocation(source, target int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLayer(source); err != nil {
		return err
	}
	if err := c.checkLayer(target); err != nil {
		return err
	}
	c.layers[target] = c.layers[source]
	return nil
}

// Flush drops every layer. Animations are kept.
func (c *Compositor) Flush() {
	c.mu.Lock()
	c.layers = nil
	c.mu.Unlock()
}

// Layer returns a copy of the layer at index i.
func (c *Compositor) Layer(i int) (Layer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLayer(i); err != nil {
		return Layer{}, err
	}
	return c.layers[i], nil
}

// Layers returns a snapshot of the stack in paint order.
func (c *Compositor) Layers() []Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Layer(nil), c.layers...)
}

func (c *Compositor) LayerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.layers)
}

func (c *Compositor) checkLayer(i int) error {
	if i < 0 || i >= len(c.layers) {
		return fmt.Errorf("%w: %d (have %d)", ErrLayerOutOfRange, i, len(c.layers))
	}
	return nil
}

func (c *Compositor) setSpriteIndex(layer, spriteIndex int) error {
	if err := c.checkLayer(layer); err != nil {
		return err
	}
	if spriteIndex < 0 {
		return fmt.Errorf("%w: negative sprite index %d", ErrInvalidLayer, spriteIndex)
	}
	c.layers[layer].SpriteIndex = spriteIndex
	return nil
}

func (c *Compositor) setSheet(layer int, sheetID string) error {
	if err := c.checkLayer(layer); err != nil {
		return err
	}
	c.layers[layer].SheetID = sheetID
	return nil
}
