package compositor

import (
	"fmt"
	"sort"
	"time"

	"github.com/milk9111/paperdoll/anim"
)

// AnimDef describes a named animation. When NewSheetID is set, the sheet of
// LayerForNewSheet is replaced before the animation is registered.
type AnimDef struct {
	Name          string
	FrameDuration time.Duration
	Frames        []int
	CycleLimit    int
	Targets       []int
	FlipX         bool
	FlipY         bool

	NewSheetID       string
	LayerForNewSheet int
}

// AddAnim registers def under def.Name, replacing any animation of the same
// name. It does not start playing it.
func (c *Compositor) AddAnim(def AnimDef) error {
	for _, f := range def.Frames {
		if f < 0 {
			return fmt.Errorf("compositor: animation %q: negative sprite index %d", def.Name, f)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seq, err := anim.NewSequence(anim.SequenceConfig{
		FrameDuration: def.FrameDuration,
		Frames:        def.Frames,
		CycleLimit:    def.CycleLimit,
		Targets:       def.Targets,
		FlipX:         def.FlipX,
		FlipY:         def.FlipY,
		Clock:         c.clock,
		Rand:          c.rng,
	})
	if err != nil {
		return fmt.Errorf("compositor: animation %q: %w", def.Name, err)
	}

	if def.NewSheetID != "" {
		if err := c.setSheet(def.LayerForNewSheet, def.NewSheetID); err != nil {
			return fmt.Errorf("compositor: animation %q: %w", def.Name, err)
		}
	}

	c.anims[def.Name] = seq
	if c.active == def.Name {
		c.current = seq
	}
	return nil
}

// Play makes name the active animation and rewinds it. Playing the animation
// that is already active does nothing. An unknown name is an error and the
// previous animation stays active.
func (c *Compositor) Play(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, ok := c.anims[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAnimation, name)
	}
	if c.current == seq {
		return nil
	}
	c.active = name
	c.current = seq
	seq.Rewind()
	return nil
}

// Stop clears the active animation. Layers keep their last sprite index.
func (c *Compositor) Stop() {
	c.mu.Lock()
	c.active = ""
	c.current = nil
	c.mu.Unlock()
}

// Active returns the name of the playing animation, or "" if none.
func (c *Compositor) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Animation returns the sequence registered under name. The sequence is
// shared with the compositor and is not locked; use it from the goroutine
// that calls Update.
func (c *Compositor) Animation(name string) (*anim.Sequence, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, ok := c.anims[name]
	return seq, ok
}

// Animations lists registered animation names in sorted order.
func (c *Compositor) Animations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.anims))
	for name := range c.anims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Seek jumps the active animation to entry n of its frame list. n is not
// range checked: values past the end count as completed loops.
func (c *Compositor) Seek(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ErrNoActiveAnimation
	}
	c.current.GotoFrame(n)
	return nil
}

// SeekRandom jumps the active animation to a random entry of its frame list.
func (c *Compositor) SeekRandom() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ErrNoActiveAnimation
	}
	c.current.GotoRandomFrame()
	return nil
}

// Update advances the active animation and writes its current sprite index
// into every target layer. Without an active animation it does nothing.
func (c *Compositor) Update() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	c.current.Update()
	idx := c.current.SpriteIndex()
	targets := c.current.Targets()
	for _, layer := range targets {
		if err := c.checkLayer(layer); err != nil {
			return fmt.Errorf("compositor: animation %q: %w", c.active, err)
		}
	}
	for _, layer := range targets {
		if err := c.setSpriteIndex(layer, idx); err != nil {
			return fmt.Errorf("compositor: animation %q: %w", c.active, err)
		}
	}
	return nil
}
