package anim

import (
	"errors"
	"math/rand"
	"time"
)

var (
	ErrEmptyFrames         = errors.New("anim: frame list is empty")
	ErrNonPositiveDuration = errors.New("anim: frame duration must be positive")
)

// State reports whether a Sequence is still advancing.
type State int

const (
	Running State = iota
	// Frozen means the cycle limit was reached; the last frame is shown until
	// Rewind or GotoFrame.
	Frozen
)

func (s State) String() string {
	if s == Frozen {
		return "frozen"
	}
	return "running"
}

// SequenceConfig describes a Sequence. Clock defaults to SystemClock and Rand
// to a time-seeded source.
type SequenceConfig struct {
	FrameDuration time.Duration
	Frames        []int
	CycleLimit    int
	Targets       []int
	FlipX         bool
	FlipY         bool
	Clock         Clock
	Rand          *rand.Rand
}

// Sequence is a time-driven cursor over a list of sprite indices. The cursor
// is derived from the time elapsed since its origin, so skipped updates never
// desynchronise it.
type Sequence struct {
	FlipX bool
	FlipY bool

	frameDuration time.Duration
	frames        []int
	cycleLimit    int
	targets       []int

	clock  Clock
	rng    *rand.Rand
	origin time.Time

	current int
	loops   int
}

// NewSequence validates cfg and returns a Sequence positioned on frame 0.
func NewSequence(cfg SequenceConfig) (*Sequence, error) {
	if len(cfg.Frames) == 0 {
		return nil, ErrEmptyFrames
	}
	if cfg.FrameDuration <= 0 {
		return nil, ErrNonPositiveDuration
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Sequence{
		FlipX:         cfg.FlipX,
		FlipY:         cfg.FlipY,
		frameDuration: cfg.FrameDuration,
		frames:        append([]int(nil), cfg.Frames...),
		cycleLimit:    cfg.CycleLimit,
		targets:       append([]int(nil), cfg.Targets...),
		clock:         clock,
		rng:           rng,
	}
	s.origin = clock.Now()
	return s, nil
}

// Update recomputes the current frame from the elapsed time.
func (s *Sequence) Update() {
	n := len(s.frames)
	passed := floorDiv(int64(s.Elapsed()), int64(s.frameDuration))
	s.loops = int(floorDiv(passed, int64(n)))
	if s.cycleLimit > 0 && s.loops >= s.cycleLimit {
		s.current = n - 1
		return
	}
	s.current = int(passed - int64(s.loops)*int64(n))
}

// Rewind restarts the elapsed time. The frame index changes on the next Update.
func (s *Sequence) Rewind() {
	s.origin = s.clock.Now()
	s.loops = 0
}

// GotoFrame seeks so that exactly n frames have passed, then updates.
// n is not range checked: values past the end count as completed loops and
// may freeze a limited sequence.
func (s *Sequence) GotoFrame(n int) {
	s.origin = s.clock.Now().Add(-time.Duration(n) * s.frameDuration)
	s.Update()
}

// GotoRandomFrame seeks to a uniformly chosen frame of the list.
func (s *Sequence) GotoRandomFrame() {
	s.GotoFrame(s.rng.Intn(len(s.frames)))
}

// Elapsed returns the time since the origin.
func (s *Sequence) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.origin)
}

// Frame returns the current index into the frame list.
func (s *Sequence) Frame() int { return s.current }

// SpriteIndex returns the sprite index shown on the current frame.
func (s *Sequence) SpriteIndex() int { return s.frames[s.current] }

// Loops returns the number of full loops completed at the last Update.
func (s *Sequence) Loops() int { return s.loops }

func (s *Sequence) State() State {
	if s.cycleLimit > 0 && s.loops >= s.cycleLimit {
		return Frozen
	}
	return Running
}

func (s *Sequence) Frames() []int                { return append([]int(nil), s.frames...) }
func (s *Sequence) Targets() []int               { return append([]int(nil), s.targets...) }
func (s *Sequence) CycleLimit() int              { return s.cycleLimit }
func (s *Sequence) FrameDuration() time.Duration { return s.frameDuration }

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
