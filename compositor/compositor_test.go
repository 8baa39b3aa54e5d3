package compositor

import (
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/milk9111/paperdoll/anim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheet struct {
	id     string
	bounds image.Rectangle
}

func (s fakeSheet) Bounds() image.Rectangle { return s.bounds }

type drawCall struct {
	src  Source
	clip image.Rectangle
	dst  image.Rectangle
	opts DrawOptions
}

type recordingCanvas struct {
	bounds image.Rectangle
	calls  []drawCall
	clears int
}

func (r *recordingCanvas) Bounds() image.Rectangle { return r.bounds }

func (r *recordingCanvas) DrawImage(src Source, clip, dst image.Rectangle, opts DrawOptions) error {
	r.calls = append(r.calls, drawCall{src: src, clip: clip, dst: dst, opts: opts})
	return nil
}

func (r *recordingCanvas) Clear() {
	r.clears++
	r.calls = nil
}

type recordingBackend struct {
	canvases []*recordingCanvas
}

func (b *recordingBackend) NewCanvas(width, height int) (Canvas, error) {
	c := &recordingCanvas{bounds: image.Rect(0, 0, width, height)}
	b.canvases = append(b.canvases, c)
	return c, nil
}

type sheetMap map[string]fakeSheet

func (m sheetMap) Sheet(id string) (Source, error) {
	s, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("sheet %q not loaded", id)
	}
	return s, nil
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testSheets() sheetMap {
	return sheetMap{
		"a":    {id: "a", bounds: image.Rect(0, 0, 128, 32)},
		"b":    {id: "b", bounds: image.Rect(0, 0, 64, 16)},
		"grid": {id: "grid", bounds: image.Rect(0, 0, 32, 32)},
	}
}

func newTestCompositor(t *testing.T, clock anim.Clock) (*Compositor, *recordingCanvas) {
	t.Helper()
	backend := &recordingBackend{}
	c, err := New(64, 64, backend, testSheets(), WithClock(clock))
	require.NoError(t, err)
	require.Len(t, backend.canvases, 1)
	return c, backend.canvases[0]
}

func TestNewValidation(t *testing.T) {
	_, err := New(0, 10, &recordingBackend{}, testSheets())
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = New(10, 10, nil, testSheets())
	assert.ErrorIs(t, err, ErrNilCollaborator)
	_, err = New(10, 10, &recordingBackend{}, nil)
	assert.ErrorIs(t, err, ErrNilCollaborator)
}

func TestAddLayerReturnsIndex(t *testing.T) {
	c, _ := newTestCompositor(t, anim.NewManualClock(epoch))
	for want := 0; want < 3; want++ {
		got, err := c.AddLayer(Layer{SheetID: "a", FrameWidth: 32, FrameHeight: 32})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, c.LayerCount())

	_, err := c.AddLayer(Layer{SheetID: "a", SpriteIndex: -1, FrameWidth: 32, FrameHeight: 32})
	assert.ErrorIs(t, err, ErrInvalidLayer)
	_, err = c.AddLayer(Layer{SheetID: "a", FrameWidth: 0, FrameHeight: 32})
	assert.ErrorIs(t, err, ErrInvalidLayer)
}

func TestRenderTwoLayerScenario(t *testing.T) {
	c, buf := newTestCompositor(t, anim.NewManualClock(epoch))
	_, err := c.AddLayer(Layer{SheetID: "a", SpriteIndex: 0, FrameWidth: 32, FrameHeight: 32})
	require.NoError(t, err)
	_, err = c.AddLayer(Layer{SheetID: "b", SpriteIndex: 2, FrameWidth: 16, FrameHeight: 16, OffsetX: 5, OffsetY: 5})
	require.NoError(t, err)

	require.NoError(t, c.Render(RenderContext{Scale: 1}))
	require.Len(t, buf.calls, 2)

	first, second := buf.calls[0], buf.calls[1]
	assert.Equal(t, "a", first.src.(fakeSheet).id)
	assert.Equal(t, image.Rect(0, 0, 32, 32), first.clip)
	assert.Equal(t, image.Rect(0, 0, 32, 32), first.dst)

	assert.Equal(t, "b", second.src.(fakeSheet).id)
	assert.Equal(t, image.Rect(32, 0, 48, 16), second.clip)
	assert.Equal(t, image.Rect(5, 5, 21, 21), second.dst)
}

func TestRenderScale(t *testing.T) {
	cases := []struct {
		name      string
		ctx       RenderContext
		sheet     image.Rectangle
		wantClip  image.Rectangle
		wantDest  image.Rectangle
		spriteIdx int
	}{
		{
			name:      "native_sheets",
			ctx:       RenderContext{Scale: 2},
			sheet:     image.Rect(0, 0, 64, 16),
			spriteIdx: 2,
			wantClip:  image.Rect(32, 0, 48, 16),
			wantDest:  image.Rect(10, 10, 42, 42),
		},
		{
			name:      "prescaled_sheets",
			ctx:       RenderContext{Scale: 2, PrescaledSheets: true},
			sheet:     image.Rect(0, 0, 128, 32),
			spriteIdx: 2,
			wantClip:  image.Rect(64, 0, 96, 32),
			wantDest:  image.Rect(10, 10, 42, 42),
		},
		{
			name:      "zero_scale_is_one",
			ctx:       RenderContext{},
			sheet:     image.Rect(0, 0, 64, 16),
			spriteIdx: 1,
			wantClip:  image.Rect(16, 0, 32, 16),
			wantDest:  image.Rect(5, 5, 21, 21),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &recordingBackend{}
			c, err := New(64, 64, backend, sheetMap{"s": {id: "s", bounds: tc.sheet}})
			require.NoError(t, err)
			_, err = c.AddLayer(Layer{SheetID: "s", SpriteIndex: tc.spriteIdx, FrameWidth: 16, FrameHeight: 16, OffsetX: 5, OffsetY: 5})
			require.NoError(t, err)
			require.NoError(t, c.Render(tc.ctx))
			calls := backend.canvases[0].calls
			require.Len(t, calls, 1)
			assert.Equal(t, tc.wantClip, calls[0].clip)
			assert.Equal(t, tc.wantDest, calls[0].dst)
		})
	}
}

func TestRenderWrapsGridRows(t *testing.T) {
	c, buf := newTestCompositor(t, anim.NewManualClock(epoch))
	_, err := c.AddLayer(Layer{SheetID: "grid", SpriteIndex: 3, FrameWidth: 16, FrameHeight: 16})
	require.NoError(t, err)
	require.NoError(t, c.Render(RenderContext{Scale: 1}))
	require.Len(t, buf.calls, 1)
	assert.Equal(t, image.Rect(16, 16, 32, 32), buf.calls[0].clip)
}

func TestRenderWrapsNonSquareFrames(t *testing.T) {
	backend := &recordingBackend{}
	c, err := New(64, 64, backend, sheetMap{"wide": {id: "wide", bounds: image.Rect(0, 0, 64, 32)}})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := c.AddLayer(Layer{SheetID: "wide", SpriteIndex: i, FrameWidth: 32, FrameHeight: 16})
		require.NoError(t, err)
	}
	require.NoError(t, c.ReplaceSpriteIndexAtLayer(4, 3))
	require.NoError(t, c.Render(RenderContext{Scale: 1}))

	want := []image.Rectangle{
		image.Rect(0, 0, 32, 16),
		image.Rect(32, 0, 64, 16),
		image.Rect(0, 16, 32, 32),
		image.Rect(32, 16, 64, 32),
		image.Rect(32, 16, 64, 32),
	}
	calls := backend.canvases[0].calls
	require.Len(t, calls, len(want))
	for i, w := range want {
		assert.Equal(t, w, calls[i].clip, "sprite on layer %d", i)
	}

	require.NoError(t, c.ReplaceSpriteIndexAtLayer(0, 4))
	assert.ErrorIs(t, c.Render(RenderContext{Scale: 1}), ErrSpriteOutOfRange)
}

func TestRenderOrderFollowsLayerIndex(t *testing.T) {
	c, buf := newTestCompositor(t, anim.NewManualClock(epoch))
	ids := []string{"a", "b", "a", "grid", "b"}
	for i, id := range ids {
		_, err := c.AddLayer(Layer{SheetID: id, FrameWidth: 16, FrameHeight: 16, OffsetX: i})
		require.NoError(t, err)
	}
	require.NoError(t, c.Render(RenderContext{Scale: 1}))
	require.Len(t, buf.calls, len(ids))
	for i, call := range buf.calls {
		assert.Equal(t, ids[i], call.src.(fakeSheet).id)
		assert.Equal(t, i, call.dst.Min.X)
	}
}

func TestFlushThenRenderDrawsNothing(t *testing.T) {
	c, buf := newTestCompositor(t, anim.NewManualClock(epoch))
	_, err := c.AddLayer(Layer{SheetID: "a", FrameWidth: 32, FrameHeight: 32})
	require.NoError(t, err)
	require.NoError(t, c.AddAnim(AnimDef{Name: "idle", FrameDuration: time.Second, Frames: []int{0}, Targets: []int{0}}))

	c.Flush()
	assert.Equal(t, 0, c.LayerCount())
	assert.Equal(t, []string{"idle"}, c.Animations())

	require.NoError(t, c.Render(RenderContext{Scale: 1}))
	assert.Empty(t, buf.calls)
	assert.Equal(t, 1, buf.clears)
}

func TestRenderErrors(t *testing.T) {
	t.Run("missing_sheet", func(t *testing.T) {
		c, _ := newTestCompositor(t, anim.NewManualClock(epoch))
		_, err := c.AddLayer(Layer{SheetID: "nope", FrameWidth: 8, FrameHeight: 8})
		require.NoError(t, err)
		err = c.Render(RenderContext{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not loaded")
	})
	t.Run("sprite_past_sheet", func(t *testing.T) {
		c, _ := newTestCompositor(t, anim.NewManualClock(epoch))
		_, err := c.AddLayer(Layer{SheetID: "b", SpriteIndex: 4, FrameWidth: 16, FrameHeight: 16})
		require.NoError(t, err)
		assert.ErrorIs(t, c.Render(RenderContext{}), ErrSpriteOutOfRange)
	})
	t.Run("frame_wider_than_sheet", func(t *testing.T) {
		c, _ := newTestCompositor(t, anim.NewManualClock(epoch))
		_, err := c.AddLayer(Layer{SheetID: "b", FrameWidth: 80, FrameHeight: 16})
		require.NoError(t, err)
		assert.ErrorIs(t, c.Render(RenderContext{}), ErrSpriteOutOfRange)
	})
}

func TestReplaceAtLayer(t *testing.T) {
	c, _ := newTestCompositor(t, anim.NewManualClock(epoch))
	_, err := c.AddLayer(Layer{SheetID: "a", FrameWidth: 32, FrameHeight: 32, OffsetX: 3})
	require.NoError(t, err)

	require.NoError(t, c.ReplaceSpriteIndexAtLayer(0, 2))
	require.NoError(t, c.ReplaceSpriteSheetAtLayer(0, "b"))
	require.NoError(t, c.SetLayerTint(0, color.NRGBA{R: 255, A: 255}))
	l, err := c.Layer(0)
	require.NoError(t, err)
	assert.Equal(t, Layer{SheetID: "b", SpriteIndex: 2, FrameWidth: 32, FrameHeight: 32, OffsetX: 3, Tint: color.NRGBA{R: 255, A: 255}}, l)

	for _, bad := range []int{-1, 1, 10} {
		assert.ErrorIs(t, c.ReplaceSpriteIndexAtLayer(bad, 0), ErrLayerOutOfRange)
		assert.ErrorIs(t, c.ReplaceSpriteSheetAtLayer(bad, "a"), ErrLayerOutOfRange)
		assert.ErrorIs(t, c.SetLayerTint(bad, nil), ErrLayerOutOfRange)
	}
	assert.ErrorIs(t, c.ReplaceSpriteIndexAtLayer(0, -3), ErrInvalidLayer)
}

func TestCopyLayerToLocationCopiesByValue(t *testing.T) {
	c, _ := newTestCompositor(t, anim.NewManualClock(epoch))
	_, err := c.AddLayer(Layer{SheetID: "a", SpriteIndex: 1, FrameWidth: 32, FrameHeight: 32})
	require.NoError(t, err)
	_, err = c.AddLayer(Layer{SheetID: "b", SpriteIndex: 0, FrameWidth: 16, FrameHeight: 16})
	require.NoError(t, err)

	require.NoError(t, c.CopyLayerToLocation(0, 1))
	require.NoError(t, c.ReplaceSpriteIndexAtLayer(0, 3))

	src, _ := c.Layer(0)
	dst, _ := c.Layer(1)
	assert.Equal(t, 3, src.SpriteIndex)
	assert.Equal(t, 1, dst.SpriteIndex, "target must not alias source")
	assert.Equal(t, "a", dst.SheetID)

	assert.ErrorIs(t, c.CopyLayerToLocation(0, 2), ErrLayerOutOfRange)
	assert.ErrorIs(t, c.CopyLayerToLocation(5, 0), ErrLayerOutOfRange)
}

func TestLayersSnapshotIsDetached(t *testing.T) {
	c, _ := newTestCompositor(t, anim.NewManualClock(epoch))
	_, err := c.AddLayer(Layer{SheetID: "a", FrameWidth: 32, FrameHeight: 32})
	require.NoError(t, err)
	snap := c.Layers()
	snap[0].SpriteIndex = 9
	l, _ := c.Layer(0)
	assert.Equal(t, 0, l.SpriteIndex)
}

func TestDrawModes(t *testing.T) {
	c, buf := newTestCompositor(t, anim.NewManualClock(epoch))
	_, err := c.AddLayer(Layer{SheetID: "a", FrameWidth: 32, FrameHeight: 32})
	require.NoError(t, err)
	screen := &recordingCanvas{bounds: image.Rect(0, 0, 320, 240)}

	assert.Equal(t, PreRender, c.RenderMode())
	require.NoError(t, c.Draw(screen, 10, 20, RenderContext{}))
	assert.Equal(t, 0, buf.clears, "pre-render draw must not repaint")
	require.Len(t, screen.calls, 1)
	assert.Equal(t, Source(buf), screen.calls[0].src)
	assert.Equal(t, image.Rect(0, 0, 64, 64), screen.calls[0].clip)
	assert.Equal(t, image.Rect(10, 20, 74, 84), screen.calls[0].dst)

	c.SetRenderMode(RealTime)
	require.NoError(t, c.Draw(screen, 0, 0, RenderContext{}))
	require.NoError(t, c.Draw(screen, 0, 0, RenderContext{}))
	assert.Equal(t, 2, buf.clears)
	assert.Len(t, buf.calls, 1)
	assert.Len(t, screen.calls, 3)
}

func TestDrawPropagatesRenderError(t *testing.T) {
	c, _ := newTestCompositor(t, anim.NewManualClock(epoch))
	c.SetRenderMode(RealTime)
	_, err := c.AddLayer(Layer{SheetID: "missing", FrameWidth: 8, FrameHeight: 8})
	require.NoError(t, err)
	screen := &recordingCanvas{}
	require.Error(t, c.Draw(screen, 0, 0, RenderContext{}))
	assert.Empty(t, screen.calls)
}

func TestParseRenderMode(t *testing.T) {
	for _, m := range []RenderMode{PreRender, RealTime} {
		got, err := ParseRenderMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseRenderMode("")
	require.NoError(t, err)
	assert.Equal(t, PreRender, got)
	_, err = ParseRenderMode("cached")
	assert.Error(t, err)
}
