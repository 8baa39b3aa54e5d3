package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/milk9111/paperdoll/anim"
	"github.com/milk9111/paperdoll/compositor"
	"github.com/milk9111/paperdoll/prefabs"
	"github.com/milk9111/paperdoll/screen"
)

const (
	baseWidth  = 320
	baseHeight = 180
)

var helmets = []string{"helmet-Sheet.png", "helmet_gold-Sheet.png"}

type Game struct {
	frames int

	specName string
	sheets   *screen.Sheets
	clock    *anim.TickClock
	app      *prefabs.Appearance
	watcher  *prefabs.Watcher

	specMod time.Time
	helmet  int
	hue     float64
	dirty   bool
}

func NewGame(specName string, watch bool) (*Game, error) {
	g := &Game{
		specName: specName,
		sheets:   screen.NewSheets(),
		clock:    anim.NewTickClock(ebiten.TPS()),
	}
	app, err := g.build()
	if err != nil {
		return nil, err
	}
	g.app = app
	g.dirty = true
	g.helmet = g.equippedHelmet()
	g.specMod, _ = prefabs.ModTime(g.specName)

	if watch {
		w, err := prefabs.NewWatcher(prefabs.Dir)
		if err != nil {
			slog.Warn("hot reload disabled", "dir", prefabs.Dir, "error", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) build() (*prefabs.Appearance, error) {
	spec, err := prefabs.LoadAppearanceSpec(g.specName)
	if err != nil {
		return nil, err
	}
	app, err := prefabs.Build(spec, screen.Backend{}, g.sheets, compositor.WithClock(g.clock))
	if err != nil {
		return nil, err
	}
	slog.Debug("appearance built", "name", app.Name, "layers", app.LayerCount(), "animations", app.Animations(), "mode", app.RenderMode())
	return app, nil
}

// equippedHelmet finds the head sheet in helmets so the first cycle moves off
// whatever the appearance equipped while building.
func (g *Game) equippedHelmet() int {
	id, err := g.app.Equipped("head")
	if err != nil {
		return 0
	}
	for i, h := range helmets {
		if h == id {
			return i
		}
	}
	return 0
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) Update() error {
	g.frames++
	g.clock.Tick()
	g.pollReload()

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.play("walk")
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.play("walk_left")
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.play("swing")
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		g.play("victory")
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		g.play("idle")
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.app.Stop()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.helmet = (g.helmet + 1) % len(helmets)
		if err := g.app.Equip("head", helmets[g.helmet]); err != nil {
			slog.Warn("equip failed", "slot", "head", "error", err)
		}
		g.dirty = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		g.hue += 47
		if err := g.app.Dye("weapon", colorful.Hcl(g.hue, 0.5, 0.85).Clamped()); err != nil {
			slog.Warn("dye failed", "slot", "weapon", "error", err)
		}
		g.dirty = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.app.SeekRandom(); err != nil {
			slog.Debug("random frame skipped", "error", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		mode := compositor.RealTime
		if g.app.RenderMode() == compositor.RealTime {
			mode = compositor.PreRender
		}
		g.app.SetRenderMode(mode)
		g.dirty = true
	}

	if g.app.Active() != "" {
		g.dirty = true
	}
	return g.app.Update()
}

func (g *Game) play(name string) {
	if err := g.app.Play(name); err != nil {
		slog.Warn("play failed", "animation", name, "error", err)
	}
}

func (g *Game) pollReload() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if filepath.Base(path) != filepath.Base(g.specName) {
				continue
			}
			mod, ok := prefabs.ModTime(g.specName)
			if ok && mod.Equal(g.specMod) {
				slog.Debug("reload skipped, file unchanged", "path", path)
				continue
			}
			active := g.app.Active()
			app, err := g.build()
			if err != nil {
				slog.Warn("reload failed", "path", path, "error", err)
				continue
			}
			if active != "" {
				_ = app.Play(active)
			}
			g.app = app
			g.specMod = mod
			g.helmet = g.equippedHelmet()
			g.dirty = true
			slog.Info("appearance reloaded", "path", path)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			slog.Warn("watch error", "error", err)
		default:
			return
		}
	}
}

func (g *Game) Draw(scr *ebiten.Image) {
	ctx := g.app.Context()
	if g.app.RenderMode() == compositor.PreRender && g.dirty {
		if err := g.app.Render(ctx); err != nil {
			slog.Error("render failed", "error", err)
		}
	}
	g.dirty = false

	w, h := g.app.Size()
	x := (baseWidth - w) / 2
	y := (baseHeight - h) / 2
	if err := g.app.Draw(screen.Wrap(scr), x, y, ctx); err != nil {
		slog.Error("draw failed", "error", err)
	}

	ebitenutil.DebugPrint(scr, fmt.Sprintf("%s  anim: %s  mode: %s  FPS: %.0f\n<-/-> walk  space swing  v victory  i idle  s stop\nh helmet  d dye  r random frame  m mode",
		g.app.Name, g.app.Active(), g.app.RenderMode(), ebiten.ActualFPS()))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}
