package main

import (
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/milk9111/paperdoll/anim"
	"github.com/milk9111/paperdoll/compositor"
	"github.com/milk9111/paperdoll/prefabs"
	"github.com/milk9111/paperdoll/raster"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "paperdoll"
	app.Usage = "render layered sprite appearances without a window"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}
	app.Before = func(c *cli.Context) error {
		level := slog.LevelInfo
		if c.Bool("debug") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render an appearance at a point in time to PNG",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "spec", Value: "knight.yaml", Usage: "appearance spec in prefabs/"},
				cli.StringFlag{Name: "anim", Usage: "animation to play (default: the appearance's play entry)"},
				cli.DurationFlag{Name: "at", Usage: "time since the animation started"},
				cli.IntFlag{Name: "frame", Value: -1, Usage: "seek to this frame of the animation instead of using --at"},
				cli.Float64Flag{Name: "scale", Usage: "override the appearance's render scale"},
				cli.StringSliceFlag{Name: "equip", Usage: "slot=sheet, may be repeated"},
				cli.StringFlag{Name: "out", Value: "paperdoll.png", Usage: "output file, - for stdout"},
			},
			Action: renderCommand,
		},
		{
			Name:   "info",
			Usage:  "describe an appearance's layers and animations",
			Flags:  []cli.Flag{cli.StringFlag{Name: "spec", Value: "knight.yaml", Usage: "appearance spec in prefabs/"}},
			Action: infoCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("paperdoll failed", "error", err)
		os.Exit(1)
	}
}

// loadAppearance builds spec on the raster backend with every sheet it names
// preloaded.
func loadAppearance(name string, clock anim.Clock) (*prefabs.Appearance, error) {
	spec, err := prefabs.LoadAppearanceSpec(name)
	if err != nil {
		return nil, err
	}
	sheets := raster.NewSheets()
	if err := sheets.Load(sheetIDs(spec)...); err != nil {
		return nil, err
	}
	return prefabs.Build(spec, raster.Backend{}, sheets, compositor.WithClock(clock))
}

func sheetIDs(spec *prefabs.AppearanceSpec) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, l := range spec.Layers {
		add(l.Sheet)
	}
	for _, a := range spec.Animations {
		add(a.Sheet)
	}
	return ids
}

func renderCommand(c *cli.Context) error {
	clock := anim.NewManualClock(time.Unix(0, 0))
	app, err := loadAppearance(c.String("spec"), clock)
	if err != nil {
		return err
	}

	for _, kv := range c.StringSlice("equip") {
		slot, sheet, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--equip wants slot=sheet, got %q", kv)
		}
		if err := app.Equip(slot, sheet); err != nil {
			return err
		}
	}

	if name := c.String("anim"); name != "" {
		if err := app.Play(name); err != nil {
			return err
		}
	}
	if frame := c.Int("frame"); frame >= 0 {
		if err := app.Seek(frame); err != nil {
			return fmt.Errorf("--frame: %w", err)
		}
	} else {
		clock.Advance(c.Duration("at"))
	}
	if err := app.Update(); err != nil {
		return err
	}

	ctx := app.Context()
	if s := c.Float64("scale"); s > 0 {
		ctx.Scale = s
	}
	if err := app.Render(ctx); err != nil {
		return err
	}
	buf, ok := app.Buffer().(*raster.Canvas)
	if !ok {
		return fmt.Errorf("unexpected buffer type %T", app.Buffer())
	}

	out := c.String("out")
	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := png.Encode(w, buf.Image()); err != nil {
		return fmt.Errorf("encode %s: %w", out, err)
	}
	slog.Info("rendered", "appearance", app.Name, "animation", app.Active(), "out", out)
	return nil
}

func infoCommand(c *cli.Context) error {
	app, err := loadAppearance(c.String("spec"), anim.NewManualClock(time.Unix(0, 0)))
	if err != nil {
		return err
	}
	w, h := app.Size()
	fmt.Printf("%s  %dx%d  mode=%s scale=%g\n", app.Name, w, h, app.RenderMode(), app.Context().Scale)

	slots := make(map[int]string, len(app.Slots))
	for name, idx := range app.Slots {
		slots[idx] = name
	}
	for i, l := range app.Layers() {
		fmt.Printf("  layer %d %-8s sheet=%s sprite=%d frame=%dx%d offset=%d,%d\n",
			i, slots[i], l.SheetID, l.SpriteIndex, l.FrameWidth, l.FrameHeight, l.OffsetX, l.OffsetY)
	}
	for _, name := range app.Animations() {
		seq, _ := app.Animation(name)
		marker := " "
		if name == app.Active() {
			marker = "*"
		}
		fmt.Printf(" %s%-10s frames=%v every %s cycles=%d layers=%v flip=%t,%t\n",
			marker, name, seq.Frames(), seq.FrameDuration(), seq.CycleLimit(), seq.Targets(), seq.FlipX, seq.FlipY)
	}
	return nil
}
