package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// AppearanceSpec is a layered character appearance: the buffer it renders
// into, its paint stack and its animations.
type AppearanceSpec struct {
	Name       string          `yaml:"name"`
	Width      int             `yaml:"width"`
	Height     int             `yaml:"height"`
	RenderMode string          `yaml:"render_mode"`
	Scale      float64         `yaml:"scale"`
	Play       string          `yaml:"play"`
	Layers     []LayerSpec     `yaml:"layers"`
	Animations []AnimationSpec `yaml:"animations"`
}

func LoadAppearanceSpec(filename string) (*AppearanceSpec, error) {
	spec, err := LoadSpec[AppearanceSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

type LayerSpec struct {
	Slot    string     `yaml:"slot"`
	Sheet   string     `yaml:"sheet"`
	Sprite  int        `yaml:"sprite"`
	FrameW  int        `yaml:"frame_w"`
	FrameH  int        `yaml:"frame_h"`
	OffsetX int        `yaml:"offset_x"`
	OffsetY int        `yaml:"offset_y"`
	Tint    *YAMLColor `yaml:"tint"`
}

type AnimationSpec struct {
	Name       string `yaml:"name"`
	FrameMs    int    `yaml:"frame_ms"`
	Frames     []int  `yaml:"frames"`
	Cycles     int    `yaml:"cycles"`
	Layers     []int  `yaml:"layers"`
	FlipX      bool   `yaml:"flip_x"`
	FlipY      bool   `yaml:"flip_y"`
	Sheet      string `yaml:"sheet"`
	SheetLayer int    `yaml:"sheet_layer"`
}

// YAMLColor accepts "#rrggbb" or "#rrggbbaa".
type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	rgb, err := colorful.Hex("#" + s[:6])
	if err != nil {
		return fmt.Errorf("invalid color %s: %w", value.Value, err)
	}
	r, g, b := rgb.RGB255()

	a := uint8(255)
	if len(s) == 8 {
		v, err := strconv.ParseUint(s[6:8], 16, 8)
		if err != nil {
			return fmt.Errorf("invalid color alpha %s: %w", value.Value, err)
		}
		a = uint8(v)
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
