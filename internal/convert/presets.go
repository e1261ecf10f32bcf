package convert

import "fmt"

// Preset names a bundle of encoding and filter values. It is informational
// once applied.
type Preset string

const (
	PresetCustom  Preset = "custom"
	PresetWeb     Preset = "web"
	PresetPhoto   Preset = "photo"
	PresetArchive Preset = "archive"
	PresetSmall   Preset = "small"
)

type presetValues struct {
	quality  int
	lossless bool
	sharpen  int
	denoise  int
}

// custom carries no values; applying it only records the tag.
var presets = map[Preset]*presetValues{
	PresetCustom:  nil,
	PresetWeb:     {quality: 80, sharpen: 20},
	PresetPhoto:   {quality: 92, sharpen: 10, denoise: 10},
	PresetArchive: {quality: 100, lossless: true},
	PresetSmall:   {quality: 60, denoise: 25},
}

// Presets lists the known preset names in a stable order.
func Presets() []Preset {
	return []Preset{PresetCustom, PresetWeb, PresetPhoto, PresetArchive, PresetSmall}
}

// ApplyPreset returns s with p's values merged in. Resize settings are
// always kept as they are.
func (s Settings) ApplyPreset(p Preset) (Settings, error) {
	v, ok := presets[p]
	if !ok {
		return s, fmt.Errorf("unknown preset %q", p)
	}
	s.Preset = p
	if v == nil {
		return s, nil
	}
	s.Quality = v.quality
	s.Lossless = v.lossless
	s.Sharpen = v.sharpen
	s.Denoise = v.denoise
	return s, nil
}
