package camera

import "fmt"

// AwbMode is the automatic white balance setting of the device.
type AwbMode int

// White balance modes.
const (
	AwbOff AwbMode = iota
	AwbAuto
	AwbSunlight
	AwbCloudy
	AwbShade
	AwbTungsten
	AwbFluorescent
	AwbIncandescent
	AwbFlash
	AwbHorizon
)

// ExposureMode is the exposure program of the device.
type ExposureMode int

// Exposure modes.
const (
	ExposureOff ExposureMode = iota
	ExposureAuto
	ExposureNight
	ExposureNightPreview
	ExposureBacklight
	ExposureSpotlight
	ExposureSports
	ExposureSnow
	ExposureBeach
	ExposureVeryLong
	ExposureFixedFps
	ExposureAntiShake
	ExposureFireWorks
)

// ExposureMeteringMode selects how the device meters the scene for exposure.
type ExposureMeteringMode int

// Exposure metering modes.
const (
	MeteringAverage ExposureMeteringMode = iota
	MeteringSpot
	MeteringBacklit
	MeteringMatrix
)

// ImageEffect is the image filter applied by the device.
type ImageEffect int

// Image effects.
const (
	EffectNone ImageEffect = iota
	EffectNegative
	EffectSolarize
	EffectSketch
	EffectDenoise
	EffectEmboss
	EffectOilPaint
	EffectHatch
	EffectGpen
	EffectPastel
	EffectWaterColor
	EffectFilm
	EffectBlur
	EffectSaturation
	EffectColorSwap
	EffectWashedOut
	EffectPosterise
	EffectColorPoint
	EffectColorBalance
	EffectCartoon
)

// modeTable is a fixed bijection between mode names and enum values.
// Tables are built once at package initialisation and never modified.
type modeTable[M ~int] struct {
	names   []string
	byName  map[string]M
	byValue map[M]string
}

// newModeTable maps names[i] to M(i). It panics on a duplicate name, which
// would break the bijection.
func newModeTable[M ~int](names ...string) *modeTable[M] {
	t := &modeTable[M]{
		names:   names,
		byName:  make(map[string]M, len(names)),
		byValue: make(map[M]string, len(names)),
	}
	for i, name := range names {
		if _, dup := t.byName[name]; dup {
			panic(fmt.Sprintf("camera: duplicate mode name %q", name))
		}
		t.byName[name] = M(i)
		t.byValue[M(i)] = name
	}
	return t
}

// lookup resolves a name. Matching is exact and case-sensitive.
func (t *modeTable[M]) lookup(name string) (M, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// name returns the name for m, or "" when m has no entry.
func (t *modeTable[M]) name(m M) string {
	return t.byValue[m]
}

func (t *modeTable[M]) valid(m M) bool {
	_, ok := t.byValue[m]
	return ok
}

// list returns a copy of the names in table order.
func (t *modeTable[M]) list() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

var (
	awbModes = newModeTable[AwbMode](
		"Off", "Auto", "Sunlight", "Cloudy", "Shade", "Tungsten",
		"Fluorescent", "Incandescent", "Flash", "Horizon",
	)

	exposureModes = newModeTable[ExposureMode](
		"Off", "Auto", "Night", "NightPreview", "Backlight", "Spotlight",
		"Sports", "Snow", "Beach", "VeryLong", "FixedFps", "AntiShake", "FireWorks",
	)

	meteringModes = newModeTable[ExposureMeteringMode](
		"Average", "Spot", "Backlit", "Matrix",
	)

	imageEffects = newModeTable[ImageEffect](
		"None", "Negative", "Solarize", "Sketch", "Denoise", "Emboss",
		"OilPaint", "Hatch", "Gpen", "Pastel", "WaterColor", "Film", "Blur",
		"Saturation", "ColorSwap", "WashedOut", "Posterise", "ColorPoint",
		"ColorBalance", "Cartoon",
	)
)

func (m AwbMode) String() string              { return awbModes.name(m) }
func (m ExposureMode) String() string         { return exposureModes.name(m) }
func (m ExposureMeteringMode) String() string { return meteringModes.name(m) }
func (e ImageEffect) String() string          { return imageEffects.name(e) }

// ModeNames returns the accepted values of each mode-typed property, keyed by
// property name, with names in table order.
func ModeNames() map[string][]string {
	return map[string][]string{
		PropertyAwb:          awbModes.list(),
		PropertyExposureMode: exposureModes.list(),
		PropertyMeteringMode: meteringModes.list(),
		PropertyEffect:       imageEffects.list(),
	}
}
