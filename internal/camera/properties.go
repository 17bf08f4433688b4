package camera

import (
	"fmt"
	"strconv"
)

// Property names accepted by the adapter.
const (
	PropertyHFlip              = "hflip"
	PropertyVFlip              = "vflip"
	PropertyVideoStabilisation = "videostabilisation"
	PropertySharpness          = "sharpness"
	PropertyContrast           = "contrast"
	PropertyBrightness         = "brightness"
	PropertySaturation         = "saturation"
	PropertyAwb                = "awb"
	PropertyExposureMode       = "expmode"
	PropertyMeteringMode       = "expmeteringmode"
	PropertyEffect             = "effect"
)

// Kind classifies how a property value is written and read.
type Kind string

const (
	// KindBool values are "1" or "true" for on; any other text means off.
	// They read back as "1" or "0".
	KindBool Kind = "bool"

	// KindInt values are signed base-10 integers.
	KindInt Kind = "int"

	// KindMode values are names from a fixed mode table.
	KindMode Kind = "mode"
)

// property binds one name to its parse/apply and read functions.
//
// set returns an error wrapping ErrInvalidPropertyValue before touching the
// device, or one wrapping ErrFailed when the device refuses the value.
type property struct {
	name string
	kind Kind
	set  func(d Device, value string) error
	get  func(d Device) string
}

// properties is the fixed property set in declaration order. GetAllProperties
// and preset files follow this order.
var properties = []property{
	{
		name: PropertyHFlip,
		kind: KindBool,
		set: func(d Device, value string) error {
			return applied(d.SetFlip(parseBool(value), d.VerticalFlip()))
		},
		get: func(d Device) string { return formatBool(d.HorizontalFlip()) },
	},
	{
		name: PropertyVFlip,
		kind: KindBool,
		set: func(d Device, value string) error {
			return applied(d.SetFlip(d.HorizontalFlip(), parseBool(value)))
		},
		get: func(d Device) string { return formatBool(d.VerticalFlip()) },
	},
	{
		name: PropertyVideoStabilisation,
		kind: KindBool,
		set: func(d Device, value string) error {
			return applied(d.SetVideoStabilisation(parseBool(value)))
		},
		get: func(d Device) string { return formatBool(d.VideoStabilisation()) },
	},
	intProperty(PropertySharpness, Device.SetSharpness, Device.Sharpness),
	intProperty(PropertyContrast, Device.SetContrast, Device.Contrast),
	intProperty(PropertyBrightness, Device.SetBrightness, Device.Brightness),
	intProperty(PropertySaturation, Device.SetSaturation, Device.Saturation),
	modeProperty(PropertyAwb, awbModes, Device.SetWhiteBalanceMode, Device.WhiteBalanceMode),
	modeProperty(PropertyExposureMode, exposureModes, Device.SetExposureMode, Device.ExposureMode),
	modeProperty(PropertyMeteringMode, meteringModes, Device.SetExposureMeteringMode, Device.ExposureMeteringMode),
	modeProperty(PropertyEffect, imageEffects, Device.SetImageEffect, Device.ImageEffect),
}

// propertyIndex maps names to entries of properties.
var propertyIndex = func() map[string]*property {
	idx := make(map[string]*property, len(properties))
	for i := range properties {
		idx[properties[i].name] = &properties[i]
	}
	return idx
}()

func intProperty(name string, set func(Device, int) error, get func(Device) int) property {
	return property{
		name: name,
		kind: KindInt,
		set: func(d Device, value string) error {
			v, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%w: %q is not an integer", ErrInvalidPropertyValue, value)
			}
			return applied(set(d, v))
		},
		get: func(d Device) string { return strconv.Itoa(get(d)) },
	}
}

func modeProperty[M ~int](name string, table *modeTable[M], set func(Device, M) error, get func(Device) M) property {
	return property{
		name: name,
		kind: KindMode,
		set: func(d Device, value string) error {
			m, ok := table.lookup(value)
			if !ok {
				return fmt.Errorf("%w: %q is not a %s mode", ErrInvalidPropertyValue, value, name)
			}
			return applied(set(d, m))
		},
		// A device value with no table entry reads as "".
		get: func(d Device) string { return table.name(get(d)) },
	}
}

// applied converts a device setter result into the adapter's error kind.
func applied(err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailed, err)
	}
	return nil
}

func parseBool(value string) bool {
	return value == "1" || value == "true"
}

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// Names returns the recognised property names in declaration order.
func Names() []string {
	names := make([]string, len(properties))
	for i := range properties {
		names[i] = properties[i].name
	}
	return names
}

// KindOf reports the kind of a property and whether the name is recognised.
func KindOf(name string) (Kind, bool) {
	p, ok := propertyIndex[name]
	if !ok {
		return "", false
	}
	return p.kind, true
}

// IsKnown reports whether name is a recognised property.
func IsKnown(name string) bool {
	_, ok := propertyIndex[name]
	return ok
}
