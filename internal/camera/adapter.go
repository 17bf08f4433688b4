package camera

import "fmt"

// PropertyAdapter translates string-keyed property names and values into
// typed calls on a Device, and reads them back as strings.
//
// The adapter holds no state besides the device reference and performs no
// locking. It is safe for concurrent use only to the extent the device is.
type PropertyAdapter struct {
	dev Device
}

// NewPropertyAdapter returns an adapter bound to dev for its lifetime.
func NewPropertyAdapter(dev Device) *PropertyAdapter {
	return &PropertyAdapter{dev: dev}
}

// SetProperty parses value according to the kind of the named property and
// applies it to the device.
//
// Boolean properties treat "1" and "true" as on and everything else as off.
// Integer properties require base-10 text, and mode properties require an
// exact name from the property's table; otherwise ErrInvalidPropertyValue is
// returned and the device is not called. ErrFailed is returned when the
// device refuses a valid value.
//
// hflip and vflip read the current state of the other axis and write both
// through SetFlip. This read-modify-write is not atomic: a concurrent change
// to the other axis between the read and the write is overwritten.
func (a *PropertyAdapter) SetProperty(name, value string) error {
	p, ok := propertyIndex[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	if err := p.set(a.dev, value); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return nil
}

// GetProperty returns the current value of the named property as text.
//
// Booleans read as "1" or "0" and integers as decimal text. A mode property
// whose device value has no entry in its table reads as "" with a nil error.
func (a *PropertyAdapter) GetProperty(name string) (string, error) {
	p, ok := propertyIndex[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return p.get(a.dev), nil
}

// GetAllProperties returns every property that reads successfully, keyed by
// name. Properties are read in declaration order.
func (a *PropertyAdapter) GetAllProperties() map[string]string {
	values := make(map[string]string, len(properties))
	for i := range properties {
		name := properties[i].name
		value, err := a.GetProperty(name)
		if err != nil {
			continue
		}
		values[name] = value
	}
	return values
}
