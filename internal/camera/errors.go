package camera

import "errors"

// Adapter errors. Every failed SetProperty or GetProperty call wraps exactly
// one of these, so callers can branch with errors.Is:
//
//	if errors.Is(err, camera.ErrInvalidPropertyValue) {
//	    // reject the request, the device was not touched
//	}
var (
	// ErrUnknownProperty is returned when the property name is not recognised.
	ErrUnknownProperty = errors.New("camera: unknown property")

	// ErrInvalidPropertyValue is returned when a value cannot be parsed or
	// names a mode that is not in the property's table. The device is not
	// called in this case.
	ErrInvalidPropertyValue = errors.New("camera: invalid property value")

	// ErrFailed is returned when the device rejects a value that passed
	// validation.
	ErrFailed = errors.New("camera: device rejected value")
)

// Device and persistence errors.
var (
	// ErrValueOutOfRange is returned by SimulatedDevice for integers outside
	// the firmware range of the property.
	ErrValueOutOfRange = errors.New("camera: value out of range")

	// ErrUnsupportedMode is returned by SimulatedDevice for enum values that
	// have no entry in the mode tables.
	ErrUnsupportedMode = errors.New("camera: unsupported mode")

	// ErrMalformedPreset is returned by LoadPreset for lines that are not
	// name=value pairs.
	ErrMalformedPreset = errors.New("camera: malformed preset")

	// ErrCameraIDRequired is returned by the repository when no camera ID is given.
	ErrCameraIDRequired = errors.New("camera: camera id is required")
)
