// Package camera translates string-keyed camera properties into typed calls
// on a camera device.
//
// The package manages:
//   - PropertyAdapter: name/value text to Device calls and back
//   - The fixed property set and the mode name tables
//   - SimulatedDevice, an in-memory Device with firmware ranges
//   - Preset files of name=value lines
//   - Controller: serialised writes with persistence, telemetry and change
//     notification on top of the adapter
//   - SQLiteRepository for current values and change history
//
// Property values:
//
//	hflip, vflip, videostabilisation   "1"/"true" is on, anything else off
//	sharpness, contrast, saturation    base-10 integer
//	brightness                         base-10 integer
//	awb, expmode, expmeteringmode,     exact mode name (see ModeNames)
//	effect
//
// Usage:
//
//	dev := camera.NewSimulatedDevice()
//	adapter := camera.NewPropertyAdapter(dev)
//	if err := adapter.SetProperty("awb", "Cloudy"); err != nil {
//	    if errors.Is(err, camera.ErrInvalidPropertyValue) {
//	        // bad input, the device was not touched
//	    }
//	}
//	props := adapter.GetAllProperties()
package camera
