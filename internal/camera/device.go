package camera

// Device is the typed control surface of a camera.
//
// Setters return an error when the device refuses a value. Getters report
// the current setting and cannot fail. Implementations own their own
// synchronisation; the adapter calls them without locking.
type Device interface {
	// SetFlip sets both flip axes in a single call.
	SetFlip(horizontal, vertical bool) error
	HorizontalFlip() bool
	VerticalFlip() bool

	SetVideoStabilisation(enabled bool) error
	VideoStabilisation() bool

	SetSharpness(v int) error
	Sharpness() int
	SetContrast(v int) error
	Contrast() int
	SetBrightness(v int) error
	Brightness() int
	SetSaturation(v int) error
	Saturation() int

	SetWhiteBalanceMode(m AwbMode) error
	WhiteBalanceMode() AwbMode
	SetExposureMode(m ExposureMode) error
	ExposureMode() ExposureMode
	SetExposureMeteringMode(m ExposureMeteringMode) error
	ExposureMeteringMode() ExposureMeteringMode
	SetImageEffect(e ImageEffect) error
	ImageEffect() ImageEffect
}
