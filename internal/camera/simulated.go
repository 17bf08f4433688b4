package camera

import (
	"fmt"
	"sync"
)

// Firmware ranges of the integer controls.
const (
	MinSharpness  = -100
	MaxSharpness  = 100
	MinContrast   = -100
	MaxContrast   = 100
	MinBrightness = 0
	MaxBrightness = 100
	MinSaturation = -100
	MaxSaturation = 100
)

// SimulatedDevice is an in-memory Device with the defaults and value ranges
// of the Raspberry Pi camera firmware. It is used when no hardware driver is
// linked in, and in tests.
type SimulatedDevice struct {
	mu sync.RWMutex

	hflip, vflip  bool
	stabilisation bool
	sharpness     int
	contrast      int
	brightness    int
	saturation    int
	awb           AwbMode
	exposure      ExposureMode
	metering      ExposureMeteringMode
	effect        ImageEffect
}

// NewSimulatedDevice returns a device with firmware default settings.
func NewSimulatedDevice() *SimulatedDevice {
	return &SimulatedDevice{
		brightness: 50,
		awb:        AwbAuto,
		exposure:   ExposureAuto,
		metering:   MeteringAverage,
		effect:     EffectNone,
	}
}

func checkRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %d not in [%d, %d]", ErrValueOutOfRange, name, v, lo, hi)
	}
	return nil
}

func (s *SimulatedDevice) SetFlip(horizontal, vertical bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hflip, s.vflip = horizontal, vertical
	return nil
}

func (s *SimulatedDevice) HorizontalFlip() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hflip
}

func (s *SimulatedDevice) VerticalFlip() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vflip
}

func (s *SimulatedDevice) SetVideoStabilisation(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stabilisation = enabled
	return nil
}

func (s *SimulatedDevice) VideoStabilisation() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stabilisation
}

func (s *SimulatedDevice) setInt(field *int, name string, v, lo, hi int) error {
	if err := checkRange(name, v, lo, hi); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	*field = v
	return nil
}

func (s *SimulatedDevice) getInt(field *int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *field
}

func (s *SimulatedDevice) SetSharpness(v int) error {
	return s.setInt(&s.sharpness, PropertySharpness, v, MinSharpness, MaxSharpness)
}

func (s *SimulatedDevice) Sharpness() int { return s.getInt(&s.sharpness) }

func (s *SimulatedDevice) SetContrast(v int) error {
	return s.setInt(&s.contrast, PropertyContrast, v, MinContrast, MaxContrast)
}

func (s *SimulatedDevice) Contrast() int { return s.getInt(&s.contrast) }

func (s *SimulatedDevice) SetBrightness(v int) error {
	return s.setInt(&s.brightness, PropertyBrightness, v, MinBrightness, MaxBrightness)
}

func (s *SimulatedDevice) Brightness() int { return s.getInt(&s.brightness) }

func (s *SimulatedDevice) SetSaturation(v int) error {
	return s.setInt(&s.saturation, PropertySaturation, v, MinSaturation, MaxSaturation)
}

func (s *SimulatedDevice) Saturation() int { return s.getInt(&s.saturation) }

func (s *SimulatedDevice) SetWhiteBalanceMode(m AwbMode) error {
	if !awbModes.valid(m) {
		return fmt.Errorf("%w: awb %d", ErrUnsupportedMode, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awb = m
	return nil
}

func (s *SimulatedDevice) WhiteBalanceMode() AwbMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.awb
}

func (s *SimulatedDevice) SetExposureMode(m ExposureMode) error {
	if !exposureModes.valid(m) {
		return fmt.Errorf("%w: exposure %d", ErrUnsupportedMode, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exposure = m
	return nil
}

func (s *SimulatedDevice) ExposureMode() ExposureMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exposure
}

func (s *SimulatedDevice) SetExposureMeteringMode(m ExposureMeteringMode) error {
	if !meteringModes.valid(m) {
		return fmt.Errorf("%w: metering %d", ErrUnsupportedMode, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metering = m
	return nil
}

func (s *SimulatedDevice) ExposureMeteringMode() ExposureMeteringMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metering
}

func (s *SimulatedDevice) SetImageEffect(e ImageEffect) error {
	if !imageEffects.valid(e) {
		return fmt.Errorf("%w: effect %d", ErrUnsupportedMode, e)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effect = e
	return nil
}

func (s *SimulatedDevice) ImageEffect() ImageEffect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effect
}
