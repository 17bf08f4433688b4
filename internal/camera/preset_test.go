package camera

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSavePreset_Order(t *testing.T) {
	props := map[string]string{
		"zzz":             "1",
		PropertyEffect:    "Film",
		PropertyHFlip:     "1",
		"aaa":             "2",
		PropertySharpness: "12",
	}

	var buf bytes.Buffer
	if err := SavePreset(&buf, props); err != nil {
		t.Fatalf("SavePreset() error = %v", err)
	}

	want := "hflip=1\nsharpness=12\neffect=Film\naaa=2\nzzz=1\n"
	if got := buf.String(); got != want {
		t.Errorf("SavePreset() wrote\n%s\nwant\n%s", got, want)
	}
}

func TestLoadPreset(t *testing.T) {
	input := `
# living room camera
hflip=1
 sharpness = 25
awb=Cloudy

effect=WaterColor
`
	got, err := LoadPreset(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadPreset() error = %v", err)
	}

	want := map[string]string{
		PropertyHFlip:     "1",
		PropertySharpness: "25",
		PropertyAwb:       "Cloudy",
		PropertyEffect:    "WaterColor",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadPreset() = %v, want %v", got, want)
	}
}

func TestLoadPreset_Malformed(t *testing.T) {
	for _, input := range []string{
		"hflip=1\ngarbage\nvflip=1\n",
		"hflip=1\ngarbage",
	} {
		_, err := LoadPreset(strings.NewReader(input))
		if !errors.Is(err, ErrMalformedPreset) {
			t.Errorf("LoadPreset(%q) error = %v, want ErrMalformedPreset", input, err)
		}
	}
}

func TestPreset_SaveLoadApply(t *testing.T) {
	src := NewPropertyAdapter(NewSimulatedDevice())
	for name, value := range map[string]string{
		PropertyVFlip:        "1",
		PropertyContrast:     "-30",
		PropertyExposureMode: "Sports",
	} {
		if err := src.SetProperty(name, value); err != nil {
			t.Fatalf("SetProperty(%q) error = %v", name, err)
		}
	}

	var buf bytes.Buffer
	if err := SavePreset(&buf, src.GetAllProperties()); err != nil {
		t.Fatalf("SavePreset() error = %v", err)
	}
	props, err := LoadPreset(&buf)
	if err != nil {
		t.Fatalf("LoadPreset() error = %v", err)
	}

	dst := NewPropertyAdapter(NewSimulatedDevice())
	if failed := ApplyPreset(dst, props); failed != nil {
		t.Fatalf("ApplyPreset() failed = %v", failed)
	}
	if !reflect.DeepEqual(dst.GetAllProperties(), src.GetAllProperties()) {
		t.Errorf("applied preset = %v, want %v", dst.GetAllProperties(), src.GetAllProperties())
	}
}

func TestApplyPreset_ReportsFailures(t *testing.T) {
	a := NewPropertyAdapter(NewSimulatedDevice())

	failed := ApplyPreset(a, map[string]string{
		PropertyHFlip:     "1",
		PropertySharpness: "sharp",
		"iso":             "800",
	})

	if len(failed) != 2 {
		t.Fatalf("ApplyPreset() failed = %v, want 2 entries", failed)
	}
	if !errors.Is(failed[PropertySharpness], ErrInvalidPropertyValue) {
		t.Errorf("failed[sharpness] = %v, want ErrInvalidPropertyValue", failed[PropertySharpness])
	}
	if !errors.Is(failed["iso"], ErrUnknownProperty) {
		t.Errorf("failed[iso] = %v, want ErrUnknownProperty", failed["iso"])
	}
	if got, _ := a.GetProperty(PropertyHFlip); got != "1" {
		t.Errorf("hflip = %q, want 1", got)
	}
}
