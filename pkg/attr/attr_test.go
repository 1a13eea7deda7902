package attr

import (
	"testing"
)

func TestBrightnessContrastToHex(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		attribute bool
		want      string
	}{
		{name: "attribute minimum", value: -127, attribute: true, want: "01"},
		{name: "attribute maximum", value: 127, attribute: true, want: "ff"},
		{name: "attribute zero", value: 0, attribute: true, want: "80"},
		{name: "attribute clamps", value: 500, attribute: true, want: "ff"},
		{name: "attribute truncates", value: 10.9, attribute: true, want: "8a"},
		{name: "overlay zero", value: 0, want: "0x1"},
		{name: "overlay one", value: 1, want: "0x148"},
		{name: "overlay quarter", value: 50, want: "0x4000"},
		{name: "overlay midpoint", value: 100, want: "0x8000"},
		{name: "overlay truncates input", value: 100.9, want: "0x8000"},
		{name: "overlay below full scale", value: 199, want: "0xfeb8"},
		{name: "overlay full scale", value: 200, want: "0xffff"},
		{name: "overlay clamps negative", value: -5, want: "0x1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BrightnessContrastToHex(tt.value, tt.attribute)
			if got != tt.want {
				t.Errorf("BrightnessContrastToHex(%v, %v) = %v, want %v", tt.value, tt.attribute, got, tt.want)
			}
		})
	}
}

func TestGammaToHex(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "00"},
		{0.1, "03"},
		{0.6, "13"},
		{1.0, "20"},
		{1.7, "36"},
		{2.2, "46"},
		{3.3, "69"},
		{7.96875, "ff"},
		{12, "ff"},
	}

	for _, tt := range tests {
		if got := GammaToHex(tt.value); got != tt.want {
			t.Errorf("GammaToHex(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestOverlayGammaToHex(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0.6, "0x0000009a"},
		{0.5, "0x00000080"},
		{1.0, "0x00000100"},
		{2.25, "0x00000240"},
		{0.1, "0x00000019"},
		{1.3, "0x0000014c"},
		{2.7, "0x000002b3"},
	}

	for _, tt := range tests {
		if got := OverlayGammaToHex(tt.value); got != tt.want {
			t.Errorf("OverlayGammaToHex(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestOverlayOverrideIsOverlayOnly(t *testing.T) {
	// The 3.5 encoder follows the plain formula for 0.6
	if got := GammaToHex(0.6); got != "13" {
		t.Errorf("GammaToHex(0.6) = %v, want 13", got)
	}
}

func TestPackColor(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		r, g, b string
		want    Attribute
	}{
		{name: "brightness", kind: Brightness, r: "10", g: "0", b: "-10", want: Attribute{ID: 36, Value: "0x8a8076"}},
		{name: "contrast defaults", kind: Contrast, r: "", g: "x", b: "127", want: Attribute{ID: 37, Value: "0x8080ff"}},
		{name: "gamma", kind: Gamma, r: "1.0", g: "2.2", b: "", want: Attribute{ID: 35, Value: "0x204600"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PackColor(tt.kind, tt.r, tt.g, tt.b)
			if got != tt.want {
				t.Errorf("PackColor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewOverlay(t *testing.T) {
	o := NewOverlay("200", "", "bad", "0.6", "1", "")
	want := Overlay{Brightness: "0xffff", GammaRed: "0x0000009a", GammaGreen: "0x00000100"}
	if o != want {
		t.Errorf("NewOverlay() = %+v, want %+v", o, want)
	}
	mid := NewOverlay("100", "100", "100", "", "", "")
	if mid.Brightness != "0x8000" || mid.Contrast != "0x8000" || mid.Saturation != "0x8000" {
		t.Errorf("NewOverlay(100) = %+v, want 0x8000 for each correction", mid)
	}
	if !NewOverlay("", "", "", "", "", "").Empty() {
		t.Error("NewOverlay() with no input should be empty")
	}
}
