// Package attr encodes port attributes and colour corrections into the hex
// values written to the configuration.
package attr

import (
	"fmt"
	"math"

	"github.com/mscrnt/emgd_confgen/pkg/codec"
)

// Colour correction attribute IDs
const (
	IDGamma      = 35
	IDBrightness = 36
	IDContrast   = 37
)

// Kind selects a colour correction
type Kind int

const (
	Gamma Kind = iota
	Brightness
	Contrast
)

// ID returns the attribute ID of the correction
func (k Kind) ID() int {
	switch k {
	case Brightness:
		return IDBrightness
	case Contrast:
		return IDContrast
	default:
		return IDGamma
	}
}

func (k Kind) String() string {
	switch k {
	case Brightness:
		return "brightness"
	case Contrast:
		return "contrast"
	default:
		return "gamma"
	}
}

// Attribute is one id/value pair of a port
type Attribute struct {
	ID    int    `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
}

const (
	maxGamma3i5f  = 7.96875
	overlayMax    = 65535
	overlayScale  = 200.0
	overlayGamma6 = 0.6
)

// BrightnessContrastToHex encodes a slider value; fractional input is
// truncated first. Attribute registers take a zero-centred byte (value + 128).
// Overlay corrections are scaled to 16 bits, biased up one step below full
// scale, then truncated.
func BrightnessContrastToHex(value float64, attribute bool) string {
	if attribute {
		n := codec.Round(clamp(value, -128, 127)) + 128
		return codec.HexByte(n)
	}

	scaled := float64(codec.Round(clamp(value, 0, overlayScale))) * overlayMax / overlayScale
	if scaled < overlayMax {
		scaled++
	}
	return fmt.Sprintf("0x%x", codec.Round(scaled))
}

// GammaToHex encodes gamma as 3.5 fixed point
func GammaToHex(value float64) string {
	value = clamp(value, 0, maxGamma3i5f)
	whole := math.Floor(value)
	bits := fmt.Sprintf("%03b", int(whole)) + codec.FixedPointFraction(5, codec.FractionDigits(value))
	return fmt.Sprintf("%02x", codec.BitsToUint(bits))
}

// OverlayGammaToHex encodes overlay gamma as 24.8 fixed point. The overlay
// unit rounds 0.6 up to 0x9a.
func OverlayGammaToHex(value float64) string {
	if value == overlayGamma6 {
		return "0x0000009a"
	}
	value = clamp(value, 0, float64(1<<24)-1)
	whole := math.Floor(value)
	bits := fmt.Sprintf("%024b", int(whole)) + codec.FixedPointFraction(8, codec.FractionDigits(value))
	return fmt.Sprintf("0x%08x", codec.BitsToUint(bits))
}

// PackColor builds the colour correction attribute from per-channel slider
// text. Missing or malformed brightness/contrast channels encode as zero;
// missing gamma channels are written as 00.
func PackColor(kind Kind, r, g, b string) Attribute {
	value := "0x"
	for _, ch := range []string{r, g, b} {
		v, ok := codec.ParseFloat(ch)
		switch {
		case kind == Gamma && !ok:
			value += "00"
		case kind == Gamma:
			value += GammaToHex(v)
		default:
			value += BrightnessContrastToHex(v, true)
		}
	}
	return Attribute{ID: kind.ID(), Value: value}
}

// Overlay holds the encoded overlay colour corrections. Empty fields were not
// supplied.
type Overlay struct {
	Brightness string `json:"brightness,omitempty" yaml:"brightness,omitempty"`
	Contrast   string `json:"contrast,omitempty" yaml:"contrast,omitempty"`
	Saturation string `json:"saturation,omitempty" yaml:"saturation,omitempty"`
	GammaRed   string `json:"gamma_red,omitempty" yaml:"gamma_red,omitempty"`
	GammaGreen string `json:"gamma_green,omitempty" yaml:"gamma_green,omitempty"`
	GammaBlue  string `json:"gamma_blue,omitempty" yaml:"gamma_blue,omitempty"`
}

// NewOverlay encodes overlay slider text; malformed values are left empty
func NewOverlay(brightness, contrast, saturation, gammaR, gammaG, gammaB string) Overlay {
	corr := func(s string) string {
		if v, ok := codec.ParseFloat(s); ok {
			return BrightnessContrastToHex(v, false)
		}
		return ""
	}
	gamma := func(s string) string {
		if v, ok := codec.ParseFloat(s); ok {
			return OverlayGammaToHex(v)
		}
		return ""
	}

	return Overlay{
		Brightness: corr(brightness),
		Contrast:   corr(contrast),
		Saturation: corr(saturation),
		GammaRed:   gamma(gammaR),
		GammaGreen: gamma(gammaG),
		GammaBlue:  gamma(gammaB),
	}
}

// Empty reports whether no overlay correction was supplied
func (o Overlay) Empty() bool {
	return o == Overlay{}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
