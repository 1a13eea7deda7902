package timing

import (
	"strconv"
	"strings"

	"github.com/mscrnt/emgd_confgen/pkg/codec"
)

// Params is the canonical EMGD timing description. A nil field has not been
// derived from any input yet.
type Params struct {
	PixelClock      *int `json:"pixel_clock,omitempty" yaml:"pixel_clock,omitempty"` // kHz
	HActive         *int `json:"h_active,omitempty" yaml:"h_active,omitempty"`
	HSyncOffset     *int `json:"h_sync_offset,omitempty" yaml:"h_sync_offset,omitempty"`
	HSyncPulseWidth *int `json:"h_sync_pulse_width,omitempty" yaml:"h_sync_pulse_width,omitempty"`
	HBlanking       *int `json:"h_blanking,omitempty" yaml:"h_blanking,omitempty"`
	VActive         *int `json:"v_active,omitempty" yaml:"v_active,omitempty"`
	VSyncOffset     *int `json:"v_sync_offset,omitempty" yaml:"v_sync_offset,omitempty"`
	VSyncPulseWidth *int `json:"v_sync_pulse_width,omitempty" yaml:"v_sync_pulse_width,omitempty"`
	VBlanking       *int `json:"v_blanking,omitempty" yaml:"v_blanking,omitempty"`

	Interlaced    *bool `json:"interlaced,omitempty" yaml:"interlaced,omitempty"`
	VSyncPolarity *bool `json:"vsync_polarity,omitempty" yaml:"vsync_polarity,omitempty"`
	HSyncPolarity *bool `json:"hsync_polarity,omitempty" yaml:"hsync_polarity,omitempty"`
}

// Clone returns a deep copy of p
func (p Params) Clone() Params {
	c := Params{}
	c.PixelClock = cloneInt(p.PixelClock)
	c.HActive = cloneInt(p.HActive)
	c.HSyncOffset = cloneInt(p.HSyncOffset)
	c.HSyncPulseWidth = cloneInt(p.HSyncPulseWidth)
	c.HBlanking = cloneInt(p.HBlanking)
	c.VActive = cloneInt(p.VActive)
	c.VSyncOffset = cloneInt(p.VSyncOffset)
	c.VSyncPulseWidth = cloneInt(p.VSyncPulseWidth)
	c.VBlanking = cloneInt(p.VBlanking)
	c.Interlaced = cloneBool(p.Interlaced)
	c.VSyncPolarity = cloneBool(p.VSyncPolarity)
	c.HSyncPolarity = cloneBool(p.HSyncPolarity)
	return c
}

// Complete reports whether every integer field is set
func (p Params) Complete() bool {
	for _, f := range []*int{
		p.PixelClock, p.HActive, p.HSyncOffset, p.HSyncPulseWidth, p.HBlanking,
		p.VActive, p.VSyncOffset, p.VSyncPulseWidth, p.VBlanking,
	} {
		if f == nil {
			return false
		}
	}
	return true
}

// RefreshHz estimates the vertical refresh rate, or 0 when the set is incomplete
func (p Params) RefreshHz() float64 {
	if p.PixelClock == nil || p.HActive == nil || p.HBlanking == nil ||
		p.VActive == nil || p.VBlanking == nil {
		return 0
	}
	total := float64((*p.HActive + *p.HBlanking) * (*p.VActive + *p.VBlanking))
	if total <= 0 {
		return 0
	}
	return float64(*p.PixelClock) * 1000 / total
}

// Int returns a pointer to v
func Int(v int) *int { return &v }

// Bool returns a pointer to v
func Bool(v bool) *bool { return &v }

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	return Int(*v)
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	return Bool(*v)
}

// Field names one input of a representation
type Field string

// Values holds raw representation inputs keyed by field
type Values map[Field]string

// reader pulls validated scalars out of Values. Empty inputs count as absent;
// malformed ones are recorded and skipped.
type reader struct {
	in      Values
	skipped []Field
}

func newReader(in Values) *reader {
	return &reader{in: in}
}

func (r *reader) raw(f Field) (string, bool) {
	s, ok := r.in[f]
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func (r *reader) skip(f Field) {
	for _, s := range r.skipped {
		if s == f {
			return
		}
	}
	r.skipped = append(r.skipped, f)
}

func (r *reader) int(f Field) (int, bool) {
	s, ok := r.raw(f)
	if !ok {
		return 0, false
	}
	n, ok := codec.ParseInt(s)
	if !ok {
		r.skip(f)
		return 0, false
	}
	return n, true
}

func (r *reader) float(f Field) (float64, bool) {
	s, ok := r.raw(f)
	if !ok {
		return 0, false
	}
	v, ok := codec.ParseFloat(s)
	if !ok {
		r.skip(f)
		return 0, false
	}
	return v, true
}

func (r *reader) hexByte(f Field) (byte, bool) {
	s, ok := r.raw(f)
	if !ok {
		return 0, false
	}
	b, ok := codec.ParseHexByte(s)
	if !ok {
		r.skip(f)
		return 0, false
	}
	return b, true
}

func (r *reader) flag(f Field) (bool, bool) {
	s, ok := r.raw(f)
	if !ok {
		return false, false
	}
	switch strings.ToLower(s) {
	case "1", "true", "on", "yes", "checked":
		return true, true
	case "0", "false", "off", "no":
		return false, true
	}
	r.skip(f)
	return false, false
}

// axis groups the four per-direction fields so horizontal and vertical rules
// share one implementation
type axis struct {
	active, offset, width, blank **int
}

func horizontal(p *Params) axis {
	return axis{&p.HActive, &p.HSyncOffset, &p.HSyncPulseWidth, &p.HBlanking}
}

func vertical(p *Params) axis {
	return axis{&p.VActive, &p.VSyncOffset, &p.VSyncPulseWidth, &p.VBlanking}
}

func set(dst **int, v int) {
	*dst = Int(v)
}

func formatInt(v *int) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.Itoa(*v), true
}

func formatBool(v *bool) (string, bool) {
	if v == nil {
		return "", false
	}
	if *v {
		return "1", true
	}
	return "0", true
}
