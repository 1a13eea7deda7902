package timing

// EMGD field names. The flag fields are shared by the VESA and hardware
// representations, which carry no polarity information of their own.
const (
	FieldPixelClock      Field = "pclk"
	FieldHActive         Field = "hactive"
	FieldHSyncOffset     Field = "hsync_offset"
	FieldHSyncPulseWidth Field = "hsync_pulse_width"
	FieldHBlanking       Field = "hblank"
	FieldVActive         Field = "vactive"
	FieldVSyncOffset     Field = "vsync_offset"
	FieldVSyncPulseWidth Field = "vsync_pulse_width"
	FieldVBlanking       Field = "vblank"

	FieldInterlace     Field = "interlace"
	FieldVSyncPolarity Field = "vsync_polarity"
	FieldHSyncPolarity Field = "hsync_polarity"
)

var flagFields = []Field{FieldInterlace, FieldVSyncPolarity, FieldHSyncPolarity}

// EMGD is the driver's native representation; its fields are already canonical
type EMGD struct{}

func (EMGD) Name() string { return "emgd" }

func (EMGD) Description() string {
	return "EMGD native fields (pixel clock in kHz, active/offset/width/blanking)"
}

func (EMGD) Fields() []Field {
	return append([]Field{
		FieldPixelClock,
		FieldHActive, FieldHSyncOffset, FieldHSyncPulseWidth, FieldHBlanking,
		FieldVActive, FieldVSyncOffset, FieldVSyncPulseWidth, FieldVBlanking,
	}, flagFields...)
}

func (EMGD) Apply(p *Params, in Values) []Field {
	r := newReader(in)

	for f, dst := range map[Field]**int{
		FieldPixelClock:      &p.PixelClock,
		FieldHActive:         &p.HActive,
		FieldHSyncOffset:     &p.HSyncOffset,
		FieldHSyncPulseWidth: &p.HSyncPulseWidth,
		FieldHBlanking:       &p.HBlanking,
		FieldVActive:         &p.VActive,
		FieldVSyncOffset:     &p.VSyncOffset,
		FieldVSyncPulseWidth: &p.VSyncPulseWidth,
		FieldVBlanking:       &p.VBlanking,
	} {
		if v, ok := r.int(f); ok {
			set(dst, v)
		}
	}

	applyFlags(r, p)
	return r.skipped
}

func (EMGD) Encode(p Params) Values {
	out := Values{}
	put := func(f Field, v *int) {
		if s, ok := formatInt(v); ok {
			out[f] = s
		}
	}

	put(FieldPixelClock, p.PixelClock)
	put(FieldHActive, p.HActive)
	put(FieldHSyncOffset, p.HSyncOffset)
	put(FieldHSyncPulseWidth, p.HSyncPulseWidth)
	put(FieldHBlanking, p.HBlanking)
	put(FieldVActive, p.VActive)
	put(FieldVSyncOffset, p.VSyncOffset)
	put(FieldVSyncPulseWidth, p.VSyncPulseWidth)
	put(FieldVBlanking, p.VBlanking)

	encodeFlags(out, p)
	return out
}

func applyFlags(r *reader, p *Params) {
	if v, ok := r.flag(FieldInterlace); ok {
		p.Interlaced = Bool(v)
	}
	if v, ok := r.flag(FieldVSyncPolarity); ok {
		p.VSyncPolarity = Bool(v)
	}
	if v, ok := r.flag(FieldHSyncPolarity); ok {
		p.HSyncPolarity = Bool(v)
	}
}

func encodeFlags(out Values, p Params) {
	if s, ok := formatBool(p.Interlaced); ok {
		out[FieldInterlace] = s
	}
	if s, ok := formatBool(p.VSyncPolarity); ok {
		out[FieldVSyncPolarity] = s
	}
	if s, ok := formatBool(p.HSyncPolarity); ok {
		out[FieldHSyncPolarity] = s
	}
}
