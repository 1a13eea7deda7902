package timing

// VESA field names. Blank start and sync start are zero-based boundary
// positions: the last active pixel and the last pixel before sync.
const (
	FieldVESAPixelClock  Field = "vesa_pclk"
	FieldVESAHBlankStart Field = "vesa_hblank_start"
	FieldVESAHSyncStart  Field = "vesa_hsync_start"
	FieldVESAHSyncPulse  Field = "vesa_hsync_pulse"
	FieldVESAHBlank      Field = "vesa_hblank"
	FieldVESAVBlankStart Field = "vesa_vblank_start"
	FieldVESAVSyncStart  Field = "vesa_vsync_start"
	FieldVESAVSyncPulse  Field = "vesa_vsync_pulse"
	FieldVESAVBlank      Field = "vesa_vblank"
)

type vesaAxis struct {
	blankStart, syncStart, syncPulse, blank Field
}

var (
	vesaH = vesaAxis{FieldVESAHBlankStart, FieldVESAHSyncStart, FieldVESAHSyncPulse, FieldVESAHBlank}
	vesaV = vesaAxis{FieldVESAVBlankStart, FieldVESAVSyncStart, FieldVESAVSyncPulse, FieldVESAVBlank}
)

// VESA expresses timings as blanking/sync-start boundaries
type VESA struct{}

func (VESA) Name() string { return "vesa" }

func (VESA) Description() string {
	return "VESA boundary positions (blank start, sync start, sync pulse, blanking)"
}

func (VESA) Fields() []Field {
	return append([]Field{
		FieldVESAPixelClock,
		FieldVESAHBlankStart, FieldVESAHSyncStart, FieldVESAHSyncPulse, FieldVESAHBlank,
		FieldVESAVBlankStart, FieldVESAVSyncStart, FieldVESAVSyncPulse, FieldVESAVBlank,
	}, flagFields...)
}

func (VESA) Apply(p *Params, in Values) []Field {
	r := newReader(in)

	if v, ok := r.int(FieldVESAPixelClock); ok {
		set(&p.PixelClock, v)
	}
	applyVESAAxis(r, horizontal(p), vesaH)
	applyVESAAxis(r, vertical(p), vesaV)
	applyFlags(r, p)

	return r.skipped
}

func applyVESAAxis(r *reader, ax axis, f vesaAxis) {
	if v, ok := r.int(f.blankStart); ok {
		set(ax.active, v+1)
	}
	if v, ok := r.int(f.syncStart); ok && *ax.active != nil {
		set(ax.offset, v-**ax.active+1)
	}
	if v, ok := r.int(f.syncPulse); ok {
		set(ax.width, v)
	}
	if v, ok := r.int(f.blank); ok {
		set(ax.blank, v)
	}
}

func (VESA) Encode(p Params) Values {
	out := Values{}
	if s, ok := formatInt(p.PixelClock); ok {
		out[FieldVESAPixelClock] = s
	}
	encodeVESAAxis(out, horizontal(&p), vesaH)
	encodeVESAAxis(out, vertical(&p), vesaV)
	encodeFlags(out, p)
	return out
}

func encodeVESAAxis(out Values, ax axis, f vesaAxis) {
	active := *ax.active
	if active != nil {
		out[f.blankStart], _ = formatInt(Int(*active - 1))
		if off := *ax.offset; off != nil {
			out[f.syncStart], _ = formatInt(Int(*active + *off - 1))
		}
	}
	if s, ok := formatInt(*ax.width); ok {
		out[f.syncPulse] = s
	}
	if s, ok := formatInt(*ax.blank); ok {
		out[f.blank] = s
	}
}
