package timing

// Hardware register field names. Active is a count; the sync and blank end
// registers hold zero-based positions, so each is one less than the matching
// count measured from the start of the line.
const (
	FieldHWPixelClock Field = "hw_pclk"
	FieldHWHActive    Field = "hw_hactive"
	FieldHWHBlankEnd  Field = "hw_hblank_end"
	FieldHWHSyncStart Field = "hw_hsync_start"
	FieldHWHSyncEnd   Field = "hw_hsync_end"
	FieldHWVActive    Field = "hw_vactive"
	FieldHWVBlankEnd  Field = "hw_vblank_end"
	FieldHWVSyncStart Field = "hw_vsync_start"
	FieldHWVSyncEnd   Field = "hw_vsync_end"
)

type hwAxis struct {
	active, blankEnd, syncStart, syncEnd Field
}

var (
	hwH = hwAxis{FieldHWHActive, FieldHWHBlankEnd, FieldHWHSyncStart, FieldHWHSyncEnd}
	hwV = hwAxis{FieldHWVActive, FieldHWVBlankEnd, FieldHWVSyncStart, FieldHWVSyncEnd}
)

// Hardware reads the display pipe's timing registers
type Hardware struct{}

func (Hardware) Name() string { return "hw" }

func (Hardware) Description() string {
	return "Hardware timing registers (active, blank end, sync start/end)"
}

func (Hardware) Fields() []Field {
	return append([]Field{
		FieldHWPixelClock,
		FieldHWHActive, FieldHWHBlankEnd, FieldHWHSyncStart, FieldHWHSyncEnd,
		FieldHWVActive, FieldHWVBlankEnd, FieldHWVSyncStart, FieldHWVSyncEnd,
	}, flagFields...)
}

func (Hardware) Apply(p *Params, in Values) []Field {
	r := newReader(in)

	if v, ok := r.int(FieldHWPixelClock); ok {
		set(&p.PixelClock, v)
	}
	applyHWAxis(r, horizontal(p), hwH)
	applyHWAxis(r, vertical(p), hwV)
	applyFlags(r, p)

	return r.skipped
}

// applyHWAxis resolves each register against the best value already known:
// active and offset together, then either one alone, then the register as a
// position from zero.
func applyHWAxis(r *reader, ax axis, f hwAxis) {
	if v, ok := r.int(f.active); ok {
		set(ax.active, v)
	}
	active := *ax.active

	if v, ok := r.int(f.syncStart); ok {
		if active != nil {
			set(ax.offset, v-*active+1)
		} else {
			set(ax.offset, v+1)
		}
	}

	if v, ok := r.int(f.syncEnd); ok {
		offset := *ax.offset
		switch {
		case active != nil && offset != nil:
			set(ax.width, v-*active-*offset+1)
		case offset != nil:
			set(ax.width, v-*offset+1)
		case active != nil:
			set(ax.width, v-*active+1)
		default:
			set(ax.width, v+1)
		}
	}

	if v, ok := r.int(f.blankEnd); ok {
		if active != nil {
			set(ax.blank, v-*active+1)
		} else {
			set(ax.blank, v+1)
		}
	}
}

func (Hardware) Encode(p Params) Values {
	out := Values{}
	if s, ok := formatInt(p.PixelClock); ok {
		out[FieldHWPixelClock] = s
	}
	encodeHWAxis(out, horizontal(&p), hwH)
	encodeHWAxis(out, vertical(&p), hwV)
	encodeFlags(out, p)
	return out
}

func encodeHWAxis(out Values, ax axis, f hwAxis) {
	active := *ax.active
	if active == nil {
		return
	}

	out[f.active], _ = formatInt(active)
	last := *active - 1
	if blank := *ax.blank; blank != nil {
		out[f.blankEnd], _ = formatInt(Int(last + *blank))
	}

	off := *ax.offset
	if off == nil {
		return
	}
	out[f.syncStart], _ = formatInt(Int(last + *off))
	if w := *ax.width; w != nil {
		out[f.syncEnd], _ = formatInt(Int(last + *off + *w))
	}
}
