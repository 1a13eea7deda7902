package timing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mscrnt/emgd_confgen/pkg/codec"
)

// Modeline field names. Positions are raw pixel/line counts, not registers.
const (
	FieldModeline     Field = "modeline"
	FieldMLClock      Field = "ml_clock"
	FieldMLHDisplay   Field = "ml_hdisp"
	FieldMLHSyncStart Field = "ml_hsync_start"
	FieldMLHSyncEnd   Field = "ml_hsync_end"
	FieldMLHTotal     Field = "ml_htotal"
	FieldMLVDisplay   Field = "ml_vdisp"
	FieldMLVSyncStart Field = "ml_vsync_start"
	FieldMLVSyncEnd   Field = "ml_vsync_end"
	FieldMLVTotal     Field = "ml_vtotal"
	FieldMLFlags      Field = "ml_flags"
)

type modelineAxis struct {
	display, syncStart, syncEnd, total Field
}

var (
	modelineH = modelineAxis{FieldMLHDisplay, FieldMLHSyncStart, FieldMLHSyncEnd, FieldMLHTotal}
	modelineV = modelineAxis{FieldMLVDisplay, FieldMLVSyncStart, FieldMLVSyncEnd, FieldMLVTotal}

	// column order of the numeric part of a modeline
	modelineColumns = []Field{
		FieldMLClock,
		FieldMLHDisplay, FieldMLHSyncStart, FieldMLHSyncEnd, FieldMLHTotal,
		FieldMLVDisplay, FieldMLVSyncStart, FieldMLVSyncEnd, FieldMLVTotal,
	}
)

// Modeline reads X modeline values, either as a full line or as separate fields
type Modeline struct{}

func (Modeline) Name() string { return "modeline" }

func (Modeline) Description() string {
	return "X modeline (clock in MHz, display/sync start/sync end/total, +/-hsync +/-vsync interlace)"
}

func (Modeline) Fields() []Field {
	return append([]Field{FieldModeline}, append(modelineColumns, FieldMLFlags)...)
}

func (Modeline) Apply(p *Params, in Values) []Field {
	merged := Values{}
	var skipped []Field

	if line, ok := in[FieldModeline]; ok && strings.TrimSpace(line) != "" {
		parsed, err := ParseModeline(line)
		if err != nil {
			skipped = append(skipped, FieldModeline)
		} else {
			for f, v := range parsed {
				merged[f] = v
			}
		}
	}
	// Separate fields take precedence over the full line
	for f, v := range in {
		if f != FieldModeline && strings.TrimSpace(v) != "" {
			merged[f] = v
		}
	}

	r := newReader(merged)
	if clk, ok := r.float(FieldMLClock); ok {
		set(&p.PixelClock, codec.Round(clk*1000))
	}
	applyModelineAxis(r, horizontal(p), modelineH)
	applyModelineAxis(r, vertical(p), modelineV)

	if s, ok := r.raw(FieldMLFlags); ok {
		applyModelineFlags(p, s)
	}

	return append(skipped, r.skipped...)
}

// applyModelineAxis reads every column after the display as a delta against
// it, with no boundary adjustment. Without a display the raw value is kept.
func applyModelineAxis(r *reader, ax axis, f modelineAxis) {
	if v, ok := r.int(f.display); ok {
		set(ax.active, v)
	}
	for _, c := range []struct {
		field Field
		dst   **int
	}{
		{f.syncStart, ax.offset},
		{f.syncEnd, ax.width},
		{f.total, ax.blank},
	} {
		v, ok := r.int(c.field)
		if !ok {
			continue
		}
		if active := *ax.active; active != nil {
			v -= *active
		}
		set(c.dst, v)
	}
}

func applyModelineFlags(p *Params, flags string) {
	p.Interlaced = Bool(false)
	for _, tok := range strings.Fields(strings.ToLower(flags)) {
		switch tok {
		case "+hsync":
			p.HSyncPolarity = Bool(true)
		case "-hsync":
			p.HSyncPolarity = Bool(false)
		case "+vsync":
			p.VSyncPolarity = Bool(true)
		case "-vsync":
			p.VSyncPolarity = Bool(false)
		case "interlace":
			p.Interlaced = Bool(true)
		}
	}
}

// ParseModeline splits a modeline into its fields. The leading Modeline
// keyword and the quoted mode name are optional.
func ParseModeline(line string) (Values, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(strings.ToLower(line), "modeline") {
		line = strings.TrimSpace(line[len("modeline"):])
	}
	if strings.HasPrefix(line, `"`) {
		end := strings.Index(line[1:], `"`)
		if end < 0 {
			return nil, fmt.Errorf("unterminated mode name in %q", line)
		}
		line = line[end+2:]
	}

	tokens := strings.Fields(line)
	if len(tokens) < len(modelineColumns) {
		return nil, fmt.Errorf("modeline needs %d numeric values, got %d", len(modelineColumns), len(tokens))
	}

	out := Values{}
	for i, f := range modelineColumns {
		if i == 0 {
			if !codec.IsFloat(tokens[i]) {
				return nil, fmt.Errorf("invalid modeline clock %q", tokens[i])
			}
		} else if !codec.IsInteger(tokens[i]) {
			return nil, fmt.Errorf("invalid modeline value %q for %s", tokens[i], f)
		}
		out[f] = tokens[i]
	}
	if flags := tokens[len(modelineColumns):]; len(flags) > 0 {
		out[FieldMLFlags] = strings.Join(flags, " ")
	}

	return out, nil
}

func (Modeline) Encode(p Params) Values {
	out := Values{}
	if p.PixelClock != nil {
		out[FieldMLClock] = strconv.FormatFloat(float64(*p.PixelClock)/1000, 'f', -1, 64)
	}
	encodeModelineAxis(out, horizontal(&p), modelineH)
	encodeModelineAxis(out, vertical(&p), modelineV)

	var flags []string
	if p.HSyncPolarity != nil {
		flags = append(flags, polarity(*p.HSyncPolarity)+"hsync")
	}
	if p.VSyncPolarity != nil {
		flags = append(flags, polarity(*p.VSyncPolarity)+"vsync")
	}
	if p.Interlaced != nil && *p.Interlaced {
		flags = append(flags, "interlace")
	}
	if len(flags) > 0 {
		out[FieldMLFlags] = strings.Join(flags, " ")
	}

	if line, ok := formatModeline(out); ok {
		out[FieldModeline] = line
	}
	return out
}

func encodeModelineAxis(out Values, ax axis, f modelineAxis) {
	active := *ax.active
	if s, ok := formatInt(active); ok {
		out[f.display] = s
	}
	for _, c := range []struct {
		field Field
		src   *int
	}{
		{f.syncStart, *ax.offset},
		{f.syncEnd, *ax.width},
		{f.total, *ax.blank},
	} {
		if c.src == nil {
			continue
		}
		v := *c.src
		if active != nil {
			v += *active
		}
		out[c.field] = strconv.Itoa(v)
	}
}

func formatModeline(v Values) (string, bool) {
	cols := make([]string, 0, len(modelineColumns)+2)
	cols = append(cols, fmt.Sprintf("%q", v[FieldMLHDisplay]+"x"+v[FieldMLVDisplay]))
	for _, f := range modelineColumns {
		s, ok := v[f]
		if !ok {
			return "", false
		}
		cols = append(cols, s)
	}
	if flags := v[FieldMLFlags]; flags != "" {
		cols = append(cols, flags)
	}
	return strings.Join(cols, " "), true
}

func polarity(high bool) string {
	if high {
		return "+"
	}
	return "-"
}
