package config

import (
	"fmt"
	"strconv"

	"github.com/mscrnt/emgd_confgen/pkg/attr"
	"github.com/mscrnt/emgd_confgen/pkg/catalog"
	"github.com/mscrnt/emgd_confgen/pkg/codec"
	"github.com/mscrnt/emgd_confgen/pkg/dtd"
	"github.com/mscrnt/emgd_confgen/pkg/form"
	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

// Composite attribute IDs
const (
	AttrPanelFit     = 27
	AttrSSCEnable    = 41
	AttrSSCFrequency = 42
)

const (
	defaultName   = "default"
	defaultFormat = "emgd"
	defaultBusID  = "PCI:0:2:0"
	defaultDepth  = "24"
)

// Build assembles the display configuration described by in. Malformed
// values are skipped and listed in the report; structural problems such as
// an unknown port, mode, representation or preset are errors.
func Build(in form.Values, tables *catalog.Tables, reg *timing.Registry) (*DisplayConfig, *Report, error) {
	if tables == nil || reg == nil {
		return nil, nil, fmt.Errorf("tables and registry are required")
	}

	mode, err := ParseDisplayMode(in.Get(FieldDisplayMode))
	if err != nil {
		return nil, nil, err
	}

	id, err := strconv.Atoi(in.GetOr(FieldConfigID, "1"))
	if err != nil || id < 1 {
		return nil, nil, fmt.Errorf("invalid config id %q", in.Get(FieldConfigID))
	}

	depth, err := strconv.Atoi(in.GetOr(FieldDepth, defaultDepth))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid colour depth %q", in.Get(FieldDepth))
	}
	switch depth {
	case 8, 16, 24:
	default:
		return nil, nil, fmt.Errorf("unsupported colour depth %d", depth)
	}

	cfg := &DisplayConfig{
		Name:      in.GetOr(FieldConfigName, defaultName),
		ID:        id,
		Mode:      mode,
		ModeValue: mode.Value(),
		Xinerama:  mode == ModeExtended,
		BusID:     in.GetOr(FieldBusID, defaultBusID),
		Depth:     depth,
	}
	report := &Report{}

	primary := in.Get(FieldPrimaryPort)
	if primary == "" {
		return nil, nil, fmt.Errorf("primary port is required")
	}
	if cfg.Primary, err = buildPort(primary, in, tables, reg, report); err != nil {
		return nil, nil, err
	}

	secondary := in.Get(FieldSecondaryPort)
	switch {
	case mode.MultiDisplay() && secondary == "":
		return nil, nil, fmt.Errorf("%s mode requires a secondary port", mode)
	case mode.MultiDisplay() && secondary == primary:
		return nil, nil, fmt.Errorf("secondary port must differ from primary port %q", primary)
	case mode.MultiDisplay():
		if cfg.Secondary, err = buildPort(secondary, in, tables, reg, report); err != nil {
			return nil, nil, err
		}
	case secondary != "":
		report.warn("secondary port %q ignored in %s mode", secondary, mode)
	}

	cfg.Options = options(tables.ControlsFor(catalog.ScopeConfig), in)
	cfg.Overlay = buildOverlay(in, report)

	return cfg, report, nil
}

func options(controls []catalog.Control, in form.Values) []Option {
	var out []Option
	for _, c := range controls {
		if v := in.GetOr(form.Field(c.Field), c.Default); v != "" {
			out = append(out, Option{Name: c.Option, Value: v})
		}
	}
	return out
}

func buildOverlay(in form.Values, report *Report) attr.Overlay {
	fields := []form.Field{
		FieldOverlayBrightness, FieldOverlayContrast, FieldOverlaySaturation,
		FieldOverlayGammaRed, FieldOverlayGammaGreen, FieldOverlayGammaBlue,
	}
	for _, f := range fields {
		if in.Has(f) && !codec.IsFloat(in.Get(f)) {
			report.skip("overlay", string(f))
		}
	}

	return attr.NewOverlay(
		in.Get(FieldOverlayBrightness),
		in.Get(FieldOverlayContrast),
		in.Get(FieldOverlaySaturation),
		in.Get(FieldOverlayGammaRed),
		in.Get(FieldOverlayGammaGreen),
		in.Get(FieldOverlayGammaBlue),
	)
}

func buildPort(name string, in form.Values, tables *catalog.Tables, reg *timing.Registry, report *Report) (*PortConfig, error) {
	id, ok := PortID(name)
	if !ok {
		return nil, fmt.Errorf("unknown port %q", name)
	}

	pv := in.WithPrefix(name + "_")
	port := &PortConfig{
		ID:          id,
		Name:        name,
		DisableEdid: pv.Checked(FieldDisableEdid),
		Options:     options(tables.ControlsFor(catalog.ScopePort), pv),
	}

	if !pv.Checked(FieldNoEdid) {
		port.EdidAvail = mask(pv, map[form.Field]int{
			FieldEdidAvailStd:  EdidStd,
			FieldEdidAvailEdid: EdidEDID,
			FieldEdidAvailUser: EdidUser,
		})
	}
	port.EdidNotAvail = mask(pv, map[form.Field]int{
		FieldEdidNoneStd:  EdidStd,
		FieldEdidNoneUser: EdidUser,
	})

	if err := buildDTDs(port, pv, tables, reg, report); err != nil {
		return nil, err
	}

	// One running index across every attribute pass
	catalogAttrs(port, pv, tables.AttributesFor(name), report)
	colorAttrs(port, pv)
	compositeAttrs(port, pv, report)
	customAttrs(port, pv, report)

	return port, nil
}

func mask(pv form.Values, flags map[form.Field]int) int {
	m := 0
	for f, bit := range flags {
		if pv.Checked(f) {
			m += bit
		}
	}
	return m
}

func buildDTDs(port *PortConfig, pv form.Values, tables *catalog.Tables, reg *timing.Registry, report *Report) error {
	for _, n := range slots(pv, dtdPrefix) {
		if !pv.Checked(SlotField(n, SlotEnabled)) {
			continue
		}
		where := scope(port.Name, "dtd", n)

		format := pv.GetOr(SlotField(n, SlotFormat), defaultFormat)
		repr, err := reg.Get(format)
		if err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}

		var p timing.Params
		if name := pv.Get(SlotField(n, SlotPreset)); name != "" {
			preset, ok := tables.Preset(name)
			if !ok {
				return fmt.Errorf("%s: unknown preset %q", where, name)
			}
			skipped, err := reg.Apply(preset.Representation, &p, preset.Values())
			if err != nil {
				return fmt.Errorf("%s: preset %q: %w", where, name, err)
			}
			report.skip(scope(where, "preset", name), fieldNames(skipped)...)
		}

		in := timing.Values{}
		for _, f := range repr.Fields() {
			if v := pv.Get(SlotTimingField(n, f)); v != "" {
				in[f] = v
			}
		}
		report.skip(where, fieldNames(repr.Apply(&p, in))...)

		if !p.Complete() {
			report.warn("%s: incomplete timing, missing values are left out", where)
		}

		native := !pv.Has(SlotField(n, SlotNative)) || pv.Checked(SlotField(n, SlotNative))
		port.DTDs = append(port.DTDs, DTDEntry{
			Index:  len(port.DTDs) + 1,
			Slot:   n,
			Params: p,
			Flags:  dtd.FromParams(native, p, pv.Checked(SlotField(n, SlotBlankHigh))),
		})
	}
	return nil
}

func catalogAttrs(port *PortConfig, pv form.Values, catalogued []catalog.Attribute, report *Report) {
	for _, a := range catalogued {
		f := AttrField(a.Name)
		v := pv.GetOr(f, a.Default)
		if v == "" {
			continue
		}
		n, ok := codec.ParseInt(v)
		if !ok || n < a.Min || n > a.Max {
			report.skip(scope(port.Name, "attr"), string(f))
			continue
		}
		port.addAttr(attr.Attribute{ID: a.ID, Value: strconv.Itoa(n)})
	}
}

func colorAttrs(port *PortConfig, pv form.Values) {
	for _, kind := range []attr.Kind{attr.Brightness, attr.Contrast, attr.Gamma} {
		r := pv.Get(ColorField(kind.String(), "r"))
		g := pv.Get(ColorField(kind.String(), "g"))
		b := pv.Get(ColorField(kind.String(), "b"))
		if r == "" && g == "" && b == "" {
			continue
		}
		port.addAttr(attr.PackColor(kind, r, g, b))
	}
}

func compositeAttrs(port *PortConfig, pv form.Values, report *Report) {
	// bit 0 enables panel fitting, bit 1 keeps the aspect ratio
	if pv.Checked(FieldPanelFit) {
		fit := 1
		if pv.Checked(FieldPanelFitAspect) {
			fit += 2
		}
		port.addAttr(attr.Attribute{ID: AttrPanelFit, Value: strconv.Itoa(fit)})
	}

	if pv.Checked(FieldSSCEnable) {
		port.addAttr(attr.Attribute{ID: AttrSSCEnable, Value: "1"})
		if pv.Has(FieldSSCFrequency) {
			if freq, ok := codec.ParseInt(pv.Get(FieldSSCFrequency)); ok && freq > 0 {
				port.addAttr(attr.Attribute{ID: AttrSSCFrequency, Value: strconv.Itoa(freq)})
			} else {
				report.skip(scope(port.Name, "attr"), string(FieldSSCFrequency))
			}
		}
	}
}

func customAttrs(port *PortConfig, pv form.Values, report *Report) {
	for _, n := range slots(pv, customPrefix) {
		idField, valueField := CustomField(n, "id"), CustomField(n, "value")
		if !pv.Has(idField) && !pv.Has(valueField) {
			continue
		}
		id, ok := codec.ParseInt(pv.Get(idField))
		if !ok || id < 0 {
			report.skip(scope(port.Name, "custom", n), string(idField))
			continue
		}
		if !pv.Has(valueField) {
			report.skip(scope(port.Name, "custom", n), string(valueField))
			continue
		}
		port.addAttr(attr.Attribute{ID: id, Value: pv.Get(valueField)})
	}
}

func fieldNames(fields []timing.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}
