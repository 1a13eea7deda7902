package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mscrnt/emgd_confgen/pkg/form"
	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

// Configuration-wide form fields
const (
	FieldConfigName    form.Field = "config_name"
	FieldConfigID      form.Field = "config_id"
	FieldDisplayMode   form.Field = "display_mode"
	FieldPrimaryPort   form.Field = "primary_port"
	FieldSecondaryPort form.Field = "secondary_port"
	FieldBusID         form.Field = "bus_id"
	FieldDepth         form.Field = "depth"

	FieldOverlayBrightness form.Field = "overlay_brightness"
	FieldOverlayContrast   form.Field = "overlay_contrast"
	FieldOverlaySaturation form.Field = "overlay_saturation"
	FieldOverlayGammaRed   form.Field = "overlay_gamma_r"
	FieldOverlayGammaGreen form.Field = "overlay_gamma_g"
	FieldOverlayGammaBlue  form.Field = "overlay_gamma_b"
)

// Per-port form fields. The form key is the port name, an underscore and
// the field, e.g. lvds_no_edid.
const (
	FieldNoEdid        form.Field = "no_edid"
	FieldDisableEdid   form.Field = "disable_edid"
	FieldEdidAvailStd  form.Field = "edid_avail_std"
	FieldEdidAvailEdid form.Field = "edid_avail_edid"
	FieldEdidAvailUser form.Field = "edid_avail_user"
	FieldEdidNoneStd   form.Field = "edid_unavail_std"
	FieldEdidNoneUser  form.Field = "edid_unavail_user"

	FieldPanelFit       form.Field = "panel_fit"
	FieldPanelFitAspect form.Field = "panel_fit_aspect"
	FieldSSCEnable      form.Field = "ssc_enable"
	FieldSSCFrequency   form.Field = "ssc_freq"
)

// Per-slot DTD fields, keyed dtd_<n>_<field>. Timing inputs use the field
// names of the slot's representation.
const (
	SlotEnabled   = "enabled"
	SlotFormat    = "format"
	SlotPreset    = "preset"
	SlotNative    = "native"
	SlotBlankHigh = "blank_high"
)

// EDID capability sentinels, summed into the availability masks
const (
	EdidStd  = 1 // built-in standard timings
	EdidEDID = 2 // timings read from the display
	EdidUser = 4 // user DTDs
)

const (
	dtdPrefix    = "dtd_"
	attrPrefix   = "attr_"
	customPrefix = "custom_"
)

// PortField returns the form key of a per-port field
func PortField(port string, f form.Field) form.Field {
	return form.Field(port + "_" + string(f))
}

// SlotField returns the form key of a DTD slot field, relative to its port
func SlotField(slot int, name string) form.Field {
	return form.Field(dtdPrefix + strconv.Itoa(slot) + "_" + name)
}

// SlotTimingField returns the form key of a timing input of a DTD slot
func SlotTimingField(slot int, f timing.Field) form.Field {
	return SlotField(slot, string(f))
}

// AttrField returns the form key of a catalog attribute control
func AttrField(name string) form.Field {
	return form.Field(attrPrefix + name)
}

// ColorField returns the form key of one colour slider channel, e.g.
// gamma_r
func ColorField(kind string, channel string) form.Field {
	return form.Field(kind + "_" + channel)
}

// CustomField returns the form key of a custom attribute input; name is id
// or value
func CustomField(n int, name string) form.Field {
	return form.Field(customPrefix + strconv.Itoa(n) + "_" + name)
}

// slots returns the distinct numbers n of fields named <prefix><n>_... in
// ascending order
func slots(v form.Values, prefix string) []int {
	seen := map[int]bool{}
	for f := range v {
		rest, ok := strings.CutPrefix(string(f), prefix)
		if !ok {
			continue
		}
		num, _, ok := strings.Cut(rest, "_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil || n < 1 {
			continue
		}
		seen[n] = true
	}

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func scope(parts ...interface{}) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "/")
}
