package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mscrnt/emgd_confgen/pkg/attr"
	"github.com/mscrnt/emgd_confgen/pkg/catalog"
	"github.com/mscrnt/emgd_confgen/pkg/dtd"
	"github.com/mscrnt/emgd_confgen/pkg/form"
	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

func testTables() *catalog.Tables {
	return &catalog.Tables{
		Controls: []catalog.Control{
			{Scope: catalog.ScopeConfig, Field: "display_detect", Option: "DisplayDetect", Default: "0"},
			{Scope: catalog.ScopeConfig, Field: "dma_mode", Option: "DmaMode"},
			{Scope: catalog.ScopePort, Field: "rotation", Option: "Rotation", Default: "0"},
		},
		Presets: []catalog.Preset{
			{
				Name:           "1024x768@60",
				Representation: "emgd",
				Fields: []catalog.PresetField{
					{Name: "pclk", Value: "65000"},
					{Name: "hactive", Value: "1024"},
					{Name: "hsync_offset", Value: "24"},
					{Name: "hsync_pulse_width", Value: "136"},
					{Name: "hblank", Value: "320"},
					{Name: "vactive", Value: "768"},
					{Name: "vsync_offset", Value: "3"},
					{Name: "vsync_pulse_width", Value: "6"},
					{Name: "vblank", Value: "38"},
				},
			},
		},
		Attributes: []catalog.Attribute{
			{Port: "lvds", ID: 26, Name: "panel_depth", Default: "18", Min: 18, Max: 24},
			{Port: "lvds", ID: 61, Name: "backlight_pwm", Min: 0, Max: 65535},
			{Port: "all", ID: 70, Name: "fixed_timing", Min: 0, Max: 1},
		},
	}
}

func TestDisplayModes(t *testing.T) {
	tests := []struct {
		mode      string
		value     int
		xinerama  bool
		secondary bool
	}{
		{"single", 1, false, false},
		{"clone", 2, false, true},
		{"extended", 8, true, true},
		{"dih", 8, false, true},
		{"", 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			in := form.Values{
				FieldDisplayMode:   tt.mode,
				FieldPrimaryPort:   "lvds",
				FieldSecondaryPort: "sdvo",
			}
			cfg, _, err := Build(in, testTables(), timing.DefaultRegistry())
			require.NoError(t, err)

			assert.Equal(t, tt.value, cfg.ModeValue)
			assert.Equal(t, tt.xinerama, cfg.Xinerama)
			assert.Equal(t, tt.secondary, cfg.Secondary != nil)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		in   form.Values
	}{
		{"unknown mode", form.Values{FieldDisplayMode: "wall", FieldPrimaryPort: "lvds"}},
		{"missing primary", form.Values{FieldDisplayMode: "single"}},
		{"unknown port", form.Values{FieldPrimaryPort: "hdmi"}},
		{"clone without secondary", form.Values{FieldDisplayMode: "clone", FieldPrimaryPort: "lvds"}},
		{"same ports", form.Values{FieldDisplayMode: "dih", FieldPrimaryPort: "lvds", FieldSecondaryPort: "lvds"}},
		{"bad config id", form.Values{FieldPrimaryPort: "lvds", FieldConfigID: "zero"}},
		{"bad depth", form.Values{FieldPrimaryPort: "lvds", FieldDepth: "32"}},
		{"unknown format", form.Values{
			FieldPrimaryPort:     "lvds",
			"lvds_dtd_1_enabled": "1",
			"lvds_dtd_1_format":  "dvi",
		}},
		{"unknown preset", form.Values{
			FieldPrimaryPort:     "lvds",
			"lvds_dtd_1_enabled": "1",
			"lvds_dtd_1_preset":  "4096x2160@60",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Build(tt.in, testTables(), timing.DefaultRegistry())
			assert.Error(t, err)
		})
	}
}

func TestSecondaryIgnoredInSingleMode(t *testing.T) {
	in := form.Values{FieldPrimaryPort: "lvds", FieldSecondaryPort: "sdvo"}
	cfg, report, err := Build(in, testTables(), timing.DefaultRegistry())
	require.NoError(t, err)
	assert.Nil(t, cfg.Secondary)
	assert.Len(t, report.Warnings, 1)
}

func TestEdidMasks(t *testing.T) {
	in := form.Values{
		FieldPrimaryPort:         "lvds",
		"lvds_edid_avail_std":    "1",
		"lvds_edid_avail_edid":   "1",
		"lvds_edid_avail_user":   "0",
		"lvds_edid_unavail_std":  "1",
		"lvds_edid_unavail_user": "1",
		"lvds_disable_edid":      "1",
	}

	cfg, _, err := Build(in, testTables(), timing.DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, EdidStd+EdidEDID, cfg.Primary.EdidAvail)
	assert.Equal(t, EdidStd+EdidUser, cfg.Primary.EdidNotAvail)
	assert.True(t, cfg.Primary.DisableEdid)

	in["lvds_no_edid"] = "1"
	cfg, _, err = Build(in, testTables(), timing.DefaultRegistry())
	require.NoError(t, err)
	assert.Zero(t, cfg.Primary.EdidAvail)
	assert.Equal(t, EdidStd+EdidUser, cfg.Primary.EdidNotAvail)
}

func TestDTDSlots(t *testing.T) {
	in := form.Values{
		FieldPrimaryPort: "lvds",

		// slot 3 is enabled, VESA input
		"lvds_dtd_3_enabled":           "1",
		"lvds_dtd_3_format":            "vesa",
		"lvds_dtd_3_vesa_pclk":         "65000",
		"lvds_dtd_3_vesa_hblank_start": "1023",
		"lvds_dtd_3_vesa_hsync_start":  "1047",
		"lvds_dtd_3_vesa_hsync_pulse":  "136",
		"lvds_dtd_3_vesa_hblank":       "320",
		"lvds_dtd_3_vesa_vblank_start": "767",
		"lvds_dtd_3_vesa_vsync_start":  "770",
		"lvds_dtd_3_vesa_vsync_pulse":  "6",
		"lvds_dtd_3_vesa_vblank":       "38",
		"lvds_dtd_3_vsync_polarity":    "1",

		// slot 2 is disabled
		"lvds_dtd_2_enabled": "0",
		"lvds_dtd_2_pclk":    "25175",

		// slot 10 uses a preset with one override
		"lvds_dtd_10_enabled": "1",
		"lvds_dtd_10_preset":  "1024x768@60",
		"lvds_dtd_10_pclk":    "64000",
		"lvds_dtd_10_native":  "0",
	}

	cfg, report, err := Build(in, testTables(), timing.DefaultRegistry())
	require.NoError(t, err)
	assert.True(t, report.Empty(), "unexpected report: %+v", report)

	dtds := cfg.Primary.DTDs
	require.Len(t, dtds, 2)

	assert.Equal(t, 1, dtds[0].Index)
	assert.Equal(t, 3, dtds[0].Slot)
	assert.Equal(t, 1024, *dtds[0].Params.HActive)
	assert.Equal(t, 24, *dtds[0].Params.HSyncOffset)
	assert.Equal(t, 3, *dtds[0].Params.VSyncOffset)
	assert.Equal(t, "0x8020000", dtds[0].Flags.String())

	assert.Equal(t, 2, dtds[1].Index)
	assert.Equal(t, 10, dtds[1].Slot)
	assert.Equal(t, 64000, *dtds[1].Params.PixelClock)
	assert.Equal(t, 1024, *dtds[1].Params.HActive)
	assert.False(t, dtds[1].Flags.Has(dtd.Native))
}

func TestDTDReportsMalformed(t *testing.T) {
	in := form.Values{
		FieldPrimaryPort:     "lvds",
		"lvds_dtd_1_enabled": "1",
		"lvds_dtd_1_pclk":    "65,000",
		"lvds_dtd_1_hactive": "1024",
	}

	cfg, report, err := Build(in, testTables(), timing.DefaultRegistry())
	require.NoError(t, err)

	require.Len(t, cfg.Primary.DTDs, 1)
	assert.Nil(t, cfg.Primary.DTDs[0].Params.PixelClock)
	assert.Contains(t, report.Skipped, Skip{Scope: "lvds/dtd/1", Field: "pclk"})
	assert.NotEmpty(t, report.Warnings, "incomplete timing should be reported")
}

func TestAttributePassesShareIndex(t *testing.T) {
	in := form.Values{
		FieldPrimaryPort: "lvds",

		// catalog pass: panel_depth by default, backlight given, fixed_timing malformed
		"lvds_attr_backlight_pwm": "200",
		"lvds_attr_fixed_timing":  "yes",

		// colour pass
		"lvds_brightness_r": "10",
		"lvds_gamma_g":      "1.0",

		// composite pass
		"lvds_panel_fit":        "1",
		"lvds_panel_fit_aspect": "1",

		// custom pass, out of order
		"lvds_custom_2_id":    "90",
		"lvds_custom_2_value": "0x10",
		"lvds_custom_1_id":    "88",
		"lvds_custom_1_value": "7",
		"lvds_custom_3_id":    "bad",
		"lvds_custom_3_value": "1",
	}

	cfg, report, err := Build(in, testTables(), timing.DefaultRegistry())
	require.NoError(t, err)

	want := []AttrEntry{
		{Index: 0, Attribute: attr.Attribute{ID: 26, Value: "18"}},
		{Index: 1, Attribute: attr.Attribute{ID: 61, Value: "200"}},
		{Index: 2, Attribute: attr.Attribute{ID: attr.IDBrightness, Value: "0x8a8080"}},
		{Index: 3, Attribute: attr.Attribute{ID: attr.IDGamma, Value: "0x002000"}},
		{Index: 4, Attribute: attr.Attribute{ID: AttrPanelFit, Value: "3"}},
		{Index: 5, Attribute: attr.Attribute{ID: 88, Value: "7"}},
		{Index: 6, Attribute: attr.Attribute{ID: 90, Value: "0x10"}},
	}
	assert.Equal(t, want, cfg.Primary.Attrs)

	assert.Contains(t, report.Skipped, Skip{Scope: "lvds/attr", Field: "attr_fixed_timing"})
	assert.Contains(t, report.Skipped, Skip{Scope: "lvds/custom/3", Field: "custom_3_id"})
}

func TestSSCComposite(t *testing.T) {
	in := form.Values{
		FieldPrimaryPort:  "sdvo",
		"sdvo_ssc_enable": "1",
		"sdvo_ssc_freq":   "100",
	}

	cfg, _, err := Build(in, &catalog.Tables{}, timing.DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, []AttrEntry{
		{Index: 0, Attribute: attr.Attribute{ID: AttrSSCEnable, Value: "1"}},
		{Index: 1, Attribute: attr.Attribute{ID: AttrSSCFrequency, Value: "100"}},
	}, cfg.Primary.Attrs)
}

func TestOptionsAndOverlay(t *testing.T) {
	in := form.Values{
		FieldPrimaryPort:       "lvds",
		FieldConfigName:        "kiosk",
		"display_detect":       "1",
		"lvds_rotation":        "180",
		FieldOverlayGammaRed:   "0.6",
		FieldOverlayBrightness: "bright",
	}

	cfg, report, err := Build(in, testTables(), timing.DefaultRegistry())
	require.NoError(t, err)

	assert.Equal(t, "kiosk", cfg.Name)
	assert.Equal(t, 1, cfg.ID)
	assert.Equal(t, "PCI:0:2:0", cfg.BusID)
	assert.Equal(t, 24, cfg.Depth)
	assert.Equal(t, []Option{{Name: "DisplayDetect", Value: "1"}}, cfg.Options)
	assert.Equal(t, []Option{{Name: "Rotation", Value: "180"}}, cfg.Primary.Options)
	assert.Equal(t, "0x0000009a", cfg.Overlay.GammaRed)
	assert.Empty(t, cfg.Overlay.Brightness)
	assert.Contains(t, report.Skipped, Skip{Scope: "overlay", Field: "overlay_brightness"})
}

func TestPortOrder(t *testing.T) {
	tests := []struct {
		primary, secondary string
		want               string
	}{
		{"lvds", "", "40000"},
		{"sdvo", "lvds", "24000"},
		{"dual", "", "42000"},
	}

	for _, tt := range tests {
		in := form.Values{FieldPrimaryPort: tt.primary, FieldSecondaryPort: tt.secondary}
		if tt.secondary != "" {
			in[FieldDisplayMode] = "clone"
		}
		cfg, _, err := Build(in, testTables(), timing.DefaultRegistry())
		require.NoError(t, err)
		if got := cfg.PortOrder(); got != tt.want {
			t.Errorf("PortOrder() = %v, want %v", got, tt.want)
		}
	}
}

func TestBuildIsStateless(t *testing.T) {
	in := form.Values{
		FieldPrimaryPort:     "lvds",
		"lvds_dtd_1_enabled": "1",
		"lvds_dtd_1_preset":  "1024x768@60",
		"lvds_brightness_r":  "5",
	}
	tables, reg := testTables(), timing.DefaultRegistry()

	first, _, err := Build(in, tables, reg)
	require.NoError(t, err)
	second, _, err := Build(in, tables, reg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second.Primary.Attrs, 2)
}
