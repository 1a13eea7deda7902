package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

func TestLoadBuiltin(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, tables.Controls)
	assert.NotEmpty(t, tables.Presets)
	assert.NotEmpty(t, tables.Attributes)

	p, ok := tables.Preset("1024x768@60")
	require.True(t, ok)
	assert.Equal(t, "emgd", p.Representation)
	assert.Equal(t, "65000", p.Values()[timing.FieldPixelClock])

	_, ok = tables.Preset("no-such-mode")
	assert.False(t, ok)
}

func TestBuiltinPresetsResolve(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)
	reg := timing.DefaultRegistry()

	for _, p := range tables.Presets {
		t.Run(p.Name, func(t *testing.T) {
			var params timing.Params
			skipped, err := reg.Apply(p.Representation, &params, p.Values())
			require.NoError(t, err)
			assert.Empty(t, skipped)
			assert.True(t, params.Complete(), "preset %s does not describe a full timing", p.Name)
			assert.InDelta(t, 60, params.RefreshHz(), 1)
		})
	}
}

func TestControlsFor(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	for _, c := range tables.ControlsFor(ScopePort) {
		assert.Equal(t, ScopePort, c.Scope)
	}
	for _, c := range tables.ControlsFor(ScopeConfig) {
		assert.Equal(t, ScopeConfig, c.Scope)
	}
	assert.Len(t, tables.Controls, len(tables.ControlsFor(ScopePort))+len(tables.ControlsFor(ScopeConfig)))
}

func TestAttributesFor(t *testing.T) {
	tables := &Tables{Attributes: []Attribute{
		{Port: "lvds", ID: 26, Name: "panel_depth"},
		{Port: "sdvo", ID: 18, Name: "hpd_enable"},
		{Port: "all", ID: 70, Name: "fixed_timing"},
	}}

	lvds := tables.AttributesFor("lvds")
	require.Len(t, lvds, 2)
	assert.Equal(t, "panel_depth", lvds[0].Name)
	assert.Equal(t, "fixed_timing", lvds[1].Name)

	assert.Len(t, tables.AttributesFor("sdvo"), 2)
	assert.Len(t, tables.AttributesFor("dual"), 1)
}

func TestLoadFSRejectsInvalid(t *testing.T) {
	base := fstest.MapFS{
		PresetsFile:    {Data: []byte(`<presets/>`)},
		AttributesFile: {Data: []byte(`<attributes/>`)},
	}

	tests := []struct {
		name     string
		controls string
	}{
		{"bad scope", `<controls><control scope="screen" field="x" option="X"/></controls>`},
		{"duplicate", `<controls><control scope="config" field="x" option="X"/><control scope="config" field="x" option="Y"/></controls>`},
		{"missing option", `<controls><control scope="port" field="x"/></controls>`},
		{"not xml", `<controls`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{ControlsFile: {Data: []byte(tt.controls)}}
			for k, v := range base {
				fsys[k] = v
			}
			_, err := LoadFS(fsys)
			assert.Error(t, err)
		})
	}

	_, err := LoadFS(base)
	assert.Error(t, err, "missing controls file should fail")
}

func TestLoadDirOverride(t *testing.T) {
	dir := t.TempDir()
	presets := `<presets>
  <preset name="custom" representation="simple">
    <field name="cvt_width">800</field>
    <field name="cvt_height">480</field>
    <field name="cvt_refresh">60</field>
  </preset>
</presets>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, PresetsFile), []byte(presets), 0o644))

	tables, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, tables.Presets, 1)
	assert.Equal(t, "custom", tables.Presets[0].Name)
	// controls and attributes come from the built-in copy
	assert.NotEmpty(t, tables.Controls)
	assert.NotEmpty(t, tables.Attributes)

	_, err = LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
