package timing

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1024x768@60 (VESA DMT)
func xga() Params {
	return Params{
		PixelClock:      Int(65000),
		HActive:         Int(1024),
		HSyncOffset:     Int(24),
		HSyncPulseWidth: Int(136),
		HBlanking:       Int(320),
		VActive:         Int(768),
		VSyncOffset:     Int(3),
		VSyncPulseWidth: Int(6),
		VBlanking:       Int(38),
		Interlaced:      Bool(false),
		VSyncPolarity:   Bool(false),
		HSyncPolarity:   Bool(false),
	}
}

func TestRoundTrip(t *testing.T) {
	// modeline sync end is a delta against display, so its pulse includes
	// the front porch
	modeline := xga()
	modeline.HSyncPulseWidth = Int(160)
	modeline.VSyncPulseWidth = Int(9)

	tests := []struct {
		name   string
		repr   Representation
		values Values
		want   Params
	}{
		{
			name: "emgd",
			want: xga(),
			repr: EMGD{},
			values: Values{
				FieldPixelClock: "65000", FieldHActive: "1024", FieldHSyncOffset: "24",
				FieldHSyncPulseWidth: "136", FieldHBlanking: "320", FieldVActive: "768",
				FieldVSyncOffset: "3", FieldVSyncPulseWidth: "6", FieldVBlanking: "38",
				FieldInterlace: "0", FieldVSyncPolarity: "0", FieldHSyncPolarity: "0",
			},
		},
		{
			name: "vesa",
			want: xga(),
			repr: VESA{},
			values: Values{
				FieldVESAPixelClock:  "65000",
				FieldVESAHBlankStart: "1023", FieldVESAHSyncStart: "1047",
				FieldVESAHSyncPulse: "136", FieldVESAHBlank: "320",
				FieldVESAVBlankStart: "767", FieldVESAVSyncStart: "770",
				FieldVESAVSyncPulse: "6", FieldVESAVBlank: "38",
				FieldInterlace: "0", FieldVSyncPolarity: "0", FieldHSyncPolarity: "0",
			},
		},
		{
			name: "hardware",
			want: xga(),
			repr: Hardware{},
			values: Values{
				FieldHWPixelClock: "65000",
				FieldHWHActive:    "1024", FieldHWHBlankEnd: "1343",
				FieldHWHSyncStart: "1047", FieldHWHSyncEnd: "1183",
				FieldHWVActive: "768", FieldHWVBlankEnd: "805",
				FieldHWVSyncStart: "770", FieldHWVSyncEnd: "776",
				FieldInterlace: "0", FieldVSyncPolarity: "0", FieldHSyncPolarity: "0",
			},
		},
		{
			name: "modeline",
			want: modeline,
			repr: Modeline{},
			values: Values{
				FieldMLClock:    "65",
				FieldMLHDisplay: "1024", FieldMLHSyncStart: "1048", FieldMLHSyncEnd: "1184", FieldMLHTotal: "1344",
				FieldMLVDisplay: "768", FieldMLVSyncStart: "771", FieldMLVSyncEnd: "777", FieldMLVTotal: "806",
				FieldMLFlags: "-hsync -vsync",
				FieldModeline: `"1024x768" 65 1024 1048 1184 1344 768 771 777 806 -hsync -vsync`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Params
			skipped := tt.repr.Apply(&p, tt.values)
			require.Empty(t, skipped)
			assert.Equal(t, tt.want, p)

			enc, ok := tt.repr.(Encoder)
			require.True(t, ok)
			assert.Equal(t, tt.values, enc.Encode(p))
		})
	}
}

func TestEDIDRoundTrip(t *testing.T) {
	want := xga()
	want.HSyncPolarity = Bool(true)

	values := EDID{}.Encode(want)
	require.Contains(t, values, FieldEDIDBlock)

	var p Params
	skipped := EDID{}.Apply(&p, Values{FieldEDIDBlock: values[FieldEDIDBlock]})
	require.Empty(t, skipped)
	assert.Equal(t, want, p)

	var fromBytes Params
	delete(values, FieldEDIDBlock)
	EDID{}.Apply(&fromBytes, values)
	assert.Equal(t, want, fromBytes)
}

func TestEDIDDecode(t *testing.T) {
	var p Params
	skipped := EDID{}.Apply(&p, Values{
		FieldEDIDClockLo:   "10",
		FieldEDIDClockHi:   "01",
		FieldEDIDHActiveLo: "20",
		FieldEDIDHBlankLo:  "10",
		FieldEDIDHHigh:     "31",
	})
	require.Empty(t, skipped)

	if *p.PixelClock != 2720 {
		t.Errorf("PixelClock = %d, want 2720", *p.PixelClock)
	}
	if *p.HActive != 800 {
		t.Errorf("HActive = %d, want 800", *p.HActive)
	}
	if *p.HBlanking != 272 {
		t.Errorf("HBlanking = %d, want 272", *p.HBlanking)
	}
	if p.VActive != nil {
		t.Errorf("VActive = %d, want unset", *p.VActive)
	}
}

func TestEDIDPadsBytes(t *testing.T) {
	var p Params
	EDID{}.Apply(&p, Values{FieldEDIDClockLo: "0", FieldEDIDClockHi: "1"})
	if *p.PixelClock != 2560 {
		t.Errorf("PixelClock = %d, want 2560 (0x0100 * 10)", *p.PixelClock)
	}
}

func TestEDIDSyncWithoutHighByte(t *testing.T) {
	var p Params
	skipped := EDID{}.Apply(&p, Values{
		FieldEDIDHSyncOffsetLo: "28",
		FieldEDIDHSyncWidthLo:  "80",
		FieldEDIDVSyncLo:       "35",
	})
	require.Empty(t, skipped)

	want := Params{HSyncOffset: Int(40), HSyncPulseWidth: Int(128), VSyncOffset: Int(3), VSyncPulseWidth: Int(5)}
	assert.Equal(t, want, p)

	// the high byte still extends the low bytes when present
	EDID{}.Apply(&p, Values{FieldEDIDHSyncOffsetLo: "28", FieldEDIDSyncHigh: "40"})
	assert.Equal(t, 0x128, *p.HSyncOffset)
}

func TestEDIDFlags(t *testing.T) {
	tests := []struct {
		flags        string
		interlaced   bool
		vsync, hsync *bool
	}{
		{flags: "1e", vsync: Bool(true), hsync: Bool(true)},
		{flags: "18", vsync: Bool(false), hsync: Bool(false)},
		{flags: "1a", vsync: Bool(false), hsync: Bool(true)},
		{flags: "80", interlaced: true},
		{flags: "06"},
	}

	for _, tt := range tests {
		t.Run(tt.flags, func(t *testing.T) {
			var p Params
			EDID{}.Apply(&p, Values{FieldEDIDFlags: tt.flags})
			require.NotNil(t, p.Interlaced)
			assert.Equal(t, tt.interlaced, *p.Interlaced)
			assert.Equal(t, tt.vsync, p.VSyncPolarity)
			assert.Equal(t, tt.hsync, p.HSyncPolarity)
		})
	}
}

func TestEDIDBadBlock(t *testing.T) {
	p := xga()
	skipped := EDID{}.Apply(&p, Values{FieldEDIDBlock: "00 11 zz"})
	assert.Equal(t, []Field{FieldEDIDBlock}, skipped)
	assert.Equal(t, xga(), p)
}

func TestModelineClockRounding(t *testing.T) {
	// fractional kHz are dropped, never rounded up
	tests := map[string]int{
		"25.175": 25175, "25.1755": 25175, "25.1759": 25175, "13.5005": 13500,
		"65.0": 65000, "148.5": 148500, "108": 108000, "0.0009": 0,
	}
	for clk, want := range tests {
		var p Params
		Modeline{}.Apply(&p, Values{FieldMLClock: clk})
		if *p.PixelClock != want {
			t.Errorf("clock %s: PixelClock = %d, want %d", clk, *p.PixelClock, want)
		}
	}
}

func TestParseModeline(t *testing.T) {
	v, err := ParseModeline(`Modeline "800x600" 40.00 800 840 968 1056 600 601 605 628 +hsync +vsync`)
	require.NoError(t, err)
	assert.Equal(t, "40.00", v[FieldMLClock])
	assert.Equal(t, "628", v[FieldMLVTotal])
	assert.Equal(t, "+hsync +vsync", v[FieldMLFlags])

	_, err = ParseModeline("40 800 840")
	assert.Error(t, err)
	_, err = ParseModeline(`"broken 40 800`)
	assert.Error(t, err)
}

func TestModelineFieldsOverrideLine(t *testing.T) {
	var p Params
	Modeline{}.Apply(&p, Values{
		FieldModeline:   "40 800 840 968 1056 600 601 605 628 +hsync +vsync",
		FieldMLHDisplay: "640",
	})
	assert.Equal(t, 640, *p.HActive)
	assert.Equal(t, 200, *p.HSyncOffset)
	assert.True(t, *p.HSyncPolarity)
}

func TestModelineDeltas(t *testing.T) {
	tests := []struct {
		name string
		in   Values
		want Params
	}{
		{
			name: "800x600 columns",
			in: Values{
				FieldMLClock:    "40",
				FieldMLHDisplay: "800", FieldMLHSyncStart: "840", FieldMLHSyncEnd: "928", FieldMLHTotal: "1056",
				FieldMLVDisplay: "600", FieldMLVSyncStart: "601", FieldMLVSyncEnd: "605", FieldMLVTotal: "628",
			},
			want: Params{
				PixelClock: Int(40000),
				HActive:    Int(800), HSyncOffset: Int(40), HSyncPulseWidth: Int(128), HBlanking: Int(256),
				VActive: Int(600), VSyncOffset: Int(1), VSyncPulseWidth: Int(5), VBlanking: Int(28),
			},
		},
		{
			name: "sync end without sync start",
			in:   Values{FieldMLHDisplay: "800", FieldMLHSyncEnd: "928"},
			want: Params{HActive: Int(800), HSyncPulseWidth: Int(128)},
		},
		{
			name: "no display keeps raw columns",
			in:   Values{FieldMLHSyncStart: "40", FieldMLHSyncEnd: "128", FieldMLHTotal: "256"},
			want: Params{HSyncOffset: Int(40), HSyncPulseWidth: Int(128), HBlanking: Int(256)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Params
			skipped := Modeline{}.Apply(&p, tt.in)
			require.Empty(t, skipped)
			assert.Equal(t, tt.want, p)
		})
	}

	got := Modeline{}.Encode(Params{HActive: Int(800), HSyncOffset: Int(40), HSyncPulseWidth: Int(128), HBlanking: Int(256)})
	assert.Equal(t, "840", got[FieldMLHSyncStart])
	assert.Equal(t, "928", got[FieldMLHSyncEnd])
	assert.Equal(t, "1056", got[FieldMLHTotal])
}

func TestHardwareRegisters(t *testing.T) {
	var p Params
	skipped := Hardware{}.Apply(&p, Values{
		FieldHWPixelClock: "40000",
		FieldHWHActive:    "800", FieldHWHSyncStart: "839", FieldHWHSyncEnd: "967", FieldHWHBlankEnd: "1055",
		FieldHWVActive: "600", FieldHWVSyncStart: "600", FieldHWVSyncEnd: "604", FieldHWVBlankEnd: "627",
	})
	require.Empty(t, skipped)

	want := Params{
		PixelClock: Int(40000),
		HActive:    Int(800), HSyncOffset: Int(40), HSyncPulseWidth: Int(128), HBlanking: Int(256),
		VActive: Int(600), VSyncOffset: Int(1), VSyncPulseWidth: Int(4), VBlanking: Int(28),
	}
	assert.Equal(t, want, p)

	out := Hardware{}.Encode(p)
	assert.Equal(t, "800", out[FieldHWHActive])
	assert.Equal(t, "839", out[FieldHWHSyncStart])
	assert.Equal(t, "967", out[FieldHWHSyncEnd])
	assert.Equal(t, "1055", out[FieldHWHBlankEnd])
}

func TestHardwareFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		start      Params
		in         Values
		wantOffset *int
		wantWidth  *int
		wantBlank  *int
	}{
		{
			name:       "active and offset",
			start:      Params{HActive: Int(1024), HSyncOffset: Int(24)},
			in:         Values{FieldHWHSyncEnd: "1183"},
			wantOffset: Int(24),
			wantWidth:  Int(136),
		},
		{
			name:       "offset only",
			in:         Values{FieldHWHSyncStart: "839", FieldHWHSyncEnd: "967"},
			wantOffset: Int(840),
			wantWidth:  Int(128),
		},
		{
			name:      "active only",
			start:     Params{HActive: Int(1024)},
			in:        Values{FieldHWHSyncEnd: "1183"},
			wantWidth: Int(160),
		},
		{
			name:      "end register alone",
			in:        Values{FieldHWHSyncEnd: "135"},
			wantWidth: Int(136),
		},
		{
			name:      "blank end with active",
			start:     Params{HActive: Int(1024)},
			in:        Values{FieldHWHBlankEnd: "1343"},
			wantBlank: Int(320),
		},
		{
			name:      "blank end alone",
			in:        Values{FieldHWHBlankEnd: "319"},
			wantBlank: Int(320),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.start
			skipped := Hardware{}.Apply(&p, tt.in)
			require.Empty(t, skipped)
			assert.Equal(t, tt.wantOffset, p.HSyncOffset)
			assert.Equal(t, tt.wantWidth, p.HSyncPulseWidth)
			assert.Equal(t, tt.wantBlank, p.HBlanking)
		})
	}
}

func TestCVT(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		refresh       string
		interlace     string
		want          Params
	}{
		{
			name: "1024x768@60", width: 1024, height: 768, refresh: "60",
			want: Params{
				PixelClock: Int(63500),
				HActive:    Int(1024), HSyncOffset: Int(48), HSyncPulseWidth: Int(104), HBlanking: Int(304),
				VActive: Int(768), VSyncOffset: Int(3), VSyncPulseWidth: Int(4), VBlanking: Int(30),
				Interlaced: Bool(false), VSyncPolarity: Bool(true), HSyncPolarity: Bool(false),
			},
		},
		{
			name: "1920x1080@60", width: 1920, height: 1080, refresh: "60",
			want: Params{
				PixelClock: Int(173100),
				HActive:    Int(1920), HSyncOffset: Int(128), HSyncPulseWidth: Int(200), HBlanking: Int(656),
				VActive: Int(1080), VSyncOffset: Int(3), VSyncPulseWidth: Int(5), VBlanking: Int(40),
				Interlaced: Bool(false), VSyncPolarity: Bool(true), HSyncPolarity: Bool(false),
			},
		},
		{
			name: "1366x768@60 keeps width", width: 1366, height: 768, refresh: "60",
			want: Params{
				PixelClock: Int(85200),
				HActive:    Int(1366), HSyncOffset: Int(72), HSyncPulseWidth: Int(136), HBlanking: Int(416),
				VActive: Int(768), VSyncOffset: Int(3), VSyncPulseWidth: Int(10), VBlanking: Int(30),
				Interlaced: Bool(false), VSyncPolarity: Bool(true), HSyncPolarity: Bool(false),
			},
		},
		{
			name: "800x600@60", width: 800, height: 600, refresh: "60",
			want: Params{
				PixelClock: Int(38300),
				HActive:    Int(800), HSyncOffset: Int(32), HSyncPulseWidth: Int(80), HBlanking: Int(224),
				VActive: Int(600), VSyncOffset: Int(3), VSyncPulseWidth: Int(4), VBlanking: Int(24),
				Interlaced: Bool(false), VSyncPolarity: Bool(true), HSyncPolarity: Bool(false),
			},
		},
		{
			name: "1280x1024@75", width: 1280, height: 1024, refresh: "75",
			want: Params{
				PixelClock: Int(138800),
				HActive:    Int(1280), HSyncOffset: Int(88), HSyncPulseWidth: Int(136), HBlanking: Int(448),
				VActive: Int(1024), VSyncOffset: Int(3), VSyncPulseWidth: Int(7), VBlanking: Int(48),
				Interlaced: Bool(false), VSyncPolarity: Bool(true), HSyncPolarity: Bool(false),
			},
		},
		{
			name: "1920x1080i@60", width: 1920, height: 1080, refresh: "60", interlace: "1",
			want: Params{
				PixelClock: Int(179900),
				HActive:    Int(1920), HSyncOffset: Int(128), HSyncPulseWidth: Int(200), HBlanking: Int(656),
				VActive: Int(1080), VSyncOffset: Int(3), VSyncPulseWidth: Int(5), VBlanking: Int(42),
				Interlaced: Bool(true), VSyncPolarity: Bool(true), HSyncPolarity: Bool(false),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Params
			skipped := Simple{}.Apply(&p, Values{
				FieldCVTWidth:     strconv.Itoa(tt.width),
				FieldCVTHeight:    strconv.Itoa(tt.height),
				FieldCVTRefresh:   tt.refresh,
				FieldCVTInterlace: tt.interlace,
			})
			require.Empty(t, skipped)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestAspectVSync(t *testing.T) {
	tests := []struct {
		width, height, want int
	}{
		{1024, 768, 4},
		{1920, 1080, 5},
		{1280, 800, 6},
		{1280, 1024, 7},
		{1280, 768, 7},
		{1366, 768, 10},
	}
	for _, tt := range tests {
		if got := AspectVSync(tt.width, tt.height); got != tt.want {
			t.Errorf("AspectVSync(%d, %d) = %d, want %d", tt.width, tt.height, got, tt.want)
		}
	}
}

func TestCVTRejectsDegenerateInput(t *testing.T) {
	if _, ok := CVT(0, 768, 60, false); ok {
		t.Error("CVT with zero width should fail")
	}
	if _, ok := CVT(1024, 768, 5000, false); ok {
		t.Error("CVT with a refresh too high for the minimum vertical blank should fail")
	}

	p := xga()
	skipped := Simple{}.Apply(&p, Values{FieldCVTWidth: "1024", FieldCVTHeight: "768", FieldCVTRefresh: "5000"})
	assert.Equal(t, []Field{FieldCVTRefresh}, skipped)
	assert.Equal(t, xga(), p)

	// refresh is a whole number of hertz
	skipped = Simple{}.Apply(&p, Values{FieldCVTWidth: "1024", FieldCVTHeight: "768", FieldCVTRefresh: "59.94"})
	assert.Equal(t, []Field{FieldCVTRefresh}, skipped)
	assert.Equal(t, xga(), p)
}

func TestIdempotence(t *testing.T) {
	reg := DefaultRegistry()
	inputs := map[string]Values{
		"emgd":     {FieldHActive: "800", FieldVBlanking: "28"},
		"vesa":     {FieldVESAHBlankStart: "799", FieldVESAHSyncStart: "839", FieldVESAVSyncPulse: "4"},
		"hw":       {FieldHWHActive: "800", FieldHWHSyncStart: "839", FieldHWHSyncEnd: "967"},
		"modeline": {FieldModeline: "40 800 840 968 1056 600 601 605 628 +hsync +vsync"},
		"edid":     {FieldEDIDClockLo: "a0", FieldEDIDClockHi: "0f", FieldEDIDFlags: "1e"},
		"simple":   {FieldCVTWidth: "800", FieldCVTHeight: "600", FieldCVTRefresh: "60", FieldCVTInterlace: "1"},
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			var p Params
			_, err := reg.Apply(name, &p, in)
			require.NoError(t, err)
			once := p.Clone()

			_, err = reg.Apply(name, &p, in)
			require.NoError(t, err)
			assert.Equal(t, once, p)
		})
	}
}

func TestSparseUpdate(t *testing.T) {
	p := xga()
	skipped := VESA{}.Apply(&p, Values{FieldVESAHSyncPulse: "96", FieldVESAVBlank: "abc"})

	assert.Equal(t, []Field{FieldVESAVBlank}, skipped)
	assert.Equal(t, 96, *p.HSyncPulseWidth)
	assert.Equal(t, 38, *p.VBlanking, "malformed input must keep the previous value")
	assert.Equal(t, 1024, *p.HActive)
}

func TestTranslate(t *testing.T) {
	reg := DefaultRegistry()

	var p Params
	out, skipped, err := reg.Translate("hw", "vesa", &p, Values{
		FieldVESAHBlankStart: "1023", FieldVESAHSyncStart: "1047", FieldVESAHSyncPulse: "136",
	})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, Values{
		FieldHWHActive:    "1024",
		FieldHWHSyncStart: "1047",
		FieldHWHSyncEnd:   "1183",
	}, out)

	_, _, err = reg.Translate("simple", "emgd", &p, Values{})
	assert.True(t, errors.Is(err, ErrNoEncoder))

	_, _, err = reg.Translate("emgd", "nope", &p, Values{})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(EMGD{}))
	assert.Error(t, reg.Register(EMGD{}))
	assert.Error(t, reg.Register(nil))

	all := DefaultRegistry()
	assert.Equal(t, []string{"edid", "emgd", "hw", "modeline", "simple", "vesa"}, all.List())

	for _, info := range all.Info() {
		assert.NotEmpty(t, info.Fields, info.Name)
		assert.Equal(t, info.Name != "simple", info.Reversible, info.Name)
	}
}

func TestRefreshHz(t *testing.T) {
	got := xga().RefreshHz()
	if got < 60.0 || got > 60.01 {
		t.Errorf("RefreshHz() = %v, want ~60.004", got)
	}
	if (Params{}).RefreshHz() != 0 {
		t.Error("RefreshHz() of an empty set should be 0")
	}
}

