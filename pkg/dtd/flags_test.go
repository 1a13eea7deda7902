package dtd

import (
	"testing"

	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name                           string
		native                         bool
		interlace, vSync, hSync, bSync uint32
		want                           string
	}{
		{name: "native with vsync", native: true, vSync: 134217728, want: "0x8020000"},
		{name: "nothing set", want: "0x0"},
		{name: "native only", native: true, want: "0x20000"},
		{name: "all syncs", hSync: HSyncHigh, vSync: VSyncHigh, bSync: BlankHigh, want: "0xe000000"},
		{name: "interlaced native", native: true, interlace: Interlace, want: "0x80020000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.native, tt.interlace, tt.vSync, tt.hSync, tt.bSync).String()
			if got != tt.want {
				t.Errorf("Compute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromParams(t *testing.T) {
	p := timing.Params{
		Interlaced:    timing.Bool(false),
		VSyncPolarity: timing.Bool(true),
		HSyncPolarity: timing.Bool(true),
	}

	f := FromParams(true, p, false)
	if !f.Has(Native | VSyncHigh | HSyncHigh) {
		t.Errorf("FromParams() = %v, missing native/sync bits", f)
	}
	if f.Has(Interlace) || f.Has(BlankHigh) {
		t.Errorf("FromParams() = %v, unexpected interlace/blank bits", f)
	}

	if got := FromParams(false, timing.Params{}, true).String(); got != "0x2000000" {
		t.Errorf("FromParams(empty, blank) = %v, want 0x2000000", got)
	}
}

func TestMarshalText(t *testing.T) {
	b, err := Flags(Native | VSyncHigh).MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(b) != "0x8020000" {
		t.Errorf("MarshalText() = %s, want 0x8020000", b)
	}
}

func TestUnmarshalText(t *testing.T) {
	var f Flags
	if err := f.UnmarshalText([]byte("0x8020000")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if f != Flags(Native|VSyncHigh) {
		t.Errorf("UnmarshalText() = %s, want 0x8020000", f)
	}
	if err := f.UnmarshalText([]byte("zz")); err == nil {
		t.Error("UnmarshalText(zz) expected error")
	}
}
