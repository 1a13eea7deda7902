// Package dtd packs per-descriptor mode flags.
package dtd

import (
	"fmt"
	"strconv"

	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

// Flag sentinels. Callers pass these pre-scaled values to Compute.
const (
	Native    uint32 = 1 << 17    // descriptor is a user DTD, not a built-in mode
	BlankHigh uint32 = 0x02000000 // blank signal active high
	HSyncHigh uint32 = 0x04000000 // horizontal sync active high
	VSyncHigh uint32 = 0x08000000 // vertical sync active high
	Interlace uint32 = 0x80000000 // interlaced scan
)

// Flags is the packed flag word of one DTD entry
type Flags uint32

// Compute sums the sentinel values into a flag word. No scaling is applied to
// the sync and interlace terms.
func Compute(native bool, interlace, vSync, hSync, bSync uint32) Flags {
	var f uint32
	if native {
		f = Native
	}
	return Flags(f + bSync + hSync + vSync + interlace)
}

// FromParams derives the sentinels from a canonical timing. Unknown polarity
// or scan flags contribute nothing.
func FromParams(native bool, p timing.Params, blankHigh bool) Flags {
	var interlace, vSync, hSync, bSync uint32
	if p.Interlaced != nil && *p.Interlaced {
		interlace = Interlace
	}
	if p.VSyncPolarity != nil && *p.VSyncPolarity {
		vSync = VSyncHigh
	}
	if p.HSyncPolarity != nil && *p.HSyncPolarity {
		hSync = HSyncHigh
	}
	if blankHigh {
		bSync = BlankHigh
	}
	return Compute(native, interlace, vSync, hSync, bSync)
}

// String formats the flags as 0x-prefixed lowercase hex
func (f Flags) String() string {
	return fmt.Sprintf("0x%x", uint32(f))
}

// Has reports whether every bit of mask is set
func (f Flags) Has(mask uint32) bool {
	return uint32(f)&mask == mask
}

// MarshalText renders the flags in their configuration form
func (f Flags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses flags written by MarshalText
func (f *Flags) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid DTD flags %q: %w", text, err)
	}
	*f = Flags(v)
	return nil
}
