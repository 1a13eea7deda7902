package timing

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mscrnt/emgd_confgen/pkg/codec"
)

// EDID detailed timing descriptor byte offsets (EDID 1.3, 18-byte block)
const (
	DTDPixelClockLo  = 0x00 // Pixel clock / 10kHz, LSB
	DTDPixelClockHi  = 0x01 // Pixel clock / 10kHz, MSB
	DTDHActiveLo     = 0x02 // Horizontal active, low 8 bits
	DTDHBlankLo      = 0x03 // Horizontal blanking, low 8 bits
	DTDHHigh         = 0x04 // Upper nibble: active bits 11-8, lower nibble: blanking bits 11-8
	DTDVActiveLo     = 0x05 // Vertical active, low 8 bits
	DTDVBlankLo      = 0x06 // Vertical blanking, low 8 bits
	DTDVHigh         = 0x07 // Upper nibble: active bits 11-8, lower nibble: blanking bits 11-8
	DTDHSyncOffsetLo = 0x08 // Horizontal sync offset, low 8 bits
	DTDHSyncWidthLo  = 0x09 // Horizontal sync pulse width, low 8 bits
	DTDVSyncLo       = 0x0A // Upper nibble: vertical sync offset low 4 bits, lower: width low 4 bits
	DTDSyncHigh      = 0x0B // Bits 7-6 hoff, 5-4 hwidth, 3-2 voff, 1-0 vwidth, upper 2 bits each
	DTDFlags         = 0x11 // Interlace, stereo, sync type and polarity
	DTDSize          = 18
)

// DTD flags byte
const (
	dtdFlagInterlace  = 0x80
	dtdFlagDigitalSep = 0x18 // bits 4 and 3: digital separate sync
	dtdFlagVSyncHigh  = 0x04
	dtdFlagHSyncHigh  = 0x02
)

// EDID field names: one hex byte per field, or the whole block
const (
	FieldEDIDBlock         Field = "edid_block"
	FieldEDIDClockLo       Field = "edid_clk_lo"
	FieldEDIDClockHi       Field = "edid_clk_hi"
	FieldEDIDHActiveLo     Field = "edid_hactive_lo"
	FieldEDIDHBlankLo      Field = "edid_hblank_lo"
	FieldEDIDHHigh         Field = "edid_h_hi"
	FieldEDIDVActiveLo     Field = "edid_vactive_lo"
	FieldEDIDVBlankLo      Field = "edid_vblank_lo"
	FieldEDIDVHigh         Field = "edid_v_hi"
	FieldEDIDHSyncOffsetLo Field = "edid_hsync_offset_lo"
	FieldEDIDHSyncWidthLo  Field = "edid_hsync_width_lo"
	FieldEDIDVSyncLo       Field = "edid_vsync_lo"
	FieldEDIDSyncHigh      Field = "edid_sync_hi"
	FieldEDIDFlags         Field = "edid_flags"
)

// byte offset of each single-byte field inside the block
var edidOffsets = map[Field]int{
	FieldEDIDClockLo:       DTDPixelClockLo,
	FieldEDIDClockHi:       DTDPixelClockHi,
	FieldEDIDHActiveLo:     DTDHActiveLo,
	FieldEDIDHBlankLo:      DTDHBlankLo,
	FieldEDIDHHigh:         DTDHHigh,
	FieldEDIDVActiveLo:     DTDVActiveLo,
	FieldEDIDVBlankLo:      DTDVBlankLo,
	FieldEDIDVHigh:         DTDVHigh,
	FieldEDIDHSyncOffsetLo: DTDHSyncOffsetLo,
	FieldEDIDHSyncWidthLo:  DTDHSyncWidthLo,
	FieldEDIDVSyncLo:       DTDVSyncLo,
	FieldEDIDSyncHigh:      DTDSyncHigh,
	FieldEDIDFlags:         DTDFlags,
}

// EDID decodes a detailed timing descriptor
type EDID struct{}

func (EDID) Name() string { return "edid" }

func (EDID) Description() string {
	return "EDID detailed timing descriptor bytes (hex), or the 18-byte block"
}

func (EDID) Fields() []Field {
	return []Field{
		FieldEDIDBlock,
		FieldEDIDClockLo, FieldEDIDClockHi,
		FieldEDIDHActiveLo, FieldEDIDHBlankLo, FieldEDIDHHigh,
		FieldEDIDVActiveLo, FieldEDIDVBlankLo, FieldEDIDVHigh,
		FieldEDIDHSyncOffsetLo, FieldEDIDHSyncWidthLo, FieldEDIDVSyncLo, FieldEDIDSyncHigh,
		FieldEDIDFlags,
	}
}

// ParseDTDBlock splits an 18-byte descriptor given as hex into per-byte fields
func ParseDTDBlock(block string) (Values, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t', ',', ':':
			return -1
		}
		return r
	}, block)
	cleaned = strings.ReplaceAll(strings.ReplaceAll(cleaned, "0x", ""), "0X", "")

	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to decode descriptor: %w", err)
	}
	if len(data) < DTDSize {
		return nil, fmt.Errorf("descriptor too short: %d bytes", len(data))
	}
	if data[DTDPixelClockLo] == 0 && data[DTDPixelClockHi] == 0 {
		return nil, fmt.Errorf("not a detailed timing descriptor (zero pixel clock)")
	}

	out := Values{}
	for f, off := range edidOffsets {
		out[f] = codec.HexByte(int(data[off]))
	}
	return out, nil
}

func (EDID) Apply(p *Params, in Values) []Field {
	merged := Values{}
	var skipped []Field

	if block, ok := in[FieldEDIDBlock]; ok && strings.TrimSpace(block) != "" {
		parsed, err := ParseDTDBlock(block)
		if err != nil {
			skipped = append(skipped, FieldEDIDBlock)
		} else {
			for f, v := range parsed {
				merged[f] = v
			}
		}
	}
	for f, v := range in {
		if f != FieldEDIDBlock && strings.TrimSpace(v) != "" {
			merged[f] = v
		}
	}

	r := newReader(merged)

	if lo, ok := r.hexByte(FieldEDIDClockLo); ok {
		if hi, ok := r.hexByte(FieldEDIDClockHi); ok {
			set(&p.PixelClock, join(hi, lo)*10)
		}
	}

	if hHigh, ok := r.hexByte(FieldEDIDHHigh); ok {
		if lo, ok := r.hexByte(FieldEDIDHActiveLo); ok {
			set(&p.HActive, join(hHigh>>4, lo))
		}
		if lo, ok := r.hexByte(FieldEDIDHBlankLo); ok {
			set(&p.HBlanking, join(hHigh&0x0f, lo))
		}
	}
	if vHigh, ok := r.hexByte(FieldEDIDVHigh); ok {
		if lo, ok := r.hexByte(FieldEDIDVActiveLo); ok {
			set(&p.VActive, join(vHigh>>4, lo))
		}
		if lo, ok := r.hexByte(FieldEDIDVBlankLo); ok {
			set(&p.VBlanking, join(vHigh&0x0f, lo))
		}
	}

	// The sync high bits are optional; without them the low bytes stand alone
	syncHigh, _ := r.hexByte(FieldEDIDSyncHigh)
	if lo, ok := r.hexByte(FieldEDIDHSyncOffsetLo); ok {
		set(&p.HSyncOffset, join((syncHigh>>6)&0x03, lo))
	}
	if lo, ok := r.hexByte(FieldEDIDHSyncWidthLo); ok {
		set(&p.HSyncPulseWidth, join((syncHigh>>4)&0x03, lo))
	}
	if vSync, ok := r.hexByte(FieldEDIDVSyncLo); ok {
		set(&p.VSyncOffset, int((syncHigh>>2)&0x03)<<4|int(vSync>>4))
		set(&p.VSyncPulseWidth, int(syncHigh&0x03)<<4|int(vSync&0x0f))
	}

	if flags, ok := r.hexByte(FieldEDIDFlags); ok {
		p.Interlaced = Bool(flags&dtdFlagInterlace != 0)
		if flags&dtdFlagDigitalSep == dtdFlagDigitalSep {
			p.VSyncPolarity = Bool(flags&dtdFlagVSyncHigh != 0)
			p.HSyncPolarity = Bool(flags&dtdFlagHSyncHigh != 0)
		}
	}

	return append(skipped, r.skipped...)
}

// join builds a 12- or 16-bit value from a high and low byte by concatenating
// their zero-padded hex strings
func join(hi, lo byte) int {
	n, err := codec.JoinHex(codec.HexByte(int(hi)), codec.HexByte(int(lo)))
	if err != nil {
		// both parts come from HexByte and are always valid
		return 0
	}
	return n
}

func (EDID) Encode(p Params) Values {
	var (
		data  [DTDSize]byte
		known = map[Field]bool{}
	)
	mark := func(fs ...Field) {
		for _, f := range fs {
			known[f] = true
		}
	}

	if p.PixelClock != nil {
		clk := codec.Round(float64(*p.PixelClock) / 10)
		data[DTDPixelClockLo] = byte(clk)
		data[DTDPixelClockHi] = byte(clk >> 8)
		mark(FieldEDIDClockLo, FieldEDIDClockHi)
	}

	if p.HActive != nil {
		data[DTDHActiveLo] = byte(*p.HActive)
		data[DTDHHigh] |= byte((*p.HActive>>8)&0x0f) << 4
		mark(FieldEDIDHActiveLo, FieldEDIDHHigh)
	}
	if p.HBlanking != nil {
		data[DTDHBlankLo] = byte(*p.HBlanking)
		data[DTDHHigh] |= byte((*p.HBlanking >> 8) & 0x0f)
		mark(FieldEDIDHBlankLo, FieldEDIDHHigh)
	}
	if p.VActive != nil {
		data[DTDVActiveLo] = byte(*p.VActive)
		data[DTDVHigh] |= byte((*p.VActive>>8)&0x0f) << 4
		mark(FieldEDIDVActiveLo, FieldEDIDVHigh)
	}
	if p.VBlanking != nil {
		data[DTDVBlankLo] = byte(*p.VBlanking)
		data[DTDVHigh] |= byte((*p.VBlanking >> 8) & 0x0f)
		mark(FieldEDIDVBlankLo, FieldEDIDVHigh)
	}

	if p.HSyncOffset != nil {
		data[DTDHSyncOffsetLo] = byte(*p.HSyncOffset)
		data[DTDSyncHigh] |= byte((*p.HSyncOffset>>8)&0x03) << 6
		mark(FieldEDIDHSyncOffsetLo, FieldEDIDSyncHigh)
	}
	if p.HSyncPulseWidth != nil {
		data[DTDHSyncWidthLo] = byte(*p.HSyncPulseWidth)
		data[DTDSyncHigh] |= byte((*p.HSyncPulseWidth>>8)&0x03) << 4
		mark(FieldEDIDHSyncWidthLo, FieldEDIDSyncHigh)
	}
	if p.VSyncOffset != nil && p.VSyncPulseWidth != nil {
		data[DTDVSyncLo] = byte(*p.VSyncOffset&0x0f)<<4 | byte(*p.VSyncPulseWidth&0x0f)
		data[DTDSyncHigh] |= byte((*p.VSyncOffset>>4)&0x03)<<2 | byte((*p.VSyncPulseWidth>>4)&0x03)
		mark(FieldEDIDVSyncLo, FieldEDIDSyncHigh)
	}

	if p.Interlaced != nil || p.VSyncPolarity != nil || p.HSyncPolarity != nil {
		var flags byte
		if p.Interlaced != nil && *p.Interlaced {
			flags |= dtdFlagInterlace
		}
		if p.VSyncPolarity != nil || p.HSyncPolarity != nil {
			flags |= dtdFlagDigitalSep
			if p.VSyncPolarity != nil && *p.VSyncPolarity {
				flags |= dtdFlagVSyncHigh
			}
			if p.HSyncPolarity != nil && *p.HSyncPolarity {
				flags |= dtdFlagHSyncHigh
			}
		}
		data[DTDFlags] = flags
		mark(FieldEDIDFlags)
	}

	out := Values{}
	for f, off := range edidOffsets {
		if known[f] {
			out[f] = codec.HexByte(int(data[off]))
		}
	}
	if p.Complete() {
		out[FieldEDIDBlock] = hex.EncodeToString(data[:])
	}
	return out
}
