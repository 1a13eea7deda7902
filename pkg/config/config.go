// Package config assembles form input into the display configuration
// consumed by the renderer.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mscrnt/emgd_confgen/pkg/attr"
	"github.com/mscrnt/emgd_confgen/pkg/dtd"
	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

// DisplayMode is the global display arrangement
type DisplayMode string

const (
	ModeSingle   DisplayMode = "single"
	ModeClone    DisplayMode = "clone"
	ModeExtended DisplayMode = "extended"
	ModeDIH      DisplayMode = "dih"
)

// ParseDisplayMode validates a display mode name
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch m := DisplayMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSingle, ModeClone, ModeExtended, ModeDIH:
		return m, nil
	case "":
		return ModeSingle, nil
	}
	return "", fmt.Errorf("unknown display mode %q", s)
}

// Value returns the DisplayConfig option value of the mode
func (m DisplayMode) Value() int {
	switch m {
	case ModeClone:
		return 2
	case ModeExtended, ModeDIH:
		return 8
	default:
		return 1
	}
}

// MultiDisplay reports whether the mode drives two ports
func (m DisplayMode) MultiDisplay() bool {
	return m != ModeSingle
}

// Port IDs
const (
	PortSDVO = 2
	PortLVDS = 4
	PortDual = PortSDVO + PortLVDS
)

// Port names accepted in the form
var portIDs = map[string]int{
	"sdvo": PortSDVO,
	"lvds": PortLVDS,
	"dual": PortDual,
}

// PortID returns the ID of a named port
func PortID(name string) (int, bool) {
	id, ok := portIDs[name]
	return id, ok
}

// Option is one driver option
type Option struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// DTDEntry is one resolved display timing descriptor
type DTDEntry struct {
	Index  int           `json:"index" yaml:"index"` // from 1
	Slot   int           `json:"slot" yaml:"slot"`   // form slot number
	Params timing.Params `json:"params" yaml:"params"`
	Flags  dtd.Flags     `json:"flags" yaml:"flags"`
}

// AttrEntry is one port attribute with its position in the port list
type AttrEntry struct {
	Index int `json:"index" yaml:"index"` // from 0
	attr.Attribute `yaml:",inline"`
}

// PortConfig is the configuration of one physical port
type PortConfig struct {
	ID           int         `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	EdidAvail    int         `json:"edid_avail" yaml:"edid_avail"`
	EdidNotAvail int         `json:"edid_not_avail" yaml:"edid_not_avail"`
	DisableEdid  bool        `json:"disable_edid" yaml:"disable_edid"`
	Options      []Option    `json:"options,omitempty" yaml:"options,omitempty"`
	DTDs         []DTDEntry  `json:"dtds" yaml:"dtds"`
	Attrs        []AttrEntry `json:"attrs" yaml:"attrs"`
}

// addAttr appends a with the next index of the port
func (p *PortConfig) addAttr(a attr.Attribute) {
	p.Attrs = append(p.Attrs, AttrEntry{Index: len(p.Attrs), Attribute: a})
}

// DisplayConfig is the aggregate of one generation pass
type DisplayConfig struct {
	Name      string       `json:"name" yaml:"name"`
	ID        int          `json:"id" yaml:"id"`
	Mode      DisplayMode  `json:"mode" yaml:"mode"`
	ModeValue int          `json:"mode_value" yaml:"mode_value"`
	Xinerama  bool         `json:"xinerama" yaml:"xinerama"`
	BusID     string       `json:"bus_id" yaml:"bus_id"`
	Depth     int          `json:"depth" yaml:"depth"`
	Options   []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	Primary   *PortConfig  `json:"primary" yaml:"primary"`
	Secondary *PortConfig  `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Overlay   attr.Overlay `json:"overlay" yaml:"overlay"`
}

// Ports returns the configured ports, primary first
func (c *DisplayConfig) Ports() []*PortConfig {
	ports := []*PortConfig{c.Primary}
	if c.Secondary != nil {
		ports = append(ports, c.Secondary)
	}
	return ports
}

// PortOrder returns the five digit port search order, primary first
func (c *DisplayConfig) PortOrder() string {
	var b strings.Builder
	seen := map[int]bool{}
	for _, p := range c.Ports() {
		for _, id := range members(p.ID) {
			if !seen[id] {
				seen[id] = true
				b.WriteString(strconv.Itoa(id))
			}
		}
	}
	for b.Len() < 5 {
		b.WriteByte('0')
	}
	return b.String()
}

func members(id int) []int {
	if id == PortDual {
		return []int{PortLVDS, PortSDVO}
	}
	return []int{id}
}

// Skip records a form field ignored because its value was malformed
type Skip struct {
	Scope string `json:"scope" yaml:"scope"`
	Field string `json:"field" yaml:"field"`
}

func (s Skip) String() string {
	return s.Scope + ": " + s.Field
}

// Report collects the non-fatal findings of a build
type Report struct {
	Skipped  []Skip   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func (r *Report) skip(scope string, fields ...string) {
	for _, f := range fields {
		r.Skipped = append(r.Skipped, Skip{Scope: scope, Field: f})
	}
}

func (r *Report) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Empty reports whether the build produced no findings
func (r *Report) Empty() bool {
	return len(r.Skipped) == 0 && len(r.Warnings) == 0
}
