// Package render turns a display configuration into configuration file text
// by substituting $token$ values into line templates.
package render

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mscrnt/emgd_confgen/internal/version"
	"github.com/mscrnt/emgd_confgen/pkg/config"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// Template names
const (
	MainTemplate       = "xorg.conf.tmpl"
	OptionTemplate     = "option.tmpl"
	PortTemplate       = "port.tmpl"
	PortOptionTemplate = "port_option.tmpl"
	DTDTemplate        = "dtd.tmpl"
	AttrTemplate       = "attr.tmpl"
	OverlayTemplate    = "overlay.tmpl"
	SecondaryTemplate  = "secondary.tmpl"
)

// TemplateNames lists every template the generator reads
var TemplateNames = []string{
	MainTemplate, OptionTemplate, PortTemplate, PortOptionTemplate,
	DTDTemplate, AttrTemplate, OverlayTemplate, SecondaryTemplate,
}

// Section markers, written on a line of their own as @name@
const (
	markOptions     = "options"
	markPorts       = "ports"
	markOverlay     = "overlay"
	markSecondary   = "secondary"
	markPortOptions = "port_options"
	markDTDs        = "dtds"
	markAttrs       = "attrs"
)

const timeFormat = "2006-01-02 15:04:05"

var tokenPattern = regexp.MustCompile(`\$[A-Za-z0-9_]+\$`)

// Vars maps token names (without the $ delimiters) to their values
type Vars map[string]string

// Templates holds template text by name
type Templates map[string]string

// DefaultTemplates returns the built-in templates
func DefaultTemplates() (Templates, error) {
	t := Templates{}
	for _, name := range TemplateNames {
		data, err := builtin.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read built-in template %s: %w", name, err)
		}
		t[name] = string(data)
	}
	return t, nil
}

// LoadTemplates reads templates from dir. Templates missing from dir fall
// back to the built-in copy.
func LoadTemplates(dir string) (Templates, error) {
	t, err := DefaultTemplates()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return t, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("templates directory not found: %s", dir)
	}

	for _, name := range TemplateNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		t[name] = string(data)
	}
	return t, nil
}

// Generator renders display configurations
type Generator struct {
	templates Templates
	system    *SystemInfo
	version   string
	now       func() time.Time
}

// Option configures a Generator
type Option func(*Generator)

// WithSystemInfo adds the host description to the generated header
func WithSystemInfo(info SystemInfo) Option {
	return func(g *Generator) {
		g.system = &info
	}
}

// WithVersion sets the version written to the header
func WithVersion(v string) Option {
	return func(g *Generator) {
		g.version = v
	}
}

// WithClock overrides the generation timestamp source
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a generator over templates
func NewGenerator(templates Templates, opts ...Option) *Generator {
	g := &Generator{
		templates: templates,
		version:   "dev",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders cfg. Lines left with an unresolved token or a section
// marker are dropped from the output.
func (g *Generator) Generate(cfg *config.DisplayConfig) (string, error) {
	if cfg == nil || cfg.Primary == nil {
		return "", fmt.Errorf("configuration has no primary port")
	}
	for _, name := range TemplateNames {
		if _, ok := g.templates[name]; !ok {
			return "", fmt.Errorf("template %s not loaded", name)
		}
	}

	// Token maps are built fresh for every call
	shared := g.sharedVars(cfg)

	var options []string
	for _, o := range cfg.Options {
		options = append(options, Substitute(g.templates[OptionTemplate], shared, optionVars(o)))
	}

	var ports []string
	for _, p := range cfg.Ports() {
		ports = append(ports, g.port(p, shared))
	}

	text := g.templates[MainTemplate]
	text = Splice(text, markOptions, strings.Join(options, ""))
	text = Splice(text, markPorts, strings.Join(ports, ""))
	if !cfg.Overlay.Empty() {
		text = Splice(text, markOverlay, Substitute(g.templates[OverlayTemplate], shared, overlayVars(cfg)))
	}
	if dualScreen(cfg) {
		text = Splice(text, markSecondary, Substitute(g.templates[SecondaryTemplate], shared))
	}

	return Clean(Substitute(text, shared)), nil
}

func (g *Generator) port(p *config.PortConfig, shared Vars) string {
	pv := portVars(p)

	var options, dtds, attrs []string
	for _, o := range p.Options {
		options = append(options, Substitute(g.templates[PortOptionTemplate], shared, pv, optionVars(o)))
	}
	for _, d := range p.DTDs {
		dtds = append(dtds, Substitute(g.templates[DTDTemplate], shared, pv, dtdVars(d)))
	}
	for _, a := range p.Attrs {
		attrs = append(attrs, Substitute(g.templates[AttrTemplate], shared, pv, attrVars(a)))
	}

	text := g.templates[PortTemplate]
	text = Splice(text, markPortOptions, strings.Join(options, ""))
	text = Splice(text, markDTDs, strings.Join(dtds, ""))
	text = Splice(text, markAttrs, strings.Join(attrs, ""))
	return Substitute(text, shared, pv)
}

func (g *Generator) sharedVars(cfg *config.DisplayConfig) Vars {
	v := Vars{
		"config_name":    cfg.Name,
		"config_id":      strconv.Itoa(cfg.ID),
		"display_config": strconv.Itoa(cfg.ModeValue),
		"port_order":     cfg.PortOrder(),
		"bus_id":         cfg.BusID,
		"depth":          strconv.Itoa(cfg.Depth),
		"generator":      version.Generator(g.version),
		"generated_at":   g.now().Format(timeFormat),
	}
	if cfg.Xinerama {
		v["xinerama"] = "on"
	}
	if dualScreen(cfg) {
		v["secondary_position"] = `RightOf "Screen0"`
	}
	if g.system != nil {
		v["hostname"] = g.system.Hostname
		v["platform"] = g.system.Platform
	}
	return v
}

// dualScreen reports whether the secondary port drives its own X screen
func dualScreen(cfg *config.DisplayConfig) bool {
	return cfg.Secondary != nil && (cfg.Mode == config.ModeExtended || cfg.Mode == config.ModeDIH)
}

func optionVars(o config.Option) Vars {
	return Vars{"option_name": o.Name, "option_value": o.Value}
}

func portVars(p *config.PortConfig) Vars {
	edid := "1"
	if p.DisableEdid {
		edid = "0"
	}
	return Vars{
		"port_id":        strconv.Itoa(p.ID),
		"port_name":      strings.ToUpper(p.Name),
		"edid_avail":     strconv.Itoa(p.EdidAvail),
		"edid_not_avail": strconv.Itoa(p.EdidNotAvail),
		"edid":           edid,
	}
}

func dtdVars(d config.DTDEntry) Vars {
	v := Vars{
		"dtd_index": strconv.Itoa(d.Index),
		"dtd_flags": d.Flags.String(),
	}
	ints := map[string]*int{
		"pixel_clock":  d.Params.PixelClock,
		"h_active":     d.Params.HActive,
		"h_sync":       d.Params.HSyncOffset,
		"h_sync_pulse": d.Params.HSyncPulseWidth,
		"h_blank":      d.Params.HBlanking,
		"v_active":     d.Params.VActive,
		"v_sync":       d.Params.VSyncOffset,
		"v_sync_pulse": d.Params.VSyncPulseWidth,
		"v_blank":      d.Params.VBlanking,
	}
	for name, n := range ints {
		if n != nil {
			v[name] = strconv.Itoa(*n)
		}
	}
	return v
}

func attrVars(a config.AttrEntry) Vars {
	return Vars{
		"attr_index": strconv.Itoa(a.Index),
		"attr_id":    strconv.Itoa(a.ID),
		"attr_value": a.Value,
	}
}

func overlayVars(cfg *config.DisplayConfig) Vars {
	v := Vars{}
	for name, value := range map[string]string{
		"ovl_brightness":  cfg.Overlay.Brightness,
		"ovl_contrast":    cfg.Overlay.Contrast,
		"ovl_saturation":  cfg.Overlay.Saturation,
		"ovl_gamma_red":   cfg.Overlay.GammaRed,
		"ovl_gamma_green": cfg.Overlay.GammaGreen,
		"ovl_gamma_blue":  cfg.Overlay.GammaBlue,
	} {
		if value != "" {
			v[name] = value
		}
	}
	return v
}

// Substitute replaces every $name$ token of text in a single pass. Later maps
// take precedence over earlier ones; unknown tokens are left in place.
func Substitute(text string, maps ...Vars) string {
	merged := Vars{}
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}

	names := make([]string, 0, len(merged))
	for k := range merged {
		names = append(names, k)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, k := range names {
		pairs = append(pairs, "$"+k+"$", merged[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Splice replaces the line holding the @name@ marker with content. An empty
// content leaves the marker for Clean to remove.
func Splice(text, name, content string) string {
	if content == "" {
		return text
	}
	marker := "@" + name + "@"
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == marker {
			lines[i] = strings.TrimSuffix(content, "\n")
		}
	}
	return strings.Join(lines, "\n")
}

// Clean drops every line that still holds a $token$ or an @ character
func Clean(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if tokenPattern.MatchString(line) || strings.Contains(line, "@") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
