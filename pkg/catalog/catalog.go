// Package catalog loads the static reference tables: general driver
// controls, DTD presets and the per-port attribute catalog.
package catalog

import (
	"embed"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

//go:embed tables/*.xml
var builtin embed.FS

// Table file names
const (
	ControlsFile   = "controls.xml"
	PresetsFile    = "presets.xml"
	AttributesFile = "attributes.xml"
)

// Control scopes
const (
	ScopeConfig = "config"
	ScopePort   = "port"
)

// Control maps a form field to a driver option
type Control struct {
	Scope       string `xml:"scope,attr" json:"scope" yaml:"scope"`
	Field       string `xml:"field,attr" json:"field" yaml:"field"`
	Option      string `xml:"option,attr" json:"option" yaml:"option"`
	Default     string `xml:"default,attr" json:"default,omitempty" yaml:"default,omitempty"`
	Description string `xml:"description,attr" json:"description,omitempty" yaml:"description,omitempty"`
}

// PresetField is one input of a preset
type PresetField struct {
	Name  string `xml:"name,attr" json:"name" yaml:"name"`
	Value string `xml:",chardata" json:"value" yaml:"value"`
}

// Preset is a named timing given in one representation
type Preset struct {
	Name           string        `xml:"name,attr" json:"name" yaml:"name"`
	Representation string        `xml:"representation,attr" json:"representation" yaml:"representation"`
	Description    string        `xml:"description,attr" json:"description,omitempty" yaml:"description,omitempty"`
	Fields         []PresetField `xml:"field" json:"fields" yaml:"fields"`
}

// Values returns the preset inputs keyed by timing field
func (p Preset) Values() timing.Values {
	v := make(timing.Values, len(p.Fields))
	for _, f := range p.Fields {
		v[timing.Field(f.Name)] = f.Value
	}
	return v
}

// Attribute describes a port attribute control
type Attribute struct {
	Port        string `xml:"port,attr" json:"port" yaml:"port"`
	ID          int    `xml:"id,attr" json:"id" yaml:"id"`
	Name        string `xml:"name,attr" json:"name" yaml:"name"`
	Default     string `xml:"default,attr" json:"default,omitempty" yaml:"default,omitempty"`
	Min         int    `xml:"min,attr" json:"min" yaml:"min"`
	Max         int    `xml:"max,attr" json:"max" yaml:"max"`
	Description string `xml:"description,attr" json:"description,omitempty" yaml:"description,omitempty"`
}

// Tables holds the parsed reference documents
type Tables struct {
	Controls   []Control   `json:"controls" yaml:"controls"`
	Presets    []Preset    `json:"presets" yaml:"presets"`
	Attributes []Attribute `json:"attributes" yaml:"attributes"`
}

type controlsDoc struct {
	XMLName  xml.Name  `xml:"controls"`
	Controls []Control `xml:"control"`
}

type presetsDoc struct {
	XMLName xml.Name `xml:"presets"`
	Presets []Preset `xml:"preset"`
}

type attributesDoc struct {
	XMLName    xml.Name    `xml:"attributes"`
	Attributes []Attribute `xml:"attribute"`
}

// Load parses the built-in tables
func Load() (*Tables, error) {
	sub, err := fs.Sub(builtin, "tables")
	if err != nil {
		return nil, fmt.Errorf("failed to open built-in tables: %w", err)
	}
	return LoadFS(sub)
}

// LoadDir parses tables from dir. Files missing from dir fall back to the
// built-in copy.
func LoadDir(dir string) (*Tables, error) {
	if dir == "" {
		return Load()
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("tables directory not found: %s", dir)
	}

	sub, err := fs.Sub(builtin, "tables")
	if err != nil {
		return nil, fmt.Errorf("failed to open built-in tables: %w", err)
	}
	return LoadFS(overlayFS{dir: os.DirFS(dir), fallback: sub})
}

// LoadFS parses the three table documents from fsys
func LoadFS(fsys fs.FS) (*Tables, error) {
	t := &Tables{}

	var controls controlsDoc
	if err := decode(fsys, ControlsFile, &controls); err != nil {
		return nil, err
	}
	t.Controls = controls.Controls

	var presets presetsDoc
	if err := decode(fsys, PresetsFile, &presets); err != nil {
		return nil, err
	}
	t.Presets = presets.Presets

	var attrs attributesDoc
	if err := decode(fsys, AttributesFile, &attrs); err != nil {
		return nil, err
	}
	t.Attributes = attrs.Attributes

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func decode(fsys fs.FS, name string, v interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// Validate checks the tables for duplicate names and unknown scopes
func (t *Tables) Validate() error {
	seen := map[string]bool{}
	for _, c := range t.Controls {
		if c.Scope != ScopeConfig && c.Scope != ScopePort {
			return fmt.Errorf("control %q: invalid scope %q", c.Field, c.Scope)
		}
		if c.Field == "" || c.Option == "" {
			return fmt.Errorf("control with empty field or option")
		}
		key := c.Scope + "/" + c.Field
		if seen[key] {
			return fmt.Errorf("control %q declared twice", c.Field)
		}
		seen[key] = true
	}

	seen = map[string]bool{}
	for _, p := range t.Presets {
		if p.Name == "" {
			return fmt.Errorf("preset with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("preset %q declared twice", p.Name)
		}
		seen[p.Name] = true
	}

	seen = map[string]bool{}
	for _, a := range t.Attributes {
		key := a.Port + "/" + a.Name
		if seen[key] {
			return fmt.Errorf("attribute %q declared twice for port %s", a.Name, a.Port)
		}
		seen[key] = true
	}
	return nil
}

// Preset returns the preset with the given name
func (t *Tables) Preset(name string) (Preset, bool) {
	for _, p := range t.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// ControlsFor returns the controls of one scope in declaration order
func (t *Tables) ControlsFor(scope string) []Control {
	var out []Control
	for _, c := range t.Controls {
		if c.Scope == scope {
			out = append(out, c)
		}
	}
	return out
}

// AttributesFor returns the attributes that apply to port, including those
// declared for all ports
func (t *Tables) AttributesFor(port string) []Attribute {
	var out []Attribute
	for _, a := range t.Attributes {
		if a.Port == port || a.Port == "all" {
			out = append(out, a)
		}
	}
	return out
}

// overlayFS serves files from dir, falling back to the built-in tables
type overlayFS struct {
	dir      fs.FS
	fallback fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.dir.Open(filepath.ToSlash(name))
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return o.fallback.Open(name)
	}
	return nil, err
}
