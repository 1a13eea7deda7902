package timing

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoEncoder is returned when a representation cannot be produced from a
// canonical parameter set
var ErrNoEncoder = errors.New("representation has no reverse mapping")

// Representation is one of the input formats a timing descriptor can be given in
type Representation interface {
	// Name returns the unique name of the representation
	Name() string

	// Description returns a human-readable description
	Description() string

	// Fields lists the inputs the representation reads
	Fields() []Field

	// Apply derives canonical fields from in and merges them into p. Fields
	// absent from in leave p untouched. The returned fields were present but
	// malformed and have been skipped.
	Apply(p *Params, in Values) []Field
}

// Encoder is implemented by representations that can be rebuilt from a
// canonical parameter set
type Encoder interface {
	Encode(p Params) Values
}

// Info describes a registered representation
type Info struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Fields      []Field `json:"fields" yaml:"fields"`
	Reversible  bool    `json:"reversible" yaml:"reversible"`
}

// Registry manages the available representations
type Registry struct {
	mu    sync.RWMutex
	reprs map[string]Representation
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		reprs: make(map[string]Representation),
	}
}

// DefaultRegistry returns a registry holding every built-in representation
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, repr := range []Representation{EMGD{}, VESA{}, Hardware{}, Modeline{}, EDID{}, Simple{}} {
		// Names are distinct, registration cannot fail
		_ = r.Register(repr)
	}
	return r
}

// Register adds a representation to the registry
func (r *Registry) Register(repr Representation) error {
	if repr == nil {
		return fmt.Errorf("representation cannot be nil")
	}

	name := repr.Name()
	if name == "" {
		return fmt.Errorf("representation name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reprs[name]; exists {
		return fmt.Errorf("representation %q already registered", name)
	}

	r.reprs[name] = repr
	return nil
}

// Get retrieves a representation by name
func (r *Registry) Get(name string) (Representation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	repr, exists := r.reprs[name]
	if !exists {
		return nil, fmt.Errorf("representation %q not found", name)
	}

	return repr, nil
}

// List returns all registered names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.reprs))
	for name := range r.reprs {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Info returns details about every registered representation, sorted by name
func (r *Registry) Info() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.reprs))
	for _, repr := range r.reprs {
		_, reversible := repr.(Encoder)
		infos = append(infos, Info{
			Name:        repr.Name(),
			Description: repr.Description(),
			Fields:      repr.Fields(),
			Reversible:  reversible,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos
}

// Apply merges in, given in the source representation, into p
func (r *Registry) Apply(source string, p *Params, in Values) ([]Field, error) {
	repr, err := r.Get(source)
	if err != nil {
		return nil, err
	}
	return repr.Apply(p, in), nil
}

// Translate merges in, given in the source representation, into p and returns
// p expressed in the target representation. Target fields whose canonical
// inputs are still unknown are omitted.
func (r *Registry) Translate(target, source string, p *Params, in Values) (Values, []Field, error) {
	dst, err := r.Get(target)
	if err != nil {
		return nil, nil, err
	}

	enc, ok := dst.(Encoder)
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", target, ErrNoEncoder)
	}

	skipped, err := r.Apply(source, p, in)
	if err != nil {
		return nil, nil, err
	}

	return enc.Encode(*p), skipped, nil
}
