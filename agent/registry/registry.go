package registry

import (
	"fmt"
	"strings"

	contractx "github.com/krzycho/dbagent/agent/contract"
)

type ParamType string

const (
	ParamString ParamType = "string"
	ParamObject ParamType = "object"
	ParamArray  ParamType = "array"
)

type ParamSpec struct {
	Type     ParamType
	Desc     string
	Required bool
}

// Descriptor is the immutable contract of one capability.
type Descriptor struct {
	Name       string
	Desc       string
	Params     map[string]ParamSpec
	OutputDesc string
	ErrorModes []string
	Terminal   bool
}

// Registry is the fixed capability set for a task's lifetime. It is
// populated once and read-only afterwards, so it is safe to share across
// concurrently running tasks.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

func New(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Descriptor, len(descriptors)),
		order:  make([]string, 0, len(descriptors)),
	}
	for _, d := range descriptors {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool name is empty", contractx.ErrValidation)
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("%w: duplicate tool %q", contractx.ErrValidation, name)
		}
		d.Name = name
		r.byName[name] = d
		r.order = append(r.order, name)
	}
	return r, nil
}

func MustNew(descriptors ...Descriptor) *Registry {
	r, err := New(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Describe returns the descriptor for name.
func (r *Registry) Describe(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", contractx.ErrUnknownTool, name)
	}
	return d, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// List returns all descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
