package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Object is one fixed anatomical structure tracked by the scene graph.
// The ID is the object's stable index in the taxonomy (0-based).
// CategoryID indexes the category vocabulary; every compiled-in object is
// an anatomical structure, category 0.
type Object struct {
	Name       string `json:"name"`
	ID         int    `json:"id"`
	CategoryID int    `json:"category_id"`
}

// Attribute is one normalized finding label with its descriptive family
// (parenchymal, pleural, bony, ...). Labels are the matrix columns.
type Attribute struct {
	Label  string `json:"label"`
	Family string `json:"family"`
}

// Registry is the read-only anatomy/attribute lookup table shared by all
// pipeline stages. Safe for concurrent use: nothing mutates it after Load.
type Registry struct {
	objects    []Object
	byName     map[string]int
	aliases    map[string][]string
	categories []string
	catSet     map[string]bool
	attrs      []Attribute
	attrByName map[string]int
}

// Default returns the registry built from the compiled-in chest-radiograph
// taxonomy: 29 anatomical objects, 6 finding categories, and the normalized
// attribute vocabulary.
func Default() *Registry {
	r, err := build(defaultObjects, defaultCategories, defaultAttributes, defaultAliases)
	if err != nil {
		// The compiled tables are fixed; a failure here is a programming error.
		panic(err)
	}
	return r
}

// registryFile is the on-disk JSON shape accepted by Load.
type registryFile struct {
	Objects    []Object            `json:"objects"`
	Categories []string            `json:"categories"`
	Attributes []Attribute         `json:"attributes"`
	Aliases    map[string][]string `json:"aliases"`
}

// Load reads a registry from a JSON file. Omitted sections fall back to the
// compiled-in defaults, so a file may override just the aliases.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	var f registryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(f.Objects) == 0 {
		f.Objects = append(f.Objects, defaultObjects...)
	}
	if len(f.Categories) == 0 {
		f.Categories = append(f.Categories, defaultCategories...)
	}
	if len(f.Attributes) == 0 {
		f.Attributes = append(f.Attributes, defaultAttributes...)
	}
	if f.Aliases == nil {
		f.Aliases = defaultAliases
	}
	return build(f.Objects, f.Categories, f.Attributes, f.Aliases)
}

func build(objects []Object, categories []string, attrs []Attribute, aliases map[string][]string) (*Registry, error) {
	r := &Registry{
		objects:    make([]Object, len(objects)),
		byName:     make(map[string]int, len(objects)),
		aliases:    make(map[string][]string, len(aliases)),
		categories: append([]string(nil), categories...),
		catSet:     make(map[string]bool, len(categories)),
		attrs:      append([]Attribute(nil), attrs...),
		attrByName: make(map[string]int, len(attrs)),
	}
	copy(r.objects, objects)
	sort.Slice(r.objects, func(i, j int) bool { return r.objects[i].ID < r.objects[j].ID })

	for i, o := range r.objects {
		if o.Name == "" {
			return nil, fmt.Errorf("taxonomy: object %d has empty name", i)
		}
		if o.ID != i {
			return nil, fmt.Errorf("taxonomy: object ids must be contiguous from 0, got %d at position %d", o.ID, i)
		}
		if o.CategoryID < 0 || o.CategoryID >= len(r.categories) {
			return nil, fmt.Errorf("taxonomy: object %q has category id %d outside the %d categories", o.Name, o.CategoryID, len(r.categories))
		}
		if _, dup := r.byName[o.Name]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate object %q", o.Name)
		}
		r.byName[o.Name] = i
	}
	for _, c := range r.categories {
		r.catSet[c] = true
	}
	for i, a := range r.attrs {
		if _, dup := r.attrByName[a.Label]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate attribute %q", a.Label)
		}
		r.attrByName[a.Label] = i
	}
	for name, list := range aliases {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("taxonomy: alias entry for unknown object %q", name)
		}
		r.aliases[name] = append([]string(nil), list...)
	}
	return r, nil
}

// Objects returns all objects in ID order.
func (r *Registry) Objects() []Object {
	out := make([]Object, len(r.objects))
	copy(out, r.objects)
	return out
}

// Lookup finds an object by its exact name.
func (r *Registry) Lookup(name string) (Object, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Object{}, false
	}
	return r.objects[i], true
}

// Aliases returns the match phrases for an object, always including the
// object name itself.
func (r *Registry) Aliases(name string) []string {
	out := []string{name}
	for _, a := range r.aliases[name] {
		if a != name {
			out = append(out, a)
		}
	}
	return out
}

// Categories returns the finding category names.
func (r *Registry) Categories() []string {
	return append([]string(nil), r.categories...)
}

// IsCategory reports whether s is a known finding category.
func (r *Registry) IsCategory(s string) bool {
	return r.catSet[s]
}

// Attributes returns the normalized attribute vocabulary in column order.
func (r *Registry) Attributes() []Attribute {
	out := make([]Attribute, len(r.attrs))
	copy(out, r.attrs)
	return out
}

// AttributeIndex returns the matrix column for a label.
func (r *Registry) AttributeIndex(label string) (int, bool) {
	i, ok := r.attrByName[label]
	return i, ok
}

// AttributeFamily returns the descriptive family for a label, or "" when the
// label is not part of the vocabulary.
func (r *Registry) AttributeFamily(label string) string {
	if i, ok := r.attrByName[label]; ok {
		return r.attrs[i].Family
	}
	return ""
}

// NumObjects returns the object count (29 for the default taxonomy).
func (r *Registry) NumObjects() int { return len(r.objects) }

// NumAttributes returns the attribute vocabulary size.
func (r *Registry) NumAttributes() int { return len(r.attrs) }
