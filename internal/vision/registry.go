// File: internal/vision/registry.go
package vision

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
)

// ErrTemplateMissing indicates a referenced template asset is absent or
// cannot be decoded. This is fatal: a pipeline referencing such a template
// cannot run.
var ErrTemplateMissing = errors.New("template asset missing or unreadable")

// TemplateRef binds a template name to its image asset and default
// acceptance threshold. Immutable once defined.
type TemplateRef struct {
	// Name identifies the template throughout the pipeline.
	Name string
	// File is the asset filename relative to the registry's directory.
	File string
	// Threshold is the default acceptance threshold in (0,1]. Zero
	// means "use the registry-wide default".
	Threshold float64
}

// Registry is an immutable name → template mapping, loaded once at startup
// and passed explicitly to the locator. It is never accessed as ambient
// global state.
type Registry struct {
	dir              string
	defaultThreshold float64
	refs             map[string]TemplateRef
	images           map[string]image.Image
}

// NewRegistry loads every referenced asset from dir eagerly and fails fast
// on the first one that is missing or undecodable.
func NewRegistry(dir string, defaultThreshold float64, refs []TemplateRef) (*Registry, error) {
	r := &Registry{
		dir:              dir,
		defaultThreshold: defaultThreshold,
		refs:             make(map[string]TemplateRef, len(refs)),
		images:           make(map[string]image.Image, len(refs)),
	}
	for _, ref := range refs {
		if _, dup := r.refs[ref.Name]; dup {
			return nil, fmt.Errorf("duplicate template name %q", ref.Name)
		}
		img, err := loadPNG(filepath.Join(dir, ref.File))
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", ref.Name, err)
		}
		r.refs[ref.Name] = ref
		r.images[ref.Name] = img
	}
	return r, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, path)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateMissing, path, err)
	}
	return img, nil
}

// Resolve returns the loaded image and effective threshold for a template
// name, or ErrTemplateMissing when the name was never registered.
func (r *Registry) Resolve(name string) (image.Image, float64, error) {
	ref, ok := r.refs[name]
	if !ok {
		return nil, 0, fmt.Errorf("%w: no template named %q", ErrTemplateMissing, name)
	}
	threshold := ref.Threshold
	if threshold == 0 {
		threshold = r.defaultThreshold
	}
	return r.images[name], threshold, nil
}

// Names returns all registered template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.refs))
	for name := range r.refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
