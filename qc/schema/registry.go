package schema

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/paw-chain/qc/qc/types"
)

//go:embed schemas/*.yaml
var builtin embed.FS

// Registry is a read-only set of schemas keyed by schema id. It is built once
// at startup and injected into the canonicalizer and comparator.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry validates the given schemas and indexes them by id. Later
// entries replace earlier ones with the same id.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if s == nil {
			continue
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		r.schemas[s.ID] = s
	}
	return r, nil
}

// DefaultRegistry returns the built-in schemas: table@1, vectors@1 and
// cado_relations@1.
func DefaultRegistry() (*Registry, error) {
	schemas, err := loadFS(builtin, "schemas")
	if err != nil {
		return nil, err
	}
	return NewRegistry(schemas...)
}

// LoadDir reads every *.yaml / *.yml file in dir and layers the schemas on top
// of base (which may be nil).
func LoadDir(dir string, base *Registry) (*Registry, error) {
	schemas, err := loadFS(os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}

	var all []*Schema
	if base != nil {
		for _, id := range base.IDs() {
			all = append(all, base.schemas[id])
		}
	}
	all = append(all, schemas...)
	return NewRegistry(all...)
}

// Get returns the schema registered under id.
func (r *Registry) Get(id string) (*Schema, error) {
	s, ok := r.schemas[id]
	if !ok {
		return nil, types.ErrUnknownSchema.Wrapf("schema_id %q", id)
	}
	return s, nil
}

// IDs returns the registered schema ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func loadFS(fsys fs.FS, dir string) ([]*Schema, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, types.ErrInvalidSchema.Wrapf("read schema dir: %s", err)
	}

	var out []*Schema
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, types.ErrInvalidSchema.Wrapf("read %s: %s", e.Name(), err)
		}
		s, err := Parse(data)
		if err != nil {
			return nil, types.ErrInvalidSchema.Wrapf("%s: %s", e.Name(), err)
		}
		out = append(out, s)
	}
	return out, nil
}
