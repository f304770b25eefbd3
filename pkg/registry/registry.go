package registry

import (
	"slices"

	"github.com/samber/oops"

	"github.com/aquasecurity/unt-scan/pkg/log"
)

// Backend persists the ordered list of reported advisory ids.
type Backend interface {
	// Load returns the stored ids. found is false when no state has been
	// written yet; a present but unreadable state is an error.
	Load() (ids []string, found bool, err error)
	// Save replaces the stored state with ids.
	Save(ids []string) error
}

// Registry is the set of advisories that have already been reported.
type Registry struct {
	backend Backend
	ids     []string
	index   map[string]struct{}
	logger  *log.Logger
}

// Load reads the registry from backend. Missing state is initialized and
// persisted right away so that later runs find it.
func Load(backend Backend) (*Registry, error) {
	r := &Registry{
		backend: backend,
		index:   make(map[string]struct{}),
		logger:  log.WithPrefix("registry"),
	}

	ids, found, err := backend.Load()
	if err != nil {
		return nil, oops.In("registry").Wrapf(err, "registry load error")
	}
	if !found {
		r.logger.Debug("Initializing an empty alert registry")
		if err = backend.Save(nil); err != nil {
			return nil, oops.In("registry").Wrapf(err, "registry init error")
		}
	}

	for _, id := range ids {
		r.Register(id)
	}
	return r, nil
}

func (r *Registry) IsRegistered(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Register appends id. Registering a known id is a no-op.
func (r *Registry) Register(id string) {
	if r.IsRegistered(id) {
		return
	}
	r.index[id] = struct{}{}
	r.ids = append(r.ids, id)
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.ids)
}

func (r *Registry) Len() int {
	return len(r.ids)
}

// Save writes the whole registry back in one step.
func (r *Registry) Save() error {
	if err := r.backend.Save(r.ids); err != nil {
		return oops.In("registry").With("alerts", len(r.ids)).Wrapf(err, "registry save error")
	}
	r.logger.Debug("Alert registry saved", log.Int("alerts", len(r.ids)))
	return nil
}
