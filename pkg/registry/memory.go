package registry

import "slices"

// MemoryBackend keeps the registry for the lifetime of the process only.
type MemoryBackend struct {
	ids   []string
	saved bool
}

func NewMemoryBackend(ids ...string) *MemoryBackend {
	return &MemoryBackend{
		ids:   ids,
		saved: len(ids) > 0,
	}
}

func (b *MemoryBackend) Load() ([]string, bool, error) {
	return slices.Clone(b.ids), b.saved, nil
}

func (b *MemoryBackend) Save(ids []string) error {
	b.ids = slices.Clone(ids)
	b.saved = true
	return nil
}
