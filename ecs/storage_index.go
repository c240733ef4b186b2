package ecs

import "iter"

// storageIndex maps archetype ids directly to storages.
type storageIndex struct {
	storages []*storage
}

func newStorageIndex() *storageIndex {
	return &storageIndex{storages: make([]*storage, 0, 16)}
}

func (si *storageIndex) get(id ArchetypeId) (*storage, bool) {
	if int(id) >= len(si.storages) || si.storages[id] == nil {
		return nil, false
	}
	return si.storages[id], true
}

func (si *storageIndex) put(id ArchetypeId, s *storage) {
	for int(id) >= len(si.storages) {
		si.storages = append(si.storages, nil)
	}
	si.storages[id] = s
}

func (si *storageIndex) remove(id ArchetypeId) {
	if int(id) < len(si.storages) {
		si.storages[id] = nil
	}
}

func (si *storageIndex) all() iter.Seq2[ArchetypeId, *storage] {
	return func(yield func(ArchetypeId, *storage) bool) {
		for id, s := range si.storages {
			if s == nil {
				continue
			}
			if !yield(ArchetypeId(id), s) {
				return
			}
		}
	}
}
