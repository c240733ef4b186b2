package ecs

// entityRecord is the physical location of an entity. A nil storage marks a
// free slot.
type entityRecord struct {
	row       int
	archetype ArchetypeId
	storage   *storage
}

// entityIndex maps entity ids to records and recycles freed ids.
type entityIndex struct {
	records []entityRecord
	free    []EntityId
	next    EntityId
	live    int
}

func newEntityIndex(capacity int) *entityIndex {
	return &entityIndex{
		records: make([]entityRecord, 0, capacity),
	}
}

// newEntity pops the free list, or hands out the next unused id.
func (ei *entityIndex) newEntity() EntityId {
	ei.live++
	if n := len(ei.free); n > 0 {
		id := ei.free[n-1]
		ei.free = ei.free[:n-1]
		return id
	}
	id := ei.next
	ei.next++
	if len(ei.records) == cap(ei.records) {
		grown := make([]entityRecord, len(ei.records), 2*cap(ei.records)+1)
		copy(grown, ei.records)
		ei.records = grown
	}
	ei.records = append(ei.records, entityRecord{})
	return id
}

func (ei *entityIndex) set(id EntityId, row int, archetype ArchetypeId, s *storage) {
	ei.records[id] = entityRecord{row: row, archetype: archetype, storage: s}
}

func (ei *entityIndex) remove(id EntityId) {
	ei.records[id] = entityRecord{}
	ei.free = append(ei.free, id)
	ei.live--
}

// get indexes the record array directly. Callers must check alive first.
func (ei *entityIndex) get(id EntityId) entityRecord {
	return ei.records[id]
}

func (ei *entityIndex) alive(id EntityId) bool {
	return int(id) < len(ei.records) && ei.records[id].storage != nil
}

func (ei *entityIndex) len() int {
	return ei.live
}
