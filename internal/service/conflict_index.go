package service

// occupancyKey addresses one cell of the weekly grid.
type occupancyKey struct {
	Day      int
	PeriodID string
}

// ConflictIndex is an in-memory occupancy table over (day, lesson period)
// tracking which trainers, classes and rooms are already committed. It is
// private to a single generation run and discarded afterwards.
type ConflictIndex struct {
	trainers map[occupancyKey]map[string]struct{}
	classes  map[occupancyKey]map[string]struct{}
	rooms    map[occupancyKey]map[string]struct{}
}

// NewConflictIndex returns an empty index.
func NewConflictIndex() *ConflictIndex {
	return &ConflictIndex{
		trainers: make(map[occupancyKey]map[string]struct{}),
		classes:  make(map[occupancyKey]map[string]struct{}),
		rooms:    make(map[occupancyKey]map[string]struct{}),
	}
}

// IsFree reports whether none of trainer, class and room occupy the cell.
func (ix *ConflictIndex) IsFree(day int, periodID, trainerID, classID, roomID string) bool {
	key := occupancyKey{Day: day, PeriodID: periodID}
	if _, ok := ix.trainers[key][trainerID]; ok {
		return false
	}
	if _, ok := ix.classes[key][classID]; ok {
		return false
	}
	if _, ok := ix.rooms[key][roomID]; ok {
		return false
	}
	return true
}

// Commit records trainer, class and room as occupied for the cell.
func (ix *ConflictIndex) Commit(day int, periodID, trainerID, classID, roomID string) {
	key := occupancyKey{Day: day, PeriodID: periodID}
	addOccupant(ix.trainers, key, trainerID)
	addOccupant(ix.classes, key, classID)
	addOccupant(ix.rooms, key, roomID)
}

// Release reverses a Commit, used only while repairing placements.
func (ix *ConflictIndex) Release(day int, periodID, trainerID, classID, roomID string) {
	key := occupancyKey{Day: day, PeriodID: periodID}
	removeOccupant(ix.trainers, key, trainerID)
	removeOccupant(ix.classes, key, classID)
	removeOccupant(ix.rooms, key, roomID)
}

func addOccupant(table map[occupancyKey]map[string]struct{}, key occupancyKey, id string) {
	if table[key] == nil {
		table[key] = make(map[string]struct{})
	}
	table[key][id] = struct{}{}
}

func removeOccupant(table map[occupancyKey]map[string]struct{}, key occupancyKey, id string) {
	if table[key] == nil {
		return
	}
	delete(table[key], id)
}
