package scheduler

import (
	"sort"
	"sync"
	"time"
)

type dayKey struct {
	roomID string
	date   string
}

// Index tracks, per room and date, the reservations that still occupy a slot
// (PENDING or CONFIRMED). Terminal reservations are never present.
type Index struct {
	mu      sync.RWMutex
	entries map[dayKey]map[string]Reservation
	byID    map[string]dayKey
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[dayKey]map[string]Reservation),
		byID:    make(map[string]dayKey),
	}
}

// Register adds a non-terminal reservation. Terminal reservations are ignored.
func (x *Index) Register(r Reservation) {
	if !r.Status.Occupies() {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	if previous, ok := x.byID[r.ID]; ok {
		x.removeLocked(previous, r.ID)
	}
	key := dayKey{roomID: r.RoomID, date: r.Slot.DateKey()}
	day, ok := x.entries[key]
	if !ok {
		day = make(map[string]Reservation)
		x.entries[key] = day
	}
	day[r.ID] = r
	x.byID[r.ID] = key
}

// Release removes a reservation that has left the non-terminal set.
func (x *Index) Release(r Reservation) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if key, ok := x.byID[r.ID]; ok {
		x.removeLocked(key, r.ID)
	}
}

// MarkConfirmed refreshes the cached status of an indexed reservation without
// changing membership. It reports whether the reservation was indexed.
func (x *Index) MarkConfirmed(id string, at time.Time) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	key, ok := x.byID[id]
	if !ok {
		return false
	}
	r := x.entries[key][id]
	r.Status = StatusConfirmed
	r.UpdatedAt = at
	x.entries[key][id] = r
	return true
}

// Contains reports whether id is currently indexed.
func (x *Index) Contains(id string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.byID[id]
	return ok
}

// Len returns the number of indexed reservations.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byID)
}

// Reset drops every entry.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[dayKey]map[string]Reservation)
	x.byID = make(map[string]dayKey)
}

// ConflictsFor returns the non-terminal reservations for roomID overlapping slot,
// excluding excludeID. An empty result means the slot is free.
func (x *Index) ConflictsFor(roomID string, slot TimeSlot, excludeID string) []Reservation {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []Reservation
	for id, r := range x.entries[dayKey{roomID: roomID, date: slot.DateKey()}] {
		if id == excludeID || !r.Slot.Overlaps(slot) {
			continue
		}
		out = append(out, r)
	}
	SortReservations(out)
	return out
}

// BlockingConfirmed returns the earliest CONFIRMED reservation overlapping slot.
func (x *Index) BlockingConfirmed(roomID string, slot TimeSlot, excludeID string) (Reservation, bool) {
	for _, r := range x.ConflictsFor(roomID, slot, excludeID) {
		if r.Status == StatusConfirmed {
			return r, true
		}
	}
	return Reservation{}, false
}

// IsConfirmable is true when no CONFIRMED reservation other than excludeID overlaps slot.
// Overlapping PENDING requests do not block confirmation.
func (x *Index) IsConfirmable(roomID string, slot TimeSlot, excludeID string) bool {
	_, blocked := x.BlockingConfirmed(roomID, slot, excludeID)
	return !blocked
}

// FreeSlots lists the gaps between occupied ranges inside [opensAt, closesAt) on date.
func (x *Index) FreeSlots(roomID string, date time.Time, opensAt, closesAt TimeOfDay) []TimeSlot {
	if opensAt >= closesAt {
		return nil
	}
	date = DateOf(date)
	busy := x.occupied(roomID, date, func(Status) bool { return true })

	var free []TimeSlot
	cursor := opensAt
	for _, span := range busy {
		if span[1] <= cursor {
			continue
		}
		if span[0] >= closesAt {
			break
		}
		if span[0] > cursor {
			free = append(free, TimeSlot{Date: date, Start: cursor, End: span[0]})
		}
		cursor = span[1]
	}
	if cursor < closesAt {
		free = append(free, TimeSlot{Date: date, Start: cursor, End: closesAt})
	}
	return free
}

// ConfirmedMinutes sums the minutes of [from, to) covered by CONFIRMED reservations on date.
func (x *Index) ConfirmedMinutes(roomID string, date time.Time, from, to TimeOfDay) int {
	total := 0
	for _, span := range x.occupied(roomID, DateOf(date), func(s Status) bool { return s == StatusConfirmed }) {
		start, end := max(span[0], from), min(span[1], to)
		if end > start {
			total += int(end - start)
		}
	}
	return total
}

// occupied returns merged [start, end) spans sorted by start.
func (x *Index) occupied(roomID string, date time.Time, include func(Status) bool) [][2]TimeOfDay {
	x.mu.RLock()
	day := x.entries[dayKey{roomID: roomID, date: date.Format(DateLayout)}]
	spans := make([][2]TimeOfDay, 0, len(day))
	for _, r := range day {
		if include(r.Status) {
			spans = append(spans, [2]TimeOfDay{r.Slot.Start, r.Slot.End})
		}
	}
	x.mu.RUnlock()

	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	merged := spans[:0]
	for _, span := range spans {
		if n := len(merged); n > 0 && span[0] <= merged[n-1][1] {
			if span[1] > merged[n-1][1] {
				merged[n-1][1] = span[1]
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}

func (x *Index) removeLocked(key dayKey, id string) {
	delete(x.entries[key], id)
	if len(x.entries[key]) == 0 {
		delete(x.entries, key)
	}
	delete(x.byID, id)
}
