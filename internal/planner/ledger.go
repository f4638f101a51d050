package planner

import (
	"sort"
	"sync"

	"github.com/ewoodward/routinely/internal/models"
)

// OrderKey identifies one ordering scope. It replaces the string-concatenated
// composite ids the ordering data used to travel in; a struct key removes the
// parsing step entirely.
type OrderKey struct {
	MemberID  string
	DayOfWeek string
}

// OrderLedger is the client-side mirror of the day-specific order rows: a
// per-(member, day) overlay of occurrence positions. Tasks without an entry
// still render, appended after the ordered ones — the ledger is an overlay,
// not a requirement.
type OrderLedger struct {
	mu      sync.Mutex
	entries map[OrderKey]map[string]int
}

func NewOrderLedger() *OrderLedger {
	return &OrderLedger{entries: make(map[OrderKey]map[string]int)}
}

// Reset reloads the ledger from a full-data read.
func (ledger *OrderLedger) Reset(orders []models.DaySpecificOrder) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	ledger.entries = make(map[OrderKey]map[string]int)
	ledger.applyLocked(orders)
}

// Apply merges fresh order rows, replacing the whole keyed set for each
// (member, day) present in orders. Partial merges are not meaningful because
// the backend replaces full order sets per key.
func (ledger *OrderLedger) Apply(orders []models.DaySpecificOrder) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	touched := make(map[OrderKey]bool)
	for _, order := range orders {
		key := OrderKey{MemberID: order.MemberID, DayOfWeek: order.DayOfWeek}
		if !touched[key] {
			delete(ledger.entries, key)
			touched[key] = true
		}
	}
	ledger.applyLocked(orders)
}

func (ledger *OrderLedger) applyLocked(orders []models.DaySpecificOrder) {
	for _, order := range orders {
		key := OrderKey{MemberID: order.MemberID, DayOfWeek: order.DayOfWeek}
		if ledger.entries[key] == nil {
			ledger.entries[key] = make(map[string]int)
		}
		ledger.entries[key][order.OccurrenceID] = order.OrderIndex
	}
}

// SetLocal overwrites one key from a client-side list, order_index = list
// position. Used for the optimistic half of a reorder.
func (ledger *OrderLedger) SetLocal(key OrderKey, occurrenceIDs []string) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	indexed := make(map[string]int, len(occurrenceIDs))
	for position, occurrenceID := range occurrenceIDs {
		indexed[occurrenceID] = position
	}
	ledger.entries[key] = indexed
}

// Drop forgets entries for occurrences that no longer exist.
func (ledger *OrderLedger) Drop(occurrenceIDs ...string) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	for _, indexed := range ledger.entries {
		for _, occurrenceID := range occurrenceIDs {
			delete(indexed, occurrenceID)
		}
	}
}

// EffectiveOrder sorts tasks by their ledger position for the key. Tasks with
// no entry keep their relative arrival order and follow every ordered task.
func (ledger *OrderLedger) EffectiveOrder(key OrderKey, tasks []models.TaskOccurrence) []models.TaskOccurrence {
	ledger.mu.Lock()
	indexed := ledger.entries[key]
	positions := make(map[string]int, len(indexed))
	for occurrenceID, position := range indexed {
		positions[occurrenceID] = position
	}
	ledger.mu.Unlock()

	out := make([]models.TaskOccurrence, len(tasks))
	copy(out, tasks)

	sort.SliceStable(out, func(i, j int) bool {
		posI, okI := positions[out[i].ID]
		posJ, okJ := positions[out[j].ID]
		switch {
		case okI && okJ:
			return posI < posJ
		case okI:
			return true
		case okJ:
			return false
		default:
			return false
		}
	})
	return out
}
