package octets

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// DispatchTable maps type ids to prototypes for one state group.
type DispatchTable struct {
	name string
	mu   sync.RWMutex
	byID map[TypeID]Message
}

var (
	tables   = make(map[string]*DispatchTable)
	tablesMu sync.Mutex
)

// Table returns the process-wide dispatch table of the named state group,
// creating it on first use.
func Table(name string) *DispatchTable {
	tablesMu.Lock()
	defer tablesMu.Unlock()
	t, ok := tables[name]
	if !ok {
		t = &DispatchTable{name: name, byID: make(map[TypeID]Message)}
		tables[name] = t
	}
	return t
}

// Name returns the state group name.
func (t *DispatchTable) Name() string {
	return t.name
}

// Register binds proto under id. It reports false when id is taken.
func (t *DispatchTable) Register(id TypeID, proto Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[id]; ok {
		return false
	}
	t.byID[id] = proto
	return true
}

// MustRegister is Register for generated init functions; a duplicate id
// panics.
func (t *DispatchTable) MustRegister(id TypeID, proto Message) {
	if !t.Register(id, proto) {
		panic(fmt.Sprintf("octets: type id %d registered twice in state %q", id, t.name))
	}
}

// New returns a fresh copy of the prototype registered under id.
func (t *DispatchTable) New(id TypeID) (Message, bool) {
	t.mu.RLock()
	proto, ok := t.byID[id]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return proto.Dup(), true
}

// IDs returns the registered type ids in ascending order.
func (t *DispatchTable) IDs() []TypeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.byID))
}
