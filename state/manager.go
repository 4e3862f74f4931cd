package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"horizon/storage"
)

var (
	// ErrNoTransaction is returned when a write is attempted outside an open
	// state transaction.
	ErrNoTransaction = errors.New("state: no open transaction")
)

// Manager provides the keyed ledgers backing every native engine and an
// explicit all-or-nothing transaction. Engine operations execute against a
// buffered overlay; Commit flushes the overlay to the database while any
// error discards it, restoring the atomic-transition guarantee the host
// execution environment would otherwise provide.
//
// A single mutex serialises transactions and View reads, mirroring the global
// sequential ordering of the modelled execution environment. There is no
// finer-grained locking on purpose: the serialisation guarantee is the
// protection for the shared ledgers, and it is what keeps an in-flight
// overlay invisible to every other caller.
type Manager struct {
	db storage.Database

	mu      sync.Mutex
	overlay *overlay
}

type overlay struct {
	writes  map[string][]byte
	deletes map[string]struct{}
}

// NewManager wraps the provided database in a state manager.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// View runs fn under the transaction lock with no overlay installed, so the
// reads inside observe only committed state. Query paths that run concurrently
// with transactions (the RPC read handlers) must go through here: Manager
// accessors themselves take no locks and are only safe while the caller holds
// the transaction lock via View or InTransaction.
func (m *Manager) View(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

// InTransaction runs fn against a fresh overlay. When fn returns nil every
// buffered write is flushed to the database; otherwise the overlay is
// discarded and the error returned unchanged.
func (m *Manager) InTransaction(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlay = &overlay{
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
	defer func() { m.overlay = nil }()

	if err := fn(); err != nil {
		return err
	}
	for key := range m.overlay.deletes {
		if err := m.db.Delete([]byte(key)); err != nil {
			return fmt.Errorf("state: flush delete: %w", err)
		}
	}
	for key, value := range m.overlay.writes {
		if err := m.db.Put([]byte(key), value); err != nil {
			return fmt.Errorf("state: flush write: %w", err)
		}
	}
	return nil
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	if m.overlay != nil {
		if _, ok := m.overlay.deletes[string(key)]; ok {
			return nil, false, nil
		}
		if value, ok := m.overlay.writes[string(key)]; ok {
			return append([]byte(nil), value...), true, nil
		}
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) put(key, value []byte) error {
	if m.overlay == nil {
		return ErrNoTransaction
	}
	delete(m.overlay.deletes, string(key))
	m.overlay.writes[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *Manager) delete(key []byte) error {
	if m.overlay == nil {
		return ErrNoTransaction
	}
	delete(m.overlay.writes, string(key))
	m.overlay.deletes[string(key)] = struct{}{}
	return nil
}

func (m *Manager) loadJSON(key []byte, out interface{}) (bool, error) {
	raw, ok, err := m.get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", string(key), err)
	}
	return true, nil
}

func (m *Manager) storeJSON(key []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", string(key), err)
	}
	return m.put(key, raw)
}

func (m *Manager) loadUint64(key []byte) (uint64, bool, error) {
	raw, ok, err := m.get(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if len(raw) != 8 {
		return 0, false, fmt.Errorf("state: malformed counter %q", string(key))
	}
	return binary.BigEndian.Uint64(raw), true, nil
}

func (m *Manager) storeUint64(key []byte, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return m.put(key, buf[:])
}

// nextSequence increments and returns the counter stored under key, starting
// from zero for a fresh counter.
func (m *Manager) nextSequence(key []byte) (uint64, error) {
	current, _, err := m.loadUint64(key)
	if err != nil {
		return 0, err
	}
	if err := m.storeUint64(key, current+1); err != nil {
		return 0, err
	}
	return current, nil
}
