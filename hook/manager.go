package hook

import (
	"sync"
	"sync/atomic"

	"github.com/coremq/mqttproto/packet"
)

// Manager fans a ProtocolState's lifecycle events out to every registered
// Hook. Registration (Add/Remove) takes a mutex and rebuilds the slice;
// dispatch (the On* methods, called from inside ProtocolState on every
// event) takes none — it loads the current slice atomically and ranges over
// an immutable snapshot, so a hook dispatch never blocks a concurrent
// Add/Remove and never observes a half-updated hook list.
type Manager struct {
	mu       sync.Mutex
	hooksPtr atomic.Pointer[[]Hook]
	index    map[string]int
}

// NewManager creates an empty hook manager.
func NewManager() *Manager {
	m := &Manager{index: make(map[string]int)}
	hooks := make([]Hook, 0)
	m.hooksPtr.Store(&hooks)
	return m
}

// Add registers a hook. Returns an error if a hook with the same ID already
// exists.
func (m *Manager) Add(h Hook) error {
	if h == nil {
		return ErrEmptyHookID
	}
	id := h.ID()
	if id == "" {
		return ErrEmptyHookID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[id]; exists {
		return ErrHookAlreadyExists
	}

	oldHooks := *m.hooksPtr.Load()
	newHooks := make([]Hook, len(oldHooks)+1)
	copy(newHooks, oldHooks)
	newHooks[len(oldHooks)] = h

	m.index[id] = len(oldHooks)
	m.hooksPtr.Store(&newHooks)
	return nil
}

// Remove unregisters a hook by ID.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, exists := m.index[id]
	if !exists {
		return ErrHookNotFound
	}

	oldHooks := *m.hooksPtr.Load()
	newHooks := make([]Hook, len(oldHooks)-1)
	copy(newHooks[:idx], oldHooks[:idx])
	copy(newHooks[idx:], oldHooks[idx+1:])

	delete(m.index, id)
	for i := idx; i < len(newHooks); i++ {
		m.index[newHooks[i].ID()] = i
	}
	m.hooksPtr.Store(&newHooks)
	return nil
}

// Get retrieves a hook by ID.
func (m *Manager) Get(id string) (Hook, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, exists := m.index[id]
	if !exists {
		return nil, false
	}
	hooks := *m.hooksPtr.Load()
	return hooks[idx], true
}

// List returns a copy of every registered hook.
func (m *Manager) List() []Hook {
	hooks := *m.hooksPtr.Load()
	result := make([]Hook, len(hooks))
	copy(result, hooks)
	return result
}

// Count reports how many hooks are registered.
func (m *Manager) Count() int {
	return len(*m.hooksPtr.Load())
}

// Clear unregisters every hook.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	newHooks := make([]Hook, 0)
	m.hooksPtr.Store(&newHooks)
	m.index = make(map[string]int)
}

func (m *Manager) OnConnectionOpened() error {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnConnectionOpened) {
			if err := h.OnConnectionOpened(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) OnConnectionClosed() error {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnConnectionClosed) {
			if err := h.OnConnectionClosed(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) OnConnack(connack *packet.Connack) error {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnConnack) {
			if err := h.OnConnack(connack); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) OnPublishReceived(pub *packet.Publish) error {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnPublishReceived) {
			if err := h.OnPublishReceived(pub); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) OnPongReceived() error {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnPongReceived) {
			if err := h.OnPongReceived(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) OnOperationCompleted(kind OperationKind) error {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnOperationCompleted) {
			if err := h.OnOperationCompleted(kind); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) OnOperationFailed(kind OperationKind, opErr error) error {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnOperationFailed) {
			if err := h.OnOperationFailed(kind, opErr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) OnHalted(err error) error {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnHalted) {
			if hookErr := h.OnHalted(err); hookErr != nil {
				return hookErr
			}
		}
	}
	return nil
}
