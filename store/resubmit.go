package store

import "github.com/coremq/mqttproto/protocol"

// ResubmitStore persists one client's Resubmit queue snapshot — the QoS 1+
// publishes protocol.SnapshotResubmitQueue encodes after a ConnectionClosed
// — keyed by client ID, so a host can survive a process restart without
// losing in-flight acknowledgements it already owns.
type ResubmitStore = Store[[]protocol.PersistedOperation]

// NewResubmitStore returns an in-memory ResubmitStore. A host that needs
// the snapshot to survive a process restart, not just a reconnect within
// one process, must back ResubmitStore with a durable Store[T]
// implementation instead.
func NewResubmitStore() ResubmitStore {
	return NewMemoryStore[[]protocol.PersistedOperation]()
}
