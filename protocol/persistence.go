package protocol

import (
	"github.com/coremq/mqttproto/codec"
	"github.com/coremq/mqttproto/packet"
)

// PersistedOperation is the durable record a host saves through a
// store.Store[[]PersistedOperation] to survive a process restart without
// losing QoS 1+ publishes sitting in Resubmit. ProtocolState never opens a
// store itself — SnapshotResubmitQueue and RestoreResubmitQueue are pure,
// host-driven boundary functions, so the no-internal-I/O rule for
// HandleUserEvent/HandleNetworkEvent/Service holds even with persistence
// wired in.
type PersistedOperation struct {
	PacketID      uint16
	Kind          UserEventKind
	EncodedPacket []byte
	Duplicate     bool
	Deadline      int64
}

// SnapshotResubmitQueue encodes every operation currently in Resubmit —
// the QoS 1+ publishes a ConnectionClosed preserved under the configured
// OfflineQueuePolicy — into a persistable form. Call it any time after
// HandleNetworkEvent(ConnectionClosed) returns; the host is responsible for
// writing the result to its store.
func (p *ProtocolState) SnapshotResubmitQueue() ([]PersistedOperation, error) {
	var out []PersistedOperation
	for _, id := range p.resubmitQ.items {
		op, ok := p.ops.get(id)
		if !ok {
			continue
		}
		encoded, err := packet.Encode(nil, op.Packet)
		if err != nil {
			return nil, err
		}
		out = append(out, PersistedOperation{
			PacketID:      op.PacketID,
			Kind:          op.Kind,
			EncodedPacket: encoded,
			Duplicate:     op.Duplicate,
			Deadline:      op.TimeoutDeadline,
		})
	}
	return out, nil
}

// RestoreResubmitQueue rehydrates a Resubmit queue saved by a prior
// SnapshotResubmitQueue. Call it before the first ConnectionOpened; calling
// it once the machine has left Disconnected is a programmer error.
func (p *ProtocolState) RestoreResubmitQueue(persisted []PersistedOperation) error {
	if p.state != Disconnected {
		return ErrEventWhileDisconnected
	}
	dec := codec.NewDecoder(p.cfg.ProtocolVersion)
	for _, rec := range persisted {
		pkts, err := dec.Decode(rec.EncodedPacket)
		if err != nil || len(pkts) != 1 {
			return ErrDecoderFailure
		}
		op := &ClientOperation{
			Kind:            rec.Kind,
			Packet:          pkts[0],
			PacketID:        rec.PacketID,
			Stage:           StageQueued,
			Duplicate:       rec.Duplicate,
			TimeoutDeadline: rec.Deadline,
		}
		id := p.ops.insert(op)
		p.ids.bind(rec.PacketID)
		if op.TimeoutDeadline > 0 {
			p.timeouts.add(id, op.TimeoutDeadline)
		}
		p.resubmitQ.pushBack(id)
		dec.Reset()
	}
	return nil
}
