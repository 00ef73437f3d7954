package protocol

import "github.com/coremq/mqttproto/packet"

// HandleUserEvent admits a user-originated operation: publish, subscribe,
// unsubscribe, or disconnect. If the machine is halted it fails immediately;
// otherwise, while Disconnected, the configured OfflineQueuePolicy is
// applied before the operation is queued.
func (p *ProtocolState) HandleUserEvent(ev UserEvent) error {
	if p.haltErr != nil {
		if ev.Handlers.OnFailure != nil {
			ev.Handlers.OnFailure(ErrHalted)
		}
		return ErrHalted
	}

	if p.state == Disconnected && ev.Kind != OpDisconnect {
		if rejectErr := p.checkOfflinePolicy(ev); rejectErr != nil {
			if ev.Handlers.OnFailure != nil {
				ev.Handlers.OnFailure(rejectErr)
			}
			return nil
		}
	}

	op := &ClientOperation{
		Kind:     ev.Kind,
		Packet:   ev.Packet,
		Stage:    StageQueued,
		Handlers: ev.Handlers,
	}
	if ev.Options.TimeoutMillis > 0 {
		op.TimeoutDeadline = ev.ElapsedMillis + ev.Options.TimeoutMillis
	}
	id := p.ops.insert(op)
	if op.TimeoutDeadline > 0 {
		p.timeouts.add(id, op.TimeoutDeadline)
	}

	if ev.Kind == OpDisconnect {
		p.highPriorityQ.pushBack(id)
		return nil
	}
	p.userQ.pushBack(id)
	return nil
}

// checkOfflinePolicy applies the configured offline queue policy while
// Disconnected. A nil return means the operation is admitted.
func (p *ProtocolState) checkOfflinePolicy(ev UserEvent) error {
	switch p.cfg.OfflineQueuePolicy {
	case PreserveAll:
		return nil
	case PreserveAcknowledged:
		if ev.Kind == OpSubscribe || ev.Kind == OpUnsubscribe {
			return nil
		}
		if ev.Kind == OpPublish && ev.Packet.Publish.QoS != packet.QoS0 {
			return nil
		}
		return ErrOfflineQueuePolicyRejection
	case PreserveQos1PlusPublishes:
		if ev.Kind == OpPublish && ev.Packet.Publish.QoS != packet.QoS0 {
			return nil
		}
		return ErrOfflineQueuePolicyRejection
	case PreserveNothing:
		return ErrOfflineQueuePolicyRejection
	default:
		return ErrOfflineQueuePolicyRejection
	}
}
