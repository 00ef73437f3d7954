package protocol

import "github.com/coremq/mqttproto/packet"

// HandleNetworkEvent drives the decoder, keep-alive bookkeeping, and state
// transitions in response to a transport-level occurrence.
func (p *ProtocolState) HandleNetworkEvent(ev NetworkEvent) error {
	if p.haltErr != nil {
		return ErrHalted
	}
	switch ev.Kind {
	case ConnectionOpened:
		return p.onConnectionOpened(ev)
	case ConnectionClosed:
		return p.onConnectionClosed(ev)
	case IncomingData:
		return p.onIncomingData(ev)
	case WriteCompletion:
		return p.onWriteCompletion(ev)
	default:
		return p.halt(ErrIllegalStateTransition)
	}
}

func (p *ProtocolState) onConnectionOpened(ev NetworkEvent) error {
	if p.state != Disconnected {
		return p.halt(ErrOpenedWhileNotDisconnected)
	}
	p.decoder.Reset()
	p.establishmentTimeoutAt = tpSet(ev.EstablishmentTimeoutAt)
	p.pingScheduled = false
	p.state = PendingConnack
	p.scheduleImplicitConnect(ev.ElapsedMillis)
	if p.hooks != nil {
		p.hooks.OnConnectionOpened()
	}
	return nil
}

func (p *ProtocolState) scheduleImplicitConnect(now int64) {
	connectPkt := p.buildConnectPacket()
	op := &ClientOperation{Kind: opInternal, Packet: connectPkt, Stage: StageQueued}
	id := p.ops.insert(op)
	p.highPriorityQ.pushFront(id)
}

func (p *ProtocolState) buildConnectPacket() *packet.Packet {
	opts := p.cfg.ConnectOptions
	cleanStart := true
	switch opts.ResumeSessionPolicy {
	case Never:
		cleanStart = true
	case Always:
		cleanStart = false
	case PostSuccess:
		cleanStart = !p.hadSuccessfulConnack
	}

	connect := &packet.Connect{
		ProtocolName:    "MQTT",
		ProtocolVersion: p.cfg.ProtocolVersion,
		CleanStart:      cleanStart,
		KeepAlive:       opts.KeepAliveIntervalSeconds,
		ClientID:        opts.ClientID,
		Username:        opts.Username,
		Password:        opts.Password,
	}
	if opts.Will != nil {
		connect.Will = &packet.Will{
			Topic:             opts.Will.Topic,
			Payload:           opts.Will.Payload,
			QoS:               opts.Will.QoS,
			Retain:            opts.Will.Retain,
			Properties:        opts.Will.Properties,
			DelayIntervalSecs: opts.Will.DelayIntervalSecs,
		}
	}
	if p.cfg.ProtocolVersion == packet.Version5 {
		for _, up := range opts.UserProperties {
			connect.Properties.List = append(connect.Properties.List, up)
		}
		if opts.SessionExpiryIntervalSeconds > 0 {
			connect.Properties.List = append(connect.Properties.List,
				packet.Property{ID: packet.PropSessionExpiryInterval, Value: opts.SessionExpiryIntervalSeconds})
		}
		if opts.ReceiveMaximum > 0 {
			connect.Properties.List = append(connect.Properties.List,
				packet.Property{ID: packet.PropReceiveMaximum, Value: opts.ReceiveMaximum})
		}
	}
	if opts.ConnectPacketTransformer != nil {
		opts.ConnectPacketTransformer(connect)
	}
	return &packet.Packet{Type: packet.CONNECT, Version: p.cfg.ProtocolVersion, Connect: connect}
}

func (p *ProtocolState) onConnectionClosed(ev NetworkEvent) error {
	if p.state == Disconnected {
		return p.halt(ErrEventWhileDisconnected)
	}
	p.state = Disconnected
	p.decoder.Reset()
	p.encoder.Reset()
	p.awaitingWriteCompletion = false
	p.nextOutboundPingAt = tpUnset
	p.pendingPingrespTimeoutAt = tpUnset
	p.establishmentTimeoutAt = tpUnset
	p.pingScheduled = false

	if p.currentOperationID != 0 {
		if op, ok := p.ops.get(p.currentOperationID); ok {
			// The operation may already sit in pendingWriteCompletionOperations
			// if Encoder.Service reached codec.Complete before this event
			// landed. requeueMidEncode is the sole handler for it either way;
			// without this it would also be reevaluated by the loop below and
			// end up enqueued twice.
			p.popPendingWriteCompletion(op.ID)
			p.requeueMidEncode(op)
		}
		p.currentOperationID = 0
	}

	for id := range p.pendingPublishAcks {
		opID := p.pendingPublishAcks[id]
		op, ok := p.ops.get(opID)
		if !ok {
			continue
		}
		p.reevaluateOnDisconnect(op)
	}
	for id := range p.pendingNonPublishAcks {
		opID := p.pendingNonPublishAcks[id]
		op, ok := p.ops.get(opID)
		if !ok {
			continue
		}
		p.reevaluateOnDisconnect(op)
	}
	for _, opID := range p.pendingWriteCompletionOperations {
		op, ok := p.ops.get(opID)
		if !ok {
			continue
		}
		p.reevaluateOnDisconnect(op)
	}
	p.pendingWriteCompletionOperations = nil

	if p.hooks != nil {
		p.hooks.OnConnectionClosed()
	}
	return nil
}

// requeueMidEncode handles a partial outbound packet on reconnect: an
// operation still being encoded when the connection drops returns to the
// head of the User queue, unbound, in its original position, rather than
// failing or moving to Resubmit.
func (p *ProtocolState) requeueMidEncode(op *ClientOperation) {
	if op.PacketID != 0 {
		p.ids.release(op.PacketID)
		op.PacketID = 0
	}
	op.Stage = StageQueued
	p.encoder.Reset()
	p.userQ.pushFront(op.ID)
}

// reevaluateOnDisconnect decides the fate of an operation that had a
// completed write (ack-pending, or write-completion-pending) at the moment
// the connection closed: QoS 1+ publishes move to Resubmit with dup=1 when
// the configured policy preserves them; QoS 0 publishes (PreserveAll) and
// Subscribe/Unsubscribe (PreserveAll, PreserveAcknowledged) return to the
// front of User; internal operations are dropped; everything else is failed.
func (p *ProtocolState) reevaluateOnDisconnect(op *ClientOperation) {
	isQoS1PlusPublish := op.Kind == OpPublish && op.Packet.Publish != nil && op.Packet.Publish.QoS != packet.QoS0
	isQoS0Publish := op.Kind == OpPublish && op.Packet.Publish != nil && op.Packet.Publish.QoS == packet.QoS0

	if isQoS1PlusPublish {
		if p.policyPreservesQoS1Plus() {
			op.Duplicate = true
			if op.Packet.Publish != nil {
				op.Packet.Publish.Duplicate = true
			}
			op.Stage = StageQueued
			p.resubmitQ.pushBack(op.ID)
			return
		}
		p.evictAndFail(op, ErrConnectionClosedBeforeAck)
		return
	}

	if isQoS0Publish {
		if p.cfg.OfflineQueuePolicy == PreserveAll {
			op.Stage = StageQueued
			op.PacketID = 0
			p.userQ.pushFront(op.ID)
			return
		}
		p.evictAndFail(op, ErrConnectionClosedBeforeAck)
		return
	}

	switch op.Kind {
	case OpSubscribe, OpUnsubscribe:
		if p.policyPreservesAcknowledged() {
			op.Stage = StageQueued
			op.PacketID = 0
			p.userQ.pushFront(op.ID)
			return
		}
		p.evictAndFail(op, ErrConnectionClosedBeforeAck)
	default:
		// Internal fire-and-forget operations (implicit Connect, ping,
		// outbound Disconnect) are simply dropped; nobody is waiting on them.
		p.removeOperation(op)
	}
}

func (p *ProtocolState) policyPreservesQoS1Plus() bool {
	switch p.cfg.OfflineQueuePolicy {
	case PreserveAll, PreserveAcknowledged, PreserveQos1PlusPublishes:
		return true
	default:
		return false
	}
}

func (p *ProtocolState) policyPreservesAcknowledged() bool {
	switch p.cfg.OfflineQueuePolicy {
	case PreserveAll, PreserveAcknowledged:
		return true
	default:
		return false
	}
}

func (p *ProtocolState) evictAndFail(op *ClientOperation, err error) {
	p.removeOperation(op)
	p.failOperation(op, err)
}

// onWriteCompletion retires whatever operation was mid-flight when
// InitForPacket/Service last reached codec.Complete. Until this event
// arrives the operation is tracked via currentOperationID and
// pendingWriteCompletionOperations, never in
// pendingPublishAcks/pendingNonPublishAcks — that way a ConnectionClosed
// landing in the gap between Complete and WriteCompletion is handled once,
// by requeueMidEncode, instead of twice.
func (p *ProtocolState) onWriteCompletion(ev NetworkEvent) error {
	if !p.awaitingWriteCompletion {
		return p.halt(ErrNoWritePending)
	}
	p.awaitingWriteCompletion = false
	p.encoder.Reset()

	opID := p.currentOperationID
	p.currentOperationID = 0
	p.popPendingWriteCompletion(opID)
	op, ok := p.ops.get(opID)
	if !ok {
		return nil
	}

	switch {
	case op.Kind == OpPublish && op.Packet.Publish != nil && op.Packet.Publish.QoS == packet.QoS0:
		p.removeOperation(op)
		p.succeedOperation(op, Result{})
		if p.hooks != nil {
			p.hooks.OnOperationCompleted(toHookKind(op.Kind))
		}
		p.bumpPingSchedule(ev.ElapsedMillis)
	case op.Packet.Type == packet.PINGREQ:
		p.removeOperation(op)
		p.pendingPingrespTimeoutAt = tpSet(minInt64(p.pingTimeoutMillis, p.keepAliveMillis/2) + ev.ElapsedMillis)
	case op.Packet.Type == packet.DISCONNECT:
		p.removeOperation(op)
		p.succeedOperation(op, Result{})
		if p.hooks != nil && op.Kind != opInternal {
			p.hooks.OnOperationCompleted(toHookKind(op.Kind))
		}
	case op.Packet.Type == packet.CONNECT:
		p.removeOperation(op)
	default:
		// Subscribe/Unsubscribe/QoS1+ Publish: the write landed. The
		// operation now waits on its ack.
		op.Stage = StagePendingAck
		if op.Kind == OpPublish {
			p.pendingPublishAcks[op.PacketID] = op.ID
		} else {
			p.pendingNonPublishAcks[op.PacketID] = op.ID
		}
	}
	return nil
}

func (p *ProtocolState) popPendingWriteCompletion(opID OperationID) {
	for i, id := range p.pendingWriteCompletionOperations {
		if id == opID {
			p.pendingWriteCompletionOperations = append(
				p.pendingWriteCompletionOperations[:i],
				p.pendingWriteCompletionOperations[i+1:]...)
			return
		}
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
