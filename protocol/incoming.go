package protocol

import "github.com/coremq/mqttproto/packet"

func (p *ProtocolState) onIncomingData(ev NetworkEvent) error {
	packets, err := p.decoder.Decode(ev.Bytes)
	if err != nil {
		return p.halt(ErrDecoderFailure)
	}
	for _, pkt := range packets {
		if err := p.dispatchInbound(pkt, ev.ElapsedMillis); err != nil {
			return err
		}
		if p.haltErr != nil {
			return p.haltErr
		}
	}
	return nil
}

func (p *ProtocolState) dispatchInbound(pkt *packet.Packet, now int64) error {
	switch p.state {
	case PendingConnack:
		return p.dispatchPendingConnack(pkt, now)
	case Connected:
		return p.dispatchConnected(pkt, now)
	default:
		return p.halt(ErrEventWhileDisconnected)
	}
}

func (p *ProtocolState) dispatchPendingConnack(pkt *packet.Packet, now int64) error {
	if pkt.Type != packet.CONNACK {
		return p.halt(ErrForbiddenPacketForState)
	}
	if pkt.Connack.ReasonCode != packet.ReasonSuccess {
		return p.halt(ErrConnackRejection)
	}
	p.state = Connected
	p.hadSuccessfulConnack = true
	p.sessionPresent = pkt.Connack.SessionPresent
	p.establishmentTimeoutAt = tpUnset
	p.applyConnackProperties(pkt.Connack.Properties)
	if !p.sessionPresent {
		p.failResubmitQueueForCleanSession()
	}
	if p.keepAliveMillis > 0 {
		p.nextOutboundPingAt = tpSet(now + p.keepAliveMillis)
	}
	if p.hooks != nil {
		p.hooks.OnConnack(pkt.Connack)
	}
	return nil
}

func (p *ProtocolState) applyConnackProperties(props packet.Properties) {
	if p.cfg.ProtocolVersion != packet.Version5 {
		return
	}
	if prop, ok := props.Get(packet.PropReceiveMaximum); ok {
		if v, ok := prop.Value.(uint16); ok && v > 0 {
			p.receiveMaximum = v
		}
	}
	if prop, ok := props.Get(packet.PropMaximumPacketSize); ok {
		if v, ok := prop.Value.(uint32); ok {
			p.maximumPacketSize = v
		}
	}
}

// failResubmitQueueForCleanSession fails the QoS 1+ publishes sitting in
// Resubmit when the broker reports no resumed session, unless the offline
// policy preserves them across a clean session too.
func (p *ProtocolState) failResubmitQueueForCleanSession() {
	var remaining opQueue
	for {
		id, ok := p.resubmitQ.popFront()
		if !ok {
			break
		}
		op, ok := p.ops.get(id)
		if !ok {
			continue
		}
		if p.cfg.OfflineQueuePolicy == PreserveAll {
			remaining.pushBack(id)
			continue
		}
		p.evictAndFail(op, ErrReconnectWithoutSessionNoRetry)
	}
	p.resubmitQ = remaining
}

func (p *ProtocolState) dispatchConnected(pkt *packet.Packet, now int64) error {
	switch pkt.Type {
	case packet.CONNECT, packet.CONNACK, packet.PINGREQ, packet.SUBSCRIBE, packet.UNSUBSCRIBE:
		return p.halt(ErrForbiddenPacketForState)
	case packet.DISCONNECT:
		// MQTT 3.1.1 DISCONNECT is strictly client-to-broker; an inbound one
		// is protocol-illegal. MQTT 5 allows the broker to send DISCONNECT
		// to end the session on its own terms — not a protocol violation,
		// but still a fatal condition for this ProtocolState: the transport
		// is expected to close, and every outstanding operation must be
		// told so rather than left to time out.
		if p.cfg.ProtocolVersion != packet.Version5 {
			return p.halt(ErrForbiddenPacketForState)
		}
		return p.halt(ErrServerDisconnected)
	case packet.PUBACK:
		return p.resolvePublishAck(pkt.Puback.PacketID, pkt, now)
	case packet.SUBACK:
		return p.resolveNonPublishAck(pkt.Suback.PacketID, pkt, now)
	case packet.UNSUBACK:
		p.synthesizeUnsubackReasonCodes(pkt)
		return p.resolveNonPublishAck(pkt.Unsuback.PacketID, pkt, now)
	case packet.PINGRESP:
		p.pendingPingrespTimeoutAt = tpUnset
		p.pingScheduled = false
		p.bumpPingSchedule(now)
		if p.hooks != nil {
			p.hooks.OnPongReceived()
		}
		return nil
	case packet.PUBLISH:
		if p.hooks != nil {
			p.hooks.OnPublishReceived(pkt.Publish)
		}
		return nil
	default:
		return nil
	}
}

// synthesizeUnsubackReasonCodes fills in an all-Success reason code array
// for MQTT 3.1.1, whose wire UNSUBACK carries none, sized to match the
// original UNSUBSCRIBE's filter count.
func (p *ProtocolState) synthesizeUnsubackReasonCodes(pkt *packet.Packet) {
	if p.cfg.ProtocolVersion == packet.Version5 || len(pkt.Unsuback.ReasonCodes) != 0 {
		return
	}
	opID, ok := p.pendingNonPublishAcks[pkt.Unsuback.PacketID]
	if !ok {
		return
	}
	op, ok := p.ops.get(opID)
	if !ok || op.Packet.Unsubscribe == nil {
		return
	}
	codes := make([]packet.ReasonCode, len(op.Packet.Unsubscribe.Filters))
	for i := range codes {
		codes[i] = packet.ReasonSuccess
	}
	pkt.Unsuback.ReasonCodes = codes
}

func (p *ProtocolState) resolvePublishAck(packetID uint16, pkt *packet.Packet, now int64) error {
	if packetID == 0 {
		return p.halt(ErrDecoderFailure)
	}
	opID, ok := p.pendingPublishAcks[packetID]
	if !ok {
		return nil // unknown id: silently dropped, not fatal
	}
	op, ok := p.ops.get(opID)
	if !ok {
		return nil
	}
	p.removeOperation(op)
	p.succeedOperation(op, Result{Packet: pkt})
	if p.hooks != nil {
		p.hooks.OnOperationCompleted(toHookKind(op.Kind))
	}
	p.bumpPingSchedule(now)
	return nil
}

func (p *ProtocolState) resolveNonPublishAck(packetID uint16, pkt *packet.Packet, now int64) error {
	if packetID == 0 {
		return p.halt(ErrDecoderFailure)
	}
	opID, ok := p.pendingNonPublishAcks[packetID]
	if !ok {
		return nil
	}
	op, ok := p.ops.get(opID)
	if !ok {
		return nil
	}
	p.removeOperation(op)
	p.succeedOperation(op, Result{Packet: pkt})
	if p.hooks != nil {
		p.hooks.OnOperationCompleted(toHookKind(op.Kind))
	}
	p.bumpPingSchedule(now)
	return nil
}
