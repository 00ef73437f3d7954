package protocol

import (
	"github.com/coremq/mqttproto/codec"
	"github.com/coremq/mqttproto/packet"
)

// Service is the single time-driven entry point: the host calls it whenever
// elapsedMillis has advanced or socketBuffer has fresh room, and it is
// expected to call it again whenever GetNextServiceTimepoint says to. Each
// call applies operation timeouts, evaluates ping and Connack-establishment
// deadlines, and then — if no write is currently awaiting the host's
// WriteCompletion confirmation — encodes the next schedulable operation in
// strict HighPriority > Resubmit > User order into socketBuffer.
func (p *ProtocolState) Service(elapsedMillis int64, socketBuffer []byte) []byte {
	if p.haltErr != nil {
		return nil
	}

	p.runTimeouts(elapsedMillis)
	if p.haltErr != nil {
		return nil
	}
	if p.checkLivenessDeadlines(elapsedMillis) {
		return nil
	}
	p.maybeSchedulePing(elapsedMillis)
	if p.haltErr != nil {
		return nil
	}

	for p.currentOperationID == 0 {
		if p.awaitingWriteCompletion {
			return nil
		}
		op := p.pickNextOperation()
		if op == nil {
			return nil
		}
		if err := p.beginEncode(op); err != nil {
			continue
		}
	}
	if p.awaitingWriteCompletion {
		return nil
	}

	result := p.encoder.Service(socketBuffer)
	written := len(socketBuffer) - len(result.NextView)
	if result.Status == codec.Complete {
		p.finishEncodeComplete()
	}
	return socketBuffer[:written]
}

// GetNextServiceTimepoint reports the earliest absolute elapsed-millis
// instant at which Service should next be called, purely from timers —
// it does not account for new bytes arriving or new operations being
// submitted, both of which warrant an immediate call on their own. When the
// only outstanding work is blocked on MQTT5 Receive Maximum or packet id
// exhaustion, no timepoint is due to that work alone; ok is false unless
// some other deadline (ping, timeout, establishment) is also pending.
func (p *ProtocolState) GetNextServiceTimepoint(now int64) (int64, bool) {
	if p.haltErr != nil {
		return 0, false
	}
	candidates := []timepoint{
		p.nextOutboundPingAt,
		p.pendingPingrespTimeoutAt,
		p.establishmentTimeoutAt,
	}
	if d, ok := p.timeouts.peekDeadline(); ok {
		candidates = append(candidates, tpSet(d))
	}
	if p.hasImmediateWork() {
		candidates = append(candidates, tpSet(now))
	}
	return foldTimeMin(candidates...)
}

func (p *ProtocolState) hasImmediateWork() bool {
	if p.awaitingWriteCompletion {
		return false
	}
	if p.currentOperationID != 0 {
		return true // mid-encode, more bytes ready to flush right now
	}
	return p.peekSchedulable()
}

// bumpPingSchedule pushes the keep-alive deadline out by one interval from
// now, while Connected. It runs when a QoS 0 publish's write completes,
// when a Puback, Suback or Unsuback resolves an operation, and when a
// Pingresp arrives; other traffic leaves the deadline where it is.
func (p *ProtocolState) bumpPingSchedule(now int64) {
	if p.keepAliveMillis > 0 && p.state == Connected {
		p.nextOutboundPingAt = tpSet(now + p.keepAliveMillis)
	}
}

func (p *ProtocolState) runTimeouts(now int64) {
	for _, id := range p.timeouts.popExpired(now) {
		op, ok := p.ops.get(id)
		if !ok {
			continue
		}
		p.evictFromQueues(op)
		p.evictAndFail(op, ErrOperationTimeout)
	}
}

// evictFromQueues removes an operation from whichever queue currently holds
// it. A timed-out operation may be sitting in User, Resubmit, or
// HighPriority depending on how far it had progressed.
func (p *ProtocolState) evictFromQueues(op *ClientOperation) {
	p.userQ.remove(op.ID)
	p.resubmitQ.remove(op.ID)
	p.highPriorityQ.remove(op.ID)
	if p.currentOperationID == op.ID {
		p.currentOperationID = 0
		p.awaitingWriteCompletion = false
		p.encoder.Reset()
	}
}

// checkLivenessDeadlines halts the machine if the Connack-establishment or
// Pingresp deadline has elapsed, returning true when it did.
func (p *ProtocolState) checkLivenessDeadlines(now int64) bool {
	if p.state == PendingConnack {
		if tp := p.establishmentTimeoutAt; tp.ok && now >= tp.value {
			p.halt(ErrConnackTimeout)
			return true
		}
	}
	if tp := p.pendingPingrespTimeoutAt; tp.ok && now >= tp.value {
		p.halt(ErrPingrespTimeout)
		return true
	}
	return false
}

func (p *ProtocolState) maybeSchedulePing(now int64) {
	if p.state != Connected || p.keepAliveMillis <= 0 || p.pingScheduled {
		return
	}
	tp := p.nextOutboundPingAt
	if !tp.ok || now < tp.value {
		return
	}
	op := &ClientOperation{Kind: opInternal, Packet: &packet.Packet{Type: packet.PINGREQ, Version: p.cfg.ProtocolVersion, Pingreq: &packet.Pingreq{}}, Stage: StageQueued}
	id := p.ops.insert(op)
	p.highPriorityQ.pushBack(id)
	p.pingScheduled = true
}

// pickNextOperation pops and returns the next operation eligible to begin
// encoding, in strict priority order. It returns nil both when every queue
// is empty and when the head of the highest non-empty queue is blocked by
// backpressure — in the latter case nothing is popped, since a blocked head
// must not be skipped in favor of something behind it.
func (p *ProtocolState) pickNextOperation() *ClientOperation {
	queues := []*opQueue{&p.highPriorityQ}
	if p.state == Connected {
		queues = append(queues, &p.resubmitQ, &p.userQ)
	}
	for _, q := range queues {
		for {
			id, ok := q.peekFront()
			if !ok {
				break
			}
			op, ok := p.ops.get(id)
			if !ok {
				q.popFront()
				continue
			}
			if p.blockedByBackpressure(op) {
				return nil
			}
			q.popFront()
			return op
		}
	}
	return nil
}

// peekSchedulable mirrors pickNextOperation without mutating any queue, for
// use by GetNextServiceTimepoint.
func (p *ProtocolState) peekSchedulable() bool {
	queues := []*opQueue{&p.highPriorityQ}
	if p.state == Connected {
		queues = append(queues, &p.resubmitQ, &p.userQ)
	}
	for _, q := range queues {
		id, ok := q.peekFront()
		if !ok {
			continue
		}
		op, ok := p.ops.get(id)
		if !ok {
			continue
		}
		return !p.blockedByBackpressure(op)
	}
	return false
}

// blockedByBackpressure reports whether op cannot yet proceed: packet id
// space is exhausted, or (MQTT5 Receive Maximum) too many QoS 1+ publishes
// are already awaiting Puback.
func (p *ProtocolState) blockedByBackpressure(op *ClientOperation) bool {
	if !requiresAck(op.Kind, op.Packet.Publish) {
		return false
	}
	if p.ids.exhausted() {
		return true
	}
	if op.Kind == OpPublish && op.Packet.Publish != nil && op.Packet.Publish.QoS != packet.QoS0 {
		return uint16(len(p.pendingPublishAcks)) >= p.receiveMaximum
	}
	return false
}

// beginEncode primes the encoder for op. On failure op has already been
// evicted and failed; the caller should move on to the next schedulable
// operation.
func (p *ProtocolState) beginEncode(op *ClientOperation) error {
	op.Stage = StageEncoding
	if op.Duplicate && op.Packet.Publish != nil {
		op.Packet.Publish.Duplicate = true
	}
	err := p.encoder.InitForPacket(op.Packet, p.maximumPacketSize, func() uint16 { return p.ids.allocate() })
	if id, ok := op.Packet.PacketID(); ok {
		op.PacketID = id
	}
	if err != nil {
		p.removeOperation(op)
		p.failOperation(op, ErrOutboundValidationFailure)
		return err
	}
	p.currentOperationID = op.ID
	return nil
}

// finishEncodeComplete runs once Encoder.Service reports the current
// packet's last byte has been copied into the caller's buffer. The
// operation is not moved into an ack table yet — only onWriteCompletion
// does that — because until the host confirms the write landed, a
// ConnectionClosed must still be able to requeue it via currentOperationID.
func (p *ProtocolState) finishEncodeComplete() {
	op, ok := p.ops.get(p.currentOperationID)
	if !ok {
		p.currentOperationID = 0
		return
	}
	op.Stage = StagePendingWriteCompletion
	p.pendingWriteCompletionOperations = append(p.pendingWriteCompletionOperations, op.ID)
	p.awaitingWriteCompletion = true
}
