// Package protocol implements ProtocolState, the transport-independent,
// time-driven MQTT client state machine. It is a pure synchronous
// transducer: no goroutines, no locks, no internal timers. Every mutation
// happens inside HandleUserEvent, HandleNetworkEvent, or Service, each of
// which runs to completion before returning. Result handlers fire inline;
// reentering the ProtocolState from inside one is undefined behavior.
package protocol

import (
	"github.com/coremq/mqttproto/codec"
	"github.com/coremq/mqttproto/hook"
	"github.com/coremq/mqttproto/packet"
)

// SessionState is the coarse connection lifecycle state.
type SessionState byte

const (
	Disconnected SessionState = iota
	PendingConnack
	Connected
)

// ProtocolState is the full session + operation lifecycle engine: queues,
// acks, keep-alive, flow control, and offline queue policy, all driven by
// HandleUserEvent/HandleNetworkEvent/Service.
type ProtocolState struct {
	cfg Config

	state   SessionState
	haltErr error

	decoder *codec.Decoder
	encoder *codec.Encoder

	ops                           *operationTable
	userQ, resubmitQ, highPriorityQ opQueue

	pendingPublishAcks    map[uint16]OperationID
	pendingNonPublishAcks map[uint16]OperationID
	pendingWriteCompletionOperations []OperationID

	ids      *packetIDAllocator
	timeouts *operationTimeouts

	currentOperationID      OperationID
	currentOperationHasAck  bool
	awaitingWriteCompletion bool

	receiveMaximum    uint16
	maximumPacketSize uint32

	keepAliveMillis          int64
	pingTimeoutMillis        int64
	nextOutboundPingAt       timepoint
	pendingPingrespTimeoutAt timepoint
	establishmentTimeoutAt   timepoint

	hadSuccessfulConnack bool
	sessionPresent       bool
	pingScheduled        bool

	hooks *hook.Manager
}

// New constructs a ProtocolState in the Disconnected state, ready for a
// ConnectionOpened network event.
func New(cfg Config) *ProtocolState {
	recvMax := cfg.ConnectOptions.ReceiveMaximum
	if recvMax == 0 {
		recvMax = 65535
	}
	pingTimeout := cfg.PingTimeoutMillis
	if pingTimeout == 0 {
		pingTimeout = 30000
	}
	return &ProtocolState{
		cfg:                   cfg,
		state:                 Disconnected,
		decoder:               codec.NewDecoder(cfg.ProtocolVersion),
		encoder:               codec.NewEncoder(),
		ops:                   newOperationTable(),
		pendingPublishAcks:    make(map[uint16]OperationID),
		pendingNonPublishAcks: make(map[uint16]OperationID),
		ids:                   newPacketIDAllocator(),
		timeouts:              newOperationTimeouts(),
		receiveMaximum:        recvMax,
		maximumPacketSize:     cfg.MaximumPacketSize,
		keepAliveMillis:       int64(cfg.ConnectOptions.KeepAliveIntervalSeconds) * 1000,
		pingTimeoutMillis:     pingTimeout,
	}
}

// WithHooks attaches an observability hook manager; nil is valid and means
// no hooks fire.
func (p *ProtocolState) WithHooks(h *hook.Manager) *ProtocolState {
	p.hooks = h
	return p
}

// State reports the current coarse connection state.
func (p *ProtocolState) State() SessionState { return p.state }

// HaltErr reports the error that halted the machine, if any.
func (p *ProtocolState) HaltErr() error { return p.haltErr }

// VerifyEmpty reports whether every queue, table, and id set is empty — the
// invariant a halted machine (and a PreserveNothing machine after
// ConnectionClosed) must satisfy.
func (p *ProtocolState) VerifyEmpty() bool {
	return p.ops.len() == 0 &&
		p.userQ.empty() && p.resubmitQ.empty() && p.highPriorityQ.empty() &&
		len(p.pendingPublishAcks) == 0 && len(p.pendingNonPublishAcks) == 0 &&
		len(p.pendingWriteCompletionOperations) == 0 &&
		p.ids.size() == 0 &&
		p.timeouts.empty()
}

// halt sets haltErr, fails every outstanding operation with a consistent
// message, purges all state, and fires the hook notification. Once halted
// the machine emits no further bytes and refuses all events.
func (p *ProtocolState) halt(err error) error {
	if p.haltErr != nil {
		return p.haltErr
	}
	p.haltErr = err
	for _, op := range p.ops.items {
		p.failOperation(op, err)
	}
	p.ops = newOperationTable()
	p.userQ = opQueue{}
	p.resubmitQ = opQueue{}
	p.highPriorityQ = opQueue{}
	p.pendingPublishAcks = make(map[uint16]OperationID)
	p.pendingNonPublishAcks = make(map[uint16]OperationID)
	p.pendingWriteCompletionOperations = nil
	p.ids = newPacketIDAllocator()
	p.timeouts = newOperationTimeouts()
	p.currentOperationID = 0
	p.awaitingWriteCompletion = false
	if p.hooks != nil {
		p.hooks.OnHalted(err)
	}
	return err
}

// failOperation invokes the failure handler and does not touch any table —
// callers are responsible for removing the operation from wherever it lives
// before or after calling this, depending on whether the table is about to
// be wiped wholesale (halt) or needs individual cleanup.
func (p *ProtocolState) failOperation(op *ClientOperation, err error) {
	if op.Handlers.OnFailure != nil {
		op.Handlers.OnFailure(err)
	}
	if p.hooks != nil && op.Kind != opInternal {
		p.hooks.OnOperationFailed(toHookKind(op.Kind), err)
	}
}

func (p *ProtocolState) succeedOperation(op *ClientOperation, result Result) {
	if op.Handlers.OnSuccess != nil {
		op.Handlers.OnSuccess(result)
	}
}

// removeOperation evicts an operation from the table, its packet id (if
// bound), and any timeout entry. It does not run handlers or touch queues —
// callers pop/remove from queues themselves since the queue type in play
// varies by call site.
func (p *ProtocolState) removeOperation(op *ClientOperation) {
	if op.PacketID != 0 {
		p.ids.release(op.PacketID)
		delete(p.pendingPublishAcks, op.PacketID)
		delete(p.pendingNonPublishAcks, op.PacketID)
	}
	p.timeouts.cancel(op.ID)
	p.ops.remove(op.ID)
}

func requiresAck(kind UserEventKind, pub *packet.Publish) bool {
	switch kind {
	case OpSubscribe, OpUnsubscribe:
		return true
	case OpPublish:
		return pub != nil && pub.QoS != packet.QoS0
	default:
		return false
	}
}
