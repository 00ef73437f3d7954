package protocol

import "github.com/coremq/mqttproto/packet"

// NetworkEventKind is the kind of transport-level event the host feeds into
// handleNetworkEvent.
type NetworkEventKind byte

const (
	ConnectionOpened NetworkEventKind = iota
	ConnectionClosed
	IncomingData
	WriteCompletion
)

// NetworkEvent is one transport-level occurrence.
type NetworkEvent struct {
	Kind NetworkEventKind

	// EstablishmentTimeoutAt is set by the caller on ConnectionOpened: the
	// absolute elapsed-millis deadline by which a Connack must arrive.
	EstablishmentTimeoutAt int64

	// Bytes carries the IncomingData payload.
	Bytes []byte

	ElapsedMillis int64
}

// UserEventKind is the kind of user-originated operation.
type UserEventKind byte

const (
	OpPublish UserEventKind = iota
	OpSubscribe
	OpUnsubscribe
	OpDisconnect
	// opInternal marks operations ProtocolState schedules itself — the
	// implicit Connect and Pingreq — which carry no user ResultHandler.
	opInternal
)

// Result is the outcome a ClientOperation's result handlers observe.
type Result struct {
	// Packet is the ack packet that resolved the operation (Puback, Suback,
	// Unsuback) or nil for a QoS 0 publish write-completion.
	Packet *packet.Packet
}

// ResultHandler is the caller-supplied completion pair. Exactly one of
// OnSuccess/OnFailure fires, synchronously, from within the
// handleUserEvent/handleNetworkEvent/service call that resolves the
// operation. Handlers must not reenter the ProtocolState they were invoked
// from; doing so is undefined behavior — queue follow-up work instead.
type ResultHandler struct {
	OnSuccess func(Result)
	OnFailure func(error)
}

// UserEventOptions configures one submitted operation.
type UserEventOptions struct {
	// TimeoutMillis, if non-zero, bounds how long the operation may sit
	// unresolved before it fails with ErrOperationTimeout.
	TimeoutMillis int64
}

// UserEvent is one user-originated request: publish, subscribe, unsubscribe,
// or disconnect.
type UserEvent struct {
	Kind          UserEventKind
	Packet        *packet.Packet
	Options       UserEventOptions
	Handlers      ResultHandler
	ElapsedMillis int64
}
